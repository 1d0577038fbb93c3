package virtual

import "github.com/mesh-intelligence/castlists/pkg/types"

// MigrationStats summarizes how far a workspace has moved from legacy tags
// to real castlists. It is informational only.
type MigrationStats struct {
	RealCount         int `json:"realCount"`
	VirtualCount      int `json:"virtualCount"`
	MaterializedCount int `json:"materializedCount"`
	TotalCastlists    int `json:"totalCastlists"`
	LegacyTribes      int `json:"legacyTribes"`
	SingleIDTribes    int `json:"singleIdTribes"`
	MultiTribes       int `json:"multiTribes"`
	UnlinkedTribes    int `json:"unlinkedTribes"`
}

// Stats computes MigrationStats for the wrapped workspace.
func (v *View) Stats() MigrationStats {
	var s MigrationStats
	for _, c := range v.All() {
		if c.IsVirtual {
			s.VirtualCount++
			continue
		}
		s.RealCount++
		if c.Metadata.MigratedFrom != "" {
			s.MaterializedCount++
		}
	}
	s.TotalCastlists = s.RealCount + s.VirtualCount

	for _, t := range v.ws.Tribes {
		switch t.Membership().Kind {
		case types.MembershipLegacy:
			s.LegacyTribes++
		case types.MembershipSingleID:
			s.SingleIDTribes++
		case types.MembershipMulti:
			s.MultiTribes++
		default:
			s.UnlinkedTribes++
		}
	}
	return s
}
