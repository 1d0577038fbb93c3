package types

import (
	"maps"
	"slices"
)

// Tribe is a role-tagged participant group. Its castlist linkage may be
// encoded in any of three historical shapes: the legacy Castlist tag, the
// legacy single CastlistID, and the CastlistIDs membership array.
type Tribe struct {
	TribeID     string             `json:"tribeId"`
	WorkspaceID string             `json:"workspaceId"`
	Name        string             `json:"name,omitempty"`
	Emoji       string             `json:"emoji,omitempty"`
	Color       string             `json:"color,omitempty"`
	Castlist    string             `json:"castlist,omitempty"`
	CastlistID  string             `json:"castlistId,omitempty"`
	CastlistIDs []string           `json:"castlistIds,omitempty"`
	Type        string             `json:"type,omitempty"`
	Rankings    map[string]Ranking `json:"rankings,omitempty"`
}

// Clone returns a deep copy of t.
func (t *Tribe) Clone() *Tribe {
	if t == nil {
		return nil
	}
	cp := *t
	cp.CastlistIDs = slices.Clone(t.CastlistIDs)
	if t.Rankings != nil {
		cp.Rankings = make(map[string]Ranking, len(t.Rankings))
		for k, r := range t.Rankings {
			r.Extra = maps.Clone(r.Extra)
			cp.Rankings[k] = r
		}
	}
	return &cp
}

// MembershipKind tags which historical shape a tribe's linkage uses.
type MembershipKind int

// Membership kinds, newest last.
const (
	MembershipNone MembershipKind = iota
	MembershipLegacy
	MembershipSingleID
	MembershipMulti
)

func (k MembershipKind) String() string {
	switch k {
	case MembershipLegacy:
		return "legacy"
	case MembershipSingleID:
		return "single_id"
	case MembershipMulti:
		return "multi"
	default:
		return "none"
	}
}

// Membership is the normalized view of a tribe's castlist linkage. Exactly
// one of Tag (Legacy) or IDs (SingleID, Multi) is meaningful.
type Membership struct {
	Kind MembershipKind
	Tag  string
	IDs  []string
}

// Membership classifies the tribe's linkage. The array wins over the single
// id, which wins over the legacy tag; when the array is present the tag is
// only a mirror of the first entry's display name.
func (t *Tribe) Membership() Membership {
	switch {
	case len(t.CastlistIDs) > 0:
		return Membership{Kind: MembershipMulti, IDs: slices.Clone(t.CastlistIDs)}
	case t.CastlistID != "":
		return Membership{Kind: MembershipSingleID, IDs: []string{t.CastlistID}}
	case t.Castlist != "":
		return Membership{Kind: MembershipLegacy, Tag: t.Castlist}
	default:
		return Membership{Kind: MembershipNone}
	}
}

// HasLinkage reports whether any linkage shape is populated.
func (t *Tribe) HasLinkage() bool {
	return len(t.CastlistIDs) > 0 || t.CastlistID != "" || t.Castlist != ""
}

// HasCastlistID reports whether id is in the membership array.
func (t *Tribe) HasCastlistID(id string) bool {
	return slices.Contains(t.CastlistIDs, id)
}

// AddCastlistID appends id to the membership array if absent. It reports
// whether the array changed.
func (t *Tribe) AddCastlistID(id string) bool {
	if id == "" || t.HasCastlistID(id) {
		return false
	}
	t.CastlistIDs = append(t.CastlistIDs, id)
	return true
}

// RemoveCastlistID drops every occurrence of id from the membership array
// and the single-id field. It reports whether anything was removed.
func (t *Tribe) RemoveCastlistID(id string) bool {
	removed := false
	if i := slices.Index(t.CastlistIDs, id); i >= 0 {
		t.CastlistIDs = slices.DeleteFunc(t.CastlistIDs, func(s string) bool { return s == id })
		removed = true
	}
	if t.CastlistID == id {
		t.CastlistID = ""
		removed = true
	}
	if len(t.CastlistIDs) == 0 {
		t.CastlistIDs = nil
	}
	return removed
}

// ReplaceCastlistID swaps from for to in the membership array, keeping the
// position and dropping a duplicate if to was already present.
func (t *Tribe) ReplaceCastlistID(from, to string) bool {
	i := slices.Index(t.CastlistIDs, from)
	if i < 0 {
		return false
	}
	if from == to {
		return true
	}
	if slices.Contains(t.CastlistIDs, to) {
		t.CastlistIDs = slices.Delete(t.CastlistIDs, i, i+1)
		return true
	}
	t.CastlistIDs[i] = to
	return true
}

// PurgeCastlistFields clears every castlist-only field: all three linkage
// shapes plus the tribe type and tribe-level rankings.
func (t *Tribe) PurgeCastlistFields() {
	t.Castlist = ""
	t.CastlistID = ""
	t.CastlistIDs = nil
	t.Type = ""
	t.Rankings = nil
}
