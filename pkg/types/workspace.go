package types

import (
	"cmp"
	"maps"
	"slices"
)

// Workspace is the aggregate root loaded and saved as one document. All
// castlist and tribe mutation happens on a loaded Workspace and reaches
// storage through a single DocumentStore.Save.
type Workspace struct {
	WorkspaceID string               `json:"workspaceId"`
	Castlists   map[string]*Castlist `json:"castlistConfigs"`
	Tribes      map[string]*Tribe    `json:"tribes"`
}

// NewWorkspace returns an empty workspace document.
func NewWorkspace(id string) *Workspace {
	return &Workspace{
		WorkspaceID: id,
		Castlists:   make(map[string]*Castlist),
		Tribes:      make(map[string]*Tribe),
	}
}

// Clone returns a deep copy of the document.
func (w *Workspace) Clone() *Workspace {
	cp := NewWorkspace(w.WorkspaceID)
	for id, c := range w.Castlists {
		cp.Castlists[id] = c.Clone()
	}
	for id, t := range w.Tribes {
		cp.Tribes[id] = t.Clone()
	}
	return cp
}

// SortedTribeIDs returns tribe ids in ascending order so scans are
// deterministic.
func (w *Workspace) SortedTribeIDs() []string {
	return slices.Sorted(maps.Keys(w.Tribes))
}

// SortedCastlistIDs returns real castlist ids in ascending order.
func (w *Workspace) SortedCastlistIDs() []string {
	return slices.Sorted(maps.Keys(w.Castlists))
}

// SortCastlists orders castlists by name, then id. The default castlist
// always sorts first.
func SortCastlists(list []*Castlist) {
	slices.SortFunc(list, func(a, b *Castlist) int {
		if a.ID == DefaultCastlistID || b.ID == DefaultCastlistID {
			if a.ID == b.ID {
				return 0
			}
			if a.ID == DefaultCastlistID {
				return -1
			}
			return 1
		}
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
}
