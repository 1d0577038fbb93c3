// Package virtual gives uniform read and materialize access to castlists
// regardless of whether they are persisted entities or views derived from
// legacy tribe tags.
package virtual

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/mesh-intelligence/castlists/pkg/types"
)

// Legacy view defaults.
const (
	legacyCreator       = "legacy"
	legacyDescription   = "Legacy castlist"
	defaultDescription  = "Default castlist"
	defaultCastlistIcon = "📋"
)

// View answers castlist questions over one loaded workspace. It never
// touches storage; Materialize mutates the workspace it wraps.
type View struct {
	ws *types.Workspace
}

// NewView wraps ws. A nil workspace is treated as empty.
func NewView(ws *types.Workspace) *View {
	if ws == nil {
		ws = types.NewWorkspace("")
	}
	if ws.Castlists == nil {
		ws.Castlists = make(map[string]*types.Castlist)
	}
	if ws.Tribes == nil {
		ws.Tribes = make(map[string]*types.Tribe)
	}
	return &View{ws: ws}
}

// Workspace returns the wrapped document.
func (v *View) Workspace() *types.Workspace {
	return v.ws
}

// IsVirtualID reports whether id is absent from the real entity table. The
// reserved default id is virtual until it is materialized.
func (v *View) IsVirtualID(id string) bool {
	_, ok := v.ws.Castlists[id]
	return !ok
}

// Real returns the persisted castlist with id, without cloning.
func (v *View) Real(id string) (*types.Castlist, bool) {
	c, ok := v.ws.Castlists[id]
	return c, ok
}

// migratedTo returns the real castlist that was materialized from the
// virtual id, if any.
func (v *View) migratedTo(virtualID string) *types.Castlist {
	if virtualID == "" {
		return nil
	}
	for _, id := range v.ws.SortedCastlistIDs() {
		c := v.ws.Castlists[id]
		if c.Metadata.MigratedFrom == virtualID {
			return c
		}
	}
	return nil
}

// Resolve returns the real castlist that answers for id: either the entity
// stored under id or the one materialized from it.
func (v *View) Resolve(id string) (*types.Castlist, bool) {
	if c, ok := v.ws.Castlists[id]; ok {
		return c, true
	}
	if c := v.migratedTo(id); c != nil {
		return c, true
	}
	return nil, false
}

// CanonicalIDs normalizes a tribe's linkage to castlist ids. A legacy tag
// contributes its virtual id only when no id shape is present; a leftover
// single id next to the array still counts as a membership.
func CanonicalIDs(t *types.Tribe) []string {
	m := t.Membership()
	switch m.Kind {
	case types.MembershipLegacy:
		return []string{EncodeVirtualID(m.Tag)}
	case types.MembershipSingleID:
		return m.IDs
	case types.MembershipMulti:
		if t.CastlistID != "" && !slices.Contains(m.IDs, t.CastlistID) {
			return append(m.IDs, t.CastlistID)
		}
		return m.IDs
	default:
		return nil
	}
}

// References reports whether tribe t is linked to castlist id in any of its
// historical shapes, following materialization aliases in both directions.
func (v *View) References(t *types.Tribe, id string) bool {
	ids := CanonicalIDs(t)
	if slices.Contains(ids, id) {
		return true
	}
	c, ok := v.Resolve(id)
	if !ok {
		return false
	}
	if slices.Contains(ids, c.ID) {
		return true
	}
	return c.Metadata.MigratedFrom != "" && slices.Contains(ids, c.Metadata.MigratedFrom)
}

// TribesUsing returns the ids of tribes linked to castlist id, sorted.
func (v *View) TribesUsing(id string) []string {
	var out []string
	for _, tid := range v.ws.SortedTribeIDs() {
		if v.References(v.ws.Tribes[tid], id) {
			out = append(out, tid)
		}
	}
	if out == nil {
		out = []string{}
	}
	return out
}

// DisplayName is the string a tribe's legacy field carries for castlist id.
// The reserved default always yields the literal default tag.
func (v *View) DisplayName(id string) string {
	if id == types.DefaultCastlistID {
		return types.DefaultCastlistTag
	}
	if c, ok := v.Resolve(id); ok {
		return c.DisplayName()
	}
	if tag, ok := DecodeVirtualID(id); ok {
		return tag
	}
	return id
}

// Castlist returns a copy of the castlist id resolves to: the real entity,
// the entity materialized from it, or a view synthesized from the tribes
// that reference it. It returns nil when nothing answers, except for the
// reserved default, which always resolves.
func (v *View) Castlist(id string) *types.Castlist {
	if id == "" {
		return nil
	}
	if c, ok := v.Resolve(id); ok {
		return c.Clone()
	}
	tag, ok := DecodeVirtualID(id)
	if !ok {
		return nil
	}
	tribes := v.TribesUsing(id)
	if len(tribes) == 0 && id != types.DefaultCastlistID {
		return nil
	}
	return v.synthesize(id, tag, tribes)
}

// synthesize builds the virtual view for a tag. Tribe-level type and
// rankings, which legacy data kept on the tribes themselves, seed the view.
func (v *View) synthesize(id, tag string, tribeIDs []string) *types.Castlist {
	c := &types.Castlist{
		ID:         id,
		Name:       tag,
		Type:       types.CastlistTypeLegacy,
		CreatedBy:  legacyCreator,
		ModifiedBy: legacyCreator,
		Settings:   types.DefaultSettings(),
		Metadata:   types.Metadata{Description: legacyDescription},
		IsVirtual:  true,
	}
	if id == types.DefaultCastlistID {
		c.Name = types.DefaultCastlistName
		c.Type = types.CastlistTypeSystem
		c.CreatedBy = types.DefaultActor
		c.ModifiedBy = types.DefaultActor
		c.Metadata = types.Metadata{Description: defaultDescription, Emoji: defaultCastlistIcon}
	}
	for _, tid := range tribeIDs {
		t := v.ws.Tribes[tid]
		if t.Type != "" && types.ValidCastlistType(t.Type) && id != types.DefaultCastlistID {
			c.Type = t.Type
		}
		for p, r := range t.Rankings {
			if c.Rankings == nil {
				c.Rankings = make(map[string]types.Ranking)
			}
			if _, ok := c.Rankings[p]; !ok {
				r.Extra = maps.Clone(r.Extra)
				c.Rankings[p] = r
			}
		}
	}
	if c.Type == types.CastlistTypeAlumniPlacements {
		c.Settings.SortStrategy = types.SortPlacements
		c.Settings.ShowRankings = true
	}
	return c
}

// All returns every castlist in the workspace: all real entities plus one
// virtual view per distinct virtual id still referenced by a tribe. The
// reserved default is always present. A virtual id that has been
// materialized appears only as its real entity.
func (v *View) All() map[string]*types.Castlist {
	out := make(map[string]*types.Castlist, len(v.ws.Castlists)+1)
	for id, c := range v.ws.Castlists {
		out[id] = c.Clone()
	}
	for _, vid := range v.discoverVirtualIDs() {
		if c := v.Castlist(vid); c != nil {
			out[c.ID] = c
		}
	}
	if _, ok := out[types.DefaultCastlistID]; !ok {
		out[types.DefaultCastlistID] = v.Castlist(types.DefaultCastlistID)
	}
	return out
}

// List returns All as a slice sorted for display.
func (v *View) List() []*types.Castlist {
	all := v.All()
	list := make([]*types.Castlist, 0, len(all))
	for _, c := range all {
		list = append(list, c)
	}
	types.SortCastlists(list)
	return list
}

// discoverVirtualIDs collects virtual ids referenced by tribes that no real
// entity answers for, in first-seen order over sorted tribe ids.
func (v *View) discoverVirtualIDs() []string {
	seen := make(map[string]bool)
	var out []string
	for _, tid := range v.ws.SortedTribeIDs() {
		for _, id := range CanonicalIDs(v.ws.Tribes[tid]) {
			if seen[id] {
				continue
			}
			seen[id] = true
			if _, ok := v.Resolve(id); ok {
				continue
			}
			if LooksVirtual(id) {
				out = append(out, id)
			}
		}
	}
	return out
}

// FoldMembership moves a legacy tag or single id into the membership array
// so further edits work on one shape, following materialization aliases.
// A single id left beside an existing array is appended to it. Tribes with
// only the array, or with no linkage, are left alone.
func (v *View) FoldMembership(t *types.Tribe) bool {
	if len(t.CastlistIDs) > 0 {
		if t.CastlistID == "" {
			return false
		}
		id := t.CastlistID
		t.CastlistID = ""
		if c, ok := v.Resolve(id); ok {
			id = c.ID
		}
		t.AddCastlistID(id)
		return true
	}
	var id string
	switch m := t.Membership(); m.Kind {
	case types.MembershipSingleID:
		id = t.CastlistID
		t.CastlistID = ""
	case types.MembershipLegacy:
		id = EncodeVirtualID(m.Tag)
	default:
		return false
	}
	if c, ok := v.Resolve(id); ok {
		id = c.ID
	}
	t.CastlistIDs = []string{id}
	return true
}

// SyncLegacyField points the legacy tag at the first membership's display
// name. It does nothing when the array is empty.
func (v *View) SyncLegacyField(t *types.Tribe) {
	if len(t.CastlistIDs) == 0 {
		return
	}
	t.Castlist = v.DisplayName(t.CastlistIDs[0])
}

// Materialize promotes a virtual castlist to a real entity seeded from its
// current view and rewrites every referencing tribe to carry the new id.
// Materializing an id that has already been promoted returns the existing
// entity's id without changes. newID generates the id for non-default
// castlists.
func (v *View) Materialize(virtualID, actor string, now time.Time, newID func(castlistType string) string) (string, error) {
	if _, ok := v.ws.Castlists[virtualID]; ok {
		return "", fmt.Errorf("materialize %s: %w", virtualID, types.ErrNotVirtual)
	}
	if c := v.migratedTo(virtualID); c != nil {
		return c.ID, nil
	}
	view := v.Castlist(virtualID)
	if view == nil {
		return "", fmt.Errorf("materialize %s: %w", virtualID, types.ErrNotFound)
	}
	if actor == "" {
		actor = types.DefaultActor
	}

	id := virtualID
	if virtualID != types.DefaultCastlistID {
		id = newID(view.Type)
	}

	entity := view.Clone()
	entity.ID = id
	entity.IsVirtual = false
	entity.CreatedAt = now
	entity.CreatedBy = actor
	entity.ModifiedAt = now
	entity.ModifiedBy = actor
	if id != virtualID {
		at := now
		entity.Metadata.MigratedFrom = virtualID
		entity.Metadata.MigrationAt = &at
	}

	tribes := v.TribesUsing(virtualID)
	v.ws.Castlists[id] = entity

	for _, tid := range tribes {
		t := v.ws.Tribes[tid]
		v.FoldMembership(t)
		if id == virtualID || !t.ReplaceCastlistID(virtualID, id) {
			t.AddCastlistID(id)
		}
		v.SyncLegacyField(t)
	}
	return id, nil
}
