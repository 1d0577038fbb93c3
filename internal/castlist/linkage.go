package castlist

import (
	"context"
	"log/slog"

	"github.com/mesh-intelligence/castlists/internal/virtual"
	"github.com/mesh-intelligence/castlists/pkg/types"
)

// LinkTribeToCastlist adds castlistID to the tribe's memberships and syncs
// the legacy field to the first membership. It returns false without
// changes when either the tribe or the castlist does not resolve.
func (m *Manager) LinkTribeToCastlist(ctx context.Context, workspaceID, tribeID, castlistID string) (bool, error) {
	linked := false
	err := m.adapter.Transact(ctx, workspaceID, func(v *virtual.View) (bool, error) {
		t, ok := v.Workspace().Tribes[tribeID]
		if !ok {
			return false, nil
		}
		c := v.Castlist(castlistID)
		if c == nil {
			return false, nil
		}
		linked = true

		before := t.Clone()
		v.FoldMembership(t)
		t.AddCastlistID(c.ID)
		v.SyncLegacyField(t)
		return !sameLinkage(before, t), nil
	})
	if err != nil {
		return false, err
	}
	if linked {
		m.logger.Debug("tribe linked",
			slog.String("workspace_id", workspaceID),
			slog.String("tribe_id", tribeID),
			slog.String("castlist_id", castlistID),
		)
	}
	return linked, nil
}

// UnlinkTribeFromCastlist removes one membership, or all of them when
// castlistID is empty. Removing one membership re-derives the legacy field
// the same way the deletion cascade does. Removing all memberships resets
// the legacy field to the default tag. It returns false, and saves nothing,
// when the tribe is missing or was not linked.
func (m *Manager) UnlinkTribeFromCastlist(ctx context.Context, workspaceID, tribeID, castlistID string) (bool, error) {
	unlinked := false
	err := m.adapter.Transact(ctx, workspaceID, func(v *virtual.View) (bool, error) {
		t, ok := v.Workspace().Tribes[tribeID]
		if !ok {
			return false, nil
		}
		if castlistID == "" {
			unlinked = resetToDefault(t)
			return unlinked, nil
		}
		targets := []string{castlistID}
		if c, ok := v.Resolve(castlistID); ok {
			targets = castlistAliases(c, castlistID)
		}
		unlinked = detachTribe(v, t, targets)
		return unlinked, nil
	})
	if err != nil {
		return false, err
	}
	return unlinked, nil
}

// resetToDefault clears every linkage shape and points the legacy field at
// the default tag. It reports whether anything changed.
func resetToDefault(t *types.Tribe) bool {
	if len(t.CastlistIDs) == 0 && t.CastlistID == "" && t.Castlist == types.DefaultCastlistTag {
		return false
	}
	t.CastlistIDs = nil
	t.CastlistID = ""
	t.Castlist = types.DefaultCastlistTag
	return true
}

func sameLinkage(a, b *types.Tribe) bool {
	if a.Castlist != b.Castlist || a.CastlistID != b.CastlistID || len(a.CastlistIDs) != len(b.CastlistIDs) {
		return false
	}
	for i := range a.CastlistIDs {
		if a.CastlistIDs[i] != b.CastlistIDs[i] {
			return false
		}
	}
	return true
}
