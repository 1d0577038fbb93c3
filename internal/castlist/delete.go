package castlist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/mesh-intelligence/castlists/internal/virtual"
	"github.com/mesh-intelligence/castlists/pkg/types"
)

// DeleteResult reports the outcome of DeleteCastlist. Failures are reported
// here rather than as a returned error so user-facing flows can surface them
// directly; Err keeps the cause for errors.Is.
type DeleteResult struct {
	Success      bool   `json:"success"`
	Virtual      bool   `json:"virtual"`
	CleanedCount int    `json:"cleanedCount"`
	Error        string `json:"error,omitempty"`
	Err          error  `json:"-"`
}

// DeleteCastlist removes a castlist and every tribe reference to it. The
// castlist is resolved first (real or virtual); each linked tribe is
// detached; then the real entity, if any, is removed. The document is saved
// once after all mutation, so a failure never leaves partial state.
func (m *Manager) DeleteCastlist(ctx context.Context, workspaceID, id string) DeleteResult {
	var res DeleteResult
	err := m.adapter.Transact(ctx, workspaceID, func(v *virtual.View) (bool, error) {
		c := v.Castlist(id)
		if c == nil {
			return false, fmt.Errorf("delete castlist %s: %w", id, types.ErrNotFound)
		}
		targets := castlistAliases(c, id)

		ws := v.Workspace()
		for _, tid := range ws.SortedTribeIDs() {
			if detachTribe(v, ws.Tribes[tid], targets) {
				res.CleanedCount++
			}
		}

		res.Virtual = c.IsVirtual
		if !c.IsVirtual {
			delete(ws.Castlists, c.ID)
		}
		return !c.IsVirtual || res.CleanedCount > 0, nil
	})
	if err != nil {
		res = DeleteResult{Error: err.Error(), Err: err}
		level := slog.LevelError
		if errors.Is(err, types.ErrNotFound) {
			level = slog.LevelInfo
		}
		m.logger.Log(ctx, level, "castlist delete failed",
			slog.String("workspace_id", workspaceID),
			slog.String("castlist_id", id),
			slog.Any("error", err),
		)
		return res
	}
	res.Success = true
	m.logger.Info("castlist deleted",
		slog.String("workspace_id", workspaceID),
		slog.String("castlist_id", id),
		slog.Bool("virtual", res.Virtual),
		slog.Int("cleaned_tribes", res.CleanedCount),
	)
	return res
}

// castlistAliases lists every id a tribe may use to reference c: the id the
// caller asked for, c's own id, and the virtual id it was materialized from.
func castlistAliases(c *types.Castlist, requested string) []string {
	ids := []string{c.ID}
	for _, alias := range []string{requested, c.Metadata.MigratedFrom} {
		if alias != "" && !slices.Contains(ids, alias) {
			ids = append(ids, alias)
		}
	}
	return ids
}

// detachTribe removes every reference to targets from t, in whichever
// historical shape it is encoded, and re-derives the remaining fields:
//
//   - array still populated: when it held more than one entry, the legacy
//     field is re-pointed at the new first entry's display name;
//   - array emptied but a single id remains: the legacy field follows it;
//   - nothing remains: all castlist-only fields are purged.
//
// It reports whether t was linked to any target.
func detachTribe(v *virtual.View, t *types.Tribe, targets []string) bool {
	before := t.Membership()
	wasMulti := len(t.CastlistIDs) > 1

	removed := false
	for _, id := range targets {
		if t.RemoveCastlistID(id) {
			removed = true
		}
	}
	if before.Kind == types.MembershipLegacy && slices.Contains(targets, virtual.EncodeVirtualID(before.Tag)) {
		t.Castlist = ""
		removed = true
	}
	if !removed {
		return false
	}

	switch {
	case len(t.CastlistIDs) > 0:
		if wasMulti {
			v.SyncLegacyField(t)
		}
	case t.CastlistID != "":
		t.Castlist = v.DisplayName(t.CastlistID)
	default:
		t.PurgeCastlistFields()
	}
	return true
}
