// This file serves the season registry and group source from the shared
// seasons, applications, role_groups and group_members tables.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/castlists/pkg/types"
)

// SeasonExists reports whether a season with the given id is registered.
func (b *Backend) SeasonExists(ctx context.Context, seasonID string) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return false, types.ErrStoreDetached
	}
	var n int
	if err := b.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM seasons WHERE season_id = ?", seasonID).Scan(&n); err != nil {
		return false, fmt.Errorf("checking season %s: %w", seasonID, err)
	}
	return n > 0, nil
}

// ListAcceptedApplications returns the season's accepted applications
// ordered by application time.
func (b *Backend) ListAcceptedApplications(ctx context.Context, seasonID string) ([]types.Application, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrStoreDetached
	}
	rows, err := b.db.QueryContext(ctx,
		`SELECT season_id, participant_id, status, applied_at FROM applications
		 WHERE season_id = ? AND status = ? ORDER BY applied_at, participant_id`,
		seasonID, types.ApplicationAccepted)
	if err != nil {
		return nil, fmt.Errorf("listing applications of %s: %w", seasonID, err)
	}
	defer rows.Close()

	var apps []types.Application
	for rows.Next() {
		var a types.Application
		var appliedAt string
		if err := rows.Scan(&a.SeasonID, &a.ParticipantID, &a.Status, &appliedAt); err != nil {
			return nil, fmt.Errorf("scanning application: %w", err)
		}
		a.AppliedAt = parseTime(appliedAt)
		apps = append(apps, a)
	}
	return apps, rows.Err()
}

// ListMembers returns the participant ids of a group in the order they
// were added. Unknown groups return ErrNotFound.
func (b *Backend) ListMembers(ctx context.Context, groupID string) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrStoreDetached
	}
	if _, err := b.groupNameLocked(ctx, groupID); err != nil {
		return nil, err
	}
	rows, err := b.db.QueryContext(ctx,
		"SELECT participant_id FROM group_members WHERE group_id = ? ORDER BY ordinal, participant_id", groupID)
	if err != nil {
		return nil, fmt.Errorf("listing members of %s: %w", groupID, err)
	}
	defer rows.Close()

	members := []string{}
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scanning member: %w", err)
		}
		members = append(members, p)
	}
	return members, rows.Err()
}

// GetGroupDisplayName returns the group's name, or ErrNotFound.
func (b *Backend) GetGroupDisplayName(ctx context.Context, groupID string) (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return "", types.ErrStoreDetached
	}
	return b.groupNameLocked(ctx, groupID)
}

func (b *Backend) groupNameLocked(ctx context.Context, groupID string) (string, error) {
	var name string
	err := b.db.QueryRowContext(ctx, "SELECT name FROM role_groups WHERE group_id = ?", groupID).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("group %s: %w", groupID, types.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("reading group %s: %w", groupID, err)
	}
	return name, nil
}

// PutSeason creates or renames a season.
func (b *Backend) PutSeason(ctx context.Context, s types.Season) error {
	if strings.TrimSpace(s.SeasonID) == "" {
		return fmt.Errorf("put season: %w", types.ErrInvalidID)
	}
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("put season %s: %w", s.SeasonID, types.ErrInvalidName)
	}
	return b.write(ctx, []string{seasonsJSONL},
		`INSERT INTO seasons (season_id, name, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(season_id) DO UPDATE SET name = excluded.name`,
		s.SeasonID, s.Name, formatTime(s.CreatedAt))
}

// PutApplication records an application, replacing the status of an
// existing one. The season must exist.
func (b *Backend) PutApplication(ctx context.Context, a types.Application) error {
	if a.SeasonID == "" || a.ParticipantID == "" {
		return fmt.Errorf("put application: %w", types.ErrInvalidID)
	}
	switch a.Status {
	case types.ApplicationPending, types.ApplicationAccepted, types.ApplicationRejected:
	default:
		return fmt.Errorf("put application status %q: %w", a.Status, types.ErrInvalidData)
	}
	ok, err := b.SeasonExists(ctx, a.SeasonID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("put application for season %s: %w", a.SeasonID, types.ErrNotFound)
	}
	return b.write(ctx, []string{applicationsJSONL},
		`INSERT INTO applications (season_id, participant_id, status, applied_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(season_id, participant_id) DO UPDATE SET status = excluded.status`,
		a.SeasonID, a.ParticipantID, a.Status, formatTime(a.AppliedAt))
}

// PutGroup creates or renames a group.
func (b *Backend) PutGroup(ctx context.Context, g types.Group) error {
	if strings.TrimSpace(g.GroupID) == "" {
		return fmt.Errorf("put group: %w", types.ErrInvalidID)
	}
	if strings.TrimSpace(g.Name) == "" {
		return fmt.Errorf("put group %s: %w", g.GroupID, types.ErrInvalidName)
	}
	return b.write(ctx, []string{groupsJSONL},
		`INSERT INTO role_groups (group_id, name) VALUES (?, ?)
		 ON CONFLICT(group_id) DO UPDATE SET name = excluded.name`,
		g.GroupID, g.Name)
}

// PutGroupMember appends a participant to a group. Adding an existing
// member keeps its position.
func (b *Backend) PutGroupMember(ctx context.Context, groupID, participantID string) error {
	if groupID == "" || participantID == "" {
		return fmt.Errorf("put group member: %w", types.ErrInvalidID)
	}
	if _, err := b.GetGroupDisplayName(ctx, groupID); err != nil {
		return err
	}
	return b.write(ctx, []string{groupMembersJSONL},
		`INSERT INTO group_members (group_id, participant_id, ordinal)
		 SELECT ?, ?, COALESCE(MAX(ordinal), 0) + 1 FROM group_members WHERE group_id = ?
		 ON CONFLICT(group_id, participant_id) DO NOTHING`,
		groupID, participantID, groupID)
}

// write runs one statement in a transaction and persists files.
func (b *Backend) write(ctx context.Context, files []string, query string, args ...any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.attached {
		return types.ErrStoreDetached
	}
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning write: %w", err)
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("writing %s: %w", strings.Join(files, ", "), err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing write: %w", err)
	}
	return b.persistLocked(ctx, files...)
}
