package castlist

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/mesh-intelligence/castlists/pkg/types"
)

// ImportOptions customizes a castlist built by an import helper.
type ImportOptions struct {
	Name        string
	CreatedBy   string
	Emoji       string
	Description string
}

func (o ImportOptions) metadata() *types.Metadata {
	if o.Emoji == "" && o.Description == "" {
		return nil
	}
	return &types.Metadata{Emoji: o.Emoji, Description: o.Description}
}

// ImportFromSeason creates a season_cast castlist bound to seasonID whose
// rankings place the season's accepted applicants in application order.
func (m *Manager) ImportFromSeason(ctx context.Context, workspaceID, seasonID string, opts ImportOptions) (*types.Castlist, error) {
	if m.seasons == nil {
		return nil, ErrNoSeasonRegistry
	}
	if seasonID == "" {
		return nil, fmt.Errorf("import season: %w", types.ErrInvalidID)
	}
	apps, err := m.seasons.ListAcceptedApplications(ctx, seasonID)
	if err != nil {
		return nil, fmt.Errorf("import season %s: %w", seasonID, err)
	}
	participants := make([]string, 0, len(apps))
	for _, a := range apps {
		participants = append(participants, a.ParticipantID)
	}

	name := opts.Name
	if strings.TrimSpace(name) == "" {
		name = "Season " + seasonID
	}
	c, err := m.importCastlist(ctx, workspaceID, types.CastlistConfig{
		Name:      name,
		Type:      types.CastlistTypeSeasonCast,
		SeasonID:  seasonID,
		CreatedBy: opts.CreatedBy,
		Metadata:  opts.metadata(),
	}, participants)
	if err != nil {
		return nil, err
	}
	m.logger.Info("castlist imported from season",
		slog.String("workspace_id", workspaceID),
		slog.String("season_id", seasonID),
		slog.String("castlist_id", c.ID),
		slog.Int("participants", len(c.Rankings)),
	)
	return c, nil
}

// ImportFromRole creates a role_import castlist from the members of a group.
// The member list and the group's display name are fetched concurrently;
// the display name is used when opts.Name is empty.
func (m *Manager) ImportFromRole(ctx context.Context, workspaceID, groupID string, opts ImportOptions) (*types.Castlist, error) {
	if m.groups == nil {
		return nil, ErrNoGroupSource
	}
	if groupID == "" {
		return nil, fmt.Errorf("import role: %w", types.ErrInvalidID)
	}

	var (
		members     []string
		displayName string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		members, err = m.groups.ListMembers(gctx, groupID)
		return err
	})
	g.Go(func() error {
		var err error
		displayName, err = m.groups.GetGroupDisplayName(gctx, groupID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("import role %s: %w", groupID, err)
	}

	name := opts.Name
	if strings.TrimSpace(name) == "" {
		name = displayName
	}
	if strings.TrimSpace(name) == "" {
		name = groupID
	}
	c, err := m.importCastlist(ctx, workspaceID, types.CastlistConfig{
		Name:      name,
		Type:      types.CastlistTypeRoleImport,
		CreatedBy: opts.CreatedBy,
		Metadata:  opts.metadata(),
	}, members)
	if err != nil {
		return nil, err
	}
	m.logger.Info("castlist imported from role",
		slog.String("workspace_id", workspaceID),
		slog.String("group_id", groupID),
		slog.String("castlist_id", c.ID),
		slog.Int("participants", len(c.Rankings)),
	)
	return c, nil
}

// importCastlist creates the castlist, then applies its rankings through an
// update so the import takes the same path as a user edit. The two steps
// save separately and are not atomic, so the rankings also go into the
// create: a failed update leaves a complete castlist behind, only without
// the final modification stamp.
func (m *Manager) importCastlist(ctx context.Context, workspaceID string, cfg types.CastlistConfig, participants []string) (*types.Castlist, error) {
	rankings := types.SequentialRankings(participants)
	cfg.Rankings = rankings
	c, err := m.CreateCastlist(ctx, workspaceID, cfg)
	if err != nil {
		return nil, err
	}
	return m.UpdateCastlist(ctx, workspaceID, c.ID, types.CastlistPatch{
		Rankings:   rankings,
		ModifiedBy: cfg.CreatedBy,
	})
}
