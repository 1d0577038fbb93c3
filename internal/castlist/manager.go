// Package castlist is the authoritative manager for castlist entities and
// their linkage to tribes. Every mutation is one load, mutate, save cycle
// over the workspace document, built on the virtual adapter so real and
// legacy-derived castlists behave the same.
package castlist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strings"
	"time"

	"github.com/mesh-intelligence/castlists/internal/virtual"
	"github.com/mesh-intelligence/castlists/pkg/types"
)

// Creation defaults for typed castlists.
const (
	winnersEmoji       = "🏆"
	winnersDescription = "Season winners"
)

// Collaborator errors.
var (
	ErrNoSeasonRegistry = errors.New("season registry not configured")
	ErrNoGroupSource    = errors.New("group source not configured")
)

// Manager implements castlist CRUD, tribe linkage, deletion cascade,
// import helpers and search.
type Manager struct {
	adapter *virtual.Adapter
	seasons types.SeasonRegistry
	groups  types.GroupSource
	logger  *slog.Logger
	actor   string
}

// Option configures a Manager.
type Option func(*managerOptions)

type managerOptions struct {
	logger  *slog.Logger
	now     func() time.Time
	seasons types.SeasonRegistry
	groups  types.GroupSource
	actor   string
}

// WithLogger sets the logger used by the manager and its adapter.
func WithLogger(l *slog.Logger) Option {
	return func(o *managerOptions) { o.logger = l }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *managerOptions) { o.now = now }
}

// WithSeasonRegistry enables season existence checks and season imports.
func WithSeasonRegistry(r types.SeasonRegistry) Option {
	return func(o *managerOptions) { o.seasons = r }
}

// WithGroupSource enables role imports.
func WithGroupSource(g types.GroupSource) Option {
	return func(o *managerOptions) { o.groups = g }
}

// WithDefaultActor sets the actor recorded when a call does not name one.
func WithDefaultActor(actor string) Option {
	return func(o *managerOptions) { o.actor = actor }
}

// NewManager creates a Manager over store.
func NewManager(store types.DocumentStore, opts ...Option) *Manager {
	o := managerOptions{logger: slog.Default(), actor: types.DefaultActor}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.actor == "" {
		o.actor = types.DefaultActor
	}
	return &Manager{
		adapter: virtual.NewAdapter(store, virtual.WithLogger(o.logger), virtual.WithClock(o.now)),
		seasons: o.seasons,
		groups:  o.groups,
		logger:  o.logger,
		actor:   o.actor,
	}
}

// Adapter returns the virtual adapter the manager is built on.
func (m *Manager) Adapter() *virtual.Adapter {
	return m.adapter
}

func (m *Manager) actorOr(actor string) string {
	if actor != "" {
		return actor
	}
	return m.actor
}

// newIDFunc returns an id generator that avoids ids already in v.
func newIDFunc(v *virtual.View, now time.Time) func(string) string {
	return func(castlistType string) string {
		return virtual.NewRealID(castlistType, now, func(id string) bool {
			_, ok := v.Real(id)
			return ok
		})
	}
}

// CreateCastlist persists a new castlist. The type defaults to custom and
// drives creation defaults: alumni placements always sort by placement and
// winners get a crown emoji and description unless provided.
func (m *Manager) CreateCastlist(ctx context.Context, workspaceID string, cfg types.CastlistConfig) (*types.Castlist, error) {
	name := strings.TrimSpace(cfg.Name)
	if name == "" {
		return nil, types.ErrInvalidName
	}
	castlistType := cfg.Type
	if castlistType == "" {
		castlistType = types.CastlistTypeCustom
	}
	if !types.ValidCastlistType(castlistType) {
		return nil, fmt.Errorf("create castlist %q: %w", castlistType, types.ErrInvalidType)
	}
	m.checkSeason(ctx, workspaceID, cfg.SeasonID)

	var out *types.Castlist
	err := m.adapter.Transact(ctx, workspaceID, func(v *virtual.View) (bool, error) {
		now := m.adapter.Now()
		actor := m.actorOr(cfg.CreatedBy)
		c := &types.Castlist{
			ID:         newIDFunc(v, now)(castlistType),
			Name:       name,
			Type:       castlistType,
			CreatedAt:  now,
			CreatedBy:  actor,
			ModifiedAt: now,
			ModifiedBy: actor,
			Settings:   types.DefaultSettings(),
		}
		if cfg.SeasonID != "" {
			s := cfg.SeasonID
			c.SeasonID = &s
		}
		if cfg.Settings != nil {
			c.Settings = *cfg.Settings
			if c.Settings.MaxDisplay <= 0 {
				c.Settings.MaxDisplay = types.DefaultMaxDisplay
			}
			if c.Settings.SortStrategy == "" {
				c.Settings.SortStrategy = types.SortAlphabetical
			}
			if c.Settings.Visibility == "" {
				c.Settings.Visibility = types.VisibilityPublic
			}
		}
		if cfg.Metadata != nil {
			c.Metadata = *cfg.Metadata
			c.Metadata.MigratedFrom = ""
			c.Metadata.MigrationAt = nil
		}
		if cfg.Rankings != nil {
			c.Rankings = maps.Clone(cfg.Rankings)
		}
		applyTypeDefaults(c)

		v.Workspace().Castlists[c.ID] = c
		out = c.Clone()
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	m.logger.Info("castlist created",
		slog.String("workspace_id", workspaceID),
		slog.String("castlist_id", out.ID),
		slog.String("type", out.Type),
	)
	return out, nil
}

func applyTypeDefaults(c *types.Castlist) {
	switch c.Type {
	case types.CastlistTypeAlumniPlacements:
		c.Settings.SortStrategy = types.SortPlacements
	case types.CastlistTypeWinners:
		if c.Metadata.Emoji == "" {
			c.Metadata.Emoji = winnersEmoji
		}
		if c.Metadata.Description == "" {
			c.Metadata.Description = winnersDescription
		}
	}
}

// GetCastlist returns the castlist id resolves to, real or virtual, or nil.
func (m *Manager) GetCastlist(ctx context.Context, workspaceID, id string) (*types.Castlist, error) {
	return m.adapter.GetCastlist(ctx, workspaceID, id)
}

// GetAllCastlists returns every real and virtual castlist keyed by id.
func (m *Manager) GetAllCastlists(ctx context.Context, workspaceID string) (map[string]*types.Castlist, error) {
	return m.adapter.GetAllCastlists(ctx, workspaceID)
}

// ListCastlists returns every castlist sorted for display.
func (m *Manager) ListCastlists(ctx context.Context, workspaceID string) ([]*types.Castlist, error) {
	var out []*types.Castlist
	err := m.adapter.Read(ctx, workspaceID, func(v *virtual.View) error {
		out = v.List()
		return nil
	})
	return out, err
}

// GetTribesUsingCastlist returns the ids of tribes linked to id.
func (m *Manager) GetTribesUsingCastlist(ctx context.Context, workspaceID, id string) ([]string, error) {
	return m.adapter.GetTribesUsingCastlist(ctx, workspaceID, id)
}

// MaterializeCastlist promotes a virtual castlist to a real one.
func (m *Manager) MaterializeCastlist(ctx context.Context, workspaceID, virtualID, actor string) (string, error) {
	return m.adapter.MaterializeCastlist(ctx, workspaceID, virtualID, m.actorOr(actor))
}

// GetMigrationStats reports real versus virtual counts.
func (m *Manager) GetMigrationStats(ctx context.Context, workspaceID string) (virtual.MigrationStats, error) {
	return m.adapter.GetMigrationStats(ctx, workspaceID)
}

// UpdateCastlist applies patch to a real castlist. Updating the reserved
// default materializes it first when no real default exists. Any other
// castlist that is still virtual is rejected with ErrInvalidState; callers
// must materialize it explicitly.
func (m *Manager) UpdateCastlist(ctx context.Context, workspaceID, id string, patch types.CastlistPatch) (*types.Castlist, error) {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, types.ErrInvalidName
	}
	if patch.Type != nil && !types.ValidCastlistType(*patch.Type) {
		return nil, fmt.Errorf("update castlist %s: %w", id, types.ErrInvalidType)
	}
	if patch.SeasonID != nil && !patch.ClearSeason {
		m.checkSeason(ctx, workspaceID, *patch.SeasonID)
	}
	patch.ModifiedBy = m.actorOr(patch.ModifiedBy)

	var out *types.Castlist
	err := m.adapter.Transact(ctx, workspaceID, func(v *virtual.View) (bool, error) {
		now := m.adapter.Now()
		target, ok := v.Resolve(id)
		if !ok {
			switch {
			case id == types.DefaultCastlistID:
				if _, err := v.Materialize(id, patch.ModifiedBy, now, newIDFunc(v, now)); err != nil {
					return false, err
				}
				target, _ = v.Real(id)
			case v.Castlist(id) != nil:
				return false, fmt.Errorf("update castlist %s: still virtual: %w", id, types.ErrInvalidState)
			default:
				return false, fmt.Errorf("update castlist %s: %w", id, types.ErrNotFound)
			}
		}

		renamed := patch.Name != nil && *patch.Name != target.Name
		patch.Apply(target, now)
		if renamed {
			resyncFirstMembers(v, target.ID)
		}
		out = target.Clone()
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// resyncFirstMembers refreshes the legacy field of tribes whose first
// membership is castlistID, after that castlist's display name changed.
func resyncFirstMembers(v *virtual.View, castlistID string) {
	ws := v.Workspace()
	for _, tid := range ws.SortedTribeIDs() {
		t := ws.Tribes[tid]
		switch {
		case len(t.CastlistIDs) > 0:
			if t.CastlistIDs[0] == castlistID {
				v.SyncLegacyField(t)
			}
		case t.CastlistID == castlistID:
			t.Castlist = v.DisplayName(castlistID)
		}
	}
}

// checkSeason logs a warning when seasonID does not resolve. Seasons and
// castlists evolve independently, so this never blocks the caller.
func (m *Manager) checkSeason(ctx context.Context, workspaceID, seasonID string) {
	if seasonID == "" || m.seasons == nil {
		return
	}
	ok, err := m.seasons.SeasonExists(ctx, seasonID)
	if err != nil {
		m.logger.Warn("season lookup failed",
			slog.String("workspace_id", workspaceID),
			slog.String("season_id", seasonID),
			slog.Any("error", err),
		)
		return
	}
	if !ok {
		m.logger.Warn("castlist references unknown season",
			slog.String("workspace_id", workspaceID),
			slog.String("season_id", seasonID),
		)
	}
}
