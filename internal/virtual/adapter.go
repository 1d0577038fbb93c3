package virtual

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mesh-intelligence/castlists/pkg/types"
)

// Adapter exposes View operations over a DocumentStore. Reads load the
// workspace once per call; writes go through Transact so each call loads,
// mutates in memory, and saves exactly once.
type Adapter struct {
	store  types.DocumentStore
	logger *slog.Logger
	now    func() time.Time

	// locks serializes transactions per workspace within this process. The
	// document store has no row-level locking; callers in other processes
	// must be serialized by the host.
	locks sync.Map // workspace ID -> *sync.Mutex
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the logger. A nil logger keeps slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(a *Adapter) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(a *Adapter) {
		if now != nil {
			a.now = now
		}
	}
}

// NewAdapter creates an Adapter over store.
func NewAdapter(store types.DocumentStore, opts ...Option) *Adapter {
	a := &Adapter{
		store:  store,
		logger: slog.Default(),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Logger returns the adapter's logger.
func (a *Adapter) Logger() *slog.Logger {
	return a.logger
}

// Now returns the adapter clock's current time.
func (a *Adapter) Now() time.Time {
	return a.now()
}

func (a *Adapter) lock(workspaceID string) func() {
	m, _ := a.locks.LoadOrStore(workspaceID, &sync.Mutex{})
	mu := m.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Read loads the workspace and passes a View to fn. Nothing is saved.
func (a *Adapter) Read(ctx context.Context, workspaceID string, fn func(*View) error) error {
	if workspaceID == "" {
		return types.ErrWorkspaceRequired
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	ws, err := a.store.Load(ctx, workspaceID)
	if err != nil {
		return fmt.Errorf("load workspace %s: %w", workspaceID, err)
	}
	return fn(NewView(ws))
}

// Transact loads the workspace, runs fn, and saves the document once if fn
// reports a change and returns no error. When fn fails nothing is saved.
// Cancellation is honored only before the load.
func (a *Adapter) Transact(ctx context.Context, workspaceID string, fn func(*View) (bool, error)) error {
	if workspaceID == "" {
		return types.ErrWorkspaceRequired
	}
	unlock := a.lock(workspaceID)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	ws, err := a.store.Load(ctx, workspaceID)
	if err != nil {
		return fmt.Errorf("load workspace %s: %w", workspaceID, err)
	}
	if ws.WorkspaceID == "" {
		ws.WorkspaceID = workspaceID
	}
	changed, err := fn(NewView(ws))
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	if err := a.store.Save(context.WithoutCancel(ctx), ws); err != nil {
		return fmt.Errorf("save workspace %s: %w", workspaceID, err)
	}
	return nil
}

// IsVirtualID reports whether id is absent from the workspace's real
// castlists.
func (a *Adapter) IsVirtualID(ctx context.Context, workspaceID, id string) (bool, error) {
	var out bool
	err := a.Read(ctx, workspaceID, func(v *View) error {
		out = v.IsVirtualID(id)
		return nil
	})
	return out, err
}

// GetCastlist returns the castlist id resolves to, or nil when nothing does.
// The reserved default always resolves.
func (a *Adapter) GetCastlist(ctx context.Context, workspaceID, id string) (*types.Castlist, error) {
	var out *types.Castlist
	err := a.Read(ctx, workspaceID, func(v *View) error {
		out = v.Castlist(id)
		return nil
	})
	return out, err
}

// GetAllCastlists returns real and virtual castlists keyed by id.
func (a *Adapter) GetAllCastlists(ctx context.Context, workspaceID string) (map[string]*types.Castlist, error) {
	var out map[string]*types.Castlist
	err := a.Read(ctx, workspaceID, func(v *View) error {
		out = v.All()
		return nil
	})
	return out, err
}

// GetTribesUsingCastlist returns ids of tribes linked to castlist id.
func (a *Adapter) GetTribesUsingCastlist(ctx context.Context, workspaceID, id string) ([]string, error) {
	var out []string
	err := a.Read(ctx, workspaceID, func(v *View) error {
		out = v.TribesUsing(id)
		return nil
	})
	return out, err
}

// MaterializeCastlist promotes a virtual castlist to a real one and returns
// its id. It fails with ErrNotFound when no tribe references the virtual id
// and it is not the reserved default.
func (a *Adapter) MaterializeCastlist(ctx context.Context, workspaceID, virtualID, actor string) (string, error) {
	var (
		newID   string
		already bool
	)
	err := a.Transact(ctx, workspaceID, func(v *View) (bool, error) {
		_, already = v.Resolve(virtualID)
		now := a.now()
		id, err := v.Materialize(virtualID, actor, now, func(castlistType string) string {
			return NewRealID(castlistType, now, func(id string) bool {
				_, ok := v.Real(id)
				return ok
			})
		})
		if err != nil {
			return false, err
		}
		newID = id
		return !already, nil
	})
	if err != nil {
		return "", err
	}
	msg, level := "castlist materialized", slog.LevelInfo
	if already {
		msg, level = "castlist already materialized", slog.LevelDebug
	}
	a.logger.Log(ctx, level, msg,
		slog.String("workspace_id", workspaceID),
		slog.String("virtual_id", virtualID),
		slog.String("castlist_id", newID),
	)
	return newID, nil
}

// GetMigrationStats reports real versus virtual counts for a workspace.
func (a *Adapter) GetMigrationStats(ctx context.Context, workspaceID string) (MigrationStats, error) {
	var out MigrationStats
	err := a.Read(ctx, workspaceID, func(v *View) error {
		out = v.Stats()
		return nil
	})
	return out, err
}
