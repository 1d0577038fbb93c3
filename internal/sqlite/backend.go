// Package sqlite implements the workspace document store for castlists,
// using SQLite as the query engine and JSONL files as the source of truth.
// It also serves the season registry and group source the castlist
// manager consults.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/castlists/pkg/types"
)

const dbFile = "castlists.db"

// Backend implements types.DocumentStore, types.SeasonRegistry and
// types.GroupSource.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	dataDir  string
	db       *sql.DB
	logger   *slog.Logger

	// JSONL files waiting for persistence under the on_close strategy.
	syncStrategy string
	pending      map[string]bool
}

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the backend logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Backend) {
		if l != nil {
			b.logger = l
		}
	}
}

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend(opts ...Option) *Backend {
	b := &Backend{logger: slog.Default()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Attach initializes the backend with the given configuration. It creates
// DataDir and any missing JSONL files, builds a fresh SQLite database and
// loads every JSONL file into it.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}
	for _, tf := range tableFiles {
		if err := ensureJSONL(filepath.Join(dataDir, tf.file)); err != nil {
			return err
		}
	}

	// The database is a cache of the JSONL files and is rebuilt on every attach.
	dbPath := filepath.Join(dataDir, dbFile)
	_ = os.Remove(dbPath)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	if err := createSchema(db); err != nil {
		db.Close()
		return err
	}
	if err := loadAllJSONL(db, dataDir); err != nil {
		db.Close()
		return fmt.Errorf("load JSONL: %w", err)
	}

	b.db = db
	b.config = config
	b.dataDir = dataDir
	b.syncStrategy = config.EffectiveSyncStrategy()
	b.pending = make(map[string]bool)
	b.attached = true

	b.logger.Debug("store attached",
		slog.String("data_dir", dataDir),
		slog.String("sync", b.syncStrategy),
	)
	return nil
}

func createSchema(db *sql.DB) error {
	for _, ddl := range append(append([]string{}, schemaDDL...), indexDDL...) {
		if _, err := db.Exec(ddl); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	return nil
}

// Detach flushes pending JSONL writes and closes the database. After
// Detach, all operations return ErrStoreDetached. Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	if err := b.flushPendingLocked(context.Background()); err != nil {
		return fmt.Errorf("flush pending writes: %w", err)
	}
	if err := b.db.Close(); err != nil {
		return err
	}
	b.db = nil
	b.attached = false
	b.logger.Debug("store detached", slog.String("data_dir", b.dataDir))
	return nil
}

// Load returns the workspace document. A workspace with no rows loads as an
// empty document.
func (b *Backend) Load(ctx context.Context, workspaceID string) (*types.Workspace, error) {
	if workspaceID == "" {
		return nil, types.ErrWorkspaceRequired
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrStoreDetached
	}

	ws := types.NewWorkspace(workspaceID)

	castlists, err := b.db.QueryContext(ctx, selectByWorkspace("castlists"), workspaceID)
	if err != nil {
		return nil, fmt.Errorf("loading castlists: %w", err)
	}
	defer castlists.Close()
	for castlists.Next() {
		c, err := scanCastlist(castlists)
		if err != nil {
			return nil, err
		}
		ws.Castlists[c.ID] = c
	}
	if err := castlists.Err(); err != nil {
		return nil, err
	}

	tribes, err := b.db.QueryContext(ctx, selectByWorkspace("tribes"), workspaceID)
	if err != nil {
		return nil, fmt.Errorf("loading tribes: %w", err)
	}
	defer tribes.Close()
	for tribes.Next() {
		t, err := scanTribe(tribes)
		if err != nil {
			return nil, err
		}
		ws.Tribes[t.TribeID] = t
	}
	if err := tribes.Err(); err != nil {
		return nil, err
	}

	b.logger.Debug("workspace loaded",
		slog.String("workspace_id", workspaceID),
		slog.Int("castlists", len(ws.Castlists)),
		slog.Int("tribes", len(ws.Tribes)),
	)
	return ws, nil
}

// Save replaces every castlist and tribe row of the workspace in one
// transaction, then persists the castlist and tribe JSONL files.
func (b *Backend) Save(ctx context.Context, ws *types.Workspace) error {
	if ws == nil || ws.WorkspaceID == "" {
		return types.ErrWorkspaceRequired
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.attached {
		return types.ErrStoreDetached
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning save: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"castlists", "tribes"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE workspace_id = ?", ws.WorkspaceID); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}
	castlistTF, _ := tableFileFor(castlistsJSONL)
	for _, id := range ws.SortedCastlistIDs() {
		args, err := castlistArgs(ws.WorkspaceID, ws.Castlists[id])
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, insertSQL(castlistTF), args...); err != nil {
			return fmt.Errorf("saving castlist %s: %w", id, err)
		}
	}
	tribeTF, _ := tableFileFor(tribesJSONL)
	for _, id := range ws.SortedTribeIDs() {
		args, err := tribeArgs(ws.WorkspaceID, ws.Tribes[id])
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, insertSQL(tribeTF), args...); err != nil {
			return fmt.Errorf("saving tribe %s: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing save: %w", err)
	}

	b.logger.Debug("workspace saved",
		slog.String("workspace_id", ws.WorkspaceID),
		slog.Int("castlists", len(ws.Castlists)),
		slog.Int("tribes", len(ws.Tribes)),
	)
	return b.persistLocked(ctx, castlistsJSONL, tribesJSONL)
}

// persistLocked writes the named JSONL files now, or queues them for Detach
// under the on_close strategy. The caller must hold b.mu.
func (b *Backend) persistLocked(ctx context.Context, files ...string) error {
	if b.syncStrategy == types.SyncOnClose {
		for _, f := range files {
			b.pending[f] = true
		}
		return nil
	}
	for _, f := range files {
		if err := b.persistTableJSONL(ctx, f); err != nil {
			return err
		}
	}
	return nil
}

// flushPendingLocked persists every queued JSONL file. The caller must hold
// b.mu.
func (b *Backend) flushPendingLocked(ctx context.Context) error {
	for _, tf := range tableFiles {
		if !b.pending[tf.file] {
			continue
		}
		if err := b.persistTableJSONL(ctx, tf.file); err != nil {
			return err
		}
		delete(b.pending, tf.file)
	}
	return nil
}

// persistTableJSONL rewrites one JSONL file from its SQLite table.
func (b *Backend) persistTableJSONL(ctx context.Context, file string) error {
	tf, ok := tableFileFor(file)
	if !ok {
		return fmt.Errorf("persist %s: unknown file", file)
	}
	records, err := readTableRecords(ctx, b.db, tf)
	if err != nil {
		return err
	}
	if err := writeJSONL(filepath.Join(b.dataDir, tf.file), records); err != nil {
		return fmt.Errorf("persisting %s: %w", tf.file, err)
	}
	return nil
}

func selectByWorkspace(table string) string {
	tf, _ := tableFileFor(table + ".jsonl")
	return fmt.Sprintf("SELECT %s FROM %s WHERE workspace_id = ? ORDER BY %s",
		strings.Join(tf.columns, ", "), tf.table, tf.orderBy)
}

func insertSQL(tf tableFile) string {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(tf.columns)), ", ")
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", tf.table, strings.Join(tf.columns, ", "), placeholders)
}
