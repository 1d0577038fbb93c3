// Package sqlite provides the public API for the SQLite castlist store.
// It exposes the factory for creating backends while keeping the
// implementation internal.
package sqlite

import (
	"log/slog"

	"github.com/mesh-intelligence/castlists/internal/sqlite"
	"github.com/mesh-intelligence/castlists/pkg/types"
)

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
//
// Example:
//
//	backend := sqlite.NewBackend(nil)
//	err := backend.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".castlists",
//	})
//	defer backend.Detach()
func NewBackend(logger *slog.Logger) types.Backend {
	return sqlite.NewBackend(sqlite.WithLogger(logger))
}
