package types

import (
	"context"
	"errors"
)

// DocumentStore loads and saves whole workspace documents. There is no
// row-level API: callers load, mutate in memory, and save once.
type DocumentStore interface {
	// Load returns the workspace document. A workspace that has never been
	// saved loads as an empty document, not an error.
	Load(ctx context.Context, workspaceID string) (*Workspace, error)

	// Save replaces the stored document with ws.
	Save(ctx context.Context, ws *Workspace) error
}

// SeasonRegistry answers questions about seasons and their applications.
type SeasonRegistry interface {
	// SeasonExists reports whether a season with the given id is known.
	SeasonExists(ctx context.Context, seasonID string) (bool, error)

	// ListAcceptedApplications returns accepted applications in the order
	// they were accepted.
	ListAcceptedApplications(ctx context.Context, seasonID string) ([]Application, error)
}

// GroupSource resolves platform groups (roles) to their members.
type GroupSource interface {
	ListMembers(ctx context.Context, groupID string) ([]string, error)
	GetGroupDisplayName(ctx context.Context, groupID string) (string, error)
}

// Backend is a DocumentStore with an attach/detach lifecycle that also
// serves seasons and groups.
type Backend interface {
	DocumentStore
	SeasonRegistry
	GroupSource

	// Attach opens the backend with cfg. Attaching twice returns
	// ErrAlreadyAttached.
	Attach(cfg Config) error

	// Detach flushes pending writes and releases resources. It is idempotent.
	Detach() error
}

// Entity errors.
var (
	ErrNotFound          = errors.New("entity not found")
	ErrInvalidID         = errors.New("invalid entity ID")
	ErrInvalidData       = errors.New("invalid entity data")
	ErrInvalidName       = errors.New("invalid name")
	ErrInvalidType       = errors.New("invalid castlist type")
	ErrInvalidState      = errors.New("invalid state")
	ErrNotVirtual        = errors.New("castlist is not virtual")
	ErrWorkspaceRequired = errors.New("workspace ID is required")
)

// Store lifecycle errors.
var (
	ErrStoreDetached   = errors.New("store is detached")
	ErrAlreadyAttached = errors.New("store is already attached")
)
