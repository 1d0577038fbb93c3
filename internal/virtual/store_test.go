package virtual

import (
	"context"
	"errors"
	"sync"

	"github.com/mesh-intelligence/castlists/pkg/types"
)

// memStore is an in-memory DocumentStore that hands out copies, so tests
// observe only what was saved.
type memStore struct {
	mu      sync.Mutex
	docs    map[string]*types.Workspace
	saves   int
	saveErr error
}

func newMemStore(docs ...*types.Workspace) *memStore {
	s := &memStore{docs: make(map[string]*types.Workspace)}
	for _, d := range docs {
		s.docs[d.WorkspaceID] = d.Clone()
	}
	return s
}

func (s *memStore) Load(_ context.Context, id string) (*types.Workspace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.docs[id]; ok {
		return d.Clone(), nil
	}
	return types.NewWorkspace(id), nil
}

func (s *memStore) Save(_ context.Context, ws *types.Workspace) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	if ws.WorkspaceID == "" {
		return errors.New("workspace id missing")
	}
	s.docs[ws.WorkspaceID] = ws.Clone()
	s.saves++
	return nil
}

func (s *memStore) doc(id string) *types.Workspace {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.docs[id]
}
