package castlist

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/mesh-intelligence/castlists/internal/virtual"
	"github.com/mesh-intelligence/castlists/pkg/types"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

var errSaveFailed = errors.New("save failed")

// memStore is an in-memory DocumentStore that hands out copies. When
// failAfter is positive, saves beyond that count fail.
type memStore struct {
	mu        sync.Mutex
	docs      map[string]*types.Workspace
	saves     int
	failAfter int
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
	if s.failAfter > 0 && s.saves >= s.failAfter {
		return errSaveFailed
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

func (s *memStore) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

type fakeSeasons struct {
	seasons map[string][]types.Application
}

func (f *fakeSeasons) SeasonExists(_ context.Context, id string) (bool, error) {
	_, ok := f.seasons[id]
	return ok, nil
}

func (f *fakeSeasons) ListAcceptedApplications(_ context.Context, id string) ([]types.Application, error) {
	return f.seasons[id], nil
}

type fakeGroups struct {
	members map[string][]string
	names   map[string]string
	err     error
}

func (f *fakeGroups) ListMembers(_ context.Context, id string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.members[id], nil
}

func (f *fakeGroups) GetGroupDisplayName(_ context.Context, id string) (string, error) {
	name, ok := f.names[id]
	if !ok {
		return "", errors.New("unknown group")
	}
	return name, nil
}

// fixture has one tribe per historical linkage shape.
//
//	t-legacy   legacy tag "Jury"
//	t-legacy2  legacy tag "Jury" with tribe-level type and rankings
//	t-single   single id castlist_1_custom_a
//	t-multi    array [default, castlist_1_custom_a]
//	t-pair     array [castlist_1_custom_a, castlist_2_custom_b]
//	t-none     unlinked
func fixture() *types.Workspace {
	ws := types.NewWorkspace("ws1")
	ws.Castlists["castlist_1_custom_a"] = &types.Castlist{
		ID: "castlist_1_custom_a", Name: "Alpha", Type: types.CastlistTypeCustom,
		Settings: types.DefaultSettings(),
	}
	ws.Castlists["castlist_2_custom_b"] = &types.Castlist{
		ID: "castlist_2_custom_b", Name: "Bravo", Type: types.CastlistTypeCustom,
		Settings: types.DefaultSettings(),
		Metadata: types.Metadata{Description: "Écluse finalists"},
	}
	ws.Tribes["t-legacy"] = &types.Tribe{TribeID: "t-legacy", Castlist: "Jury"}
	ws.Tribes["t-legacy2"] = &types.Tribe{
		TribeID:  "t-legacy2",
		Castlist: "Jury",
		Type:     types.CastlistTypeAlumniPlacements,
		Rankings: map[string]types.Ranking{"p1": {Placement: 1}},
	}
	ws.Tribes["t-single"] = &types.Tribe{
		TribeID: "t-single", CastlistID: "castlist_1_custom_a", Castlist: "Alpha",
		Rankings: map[string]types.Ranking{"p2": {Placement: 2}},
	}
	ws.Tribes["t-multi"] = &types.Tribe{
		TribeID: "t-multi", Castlist: "default",
		CastlistIDs: []string{"default", "castlist_1_custom_a"},
	}
	ws.Tribes["t-pair"] = &types.Tribe{
		TribeID: "t-pair", Castlist: "Alpha",
		CastlistIDs: []string{"castlist_1_custom_a", "castlist_2_custom_b"},
	}
	ws.Tribes["t-none"] = &types.Tribe{TribeID: "t-none"}
	return ws
}

var juryID = virtual.EncodeVirtualID("Jury")

func newTestManager(store types.DocumentStore, opts ...Option) *Manager {
	base := []Option{
		WithClock(func() time.Time { return testNow }),
		WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))),
	}
	return NewManager(store, append(base, opts...)...)
}
