package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/castlists/pkg/types"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func attachTestBackend(t *testing.T, dataDir string, sync string) *Backend {
	t.Helper()
	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dataDir, SyncStrategy: sync}))
	t.Cleanup(func() { b.Detach() })
	return b
}

func sampleWorkspace(id string) *types.Workspace {
	season := "s1"
	migrated := testNow.Add(-time.Hour)
	ws := types.NewWorkspace(id)
	ws.Castlists["default"] = &types.Castlist{
		ID: "default", Name: "Active Castlist", Type: types.CastlistTypeSystem,
		CreatedAt: testNow, CreatedBy: "system", ModifiedAt: testNow, ModifiedBy: "system",
		Settings: types.DefaultSettings(),
	}
	ws.Castlists["castlist_1_custom_a"] = &types.Castlist{
		ID: "castlist_1_custom_a", Name: "Jury", Type: types.CastlistTypeAlumniPlacements,
		SeasonID:  &season,
		CreatedAt: testNow, CreatedBy: "host", ModifiedAt: testNow.Add(time.Minute), ModifiedBy: "cohost",
		Settings: types.Settings{SortStrategy: types.SortPlacements, ShowRankings: true, MaxDisplay: 10, Visibility: types.VisibilityPrivate},
		Metadata: types.Metadata{
			Description: "Final jury", Emoji: "⚖️",
			MigratedFrom: "virtual_SnVyeQ", MigrationAt: &migrated,
			Extra: map[string]any{"note": "seeded"},
		},
		Rankings: map[string]types.Ranking{"p1": {Placement: 1}, "p2": {Placement: 2}},
	}
	ws.Tribes["t-legacy"] = &types.Tribe{TribeID: "t-legacy", WorkspaceID: id, Name: "Legacy", Castlist: "Old Tag"}
	ws.Tribes["t-multi"] = &types.Tribe{
		TribeID: "t-multi", WorkspaceID: id, Name: "Multi", Emoji: "🔥", Color: "#ff0000",
		Castlist: "default", CastlistIDs: []string{"default", "castlist_1_custom_a"},
		Type:     types.CastlistTypeAlumniPlacements,
		Rankings: map[string]types.Ranking{"p1": {Placement: 3}},
	}
	ws.Tribes["t-single"] = &types.Tribe{TribeID: "t-single", WorkspaceID: id, CastlistID: "castlist_1_custom_a", Castlist: "Jury"}
	return ws
}

func TestBackendAttach(t *testing.T) {
	dir := t.TempDir()
	b := NewBackend()
	cfg := types.Config{Backend: types.BackendSQLite, DataDir: dir}

	require.NoError(t, b.Attach(cfg))
	defer b.Detach()

	assert.FileExists(t, filepath.Join(dir, dbFile))
	for _, tf := range tableFiles {
		assert.FileExists(t, filepath.Join(dir, tf.file))
	}
	assert.ErrorIs(t, b.Attach(cfg), types.ErrAlreadyAttached)
}

func TestBackendAttachInvalidConfig(t *testing.T) {
	b := NewBackend()
	assert.ErrorIs(t, b.Attach(types.Config{DataDir: t.TempDir()}), types.ErrBackendEmpty)
	assert.ErrorIs(t, b.Attach(types.Config{Backend: "postgres"}), types.ErrBackendUnknown)
	assert.ErrorIs(t, b.Attach(types.Config{Backend: types.BackendSQLite, SyncStrategy: "batch"}), types.ErrSyncStrategyUnknown)
}

func TestBackendDetach(t *testing.T) {
	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))

	require.NoError(t, b.Detach())
	require.NoError(t, b.Detach())

	ctx := context.Background()
	_, err := b.Load(ctx, "ws1")
	assert.ErrorIs(t, err, types.ErrStoreDetached)
	assert.ErrorIs(t, b.Save(ctx, types.NewWorkspace("ws1")), types.ErrStoreDetached)
	_, err = b.SeasonExists(ctx, "s1")
	assert.ErrorIs(t, err, types.ErrStoreDetached)
}

func TestBackendLoadUnknownWorkspaceIsEmpty(t *testing.T) {
	b := attachTestBackend(t, t.TempDir(), "")
	ws, err := b.Load(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Equal(t, types.NewWorkspace("nobody"), ws)

	_, err = b.Load(context.Background(), "")
	assert.ErrorIs(t, err, types.ErrWorkspaceRequired)
}

func TestBackendSaveLoadRoundTrip(t *testing.T) {
	b := attachTestBackend(t, t.TempDir(), "")
	ctx := context.Background()
	ws := sampleWorkspace("ws1")

	require.NoError(t, b.Save(ctx, ws))
	got, err := b.Load(ctx, "ws1")
	require.NoError(t, err)
	assert.Equal(t, ws, got)
}

func TestBackendSaveReplacesWorkspaceRows(t *testing.T) {
	b := attachTestBackend(t, t.TempDir(), "")
	ctx := context.Background()

	require.NoError(t, b.Save(ctx, sampleWorkspace("ws1")))
	require.NoError(t, b.Save(ctx, sampleWorkspace("ws2")))

	ws := sampleWorkspace("ws1")
	delete(ws.Castlists, "castlist_1_custom_a")
	delete(ws.Tribes, "t-single")
	require.NoError(t, b.Save(ctx, ws))

	got, err := b.Load(ctx, "ws1")
	require.NoError(t, err)
	assert.Len(t, got.Castlists, 1)
	assert.Len(t, got.Tribes, 2)

	other, err := b.Load(ctx, "ws2")
	require.NoError(t, err)
	assert.Equal(t, sampleWorkspace("ws2"), other)
}

func TestBackendPersistsAcrossAttach(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir}))
	require.NoError(t, b.Save(ctx, sampleWorkspace("ws1")))
	require.NoError(t, b.Detach())

	b2 := attachTestBackend(t, dir, "")
	got, err := b2.Load(ctx, "ws1")
	require.NoError(t, err)
	assert.Equal(t, sampleWorkspace("ws1"), got)
}

func TestBackendOnCloseDefersJSONL(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir, SyncStrategy: types.SyncOnClose}))
	require.NoError(t, b.Save(ctx, sampleWorkspace("ws1")))

	info, err := os.Stat(filepath.Join(dir, castlistsJSONL))
	require.NoError(t, err)
	assert.Zero(t, info.Size(), "on_close must not write before Detach")

	require.NoError(t, b.Detach())

	records, err := readJSONL(filepath.Join(dir, castlistsJSONL))
	require.NoError(t, err)
	assert.Len(t, records, 2)
	records, err = readJSONL(filepath.Join(dir, tribesJSONL))
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestBackendLoadsLegacyJSONL(t *testing.T) {
	dir := t.TempDir()
	lines := "{\"workspace_id\":\"ws1\",\"tribe_id\":\"t1\",\"castlist\":\"Jury\"}\n" +
		"garbage\n" +
		"{\"workspace_id\":\"ws1\",\"tribe_id\":\"t2\",\"castlist_id\":\"castlist_1_custom_a\",\"castlist_ids\":[]}\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, tribesJSONL), []byte(lines), 0o644))

	b := attachTestBackend(t, dir, "")
	ws, err := b.Load(context.Background(), "ws1")
	require.NoError(t, err)
	require.Len(t, ws.Tribes, 2)
	assert.Equal(t, &types.Tribe{TribeID: "t1", WorkspaceID: "ws1", Castlist: "Jury"}, ws.Tribes["t1"])
	assert.Equal(t, types.MembershipSingleID, ws.Tribes["t2"].Membership().Kind)
	assert.Nil(t, ws.Tribes["t2"].CastlistIDs)
}
