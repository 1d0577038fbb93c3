package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/castlists/internal/castlist"
	"github.com/mesh-intelligence/castlists/internal/virtual"
	"github.com/mesh-intelligence/castlists/pkg/types"
)

func TestManagerOverBackend(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir}))

	seed := types.NewWorkspace("ws1")
	seed.Tribes["t1"] = &types.Tribe{TribeID: "t1", WorkspaceID: "ws1", Castlist: "Jury"}
	seed.Tribes["t2"] = &types.Tribe{TribeID: "t2", WorkspaceID: "ws1", Castlist: "default"}
	require.NoError(t, b.Save(ctx, seed))
	require.NoError(t, b.PutGroup(ctx, types.Group{GroupID: "g1", Name: "Finalists"}))
	require.NoError(t, b.PutGroupMember(ctx, "g1", "p1"))

	m := castlist.NewManager(b, castlist.WithSeasonRegistry(b), castlist.WithGroupSource(b))

	jury := virtual.EncodeVirtualID("Jury")
	realID, err := m.MaterializeCastlist(ctx, "ws1", jury, "host")
	require.NoError(t, err)

	imported, err := m.ImportFromRole(ctx, "ws1", "g1", castlist.ImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Finalists", imported.Name)

	ok, err := m.LinkTribeToCastlist(ctx, "ws1", "t2", imported.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	res := m.DeleteCastlist(ctx, "ws1", jury)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, 1, res.CleanedCount)
	require.NoError(t, b.Detach())

	// Everything above must survive a reattach from the JSONL files.
	b2 := attachTestBackend(t, dir, "")
	ws, err := b2.Load(ctx, "ws1")
	require.NoError(t, err)
	assert.NotContains(t, ws.Castlists, realID)
	require.Contains(t, ws.Castlists, imported.ID)
	assert.Equal(t, 1, ws.Castlists[imported.ID].Rankings["p1"].Placement)
	assert.Equal(t, &types.Tribe{TribeID: "t1", WorkspaceID: "ws1"}, ws.Tribes["t1"])
	assert.Equal(t, []string{"default", imported.ID}, ws.Tribes["t2"].CastlistIDs)
	assert.Equal(t, "default", ws.Tribes["t2"].Castlist)
}
