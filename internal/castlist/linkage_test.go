package castlist

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/castlists/pkg/types"
)

func TestLinkTribeToCastlist(t *testing.T) {
	tests := []struct {
		name       string
		tribe      string
		castlist   string
		wantOK     bool
		wantIDs    []string
		wantLegacy string
		wantSaves  int
	}{
		{name: "missing tribe", tribe: "t-404", castlist: "castlist_1_custom_a"},
		{name: "missing castlist", tribe: "t-none", castlist: "castlist_404"},
		{
			name: "legacy tribe keeps its tag first", tribe: "t-legacy", castlist: "castlist_2_custom_b",
			wantOK: true, wantIDs: []string{juryID, "castlist_2_custom_b"}, wantLegacy: "Jury", wantSaves: 1,
		},
		{
			name: "single id folds into array", tribe: "t-single", castlist: "castlist_2_custom_b",
			wantOK: true, wantIDs: []string{"castlist_1_custom_a", "castlist_2_custom_b"}, wantLegacy: "Alpha", wantSaves: 1,
		},
		{
			name: "default writes literal tag", tribe: "t-none", castlist: types.DefaultCastlistID,
			wantOK: true, wantIDs: []string{"default"}, wantLegacy: "default", wantSaves: 1,
		},
		{
			name: "already linked", tribe: "t-pair", castlist: "castlist_2_custom_b",
			wantOK: true, wantIDs: []string{"castlist_1_custom_a", "castlist_2_custom_b"}, wantLegacy: "Alpha",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore(fixture())
			m := newTestManager(store)

			ok, err := m.LinkTribeToCastlist(context.Background(), "ws1", tt.tribe, tt.castlist)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantSaves, store.saveCount())
			if !tt.wantOK {
				return
			}
			tr := store.doc("ws1").Tribes[tt.tribe]
			assert.Equal(t, tt.wantIDs, tr.CastlistIDs)
			assert.Empty(t, tr.CastlistID)
			assert.Equal(t, tt.wantLegacy, tr.Castlist)
		})
	}
}

func TestLinkFollowsMaterialization(t *testing.T) {
	store := newMemStore(fixture())
	m := newTestManager(store)
	ctx := context.Background()

	id, err := m.MaterializeCastlist(ctx, "ws1", juryID, "")
	require.NoError(t, err)

	ok, err := m.LinkTribeToCastlist(ctx, "ws1", "t-none", juryID)
	require.NoError(t, err)
	assert.True(t, ok)

	tr := store.doc("ws1").Tribes["t-none"]
	assert.Equal(t, []string{id}, tr.CastlistIDs)
	assert.Equal(t, "Jury", tr.Castlist)
}

func TestUnlinkTribeFromCastlist(t *testing.T) {
	store := newMemStore(fixture())
	m := newTestManager(store)
	ctx := context.Background()

	ok, err := m.UnlinkTribeFromCastlist(ctx, "ws1", "t-pair", "castlist_1_custom_a")
	require.NoError(t, err)
	assert.True(t, ok)
	tr := store.doc("ws1").Tribes["t-pair"]
	assert.Equal(t, []string{"castlist_2_custom_b"}, tr.CastlistIDs)
	assert.Equal(t, "Bravo", tr.Castlist)

	ok, err = m.UnlinkTribeFromCastlist(ctx, "ws1", "t-legacy2", juryID)
	require.NoError(t, err)
	assert.True(t, ok)
	assertPurged(t, store.doc("ws1").Tribes["t-legacy2"])

	ok, err = m.UnlinkTribeFromCastlist(ctx, "ws1", "t-single", "castlist_1_custom_a")
	require.NoError(t, err)
	assert.True(t, ok)
	assertPurged(t, store.doc("ws1").Tribes["t-single"])

	assert.Equal(t, 3, store.saveCount())
}

func TestUnlinkIsIdempotent(t *testing.T) {
	store := newMemStore(fixture())
	m := newTestManager(store)
	ctx := context.Background()
	before := store.doc("ws1").Clone()

	for _, tc := range []struct{ tribe, castlist string }{
		{"t-none", "castlist_1_custom_a"},
		{"t-single", "castlist_2_custom_b"},
		{"t-legacy", "castlist_404"},
		{"t-404", "castlist_1_custom_a"},
	} {
		ok, err := m.UnlinkTribeFromCastlist(ctx, "ws1", tc.tribe, tc.castlist)
		require.NoError(t, err)
		assert.False(t, ok, tc.tribe)
	}
	assert.Equal(t, 0, store.saveCount())
	assert.Equal(t, before, store.doc("ws1"))
}

func TestUnlinkAllResetsToDefault(t *testing.T) {
	store := newMemStore(fixture())
	m := newTestManager(store)
	ctx := context.Background()

	ok, err := m.UnlinkTribeFromCastlist(ctx, "ws1", "t-pair", "")
	require.NoError(t, err)
	assert.True(t, ok)

	tr := store.doc("ws1").Tribes["t-pair"]
	assert.Nil(t, tr.CastlistIDs)
	assert.Empty(t, tr.CastlistID)
	assert.Equal(t, types.DefaultCastlistTag, tr.Castlist)

	ok, err = m.UnlinkTribeFromCastlist(ctx, "ws1", "t-pair", "")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, store.saveCount())
}

func TestLinkFoldsLeftoverSingleID(t *testing.T) {
	ws := mixedShapeWorkspace()
	ws.Castlists["C"] = &types.Castlist{ID: "C", Name: "Charlie", Type: types.CastlistTypeCustom}
	store := newMemStore(ws)
	m := newTestManager(store)

	ok, err := m.LinkTribeToCastlist(context.Background(), "ws1", "T", "C")
	require.NoError(t, err)
	assert.True(t, ok)

	tr := store.doc("ws1").Tribes["T"]
	assert.Equal(t, []string{"A", "B", "C"}, tr.CastlistIDs)
	assert.Empty(t, tr.CastlistID)
	assert.Equal(t, "Alpha", tr.Castlist)
}
