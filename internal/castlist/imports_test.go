package castlist

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/castlists/pkg/types"
)

func TestImportFromSeason(t *testing.T) {
	seasons := &fakeSeasons{seasons: map[string][]types.Application{
		"s1": {
			{SeasonID: "s1", ParticipantID: "p-amy", Status: types.ApplicationAccepted},
			{SeasonID: "s1", ParticipantID: "p-bob", Status: types.ApplicationAccepted},
			{SeasonID: "s1", ParticipantID: "p-amy", Status: types.ApplicationAccepted},
		},
	}}
	store := newMemStore()
	m := newTestManager(store, WithSeasonRegistry(seasons))

	c, err := m.ImportFromSeason(context.Background(), "ws1", "s1", ImportOptions{CreatedBy: "host", Emoji: "🌴"})
	require.NoError(t, err)
	assert.Equal(t, "Season s1", c.Name)
	assert.Equal(t, types.CastlistTypeSeasonCast, c.Type)
	require.NotNil(t, c.SeasonID)
	assert.Equal(t, "s1", *c.SeasonID)
	assert.Equal(t, "🌴", c.Metadata.Emoji)
	assert.Equal(t, "host", c.CreatedBy)
	assert.Equal(t, map[string]types.Ranking{
		"p-amy": {Placement: 1},
		"p-bob": {Placement: 2},
	}, c.Rankings)

	stored := store.doc("ws1").Castlists[c.ID]
	require.NotNil(t, stored)
	assert.Len(t, stored.Rankings, 2)
}

func TestImportFromSeasonRequiresRegistry(t *testing.T) {
	m := newTestManager(newMemStore())
	_, err := m.ImportFromSeason(context.Background(), "ws1", "s1", ImportOptions{})
	assert.ErrorIs(t, err, ErrNoSeasonRegistry)

	m = newTestManager(newMemStore(), WithSeasonRegistry(&fakeSeasons{}))
	_, err = m.ImportFromSeason(context.Background(), "ws1", "", ImportOptions{})
	assert.ErrorIs(t, err, types.ErrInvalidID)
}

func TestImportFromRole(t *testing.T) {
	groups := &fakeGroups{
		members: map[string][]string{"g1": {"p3", "p1", "p2"}},
		names:   map[string]string{"g1": "Jury Role"},
	}
	store := newMemStore()
	m := newTestManager(store, WithGroupSource(groups))
	ctx := context.Background()

	c, err := m.ImportFromRole(ctx, "ws1", "g1", ImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Jury Role", c.Name)
	assert.Equal(t, types.CastlistTypeRoleImport, c.Type)
	assert.Nil(t, c.SeasonID)
	assert.Equal(t, 1, c.Rankings["p3"].Placement)
	assert.Equal(t, 3, c.Rankings["p2"].Placement)

	c, err = m.ImportFromRole(ctx, "ws1", "g1", ImportOptions{Name: "Custom Name"})
	require.NoError(t, err)
	assert.Equal(t, "Custom Name", c.Name)
	assert.Len(t, store.doc("ws1").Castlists, 2)
}

func TestImportFromRoleErrors(t *testing.T) {
	boom := errors.New("boom")
	store := newMemStore()
	m := newTestManager(store, WithGroupSource(&fakeGroups{err: boom, names: map[string]string{"g1": "G"}}))

	_, err := m.ImportFromRole(context.Background(), "ws1", "g1", ImportOptions{})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, store.saveCount())

	m = newTestManager(newMemStore())
	_, err = m.ImportFromRole(context.Background(), "ws1", "g1", ImportOptions{})
	assert.ErrorIs(t, err, ErrNoGroupSource)
}

func TestImportKeepsRankingsWhenUpdateFails(t *testing.T) {
	seasons := &fakeSeasons{seasons: map[string][]types.Application{
		"s1": {
			{SeasonID: "s1", ParticipantID: "p-amy", Status: types.ApplicationAccepted},
			{SeasonID: "s1", ParticipantID: "p-bob", Status: types.ApplicationAccepted},
		},
	}}
	store := newMemStore()
	store.failAfter = 1
	m := newTestManager(store, WithSeasonRegistry(seasons))

	_, err := m.ImportFromSeason(context.Background(), "ws1", "s1", ImportOptions{})
	require.ErrorIs(t, err, errSaveFailed)

	ws := store.doc("ws1")
	require.Len(t, ws.Castlists, 1)
	for _, c := range ws.Castlists {
		assert.Equal(t, types.CastlistTypeSeasonCast, c.Type)
		assert.Equal(t, map[string]types.Ranking{
			"p-amy": {Placement: 1},
			"p-bob": {Placement: 2},
		}, c.Rankings)
	}
}
