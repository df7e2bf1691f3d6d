package store_test

import (
	"context"
	"testing"

	"github.com/kasuganosora/missionboard/model"
	"github.com/kasuganosora/missionboard/store"
	"github.com/kasuganosora/missionboard/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCrewStore_JoinRespectsBound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.NewCrewStore(db)
	ctx := context.Background()
	m := testutil.CreateMission(t, db, 1, "Patrol", 2)

	ok, err := s.Join(ctx, m.ID, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	// Same brawler twice.
	ok, err = s.Join(ctx, m.ID, 2)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.Join(ctx, m.ID, 3)
	require.NoError(t, err)
	assert.True(t, ok)

	// Full.
	ok, err = s.Join(ctx, m.ID, 4)
	require.NoError(t, err)
	assert.False(t, ok)

	member, err := s.IsMember(ctx, m.ID, 3)
	require.NoError(t, err)
	assert.True(t, member)
	member, err = s.IsMember(ctx, m.ID, 4)
	require.NoError(t, err)
	assert.False(t, member)
}

func TestCrewStore_JoinRequiresOpen(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.NewCrewStore(db)
	ctx := context.Background()
	m := testutil.CreateMission(t, db, 1, "Patrol", 5)
	require.NoError(t, db.Model(m).Update("status", model.MissionInProgress).Error)

	ok, err := s.Join(ctx, m.ID, 2)
	require.NoError(t, err)
	assert.False(t, ok)

	removed := testutil.CreateMission(t, db, 1, "Gone", 5)
	require.NoError(t, db.Delete(removed).Error)
	ok, err = s.Join(ctx, removed.ID, 2)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.Join(ctx, 404, 2)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCrewStore_Leave(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.NewCrewStore(db)
	ctx := context.Background()
	m := testutil.CreateMission(t, db, 1, "Patrol", 5)
	testutil.AddCrew(t, db, m.ID, 2, 3)

	ok, err := s.Leave(ctx, m.ID, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Leave(ctx, m.ID, 2)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, db.Model(m).Update("status", model.MissionInProgress).Error)
	ok, err = s.Leave(ctx, m.ID, 3)
	require.NoError(t, err)
	assert.False(t, ok)
}
