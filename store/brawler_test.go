package store_test

import (
	"context"
	"testing"

	"github.com/kasuganosora/missionboard/board"
	"github.com/kasuganosora/missionboard/model"
	"github.com/kasuganosora/missionboard/store"
	"github.com/kasuganosora/missionboard/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrawlerStore_CreateAndFind(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.NewBrawlerStore(db)
	ctx := context.Background()

	b := &model.Brawler{Username: "thor", PasswordHash: "hash", DisplayName: "Thor"}
	require.NoError(t, s.Create(ctx, b))
	require.NotZero(t, b.ID)

	got, err := s.FindByUsername(ctx, "thor")
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)

	_, err = s.FindByUsername(ctx, "loki")
	assert.ErrorIs(t, err, board.ErrNotFound)
	_, err = s.FindByID(ctx, b.ID+1)
	assert.ErrorIs(t, err, board.ErrNotFound)

	// Usernames are unique.
	assert.Error(t, s.Create(ctx, &model.Brawler{Username: "thor", PasswordHash: "h", DisplayName: "T2"}))
}

func TestBrawlerStore_AddPoints(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.NewBrawlerStore(db)
	ctx := context.Background()
	b := testutil.CreateBrawler(t, db, "hulk")

	require.NoError(t, s.AddPoints(ctx, b.ID, 5))
	require.NoError(t, s.AddPoints(ctx, b.ID, 3))
	got, err := s.FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, got.TotalPoints)

	assert.ErrorIs(t, s.AddPoints(ctx, 999, 1), board.ErrNotFound)
}

func TestBrawlerStore_ProfileUpdates(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.NewBrawlerStore(db)
	ctx := context.Background()
	b := testutil.CreateBrawler(t, db, "widow")

	require.NoError(t, s.UpdateDisplayName(ctx, b.ID, "Natasha"))
	require.NoError(t, s.UpdateAvatar(ctx, b.ID, "data:image/png;base64,AAAA"))
	got, err := s.FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Natasha", got.DisplayName)
	require.NotNil(t, got.AvatarURL)
	assert.Equal(t, "data:image/png;base64,AAAA", *got.AvatarURL)

	assert.ErrorIs(t, s.UpdateDisplayName(ctx, 999, "x"), board.ErrNotFound)
}

func TestBrawlerStore_TopAndStats(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.NewBrawlerStore(db)
	ctx := context.Background()

	a := testutil.CreateBrawler(t, db, "a")
	b := testutil.CreateBrawler(t, db, "b")
	c := testutil.CreateBrawler(t, db, "c")
	require.NoError(t, s.AddPoints(ctx, a.ID, 4))
	require.NoError(t, s.AddPoints(ctx, b.ID, 9))
	require.NoError(t, s.AddPoints(ctx, c.ID, 4))

	top, err := s.Top(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, b.ID, top[0].ID)
	assert.Equal(t, a.ID, top[1].ID)

	done := testutil.CreateMission(t, db, a.ID, "Done", 3)
	testutil.AddCrew(t, db, done.ID, b.ID)
	require.NoError(t, db.Model(done).Update("status", model.MissionCompleted).Error)
	open := testutil.CreateMission(t, db, c.ID, "Open", 3)
	testutil.AddCrew(t, db, open.ID, b.ID)

	stats, err := s.Stats(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, store.BrawlerStats{MissionJoinedCount: 2, MissionSuccessCount: 1}, stats)

	stats, err = s.Stats(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, store.BrawlerStats{MissionJoinedCount: 0, MissionSuccessCount: 1}, stats)
}

func TestBrawlerStore_FindMany(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.NewBrawlerStore(db)
	ctx := context.Background()
	a := testutil.CreateBrawler(t, db, "cap")
	b := testutil.CreateBrawler(t, db, "bucky")

	got, err := s.FindMany(ctx, []int64{a.ID, b.ID, 999})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = s.FindMany(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}
