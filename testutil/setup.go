package testutil

import (
	"testing"

	"github.com/kasuganosora/missionboard/cache"
	"github.com/kasuganosora/missionboard/config"
	dbadapter "github.com/kasuganosora/missionboard/db"
	"github.com/kasuganosora/missionboard/model"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// SetupTestDB creates a private in-memory SQLite DB and runs AutoMigrate.
// It requires no external services and is safe to use in parallel tests.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := dbadapter.Open(config.DatabaseConfig{
		Mode: dbadapter.ModeEmbeddedMemory,
	})
	require.NoError(t, err, "SetupTestDB: Open")
	require.NoError(t, model.AutoMigrate(db), "SetupTestDB: AutoMigrate")
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// SetupTestCache creates LocalCache and LocalPubSub (no Redis required).
func SetupTestCache(t *testing.T) (cache.Cache, cache.PubSub) {
	t.Helper()
	cfg := cache.CacheConfig{} // empty RedisAddr → LocalCache
	c, err := cache.NewCache(cfg)
	require.NoError(t, err, "SetupTestCache: NewCache")
	t.Cleanup(func() { _ = c.Close() })
	ps, err := cache.NewPubSub(cfg)
	require.NoError(t, err, "SetupTestCache: NewPubSub")
	return c, ps
}

// CreateBrawler inserts a brawler with a throwaway password hash.
func CreateBrawler(t *testing.T, db *gorm.DB, username string) *model.Brawler {
	t.Helper()
	b := &model.Brawler{Username: username, PasswordHash: "x", DisplayName: username}
	require.NoError(t, db.Create(b).Error, "CreateBrawler")
	return b
}

// CreateMission inserts an Open mission owned by chiefID.
func CreateMission(t *testing.T, db *gorm.DB, chiefID int64, name string, maxCrew int) *model.Mission {
	t.Helper()
	m := &model.Mission{
		Name:       name,
		Status:     model.MissionOpen,
		ChiefID:    chiefID,
		MaxCrew:    maxCrew,
		Difficulty: model.DifficultyNormal,
		BasePoints: 3,
	}
	require.NoError(t, db.Create(m).Error, "CreateMission")
	return m
}

// AddCrew inserts crew memberships for mission.
func AddCrew(t *testing.T, db *gorm.DB, missionID int64, brawlerIDs ...int64) {
	t.Helper()
	for _, id := range brawlerIDs {
		require.NoError(t, db.Create(&model.CrewMembership{MissionID: missionID, BrawlerID: id}).Error, "AddCrew")
	}
}
