package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "server:\n  port: 9090\n"))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "embedded_file", cfg.Database.Mode)
	assert.Equal(t, 15, cfg.Board.DailyPointCap)
	assert.Equal(t, 3, cfg.Board.DailyMissionLimit)
	assert.Equal(t, 3, cfg.Board.MinNameLength)
	assert.Equal(t, 72*time.Hour, cfg.Security.JWTTTLH)
	assert.Equal(t, 100, cfg.Chat.HistorySize)
	assert.Equal(t, "0 0 * * *", cfg.Scheduler.LeaderboardCron)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("BOARD_BOARD_DAILY_POINT_CAP", "20")
	t.Setenv("BOARD_SECURITY_JWT_SECRET", "from-env")

	cfg, err := Load(writeConfig(t, "security:\n  jwt_secret: from-file\n"))
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Board.DailyPointCap)
	assert.Equal(t, "from-env", cfg.Security.JWTSecret)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestBoardConfig_Location(t *testing.T) {
	loc, err := BoardConfig{}.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)

	loc, err = BoardConfig{Timezone: "Asia/Tokyo"}.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Tokyo", loc.String())

	_, err = BoardConfig{Timezone: "Mars/Olympus"}.Location()
	assert.Error(t, err)
}
