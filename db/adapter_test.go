package db

import (
	"path/filepath"
	"testing"

	"github.com/kasuganosora/missionboard/config"
	"github.com/kasuganosora/missionboard/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_EmbeddedMemory(t *testing.T) {
	gdb, err := Open(config.DatabaseConfig{Mode: ModeEmbeddedMemory})
	require.NoError(t, err)
	require.NoError(t, model.AutoMigrate(gdb))

	require.NoError(t, gdb.Create(&model.Brawler{Username: "alice", PasswordHash: "x", DisplayName: "Alice"}).Error)
	var n int64
	require.NoError(t, gdb.Model(&model.Brawler{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestOpen_EmbeddedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "board.db")
	gdb, err := Open(config.DatabaseConfig{Mode: ModeEmbeddedFile, EmbeddedPath: path})
	require.NoError(t, err)
	require.NoError(t, model.AutoMigrate(gdb))
	assert.FileExists(t, path)
}

func TestOpen_UnknownMode(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Mode: "embedded_xml"})
	assert.ErrorContains(t, err, "unknown mode")
}
