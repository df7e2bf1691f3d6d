package mysql

import (
	"testing"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDSN(t *testing.T) {
	out, err := NormalizeDSN("board:pw@tcp(db:3306)/missionboard?charset=utf8mb4")
	require.NoError(t, err)

	cfg, err := gomysql.ParseDSN(out)
	require.NoError(t, err)
	assert.True(t, cfg.ClientFoundRows)
	assert.True(t, cfg.ParseTime)
	assert.Equal(t, "UTC", cfg.Loc.String())
	assert.Equal(t, "missionboard", cfg.DBName)
	assert.Equal(t, "db:3306", cfg.Addr)
	assert.Contains(t, out, "charset=utf8mb4")
}

func TestNormalizeDSN_Invalid(t *testing.T) {
	_, err := NormalizeDSN("not a dsn")
	assert.Error(t, err)
}
