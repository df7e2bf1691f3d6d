package db

import (
	"fmt"

	"github.com/kasuganosora/missionboard/config"
	"github.com/kasuganosora/missionboard/db/embedded"
	dbmysql "github.com/kasuganosora/missionboard/db/mysql"
	dbsqlite "github.com/kasuganosora/missionboard/db/sqlite"
	"gorm.io/gorm"
)

const (
	ModeEmbeddedFile   = "embedded_file"
	ModeEmbeddedMemory = "embedded_memory"
	ModeSQLite         = "sqlite"
	ModeMySQL          = "mysql"
)

// Open returns a *gorm.DB for the configured database mode.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	switch cfg.Mode {
	case ModeEmbeddedFile:
		return embedded.Open(cfg.EmbeddedPath)
	case ModeEmbeddedMemory:
		return embedded.Open("")
	case ModeSQLite:
		return dbsqlite.Open(cfg.SQLitePath)
	case ModeMySQL:
		return dbmysql.Open(cfg.MySQLDSN, cfg.MySQLMaxOpen, cfg.MySQLMaxIdle, cfg.MySQLMaxLife)
	default:
		return nil, fmt.Errorf("db: unknown mode %q", cfg.Mode)
	}
}
