package config

import (
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Security  SecurityConfig  `mapstructure:"security"`
	Board     BoardConfig     `mapstructure:"board"`
	Chat      ChatConfig      `mapstructure:"chat"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Audit     AuditConfig     `mapstructure:"audit"`
}

type ServerConfig struct {
	Port     int    `mapstructure:"port"`
	Debug    bool   `mapstructure:"debug"`
	AdminKey string `mapstructure:"admin_key"`
	// AdminIPs restricts admin routes to these client IPs. Empty allows any.
	AdminIPs []string `mapstructure:"admin_ips"`
}

type DatabaseConfig struct {
	Mode         string        `mapstructure:"mode"` // embedded_file | embedded_memory | sqlite | mysql
	EmbeddedPath string        `mapstructure:"embedded_path"`
	SQLitePath   string        `mapstructure:"sqlite_path"`
	MySQLDSN     string        `mapstructure:"mysql_dsn"`
	MySQLMaxOpen int           `mapstructure:"mysql_max_open"`
	MySQLMaxIdle int           `mapstructure:"mysql_max_idle"`
	MySQLMaxLife time.Duration `mapstructure:"mysql_max_life"`
}

type CacheConfig struct {
	RedisAddr       string        `mapstructure:"redis_addr"`
	RedisPassword   string        `mapstructure:"redis_password"`
	RedisDB         int           `mapstructure:"redis_db"`
	LocalGCInterval time.Duration `mapstructure:"local_gc_interval"`
	LocalPubSubBuf  int           `mapstructure:"local_pubsub_buf"`
}

type SecurityConfig struct {
	JWTSecret      string        `mapstructure:"jwt_secret"`
	JWTTTLH        time.Duration `mapstructure:"jwt_ttl_h"`
	RateLimitRPS   float64       `mapstructure:"rate_limit_rps"`
	RateLimitBurst int           `mapstructure:"rate_limit_burst"`
	BcryptCost     int           `mapstructure:"bcrypt_cost"`
	// AllowedOrigins lists the SSE origins that are permitted.
	// An empty slice allows all origins (useful for local development only).
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// BoardConfig holds the mission rules.
type BoardConfig struct {
	DailyPointCap     int    `mapstructure:"daily_point_cap"`
	DailyMissionLimit int    `mapstructure:"daily_mission_limit"`
	MinNameLength     int    `mapstructure:"min_name_length"`
	Timezone          string `mapstructure:"timezone"` // IANA name; days roll over at local midnight
	LeaderboardSize   int    `mapstructure:"leaderboard_size"`
}

// Location resolves Timezone, falling back to UTC.
func (b BoardConfig) Location() (*time.Location, error) {
	if b.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(b.Timezone)
}

type ChatConfig struct {
	HistorySize int `mapstructure:"history_size"`
	MaxLength   int `mapstructure:"max_length"`
}

type SchedulerConfig struct {
	LeaderboardCron string        `mapstructure:"leaderboard_cron"`
	RateLimitGC     time.Duration `mapstructure:"rate_limit_gc"`
}

type AuditConfig struct {
	BufferSize    int           `mapstructure:"buffer_size"`
	BatchSize     int           `mapstructure:"batch_size"`
	FlushInterval time.Duration `mapstructure:"flush_interval"`
}

// Load reads config from the given YAML file path. Every key can be
// overridden from the environment with the BOARD_ prefix, e.g.
// BOARD_SECURITY_JWT_SECRET.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("BOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.debug", false)
	v.SetDefault("database.mode", "embedded_file")
	v.SetDefault("database.embedded_path", "./data/board.db")
	v.SetDefault("database.sqlite_path", "./data/board.db")
	v.SetDefault("database.mysql_max_open", 50)
	v.SetDefault("database.mysql_max_idle", 10)
	v.SetDefault("database.mysql_max_life", "1h")
	v.SetDefault("cache.local_gc_interval", "30s")
	v.SetDefault("cache.local_pubsub_buf", 256)
	v.SetDefault("security.jwt_ttl_h", "72h")
	v.SetDefault("security.rate_limit_rps", 100)
	v.SetDefault("security.rate_limit_burst", 200)
	v.SetDefault("security.bcrypt_cost", 10)
	v.SetDefault("board.daily_point_cap", 15)
	v.SetDefault("board.daily_mission_limit", 3)
	v.SetDefault("board.min_name_length", 3)
	v.SetDefault("board.timezone", "UTC")
	v.SetDefault("board.leaderboard_size", 10)
	v.SetDefault("chat.history_size", 100)
	v.SetDefault("chat.max_length", 500)
	v.SetDefault("scheduler.leaderboard_cron", "0 0 * * *")
	v.SetDefault("scheduler.rate_limit_gc", "10m")
	v.SetDefault("audit.buffer_size", 4096)
	v.SetDefault("audit.batch_size", 100)
	v.SetDefault("audit.flush_interval", "500ms")

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
