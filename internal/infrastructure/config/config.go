package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App      AppConfig
	Log      LogConfig
	Sync     SyncConfig
	Server   ServerConfig
	Snapshot SnapshotConfig
	Redis    RedisConfig
	Session  SessionConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// SyncConfig holds cart reconciliation settings
type SyncConfig struct {
	DebounceWindow  time.Duration // quiet period before a scheduled sync fires
	MinSyncInterval time.Duration // minimum gap between successful merges
	RequestTimeout  time.Duration // per-request timeout against the cart endpoint
}

// ServerConfig holds the cart-sync endpoint settings
type ServerConfig struct {
	BaseURL string // e.g. "https://shop.example.com"
}

// SnapshotConfig selects the durable snapshot backend
type SnapshotConfig struct {
	Backend  string // memory, file, sqlite, redis
	FilePath string // for the file backend
	DBPath   string // for the sqlite backend
	StoreKey string // snapshot key, fixed per cart store
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// SessionConfig holds session-token settings
type SessionConfig struct {
	JWTSecret string
	Issuer    string
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with CART_ prefix (e.g., CART_REDIS_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("CART")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Sync: SyncConfig{
			DebounceWindow:  v.GetDuration("sync.debounce_window"),
			MinSyncInterval: v.GetDuration("sync.min_sync_interval"),
			RequestTimeout:  v.GetDuration("sync.request_timeout"),
		},
		Server: ServerConfig{
			BaseURL: v.GetString("server.base_url"),
		},
		Snapshot: SnapshotConfig{
			Backend:  v.GetString("snapshot.backend"),
			FilePath: v.GetString("snapshot.file_path"),
			DBPath:   v.GetString("snapshot.db_path"),
			StoreKey: v.GetString("snapshot.store_key"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Session: SessionConfig{
			JWTSecret: v.GetString("session.jwt_secret"),
			Issuer:    v.GetString("session.issuer"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "cartengine"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.Sync.DebounceWindow == 0 {
		cfg.Sync.DebounceWindow = 1 * time.Second
	}
	if cfg.Sync.MinSyncInterval == 0 {
		cfg.Sync.MinSyncInterval = 2 * time.Second
	}
	if cfg.Sync.RequestTimeout == 0 {
		cfg.Sync.RequestTimeout = 10 * time.Second
	}
	if cfg.Snapshot.Backend == "" {
		cfg.Snapshot.Backend = "file"
	}
	if cfg.Snapshot.FilePath == "" {
		cfg.Snapshot.FilePath = "cart-snapshot.json"
	}
	if cfg.Snapshot.DBPath == "" {
		cfg.Snapshot.DBPath = "cart.db"
	}
	if cfg.Snapshot.StoreKey == "" {
		cfg.Snapshot.StoreKey = "cart-storage"
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
}

// validate checks configuration consistency
func (c *Config) validate() error {
	switch c.Snapshot.Backend {
	case "memory", "file", "sqlite", "redis":
	default:
		return fmt.Errorf("unknown snapshot backend: %q", c.Snapshot.Backend)
	}
	if c.Sync.DebounceWindow <= 0 {
		return fmt.Errorf("sync.debounce_window must be positive")
	}
	if c.Sync.MinSyncInterval < 0 {
		return fmt.Errorf("sync.min_sync_interval cannot be negative")
	}
	if c.Sync.RequestTimeout <= 0 {
		return fmt.Errorf("sync.request_timeout must be positive")
	}
	return nil
}

// IsProduction returns true when running in the production environment
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}
