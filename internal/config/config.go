// Package config loads indexer configuration from YAML with env overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

// Feed modes.
const (
	FeedFile      = "file"
	FeedWebsocket = "ws"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "INDEXER_"

// Config is the indexer configuration.
type Config struct {
	Storage    StorageConfig    `yaml:"storage"`
	Postgres   PostgresConfig   `yaml:"postgres"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
	Redis      RedisConfig      `yaml:"redis"`
	Feed       FeedConfig       `yaml:"feed"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Log        LogConfig        `yaml:"log"`
}

// StorageConfig selects the store backend.
type StorageConfig struct {
	Backend string `yaml:"backend"` // memory | postgres
}

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"max_conns"`
	Migrate  bool   `yaml:"migrate"`
}

// ClickHouseConfig enables the ClickHouse contract stats sink when DSN is set.
type ClickHouseConfig struct {
	DSN string `yaml:"dsn"`
}

// RedisConfig moves marketplace listings to Redis when Addr is set.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// FeedConfig selects the event source.
type FeedConfig struct {
	Mode             string `yaml:"mode"` // file | ws
	Path             string `yaml:"path"`
	URL              string `yaml:"url"`
	ReconnectSeconds int    `yaml:"reconnect_seconds"`
}

// MetricsConfig holds the metrics server settings.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{Backend: BackendMemory},
		Postgres: PostgresConfig{
			MaxConns: 10,
			Migrate:  true,
		},
		Feed: FeedConfig{
			Mode:             FeedFile,
			ReconnectSeconds: 5,
		},
		Metrics: MetricsConfig{Addr: ":9090"},
		Log:     LogConfig{Level: "info"},
	}
}

// Load reads path over the defaults, then applies environment overrides.
// An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from INDEXER_* variables provided by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
	boolean := func(name string, dst *bool) error {
		v, ok := lookup(EnvPrefix + name)
		if !ok {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = b
		return nil
	}
	integer := func(name string, dst *int) error {
		v, ok := lookup(EnvPrefix + name)
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = n
		return nil
	}

	str("STORAGE_BACKEND", &c.Storage.Backend)
	str("POSTGRES_DSN", &c.Postgres.DSN)
	str("CLICKHOUSE_DSN", &c.ClickHouse.DSN)
	str("REDIS_ADDR", &c.Redis.Addr)
	str("REDIS_PASSWORD", &c.Redis.Password)
	str("FEED_MODE", &c.Feed.Mode)
	str("FEED_PATH", &c.Feed.Path)
	str("FEED_URL", &c.Feed.URL)
	str("METRICS_ADDR", &c.Metrics.Addr)
	str("LOG_LEVEL", &c.Log.Level)

	if err := boolean("POSTGRES_MIGRATE", &c.Postgres.Migrate); err != nil {
		return err
	}
	if err := boolean("LOG_DEVELOPMENT", &c.Log.Development); err != nil {
		return err
	}
	if err := integer("REDIS_DB", &c.Redis.DB); err != nil {
		return err
	}
	if err := integer("FEED_RECONNECT_SECONDS", &c.Feed.ReconnectSeconds); err != nil {
		return err
	}

	maxConns := int(c.Postgres.MaxConns)
	if err := integer("POSTGRES_MAX_CONNS", &maxConns); err != nil {
		return err
	}
	c.Postgres.MaxConns = int32(maxConns)

	return nil
}

// Validate checks the configuration is usable.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendMemory:
	case BackendPostgres:
		if c.Postgres.DSN == "" {
			return fmt.Errorf("postgres.dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	switch c.Feed.Mode {
	case FeedFile:
		if c.Feed.Path == "" {
			return fmt.Errorf("feed.path is required for the file feed")
		}
	case FeedWebsocket:
		if c.Feed.URL == "" {
			return fmt.Errorf("feed.url is required for the ws feed")
		}
		if c.Feed.ReconnectSeconds < 1 {
			return fmt.Errorf("feed.reconnect_seconds must be at least 1")
		}
	default:
		return fmt.Errorf("unknown feed mode %q", c.Feed.Mode)
	}

	if c.Redis.DB < 0 {
		return fmt.Errorf("redis.db must not be negative")
	}
	return nil
}

// ReconnectDelay returns the websocket reconnect base delay.
func (c *Config) ReconnectDelay() time.Duration {
	return time.Duration(c.Feed.ReconnectSeconds) * time.Second
}
