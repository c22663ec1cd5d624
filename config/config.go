/*
Package config loads farm-ledger settings.

SOURCES (later wins):
  1. Built-in defaults (Default)
  2. YAML file, if a path is given
  3. FARMLEDGER_* environment variables

EXAMPLE FILE:
  server:
    addr: ":8080"
    allowed_origins: ["http://localhost:3000"]
  storage:
    driver: sqlite
    sqlite:
      path: ./data/farm.db
  log:
    level: info
    format: text
  ledger:
    mirror_legacy_keys: false
    max_activities: 0

ENVIRONMENT:
  FARMLEDGER_ADDR, FARMLEDGER_STORAGE_DRIVER, FARMLEDGER_SQLITE_PATH,
  FARMLEDGER_POSTGRES_DSN, FARMLEDGER_REDIS_ADDR, FARMLEDGER_REDIS_PASSWORD,
  FARMLEDGER_REDIS_DB, FARMLEDGER_REDIS_PREFIX, FARMLEDGER_S3_BUCKET,
  FARMLEDGER_S3_PREFIX, FARMLEDGER_S3_REGION, FARMLEDGER_S3_ENDPOINT,
  FARMLEDGER_S3_PATH_STYLE, FARMLEDGER_LOG_LEVEL, FARMLEDGER_LOG_FORMAT,
  FARMLEDGER_MIRROR_LEGACY_KEYS, FARMLEDGER_MAX_ACTIVITIES
*/
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverS3       = "s3"
)

// Config is the full application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
	Ledger  LedgerConfig  `yaml:"ledger"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
}

type StorageConfig struct {
	Driver   string         `yaml:"driver"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
	S3       S3Config       `yaml:"s3"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

type S3Config struct {
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	PathStyle bool   `yaml:"path_style"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type LedgerConfig struct {
	MirrorLegacyKeys bool `yaml:"mirror_legacy_keys"`
	MaxActivities    int  `yaml:"max_activities"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			AllowedOrigins:  []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Storage: StorageConfig{
			Driver: DriverSQLite,
			SQLite: SQLiteConfig{Path: "farm.db"},
			Redis:  RedisConfig{Addr: "localhost:6379"},
			S3:     S3Config{Region: "us-east-1"},
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads path (if non-empty) over the defaults, applies environment
// overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// applyEnv overlays FARMLEDGER_* variables found by lookup.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok {
			*dst = v
		}
	}
	var errs []error
	boolean := func(name string, dst *bool) {
		if v, ok := lookup(name); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				return
			}
			*dst = b
		}
	}
	integer := func(name string, dst *int) {
		if v, ok := lookup(name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				return
			}
			*dst = n
		}
	}

	str("FARMLEDGER_ADDR", &c.Server.Addr)
	str("FARMLEDGER_STORAGE_DRIVER", &c.Storage.Driver)
	str("FARMLEDGER_SQLITE_PATH", &c.Storage.SQLite.Path)
	str("FARMLEDGER_POSTGRES_DSN", &c.Storage.Postgres.DSN)
	str("FARMLEDGER_REDIS_ADDR", &c.Storage.Redis.Addr)
	str("FARMLEDGER_REDIS_PASSWORD", &c.Storage.Redis.Password)
	integer("FARMLEDGER_REDIS_DB", &c.Storage.Redis.DB)
	str("FARMLEDGER_REDIS_PREFIX", &c.Storage.Redis.Prefix)
	str("FARMLEDGER_S3_BUCKET", &c.Storage.S3.Bucket)
	str("FARMLEDGER_S3_PREFIX", &c.Storage.S3.Prefix)
	str("FARMLEDGER_S3_REGION", &c.Storage.S3.Region)
	str("FARMLEDGER_S3_ENDPOINT", &c.Storage.S3.Endpoint)
	boolean("FARMLEDGER_S3_PATH_STYLE", &c.Storage.S3.PathStyle)
	str("FARMLEDGER_LOG_LEVEL", &c.Log.Level)
	str("FARMLEDGER_LOG_FORMAT", &c.Log.Format)
	boolean("FARMLEDGER_MIRROR_LEGACY_KEYS", &c.Ledger.MirrorLegacyKeys)
	integer("FARMLEDGER_MAX_ACTIVITIES", &c.Ledger.MaxActivities)

	return errors.Join(errs...)
}

// Validate reports every problem with c.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Server.Addr) == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverSQLite:
		if c.Storage.SQLite.Path == "" {
			errs = append(errs, errors.New("storage.sqlite.path is required"))
		}
	case DriverPostgres:
		if c.Storage.Postgres.DSN == "" {
			errs = append(errs, errors.New("storage.postgres.dsn is required"))
		}
	case DriverRedis:
		if c.Storage.Redis.Addr == "" {
			errs = append(errs, errors.New("storage.redis.addr is required"))
		}
	case DriverS3:
		if c.Storage.S3.Bucket == "" {
			errs = append(errs, errors.New("storage.s3.bucket is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage.driver %q", c.Storage.Driver))
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log.format %q", c.Log.Format))
	}
	if c.Ledger.MaxActivities < 0 {
		errs = append(errs, errors.New("ledger.max_activities must not be negative"))
	}
	return errors.Join(errs...)
}

// SlogLevel parses Level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log.level %q", l.Level)
	}
	return level, nil
}
