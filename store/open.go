// Package store selects and opens the configured kv.Store backend.
package store

import (
	"context"
	"fmt"

	"github.com/warp/farm-ledger/config"
	"github.com/warp/farm-ledger/kv"
	"github.com/warp/farm-ledger/store/postgres"
	"github.com/warp/farm-ledger/store/redis"
	"github.com/warp/farm-ledger/store/s3"
	"github.com/warp/farm-ledger/store/sqlite"
)

// Open returns the backend named by cfg.Driver and a function that
// releases it.
func Open(ctx context.Context, cfg config.StorageConfig) (kv.Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Driver {
	case config.DriverMemory:
		m := kv.NewMemory()
		return m, m.Close, nil

	case config.DriverSQLite, "":
		path := cfg.SQLite.Path
		if path == "" {
			path = "farm.db"
		}
		s, err := sqlite.New(path)
		if err != nil {
			return nil, noop, err
		}
		return s, s.Close, nil

	case config.DriverPostgres:
		s, err := postgres.New(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, noop, err
		}
		return s, s.Close, nil

	case config.DriverRedis:
		s, err := redis.Dial(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Prefix)
		if err != nil {
			return nil, noop, err
		}
		return s, s.Close, nil

	case config.DriverS3:
		s, err := s3.New(ctx, s3.Config{
			Bucket:    cfg.S3.Bucket,
			Prefix:    cfg.S3.Prefix,
			Region:    cfg.S3.Region,
			Endpoint:  cfg.S3.Endpoint,
			PathStyle: cfg.S3.PathStyle,
		})
		if err != nil {
			return nil, noop, err
		}
		return s, noop, nil
	}
	return nil, noop, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}
