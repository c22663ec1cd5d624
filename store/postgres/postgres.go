// Package postgres provides a PostgreSQL-backed kv.TxStore using the pgx
// database/sql driver. It uses the same kv_items table shape as the SQLite
// backend.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	"github.com/warp/farm-ledger/kv"
)

const driverName = "pgx"

var (
	_ kv.TxStore = (*Store)(nil)
	_ kv.Store   = (*txStore)(nil)
)

// Store persists key-value items in a Postgres table.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// New opens dsn, checks connectivity and ensures the schema exists.
func New(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("postgres dsn required")
	}
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := ensureTable(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func ensureTable(ctx context.Context, db *sql.DB) error {
	ddl := `CREATE TABLE IF NOT EXISTS kv_items (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure kv_items table: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// GetItem returns the value stored under key.
func (s *Store) GetItem(ctx context.Context, key string) (string, bool, error) {
	return getItem(ctx, s.db, key)
}

// SetItem upserts value under key.
func (s *Store) SetItem(ctx context.Context, key, value string) error {
	return setItem(ctx, s.db, key, value)
}

// WithTx runs fn in a single database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(kv.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(&txStore{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type txStore struct{ tx *sql.Tx }

func (t *txStore) GetItem(ctx context.Context, key string) (string, bool, error) {
	return getItem(ctx, t.tx, key)
}

func (t *txStore) SetItem(ctx context.Context, key, value string) error {
	return setItem(ctx, t.tx, key, value)
}

type conn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getItem(ctx context.Context, c conn, key string) (string, bool, error) {
	if key == "" {
		return "", false, kv.ErrEmptyKey
	}
	var value string
	err := c.QueryRowContext(ctx, `SELECT value FROM kv_items WHERE key = $1`, key).Scan(&value)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return "", false, nil
	case err != nil:
		return "", false, fmt.Errorf("select %s: %w", key, err)
	}
	return value, true, nil
}

func setItem(ctx context.Context, c conn, key, value string) error {
	if key == "" {
		return kv.ErrEmptyKey
	}
	_, err := c.ExecContext(ctx, `INSERT INTO kv_items (key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}
