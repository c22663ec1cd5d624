/*
store.go - Key-value storage contract for ledger persistence

PURPOSE:
  Defines the narrow interface between the inventory ledger and whatever
  holds its data. The ledger only ever needs two things: read a string
  value by key, and write a string value by key. Everything stored is
  UTF-8 JSON text.

KEY INTERFACES:
  Store:   GetItem / SetItem
  TxStore: Store + WithTx (atomic multi-key writes)

ABSENCE IS NOT AN ERROR:
  GetItem returns ok=false for a missing key. Callers treat a missing key
  as an empty collection of the right shape.

ATOMIC BATCHES:
  WithTx ensures all-or-nothing semantics for a group of SetItem calls.
  Backends that cannot offer this (S3) implement Store only.

IMPLEMENTATIONS:
  - kv/memory.go:        In-memory, for tests and development
  - store/sqlite:        SQLite (default)
  - store/postgres:      PostgreSQL via pgx
  - store/redis:         Redis, MULTI/EXEC for WithTx
  - store/s3:            S3-compatible object storage

SEE ALSO:
  - keys.go: Persisted key names
  - inventory/repository.go: Document load/save on top of Store
*/
package kv

import (
	"context"
	"errors"
)

// =============================================================================
// STORE - Opaque string key-value storage
// =============================================================================

// Store is an asynchronous-in-spirit string key-value store.
type Store interface {
	// GetItem returns the value for key. ok is false when the key is absent.
	GetItem(ctx context.Context, key string) (value string, ok bool, err error)

	// SetItem stores value under key, replacing any previous value.
	SetItem(ctx context.Context, key, value string) error
}

// TxStore wraps Store with transaction support.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction.
	// If fn returns error, every write made through the inner Store is discarded.
	WithTx(ctx context.Context, fn func(Store) error) error
}

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrEmptyKey is returned when a key is the empty string.
	ErrEmptyKey = errors.New("kv: empty key")

	// ErrStoreClosed is returned after Close.
	ErrStoreClosed = errors.New("kv: store closed")
)

// SetItems writes every entry of items. On a TxStore the writes are atomic;
// otherwise they are applied in order and the first failure stops the batch.
func SetItems(ctx context.Context, s Store, items []Item) error {
	write := func(st Store) error {
		for _, it := range items {
			if err := st.SetItem(ctx, it.Key, it.Value); err != nil {
				return err
			}
		}
		return nil
	}
	if tx, ok := s.(TxStore); ok {
		return tx.WithTx(ctx, write)
	}
	return write(s)
}

// Item is a single key/value pair.
type Item struct {
	Key   string
	Value string
}
