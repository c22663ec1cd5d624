// Package redis stores ledger items as plain Redis strings under a key
// prefix. WithTx buffers writes and commits them in one MULTI/EXEC.
package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/warp/farm-ledger/kv"
)

// DefaultPrefix namespaces every key written by the store.
const DefaultPrefix = "farmledger:"

var (
	_ kv.TxStore = (*Store)(nil)
	_ kv.Store   = (*txStore)(nil)
)

// Store is a kv.TxStore backed by a Redis client.
type Store struct {
	client *redis.Client
	prefix string
}

// New wraps client. An empty prefix uses DefaultPrefix.
func New(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{client: client, prefix: prefix}
}

// Dial connects to addr and verifies the connection with PING.
func Dial(ctx context.Context, addr, password string, db int, prefix string) (*Store, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return New(client, prefix), nil
}

// Close closes the underlying client.
func (s *Store) Close() error { return s.client.Close() }

func (s *Store) key(k string) string { return s.prefix + k }

// GetItem returns the value stored under key.
func (s *Store) GetItem(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, kv.ErrEmptyKey
	}
	v, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// SetItem stores value under key with no expiry.
func (s *Store) SetItem(ctx context.Context, key, value string) error {
	if key == "" {
		return kv.ErrEmptyKey
	}
	return s.client.Set(ctx, s.key(key), value, 0).Err()
}

// WithTx collects the writes made by fn and sends them in one MULTI/EXEC
// once fn returns nil. Reads inside fn see the buffered writes.
func (s *Store) WithTx(ctx context.Context, fn func(kv.Store) error) error {
	tx := &txStore{parent: s, pending: make(map[string]string)}
	if err := fn(tx); err != nil {
		return err
	}
	if len(tx.order) == 0 {
		return nil
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, k := range tx.order {
			pipe.Set(ctx, s.key(k), tx.pending[k], 0)
		}
		return nil
	})
	return err
}

type txStore struct {
	parent  *Store
	pending map[string]string
	order   []string
}

func (t *txStore) GetItem(ctx context.Context, key string) (string, bool, error) {
	if v, ok := t.pending[key]; ok {
		return v, true, nil
	}
	return t.parent.GetItem(ctx, key)
}

func (t *txStore) SetItem(_ context.Context, key, value string) error {
	if key == "" {
		return kv.ErrEmptyKey
	}
	if _, seen := t.pending[key]; !seen {
		t.order = append(t.order, key)
	}
	t.pending[key] = value
	return nil
}
