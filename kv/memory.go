package kv

import (
	"context"
	"sync"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory is a map-backed Store. Safe for concurrent use.
type Memory struct {
	mu         sync.RWMutex
	items      map[string]string
	closed     bool
	failWrites error
}

// NewMemory creates an empty, open store.
func NewMemory() *Memory {
	return &Memory{items: make(map[string]string)}
}

// GetItem returns the value for key.
func (m *Memory) GetItem(_ context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, ErrEmptyKey
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return "", false, ErrStoreClosed
	}
	v, ok := m.items[key]
	return v, ok, nil
}

// SetItem stores value under key.
func (m *Memory) SetItem(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.setLocked(key, value)
}

func (m *Memory) setLocked(key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if m.closed {
		return ErrStoreClosed
	}
	if m.failWrites != nil {
		return m.failWrites
	}
	m.items[key] = value
	return nil
}

// SetFailWrites makes every later write fail with err until it is called
// again with nil. Tests use it to exercise storage failure paths.
func (m *Memory) SetFailWrites(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWrites = err
}

// Len returns the number of stored keys.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// Close marks the store closed. Subsequent calls fail with ErrStoreClosed.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx executes fn within a transaction.
// For the memory store, this is simulated with a snapshot + rollback on error.
func (m *Memory) WithTx(_ context.Context, fn func(Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := make(map[string]string, len(m.items))
	for k, v := range m.items {
		snapshot[k] = v
	}

	if err := fn(&memoryTxView{parent: m}); err != nil {
		m.items = snapshot
		return err
	}
	return nil
}

// memoryTxView writes through to the parent while its lock is held.
type memoryTxView struct {
	parent *Memory
}

func (tv *memoryTxView) GetItem(_ context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, ErrEmptyKey
	}
	v, ok := tv.parent.items[key]
	return v, ok, nil
}

func (tv *memoryTxView) SetItem(_ context.Context, key, value string) error {
	return tv.parent.setLocked(key, value)
}

var (
	_ TxStore = (*Memory)(nil)
	_ Store   = (*memoryTxView)(nil)
)
