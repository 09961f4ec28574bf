// Package kvstore holds the string-keyed storage backends the cart persists into.
package kvstore

import (
	"context"
	"sync"
	"time"
)

// Store is the durable key-value contract. Get reports found=false for missing keys.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Memory keeps values in process memory. Contents vanish on restart. With a
// TTL, each write restarts the key's clock and expired keys read as missing.
type Memory struct {
	mu     sync.RWMutex
	values map[string]memoryEntry
	ttl    time.Duration
	now    func() time.Time
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

func NewMemory() *Memory {
	return NewMemoryWithTTL(0)
}

func NewMemoryWithTTL(ttl time.Duration) *Memory {
	return &Memory{values: make(map[string]memoryEntry), ttl: ttl, now: time.Now}
}

func (m *Memory) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.values[key]
	if !ok || e.expired(m.now()) {
		return "", false, nil
	}
	return e.value, true, nil
}

func (m *Memory) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e := memoryEntry{value: value}
	if m.ttl > 0 {
		e.expiresAt = m.now().Add(m.ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = e
	return nil
}

// DeleteExpired drops keys whose TTL has passed and returns how many were dropped.
func (m *Memory) DeleteExpired(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed int64
	for key, e := range m.values {
		if e.expired(now) {
			delete(m.values, key)
			removed++
		}
	}
	return removed, nil
}
