package cache

import (
	"context"
	"sync"
	"time"

	"github.com/ipshield/reputation-engine/internal/clock"
)

// entry is one in-memory cached value with its absolute expiry.
type entry struct {
	value   []byte
	expires time.Time
}

// MemoryStore is a process-local TTL map, the default backend and the
// direct generalization of the predecessor's cache.go.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]entry
	clock clock.Clock
}

// NewMemoryStore builds an empty in-memory store.
func NewMemoryStore(c clock.Clock) *MemoryStore {
	if c == nil {
		c = clock.Real{}
	}
	return &MemoryStore{items: make(map[string]entry), clock: c}
}

// Get returns the value if present and not expired.
func (m *MemoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.items[key]
	if !ok {
		return nil, false, nil
	}
	if m.clock.Now().After(e.expires) {
		delete(m.items, key)
		return nil, false, nil
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, true, nil
}

// Set stores value under key with the given TTL.
func (m *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := make([]byte, len(value))
	copy(stored, value)
	m.items[key] = entry{value: stored, expires: m.clock.Now().Add(ttl)}
	return nil
}

// Close is a no-op for the in-memory backend.
func (m *MemoryStore) Close() error { return nil }
