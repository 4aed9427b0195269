package credpool

import (
	"sync"

	"github.com/ipshield/reputation-engine/internal/clock"
)

// Registry holds one Pool per provider name, created lazily on first use.
// It is process-wide state shared by every in-flight aggregation.
type Registry struct {
	mu    sync.Mutex
	pools map[string]*Pool
	clock clock.Clock
}

// NewRegistry builds an empty registry. Pools are created on first
// PoolFor(name, keys) call, not eagerly.
func NewRegistry(c clock.Clock) *Registry {
	return &Registry{pools: make(map[string]*Pool), clock: c}
}

// PoolFor returns the pool for name, creating it from keys on first use.
// Subsequent calls ignore keys and return the existing pool — the key list
// for a provider is fixed for the process lifetime.
func (r *Registry) PoolFor(name string, keys []string) *Pool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.pools[name]; ok {
		return p
	}
	p := New(keys, r.clock)
	r.pools[name] = p
	return p
}

// Snapshot returns every known provider's key stats, for health/debug
// endpoints.
func (r *Registry) Snapshot() map[string][]KeyStat {
	r.mu.Lock()
	names := make([]string, 0, len(r.pools))
	pools := make([]*Pool, 0, len(r.pools))
	for name, p := range r.pools {
		names = append(names, name)
		pools = append(pools, p)
	}
	r.mu.Unlock()

	out := make(map[string][]KeyStat, len(names))
	for i, name := range names {
		out[name] = pools[i].Stats()
	}
	return out
}
