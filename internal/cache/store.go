// Package cache implements the opaque TTL key/value store described in
// spec §4.4/§6.3: two key families (merged IP records, AI analysis text),
// positive and negative entries, fail-open on any backend error. Modeled
// on the predecessor's in-memory cache.go, generalized into a Store
// interface with memory, Redis, SQLite, and MySQL backends the way the rest of
// the example pack keeps a storage interface behind swappable drivers.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ipshield/reputation-engine/internal/model"
)

// keyVersion lets an operator invalidate every cache entry by bumping this
// prefix, per §6.3 ("no schema migration: bump CACHE_VERSION prefix").
const keyVersion = "v1"

// MergedKey builds the v1:merged:<ip> cache key.
func MergedKey(ip string) string {
	return keyVersion + ":merged:" + ip
}

// AIAnalysisKey builds the v1:ai:analysis:<ip> cache key.
func AIAnalysisKey(ip string) string {
	return keyVersion + ":ai:analysis:" + ip
}

// NegativeTTL is the fixed TTL for negative merged-record cache entries.
const NegativeTTL = 60 * time.Second

// Store is the opaque byte-oriented backend. Higher-level Get/Set helpers
// for CacheBundle and AI analysis text are built on top in this file so
// backends only need to implement raw bytes-with-TTL semantics.
type Store interface {
	// Get returns the raw value and whether it was found. A backend error
	// is returned as (nil, false, err); callers must treat it as a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value under key with the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Close releases backend resources.
	Close() error
}

// Cache wraps a Store with the two typed key families the aggregator and
// LLM summarizer use, and fails open: every error is swallowed and
// reported as "not found" so callers never abort on a cache outage.
type Cache struct {
	store Store
}

// New wraps a Store.
func New(store Store) *Cache {
	return &Cache{store: store}
}

// GetMerged reads the merged-record bundle for ip. ok is false on a miss
// or any backend error.
func (c *Cache) GetMerged(ctx context.Context, ip string) (model.CacheBundle, bool) {
	raw, found, err := c.store.Get(ctx, MergedKey(ip))
	if err != nil || !found {
		return model.CacheBundle{}, false
	}
	var bundle model.CacheBundle
	if err := json.Unmarshal(raw, &bundle); err != nil {
		return model.CacheBundle{}, false
	}
	return bundle, true
}

// SetMerged writes the merged-record bundle for ip under ttl. Errors are
// swallowed; a failed write simply means the next lookup is a miss.
func (c *Cache) SetMerged(ctx context.Context, ip string, bundle model.CacheBundle, ttl time.Duration) {
	raw, err := json.Marshal(bundle)
	if err != nil {
		return
	}
	_ = c.store.Set(ctx, MergedKey(ip), raw, ttl)
}

// GetAIAnalysis reads the cached LLM Markdown for ip.
func (c *Cache) GetAIAnalysis(ctx context.Context, ip string) (string, bool) {
	raw, found, err := c.store.Get(ctx, AIAnalysisKey(ip))
	if err != nil || !found {
		return "", false
	}
	return string(raw), true
}

// SetAIAnalysis caches the LLM Markdown for ip under ttl. Callers are
// responsible for the §4.8 "don't cache failures" rule before calling this.
func (c *Cache) SetAIAnalysis(ctx context.Context, ip, text string, ttl time.Duration) {
	_ = c.store.Set(ctx, AIAnalysisKey(ip), []byte(text), ttl)
}

// Close releases the underlying backend.
func (c *Cache) Close() error {
	return c.store.Close()
}

// Ping probes the backend with a cheap round-trip and returns its error
// unswallowed, unlike the fail-open accessors above — this is the one
// place a caller (the health endpoint) needs to know the backend is
// actually reachable rather than treating an outage as a plain miss.
func (c *Cache) Ping(ctx context.Context) error {
	const probeKey = keyVersion + ":health:probe"
	if err := c.store.Set(ctx, probeKey, []byte("1"), 10*time.Second); err != nil {
		return err
	}
	_, _, err := c.store.Get(ctx, probeKey)
	return err
}
