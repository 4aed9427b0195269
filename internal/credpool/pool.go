// Package credpool implements the per-provider rotating API key pool:
// round-robin selection, cooldown recovery, and key-related failure
// classification. Modeled on the rate-gated Provider struct in the
// single-file predecessor of this service, generalized from a single
// rate-limit counter to full health/cooldown tracking, and structured the
// way a circuit breaker tracks failure/success counts and state.
package credpool

import (
	"strings"
	"sync"
	"time"

	"github.com/ipshield/reputation-engine/internal/clock"
)

// Cooldown is how long an unhealthy key waits before being retried.
const Cooldown = 5 * time.Minute

// FailureDecay is how long since the last failure before a key's failure
// count resets on its own, independent of health.
const FailureDecay = 2 * time.Minute

// UnhealthyThreshold is the failure count at which a key is marked
// unhealthy.
const UnhealthyThreshold = 2

// keyState is one credential's rotation bookkeeping.
type keyState struct {
	value           string
	isHealthy       bool
	lastFailureAt   time.Time
	hasFailed       bool
	failureCount    int
	successCount    int
}

// Pool rotates a provider's API keys, tracking health and recovering keys
// after a cooldown window. Safe for concurrent use.
type Pool struct {
	mu     sync.Mutex
	keys   []*keyState
	cursor int
	clock  clock.Clock
}

// New builds a pool from an ordered key list. An empty list is valid and
// means the provider has no usable credentials; GetNext always reports
// unavailable.
func New(keys []string, c clock.Clock) *Pool {
	if c == nil {
		c = clock.Real{}
	}
	states := make([]*keyState, 0, len(keys))
	for _, k := range keys {
		states = append(states, &keyState{value: k, isHealthy: true})
	}
	return &Pool{keys: states, clock: c}
}

// Size returns the number of configured keys.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.keys)
}

// GetNext sweeps for recoverable keys, then returns the next healthy key
// starting at the round-robin cursor. ok is false if no key is configured
// or none is currently healthy.
func (p *Pool) GetNext() (key string, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.keys) == 0 {
		return "", false
	}

	now := p.clock.Now()
	p.sweep(now)

	n := len(p.keys)
	for i := 0; i < n; i++ {
		idx := (p.cursor + i) % n
		if p.keys[idx].isHealthy {
			p.cursor = (idx + 1) % n
			return p.keys[idx].value, true
		}
	}
	// Advance the cursor anyway so a future sweep-driven recovery is probed
	// uniformly rather than always starting from 0.
	p.cursor = (p.cursor + 1) % n
	return "", false
}

// sweep recovers keys whose cooldown has elapsed and decays stale failure
// counts. Must be called with mu held.
func (p *Pool) sweep(now time.Time) {
	for _, k := range p.keys {
		if !k.hasFailed {
			continue
		}
		if now.Sub(k.lastFailureAt) >= Cooldown {
			k.isHealthy = true
			k.failureCount = 0
			continue
		}
		if now.Sub(k.lastFailureAt) > FailureDecay && k.failureCount < UnhealthyThreshold {
			k.failureCount = 0
		}
	}
}

// MarkSuccess records a successful use of key and, if it had accumulated
// any failures, forces an immediate recovery.
func (p *Pool) MarkSuccess(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	k := p.find(key)
	if k == nil {
		return
	}
	k.successCount++
	if k.failureCount > 0 {
		k.failureCount = 0
		k.isHealthy = true
	}
}

// MarkFailure records a failed use of key with the given reason. If the
// last failure is old enough, the failure count decays before incrementing.
func (p *Pool) MarkFailure(key, reason string) {
	_ = reason
	p.mu.Lock()
	defer p.mu.Unlock()
	k := p.find(key)
	if k == nil {
		return
	}
	now := p.clock.Now()
	if k.hasFailed && now.Sub(k.lastFailureAt) > FailureDecay {
		k.failureCount = 0
	}
	k.failureCount++
	k.lastFailureAt = now
	k.hasFailed = true
	if k.failureCount >= UnhealthyThreshold {
		k.isHealthy = false
	}
}

func (p *Pool) find(key string) *keyState {
	for _, k := range p.keys {
		if k.value == key {
			return k
		}
	}
	return nil
}

// KeyStat is a point-in-time snapshot of one key's health, for diagnostics.
type KeyStat struct {
	Index         int
	IsHealthy     bool
	FailureCount  int
	SuccessCount  int
	LastFailureAt time.Time
}

// Stats returns a snapshot of every key's state.
func (p *Pool) Stats() []KeyStat {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]KeyStat, len(p.keys))
	for i, k := range p.keys {
		out[i] = KeyStat{
			Index:         i,
			IsHealthy:     k.isHealthy,
			FailureCount:  k.failureCount,
			SuccessCount:  k.successCount,
			LastFailureAt: k.lastFailureAt,
		}
	}
	return out
}

// keyRelatedStatuses are HTTP statuses that always indicate a credential
// problem rather than a transient server failure.
var keyRelatedStatuses = map[int]bool{401: true, 403: true, 429: true}

// keyRelatedPhrases are case-insensitive body/message substrings that
// indicate a credential or quota problem even on a 200-with-error-body
// response.
var keyRelatedPhrases = []string{
	"rate limit", "quota", "limit exceeded", "request quota",
	"invalid key", "invalid api key", "unauthorized", "too many requests",
	"daily limit", "monthly limit", "exceeded", "throttl",
}

// IsKeyRelatedError classifies an HTTP status/body pair as a credential
// problem the pool should react to (cooldown the key and try the next one)
// as opposed to an unrelated transport or server error.
func IsKeyRelatedError(httpStatus int, body string) bool {
	if keyRelatedStatuses[httpStatus] {
		return true
	}
	lower := strings.ToLower(body)
	for _, phrase := range keyRelatedPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
