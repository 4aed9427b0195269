package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ipshield/reputation-engine/internal/clock"
	"github.com/ipshield/reputation-engine/internal/model"
	"github.com/redis/go-redis/v9"
)

func TestMemoryStoreExpires(t *testing.T) {
	frozen := clock.NewFrozen(time.Unix(0, 0))
	store := NewMemoryStore(frozen)
	c := New(store)
	ctx := context.Background()

	bundle := model.CacheBundle{Successful: []string{"ipinfo"}}
	c.SetMerged(ctx, "1.1.1.1", bundle, 10*time.Second)

	got, ok := c.GetMerged(ctx, "1.1.1.1")
	if !ok || len(got.Successful) != 1 {
		t.Fatalf("expected hit, got ok=%v got=%+v", ok, got)
	}

	frozen.Advance(11 * time.Second)
	if _, ok := c.GetMerged(ctx, "1.1.1.1"); ok {
		t.Fatal("expected miss after TTL expiry")
	}
}

func TestRedisStoreRoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(client)
	c := New(store)
	ctx := context.Background()

	c.SetAIAnalysis(ctx, "8.8.8.8", "## Summary\nLooks fine.", time.Minute)
	text, ok := c.GetAIAnalysis(ctx, "8.8.8.8")
	if !ok || text != "## Summary\nLooks fine." {
		t.Fatalf("unexpected round trip: ok=%v text=%q", ok, text)
	}

	if _, ok := c.GetAIAnalysis(ctx, "9.9.9.9"); ok {
		t.Fatal("expected miss for unset key")
	}
}

func TestCacheFailsOpenOnBackendError(t *testing.T) {
	c := New(&erroringStore{})
	ctx := context.Background()
	if _, ok := c.GetMerged(ctx, "1.1.1.1"); ok {
		t.Fatal("expected a backend error to be treated as a miss")
	}
	// SetMerged must not panic on a failing backend.
	c.SetMerged(ctx, "1.1.1.1", model.CacheBundle{}, time.Minute)
}

type erroringStore struct{}

func (e *erroringStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, errBackend
}
func (e *erroringStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return errBackend
}
func (e *erroringStore) Close() error { return nil }

var errBackend = &backendError{"backend unavailable"}

type backendError struct{ msg string }

func (e *backendError) Error() string { return e.msg }
