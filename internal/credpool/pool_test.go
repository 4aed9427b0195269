package credpool

import (
	"testing"
	"time"

	"github.com/ipshield/reputation-engine/internal/clock"
)

func TestSingleKeyPoolCooldownRecovery(t *testing.T) {
	frozen := clock.NewFrozen(time.Unix(0, 0))
	pool := New([]string{"K1"}, frozen)

	pool.MarkFailure("K1", "429")
	if !pool.Stats()[0].IsHealthy {
		t.Fatal("expected key to stay healthy after 1 failure")
	}

	pool.MarkFailure("K1", "429")
	if pool.Stats()[0].IsHealthy {
		t.Fatal("expected key to become unhealthy after 2 failures")
	}
	if _, ok := pool.GetNext(); ok {
		t.Fatal("expected no key available while unhealthy")
	}

	frozen.Advance(Cooldown)
	key, ok := pool.GetNext()
	if !ok || key != "K1" {
		t.Fatalf("expected K1 to recover after cooldown, got ok=%v key=%q", ok, key)
	}
	if pool.Stats()[0].FailureCount != 0 {
		t.Fatalf("expected failure count reset after cooldown, got %d", pool.Stats()[0].FailureCount)
	}
}

func TestThreeKeyPoolStuckKeyExcluded(t *testing.T) {
	frozen := clock.NewFrozen(time.Unix(0, 0))
	pool := New([]string{"A", "B", "C"}, frozen)

	pool.MarkFailure("A", "401")
	pool.MarkFailure("A", "401")
	if pool.Stats()[0].IsHealthy {
		t.Fatal("expected A to be unhealthy")
	}

	counts := map[string]int{}
	for i := 0; i < 999; i++ {
		key, ok := pool.GetNext()
		if !ok {
			t.Fatal("expected a key to be available")
		}
		counts[key]++
	}
	if counts["A"] != 0 {
		t.Fatalf("expected A to never be returned, got %d", counts["A"])
	}
	if counts["B"] == 0 || counts["C"] == 0 {
		t.Fatalf("expected both B and C to be used, got %+v", counts)
	}
}

func TestIsKeyRelatedError(t *testing.T) {
	cases := []struct {
		status int
		body   string
		want   bool
	}{
		{401, "", true},
		{403, "", true},
		{429, "", true},
		{500, "internal error", false},
		{200, "Rate limit exceeded", true},
		{200, "invalid API key provided", true},
		{200, "everything is fine", false},
	}
	for _, tc := range cases {
		got := IsKeyRelatedError(tc.status, tc.body)
		if got != tc.want {
			t.Errorf("IsKeyRelatedError(%d, %q) = %v, want %v", tc.status, tc.body, got, tc.want)
		}
	}
}

func TestMarkSuccessRecoversFailedKey(t *testing.T) {
	frozen := clock.NewFrozen(time.Unix(0, 0))
	pool := New([]string{"K1"}, frozen)
	pool.MarkFailure("K1", "timeout")
	pool.MarkSuccess("K1")
	stats := pool.Stats()[0]
	if !stats.IsHealthy || stats.FailureCount != 0 {
		t.Fatalf("expected success to fully recover key, got %+v", stats)
	}
}
