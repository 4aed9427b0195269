package aggregator

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ipshield/reputation-engine/internal/cache"
	"github.com/ipshield/reputation-engine/internal/clock"
	"github.com/ipshield/reputation-engine/internal/config"
	"github.com/ipshield/reputation-engine/internal/credpool"
	"github.com/ipshield/reputation-engine/internal/fetcher"
	"github.com/ipshield/reputation-engine/internal/providers"
)

func newTestAggregator(t *testing.T, wave1, wave2 []*providers.Descriptor) (*Aggregator, *cache.Cache) {
	t.Helper()
	cfg := &config.Config{CacheTTL: 900 * time.Second}
	f := fetcher.New(2 * time.Second)
	c := cache.New(cache.NewMemoryStore(clock.Real{}))
	pools := credpool.NewRegistry(clock.Real{})
	agg := New(cfg, f, c, pools, nil).WithProviders(func(*config.Config) ([]*providers.Descriptor, []*providers.Descriptor) {
		return wave1, wave2
	})
	return agg, c
}

func TestAggregateWave2GatedOnASN(t *testing.T) {
	var wave2Hits int
	wave1Srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"asn":15169,"country":"US"}`))
	}))
	defer wave1Srv.Close()
	wave2Srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wave2Hits++
		w.Write([]byte(`{"ok":true}`))
	}))
	defer wave2Srv.Close()

	w1 := &providers.Descriptor{
		Name:     "fake1",
		BuildURL: func(req providers.Request) string { return wave1Srv.URL },
		Transform: func(p providers.Payload) map[string]any {
			asn, _ := p["asn"].(float64)
			return map[string]any{"asn": asn}
		},
	}
	w2 := &providers.Descriptor{
		Name:         "fake2",
		ASNDependent: true,
		BuildURL:     func(req providers.Request) string { return wave2Srv.URL },
	}

	agg, _ := newTestAggregator(t, []*providers.Descriptor{w1}, []*providers.Descriptor{w2})
	result := agg.Aggregate(context.Background(), "8.8.8.8", 0)

	if !result.HasASN || result.ASN != 15169 {
		t.Fatalf("expected ASN 15169, got %+v", result)
	}
	if wave2Hits != 1 {
		t.Fatalf("expected wave2 to be hit exactly once, got %d", wave2Hits)
	}
	if len(result.Successful) != 2 {
		t.Fatalf("expected 2 successful providers, got %+v", result.Successful)
	}
}

func TestAggregateWave2SkippedWithoutASN(t *testing.T) {
	var wave2Hits int
	wave1Srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"country":"US"}`))
	}))
	defer wave1Srv.Close()
	wave2Srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wave2Hits++
		w.Write([]byte(`{"ok":true}`))
	}))
	defer wave2Srv.Close()

	w1 := &providers.Descriptor{
		Name:     "fake1",
		BuildURL: func(req providers.Request) string { return wave1Srv.URL },
		Transform: func(p providers.Payload) map[string]any {
			return map[string]any{"country_code": p["country"]}
		},
	}
	w2 := &providers.Descriptor{
		Name:         "fake2",
		ASNDependent: true,
		BuildURL:     func(req providers.Request) string { return wave2Srv.URL },
	}

	agg, _ := newTestAggregator(t, []*providers.Descriptor{w1}, []*providers.Descriptor{w2})
	result := agg.Aggregate(context.Background(), "9.9.9.9", 0)

	if result.HasASN {
		t.Fatalf("expected no ASN, got %+v", result)
	}
	if wave2Hits != 0 {
		t.Fatalf("expected wave2 to never be hit, got %d", wave2Hits)
	}
}

func TestAggregateCacheHit(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(`{"country":"US"}`))
	}))
	defer srv.Close()

	w1 := &providers.Descriptor{
		Name:     "fake1",
		BuildURL: func(req providers.Request) string { return srv.URL },
		Transform: func(p providers.Payload) map[string]any {
			return map[string]any{"country_code": p["country"]}
		},
	}

	agg, _ := newTestAggregator(t, []*providers.Descriptor{w1}, nil)
	first := agg.Aggregate(context.Background(), "1.1.1.1", 0)
	second := agg.Aggregate(context.Background(), "1.1.1.1", 0)

	if hits != 1 {
		t.Fatalf("expected exactly 1 outbound hit, got %d", hits)
	}
	if first.PartiallyFromCache {
		t.Fatal("first call should not be from cache")
	}
	if !second.PartiallyFromCache {
		t.Fatal("second call should be served from cache")
	}
}

func TestAggregateNegativeCache(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	w1 := &providers.Descriptor{
		Name:     "fake1",
		BuildURL: func(req providers.Request) string { return srv.URL },
	}

	agg, _ := newTestAggregator(t, []*providers.Descriptor{w1}, nil)
	first := agg.Aggregate(context.Background(), "203.0.113.5", 0)
	second := agg.Aggregate(context.Background(), "203.0.113.5", 0)

	if len(first.Successful) != 0 || len(first.Errors) == 0 {
		t.Fatalf("expected all-error result, got %+v", first)
	}
	if hits != 1 {
		t.Fatalf("expected negative cache to prevent a second outbound hit, got %d hits", hits)
	}
	if !second.PartiallyFromCache {
		t.Fatal("second call should be served from the negative cache")
	}
}
