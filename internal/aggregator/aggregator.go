// Package aggregator implements the Single-IP Aggregator: cache lookup,
// two-wave concurrent provider fan-out, ASN-candidate derivation, merge,
// and cache write-back. See spec §4.5. Modeled on the orchestration loop
// in the predecessor's service.go, generalized from a flat single-wave
// fan-out into the two-wave Wave-1/Wave-2 protocol and bounded via
// golang.org/x/sync/semaphore rather than a fixed-size worker pool.
package aggregator

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/ipshield/reputation-engine/internal/cache"
	"github.com/ipshield/reputation-engine/internal/config"
	"github.com/ipshield/reputation-engine/internal/credpool"
	"github.com/ipshield/reputation-engine/internal/fetcher"
	"github.com/ipshield/reputation-engine/internal/localgeo"
	"github.com/ipshield/reputation-engine/internal/model"
	"github.com/ipshield/reputation-engine/internal/providers"
)

// PerIPConcurrency is the default cap on simultaneous outbound provider
// requests for a single IP, per spec §4.5/§5.
const PerIPConcurrency = 4

// Aggregator orchestrates the per-IP fan-out/merge pipeline.
type Aggregator struct {
	cfg       *config.Config
	fetcher   *fetcher.Fetcher
	cache     *cache.Cache
	pools     *credpool.Registry
	localgeo  *localgeo.Reader
	cap       int64
	partition func(*config.Config) ([]*providers.Descriptor, []*providers.Descriptor)
}

// New builds an Aggregator wired to the real provider registry.
func New(cfg *config.Config, f *fetcher.Fetcher, c *cache.Cache, pools *credpool.Registry, geo *localgeo.Reader) *Aggregator {
	return &Aggregator{
		cfg: cfg, fetcher: f, cache: c, pools: pools, localgeo: geo,
		cap: PerIPConcurrency, partition: providers.Partition,
	}
}

// WithProviders overrides the provider partitioning function, letting
// tests substitute a fixed descriptor set instead of the live registry.
func (a *Aggregator) WithProviders(partition func(*config.Config) ([]*providers.Descriptor, []*providers.Descriptor)) *Aggregator {
	a.partition = partition
	return a
}

// Aggregate runs the full §4.5 protocol for one IP. asnHint is an optional
// explicit ASN argument (e.g. from an upstream edge probe); 0 means none.
func (a *Aggregator) Aggregate(ctx context.Context, ip string, asnHint int) model.AggregateResult {
	if bundle, ok := a.cache.GetMerged(ctx, ip); ok {
		return fromCache(ip, bundle)
	}

	wave1, wave2 := a.partition(a.cfg)

	results := a.runWave(ctx, ip, 0, wave1)
	merged := model.MergedRecord{}
	successful := []string{}
	var errs []model.ApiError
	providerMap := map[string]model.ProviderResult{}

	for _, r := range results {
		providerMap[r.Source] = r
		if r.Status == model.StatusSuccess {
			successful = append(successful, r.Source)
			merged = merged.Overlay(r.Data)
		} else {
			errs = append(errs, model.ApiError{Source: r.Source, Error: r.Error})
		}
	}

	asn, hasASN, localDatacenterHint := bestASN(asnHint, merged, a.localgeo, ip)

	if hasASN && len(wave2) > 0 {
		wave2Results := a.runWave(ctx, ip, asn, wave2)
		for _, r := range wave2Results {
			providerMap[r.Source] = r
			if r.Status == model.StatusSuccess {
				successful = append(successful, r.Source)
				merged = merged.Overlay(r.Data)
			} else {
				errs = append(errs, model.ApiError{Source: r.Source, Error: r.Error})
			}
		}
	}

	result := model.AggregateResult{
		IP:                  ip,
		ASN:                 asn,
		HasASN:              hasASN,
		Successful:          successful,
		Errors:              errs,
		Merged:              merged,
		Providers:           providerMap,
		TotalAPICount:       len(successful) + len(errs),
		LocalDatacenterHint: localDatacenterHint,
	}

	a.writeCache(ctx, ip, result)
	return result
}

// runWave fetches every descriptor in ds concurrently, bounded by the
// per-IP semaphore, and returns settled results in completion order.
func (a *Aggregator) runWave(ctx context.Context, ip string, asn int, ds []*providers.Descriptor) []model.ProviderResult {
	if len(ds) == 0 {
		return nil
	}

	sem := semaphore.NewWeighted(a.cap)
	var mu sync.Mutex
	var wg sync.WaitGroup
	var out []model.ProviderResult

	for _, d := range ds {
		d := d
		if err := sem.Acquire(ctx, 1); err != nil {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)

			req := providers.Request{IP: ip, ASN: asn}
			var pool *credpool.Pool
			if d.NeedsKey {
				pool = a.pools.PoolFor(d.Name, d.Keys(a.cfg))
			}
			result := a.fetcher.Execute(ctx, d, req, pool)

			mu.Lock()
			out = append(out, result)
			mu.Unlock()
		}()
	}
	wg.Wait()
	return out
}

// bestASN implements §4.5 step 4: prefer an explicit ASN argument, then
// the merged keys asn|ASN|as, then the local MMDB hint as a last resort.
// It also cross-checks the local ASN database's datacenter list regardless
// of which source ultimately supplied the ASN, since that hint feeds
// Derivation's hosting-flag computation independently of ASN provenance.
func bestASN(hint int, merged model.MergedRecord, geo *localgeo.Reader, ip string) (asn int, hasASN bool, localDatacenterHint bool) {
	var geoHint localgeo.Hint
	var geoOK bool
	if geo != nil {
		geoHint, geoOK = geo.Lookup(ip)
	}
	localDatacenterHint = geoOK && geoHint.IsDatacenter

	if hint != 0 {
		return hint, true, localDatacenterHint
	}
	for _, key := range []string{"asn", "ASN", "as"} {
		if v, ok := merged.Num(key); ok && v != 0 {
			return int(v), true, localDatacenterHint
		}
		if v, ok := merged.Str(key); ok {
			if n, err := strconv.Atoi(strings.TrimPrefix(strings.ToUpper(v), "AS")); err == nil && n != 0 {
				return n, true, localDatacenterHint
			}
		}
	}
	if geoOK && geoHint.ASN != 0 {
		return geoHint.ASN, true, localDatacenterHint
	}
	return 0, false, localDatacenterHint
}

// writeCache implements §4.5 step 7: positive TTL on any success,
// negative TTL if any error and no success, no write otherwise.
func (a *Aggregator) writeCache(ctx context.Context, ip string, result model.AggregateResult) {
	bundle := model.CacheBundle{
		Merged:     result.Merged,
		Successful: result.Successful,
		Errors:     result.Errors,
		ASN:        result.ASN,
		HasASN:     result.HasASN,
		CachedAt:   time.Now(),
	}

	switch {
	case len(result.Successful) > 0:
		a.cache.SetMerged(ctx, ip, bundle, a.cfg.CacheTTL)
	case len(result.Errors) > 0:
		bundle.IsNegativeCache = true
		a.cache.SetMerged(ctx, ip, bundle, cache.NegativeTTL)
	}
}

func fromCache(ip string, bundle model.CacheBundle) model.AggregateResult {
	total := len(bundle.Successful) + len(bundle.Errors)
	return model.AggregateResult{
		IP:                 ip,
		ASN:                bundle.ASN,
		HasASN:             bundle.HasASN,
		Successful:         bundle.Successful,
		Errors:             bundle.Errors,
		Merged:             bundle.Merged,
		Providers:          map[string]model.ProviderResult{},
		PartiallyFromCache: true,
		CachedAPICount:     total,
		TotalAPICount:      total,
	}
}
