package httpapi

import (
	"context"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ipshield/reputation-engine/internal/cfdata"
	"github.com/ipshield/reputation-engine/internal/derive"
	"github.com/ipshield/reputation-engine/internal/exits"
	"github.com/ipshield/reputation-engine/internal/model"
	"github.com/ipshield/reputation-engine/internal/stream"
)

// handleConfig implements GET /api/config.
func (s *Server) handleConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"hosts": gin.H{
			"IPV4_HOST": nullableEnv("IPV4_HOST"),
			"IPV6_HOST": nullableEnv("IPV6_HOST"),
			"CFV4_HOST": nullableEnv("CFV4_HOST"),
			"CFV6_HOST": nullableEnv("CFV6_HOST"),
			"HE_HOST":   nullableEnv("HE_HOST"),
		},
		"timeouts": gin.H{
			"frontend":     s.cfg.FrontendTimeoutMS,
			"connectivity": s.cfg.ConnectivityTimeout,
		},
	})
}

// nullableEnv looks up an edge-host override; absent by default since
// these are deployment-specific and not part of this service's own config.
func nullableEnv(key string) any {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return nil
}

// handleCheck implements GET /api/check, preserving the domain/IP
// polymorphism resolved in SPEC_FULL (§9 OQ1): an IP returns a
// DerivedRecord, a domain returns the resolution shape, and an omitted
// ip parameter falls back to the caller's own address.
func (s *Server) handleCheck(c *gin.Context) {
	target := c.Query("ip")
	if target == "" {
		target = c.ClientIP()
	}

	if net.ParseIP(target) == nil {
		resolved, err := s.resolver.Resolve(c.Request.Context(), target)
		if err != nil {
			apiError(c, http.StatusBadRequest, "BAD_REQUEST", "unable to resolve domain: "+err.Error())
			return
		}
		out := make([]gin.H, 0, len(resolved))
		for _, r := range resolved {
			out = append(out, gin.H{"ip": r.IP, "type": string(r.Type)})
		}
		c.JSON(http.StatusOK, gin.H{"domain": target, "resolvedIps": out})
		return
	}

	record := s.deriveFor(c, target, nil)
	c.JSON(http.StatusOK, record)
}

// deriveFor runs Aggregate+Derive for one IP.
func (s *Server) deriveFor(c *gin.Context, ip string, edge *model.EdgeMetrics) model.DerivedRecord {
	agg := s.aggregator.Aggregate(c.Request.Context(), ip, 0)
	return derive.Derive(agg, edge, agg.PartiallyFromCache)
}

type aiAnalysisRequest struct {
	IP   string             `json:"ip" binding:"required"`
	Data model.DerivedRecord `json:"data" binding:"required"`
}

// handleAIAnalysis implements POST /api/ai-analysis.
func (s *Server) handleAIAnalysis(c *gin.Context) {
	var req aiAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apiError(c, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	if !s.llm.Configured() {
		apiError(c, http.StatusServiceUnavailable, "LLM_UNAVAILABLE", "AI analysis is not configured")
		return
	}

	if cached, ok := s.cacheStore.GetAIAnalysis(c.Request.Context(), req.IP); ok {
		c.JSON(http.StatusOK, gin.H{"reasoning": cached})
		return
	}

	result := s.llm.Summarize(c.Request.Context(), req.IP, req.Data)
	if result.Cacheable() {
		s.cacheStore.SetAIAnalysis(c.Request.Context(), req.IP, result.Reasoning, s.cfg.CacheTTL)
	}
	c.JSON(http.StatusOK, result)
}

// handleResolve implements GET /api/resolve.
func (s *Server) handleResolve(c *gin.Context) {
	domain := c.Query("domain")
	if domain == "" {
		apiError(c, http.StatusBadRequest, "BAD_REQUEST", "missing domain parameter")
		return
	}
	resolved, err := s.resolver.Resolve(c.Request.Context(), domain)
	if err != nil || len(resolved) == 0 {
		apiError(c, http.StatusBadRequest, "BAD_REQUEST", "unable to resolve domain")
		return
	}
	out := make([]gin.H, 0, len(resolved))
	for _, r := range resolved {
		out = append(out, gin.H{"ip": r.IP, "type": string(r.Type)})
	}
	c.JSON(http.StatusOK, gin.H{"domain": domain, "resolvedIps": out})
}

type exitRequest struct {
	ExitType string         `json:"exitType" binding:"required"`
	CFData   cfdata.Snapshot `json:"cfData"`
}

type checkExitsRequest struct {
	Exits []exitRequest `json:"exits" binding:"required"`
}

func exitInputs(reqs []exitRequest) []exits.Input {
	out := make([]exits.Input, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, exits.Input{ExitType: r.ExitType, IP: exitIdentity(r), ASN: r.CFData.ASN, CFData: r.CFData})
	}
	return out
}

// exitIdentity derives a stable per-exit identity string from its edge
// snapshot when no literal IP is supplied; exits are keyed by edge data,
// not a resolved address, until the aggregator runs.
func exitIdentity(r exitRequest) string {
	return r.ExitType + ":" + r.CFData.Colo + ":" + r.CFData.Country
}

// handleCheckExits implements POST /api/check-exits.
func (s *Server) handleCheckExits(c *gin.Context) {
	var req checkExitsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apiError(c, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	prepared := exits.Prepare(exitInputs(req.Exits))
	results := make([]gin.H, 0, len(prepared.IPList))
	for _, row := range prepared.IPList {
		snapshot, _ := row.CFData.(cfdata.Snapshot)
		record := s.deriveFor(c, row.IP, snapshot.ToEdgeMetrics())
		results = append(results, gin.H{"exitType": row.ExitType, "result": record})
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// handlePrepareExits implements POST /api/check-exits/prepare — pure, no I/O.
func (s *Server) handlePrepareExits(c *gin.Context) {
	var req checkExitsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apiError(c, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	prepared := exits.Prepare(exitInputs(req.Exits))
	list := make([]gin.H, 0, len(prepared.IPList))
	for _, row := range prepared.IPList {
		list = append(list, gin.H{"ip": row.IP, "exitType": row.ExitType, "asn": row.ASN, "cfData": row.CFData, "order": row.Order})
	}
	c.JSON(http.StatusOK, gin.H{"ipList": list, "uniqueIpCount": prepared.UniqueIPCount})
}

// handleCheckExitDetail implements POST /api/check-exits/detail.
func (s *Server) handleCheckExitDetail(c *gin.Context) {
	var req exitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apiError(c, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	record := s.deriveFor(c, exitIdentity(req), req.CFData.ToEdgeMetrics())
	c.JSON(http.StatusOK, gin.H{"result": record})
}

// handleCheckExitsBatchStream implements POST /api/check-exits/batch-stream.
func (s *Server) handleCheckExitsBatchStream(c *gin.Context) {
	var req checkExitsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apiError(c, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	prepared := exits.Prepare(exitInputs(req.Exits))
	items := make([]stream.Item, 0, len(prepared.IPList))
	edgeByIP := map[string]*model.EdgeMetrics{}
	for i, row := range prepared.IPList {
		items = append(items, stream.Item{IP: row.IP, Index: i})
		if snapshot, ok := row.CFData.(cfdata.Snapshot); ok {
			edgeByIP[row.IP] = snapshot.ToEdgeMetrics()
		}
	}

	events := stream.Run(c.Request.Context(), items, func(ctx context.Context, ip string) (model.DerivedRecord, error) {
		agg := s.aggregator.Aggregate(ctx, ip, 0)
		return derive.Derive(agg, edgeByIP[ip], agg.PartiallyFromCache), nil
	})
	writeSSE(c, events)
}

type checkIPInput struct {
	IP   string `json:"ip" binding:"required"`
	Type string `json:"type,omitempty"`
}

type checkIPBatchRequest struct {
	IPs []checkIPInput `json:"ips" binding:"required"`
}

// handleCheckIPDetail implements POST /api/check-ip/detail.
func (s *Server) handleCheckIPDetail(c *gin.Context) {
	var req struct {
		IP string `json:"ip" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apiError(c, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	if net.ParseIP(req.IP) == nil {
		apiError(c, http.StatusBadRequest, "BAD_REQUEST", "invalid ip")
		return
	}
	record := s.deriveFor(c, req.IP, nil)
	c.JSON(http.StatusOK, gin.H{"result": record})
}

// handleCheckIPBatchStream implements POST /api/check-ip/batch-stream.
func (s *Server) handleCheckIPBatchStream(c *gin.Context) {
	var req checkIPBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apiError(c, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	items := make([]stream.Item, 0, len(req.IPs))
	for i, in := range req.IPs {
		items = append(items, stream.Item{IP: in.IP, Index: i})
	}
	events := stream.Run(c.Request.Context(), items, func(ctx context.Context, ip string) (model.DerivedRecord, error) {
		agg := s.aggregator.Aggregate(ctx, ip, 0)
		return derive.Derive(agg, nil, agg.PartiallyFromCache), nil
	})
	writeSSE(c, events)
}

// handleHealth implements GET /api/health: per-dependency status plus an
// aggregate, per §6.1.
func (s *Server) handleHealth(c *gin.Context) {
	deps := gin.H{}

	if err := s.cacheStore.Ping(c.Request.Context()); err != nil {
		deps["cache"] = "error"
	} else {
		deps["cache"] = "ok"
	}

	if s.llm.Configured() {
		deps["llm"] = "ok"
	} else {
		deps["llm"] = "unavailable"
	}

	providerCount := 0
	erroredProviders := 0
	for name, stats := range s.pools.Snapshot() {
		providerCount++
		healthy := 0
		for _, st := range stats {
			if st.IsHealthy {
				healthy++
			}
		}
		if healthy == 0 && len(stats) > 0 {
			deps[name] = "error"
			erroredProviders++
		} else {
			deps[name] = "ok"
		}
	}

	// unhealthy: the cache backend is unreachable, or every registered
	// credential pool is exhausted — the service can no longer produce a
	// result at all. degraded: some, but not every, dependency is down.
	aggregate := "healthy"
	switch {
	case deps["cache"] == "error" || (providerCount > 0 && erroredProviders == providerCount):
		aggregate = "unhealthy"
	default:
		for _, v := range deps {
			if v == "error" {
				aggregate = "degraded"
				break
			}
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": aggregate, "dependencies": deps, "uptimeSeconds": s.uptimeSeconds()})
}

func (s *Server) uptimeSeconds() float64 {
	return time.Since(s.startedAt).Seconds()
}

// handleHealthLive implements GET /api/health/live.
func (s *Server) handleHealthLive(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

// handleHealthReady implements GET /api/health/ready.
func (s *Server) handleHealthReady(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
