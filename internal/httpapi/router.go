// Package httpapi wires the gin router for the full §6.1 HTTP surface:
// config, single-IP check, AI analysis, domain resolution, exit-checking
// (single/detail/batch-stream), IP-checking (detail/batch-stream), and
// health. Modeled on the predecessor's server.go handler set, re-routed
// onto gin and expanded to the distilled spec's complete endpoint list.
package httpapi

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ipshield/reputation-engine/internal/aggregator"
	"github.com/ipshield/reputation-engine/internal/cache"
	"github.com/ipshield/reputation-engine/internal/config"
	"github.com/ipshield/reputation-engine/internal/credpool"
	"github.com/ipshield/reputation-engine/internal/llm"
	"github.com/ipshield/reputation-engine/internal/resolver"
)

// Server holds every collaborator the HTTP surface needs.
type Server struct {
	cfg        *config.Config
	log        *logrus.Logger
	aggregator *aggregator.Aggregator
	llm        *llm.Summarizer
	cacheStore *cache.Cache
	resolver   resolver.Resolver
	pools      *credpool.Registry
	startedAt  time.Time
}

// New builds a Server.
func New(cfg *config.Config, log *logrus.Logger, agg *aggregator.Aggregator, summarizer *llm.Summarizer, cacheStore *cache.Cache, res resolver.Resolver, pools *credpool.Registry) *Server {
	return &Server{
		cfg:        cfg,
		log:        log,
		aggregator: agg,
		llm:        summarizer,
		cacheStore: cacheStore,
		resolver:   res,
		pools:      pools,
		startedAt:  time.Now(),
	}
}

// Router builds the gin engine with every route from spec §6.1 mounted.
func (s *Server) Router() *gin.Engine {
	if s.cfg.Environment == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), RequestLogger(s.log), CORS(s.cfg.AllowedOrigins))

	api := r.Group("/api")
	api.GET("/check", s.handleCheck)
	api.POST("/ai-analysis", s.handleAIAnalysis)
	api.GET("/resolve", s.handleResolve)
	api.POST("/check-exits", s.handleCheckExits)
	api.POST("/check-exits/prepare", s.handlePrepareExits)
	api.POST("/check-exits/detail", s.handleCheckExitDetail)
	api.POST("/check-exits/batch-stream", s.handleCheckExitsBatchStream)
	api.POST("/check-ip/detail", s.handleCheckIPDetail)
	api.POST("/check-ip/batch-stream", s.handleCheckIPBatchStream)

	api.GET("/health/live", s.handleHealthLive)
	api.GET("/health/ready", s.handleHealthReady)

	// /config and the detailed /health surface leak internal deployment
	// and dependency state, so per §7 they sit behind X-Debug-Key. An
	// unset DebugKey disables the check (development default).
	privileged := api.Group("/")
	privileged.Use(DebugKeyAuth(s.cfg.DebugKey))
	privileged.GET("/config", s.handleConfig)
	privileged.GET("/health", s.handleHealth)

	return r
}
