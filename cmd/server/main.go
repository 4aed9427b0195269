// Command server wires every component together: config, logging,
// credential pools, local ASN hints, cache, the aggregator, the LLM
// summarizer, and the HTTP router, then serves with graceful shutdown.
// Modeled on the predecessor's main.go wiring sequence, expanded to the
// full component set this repository now carries.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ipshield/reputation-engine/internal/aggregator"
	"github.com/ipshield/reputation-engine/internal/cache"
	"github.com/ipshield/reputation-engine/internal/clock"
	"github.com/ipshield/reputation-engine/internal/config"
	"github.com/ipshield/reputation-engine/internal/credpool"
	"github.com/ipshield/reputation-engine/internal/fetcher"
	"github.com/ipshield/reputation-engine/internal/httpapi"
	"github.com/ipshield/reputation-engine/internal/llm"
	"github.com/ipshield/reputation-engine/internal/localgeo"
	"github.com/ipshield/reputation-engine/internal/resolver"
)

func main() {
	log := newLogger()
	config.LoadEnvFiles(log)
	cfg := config.Load()

	geo, err := localgeo.Open(cfg.MMDBPath, log)
	if err != nil {
		log.WithError(err).Warn("failed to open local ASN database, continuing without it")
	}
	if geo != nil {
		defer geo.Close()
	}

	store := buildCacheStore(cfg, log)
	c := cache.New(store)
	defer c.Close()

	pools := credpool.NewRegistry(clock.Real{})
	f := fetcher.New(cfg.APITimeout)
	agg := aggregator.New(cfg, f, c, pools, geo)
	summarizer := llm.New(cfg)
	res := resolver.New()

	server := httpapi.New(cfg, log, agg, summarizer, c, res, pools)
	router := server.Router()

	httpServer := &http.Server{
		Addr:    cfg.Host + ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.WithField("addr", httpServer.Addr).Info("starting server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}

func newLogger() *logrus.Logger {
	log := logrus.New()
	// An unset ENVIRONMENT means production, as in config.Load.
	if env := os.Getenv("ENVIRONMENT"); env == "" || env == string(config.EnvProduction) {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log
}

// buildCacheStore picks the cache backend by configured precedence: Redis
// if REDIS_URL is set, else MySQL if MYSQL_DSN is set, else SQLite if
// SQLITE_CACHE_PATH is set, else the in-memory default.
func buildCacheStore(cfg *config.Config, log *logrus.Logger) cache.Store {
	if cfg.RedisURL != "" {
		store, err := cache.NewRedisStoreFromURL(cfg.RedisURL)
		if err == nil {
			log.Info("using redis cache backend")
			return store
		}
		log.WithError(err).Warn("failed to connect to redis, falling back")
	}
	if cfg.MySQLDSN != "" {
		store, err := cache.NewMySQLStore(cfg.MySQLDSN)
		if err == nil {
			log.Info("using mysql cache backend")
			return store
		}
		log.WithError(err).Warn("failed to connect to mysql, falling back")
	}
	if cfg.PersistentCachePath != "" {
		store, err := cache.NewSQLiteStore(cfg.PersistentCachePath)
		if err == nil {
			log.Info("using sqlite cache backend")
			return store
		}
		log.WithError(err).Warn("failed to open sqlite cache, falling back to memory")
	}
	log.Info("using in-memory cache backend")
	return cache.NewMemoryStore(clock.Real{})
}
