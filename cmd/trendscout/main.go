// cmd/trendscout/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"trendscout/internal/cache"
	"trendscout/internal/common/config"
	"trendscout/internal/common/logger"
	"trendscout/internal/common/observability"
	"trendscout/internal/fetch"
	"trendscout/internal/models"
	"trendscout/internal/pipeline"
	"trendscout/internal/sources"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Logger config may be the broken part; fall back to a plain stderr print.
		os.Stderr.WriteString("configuration error: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format)
	log.Info("starting trendscout", map[string]interface{}{
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	})

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	go serveMetrics(cfg.App.MetricsAddr, log)

	store, err := buildStore(cfg)
	if err != nil {
		log.Error("cache backend unavailable", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	signalCache := cache.New(cfg.Cache.MemoryMaxEntries, store, log)

	adapters, err := sources.Build(cfg.Sources, log)
	if err != nil {
		log.Error("source configuration invalid", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	if len(adapters) == 0 {
		log.Error("no sources enabled", nil)
		os.Exit(1)
	}

	orchestrator := fetch.NewOrchestrator(cfg.Fetch, cfg.Cache.TTL(), signalCache, adapters, obs, log)
	pipe, err := pipeline.New(cfg, orchestrator, log)
	if err != nil {
		log.Error("pipeline configuration invalid", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	candidates := make([]models.Candidate, 0, len(cfg.Run.Candidates))
	for _, cc := range cfg.Run.Candidates {
		candidates = append(candidates, models.Candidate{Keyword: cc.Keyword, Category: cc.Category})
	}
	if len(candidates) == 0 {
		log.Error("no candidates configured", nil)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runBatch(ctx, cfg.Run.Deadline(), candidates, pipe, obs, log)

	ticker := time.NewTicker(cfg.Run.Interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("shutting down", nil)
			return
		case <-ticker.C:
			runBatch(ctx, cfg.Run.Deadline(), candidates, pipe, obs, log)
		}
	}
}

func runBatch(ctx context.Context, deadline time.Duration, candidates []models.Candidate, pipe *pipeline.Pipeline, obs *observability.Observability, log logger.Logger) {
	batchCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	started := time.Now()
	summary, err := pipe.Run(batchCtx, candidates)
	if err != nil {
		obs.RecordBatch(ctx, time.Since(started), "error")
		log.Error("batch aborted", map[string]interface{}{"error": err.Error()})
		return
	}
	obs.RecordBatch(ctx, summary.Duration, "success")

	for i, r := range summary.TopOpportunities {
		log.Info("top opportunity", map[string]interface{}{
			"rank":       i + 1,
			"keyword":    r.Keyword,
			"score":      r.Score.Opportunity,
			"tier":       r.Classification.Tier,
			"best_value": r.BestValueUSD,
		})
	}
}

func buildStore(cfg *config.Config) (cache.Store, error) {
	switch cfg.Cache.Backend {
	case "redis":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return cache.NewRedisStore(ctx, cfg.Cache.Redis)
	default:
		return cache.NewFileStore(cfg.Cache.Dir)
	}
}

func serveMetrics(addr string, log logger.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	log.Info("metrics server listening", map[string]interface{}{"addr": addr})
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Warn("metrics server stopped", map[string]interface{}{"error": err.Error()})
	}
}
