package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/XQwart/Precious-Metals-News-Analyzer/internal/analyzer"
	"github.com/XQwart/Precious-Metals-News-Analyzer/internal/config"
	"github.com/XQwart/Precious-Metals-News-Analyzer/internal/extractor"
	"github.com/XQwart/Precious-Metals-News-Analyzer/internal/filter"
	"github.com/XQwart/Precious-Metals-News-Analyzer/internal/logger"
	"github.com/XQwart/Precious-Metals-News-Analyzer/internal/metrics"
	"github.com/XQwart/Precious-Metals-News-Analyzer/internal/pipeline"
	"github.com/XQwart/Precious-Metals-News-Analyzer/internal/report"
	"github.com/XQwart/Precious-Metals-News-Analyzer/internal/rss"
)

func main() {
	logger.Init()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	if cfg.EnableMonitoring {
		go startMonitoringServer(cfg.MonitoringPort)
	}

	if err := run(cfg); err != nil {
		metrics.Global.SetError(err.Error())
		log.Fatalf("Run failed: %v", err)
	}
}

func run(cfg *config.Config) error {
	ctx := context.Background()

	sources, err := rss.LoadSources(cfg.SourcesConfigPath)
	if err != nil {
		return fmt.Errorf("load sources: %w", err)
	}

	ai, err := analyzer.New(cfg.OpenRouterAPIKey, cfg.OpenRouterBaseURL, cfg.Model)
	if err != nil {
		return fmt.Errorf("init analyzer: %w", err)
	}
	if !ai.IsAvailable(ctx) {
		logger.Warn("AI endpoint probe failed, run will rely on fallback heuristics")
	}

	orch := pipeline.New(pipeline.Deps{
		Filter:      filter.New(),
		Feeds:       rss.NewFetcher(cfg.RetryAttempts, cfg.RetryDelay),
		Extractor:   extractor.New(),
		Classifier:  ai,
		EntryDelay:  cfg.EntryDelay,
		SourcePause: cfg.SourcePause,
	})

	logger.Info("starting run", "sources", len(sources), "max_age_hours", cfg.MaxAgeHours)
	items := orch.Run(ctx, sources, cfg.MaxAgeHours)
	stats := orch.Stats()
	metrics.Global.RecordRun(stats.TotalProcessed, stats.PreFilteredOut, stats.AIAnalyzed, stats.RelevantFound)

	doc := report.Build(items, stats, "OpenRouter.ai", cfg.Model, time.Now())
	if err := report.Write(doc, cfg.OutputFile); err != nil {
		return err
	}

	fmt.Print(report.Summary(doc))
	logger.Info("run finished", "news", len(items), "output", cfg.OutputFile)
	return nil
}

func startMonitoringServer(port string) {
	http.HandleFunc("/health", healthHandler)
	http.HandleFunc("/metrics", metricsHandler)

	logger.Info("starting monitoring server", "port", port)
	if err := http.ListenAndServe(":"+port, nil); err != nil {
		logger.Error("monitoring server error", "error", err)
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	stats := metrics.Global.GetStats()

	status := "ok"
	if !stats["is_healthy"].(bool) {
		status = "error"
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	response := map[string]interface{}{
		"status":     status,
		"last_run":   stats["last_run_time"],
		"last_error": stats["last_error"],
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func metricsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(metrics.Global.GetStats())
}
