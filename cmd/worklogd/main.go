package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/bowerhall/worklog/internal/analysiscache"
	"github.com/bowerhall/worklog/internal/config"
	"github.com/bowerhall/worklog/internal/embedder"
	"github.com/bowerhall/worklog/internal/logger"
	"github.com/bowerhall/worklog/internal/logstore"
	"github.com/bowerhall/worklog/internal/matcher"
	"github.com/bowerhall/worklog/internal/storage"
)

func init() {
	godotenv.Load()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", "error", err)
	}

	st, err := storage.Open(cfg.DBPath)
	if err != nil {
		logger.Fatal("failed to open storage", "error", err)
	}
	defer st.Close()

	cache := analysiscache.NewManager(st.DB(), cfg.Cache.FreshnessWindow)
	batcher := analysiscache.NewBatcher(cache, cfg.Cache.Debounce)
	logs := logstore.NewStore(st.DB(), cfg.Timezone, batcher)
	pairer := matcher.New(st.DB(), logs, cfg.Matcher)

	emb, err := embedder.New(embedder.Config{
		Provider: cfg.Embedder.Provider,
		BaseURL:  cfg.Embedder.BaseURL,
		Model:    cfg.Embedder.Model,
	})
	if err != nil {
		logger.Fatal("failed to create embedder", "error", err)
	}
	if emb != nil {
		pairer.SetEmbedder(emb)
		logger.Debug("embedder configured", "provider", cfg.Embedder.Provider)
	}

	sweeper := cron.New()
	_, err = sweeper.AddFunc(cfg.Cache.CleanupSchedule, func() {
		removed, err := cache.CleanupOld(context.Background(), cfg.Cache.RetentionDays)
		if err != nil {
			logger.Error("cache cleanup failed", "error", err)
		} else if removed > 0 {
			logger.Info("cache cleanup completed", "removed", removed)
		}
	})
	if err != nil {
		logger.Fatal("invalid cleanup schedule", "schedule", cfg.Cache.CleanupSchedule, "error", err)
	}
	sweeper.Start()

	embedderProvider := cfg.Embedder.Provider
	if embedderProvider == "" {
		embedderProvider = "none"
	}

	logger.Info("worklogd started",
		"db", cfg.DBPath,
		"timezone", cfg.Timezone,
		"embedder", embedderProvider,
		"cache_freshness", cfg.Cache.FreshnessWindow,
		"cleanup_schedule", cfg.Cache.CleanupSchedule,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down")
	sweeper.Stop()
	batcher.Close()
}
