package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

func Load() (*Config, error) {
	dbPath := os.Getenv("WORKLOG_DB")
	if dbPath == "" {
		dbPath = "worklog.db"
	}

	timezone := os.Getenv("TZ")
	if timezone == "" {
		timezone = "UTC"
	}

	if _, err := time.LoadLocation(timezone); err != nil {
		return nil, fmt.Errorf("invalid TZ %q: %w", timezone, err)
	}

	cfg := &Config{
		DBPath:   dbPath,
		Timezone: timezone,
		Embedder: loadEmbedderConfig(),
		Cache:    loadCacheConfig(),
		Matcher:  loadMatcherConfig(),
	}

	if tuningPath := os.Getenv("WORKLOG_TUNING"); tuningPath != "" {
		if err := cfg.applyTuningFile(tuningPath); err != nil {
			return nil, err
		}
	}

	if err := cfg.Matcher.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadEmbedderConfig() EmbedderConfig {
	return EmbedderConfig{
		Provider: os.Getenv("EMBEDDER_PROVIDER"),
		BaseURL:  os.Getenv("EMBEDDER_URL"),
		Model:    os.Getenv("EMBEDDER_MODEL"),
	}
}

func loadCacheConfig() CacheConfig {
	freshness := time.Hour
	if secs, err := strconv.Atoi(os.Getenv("CACHE_FRESHNESS_SECONDS")); err == nil && secs > 0 {
		freshness = time.Duration(secs) * time.Second
	}

	debounce := 50 * time.Millisecond
	if ms, err := strconv.Atoi(os.Getenv("CACHE_DEBOUNCE_MS")); err == nil && ms > 0 {
		debounce = time.Duration(ms) * time.Millisecond
	}

	retention := 30
	if days, err := strconv.Atoi(os.Getenv("CACHE_RETENTION_DAYS")); err == nil && days > 0 {
		retention = days
	}

	schedule := os.Getenv("CACHE_CLEANUP_CRON")
	if schedule == "" {
		schedule = "30 4 * * *"
	}

	return CacheConfig{
		FreshnessWindow: freshness,
		Debounce:        debounce,
		RetentionDays:   retention,
		CleanupSchedule: schedule,
	}
}

func loadMatcherConfig() MatcherConfig {
	cfg := MatcherConfig{
		MaxElapsedHours: 12,
		MaxDayGap:       1,
		ContentWeight:   0.7,
		TimeWeight:      0.3,
		MinSimilarity:   0.35,
	}

	if hours, err := strconv.ParseFloat(os.Getenv("MATCHER_MAX_ELAPSED_HOURS"), 64); err == nil && hours > 0 {
		cfg.MaxElapsedHours = hours
	}

	if gap, err := strconv.Atoi(os.Getenv("MATCHER_MAX_DAY_GAP")); err == nil && gap >= 0 {
		cfg.MaxDayGap = gap
	}

	if w, err := strconv.ParseFloat(os.Getenv("MATCHER_CONTENT_WEIGHT"), 64); err == nil && w > 0 && w < 1 {
		cfg.ContentWeight = w
		cfg.TimeWeight = 1 - w
	}

	if min, err := strconv.ParseFloat(os.Getenv("MATCHER_MIN_SIMILARITY"), 64); err == nil && min > 0 && min < 1 {
		cfg.MinSimilarity = min
	}

	return cfg
}

func (m MatcherConfig) validate() error {
	if m.ContentWeight <= 0 || m.TimeWeight <= 0 {
		return fmt.Errorf("matcher weights must be positive, got content=%v time=%v", m.ContentWeight, m.TimeWeight)
	}
	if m.ContentWeight < m.TimeWeight {
		return fmt.Errorf("content weight must dominate time weight, got content=%v time=%v", m.ContentWeight, m.TimeWeight)
	}
	if m.MinSimilarity <= 0 || m.MinSimilarity >= 1 {
		return fmt.Errorf("min similarity must be in (0, 1), got %v", m.MinSimilarity)
	}
	return nil
}
