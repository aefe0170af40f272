package config

import "time"

type Config struct {
	DBPath   string
	Timezone string
	Embedder EmbedderConfig
	Cache    CacheConfig
	Matcher  MatcherConfig
}

type EmbedderConfig struct {
	Provider string
	BaseURL  string
	Model    string
}

type CacheConfig struct {
	// FreshnessWindow bounds how old a cached analysis may be and still
	// count as valid.
	FreshnessWindow time.Duration

	// Debounce is how long the invalidation batcher waits after the last
	// write before purging pending keys.
	Debounce time.Duration

	// RetentionDays is the age past which CleanupOld expires entries.
	RetentionDays int

	// CleanupSchedule is a 5-field cron expression for the nightly sweep.
	CleanupSchedule string
}

type MatcherConfig struct {
	// MaxElapsedHours is the widest start-to-end gap the matcher considers.
	MaxElapsedHours float64

	// MaxDayGap allows pairing across a business-date boundary for
	// activities that run past midnight.
	MaxDayGap int

	ContentWeight float64
	TimeWeight    float64
	MinSimilarity float64
}
