package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// tuningFile is the optional yaml overlay for heuristic constants.
// Absent fields keep their env/default values.
type tuningFile struct {
	Matcher struct {
		MaxElapsedHours *float64 `yaml:"max_elapsed_hours"`
		MaxDayGap       *int     `yaml:"max_day_gap"`
		ContentWeight   *float64 `yaml:"content_weight"`
		MinSimilarity   *float64 `yaml:"min_similarity"`
	} `yaml:"matcher"`
	Cache struct {
		FreshnessSeconds *int `yaml:"freshness_seconds"`
		RetentionDays    *int `yaml:"retention_days"`
	} `yaml:"cache"`
}

func (c *Config) applyTuningFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read tuning file: %w", err)
	}

	var tf tuningFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return fmt.Errorf("failed to parse tuning file %s: %w", path, err)
	}

	if tf.Matcher.MaxElapsedHours != nil {
		c.Matcher.MaxElapsedHours = *tf.Matcher.MaxElapsedHours
	}
	if tf.Matcher.MaxDayGap != nil {
		c.Matcher.MaxDayGap = *tf.Matcher.MaxDayGap
	}
	if tf.Matcher.ContentWeight != nil {
		c.Matcher.ContentWeight = *tf.Matcher.ContentWeight
		c.Matcher.TimeWeight = 1 - *tf.Matcher.ContentWeight
	}
	if tf.Matcher.MinSimilarity != nil {
		c.Matcher.MinSimilarity = *tf.Matcher.MinSimilarity
	}
	if tf.Cache.FreshnessSeconds != nil {
		c.Cache.FreshnessWindow = time.Duration(*tf.Cache.FreshnessSeconds) * time.Second
	}
	if tf.Cache.RetentionDays != nil {
		c.Cache.RetentionDays = *tf.Cache.RetentionDays
	}

	return nil
}
