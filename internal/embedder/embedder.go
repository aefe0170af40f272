package embedder

import (
	"fmt"

	"github.com/bowerhall/worklog/internal/matcher"
)

// New returns the configured embedder, or nil when no provider is set.
// A nil embedder keeps the matcher on token-overlap scoring.
func New(cfg Config) (matcher.Embedder, error) {
	switch cfg.Provider {
	case "ollama":
		return newOllama(cfg.BaseURL, cfg.Model), nil
	case "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown embedder provider: %s", cfg.Provider)
	}
}
