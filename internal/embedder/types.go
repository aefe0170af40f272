// Package embedder builds the optional content-embedding client used
// for semantic match scoring.
package embedder

type Config struct {
	Provider string
	BaseURL  string
	Model    string
}
