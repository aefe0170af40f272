// Package matcher pairs start_only activity logs with their end_only
// counterparts. Candidates inside the time window are scored on content
// similarity and time proximity, with content weighted heavier.
package matcher

import (
	"context"
	"database/sql"
	"time"

	"github.com/bowerhall/worklog/internal/config"
	"github.com/bowerhall/worklog/internal/errs"
	"github.com/bowerhall/worklog/internal/logger"
	"github.com/bowerhall/worklog/internal/logstore"
)

const timeLayout = "2006-01-02T15:04:05.000Z"

const queryAcceptMatch = `
UPDATE activity_logs
SET match_status = 'matched', matched_log_id = ?, similarity_score = ?, updated_at = ?
WHERE id = ? AND match_status = 'unmatched' AND is_deleted = 0`

// Embedder produces content vectors for semantic scoring.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type Matcher struct {
	db       *sql.DB
	logs     *logstore.Store
	cfg      config.MatcherConfig
	embedder Embedder
}

func New(db *sql.DB, logs *logstore.Store, cfg config.MatcherConfig) *Matcher {
	if cfg.MaxElapsedHours <= 0 {
		cfg.MaxElapsedHours = 12
	}
	if cfg.MaxDayGap <= 0 {
		cfg.MaxDayGap = 1
	}
	if cfg.ContentWeight <= 0 {
		cfg.ContentWeight = 0.7
	}
	if cfg.TimeWeight <= 0 {
		cfg.TimeWeight = 1 - cfg.ContentWeight
	}
	if cfg.MinSimilarity <= 0 {
		cfg.MinSimilarity = 0.35
	}
	return &Matcher{db: db, logs: logs, cfg: cfg}
}

// SetEmbedder switches content scoring from token overlap to vector
// similarity. Safe to leave unset.
func (m *Matcher) SetEmbedder(e Embedder) {
	m.embedder = e
}

type candidate struct {
	log        *logstore.Log
	similarity float64
	elapsed    time.Duration
	score      float64
}

// Match looks for the best counterpart of the given start_only or
// end_only log. It returns the freshly paired partner, or nil when
// nothing in the window clears the similarity floor. Both rows flip to
// matched in a single transaction.
func (m *Matcher) Match(ctx context.Context, id string) (*logstore.Log, error) {
	entry, err := m.logs.GetLogByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var want logstore.LogType
	switch entry.LogType {
	case logstore.TypeStartOnly:
		want = logstore.TypeEndOnly
	case logstore.TypeEndOnly:
		want = logstore.TypeStartOnly
	default:
		return nil, errs.Validationf("log %s has type %s, only start_only and end_only logs are matchable", id, entry.LogType)
	}
	if entry.MatchStatus != logstore.StatusUnmatched {
		return nil, errs.Validationf("log %s is already %s", id, entry.MatchStatus)
	}

	candidates, err := m.candidates(ctx, entry, want)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	m.scoreContent(ctx, entry, candidates)

	best := pickBest(candidates, m.cfg.MinSimilarity)
	if best == nil {
		return nil, nil
	}

	ok, err := m.accept(ctx, entry, best)
	if err != nil || !ok {
		return nil, err
	}
	return m.logs.GetLogByID(ctx, best.log.ID)
}

// Ignore marks a start_only or end_only log as never-to-be-paired.
// Ignored is terminal, the log store rejects any later flip.
func (m *Matcher) Ignore(ctx context.Context, id string) (*logstore.Log, error) {
	status := logstore.StatusIgnored
	return m.logs.UpdateLogMatching(ctx, id, logstore.MatchingUpdate{MatchStatus: &status})
}

func (m *Matcher) candidates(ctx context.Context, entry *logstore.Log, want logstore.LogType) ([]*candidate, error) {
	logs, err := m.logs.GetUnmatchedLogs(ctx, entry.UserID, want, "")
	if err != nil {
		return nil, err
	}

	maxElapsed := time.Duration(m.cfg.MaxElapsedHours * float64(time.Hour))
	var out []*candidate
	for _, other := range logs {
		start, end := entry, other
		if entry.LogType == logstore.TypeEndOnly {
			start, end = other, entry
		}
		elapsed := end.InputTimestamp.Sub(start.InputTimestamp)
		if elapsed < 0 || elapsed > maxElapsed {
			continue
		}
		if dayGap(start.BusinessDate, end.BusinessDate) > m.cfg.MaxDayGap {
			continue
		}
		out = append(out, &candidate{log: other, elapsed: elapsed})
	}
	return out, nil
}

func (m *Matcher) scoreContent(ctx context.Context, entry *logstore.Log, cands []*candidate) {
	var sims map[string]float64
	if m.embedder != nil {
		var err error
		sims, err = m.vectorSimilarities(ctx, entry, cands)
		if err != nil {
			logger.Warn("vector scoring unavailable, using token overlap", "log_id", entry.ID, "error", err)
			sims = nil
		}
	}

	maxElapsed := time.Duration(m.cfg.MaxElapsedHours * float64(time.Hour))
	for _, c := range cands {
		switch {
		case sameActivityKey(entry, c.log):
			c.similarity = 1
		case sims != nil:
			c.similarity = sims[c.log.ID]
		default:
			c.similarity = tokenSimilarity(entry.Content, c.log.Content)
		}
		proximity := 1 - float64(c.elapsed)/float64(maxElapsed)
		c.score = m.cfg.ContentWeight*c.similarity + m.cfg.TimeWeight*proximity
	}
}

func pickBest(cands []*candidate, minSimilarity float64) *candidate {
	var best *candidate
	for _, c := range cands {
		if c.similarity < minSimilarity {
			continue
		}
		if best == nil || c.score > best.score || (c.score == best.score && c.elapsed < best.elapsed) {
			best = c
		}
	}
	return best
}

func (m *Matcher) accept(ctx context.Context, entry *logstore.Log, best *candidate) (bool, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return false, errs.Storage("accept match", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(timeLayout)
	links := [][2]string{{entry.ID, best.log.ID}, {best.log.ID, entry.ID}}
	for _, link := range links {
		res, err := tx.ExecContext(ctx, queryAcceptMatch, link[1], best.similarity, now, link[0])
		if err != nil {
			return false, errs.Storage("accept match", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return false, errs.Storage("accept match", err)
		}
		if n == 0 {
			// one side changed under us, leave both untouched
			return false, nil
		}
	}

	if err := tx.Commit(); err != nil {
		return false, errs.Storage("accept match", err)
	}
	return true, nil
}

func sameActivityKey(a, b *logstore.Log) bool {
	return a.ActivityKey != nil && b.ActivityKey != nil &&
		*a.ActivityKey != "" && *a.ActivityKey == *b.ActivityKey
}

func dayGap(a, b string) int {
	ta, errA := time.Parse("2006-01-02", a)
	tb, errB := time.Parse("2006-01-02", b)
	if errA != nil || errB != nil {
		return 0
	}
	gap := int(tb.Sub(ta).Hours() / 24)
	if gap < 0 {
		gap = -gap
	}
	return gap
}
