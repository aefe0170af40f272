// Package analysiscache stores the derived daily analysis per user and
// business date. The analysis itself is produced by an external collaborator;
// this package only decides whether a cached result is still trustworthy.
package analysiscache

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/bowerhall/worklog/internal/errs"
)

// timeLayout matches the fixed-width encoding used by the log store.
const timeLayout = "2006-01-02T15:04:05.000Z"

const DefaultFreshnessWindow = time.Hour

type Cache struct {
	UserID         string
	BusinessDate   string
	AnalysisResult string // opaque serialized structure
	LogCount       int
	GeneratedAt    time.Time
}

type Manager struct {
	db        *sql.DB
	freshness time.Duration
}

func NewManager(db *sql.DB, freshness time.Duration) *Manager {
	if freshness <= 0 {
		freshness = DefaultFreshnessWindow
	}
	return &Manager{db: db, freshness: freshness}
}

// Get returns the cached analysis, or nil on a miss. A miss is not an
// error; it signals the caller to recompute and save back.
func (m *Manager) Get(ctx context.Context, userID, businessDate string) (*Cache, error) {
	var c Cache
	var generatedAt string
	err := m.db.QueryRowContext(ctx,
		`SELECT user_id, business_date, analysis_result, log_count, generated_at
		 FROM daily_analysis_cache
		 WHERE user_id = ? AND business_date = ?`,
		userID, businessDate,
	).Scan(&c.UserID, &c.BusinessDate, &c.AnalysisResult, &c.LogCount, &generatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Storage("get analysis cache", err)
	}

	c.GeneratedAt, _ = time.Parse(timeLayout, generatedAt)
	return &c, nil
}

// Save upserts the entry for (userID, businessDate), replacing any
// previous result for the key.
func (m *Manager) Save(ctx context.Context, userID, businessDate, result string, logCount int) error {
	_, err := m.db.ExecContext(ctx,
		`INSERT INTO daily_analysis_cache (user_id, business_date, analysis_result, log_count, generated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(user_id, business_date) DO UPDATE SET
		     analysis_result = excluded.analysis_result,
		     log_count = excluded.log_count,
		     generated_at = excluded.generated_at`,
		userID, businessDate, result, logCount, time.Now().UTC().Format(timeLayout),
	)
	if err != nil {
		return errs.Storage("save analysis cache", err)
	}
	return nil
}

// IsValid reports whether the cached entry may be served: it must exist,
// have been computed over exactly currentLogCount logs, and still be inside
// the freshness window. Both conditions are required.
func (m *Manager) IsValid(ctx context.Context, userID, businessDate string, currentLogCount int) (bool, error) {
	c, err := m.Get(ctx, userID, businessDate)
	if err != nil {
		return false, err
	}
	if c == nil {
		return false, nil
	}
	if c.LogCount != currentLogCount {
		return false, nil
	}
	return time.Since(c.GeneratedAt) <= m.freshness, nil
}

// Delete removes the entry for the key. Idempotent; reports whether a row
// was actually removed.
func (m *Manager) Delete(ctx context.Context, userID, businessDate string) (bool, error) {
	result, err := m.db.ExecContext(ctx,
		"DELETE FROM daily_analysis_cache WHERE user_id = ? AND business_date = ?",
		userID, businessDate,
	)
	if err != nil {
		return false, errs.Storage("delete analysis cache", err)
	}
	n, _ := result.RowsAffected()
	return n > 0, nil
}

// CleanupOld expires entries generated more than olderThanDays ago and
// returns how many were removed.
func (m *Manager) CleanupOld(ctx context.Context, olderThanDays int) (int, error) {
	if olderThanDays <= 0 {
		return 0, errs.Validationf("olderThanDays must be positive, got %d", olderThanDays)
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -olderThanDays).Format(timeLayout)
	result, err := m.db.ExecContext(ctx,
		"DELETE FROM daily_analysis_cache WHERE generated_at < ?", cutoff)
	if err != nil {
		return 0, errs.Storage("cleanup analysis cache", err)
	}

	n, _ := result.RowsAffected()
	return int(n), nil
}
