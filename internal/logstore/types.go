// Package logstore owns the activity_logs table: free-text entries stamped
// with a business date, soft-delete lifecycle, and the matching columns the
// open/close pairing works against.
package logstore

import (
	"database/sql"
	"time"
)

type LogType string

const (
	TypeComplete  LogType = "complete"
	TypeStartOnly LogType = "start_only"
	TypeEndOnly   LogType = "end_only"
)

func (t LogType) valid() bool {
	switch t {
	case TypeComplete, TypeStartOnly, TypeEndOnly:
		return true
	}
	return false
}

type MatchStatus string

const (
	StatusUnmatched MatchStatus = "unmatched"
	StatusMatched   MatchStatus = "matched"
	StatusIgnored   MatchStatus = "ignored"
)

type Log struct {
	ID              string
	UserID          string
	Content         string
	InputTimestamp  time.Time
	BusinessDate    string // YYYY-MM-DD
	IsDeleted       bool
	LogType         LogType
	MatchStatus     MatchStatus
	MatchedLogID    *string
	ActivityKey     *string
	SimilarityScore *float64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type SaveLogRequest struct {
	UserID         string
	Content        string
	InputTimestamp time.Time // zero value means now
	Timezone       string    // defaults to the store's zone
	BusinessDate   string    // derived from InputTimestamp when empty
	LogType        LogType   // defaults to complete
	ActivityKey    string    // derived from content for start/end logs when empty
}

// MatchingUpdate is a partial update of the matching columns. Nil fields
// keep their current value.
type MatchingUpdate struct {
	MatchStatus     *MatchStatus
	MatchedLogID    *string
	SimilarityScore *float64
}

// Pair is one matched open/close interval.
type Pair struct {
	Start *Log
	End   *Log
}

// InvalidationScheduler receives the cache-invalidation signal after every
// write. Implemented by the analysis cache batcher.
type InvalidationScheduler interface {
	ScheduleInvalidation(userID, businessDate string)
}

type Store struct {
	db          *sql.DB
	timezone    string
	invalidator InvalidationScheduler
}

// NewStore wires the log store to a migrated database handle. invalidator
// may be nil when no cache sits on top (tests, one-shot tools).
func NewStore(db *sql.DB, timezone string, invalidator InvalidationScheduler) *Store {
	if timezone == "" {
		timezone = "UTC"
	}
	return &Store{db: db, timezone: timezone, invalidator: invalidator}
}
