package logstore

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bowerhall/worklog/internal/businessdate"
	"github.com/bowerhall/worklog/internal/errs"
)

// SaveLog validates and persists a new entry. The business date is derived
// from the input timestamp and the user's timezone unless the request
// already carries one. Schedules a debounced cache invalidation on success.
func (s *Store) SaveLog(ctx context.Context, req SaveLogRequest) (*Log, error) {
	if strings.TrimSpace(req.UserID) == "" {
		return nil, errs.Validationf("userId is required")
	}
	if strings.TrimSpace(req.Content) == "" {
		return nil, errs.Validationf("content is required")
	}

	logType := req.LogType
	if logType == "" {
		logType = TypeComplete
	}
	if !logType.valid() {
		return nil, errs.Validationf("unknown log type %q", req.LogType)
	}

	ts := req.InputTimestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	ts = ts.UTC()

	date := req.BusinessDate
	if date == "" {
		tz := req.Timezone
		if tz == "" {
			tz = s.timezone
		}
		res, err := businessdate.Calculate(ts, tz)
		if err != nil {
			return nil, errs.Validationf("cannot derive business date: %v", err)
		}
		date = res.Date
	} else if !businessdate.ValidDate(date) {
		return nil, errs.Validationf("malformed business date %q", date)
	}

	var activityKey *string
	if logType != TypeComplete {
		key := req.ActivityKey
		if key == "" {
			key = DeriveActivityKey(req.Content)
		}
		if key != "" {
			activityKey = &key
		}
	}

	now := time.Now().UTC()
	log := &Log{
		ID:             uuid.NewString(),
		UserID:         req.UserID,
		Content:        req.Content,
		InputTimestamp: ts,
		BusinessDate:   date,
		LogType:        logType,
		MatchStatus:    StatusUnmatched,
		ActivityKey:    activityKey,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	_, err := s.db.ExecContext(ctx, queryInsertLog,
		log.ID, log.UserID, log.Content,
		encodeTime(log.InputTimestamp), log.BusinessDate, boolToInt(log.IsDeleted),
		string(log.LogType), string(log.MatchStatus), log.MatchedLogID,
		log.ActivityKey, log.SimilarityScore,
		encodeTime(log.CreatedAt), encodeTime(log.UpdatedAt),
	)
	if err != nil {
		return nil, errs.Storage("insert log", err)
	}

	s.scheduleInvalidation(log.UserID, log.BusinessDate)
	return log, nil
}

// GetLogByID returns the live entry or a not-found error; soft-deleted
// rows stay hidden.
func (s *Store) GetLogByID(ctx context.Context, id string) (*Log, error) {
	row := s.db.QueryRowContext(ctx, queryGetLogByID, id)
	log, err := scanLog(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.NotFoundf("log %s", id)
	}
	if err != nil {
		return nil, errs.Storage("get log", err)
	}
	return log, nil
}

func (s *Store) GetLogsByDate(ctx context.Context, userID, businessDate string, includeDeleted bool) ([]*Log, error) {
	query := queryGetLogsByDate
	if includeDeleted {
		query = queryGetLogsByDateAll
	}
	return s.queryLogs(ctx, query, userID, businessDate)
}

func (s *Store) GetLogsByDateRange(ctx context.Context, userID, start, end string, includeDeleted bool) ([]*Log, error) {
	if !businessdate.ValidRange(start, end) {
		return nil, errs.Validationf("invalid date range %q..%q", start, end)
	}

	query := queryGetLogsByRange
	if includeDeleted {
		query = queryGetLogsByRangeAll
	}
	return s.queryLogs(ctx, query, userID, start, end)
}

func (s *Store) GetLatestLogs(ctx context.Context, userID string, limit int) ([]*Log, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.queryLogs(ctx, queryGetLatestLogs, userID, limit)
}

func (s *Store) GetLogCount(ctx context.Context, userID string) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, queryCountLogs, userID).Scan(&count); err != nil {
		return 0, errs.Storage("count logs", err)
	}
	return count, nil
}

func (s *Store) GetLogCountByDate(ctx context.Context, userID, businessDate string) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, queryCountLogsByDate, userID, businessDate).Scan(&count); err != nil {
		return 0, errs.Storage("count logs by date", err)
	}
	return count, nil
}

// UpdateLog replaces the content of a live entry and advances updated_at.
func (s *Store) UpdateLog(ctx context.Context, id, newContent string) (*Log, error) {
	if strings.TrimSpace(newContent) == "" {
		return nil, errs.Validationf("content is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errs.Storage("begin update", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, queryUpdateContent, newContent, encodeTime(time.Now().UTC()), id)
	if err != nil {
		return nil, errs.Storage("update log", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, errs.NotFoundf("log %s", id)
	}

	log, err := scanLog(tx.QueryRowContext(ctx, queryGetLogByID, id))
	if err != nil {
		return nil, errs.Storage("reload log", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, errs.Storage("commit update", err)
	}

	s.scheduleInvalidation(log.UserID, log.BusinessDate)
	return log, nil
}

// DeleteLog soft-deletes a live entry. The row stays behind for restore
// and audit; default reads no longer see it.
func (s *Store) DeleteLog(ctx context.Context, id string) error {
	return s.flipDeleted(ctx, id, querySoftDelete)
}

// RestoreLog brings a soft-deleted entry back into default reads.
func (s *Store) RestoreLog(ctx context.Context, id string) error {
	return s.flipDeleted(ctx, id, queryRestore)
}

func (s *Store) flipDeleted(ctx context.Context, id, query string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errs.Storage("begin delete", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, query, encodeTime(time.Now().UTC()), id)
	if err != nil {
		return errs.Storage("flip deleted", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return errs.NotFoundf("log %s", id)
	}

	var userID, businessDate string
	err = tx.QueryRowContext(ctx, "SELECT user_id, business_date FROM activity_logs WHERE id = ?", id).
		Scan(&userID, &businessDate)
	if err != nil {
		return errs.Storage("reload log", err)
	}

	if err := tx.Commit(); err != nil {
		return errs.Storage("commit delete", err)
	}

	s.scheduleInvalidation(userID, businessDate)
	return nil
}

// PermanentDeleteLog removes the row for good. Reports whether anything was
// removed. In the same transaction it unlinks a matched partner (the partner
// reverts to unmatched), purges the cache entry that counted the row, and
// drops the embedding index row.
func (s *Store) PermanentDeleteLog(ctx context.Context, id string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, errs.Storage("begin permanent delete", err)
	}
	defer tx.Rollback()

	log, err := scanLog(tx.QueryRowContext(ctx, queryGetLogByIDAny, id))
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, errs.Storage("load log", err)
	}

	now := encodeTime(time.Now().UTC())
	if log.MatchedLogID != nil {
		if _, err := tx.ExecContext(ctx, queryUnlinkPartner, now, *log.MatchedLogID); err != nil {
			return false, errs.Storage("unlink partner", err)
		}
	}

	if _, err := tx.ExecContext(ctx, queryDeleteVector, id); err != nil {
		return false, errs.Storage("delete vector", err)
	}

	if _, err := tx.ExecContext(ctx, queryPurgeCacheEntry, log.UserID, log.BusinessDate); err != nil {
		return false, errs.Storage("purge cache entry", err)
	}

	if _, err := tx.ExecContext(ctx, queryPermanentDelete, id); err != nil {
		return false, errs.Storage("delete log", err)
	}

	if err := tx.Commit(); err != nil {
		return false, errs.Storage("commit permanent delete", err)
	}

	return true, nil
}

func (s *Store) queryLogs(ctx context.Context, query string, args ...any) ([]*Log, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errs.Storage("query logs", err)
	}
	defer rows.Close()

	var logs []*Log
	for rows.Next() {
		log, err := scanLog(rows)
		if err != nil {
			return nil, errs.Storage("scan log", err)
		}
		logs = append(logs, log)
	}

	if err := rows.Err(); err != nil {
		return nil, errs.Storage("iterate logs", err)
	}

	return logs, nil
}

func (s *Store) scheduleInvalidation(userID, businessDate string) {
	if s.invalidator != nil {
		s.invalidator.ScheduleInvalidation(userID, businessDate)
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanLog maps one row to a Log, converting the storage encodings (0/1
// booleans, ISO-8601 UTC strings) back to Go types at the boundary.
func scanLog(row rowScanner) (*Log, error) {
	var log Log
	var inputTS, createdAt, updatedAt string
	var isDeleted int
	var logType, matchStatus string
	var matchedLogID, activityKey sql.NullString
	var similarity sql.NullFloat64

	err := row.Scan(
		&log.ID, &log.UserID, &log.Content,
		&inputTS, &log.BusinessDate, &isDeleted,
		&logType, &matchStatus, &matchedLogID,
		&activityKey, &similarity,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	log.InputTimestamp = parseTime(inputTS)
	log.CreatedAt = parseTime(createdAt)
	log.UpdatedAt = parseTime(updatedAt)
	log.IsDeleted = isDeleted != 0
	log.LogType = LogType(logType)
	log.MatchStatus = MatchStatus(matchStatus)
	if matchedLogID.Valid {
		log.MatchedLogID = &matchedLogID.String
	}
	if activityKey.Valid {
		log.ActivityKey = &activityKey.String
	}
	if similarity.Valid {
		log.SimilarityScore = &similarity.Float64
	}

	return &log, nil
}

func encodeTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	if t, err := time.Parse(timeLayout, s); err == nil {
		return t
	}
	// rows written before the fixed-width layout
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
