package logstore

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/bowerhall/worklog/internal/errs"
)

// GetUnmatchedLogs lists live start/end entries still awaiting a partner,
// for the matcher and for manual resolution. businessDate narrows to one
// day when non-empty.
func (s *Store) GetUnmatchedLogs(ctx context.Context, userID string, logType LogType, businessDate string) ([]*Log, error) {
	if logType != TypeStartOnly && logType != TypeEndOnly {
		return nil, errs.Validationf("log type %q is not matchable", logType)
	}

	if businessDate == "" {
		return s.queryLogs(ctx, queryGetUnmatched, userID, string(logType))
	}
	return s.queryLogs(ctx, queryGetUnmatchedByDate, userID, string(logType), businessDate)
}

// GetMatchedLogPairs returns matched intervals, start side first.
func (s *Store) GetMatchedLogPairs(ctx context.Context, userID, businessDate string) ([]Pair, error) {
	query := `SELECT ` + logColumns + ` FROM activity_logs
		WHERE user_id = ? AND log_type = 'start_only' AND match_status = 'matched' AND ` + liveFilter + `
		ORDER BY input_timestamp ASC`
	args := []any{userID}
	if businessDate != "" {
		query = `SELECT ` + logColumns + ` FROM activity_logs
			WHERE user_id = ? AND log_type = 'start_only' AND match_status = 'matched'
				AND business_date = ? AND ` + liveFilter + `
			ORDER BY input_timestamp ASC`
		args = append(args, businessDate)
	}

	starts, err := s.queryLogs(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	var pairs []Pair
	for _, start := range starts {
		if start.MatchedLogID == nil {
			continue
		}
		// same soft-delete filter as the start side, a pair with a
		// deleted end is not reported
		end, err := scanLog(s.db.QueryRowContext(ctx, queryGetLogByID, *start.MatchedLogID))
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, errs.Storage("load pair partner", err)
		}
		pairs = append(pairs, Pair{Start: start, End: end})
	}

	return pairs, nil
}

// UpdateLogMatching applies a partial update of the matching columns.
// Complete logs never participate in matching, and matched/ignored are
// terminal: rows in either state reject status, link, and score changes.
func (s *Store) UpdateLogMatching(ctx context.Context, id string, upd MatchingUpdate) (*Log, error) {
	if upd.MatchStatus != nil {
		switch *upd.MatchStatus {
		case StatusUnmatched, StatusMatched, StatusIgnored:
		default:
			return nil, errs.Validationf("unknown match status %q", *upd.MatchStatus)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errs.Storage("begin matching update", err)
	}
	defer tx.Rollback()

	current, err := scanLog(tx.QueryRowContext(ctx, queryGetLogByID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.NotFoundf("log %s", id)
	}
	if err != nil {
		return nil, errs.Storage("load log", err)
	}

	if current.LogType == TypeComplete {
		return nil, errs.Validationf("log %s is complete, only start_only and end_only logs carry matching state", id)
	}
	if current.MatchStatus != StatusUnmatched {
		if upd.MatchStatus != nil && *upd.MatchStatus != current.MatchStatus {
			return nil, errs.Validationf("log %s is already %s", id, current.MatchStatus)
		}
		if upd.MatchedLogID != nil || upd.SimilarityScore != nil {
			return nil, errs.Validationf("log %s is %s, its pairing cannot change", id, current.MatchStatus)
		}
	}

	sets := []string{"updated_at = ?"}
	args := []any{encodeTime(time.Now().UTC())}
	if upd.MatchStatus != nil {
		sets = append(sets, "match_status = ?")
		args = append(args, string(*upd.MatchStatus))
	}
	if upd.MatchedLogID != nil {
		sets = append(sets, "matched_log_id = ?")
		args = append(args, *upd.MatchedLogID)
	}
	if upd.SimilarityScore != nil {
		sets = append(sets, "similarity_score = ?")
		args = append(args, *upd.SimilarityScore)
	}
	args = append(args, id)

	if _, err := tx.ExecContext(ctx,
		"UPDATE activity_logs SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...); err != nil {
		return nil, errs.Storage("update matching", err)
	}

	updated, err := scanLog(tx.QueryRowContext(ctx, queryGetLogByID, id))
	if err != nil {
		return nil, errs.Storage("reload log", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, errs.Storage("commit matching update", err)
	}

	return updated, nil
}

// activityKeyStopwords are open/close verbs and fillers stripped before
// building the classification token.
var activityKeyStopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "at": {}, "for": {}, "in": {}, "my": {},
	"of": {}, "on": {}, "the": {}, "to": {}, "up": {}, "with": {},
	"back": {}, "began": {}, "begin": {}, "beginning": {}, "done": {},
	"end": {}, "ended": {}, "ending": {}, "finish": {}, "finished": {},
	"left": {}, "resumed": {}, "start": {}, "started": {}, "starting": {},
	"stop": {}, "stopped": {}, "wrapped": {},
}

// SignificantTokens normalizes free text for matching: lowercase,
// punctuation stripped, open/close verbs and fillers dropped.
func SignificantTokens(content string) []string {
	var b strings.Builder
	for _, r := range strings.ToLower(content) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == ' ':
			b.WriteRune(r)
		case r > 127:
			// keep non-ASCII word characters, entries are free text
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}

	var kept []string
	for _, tok := range strings.Fields(b.String()) {
		if _, skip := activityKeyStopwords[tok]; skip {
			continue
		}
		kept = append(kept, tok)
	}

	return kept
}

// DeriveActivityKey builds the classification token used to narrow
// matching candidates: the first three significant words joined by hyphens.
func DeriveActivityKey(content string) string {
	tokens := SignificantTokens(content)
	if len(tokens) > 3 {
		tokens = tokens[:3]
	}
	return strings.Join(tokens, "-")
}
