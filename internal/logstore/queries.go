package logstore

// timeLayout is a fixed-width ISO-8601 UTC encoding so timestamp strings
// sort correctly under SQL ORDER BY.
const timeLayout = "2006-01-02T15:04:05.000Z"

const logColumns = `id, user_id, content, input_timestamp, business_date, is_deleted,
	log_type, match_status, matched_log_id, activity_key, similarity_score,
	created_at, updated_at`

// liveFilter is the single soft-delete predicate shared by every default
// read and count query.
const liveFilter = `is_deleted = 0`

const (
	queryInsertLog = `INSERT INTO activity_logs (` + logColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetLogByID = `SELECT ` + logColumns + ` FROM activity_logs
		WHERE id = ? AND ` + liveFilter

	queryGetLogByIDAny = `SELECT ` + logColumns + ` FROM activity_logs
		WHERE id = ?`

	queryGetLogsByDate = `SELECT ` + logColumns + ` FROM activity_logs
		WHERE user_id = ? AND business_date = ? AND ` + liveFilter + `
		ORDER BY input_timestamp ASC`

	queryGetLogsByDateAll = `SELECT ` + logColumns + ` FROM activity_logs
		WHERE user_id = ? AND business_date = ?
		ORDER BY input_timestamp ASC`

	queryGetLogsByRange = `SELECT ` + logColumns + ` FROM activity_logs
		WHERE user_id = ? AND business_date BETWEEN ? AND ? AND ` + liveFilter + `
		ORDER BY input_timestamp ASC`

	queryGetLogsByRangeAll = `SELECT ` + logColumns + ` FROM activity_logs
		WHERE user_id = ? AND business_date BETWEEN ? AND ?
		ORDER BY input_timestamp ASC`

	queryGetLatestLogs = `SELECT ` + logColumns + ` FROM activity_logs
		WHERE user_id = ? AND ` + liveFilter + `
		ORDER BY input_timestamp DESC
		LIMIT ?`

	queryCountLogs = `SELECT COUNT(*) FROM activity_logs
		WHERE user_id = ? AND ` + liveFilter

	queryCountLogsByDate = `SELECT COUNT(*) FROM activity_logs
		WHERE user_id = ? AND business_date = ? AND ` + liveFilter

	queryUpdateContent = `UPDATE activity_logs
		SET content = ?, updated_at = ?
		WHERE id = ? AND ` + liveFilter

	querySoftDelete = `UPDATE activity_logs
		SET is_deleted = 1, updated_at = ?
		WHERE id = ? AND ` + liveFilter

	queryRestore = `UPDATE activity_logs
		SET is_deleted = 0, updated_at = ?
		WHERE id = ? AND is_deleted = 1`

	queryPermanentDelete = `DELETE FROM activity_logs WHERE id = ?`

	queryUnlinkPartner = `UPDATE activity_logs
		SET match_status = 'unmatched', matched_log_id = NULL, similarity_score = NULL, updated_at = ?
		WHERE id = ?`

	queryPurgeCacheEntry = `DELETE FROM daily_analysis_cache
		WHERE user_id = ? AND business_date = ?`

	queryDeleteVector = `DELETE FROM vec_activity_logs
		WHERE log_rowid = (SELECT rowid FROM activity_logs WHERE id = ?)`

	queryGetUnmatched = `SELECT ` + logColumns + ` FROM activity_logs
		WHERE user_id = ? AND log_type = ? AND match_status = 'unmatched' AND ` + liveFilter + `
		ORDER BY input_timestamp ASC`

	queryGetUnmatchedByDate = `SELECT ` + logColumns + ` FROM activity_logs
		WHERE user_id = ? AND log_type = ? AND match_status = 'unmatched'
			AND business_date = ? AND ` + liveFilter + `
		ORDER BY input_timestamp ASC`
)
