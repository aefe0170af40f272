package storage

// VectorDimensions matches the embedding size produced by the default
// ollama model (nomic-embed-text).
const VectorDimensions = 768

// schema is the full current shape, applied in one declarative pass on a
// fresh database. Every statement is guarded so re-running is a no-op.
const schema = `
CREATE TABLE IF NOT EXISTS activity_logs (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    content TEXT NOT NULL,
    input_timestamp TEXT NOT NULL,
    business_date TEXT NOT NULL,
    is_deleted INTEGER NOT NULL DEFAULT 0,
    log_type TEXT NOT NULL DEFAULT 'complete',
    match_status TEXT NOT NULL DEFAULT 'unmatched',
    matched_log_id TEXT,
    activity_key TEXT,
    similarity_score REAL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_activity_logs_user_date ON activity_logs(user_id, business_date, is_deleted);
CREATE INDEX IF NOT EXISTS idx_activity_logs_timestamp ON activity_logs(user_id, input_timestamp);
CREATE INDEX IF NOT EXISTS idx_activity_logs_matching ON activity_logs(user_id, log_type, match_status);

CREATE TABLE IF NOT EXISTS daily_analysis_cache (
    user_id TEXT NOT NULL,
    business_date TEXT NOT NULL,
    analysis_result TEXT NOT NULL,
    log_count INTEGER NOT NULL,
    generated_at TEXT NOT NULL,
    PRIMARY KEY (user_id, business_date)
);

CREATE INDEX IF NOT EXISTS idx_analysis_cache_generated ON daily_analysis_cache(generated_at);
`

// vecSchema stores one embedding per activity log, keyed by the log row's
// rowid (vec0 requires integer keys; uuids stay in activity_logs).
const vecSchema = `
CREATE VIRTUAL TABLE IF NOT EXISTS vec_activity_logs USING vec0(
    log_rowid INTEGER PRIMARY KEY,
    embedding FLOAT[768]
);
`

const ledgerSchema = `
CREATE TABLE IF NOT EXISTS schema_migrations (
    id INTEGER PRIMARY KEY,
    applied_at TEXT NOT NULL
);
`
