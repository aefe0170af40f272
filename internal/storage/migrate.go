package storage

import (
	"database/sql"
	"time"

	"github.com/bowerhall/worklog/internal/errs"
	"github.com/bowerhall/worklog/internal/logger"
)

// A migration is one idempotent schema step for databases that predate the
// current schema. needed guards the step so re-running is a safe no-op;
// the ledger row is written only after run succeeds.
type migration struct {
	id          int
	description string
	needed      func(s *Store) bool
	run         func(tx *sql.Tx) error
}

func (s *Store) migrations() []migration {
	return []migration{
		{
			id:          1,
			description: "add matching columns to activity_logs",
			needed: func(s *Store) bool {
				return !s.columnExists("activity_logs", "log_type")
			},
			run: func(tx *sql.Tx) error {
				stmts := []string{
					"ALTER TABLE activity_logs ADD COLUMN log_type TEXT NOT NULL DEFAULT 'complete'",
					"ALTER TABLE activity_logs ADD COLUMN match_status TEXT NOT NULL DEFAULT 'unmatched'",
					"ALTER TABLE activity_logs ADD COLUMN matched_log_id TEXT",
					"ALTER TABLE activity_logs ADD COLUMN activity_key TEXT",
					"ALTER TABLE activity_logs ADD COLUMN similarity_score REAL",
				}
				for _, stmt := range stmts {
					if _, err := tx.Exec(stmt); err != nil {
						return err
					}
				}
				_, err := tx.Exec("CREATE INDEX IF NOT EXISTS idx_activity_logs_matching ON activity_logs(user_id, log_type, match_status)")
				return err
			},
		},
		{
			id:          2,
			description: "add daily_analysis_cache table",
			needed: func(s *Store) bool {
				return !s.tableExists("daily_analysis_cache")
			},
			run: func(tx *sql.Tx) error {
				if _, err := tx.Exec(`
					CREATE TABLE IF NOT EXISTS daily_analysis_cache (
						user_id TEXT NOT NULL,
						business_date TEXT NOT NULL,
						analysis_result TEXT NOT NULL,
						log_count INTEGER NOT NULL,
						generated_at TEXT NOT NULL,
						PRIMARY KEY (user_id, business_date)
					)`); err != nil {
					return err
				}
				_, err := tx.Exec("CREATE INDEX IF NOT EXISTS idx_analysis_cache_generated ON daily_analysis_cache(generated_at)")
				return err
			},
		},
		{
			id:          3,
			description: "add vec_activity_logs embedding table",
			needed: func(s *Store) bool {
				return !s.tableExists("vec_activity_logs")
			},
			run: func(tx *sql.Tx) error {
				_, err := tx.Exec(vecSchema)
				return err
			},
		},
	}
}

// Migrate brings the database to the current schema version. A fresh
// database gets the full schema in one pass; an existing one gets every
// migration not yet recorded in the ledger, in ascending order. Callable
// any number of times, including from concurrent short-lived processes.
func (s *Store) Migrate() error {
	if _, err := s.db.Exec(ledgerSchema); err != nil {
		return errs.Migration(0, err)
	}

	if !s.tableExists("activity_logs") {
		return s.freshInit()
	}

	applied, err := s.appliedMigrations()
	if err != nil {
		return errs.Migration(0, err)
	}

	for _, m := range s.migrations() {
		if applied[m.id] {
			continue
		}
		if err := s.apply(m); err != nil {
			return err
		}
		logger.Info("applied migration", "id", m.id, "description", m.description)
	}

	return nil
}

func (s *Store) freshInit() error {
	if _, err := s.db.Exec(schema); err != nil {
		return errs.Migration(0, err)
	}

	if _, err := s.db.Exec(vecSchema); err != nil {
		return errs.Migration(0, err)
	}

	// the full schema already includes every migration's effect
	now := time.Now().UTC().Format(time.RFC3339)
	for _, m := range s.migrations() {
		if _, err := s.db.Exec(
			"INSERT OR IGNORE INTO schema_migrations (id, applied_at) VALUES (?, ?)",
			m.id, now,
		); err != nil {
			return errs.Migration(m.id, err)
		}
	}

	logger.Debug("fresh schema applied")
	return nil
}

func (s *Store) apply(m migration) error {
	if m.needed != nil && !m.needed(s) {
		// schema already has this shape, record and move on
		return s.record(m.id)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return errs.Migration(m.id, err)
	}
	defer tx.Rollback()

	if err := m.run(tx); err != nil {
		return errs.Migration(m.id, err)
	}

	if _, err := tx.Exec(
		"INSERT OR IGNORE INTO schema_migrations (id, applied_at) VALUES (?, ?)",
		m.id, time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		return errs.Migration(m.id, err)
	}

	if err := tx.Commit(); err != nil {
		return errs.Migration(m.id, err)
	}

	return nil
}

func (s *Store) record(id int) error {
	_, err := s.db.Exec(
		"INSERT OR IGNORE INTO schema_migrations (id, applied_at) VALUES (?, ?)",
		id, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return errs.Migration(id, err)
	}
	return nil
}

func (s *Store) appliedMigrations() (map[int]bool, error) {
	rows, err := s.db.Query("SELECT id FROM schema_migrations ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		applied[id] = true
	}

	return applied, rows.Err()
}

func (s *Store) tableExists(table string) bool {
	var count int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type IN ('table', 'view') AND name = ?",
		table,
	).Scan(&count)
	return err == nil && count > 0
}

func (s *Store) columnExists(table, column string) bool {
	rows, err := s.db.Query("PRAGMA table_info(" + table + ")")
	if err != nil {
		return false
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name, colType string
		var notNull, pk int
		var dfltValue any
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			continue
		}
		if name == column {
			return true
		}
	}
	return false
}
