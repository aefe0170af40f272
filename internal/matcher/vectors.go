package matcher

import (
	"context"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/ncruces"

	"github.com/bowerhall/worklog/internal/errs"
	"github.com/bowerhall/worklog/internal/logstore"
)

const (
	queryLogRowid = `SELECT rowid FROM activity_logs WHERE id = ?`

	queryDeleteVector = `DELETE FROM vec_activity_logs WHERE log_rowid = ?`

	queryInsertVector = `INSERT INTO vec_activity_logs (log_rowid, embedding) VALUES (?, ?)`

	queryNearest = `
SELECT a.id, v.distance
FROM vec_activity_logs v
JOIN activity_logs a ON a.rowid = v.log_rowid
WHERE v.embedding MATCH ?
  AND k = ?`
)

// IndexLog stores the content embedding of a saved log for later vector
// scoring. No-op without an embedder.
func (m *Matcher) IndexLog(ctx context.Context, entry *logstore.Log) error {
	if m.embedder == nil {
		return nil
	}

	embedding, err := m.embedder.Embed(ctx, entry.Content)
	if err != nil {
		return errs.Storage("embed log", err)
	}
	blob, err := sqlite_vec.SerializeFloat32(embedding)
	if err != nil {
		return errs.Storage("serialize embedding", err)
	}

	var rowid int64
	if err := m.db.QueryRowContext(ctx, queryLogRowid, entry.ID).Scan(&rowid); err != nil {
		return errs.Storage("index log", err)
	}
	if _, err := m.db.ExecContext(ctx, queryDeleteVector, rowid); err != nil {
		return errs.Storage("index log", err)
	}
	if _, err := m.db.ExecContext(ctx, queryInsertVector, rowid, blob); err != nil {
		return errs.Storage("index log", err)
	}
	return nil
}

// vectorSimilarities scores the candidate set against the entry's
// content via a KNN query. Distances squash to (0, 1] so they compose
// with the time proximity term on the same scale.
func (m *Matcher) vectorSimilarities(ctx context.Context, entry *logstore.Log, cands []*candidate) (map[string]float64, error) {
	embedding, err := m.embedder.Embed(ctx, entry.Content)
	if err != nil {
		return nil, err
	}
	blob, err := sqlite_vec.SerializeFloat32(embedding)
	if err != nil {
		return nil, err
	}

	// overshoot k: the KNN table holds every user's logs, not just
	// this candidate set
	rows, err := m.db.QueryContext(ctx, queryNearest, blob, len(cands)*4+16)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sims := make(map[string]float64, len(cands))
	for rows.Next() {
		var id string
		var distance float64
		if err := rows.Scan(&id, &distance); err != nil {
			return nil, err
		}
		sims[id] = 1 / (1 + distance)
	}
	return sims, rows.Err()
}
