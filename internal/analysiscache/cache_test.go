package analysiscache

import (
	"context"
	"testing"
	"time"

	"github.com/bowerhall/worklog/internal/storage"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()

	backing, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { backing.Close() })

	return NewManager(backing.DB(), time.Hour)
}

func TestGetMissReturnsNil(t *testing.T) {
	m := newTestManager(t)

	c, err := m.Get(context.Background(), "u1", "2024-03-15")
	if err != nil {
		t.Fatalf("unexpected error on miss: %v", err)
	}
	if c != nil {
		t.Errorf("expected nil on miss, got %+v", c)
	}
}

func TestSaveAndGet(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	if err := m.Save(ctx, "u1", "2024-03-15", `{"summary":"busy day"}`, 4); err != nil {
		t.Fatalf("failed to save cache: %v", err)
	}

	c, err := m.Get(ctx, "u1", "2024-03-15")
	if err != nil {
		t.Fatalf("failed to get cache: %v", err)
	}
	if c == nil {
		t.Fatal("expected cache entry")
	}
	if c.LogCount != 4 {
		t.Errorf("expected log count 4, got %d", c.LogCount)
	}
	if c.AnalysisResult != `{"summary":"busy day"}` {
		t.Errorf("unexpected result %q", c.AnalysisResult)
	}
	if c.GeneratedAt.IsZero() {
		t.Error("expected generated_at set")
	}
}

func TestSaveUpserts(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	if err := m.Save(ctx, "u1", "2024-03-15", "v1", 2); err != nil {
		t.Fatalf("failed to save: %v", err)
	}
	if err := m.Save(ctx, "u1", "2024-03-15", "v2", 3); err != nil {
		t.Fatalf("failed to upsert: %v", err)
	}

	c, err := m.Get(ctx, "u1", "2024-03-15")
	if err != nil {
		t.Fatalf("failed to get: %v", err)
	}
	if c.AnalysisResult != "v2" || c.LogCount != 3 {
		t.Errorf("expected replaced entry, got %+v", c)
	}
}

func TestIsValidCountMismatch(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	// cached over 2 logs
	if err := m.Save(ctx, "u1", "2024-03-15", "{}", 2); err != nil {
		t.Fatalf("failed to save: %v", err)
	}

	valid, err := m.IsValid(ctx, "u1", "2024-03-15", 2)
	if err != nil {
		t.Fatalf("failed validity check: %v", err)
	}
	if !valid {
		t.Error("expected fresh matching cache to be valid")
	}

	// a third log arrives; the cache counted only 2
	valid, err = m.IsValid(ctx, "u1", "2024-03-15", 3)
	if err != nil {
		t.Fatalf("failed validity check: %v", err)
	}
	if valid {
		t.Error("expected count mismatch to invalidate even a fresh cache")
	}
}

func TestIsValidFreshnessExpiry(t *testing.T) {
	backing, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer backing.Close()

	m := NewManager(backing.DB(), time.Hour)
	ctx := context.Background()

	// backdate an entry past the freshness window
	stale := time.Now().UTC().Add(-2 * time.Hour).Format(timeLayout)
	_, err = backing.DB().Exec(
		`INSERT INTO daily_analysis_cache (user_id, business_date, analysis_result, log_count, generated_at)
		 VALUES ('u1', '2024-03-15', '{}', 2, ?)`, stale)
	if err != nil {
		t.Fatalf("failed to seed stale entry: %v", err)
	}

	valid, err := m.IsValid(ctx, "u1", "2024-03-15", 2)
	if err != nil {
		t.Fatalf("failed validity check: %v", err)
	}
	if valid {
		t.Error("expected stale entry to be invalid despite matching count")
	}

	valid, err = m.IsValid(ctx, "u1", "2024-03-16", 0)
	if err != nil {
		t.Fatalf("failed validity check: %v", err)
	}
	if valid {
		t.Error("expected missing entry to be invalid")
	}
}

func TestDeleteIdempotent(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	if err := m.Save(ctx, "u1", "2024-03-15", "{}", 1); err != nil {
		t.Fatalf("failed to save: %v", err)
	}

	removed, err := m.Delete(ctx, "u1", "2024-03-15")
	if err != nil {
		t.Fatalf("failed to delete: %v", err)
	}
	if !removed {
		t.Error("expected removed=true")
	}

	removed, err = m.Delete(ctx, "u1", "2024-03-15")
	if err != nil {
		t.Fatalf("second delete errored: %v", err)
	}
	if removed {
		t.Error("expected removed=false on second delete")
	}
}

func TestCleanupOld(t *testing.T) {
	backing, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer backing.Close()

	m := NewManager(backing.DB(), time.Hour)
	ctx := context.Background()

	old := time.Now().UTC().AddDate(0, 0, -40).Format(timeLayout)
	_, err = backing.DB().Exec(
		`INSERT INTO daily_analysis_cache (user_id, business_date, analysis_result, log_count, generated_at)
		 VALUES ('u1', '2024-01-01', '{}', 1, ?)`, old)
	if err != nil {
		t.Fatalf("failed to seed old entry: %v", err)
	}
	if err := m.Save(ctx, "u1", "2024-03-15", "{}", 1); err != nil {
		t.Fatalf("failed to save recent entry: %v", err)
	}

	removed, err := m.CleanupOld(ctx, 30)
	if err != nil {
		t.Fatalf("failed cleanup: %v", err)
	}
	if removed != 1 {
		t.Errorf("expected 1 removed, got %d", removed)
	}

	c, err := m.Get(ctx, "u1", "2024-03-15")
	if err != nil {
		t.Fatalf("failed to get: %v", err)
	}
	if c == nil {
		t.Error("expected recent entry to survive cleanup")
	}
}
