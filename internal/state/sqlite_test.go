package state

import (
	"errors"
	"testing"
	"time"

	"github.com/leapstack-labs/leapview/pkg/core"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store := NewSQLiteStore()
	if err := store.Open(":memory:"); err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	if err := store.InitSchema(); err != nil {
		t.Fatalf("failed to init schema: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_OpenClose(t *testing.T) {
	store := NewSQLiteStore()

	if err := store.Open(":memory:"); err != nil {
		t.Fatalf("failed to open in-memory store: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("failed to close store: %v", err)
	}
}

func TestSQLiteStore_File(t *testing.T) {
	path := t.TempDir() + "/state.db"
	store := NewSQLiteStore()
	if err := store.Open(path); err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	if err := store.InitSchema(); err != nil {
		t.Fatalf("failed to init schema: %v", err)
	}
	if err := store.SaveView(&core.SavedView{Name: "v", Dataset: "issues"}); err != nil {
		t.Fatalf("failed to save view: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("failed to close store: %v", err)
	}

	reopened := NewSQLiteStore()
	if err := reopened.Open(path); err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	defer reopened.Close()
	if err := reopened.InitSchema(); err != nil {
		t.Fatalf("failed to re-run migrations: %v", err)
	}
	if _, err := reopened.GetView("v"); err != nil {
		t.Errorf("view lost after reopen: %v", err)
	}
	if reopened.Path() != path {
		t.Errorf("expected path %q, got %q", path, reopened.Path())
	}
}

func TestSQLiteStore_InitSchema(t *testing.T) {
	store := setupTestStore(t)

	for _, table := range []string{"saved_views", "snapshots"} {
		rows, err := store.db.Query("SELECT 1 FROM " + table + " LIMIT 1")
		if err != nil {
			t.Errorf("table %s does not exist: %v", table, err)
			continue
		}
		rows.Close()
	}

	version, err := store.GetMigrationVersion()
	if err != nil {
		t.Fatalf("failed to get migration version: %v", err)
	}
	if version != 1 {
		t.Errorf("expected migration version 1, got %d", version)
	}
}

func TestSQLiteStore_MigrateIdempotent(t *testing.T) {
	store := NewSQLiteStore()
	if err := store.Open(":memory:"); err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	applied, err := store.Migrate()
	if err != nil {
		t.Fatalf("first migrate failed: %v", err)
	}
	if len(applied) != 1 || applied[0] != 1 {
		t.Errorf("expected migration 1 applied, got %v", applied)
	}

	applied, err = store.Migrate()
	if err != nil {
		t.Fatalf("second migrate failed: %v", err)
	}
	if len(applied) != 0 {
		t.Errorf("expected nothing applied on second run, got %v", applied)
	}
}

func TestSQLiteStore_NotOpened(t *testing.T) {
	store := NewSQLiteStore()
	if err := store.SaveView(&core.SavedView{Name: "x", Dataset: "y"}); err == nil {
		t.Error("expected error on unopened store")
	}
	if _, err := store.ListSnapshots("x", 1); err == nil {
		t.Error("expected error on unopened store")
	}
	if err := store.Close(); err != nil {
		t.Errorf("close of unopened store: %v", err)
	}
}

// --- Saved views ---

func TestSQLiteStore_Views(t *testing.T) {
	tests := []struct {
		name      string
		operation func(t *testing.T, store *SQLiteStore)
	}{
		{
			name: "save and get",
			operation: func(t *testing.T, store *SQLiteStore) {
				v := &core.SavedView{
					Name:    "overdue-critical",
					Dataset: "issues",
					Query: core.Query{
						Criteria: core.Criteria{Search: "crane", Filters: map[string]string{"severity": "critical"}, Period: core.PeriodThisMonth},
						Sort:     core.SortSpec{Field: "target_date", Direction: core.DirDesc},
						Page:     core.PageRequest{Page: 1, Size: 20},
					},
				}
				if err := store.SaveView(v); err != nil {
					t.Fatalf("failed to save view: %v", err)
				}
				got, err := store.GetView("overdue-critical")
				if err != nil {
					t.Fatalf("failed to get view: %v", err)
				}
				if got.Dataset != "issues" {
					t.Errorf("expected dataset issues, got %q", got.Dataset)
				}
				if got.Query.Criteria.Filters["severity"] != "critical" {
					t.Errorf("filters not round-tripped: %v", got.Query.Criteria.Filters)
				}
				if got.Query.Sort != v.Query.Sort {
					t.Errorf("expected sort %v, got %v", v.Query.Sort, got.Query.Sort)
				}
				if got.Query.Criteria.Period != core.PeriodThisMonth {
					t.Errorf("expected period this_month, got %q", got.Query.Criteria.Period)
				}
			},
		},
		{
			name: "replace keeps created_at",
			operation: func(t *testing.T, store *SQLiteStore) {
				t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
				store.now = func() time.Time { return t0 }
				if err := store.SaveView(&core.SavedView{Name: "v", Dataset: "budget"}); err != nil {
					t.Fatalf("failed to save view: %v", err)
				}
				store.now = func() time.Time { return t0.Add(time.Hour) }
				first, _ := store.GetView("v")
				first.Description = "updated"
				if err := store.SaveView(first); err != nil {
					t.Fatalf("failed to replace view: %v", err)
				}
				got, err := store.GetView("v")
				if err != nil {
					t.Fatalf("failed to get view: %v", err)
				}
				if !got.CreatedAt.Equal(t0) {
					t.Errorf("expected created_at %v, got %v", t0, got.CreatedAt)
				}
				if !got.UpdatedAt.Equal(t0.Add(time.Hour)) {
					t.Errorf("expected updated_at %v, got %v", t0.Add(time.Hour), got.UpdatedAt)
				}
				if got.Description != "updated" {
					t.Errorf("expected description 'updated', got %q", got.Description)
				}
			},
		},
		{
			name: "list by dataset",
			operation: func(t *testing.T, store *SQLiteStore) {
				for _, v := range []*core.SavedView{
					{Name: "b", Dataset: "issues"},
					{Name: "a", Dataset: "issues"},
					{Name: "c", Dataset: "budget"},
				} {
					if err := store.SaveView(v); err != nil {
						t.Fatalf("failed to save view: %v", err)
					}
				}
				views, err := store.ListViews("issues")
				if err != nil {
					t.Fatalf("failed to list views: %v", err)
				}
				if len(views) != 2 || views[0].Name != "a" || views[1].Name != "b" {
					t.Errorf("unexpected views: %v", views)
				}
				all, err := store.ListViews("")
				if err != nil {
					t.Fatalf("failed to list views: %v", err)
				}
				if len(all) != 3 {
					t.Errorf("expected 3 views, got %d", len(all))
				}
			},
		},
		{
			name: "delete",
			operation: func(t *testing.T, store *SQLiteStore) {
				if err := store.SaveView(&core.SavedView{Name: "gone", Dataset: "issues"}); err != nil {
					t.Fatalf("failed to save view: %v", err)
				}
				if err := store.DeleteView("gone"); err != nil {
					t.Fatalf("failed to delete view: %v", err)
				}
				if _, err := store.GetView("gone"); !errors.Is(err, ErrNotFound) {
					t.Errorf("expected ErrNotFound, got %v", err)
				}
				if err := store.DeleteView("gone"); !errors.Is(err, ErrNotFound) {
					t.Errorf("expected ErrNotFound on second delete, got %v", err)
				}
			},
		},
		{
			name: "validation",
			operation: func(t *testing.T, store *SQLiteStore) {
				if err := store.SaveView(&core.SavedView{Dataset: "issues"}); err == nil {
					t.Error("expected error for missing name")
				}
				if err := store.SaveView(&core.SavedView{Name: "x"}); err == nil {
					t.Error("expected error for missing dataset")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.operation(t, setupTestStore(t))
		})
	}
}

// --- Snapshots ---

func snapshotAt(dataset string, at time.Time, total float64) *core.Snapshot {
	return &core.Snapshot{
		Dataset: dataset,
		TakenAt: at,
		Total:   3,
		Matched: 2,
		Stats: []core.Statistic{
			{Name: "total_amount", Label: "Total Amount", Kind: core.StatSum, Format: core.FormatCurrency, Value: total},
		},
	}
}

func TestSQLiteStore_Snapshots(t *testing.T) {
	store := setupTestStore(t)
	t0 := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, total := range []float64{100, 150, 120} {
		if err := store.RecordSnapshot(snapshotAt("invoices", t0.Add(time.Duration(i)*time.Hour), total)); err != nil {
			t.Fatalf("failed to record snapshot: %v", err)
		}
	}
	other := snapshotAt("budget", t0, 1)
	if err := store.RecordSnapshot(other); err != nil {
		t.Fatalf("failed to record snapshot: %v", err)
	}
	if other.ID == "" {
		t.Fatal("expected generated snapshot ID")
	}

	got, err := store.GetSnapshot(other.ID)
	if err != nil {
		t.Fatalf("failed to get snapshot: %v", err)
	}
	if got.Dataset != "budget" || !got.TakenAt.Equal(t0) || got.Matched != 2 {
		t.Errorf("unexpected snapshot: %+v", got)
	}
	if st, ok := got.Stat("total_amount"); !ok || st.Value != 1 {
		t.Errorf("statistics not round-tripped: %+v", got.Stats)
	}

	list, err := store.ListSnapshots("invoices", 0)
	if err != nil {
		t.Fatalf("failed to list snapshots: %v", err)
	}
	if len(list) != 3 || list[0].Stats[0].Value != 120 {
		t.Errorf("expected newest first, got %d snapshots", len(list))
	}

	latest, err := store.LatestSnapshots("invoices", 2)
	if err != nil {
		t.Fatalf("failed to get latest snapshots: %v", err)
	}
	if len(latest) != 2 || latest[0].Stats[0].Value != 150 || latest[1].Stats[0].Value != 120 {
		t.Errorf("expected the two newest oldest first, got %+v", latest)
	}

	if _, err := store.GetSnapshot("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := store.RecordSnapshot(&core.Snapshot{}); err == nil {
		t.Error("expected error for snapshot without dataset")
	}
}
