package maintenance

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"montagego/pkg/db"
	"montagego/pkg/store"
)

func TestMaintenance(t *testing.T) {
	tempDir := t.TempDir()
	d, err := db.Init(filepath.Join(tempDir, "maint_test.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	s := store.NewSQLiteStore(d)
	ctx := context.Background()

	catalogPath := filepath.Join(tempDir, "data.json")
	if err := os.WriteFile(catalogPath, []byte(`{"sequences":[]}`), 0o644); err != nil {
		t.Fatal(err)
	}

	// Old and fresh history rows
	for _, age := range []time.Duration{40 * 24 * time.Hour, time.Hour} {
		if _, err := d.Exec("INSERT INTO play_history (run_id, type, played_at) VALUES (?, ?, ?)",
			"r", "clip_shown", time.Now().Add(-age).UnixMilli()); err != nil {
			t.Fatal(err)
		}
	}

	// First run records the catalog mtime and keeps any resume point
	if err := s.SetState(ctx, store.KeyLastSequence, "2"); err != nil {
		t.Fatal(err)
	}
	if err := Run(ctx, s, d, catalogPath, 30*24*time.Hour); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if _, found := s.GetState(ctx, store.KeyCatalogMTime); !found {
		t.Error("expected catalog mtime to be stored")
	}
	if v, found := s.GetState(ctx, store.KeyLastSequence); !found || v != "2" {
		t.Errorf("resume point should survive first run, got %q found=%v", v, found)
	}

	var rows int
	if err := d.QueryRow("SELECT count(*) FROM play_history").Scan(&rows); err != nil {
		t.Fatal(err)
	}
	if rows != 1 {
		t.Errorf("expected 1 history row after pruning, got %d", rows)
	}

	// Unchanged catalog: nothing happens
	if err := Run(ctx, s, d, catalogPath, 0); err != nil {
		t.Fatal(err)
	}
	if _, found := s.GetState(ctx, store.KeyLastSequence); !found {
		t.Error("resume point cleared although catalog is unchanged")
	}

	// Modified catalog: resume point dropped
	later := time.Now().Add(time.Minute)
	if err := os.Chtimes(catalogPath, later, later); err != nil {
		t.Fatal(err)
	}
	if err := Run(ctx, s, d, catalogPath, 0); err != nil {
		t.Fatal(err)
	}
	if _, found := s.GetState(ctx, store.KeyLastSequence); found {
		t.Error("expected resume point to be cleared after catalog change")
	}
}

func TestCheckCatalog_Missing(t *testing.T) {
	d, err := db.Init(filepath.Join(t.TempDir(), "m.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	changed, err := checkCatalog(context.Background(), store.NewSQLiteStore(d), "/nonexistent/data.json")
	if err != nil || changed {
		t.Errorf("missing catalog: changed=%v err=%v", changed, err)
	}
}
