package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewService(t *testing.T) {
	tests := []struct {
		name        string
		mediaDir    string
		catalog     bool
		wantCatalog bool
	}{
		{"Existing catalog", t.TempDir(), true, true},
		{"Missing catalog", t.TempDir(), false, false},
		{"Missing media dir", filepath.Join(t.TempDir(), "nope"), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat := filepath.Join(t.TempDir(), "data.json")
			if tt.catalog {
				writeFile(t, cat, "{}")
			}
			s := NewService(tt.mediaDir, cat)
			if got := !s.catalogMod.IsZero(); got != tt.wantCatalog {
				t.Errorf("catalog mtime recorded = %v, want %v", got, tt.wantCatalog)
			}
			if changes := s.Check(); len(changes) != 0 {
				t.Errorf("initial Check() = %v, want none", changes)
			}
		})
	}
}

func TestService_Check(t *testing.T) {
	dir := t.TempDir()
	cat := filepath.Join(dir, "data.json")
	writeFile(t, cat, "{}")

	s := NewService(dir, cat)

	// 1. Initial check - should be empty
	if changes := s.Check(); len(changes) != 0 {
		t.Fatalf("Initial Check() = %v", changes)
	}

	// 2. New clip in a subdirectory, plus a file type the players ignore
	time.Sleep(10 * time.Millisecond) // Ensure modTime is after lastChecked
	if err := os.MkdirAll(filepath.Join(dir, "harbour"), 0o755); err != nil {
		t.Fatal(err)
	}
	clip := filepath.Join(dir, "harbour", "clip_01.MP4")
	writeFile(t, clip, "video")
	writeFile(t, filepath.Join(dir, "notes.txt"), "ignored")

	changes := s.Check()
	if len(changes) != 1 || changes[0].Path != clip || changes[0].Catalog {
		t.Fatalf("Check() = %v, want only %s", changes, clip)
	}

	// 3. Nothing new
	if changes := s.Check(); len(changes) != 0 {
		t.Errorf("Repeated Check() = %v, want none", changes)
	}

	// 4. Catalog edit
	future := time.Now().Add(time.Minute)
	if err := os.Chtimes(cat, future, future); err != nil {
		t.Fatal(err)
	}
	changes = s.Check()
	if len(changes) != 1 || !changes[0].Catalog {
		t.Fatalf("Check() after catalog edit = %v", changes)
	}
	if changes := s.Check(); len(changes) != 0 {
		t.Errorf("catalog change reported twice: %v", changes)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
