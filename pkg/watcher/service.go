package watcher

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// mediaExts are the file types the players can open.
var mediaExts = map[string]bool{
	".mp4": true, ".webm": true, ".mov": true, ".mkv": true,
	".mp3": true, ".wav": true,
}

// Change is something that appeared or changed on disk since the last check.
type Change struct {
	Path    string
	Catalog bool // The sequence catalog itself was modified
}

// Service polls the media directory and the catalog file.
// The catalog is loaded once at startup, so changes only take effect after a restart.
type Service struct {
	mu          sync.Mutex
	mediaDir    string
	catalogPath string
	lastChecked time.Time
	catalogMod  time.Time
}

// NewService creates a watcher. A missing media directory is logged and polled anyway.
func NewService(mediaDir, catalogPath string) *Service {
	if _, err := os.Stat(mediaDir); os.IsNotExist(err) {
		slog.Warn("Watcher: Media directory does not exist", "path", mediaDir)
	}

	s := &Service{
		mediaDir:    mediaDir,
		catalogPath: catalogPath,
		lastChecked: time.Now(),
	}
	if info, err := os.Stat(catalogPath); err == nil {
		s.catalogMod = info.ModTime()
	}
	return s
}

// Check returns every media file written since the previous check and, if the
// catalog was modified, a Change flagged as Catalog.
func (s *Service) Check() []Change {
	s.mu.Lock()
	defer s.mu.Unlock()

	var changes []Change
	newest := s.lastChecked

	_ = filepath.WalkDir(s.mediaDir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if !mediaExts[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if mod := info.ModTime(); mod.After(s.lastChecked) {
			changes = append(changes, Change{Path: path})
			if mod.After(newest) {
				newest = mod
			}
		}
		return nil
	})
	s.lastChecked = newest

	if info, err := os.Stat(s.catalogPath); err == nil && !info.ModTime().Equal(s.catalogMod) {
		s.catalogMod = info.ModTime()
		changes = append(changes, Change{Path: s.catalogPath, Catalog: true})
	}

	for _, c := range changes {
		if c.Catalog {
			slog.Info("Watcher: Sequence catalog changed, restart to apply", "path", c.Path)
		} else {
			slog.Info("Watcher: New media file detected", "path", c.Path)
		}
	}
	return changes
}
