package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"montagego/pkg/db"
	"montagego/pkg/store"
)

// Run executes all startup maintenance tasks: catalog change detection and history pruning.
// Failures are logged, never returned; startup continues either way.
func Run(ctx context.Context, s store.StateStore, d *db.DB, catalogPath string, retention time.Duration) error {
	slog.Info("Starting database maintenance...")

	if changed, err := checkCatalog(ctx, s, catalogPath); err != nil {
		slog.Error("Catalog check failed", "error", err)
	} else if changed {
		slog.Info("Sequence catalog changed, resume point cleared", "path", catalogPath)
	}

	if retention > 0 {
		if n, err := d.PruneHistory(retention); err != nil {
			slog.Error("History pruning failed", "error", err)
		} else {
			slog.Info("History pruning completed", "removed", n, "retention", retention)
		}
	}

	return nil
}

// checkCatalog forgets the stored resume sequence when the catalog file was modified
// since the last run, because its indices may point elsewhere now.
func checkCatalog(ctx context.Context, s store.StateStore, catalogPath string) (bool, error) {
	info, err := os.Stat(catalogPath)
	if os.IsNotExist(err) {
		return false, nil // Nothing to compare against
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat catalog: %w", err)
	}

	fileMTime := info.ModTime().UTC().Format(time.RFC3339Nano)

	stored, found := s.GetState(ctx, store.KeyCatalogMTime)
	if found && stored == fileMTime {
		return false, nil // Up to date
	}

	if found {
		if err := s.DeleteState(ctx, store.KeyLastSequence); err != nil {
			return false, fmt.Errorf("failed to clear resume state: %w", err)
		}
	}
	if err := s.SetState(ctx, store.KeyCatalogMTime, fileMTime); err != nil {
		return false, fmt.Errorf("failed to update state: %w", err)
	}
	return found, nil
}
