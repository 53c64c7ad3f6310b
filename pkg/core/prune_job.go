package core

import (
	"context"
	"log/slog"
	"time"
)

// HistoryPruner removes old play history.
type HistoryPruner interface {
	PruneHistory(olderThan time.Duration) (int64, error)
}

// NewPruneJob returns a job that drops history rows older than retention once per interval.
func NewPruneJob(p HistoryPruner, retention, interval time.Duration) *TimeJob {
	return NewTimeJob("HistoryPrune", interval, func(ctx context.Context, now time.Time) {
		n, err := p.PruneHistory(retention)
		if err != nil {
			slog.Error("HistoryPrune: failed", "error", err)
			return
		}
		if n > 0 {
			slog.Info("HistoryPrune: removed old rows", "count", n, "retention", retention)
		}
	})
}
