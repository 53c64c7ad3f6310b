package core

import (
	"context"
	"time"

	"montagego/pkg/watcher"
)

// ChangeChecker reports media and catalog changes on disk.
type ChangeChecker interface {
	Check() []watcher.Change
}

// NewWatchJob polls for new media and catalog edits once per interval.
// onChange may be nil.
func NewWatchJob(w ChangeChecker, interval time.Duration, onChange func([]watcher.Change)) *TimeJob {
	return NewTimeJob("MediaWatch", interval, func(ctx context.Context, now time.Time) {
		if changes := w.Check(); len(changes) > 0 && onChange != nil {
			onChange(changes)
		}
	})
}
