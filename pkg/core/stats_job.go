package core

import (
	"context"
	"log/slog"
	"time"
)

// NewStatsJob returns a job that samples resource usage once per interval and logs it.
func NewStatsJob(m *ResourceMonitor, interval time.Duration) *TimeJob {
	return NewTimeJob("Stats", interval, func(ctx context.Context, now time.Time) {
		s := m.Sample()
		args := []any{"goroutines", s.Goroutines, "heap_mb", s.HeapMB}
		for _, c := range s.Components {
			args = append(args, c.Name+"_mb", c.MemoryMB, c.Name+"_procs", c.Processes)
		}
		slog.Info("Stats: resource usage", args...)
	})
}
