package core

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"montagego/pkg/config"
	"montagego/pkg/logging"
)

// FrameSink consumes the frame heartbeat. Tick runs synchronously on the scheduler goroutine.
type FrameSink interface {
	Tick(now time.Time)
}

// Scheduler manages the central heartbeat and scheduled jobs.
type Scheduler struct {
	frame time.Duration
	sink  FrameSink
	jobs  []Job
	clock func() time.Time

	frames   atomic.Int64
	overruns atomic.Int64
}

// NewScheduler creates a new Scheduler.
func NewScheduler(cfg *config.Config, sink FrameSink) *Scheduler {
	return &Scheduler{
		frame: time.Duration(cfg.Ticker.Frame),
		sink:  sink,
		clock: time.Now,
	}
}

// AddJob registers a job.
func (s *Scheduler) AddJob(j Job) {
	s.jobs = append(s.jobs, j)
}

// Start runs the main loop. It blocks until context is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	interval := s.frame
	if interval <= 0 {
		interval = 16 * time.Millisecond
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("Scheduler started", "interval", interval, "jobs", len(s.jobs))

	for {
		select {
		case <-ctx.Done():
			slog.Info("Scheduler stopped", "frames", s.frames.Load(), "overruns", s.overruns.Load())
			return
		case <-ticker.C:
			s.tick(ctx, interval)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context, budget time.Duration) {
	now := s.clock()

	// 1. Frame
	if s.sink != nil {
		s.sink.Tick(now)
	}
	s.frames.Add(1)
	if took := s.clock().Sub(now); took > budget {
		s.overruns.Add(1)
		logging.TraceDefault("Frame overrun", "took", took, "budget", budget)
	}

	// 2. Evaluate Jobs
	for _, job := range s.jobs {
		if job.ShouldFire(now) {
			// Fire and forget
			go job.Run(ctx, now)
		}
	}
}

// Frames returns the number of frames ticked so far.
func (s *Scheduler) Frames() int64 { return s.frames.Load() }

// Overruns returns the number of frames that took longer than the frame interval.
func (s *Scheduler) Overruns() int64 { return s.overruns.Load() }
