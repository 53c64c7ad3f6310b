package core

import (
	"context"
	"sync/atomic"
	"time"
)

// Job defines a scheduled task.
type Job interface {
	Name() string
	ShouldFire(now time.Time) bool
	Run(ctx context.Context, now time.Time)
}

// BaseJob provides atomic running state to prevent re-entry.
type BaseJob struct {
	name    string
	running int32 // 1 if running, 0 otherwise
}

func NewBaseJob(name string) BaseJob {
	return BaseJob{name: name}
}

func (b *BaseJob) Name() string {
	return b.name
}

// TryLock attempts to set running to 1. Returns true if successful.
func (b *BaseJob) TryLock() bool {
	return atomic.CompareAndSwapInt32(&b.running, 0, 1)
}

func (b *BaseJob) Unlock() {
	atomic.StoreInt32(&b.running, 0)
}

// Running reports whether Run is in progress.
func (b *BaseJob) Running() bool {
	return atomic.LoadInt32(&b.running) == 1
}

// TimeJob fires when time elapsed exceeds threshold.
type TimeJob struct {
	BaseJob
	lastRun   atomic.Int64 // unix nanos of the last run, 0 before the first
	threshold time.Duration
	action    func(context.Context, time.Time)
}

func NewTimeJob(name string, threshold time.Duration, action func(context.Context, time.Time)) *TimeJob {
	return &TimeJob{
		BaseJob:   NewBaseJob(name),
		threshold: threshold,
		action:    action,
	}
}

func (j *TimeJob) ShouldFire(now time.Time) bool {
	if j.Running() {
		return false
	}

	last := j.lastRun.Load()
	if last == 0 {
		return true
	}

	return now.Sub(time.Unix(0, last)) >= j.threshold
}

func (j *TimeJob) Run(ctx context.Context, now time.Time) {
	if !j.TryLock() {
		return
	}
	defer j.Unlock()

	j.lastRun.Store(now.UnixNano())

	j.action(ctx, now)
}
