package sequencer

import (
	"sync"
	"time"
)

// inbox carries completion events from media goroutines to the tick.
// It is unbounded so a loader completing synchronously never blocks the tick.
type inbox struct {
	mu     sync.Mutex
	events []func(now time.Time)
}

func (b *inbox) post(fn func(now time.Time)) {
	b.mu.Lock()
	b.events = append(b.events, fn)
	b.mu.Unlock()
}

// drain runs queued events in arrival order, including events posted while draining.
func (b *inbox) drain(now time.Time) int {
	n := 0
	for {
		b.mu.Lock()
		events := b.events
		b.events = nil
		b.mu.Unlock()

		if len(events) == 0 {
			return n
		}
		for _, fn := range events {
			fn(now)
		}
		n += len(events)
	}
}
