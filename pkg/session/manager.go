// Package session tracks the current run: its identity, recent playback events
// and their persistence.
package session

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"montagego/pkg/logging"
	"montagego/pkg/model"
	"montagego/pkg/store"
)

const (
	recentLimit = 200
	queueSize   = 512
)

// Manager collects playback events of one run. Record never blocks; events are
// persisted and written to the events log by Run.
type Manager struct {
	runID   string
	started time.Time
	history store.HistoryStore
	state   store.StateStore

	mu     sync.RWMutex
	recent []model.PlaybackEvent
	counts map[model.EventType]int

	queue   chan model.PlaybackEvent
	dropped atomic.Int64

	subsMu sync.Mutex
	subs   map[int]chan model.PlaybackEvent
	nextID int
}

// NewManager creates a manager with a fresh run id. Either store may be nil.
func NewManager(history store.HistoryStore, state store.StateStore) *Manager {
	return &Manager{
		runID:   uuid.NewString(),
		started: time.Now(),
		history: history,
		state:   state,
		counts:  make(map[model.EventType]int),
		queue:   make(chan model.PlaybackEvent, queueSize),
		subs:    make(map[int]chan model.PlaybackEvent),
	}
}

// RunID identifies this process run in the history.
func (m *Manager) RunID() string { return m.runID }

// Started returns when the run began.
func (m *Manager) Started() time.Time { return m.started }

// Record adds an event to the session history.
func (m *Manager) Record(ev model.PlaybackEvent) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	ev.RunID = m.runID

	m.mu.Lock()
	m.recent = append(m.recent, ev)
	if len(m.recent) > recentLimit {
		m.recent = m.recent[len(m.recent)-recentLimit:]
	}
	m.counts[ev.Type]++
	m.mu.Unlock()

	m.broadcast(ev)

	select {
	case m.queue <- ev:
	default:
		m.dropped.Add(1)
	}
}

// Run persists queued events until ctx is done, then flushes what is left.
func (m *Manager) Run(ctx context.Context) error {
	for {
		select {
		case ev := <-m.queue:
			m.persist(ctx, &ev)
		case <-ctx.Done():
			m.flush()
			return nil
		}
	}
}

func (m *Manager) flush() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		select {
		case ev := <-m.queue:
			m.persist(ctx, &ev)
		default:
			if n := m.dropped.Load(); n > 0 {
				slog.Warn("Session: events dropped under load", "count", n)
			}
			return
		}
	}
}

func (m *Manager) persist(ctx context.Context, ev *model.PlaybackEvent) {
	logging.LogEvent(ev)

	if m.history != nil {
		if err := m.history.SaveEvent(ctx, ev); err != nil {
			slog.Error("Session: failed to save event", "type", ev.Type, "error", err)
		}
	}
	if m.state != nil && ev.Type == model.EventSequenceLoaded {
		if err := m.state.SetState(ctx, store.KeyLastSequence, strconv.Itoa(ev.SequenceIndex)); err != nil {
			slog.Error("Session: failed to save resume point", "error", err)
		}
	}
}

// Recent returns up to n of the newest events, newest first.
func (m *Manager) Recent(n int) []model.PlaybackEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if n <= 0 || n > len(m.recent) {
		n = len(m.recent)
	}
	out := make([]model.PlaybackEvent, 0, n)
	for i := len(m.recent) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, m.recent[i])
	}
	return out
}

// Counts returns how many events of each type this run recorded.
func (m *Manager) Counts() map[model.EventType]int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[model.EventType]int, len(m.counts))
	for k, v := range m.counts {
		out[k] = v
	}
	return out
}

// Dropped returns how many events could not be queued for persistence.
func (m *Manager) Dropped() int64 { return m.dropped.Load() }

// Subscribe returns a channel receiving every new event. Slow subscribers miss
// events instead of blocking playback. Call the returned func to unsubscribe.
func (m *Manager) Subscribe(buffer int) (<-chan model.PlaybackEvent, func()) {
	ch := make(chan model.PlaybackEvent, buffer)

	m.subsMu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = ch
	m.subsMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.subsMu.Lock()
			delete(m.subs, id)
			m.subsMu.Unlock()
			close(ch)
		})
	}
}

func (m *Manager) broadcast(ev model.PlaybackEvent) {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	for _, ch := range m.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Reset clears the in-memory history. Persisted rows are kept.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recent = nil
	m.counts = make(map[model.EventType]int)
}
