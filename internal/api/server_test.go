package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"montagego/pkg/core"
	"montagego/pkg/model"
	"montagego/pkg/sequencer"
	"montagego/pkg/store"
)

type mockPlayback struct {
	mu        sync.Mutex
	snap      sequencer.Snapshot
	names     map[string]int
	size      int
	requested []int
}

func (m *mockPlayback) Snapshot() sequencer.Snapshot { return m.snap }

func (m *mockPlayback) RequestSequence(index int) error {
	if index < 0 || index >= m.size {
		return fmt.Errorf("%w: %d", sequencer.ErrIndexOutOfRange, index)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requested = append(m.requested, index)
	return nil
}

func (m *mockPlayback) RequestSequenceByName(name string) (int, error) {
	idx, ok := m.names[name]
	if !ok {
		return -1, fmt.Errorf("%w: %q", sequencer.ErrUnknownSequence, name)
	}
	return idx, m.RequestSequence(idx)
}

type mockSession struct {
	events []model.PlaybackEvent
}

func (m *mockSession) RunID() string      { return "run-1" }
func (m *mockSession) Started() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
func (m *mockSession) Recent(n int) []model.PlaybackEvent {
	if n < len(m.events) {
		return m.events[:n]
	}
	return m.events
}
func (m *mockSession) Counts() map[model.EventType]int {
	return map[model.EventType]int{model.EventClipShown: len(m.events)}
}
func (m *mockSession) Dropped() int64 { return 2 }

type mockHistory struct {
	events []model.PlaybackEvent
	counts []store.ClipCount
	err    error
	since  time.Time
}

func (m *mockHistory) SaveEvent(ctx context.Context, ev *model.PlaybackEvent) error { return nil }
func (m *mockHistory) RecentEvents(ctx context.Context, limit int) ([]model.PlaybackEvent, error) {
	return m.events, m.err
}
func (m *mockHistory) ClipCounts(ctx context.Context, since time.Time, limit int) ([]store.ClipCount, error) {
	m.since = since
	return m.counts, m.err
}

type mockMonitor struct{ sampled int }

func (m *mockMonitor) Last() (core.ResourceSample, bool) { return core.ResourceSample{}, false }
func (m *mockMonitor) Sample() core.ResourceSample {
	m.sampled++
	return core.ResourceSample{
		Components: []core.ComponentStats{{Name: "Server", Processes: 1, MemoryMB: 42}},
		Goroutines: 7,
	}
}

type mockFrames struct{}

func (mockFrames) Frames() int64   { return 600 }
func (mockFrames) Overruns() int64 { return 3 }

type mockSource struct {
	ch chan model.PlaybackEvent
}

func (m *mockSource) Subscribe(buffer int) (<-chan model.PlaybackEvent, func()) {
	return m.ch, func() {}
}

func newTestServer(pb *mockPlayback, sess *mockSession, hist store.HistoryStore) http.Handler {
	var history *HistoryHandler
	var view SessionView
	if sess != nil {
		view = sess
		history = NewHistoryHandler(sess, hist)
	}
	srv := NewServer(":0",
		NewPlaybackHandler(pb),
		history,
		NewStatsHandler(&mockMonitor{}, mockFrames{}, view),
		nil,
		func() {},
	)
	return srv.Handler
}

func TestServer_HealthAndVersion(t *testing.T) {
	h := newTestServer(&mockPlayback{}, nil, nil)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "OK", rr.Body.String())

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/api/version", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	var v map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v))
	assert.NotEmpty(t, v["version"])

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("POST", "/health", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestPlaybackHandler_Status(t *testing.T) {
	pb := &mockPlayback{snap: sequencer.Snapshot{Active: true, Sequence: "harbour", SequenceIndex: 2, ClipsPlayed: 3}}
	h := newTestServer(pb, nil, nil)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/api/status", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var got sequencer.Snapshot
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "harbour", got.Sequence)
	assert.Equal(t, 2, got.SequenceIndex)
	assert.Equal(t, 3, got.ClipsPlayed)
}

func TestPlaybackHandler_Select(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode int
		wantReq  []int
	}{
		{"By index", `{"index": 1}`, http.StatusAccepted, []int{1}},
		{"Index zero", `{"index": 0}`, http.StatusAccepted, []int{0}},
		{"By name", `{"name": "forest"}`, http.StatusAccepted, []int{2}},
		{"Out of range", `{"index": 9}`, http.StatusBadRequest, nil},
		{"Negative", `{"index": -1}`, http.StatusBadRequest, nil},
		{"Unknown name", `{"name": "desert"}`, http.StatusNotFound, nil},
		{"Empty request", `{}`, http.StatusBadRequest, nil},
		{"Invalid JSON", `{invalid}`, http.StatusBadRequest, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pb := &mockPlayback{size: 3, names: map[string]int{"forest": 2}}
			h := newTestServer(pb, nil, nil)

			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest("POST", "/api/sequence", bytes.NewBufferString(tt.body)))

			assert.Equal(t, tt.wantCode, rr.Code, rr.Body.String())
			assert.Equal(t, tt.wantReq, pb.requested)
		})
	}
}

func TestHistoryHandler_Recent(t *testing.T) {
	sess := &mockSession{events: []model.PlaybackEvent{
		{Type: model.EventClipShown, Path: "b.mp4"},
		{Type: model.EventClipShown, Path: "a.mp4"},
	}}
	hist := &mockHistory{events: []model.PlaybackEvent{{ID: 9, Type: model.EventSequenceLoaded}}}
	h := newTestServer(&mockPlayback{}, sess, hist)

	t.Run("Session", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest("GET", "/api/history?limit=1", nil))
		require.Equal(t, http.StatusOK, rr.Code)

		var resp HistoryResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "run-1", resp.RunID)
		assert.Equal(t, "session", resp.Source)
		assert.Equal(t, int64(2), resp.Dropped)
		require.Len(t, resp.Events, 1)
		assert.Equal(t, "b.mp4", resp.Events[0].Path)
	})

	t.Run("Database", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest("GET", "/api/history?source=db", nil))
		require.Equal(t, http.StatusOK, rr.Code)

		var resp HistoryResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "db", resp.Source)
		require.Len(t, resp.Events, 1)
		assert.Equal(t, int64(9), resp.Events[0].ID)
	})

	t.Run("Invalid limit", func(t *testing.T) {
		for _, q := range []string{"0", "-3", "abc", "5000"} {
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest("GET", "/api/history?limit="+q, nil))
			assert.Equal(t, http.StatusBadRequest, rr.Code, q)
		}
	})

	t.Run("Store error", func(t *testing.T) {
		h := newTestServer(&mockPlayback{}, sess, &mockHistory{err: errors.New("disk I/O error")})
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest("GET", "/api/history?source=db", nil))
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})

	t.Run("Not persisted", func(t *testing.T) {
		h := newTestServer(&mockPlayback{}, sess, nil)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest("GET", "/api/history?source=db", nil))
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestHistoryHandler_Clips(t *testing.T) {
	hist := &mockHistory{counts: []store.ClipCount{{Path: "a.mp4", Sequence: "harbour", Count: 4}}}
	h := newTestServer(&mockPlayback{}, &mockSession{}, hist)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/api/history/clips?since=24h", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var counts []store.ClipCount
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &counts))
	require.Len(t, counts, 1)
	assert.Equal(t, 4, counts[0].Count)
	assert.WithinDuration(t, time.Now().Add(-24*time.Hour), hist.since, time.Minute)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/api/history/clips?since=yesterday", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestStatsHandler(t *testing.T) {
	h := newTestServer(&mockPlayback{}, &mockSession{events: make([]model.PlaybackEvent, 5)}, nil)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/api/stats", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var resp StatsResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Diagnostics, 1)
	assert.Equal(t, uint64(42), resp.Diagnostics[0].MemoryMB)
	assert.Equal(t, 7, resp.Goroutines)
	assert.Equal(t, int64(600), resp.Frames.Frames)
	assert.Equal(t, int64(3), resp.Frames.Overruns)
	assert.Equal(t, 5, resp.Events[model.EventClipShown])
	assert.Equal(t, int64(2), resp.Dropped)
}

func TestServer_Shutdown(t *testing.T) {
	called := make(chan struct{})
	srv := NewServer(":0", NewPlaybackHandler(&mockPlayback{}), nil, nil, nil, func() { close(called) })

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest("POST", "/api/shutdown", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	select {
	case <-called:
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown func not called")
	}
}

func TestEventsHandler(t *testing.T) {
	src := &mockSource{ch: make(chan model.PlaybackEvent, 4)}
	ts := httptest.NewServer(NewEventsHandler(src))
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	src.ch <- model.PlaybackEvent{Type: model.EventClipShown, Sequence: "harbour", Path: "a.mp4"}

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var got model.PlaybackEvent
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, model.EventClipShown, got.Type)
	assert.Equal(t, "a.mp4", got.Path)

	// Closing the source ends the stream
	close(src.ch)
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
}
