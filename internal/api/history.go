package api

import (
	"net/http"
	"strconv"
	"time"

	"montagego/pkg/model"
	"montagego/pkg/store"
)

// SessionView is the in-memory view of the current run.
type SessionView interface {
	RunID() string
	Started() time.Time
	Recent(n int) []model.PlaybackEvent
	Counts() map[model.EventType]int
	Dropped() int64
}

// HistoryHandler serves the play history of this run and, when persisted, of earlier runs.
type HistoryHandler struct {
	session SessionView
	store   store.HistoryStore
}

// NewHistoryHandler creates a new HistoryHandler. st may be nil when history is not persisted.
func NewHistoryHandler(s SessionView, st store.HistoryStore) *HistoryHandler {
	return &HistoryHandler{session: s, store: st}
}

// HistoryResponse is the payload of GET /api/history.
type HistoryResponse struct {
	RunID   string                  `json:"run_id"`
	Started time.Time               `json:"started"`
	Source  string                  `json:"source"`
	Counts  map[model.EventType]int `json:"counts"`
	Dropped int64                   `json:"dropped"`
	Events  []model.PlaybackEvent   `json:"events"`
}

// HandleRecent handles GET /api/history?limit=N&source=session|db
func (h *HistoryHandler) HandleRecent(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r, 50)
	if !ok {
		return
	}

	resp := HistoryResponse{
		RunID:   h.session.RunID(),
		Started: h.session.Started(),
		Source:  "session",
		Counts:  h.session.Counts(),
		Dropped: h.session.Dropped(),
	}

	if r.URL.Query().Get("source") == "db" {
		if h.store == nil {
			http.Error(w, "history is not persisted", http.StatusNotFound)
			return
		}
		events, err := h.store.RecentEvents(r.Context(), limit)
		if err != nil {
			http.Error(w, "failed to read history", http.StatusInternalServerError)
			return
		}
		resp.Source = "db"
		resp.Events = events
	} else {
		resp.Events = h.session.Recent(limit)
	}

	if resp.Events == nil {
		resp.Events = []model.PlaybackEvent{}
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleClips handles GET /api/history/clips?since=24h&limit=N
func (h *HistoryHandler) HandleClips(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		http.Error(w, "history is not persisted", http.StatusNotFound)
		return
	}
	limit, ok := parseLimit(w, r, 20)
	if !ok {
		return
	}

	var since time.Time
	if s := r.URL.Query().Get("since"); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil || d < 0 {
			http.Error(w, "invalid since", http.StatusBadRequest)
			return
		}
		since = time.Now().Add(-d)
	}

	counts, err := h.store.ClipCounts(r.Context(), since, limit)
	if err != nil {
		http.Error(w, "failed to read history", http.StatusInternalServerError)
		return
	}
	if counts == nil {
		counts = []store.ClipCount{}
	}
	writeJSON(w, http.StatusOK, counts)
}

func parseLimit(w http.ResponseWriter, r *http.Request, def int) (int, bool) {
	s := r.URL.Query().Get("limit")
	if s == "" {
		return def, true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 || n > 1000 {
		http.Error(w, "invalid limit", http.StatusBadRequest)
		return 0, false
	}
	return n, true
}
