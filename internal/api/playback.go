package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"montagego/pkg/sequencer"
)

// Playback is the part of the sequencer the API may touch from request goroutines.
type Playback interface {
	Snapshot() sequencer.Snapshot
	RequestSequence(index int) error
	RequestSequenceByName(name string) (int, error)
}

// PlaybackHandler handles playback status and sequence selection.
type PlaybackHandler struct {
	seq Playback
}

// NewPlaybackHandler creates a new PlaybackHandler.
func NewPlaybackHandler(seq Playback) *PlaybackHandler {
	return &PlaybackHandler{seq: seq}
}

// SelectRequest names the sequence to switch to, by index or by name.
type SelectRequest struct {
	Index *int   `json:"index,omitempty"`
	Name  string `json:"name,omitempty"`
}

// SelectResponse confirms a scheduled switch.
type SelectResponse struct {
	Status string `json:"status"`
	Index  int    `json:"index"`
}

// HandleStatus handles GET /api/status
func (h *PlaybackHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.seq.Snapshot())
}

// HandleSelect handles POST /api/sequence
func (h *PlaybackHandler) HandleSelect(w http.ResponseWriter, r *http.Request) {
	var req SelectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	var idx int
	var err error
	switch {
	case req.Index != nil:
		idx = *req.Index
		err = h.seq.RequestSequence(idx)
	case req.Name != "":
		idx, err = h.seq.RequestSequenceByName(req.Name)
	default:
		http.Error(w, "index or name is required", http.StatusBadRequest)
		return
	}

	switch {
	case errors.Is(err, sequencer.ErrIndexOutOfRange):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, sequencer.ErrUnknownSequence):
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	slog.Info("Sequence switch requested via API", "index", idx)
	writeJSON(w, http.StatusAccepted, SelectResponse{Status: "scheduled", Index: idx})
}
