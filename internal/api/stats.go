package api

import (
	"net/http"

	"montagego/pkg/core"
	"montagego/pkg/model"
)

// ResourceSampler provides process resource usage.
type ResourceSampler interface {
	Last() (core.ResourceSample, bool)
	Sample() core.ResourceSample
}

// FrameCounter reports heartbeat progress.
type FrameCounter interface {
	Frames() int64
	Overruns() int64
}

// StatsHandler serves GET /api/stats.
type StatsHandler struct {
	monitor ResourceSampler
	frames  FrameCounter
	session SessionView
}

func NewStatsHandler(m ResourceSampler, f FrameCounter, s SessionView) *StatsHandler {
	return &StatsHandler{monitor: m, frames: f, session: s}
}

type FrameStats struct {
	Frames   int64 `json:"frames"`
	Overruns int64 `json:"overruns"`
}

type StatsResponse struct {
	Diagnostics []core.ComponentStats   `json:"diagnostics"`
	Goroutines  int                     `json:"goroutines"`
	HeapMB      uint64                  `json:"heap_mb"`
	Frames      FrameStats              `json:"frames"`
	Events      map[model.EventType]int `json:"events"`
	Dropped     int64                   `json:"dropped_events"`
}

func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var resp StatsResponse

	if h.monitor != nil {
		sample, ok := h.monitor.Last()
		if !ok {
			sample = h.monitor.Sample()
		}
		resp.Diagnostics = sample.Components
		resp.Goroutines = sample.Goroutines
		resp.HeapMB = sample.HeapMB
	}
	if resp.Diagnostics == nil {
		resp.Diagnostics = []core.ComponentStats{}
	}

	if h.frames != nil {
		resp.Frames = FrameStats{Frames: h.frames.Frames(), Overruns: h.frames.Overruns()}
	}

	if h.session != nil {
		resp.Events = h.session.Counts()
		resp.Dropped = h.session.Dropped()
	}

	writeJSON(w, http.StatusOK, resp)
}
