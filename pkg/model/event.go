package model

import "time"

// EventType classifies a playback event.
type EventType string

const (
	EventSequenceLoaded    EventType = "sequence_loaded"
	EventClipShown         EventType = "clip_shown"
	EventSoundtrackStarted EventType = "soundtrack_started"
	EventNarrationStarted  EventType = "narration_started"
	EventNarrationEnded    EventType = "narration_ended"
	EventPoolReplenished   EventType = "pool_replenished"
	EventLoadFailed        EventType = "load_failed"
)

// PlaybackEvent is a single entry of the play history.
type PlaybackEvent struct {
	ID            int64     `json:"id,omitempty"`
	RunID         string    `json:"run_id"`
	Type          EventType `json:"type"`
	SequenceIndex int       `json:"sequence_index"`
	Sequence      string    `json:"sequence"`
	Path          string    `json:"path,omitempty"`
	Detail        string    `json:"detail,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}
