package store

import (
	"context"
	"time"

	"montagego/pkg/model"
)

// HistoryStore handles the play history.
type HistoryStore interface {
	SaveEvent(ctx context.Context, ev *model.PlaybackEvent) error
	RecentEvents(ctx context.Context, limit int) ([]model.PlaybackEvent, error)
	ClipCounts(ctx context.Context, since time.Time, limit int) ([]ClipCount, error)
}

// StateStore handles persistent application state.
type StateStore interface {
	GetState(ctx context.Context, key string) (string, bool)
	SetState(ctx context.Context, key, val string) error
	DeleteState(ctx context.Context, key string) error
}

// Store combines all persistence concerns.
type Store interface {
	HistoryStore
	StateStore
	Close() error
}

// ClipCount is how often a clip was shown.
type ClipCount struct {
	Path     string    `json:"path"`
	Sequence string    `json:"sequence"`
	Count    int       `json:"count"`
	LastShow time.Time `json:"last_shown"`
}

// State keys.
const (
	KeyLastSequence = "last_sequence"
	KeyCatalogMTime = "catalog_mtime"
)
