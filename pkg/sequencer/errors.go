package sequencer

import (
	"errors"
	"fmt"

	"montagego/pkg/media"
)

var (
	// ErrIndexOutOfRange is returned when a sequence index is outside the catalog.
	ErrIndexOutOfRange = errors.New("sequence index out of range")
	// ErrUnknownSequence is returned when no sequence carries the requested name.
	ErrUnknownSequence = errors.New("unknown sequence")
	// ErrEmptyPool is returned when no clip is available even after replenishing.
	ErrEmptyPool = errors.New("clip pool exhausted")
	// ErrResourceLoad marks a media file that could not be loaded or started.
	ErrResourceLoad = errors.New("resource load failure")
)

// LoadError describes a media file that failed to load or play.
type LoadError struct {
	Kind media.Kind
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Kind, e.Path, e.Err)
}

// Unwrap exposes both ErrResourceLoad and the underlying cause to errors.Is.
func (e *LoadError) Unwrap() []error {
	return []error{ErrResourceLoad, e.Err}
}
