// Package media defines the playback collaborators the sequencer drives.
// Loads are asynchronous: implementations call the completion func from any
// goroutine, exactly once, and consumers must not assume which one.
package media

import (
	"errors"
	"time"
)

// Kind names the media type of a handle, for errors and logs.
type Kind string

const (
	KindVideo Kind = "video"
	KindAudio Kind = "audio"
)

// ErrClosed is returned by operations on a released handle.
var ErrClosed = errors.New("media handle closed")

// Size is the native frame size of a video.
type Size struct {
	Width  int
	Height int
}

// Rect is a destination rectangle on the display.
type Rect struct {
	X, Y          int
	Width, Height int
}

// Video is a loaded clip.
type Video interface {
	Path() string
	Play() error
	Stop()
	// SetVolume sets the clip's own audio level (0..1). Clips are shown muted.
	SetVolume(vol float64)
	Size() Size
	// Close stops playback and releases decoder resources.
	Close() error
}

// Audio is a loaded sound.
type Audio interface {
	Path() string
	Play() error
	// Loop starts playback that restarts at the end until stopped.
	Loop() error
	Stop()
	SetVolume(vol float64)
	Volume() float64
	// CurrentTime returns the playback position within the current pass.
	CurrentTime() time.Duration
	IsPlaying() bool
	// OnEnded registers a callback fired when non-looped playback reaches its end.
	// It is not fired by Stop or Close.
	OnEnded(fn func())
	Close() error
}

// VideoLoader opens clips.
type VideoLoader interface {
	LoadVideo(path string, done func(Video, error))
}

// AudioLoader opens sounds.
type AudioLoader interface {
	LoadAudio(path string, done func(Audio, error))
}

// Renderer presents the current frame of a video in a destination rectangle.
type Renderer interface {
	DrawFrame(v Video, dst Rect)
}

// FitWidth scales a frame to the display width preserving its aspect ratio.
// Clips with missing size metadata fill the whole display.
func FitWidth(native Size, displayWidth, displayHeight int) Rect {
	if native.Width <= 0 || native.Height <= 0 {
		return Rect{Width: displayWidth, Height: displayHeight}
	}
	h := float64(native.Height) / float64(native.Width) * float64(displayWidth)
	return Rect{Width: displayWidth, Height: int(h + 0.5)}
}
