// Package mediatest provides in-memory media collaborators for tests.
package mediatest

import (
	"fmt"
	"sync"
	"time"

	"montagego/pkg/media"
)

// Video is a fake clip that records what was done to it.
type Video struct {
	mu      sync.Mutex
	path    string
	size    media.Size
	playing bool
	plays   int
	stops   int
	volume  float64
	closed  bool
}

func (v *Video) Path() string { return v.path }

func (v *Video) Play() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return media.ErrClosed
	}
	v.playing = true
	v.plays++
	return nil
}

func (v *Video) Stop() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.playing = false
	v.stops++
}

func (v *Video) SetVolume(vol float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.volume = vol
}

func (v *Video) Size() media.Size { return v.size }

func (v *Video) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.playing = false
	v.closed = true
	return nil
}

// Playing reports whether Play was called without a later Stop.
func (v *Video) Playing() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.playing
}

// Plays returns how often Play was called.
func (v *Video) Plays() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.plays
}

// Volume returns the last volume set.
func (v *Video) Volume() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.volume
}

// Closed reports whether the clip was released.
func (v *Video) Closed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.closed
}

// VideoLoader completes loads synchronously unless Manual is set.
type VideoLoader struct {
	mu      sync.Mutex
	Size    media.Size
	Fail    map[string]bool
	Manual  bool
	loaded  []*Video
	pending []func()
}

// NewVideoLoader returns a loader producing 1280x720 clips.
func NewVideoLoader() *VideoLoader {
	return &VideoLoader{Size: media.Size{Width: 1280, Height: 720}, Fail: map[string]bool{}}
}

func (l *VideoLoader) LoadVideo(path string, done func(media.Video, error)) {
	l.mu.Lock()
	complete := func() {
		if l.Fail[path] {
			done(nil, fmt.Errorf("open %s: no such file", path))
			return
		}
		v := &Video{path: path, size: l.Size, volume: 1}
		l.mu.Lock()
		l.loaded = append(l.loaded, v)
		l.mu.Unlock()
		done(v, nil)
	}
	if l.Manual {
		l.pending = append(l.pending, complete)
		l.mu.Unlock()
		return
	}
	l.mu.Unlock()
	complete()
}

// CompleteAll finishes every pending manual load.
func (l *VideoLoader) CompleteAll() {
	l.mu.Lock()
	pending := l.pending
	l.pending = nil
	l.mu.Unlock()
	for _, fn := range pending {
		fn()
	}
}

// Loaded returns every clip handed out so far.
func (l *VideoLoader) Loaded() []*Video {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*Video, len(l.loaded))
	copy(out, l.loaded)
	return out
}

// Audio is a fake sound whose position and end are driven by the test.
type Audio struct {
	mu      sync.Mutex
	path    string
	playing bool
	looping bool
	volume  float64
	pos     time.Duration
	closed  bool
	plays   int
	onEnded func()
}

func (a *Audio) Path() string { return a.path }

func (a *Audio) Play() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return media.ErrClosed
	}
	a.playing = true
	a.plays++
	return nil
}

func (a *Audio) Loop() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return media.ErrClosed
	}
	a.playing = true
	a.looping = true
	a.plays++
	return nil
}

func (a *Audio) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.playing = false
}

func (a *Audio) SetVolume(vol float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.volume = vol
}

func (a *Audio) Volume() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.volume
}

func (a *Audio) CurrentTime() time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pos
}

func (a *Audio) IsPlaying() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.playing
}

func (a *Audio) OnEnded(fn func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onEnded = fn
}

func (a *Audio) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.playing = false
	a.closed = true
	return nil
}

// SetTime moves the playback position.
func (a *Audio) SetTime(d time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pos = d
}

// Finish ends playback naturally and fires the OnEnded callback.
func (a *Audio) Finish() {
	a.mu.Lock()
	a.playing = false
	fn := a.onEnded
	a.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Looping reports whether Loop was used to start playback.
func (a *Audio) Looping() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.looping
}

// Closed reports whether the sound was released.
func (a *Audio) Closed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.closed
}

// AudioLoader completes loads synchronously unless Manual is set.
type AudioLoader struct {
	mu      sync.Mutex
	Fail    map[string]bool
	Manual  bool
	loaded  []*Audio
	pending []func()
}

// NewAudioLoader returns an empty fake loader.
func NewAudioLoader() *AudioLoader {
	return &AudioLoader{Fail: map[string]bool{}}
}

func (l *AudioLoader) LoadAudio(path string, done func(media.Audio, error)) {
	l.mu.Lock()
	complete := func() {
		if l.Fail[path] {
			done(nil, fmt.Errorf("decode %s: unsupported format", path))
			return
		}
		a := &Audio{path: path, volume: 1}
		l.mu.Lock()
		l.loaded = append(l.loaded, a)
		l.mu.Unlock()
		done(a, nil)
	}
	if l.Manual {
		l.pending = append(l.pending, complete)
		l.mu.Unlock()
		return
	}
	l.mu.Unlock()
	complete()
}

// CompleteAll finishes every pending manual load.
func (l *AudioLoader) CompleteAll() {
	l.mu.Lock()
	pending := l.pending
	l.pending = nil
	l.mu.Unlock()
	for _, fn := range pending {
		fn()
	}
}

// Loaded returns every sound handed out so far.
func (l *AudioLoader) Loaded() []*Audio {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*Audio, len(l.loaded))
	copy(out, l.loaded)
	return out
}

// Last returns the most recently loaded sound whose path matches, or nil.
func (l *AudioLoader) Last(path string) *Audio {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := len(l.loaded) - 1; i >= 0; i-- {
		if l.loaded[i].path == path {
			return l.loaded[i]
		}
	}
	return nil
}

// Renderer records the last frame drawn.
type Renderer struct {
	mu    sync.Mutex
	last  media.Video
	rect  media.Rect
	count int
}

func (r *Renderer) DrawFrame(v media.Video, dst media.Rect) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last = v
	r.rect = dst
	r.count++
}

// Last returns the last drawn video and its rectangle.
func (r *Renderer) Last() (media.Video, media.Rect) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last, r.rect
}

// Count returns the number of frames drawn.
func (r *Renderer) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}
