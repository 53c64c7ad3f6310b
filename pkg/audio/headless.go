package audio

import (
	"fmt"
	"sync"
	"time"

	"montagego/pkg/media"
)

// HeadlessLoader measures files and simulates their playback against the clock.
// Nothing reaches a sound device.
type HeadlessLoader struct {
	// Measure returns the length of a file. Defaults to Duration.
	Measure func(path string) (time.Duration, error)
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// NewHeadlessLoader returns a loader that decodes files only to learn their length.
func NewHeadlessLoader() *HeadlessLoader {
	return &HeadlessLoader{Measure: Duration, Clock: time.Now}
}

func (l *HeadlessLoader) LoadAudio(path string, done func(media.Audio, error)) {
	measure, clock := l.Measure, l.Clock
	if measure == nil {
		measure = Duration
	}
	if clock == nil {
		clock = time.Now
	}
	go func() {
		length, err := measure(path)
		if err != nil {
			done(nil, err)
			return
		}
		if length <= 0 {
			done(nil, fmt.Errorf("%s: empty audio", path))
			return
		}
		done(&SilentTrack{path: path, length: length, now: clock, volume: 1.0}, nil)
	}()
}

// SilentTrack follows the timing of a real track without producing sound.
type SilentTrack struct {
	mu      sync.Mutex
	path    string
	length  time.Duration
	now     func() time.Time
	started time.Time
	pos     time.Duration // position when stopped
	playing bool
	looping bool
	closed  bool
	volume  float64
	timer   *time.Timer
	onEnded func()
	run     int
}

func (t *SilentTrack) Path() string { return t.path }

func (t *SilentTrack) Play() error { return t.start(false) }

func (t *SilentTrack) Loop() error { return t.start(true) }

func (t *SilentTrack) start(loop bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return media.ErrClosed
	}
	t.stopLocked()

	t.started = t.now()
	t.pos = 0
	t.playing = true
	t.looping = loop
	t.run++
	if !loop {
		run := t.run
		t.timer = time.AfterFunc(t.length, func() { t.finished(run) })
	}
	return nil
}

func (t *SilentTrack) finished(run int) {
	t.mu.Lock()
	if run != t.run || t.closed {
		t.mu.Unlock()
		return
	}
	t.playing = false
	t.pos = t.length
	fn := t.onEnded
	t.mu.Unlock()

	if fn != nil {
		fn()
	}
}

func (t *SilentTrack) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

func (t *SilentTrack) stopLocked() {
	if t.playing {
		t.pos = t.positionLocked()
	}
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.playing = false
	t.run++
}

func (t *SilentTrack) positionLocked() time.Duration {
	if !t.playing {
		return t.pos
	}
	elapsed := t.now().Sub(t.started)
	if t.looping {
		return elapsed % t.length
	}
	return min(elapsed, t.length)
}

func (t *SilentTrack) SetVolume(vol float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.volume = clampVolume(vol)
}

func (t *SilentTrack) Volume() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.volume
}

func (t *SilentTrack) CurrentTime() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.positionLocked()
}

// Length returns the duration of one pass.
func (t *SilentTrack) Length() time.Duration { return t.length }

func (t *SilentTrack) IsPlaying() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.playing
}

func (t *SilentTrack) OnEnded(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onEnded = fn
}

func (t *SilentTrack) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
	t.closed = true
	return nil
}
