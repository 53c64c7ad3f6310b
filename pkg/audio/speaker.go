package audio

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"

	"montagego/pkg/config"
	"montagego/pkg/media"
)

// Loader decodes files and plays them on the system sound device.
// The speaker is initialized once, on the first load, at the configured rate.
type Loader struct {
	mu          sync.Mutex
	sampleRate  beep.SampleRate
	initialized bool
}

// NewLoader creates a speaker-backed loader.
func NewLoader(cfg *config.AudioConfig) *Loader {
	rate := 48000
	if cfg != nil && cfg.SampleRate > 0 {
		rate = cfg.SampleRate
	}
	return &Loader{sampleRate: beep.SampleRate(rate)}
}

// LoadAudio decodes path in the background and hands the track to done.
func (l *Loader) LoadAudio(path string, done func(media.Audio, error)) {
	go func() {
		t, err := l.open(path)
		if err != nil {
			done(nil, err)
			return
		}
		done(t, nil)
	}()
}

func (l *Loader) open(path string) (*Track, error) {
	streamer, format, err := Decode(path)
	if err != nil {
		return nil, err
	}
	if err := l.ensureSpeakerInitialized(); err != nil {
		streamer.Close()
		return nil, err
	}
	slog.Debug("Audio: track decoded", "path", path, "rate", format.SampleRate, "length", format.SampleRate.D(streamer.Len()))
	return &Track{
		path:   path,
		source: streamer,
		format: format,
		rate:   l.sampleRate,
		volume: 1.0,
	}, nil
}

func (l *Loader) ensureSpeakerInitialized() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.initialized {
		return nil
	}
	if err := speaker.Init(l.sampleRate, l.sampleRate.N(time.Second/10)); err != nil {
		slog.Error("Failed to initialize speaker", "error", err)
		return fmt.Errorf("speaker init: %w", err)
	}
	l.initialized = true
	return nil
}

// Track is one decoded file attached to the speaker mixer.
type Track struct {
	mu      sync.Mutex
	path    string
	source  beep.StreamSeekCloser
	format  beep.Format
	rate    beep.SampleRate
	ctrl    *beep.Ctrl
	gain    *effects.Volume
	ramp    *rampGain
	volume  float64
	playing bool
	closed  bool
	onEnded func()
	// run identifies the current playback; end callbacks of earlier runs are dropped.
	run int
}

func (t *Track) Path() string { return t.path }

// Play starts playback from the beginning.
func (t *Track) Play() error { return t.start(false) }

// Loop starts playback from the beginning and repeats until stopped.
func (t *Track) Loop() error { return t.start(true) }

func (t *Track) start(loop bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return media.ErrClosed
	}
	t.stopLocked()

	if err := t.source.Seek(0); err != nil {
		return fmt.Errorf("rewind %s: %w", t.path, err)
	}

	var s beep.Streamer = t.source
	if loop {
		looped, err := beep.Loop2(t.source)
		if err != nil {
			return fmt.Errorf("loop %s: %w", t.path, err)
		}
		s = looped
	}
	if t.format.SampleRate != t.rate {
		s = beep.Resample(3, t.format.SampleRate, t.rate, s)
	}

	t.gain = &effects.Volume{
		Streamer: s,
		Base:     2,
		Volume:   volumeToPower(t.volume),
		Silent:   t.volume <= silentBelow,
	}
	t.ramp = newRampGain(t.gain, 0)
	t.ramp.RampTo(1, t.rate, declick)
	t.ctrl = &beep.Ctrl{Streamer: t.ramp}
	t.playing = true
	t.run++
	run := t.run

	speaker.Play(beep.Seq(t.ctrl, beep.Callback(func() {
		// Runs on the speaker goroutine with the mixer locked
		go t.finished(run)
	})))
	return nil
}

func (t *Track) finished(run int) {
	t.mu.Lock()
	if run != t.run || t.closed {
		t.mu.Unlock()
		return
	}
	t.playing = false
	t.ctrl = nil
	t.gain = nil
	t.ramp = nil
	fn := t.onEnded
	t.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Stop halts playback without firing OnEnded.
func (t *Track) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

func (t *Track) stopLocked() {
	if t.ctrl != nil {
		speaker.Lock()
		t.ctrl.Streamer = nil
		speaker.Unlock()
		t.ctrl = nil
		t.gain = nil
		t.ramp = nil
	}
	t.playing = false
	t.run++
}

// SetVolume sets the linear level (0..1), applied live when playing.
func (t *Track) SetVolume(vol float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	vol = clampVolume(vol)
	t.volume = vol
	if t.gain != nil {
		speaker.Lock()
		t.gain.Volume = volumeToPower(vol)
		t.gain.Silent = vol <= silentBelow
		speaker.Unlock()
	}
}

func (t *Track) Volume() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.volume
}

// CurrentTime returns the position within the current pass of the file.
func (t *Track) CurrentTime() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed || t.format.SampleRate == 0 {
		return 0
	}
	if t.ctrl == nil {
		return t.format.SampleRate.D(t.source.Position())
	}
	speaker.Lock()
	pos := t.source.Position()
	speaker.Unlock()
	return t.format.SampleRate.D(pos)
}

// Length returns the duration of one pass.
func (t *Track) Length() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed || t.format.SampleRate == 0 {
		return 0
	}
	return t.format.SampleRate.D(t.source.Len())
}

func (t *Track) IsPlaying() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.playing
}

func (t *Track) OnEnded(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onEnded = fn
}

// Close stops playback and closes the decoder. Closing twice is a no-op.
func (t *Track) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.stopLocked()
	t.closed = true
	return t.source.Close()
}
