package video

import (
	"log/slog"
	"os"
	"sync"

	"montagego/pkg/logging"
	"montagego/pkg/media"
)

// DefaultSize is the frame size assumed for headless clips.
var DefaultSize = media.Size{Width: 1280, Height: 720}

// HeadlessLoader hands out clips that only track their state.
// Files must exist; their content is not read.
type HeadlessLoader struct {
	Size media.Size
}

// NewHeadlessLoader returns a loader producing DefaultSize clips.
func NewHeadlessLoader() *HeadlessLoader {
	return &HeadlessLoader{Size: DefaultSize}
}

func (l *HeadlessLoader) LoadVideo(path string, done func(media.Video, error)) {
	size := l.Size
	go func() {
		if _, err := os.Stat(path); err != nil {
			done(nil, err)
			return
		}
		done(&Clip{path: path, size: size, volume: 1.0}, nil)
	}()
}

// Clip is a headless video.
type Clip struct {
	mu      sync.Mutex
	path    string
	size    media.Size
	volume  float64
	playing bool
	closed  bool
}

func (c *Clip) Path() string { return c.path }

func (c *Clip) Size() media.Size { return c.size }

func (c *Clip) Play() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return media.ErrClosed
	}
	c.playing = true
	return nil
}

func (c *Clip) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playing = false
}

func (c *Clip) SetVolume(vol float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.volume = vol
}

func (c *Clip) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playing = false
	c.closed = true
	return nil
}

// Playing reports whether the clip was started and not stopped.
func (c *Clip) Playing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playing
}

// Recorder is a renderer that logs which clip is on screen.
type Recorder struct {
	log    *slog.Logger
	mu     sync.Mutex
	last   string
	frames int64
}

// NewRecorder creates a headless renderer.
func NewRecorder() *Recorder {
	return &Recorder{log: slog.Default().With("component", "video")}
}

func (r *Recorder) DrawFrame(v media.Video, dst media.Rect) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames++
	if v.Path() != r.last {
		r.last = v.Path()
		r.log.Debug("Video: now showing", "path", r.last, "w", dst.Width, "h", dst.Height)
	}
	logging.Trace(r.log, "Video: frame", "path", r.last, "frame", r.frames)
}

// Frames returns the number of frames drawn so far.
func (r *Recorder) Frames() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

// Showing returns the path of the clip drawn last.
func (r *Recorder) Showing() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}
