package video

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"montagego/pkg/config"
	"montagego/pkg/logging"
	"montagego/pkg/media"
)

// WindowTitle is the title of every player window.
const WindowTitle = "montagego"

// Loader probes clips with ffprobe and plays them in borderless ffplay windows.
type Loader struct {
	ffplay string
	prober *Prober
}

// NewLoader creates an ffplay-backed loader.
func NewLoader(cfg *config.VideoConfig) *Loader {
	return &Loader{
		ffplay: cfg.FFplayPath,
		prober: &Prober{Path: cfg.FFprobePath, Timeout: 10 * time.Second},
	}
}

// LoadVideo checks the file and reads its frame size in the background.
func (l *Loader) LoadVideo(path string, done func(media.Video, error)) {
	go func() {
		if _, err := os.Stat(path); err != nil {
			done(nil, err)
			return
		}
		size := media.Size{}
		res, err := l.prober.Probe(context.Background(), path)
		if err != nil {
			// ffplay can still show it; the frame fills the display
			slog.Debug("Video: probe failed, size unknown", "path", path, "error", err)
		} else if s, ok := res.VideoSize(); ok {
			size = s
		}
		done(&Player{path: path, size: size, bin: l.ffplay, volume: 1.0}, nil)
	}()
}

// Player is a clip shown by an ffplay process. The process is started on the
// first frame drawn after Play, when the destination rectangle is known.
type Player struct {
	mu      sync.Mutex
	path    string
	size    media.Size
	bin     string
	volume  float64
	playing bool
	closed  bool
	proc    *process
	rect    media.Rect
}

type process struct {
	cmd    *exec.Cmd
	cancel context.CancelFunc
	done   chan struct{}
}

func (p *Player) Path() string { return p.path }

func (p *Player) Size() media.Size { return p.size }

// Play restarts the clip from the beginning on the next drawn frame.
func (p *Player) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return media.ErrClosed
	}
	p.killLocked()
	p.playing = true
	return nil
}

func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing = false
	p.killLocked()
}

// SetVolume takes effect at the next start of the clip.
func (p *Player) SetVolume(vol float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = min(max(vol, 0), 1)
}

func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing = false
	p.closed = true
	p.killLocked()
	return nil
}

// Running reports whether an ffplay process is alive for this clip.
func (p *Player) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.proc != nil
}

// present makes sure a process shows the clip in dst.
func (p *Player) present(dst media.Rect) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.playing || p.closed {
		return nil
	}
	if p.proc != nil {
		select {
		case <-p.proc.done:
			p.proc = nil
		default:
			if p.rect == dst {
				return nil
			}
			p.killLocked()
		}
	}

	bin := p.bin
	if bin == "" {
		bin = "ffplay"
	}
	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(ctx, bin, playerArgs(p.path, dst, p.volume)...)
	if err := cmd.Start(); err != nil {
		cancel()
		p.playing = false
		return fmt.Errorf("start %s: %w", bin, err)
	}
	proc := &process{cmd: cmd, cancel: cancel, done: make(chan struct{})}
	go func() {
		err := cmd.Wait()
		close(proc.done)
		if err != nil && ctx.Err() == nil {
			slog.Warn("Video: player exited", "path", p.path, "error", err)
		}
	}()
	p.proc = proc
	p.rect = dst
	slog.Debug("Video: player started", "path", p.path, "pid", cmd.Process.Pid, "w", dst.Width, "h", dst.Height)
	return nil
}

func (p *Player) killLocked() {
	if p.proc == nil {
		return
	}
	p.proc.cancel()
	<-p.proc.done
	p.proc = nil
}

// playerArgs builds the ffplay command line for a clip shown in dst.
// A zero volume drops the audio stream entirely.
func playerArgs(path string, dst media.Rect, volume float64) []string {
	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-noborder",
		"-loop", "0",
		"-window_title", WindowTitle,
		"-left", strconv.Itoa(dst.X),
		"-top", strconv.Itoa(dst.Y),
		"-x", strconv.Itoa(dst.Width),
		"-y", strconv.Itoa(dst.Height),
	}
	if volume <= 0 {
		args = append(args, "-an")
	} else {
		args = append(args, "-volume", strconv.Itoa(int(volume*100+0.5)))
	}
	return append(args, path)
}

// Window positions ffplay players on the display.
type Window struct {
	log    *slog.Logger
	mu     sync.Mutex
	failed map[string]bool
}

// NewWindow creates the ffplay renderer.
func NewWindow() *Window {
	return &Window{log: slog.Default().With("component", "video"), failed: make(map[string]bool)}
}

// DrawFrame starts or repositions the player of v. Clips from other backends are ignored.
func (w *Window) DrawFrame(v media.Video, dst media.Rect) {
	p, ok := v.(*Player)
	if !ok {
		return
	}
	if err := p.present(dst); err != nil {
		w.mu.Lock()
		defer w.mu.Unlock()
		// One warning per clip; the sequencer keeps drawing every frame
		if !w.failed[p.path] {
			w.failed[p.path] = true
			w.log.Warn("Video: cannot show clip", "path", p.path, "error", err)
		}
		return
	}
	logging.Trace(w.log, "Video: frame", "path", p.path)
}

// ErrNoPlayer is returned when the ffplay binary cannot be found.
var ErrNoPlayer = errors.New("ffplay not found")

// LookPath resolves the ffplay binary.
func LookPath(bin string) (string, error) {
	if bin == "" {
		bin = "ffplay"
	}
	p, err := exec.LookPath(bin)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoPlayer, err)
	}
	return p, nil
}
