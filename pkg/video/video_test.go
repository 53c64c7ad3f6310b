package video

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"montagego/pkg/config"
	"montagego/pkg/media"
)

const probeJSON = `{
  "streams": [
    {"index": 0, "codec_name": "aac", "codec_type": "audio"},
    {"index": 1, "codec_name": "h264", "codec_type": "video", "width": 1280, "height": 544, "duration": "12.480000"}
  ],
  "format": {"filename": "clip.mp4", "format_name": "mov,mp4,m4a,3gp,3g2,mj2", "duration": "12.512000"}
}`

func TestParseProbe(t *testing.T) {
	res, err := parseProbe([]byte(probeJSON))
	require.NoError(t, err)

	size, ok := res.VideoSize()
	assert.True(t, ok)
	assert.Equal(t, media.Size{Width: 1280, Height: 544}, size)

	d, err := res.Duration()
	require.NoError(t, err)
	assert.Equal(t, 12512*time.Millisecond, d)

	_, err = parseProbe([]byte("{not json"))
	assert.Error(t, err)
}

func TestProbeResult_Edges(t *testing.T) {
	tests := []struct {
		name    string
		result  ProbeResult
		hasSize bool
		durErr  bool
	}{
		{"audio only", ProbeResult{Streams: []Stream{{CodecType: "audio"}}, Format: Format{Duration: "3.0"}}, false, false},
		{"missing duration", ProbeResult{Streams: []Stream{{CodecType: "video", Width: 10, Height: 10}}}, true, true},
		{"bad duration", ProbeResult{Format: Format{Duration: "N/A"}}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := tt.result.VideoSize()
			assert.Equal(t, tt.hasSize, ok)
			_, err := tt.result.Duration()
			assert.Equal(t, tt.durErr, err != nil)
		})
	}
}

func TestProbe_Failures(t *testing.T) {
	p := &Prober{Path: "/nonexistent/ffprobe"}
	_, err := p.Probe(context.Background(), "")
	assert.ErrorContains(t, err, "cannot be empty")

	_, err = p.Probe(context.Background(), "clip.mp4")
	assert.ErrorContains(t, err, "ffprobe failed")
}

func TestPlayerArgs(t *testing.T) {
	dst := media.Rect{Width: 1920, Height: 817}

	muted := playerArgs("/media/a.mp4", dst, 0)
	assert.Contains(t, muted, "-an")
	assert.NotContains(t, muted, "-volume")
	assert.Equal(t, "/media/a.mp4", muted[len(muted)-1])
	assert.Subset(t, muted, []string{"-noborder", "-x", "1920", "-y", "817", "-left", "0", "-top", "0"})

	loud := playerArgs("/media/a.mp4", dst, 0.4)
	assert.NotContains(t, loud, "-an")
	assert.Subset(t, loud, []string{"-volume", "40"})
}

func touch(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	return path
}

func load(t *testing.T, l media.VideoLoader, path string) (media.Video, error) {
	t.Helper()
	type result struct {
		v   media.Video
		err error
	}
	ch := make(chan result, 1)
	l.LoadVideo(path, func(v media.Video, err error) { ch <- result{v, err} })
	select {
	case r := <-ch:
		return r.v, r.err
	case <-time.After(5 * time.Second):
		t.Fatal("load did not complete")
		return nil, nil
	}
}

func TestLoader_ProbeFailureKeepsClip(t *testing.T) {
	l := NewLoader(&config.VideoConfig{FFplayPath: "/nonexistent/ffplay", FFprobePath: "/nonexistent/ffprobe"})

	v, err := load(t, l, touch(t, "clip.mp4"))
	require.NoError(t, err)
	assert.Equal(t, media.Size{}, v.Size())

	_, err = load(t, l, filepath.Join(t.TempDir(), "missing.mp4"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPlayer_Lifecycle(t *testing.T) {
	p := &Player{path: "clip.mp4", bin: "/nonexistent/ffplay", volume: 1}

	// Not playing: drawing does nothing
	require.NoError(t, p.present(media.Rect{Width: 100, Height: 50}))
	assert.False(t, p.Running())

	p.SetVolume(0)
	require.NoError(t, p.Play())
	err := p.present(media.Rect{Width: 100, Height: 50})
	assert.Error(t, err, "missing binary cannot start")
	assert.False(t, p.Running())

	p.SetVolume(3)
	assert.Equal(t, 1.0, p.volume)

	require.NoError(t, p.Close())
	assert.ErrorIs(t, p.Play(), media.ErrClosed)
}

func TestWindow_IgnoresForeignClips(t *testing.T) {
	w := NewWindow()
	w.DrawFrame(&Clip{path: "x.mp4"}, media.Rect{Width: 10, Height: 10})

	p := &Player{path: "clip.mp4", bin: "/nonexistent/ffplay", volume: 1}
	require.NoError(t, p.Play())
	w.DrawFrame(p, media.Rect{Width: 10, Height: 10})
	w.DrawFrame(p, media.Rect{Width: 10, Height: 10})
	assert.True(t, w.failed["clip.mp4"])
}

func TestLookPath(t *testing.T) {
	_, err := LookPath("/nonexistent/ffplay")
	assert.ErrorIs(t, err, ErrNoPlayer)
}

func TestHeadless(t *testing.T) {
	l := NewHeadlessLoader()
	v, err := load(t, l, touch(t, "clip.mp4"))
	require.NoError(t, err)
	assert.Equal(t, DefaultSize, v.Size())

	clip := v.(*Clip)
	require.NoError(t, clip.Play())
	assert.True(t, clip.Playing())
	clip.Stop()
	assert.False(t, clip.Playing())
	require.NoError(t, clip.Close())
	assert.ErrorIs(t, clip.Play(), media.ErrClosed)

	_, err = load(t, l, filepath.Join(t.TempDir(), "missing.mp4"))
	assert.Error(t, err)

	r := NewRecorder()
	r.DrawFrame(clip, media.Rect{Width: 1920, Height: 1080})
	r.DrawFrame(clip, media.Rect{Width: 1920, Height: 1080})
	assert.Equal(t, int64(2), r.Frames())
	assert.Equal(t, clip.Path(), r.Showing())
}
