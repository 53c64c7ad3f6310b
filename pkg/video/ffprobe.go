// Package video shows clips in an external ffplay window, or tracks them headless.
package video

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"time"

	"montagego/pkg/media"
)

// Stream is one stream reported by ffprobe.
type Stream struct {
	Index     int    `json:"index"`
	CodecName string `json:"codec_name"`
	CodecType string `json:"codec_type"`
	Width     int    `json:"width,omitempty"`
	Height    int    `json:"height,omitempty"`
	Duration  string `json:"duration,omitempty"`
}

// Format is the container section reported by ffprobe.
type Format struct {
	Filename   string `json:"filename"`
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
}

// ProbeResult holds the metadata of one media file.
type ProbeResult struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// VideoSize returns the frame size of the first video stream.
func (pr *ProbeResult) VideoSize() (media.Size, bool) {
	for _, s := range pr.Streams {
		if s.CodecType == "video" && s.Width > 0 && s.Height > 0 {
			return media.Size{Width: s.Width, Height: s.Height}, true
		}
	}
	return media.Size{}, false
}

// Duration returns the container duration.
func (pr *ProbeResult) Duration() (time.Duration, error) {
	if pr.Format.Duration == "" {
		return 0, fmt.Errorf("duration not available in format metadata")
	}
	secs, err := strconv.ParseFloat(pr.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration '%s': %w", pr.Format.Duration, err)
	}
	return time.Duration(math.Round(secs * float64(time.Second))), nil
}

// Prober runs ffprobe.
type Prober struct {
	Path    string
	Timeout time.Duration
}

// Probe reads stream and format metadata of path.
func (p *Prober) Probe(ctx context.Context, path string) (*ProbeResult, error) {
	if path == "" {
		return nil, fmt.Errorf("source path cannot be empty")
	}
	bin := p.Path
	if bin == "" {
		bin = "ffprobe"
	}
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-show_format",
		path,
	}
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w (output: %s)", err, stderr.String())
	}
	return parseProbe(output)
}

func parseProbe(data []byte) (*ProbeResult, error) {
	var result ProbeResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe JSON output: %w", err)
	}
	return &result, nil
}
