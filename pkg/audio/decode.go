// Package audio plays soundtracks and narration clips through gopxl/beep.
package audio

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/wav"
)

// Decode opens an mp3 or wav file. The format is picked by extension;
// unknown extensions are tried as mp3 first, then wav.
func Decode(path string) (beep.StreamSeekCloser, beep.Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return decodeWith(path, decodeMP3)
	case ".wav":
		return decodeWith(path, decodeWAV)
	}

	streamer, format, err := decodeWith(path, decodeMP3)
	if err == nil {
		return streamer, format, nil
	}
	return decodeWith(path, decodeWAV)
}

type decoder func(f *os.File) (beep.StreamSeekCloser, beep.Format, error)

func decodeMP3(f *os.File) (beep.StreamSeekCloser, beep.Format, error) { return mp3.Decode(f) }

func decodeWAV(f *os.File) (beep.StreamSeekCloser, beep.Format, error) { return wav.Decode(f) }

func decodeWith(path string, dec decoder) (beep.StreamSeekCloser, beep.Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, beep.Format{}, err
	}
	streamer, format, err := dec(f)
	if err != nil {
		f.Close()
		slog.Debug("Audio: decode failed", "path", path, "error", err)
		return nil, beep.Format{}, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return streamer, format, nil
}

// Duration returns the play length of the file at path.
func Duration(path string) (time.Duration, error) {
	streamer, format, err := Decode(path)
	if err != nil {
		return 0, err
	}
	defer streamer.Close()

	return format.SampleRate.D(streamer.Len()), nil
}
