package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is the prefix of all environment overrides (e.g. MONTAGE_MEDIA_ROOT).
const EnvPrefix = "MONTAGE"

// envOverrides lists the settings an operator can change without editing the YAML file.
type envOverrides struct {
	Sequences    string   `envconfig:"CATALOG_SEQUENCES"`
	Narration    string   `envconfig:"CATALOG_NARRATION"`
	MediaRoot    string   `envconfig:"MEDIA_ROOT"`
	Resume       bool     `envconfig:"RESUME"`
	VideoBackend string   `envconfig:"VIDEO_BACKEND"`
	AudioBackend string   `envconfig:"AUDIO_BACKEND"`
	Address      string   `envconfig:"SERVER_ADDRESS"`
	LogLevel     string   `envconfig:"LOG_LEVEL"`
	Frame        Duration `envconfig:"FRAME"`
}

// LoadDotEnv loads variables from a .env file into the process environment.
// A missing file is not an error. Variables already set win over the file.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays MONTAGE_* environment variables onto cfg.
func ApplyEnv(cfg *Config) error {
	o := envOverrides{
		Sequences:    cfg.Catalog.Sequences,
		Narration:    cfg.Catalog.Narration,
		MediaRoot:    cfg.Catalog.MediaRoot,
		Resume:       cfg.Catalog.Resume,
		VideoBackend: cfg.Video.Backend,
		AudioBackend: cfg.Audio.Backend,
		Address:      cfg.Server.Address,
		LogLevel:     cfg.Log.Server.Level,
		Frame:        cfg.Ticker.Frame,
	}

	if err := envconfig.Process(EnvPrefix, &o); err != nil {
		return fmt.Errorf("failed to read environment overrides: %w", err)
	}

	cfg.Catalog.Sequences = o.Sequences
	cfg.Catalog.Narration = o.Narration
	cfg.Catalog.MediaRoot = o.MediaRoot
	cfg.Catalog.Resume = o.Resume
	cfg.Video.Backend = o.VideoBackend
	cfg.Audio.Backend = o.AudioBackend
	cfg.Server.Address = o.Address
	cfg.Log.Server.Level = o.LogLevel
	cfg.Ticker.Frame = o.Frame
	return nil
}
