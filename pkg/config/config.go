package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	Catalog    CatalogConfig    `yaml:"catalog"`
	Display    DisplayConfig    `yaml:"display"`
	Ticker     TickerConfig     `yaml:"ticker"`
	Soundtrack SoundtrackConfig `yaml:"soundtrack"`
	Narration  NarrationConfig  `yaml:"narration"`
	Video      VideoConfig      `yaml:"video"`
	Audio      AudioConfig      `yaml:"audio"`
	Log        LogConfig        `yaml:"log"`
	DB         DBConfig         `yaml:"db"`
	History    HistoryConfig    `yaml:"history"`
	Server     ServerConfig     `yaml:"server"`
	Stats      StatsConfig      `yaml:"stats"`
}

// CatalogConfig points at the sequence and narration catalogs.
type CatalogConfig struct {
	Sequences string `yaml:"sequences"`
	Narration string `yaml:"narration"`
	MediaRoot string `yaml:"media_root"` // Relative media paths are resolved against this
	Resume    bool   `yaml:"resume"`     // Start from the last played sequence instead of a random one
	// WatchInterval polls media_root and the catalog for changes. Zero disables.
	WatchInterval Duration `yaml:"watch_interval"`
}

// DisplayConfig describes the output surface.
type DisplayConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// TickerConfig holds ticker settings.
type TickerConfig struct {
	Frame Duration `yaml:"frame"`
}

// SoundtrackConfig holds settings for the per-sequence soundtrack.
type SoundtrackConfig struct {
	Volume       float64  `yaml:"volume"`
	FadeDuration Duration `yaml:"fade_duration"`
}

// NarrationConfig holds settings for the narration scheduler.
type NarrationConfig struct {
	Enabled     bool     `yaml:"enabled"`
	IntervalMin Duration `yaml:"interval_min"`
	IntervalMax Duration `yaml:"interval_max"`
	Volume      float64  `yaml:"volume"`
}

// VideoConfig selects the video backend.
type VideoConfig struct {
	Backend     string `yaml:"backend"` // "ffplay", "headless"
	FFplayPath  string `yaml:"ffplay_path"`
	FFprobePath string `yaml:"ffprobe_path"`
}

// AudioConfig selects the audio backend.
type AudioConfig struct {
	Backend    string `yaml:"backend"` // "speaker", "headless"
	SampleRate int    `yaml:"sample_rate"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Server LogSettings `yaml:"server"`
	Events LogSettings `yaml:"events"`
}

// LogSettings holds settings for a specific logger.
type LogSettings struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level"`
}

// DBConfig holds database settings.
type DBConfig struct {
	Path string `yaml:"path"`
}

// HistoryConfig controls the persisted play history.
type HistoryConfig struct {
	Enabled   bool     `yaml:"enabled"`
	Retention Duration `yaml:"retention"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
}

// StatsConfig holds settings for the resource usage monitor.
type StatsConfig struct {
	Interval Duration `yaml:"interval"`
}

// Video and audio backend names.
const (
	BackendFFplay   = "ffplay"
	BackendSpeaker  = "speaker"
	BackendHeadless = "headless"
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Catalog: CatalogConfig{
			Sequences: "data/data.json",
			Narration: "data/narration.json",
			MediaRoot: "data",
			Resume:    false,

			WatchInterval: Duration(30 * time.Second),
		},
		Display: DisplayConfig{
			Width:  1920,
			Height: 1080,
		},
		Ticker: TickerConfig{
			Frame: Duration(16 * time.Millisecond),
		},
		Soundtrack: SoundtrackConfig{
			Volume:       0.4,
			FadeDuration: Duration(800 * time.Millisecond),
		},
		Narration: NarrationConfig{
			Enabled:     true,
			IntervalMin: Duration(4 * time.Second),
			IntervalMax: Duration(8 * time.Second),
			Volume:      1.0,
		},
		Video: VideoConfig{
			Backend:     BackendFFplay,
			FFplayPath:  "ffplay",
			FFprobePath: "ffprobe",
		},
		Audio: AudioConfig{
			Backend:    BackendSpeaker,
			SampleRate: 48000,
		},
		Log: LogConfig{
			Server: LogSettings{
				Path:  "./logs/server.log",
				Level: "INFO",
			},
			Events: LogSettings{
				Path:  "./logs/events.log",
				Level: "INFO",
			},
		},
		DB: DBConfig{
			Path: "./data/montage.db",
		},
		History: HistoryConfig{
			Enabled:   true,
			Retention: Duration(30 * Day),
		},
		Server: ServerConfig{
			Enabled: true,
			Address: "localhost:1921",
		},
		Stats: StatsConfig{
			Interval: Duration(time.Minute),
		},
	}
}

// Load loads the configuration from the given path.
// If the file does not exist, it creates it with default values.
// If the file exists, it merges defaults with existing values but does NOT save back to disk.
// Environment overrides are applied last and never persisted.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if err := Save(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to save config file: %w", err)
	}

	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects values the playback loop cannot work with.
func (c *Config) Validate() error {
	if c.Display.Width <= 0 || c.Display.Height <= 0 {
		return fmt.Errorf("invalid display size %dx%d", c.Display.Width, c.Display.Height)
	}
	if c.Soundtrack.Volume < 0 || c.Soundtrack.Volume > 1 {
		return fmt.Errorf("soundtrack volume %.2f out of range [0, 1]", c.Soundtrack.Volume)
	}
	if c.Narration.IntervalMax < c.Narration.IntervalMin {
		return fmt.Errorf("narration interval_max (%v) is below interval_min (%v)", c.Narration.IntervalMax.D(), c.Narration.IntervalMin.D())
	}
	switch c.Video.Backend {
	case BackendFFplay, BackendHeadless:
	default:
		return fmt.Errorf("unknown video backend '%s'", c.Video.Backend)
	}
	switch c.Audio.Backend {
	case BackendSpeaker, BackendHeadless:
	default:
		return fmt.Errorf("unknown audio backend '%s'", c.Audio.Backend)
	}
	return nil
}

// Save writes the configuration to the path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# MontageGo Configuration
# -----------------------
# Supported Units:
#   Duration: ns, us (or µs), ms, s, m, h, d (day), w (week)

`)
	data = append(header, data...)

	reBackend := regexp.MustCompile(`(?m)^(\s+)backend: (ffplay|headless)$`)
	data = reBackend.ReplaceAll(data, []byte("${1}# Options: ffplay, headless\n${1}backend: ${2}"))

	reAudio := regexp.MustCompile(`(?m)^(\s+)backend: speaker$`)
	data = reAudio.ReplaceAll(data, []byte("${1}# Options: speaker, headless\n${1}backend: speaker"))

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateDefault creates a default config file at the given path.
// Returns nil if the file already exists.
func GenerateDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return Save(path, DefaultConfig())
}
