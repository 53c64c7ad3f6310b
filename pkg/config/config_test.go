package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 0.4, cfg.Soundtrack.Volume)
	assert.Equal(t, 800*time.Millisecond, cfg.Soundtrack.FadeDuration.D())
	assert.Equal(t, 4*time.Second, cfg.Narration.IntervalMin.D())
	assert.Equal(t, 8*time.Second, cfg.Narration.IntervalMax.D())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_CreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "configs", "montage.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Catalog, cfg.Catalog)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# MontageGo Configuration")
	assert.Contains(t, string(data), "# Options: ffplay, headless")
	assert.Contains(t, string(data), "# Options: speaker, headless")
}

func TestLoad_MergesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "montage.yaml")
	content := `
display:
  width: 1280
  height: 720
narration:
  interval_min: 2s
  interval_max: 3s
video:
  backend: headless
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 1280, cfg.Display.Width)
	assert.Equal(t, 2*time.Second, cfg.Narration.IntervalMin.D())
	assert.Equal(t, BackendHeadless, cfg.Video.Backend)
	// Untouched sections keep their defaults
	assert.Equal(t, 0.4, cfg.Soundtrack.Volume)
	assert.Equal(t, BackendSpeaker, cfg.Audio.Backend)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "montage.yaml")
	t.Setenv("MONTAGE_MEDIA_ROOT", "/srv/exhibit")
	t.Setenv("MONTAGE_AUDIO_BACKEND", "headless")
	t.Setenv("MONTAGE_FRAME", "33ms")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/exhibit", cfg.Catalog.MediaRoot)
	assert.Equal(t, BackendHeadless, cfg.Audio.Backend)
	assert.Equal(t, 33*time.Millisecond, cfg.Ticker.Frame.D())

	// Overrides are not written back
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "/srv/exhibit")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero width", func(c *Config) { c.Display.Width = 0 }},
		{"volume above one", func(c *Config) { c.Soundtrack.Volume = 1.5 }},
		{"inverted interval", func(c *Config) { c.Narration.IntervalMax = Duration(time.Second) }},
		{"unknown video backend", func(c *Config) { c.Video.Backend = "vlc" }},
		{"unknown audio backend", func(c *Config) { c.Audio.Backend = "alsa" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()

	// Missing file is fine
	assert.NoError(t, LoadDotEnv(filepath.Join(dir, ".env")))

	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("MONTAGE_TEST_DOTENV=loaded\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("MONTAGE_TEST_DOTENV") })

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "loaded", os.Getenv("MONTAGE_TEST_DOTENV"))
}

func TestGenerateDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "montage.yaml")
	require.NoError(t, GenerateDefault(path))
	_, err := os.Stat(path)
	assert.NoError(t, err)

	// Existing file is left alone
	require.NoError(t, os.WriteFile(path, []byte("display:\n  width: 10\n"), 0o644))
	require.NoError(t, GenerateDefault(path))
	data, _ := os.ReadFile(path)
	assert.Equal(t, "display:\n  width: 10\n", string(data))
}
