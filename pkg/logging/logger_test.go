package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"montagego/pkg/config"
	"montagego/pkg/model"
)

func TestInit(t *testing.T) {
	tempDir := t.TempDir()
	serverLog := filepath.Join(tempDir, "server.log")
	eventLog := filepath.Join(tempDir, "events.log")

	// A previous run leaves a log behind
	if err := os.WriteFile(serverLog, []byte("previous run\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := &config.LogConfig{
		Server: config.LogSettings{Path: serverLog, Level: "DEBUG"},
		Events: config.LogSettings{Path: eventLog, Level: "INFO"},
	}

	prev := slog.Default()
	cleanup, err := Init(cfg)
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer func() {
		cleanup()
		slog.SetDefault(prev)
		SetEventLogPath("")
	}()

	if _, err := os.Stat(serverLog); os.IsNotExist(err) {
		t.Error("Server log file not created")
	}
	old, err := os.ReadFile(serverLog + ".old")
	if err != nil || string(old) != "previous run\n" {
		t.Errorf("Previous log not rotated: %q, %v", old, err)
	}

	slog.Info("Sequence loaded", "name", "Dawn")
	if got := GlobalLogCapture.GetLastLine(); !strings.Contains(got, "Sequence loaded") {
		t.Errorf("Capture did not receive log line, got %q", got)
	}
}

func TestParseLevel(t *testing.T) {
	defer func() { EnableTrace = false }()

	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"bogus", slog.LevelInfo},
		{"trace", slog.LevelDebug},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
	if !EnableTrace {
		t.Error("TRACE level should enable trace output")
	}
}

func TestLogEvent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.log")
	SetEventLogPath(path)
	defer SetEventLogPath("")

	LogEvent(&model.PlaybackEvent{
		Type:      model.EventClipShown,
		Sequence:  "Dawn",
		Path:      "videos/dawn_03.mp4",
		Timestamp: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	})

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read event log: %v", err)
	}
	want := "[2024-05-01 12:00:00] [clip_shown] Dawn - videos/dawn_03.mp4\n"
	if string(data) != want {
		t.Errorf("event log = %q, want %q", string(data), want)
	}
	if got := GlobalEventCapture.GetLastLine(); got != strings.TrimSpace(want) {
		t.Errorf("event capture = %q", got)
	}
}

func TestFormatEvent_Detail(t *testing.T) {
	got := FormatEvent(&model.PlaybackEvent{
		Type:      model.EventLoadFailed,
		Sequence:  "Night",
		Detail:    "file missing",
		Timestamp: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	})
	want := "[2024-05-01 12:00:00] [load_failed] Night (file missing)"
	if got != want {
		t.Errorf("FormatEvent = %q, want %q", got, want)
	}
}
