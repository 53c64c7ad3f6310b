package api

import (
	"testing"
)

func TestFormatLogLine(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Info with params",
			input:    `time=2026-01-18T06:50:46.074+01:00 level=INFO msg="Sequence loaded" index=3 name=harbour videos="12 " clips=4 path=/very/long/path/to/media/harbour.json`,
			expected: "06:50:46 Sequence loaded (clips=4, index=3, name=harbour, videos=12)",
		},
		{
			name:     "Warning is tagged",
			input:    `time=2026-01-18T06:50:47.000+01:00 level=WARN msg="Skipping media" kind=video`,
			expected: "06:50:47 [WARN] Skipping media (kind=video)",
		},
		{
			name:     "No params",
			input:    `time=2026-01-18T06:50:48.000+01:00 level=INFO msg="Scheduler started"`,
			expected: "06:50:48 Scheduler started",
		},
		{
			name:     "Not a slog line",
			input:    "plain text",
			expected: "plain text",
		},
		{
			name:     "Missing msg",
			input:    "level=INFO foo=bar",
			expected: "level=INFO foo=bar",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatLogLine(tt.input); got != tt.expected {
				t.Errorf("Expected '%s', got '%s'", tt.expected, got)
			}
		})
	}
}
