package config

import (
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input    string
		expected time.Duration
		wantErr  bool
	}{
		{"10s", 10 * time.Second, false},
		{"16ms", 16 * time.Millisecond, false},
		{"1.5h", 90 * time.Minute, false},
		{"1d", 24 * time.Hour, false},
		{"1w", 168 * time.Hour, false},
		{"2d2h", 50 * time.Hour, false},
		{"", 0, false},
		{"invalid", 0, true},
		{"3x", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseDuration(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDuration(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.expected {
			t.Errorf("ParseDuration(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestDuration_YAML(t *testing.T) {
	var v struct {
		Retention Duration `yaml:"retention"`
	}
	if err := yaml.Unmarshal([]byte("retention: 30d\n"), &v); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if v.Retention.D() != 30*Day {
		t.Errorf("Retention = %v, want %v", v.Retention.D(), 30*Day)
	}

	out, err := yaml.Marshal(v)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(out) != "retention: 720h0m0s\n" {
		t.Errorf("Marshal = %q", string(out))
	}
}

func TestDuration_Decode(t *testing.T) {
	var d Duration
	if err := d.Decode("1w"); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if d.D() != Week {
		t.Errorf("Decode = %v, want %v", d.D(), Week)
	}
	if err := d.Decode("nope"); err == nil {
		t.Error("expected error for invalid duration")
	}
}
