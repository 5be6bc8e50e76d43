package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"edgeline/diagd/pkg/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"info", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSetupJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := Setup(config.LoggingConfig{Level: "info", Format: "json"}, &buf)
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	logger.Info("hello", "component", "test")
	out := buf.String()
	if !strings.Contains(out, `"msg":"hello"`) || !strings.Contains(out, `"component":"test"`) {
		t.Errorf("JSON output = %q", out)
	}

	logger.Debug("quiet")
	if strings.Contains(buf.String(), "quiet") {
		t.Error("debug line emitted at info level")
	}
}

func TestSetupRejectsBadFormat(t *testing.T) {
	if _, err := Setup(config.LoggingConfig{Level: "info", Format: "xml"}, nil); err == nil {
		t.Error("Setup() with bad format: expected error")
	}
}
