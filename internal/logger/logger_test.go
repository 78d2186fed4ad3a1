package logger

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestInitWritesToFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "veldt.log")

	if err := Init("debug", logFile, false); err != nil {
		t.Fatalf("failed to init logger: %v", err)
	}
	defer Sync()

	Sugar.Infow("chunk added", "x", 1, "z", 2)
	Sync()

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if len(data) == 0 {
		t.Error("log file is empty after write")
	}
}

func TestInitWithoutFile(t *testing.T) {
	if err := Init("info", "", false); err != nil {
		t.Fatalf("failed to init logger: %v", err)
	}
	defer Sync()

	// No cores configured at all; logging must still be safe.
	Log.Info("no sinks")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"info", zapcore.InfoLevel},
		{"bogus", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
