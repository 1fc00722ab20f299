package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLevelFromString(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" INFO ":  slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"off":     LevelSilent,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		if got := LevelFromString(in); got != want {
			t.Errorf("LevelFromString(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLevelFromVerbosity(t *testing.T) {
	tests := []struct {
		v     int
		quiet bool
		want  slog.Level
	}{
		{0, false, slog.LevelWarn},
		{1, false, slog.LevelInfo},
		{3, false, slog.LevelDebug},
		{2, true, LevelSilent},
	}
	for _, tt := range tests {
		if got := LevelFromVerbosity(tt.v, tt.quiet); got != tt.want {
			t.Errorf("LevelFromVerbosity(%d, %v) = %v, want %v", tt.v, tt.quiet, got, tt.want)
		}
	}
}

func TestNewFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, slog.LevelWarn)
	l.Info("hidden")
	l.Warn("shown", "file", "a.go")
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") || !strings.Contains(out, "file=a.go") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestNewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "reposcope.log")
	l, f, err := NewFile(path, slog.LevelDebug)
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	l.Debug("written")
	f.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "written") {
		t.Fatalf("log file missing record: %q", data)
	}
}

func TestOrDiscard(t *testing.T) {
	if OrDiscard(nil) == nil {
		t.Fatal("OrDiscard(nil) returned nil")
	}
}
