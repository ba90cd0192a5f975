package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"info":    slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		" trace ": LevelTrace,
		"bogus":   slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewLoggerLabelsTraceLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("trace", &buf)
	logger.Log(context.Background(), LevelTrace, "generation", "generation", 3)

	out := buf.String()
	if !strings.Contains(out, "level=TRACE") {
		t.Fatalf("expected TRACE label, got %q", out)
	}
	if !strings.Contains(out, "generation=3") {
		t.Fatalf("expected attribute in output, got %q", out)
	}
}

func TestNewLoggerFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("info", &buf)
	logger.Debug("hidden")
	logger.Log(context.Background(), LevelTrace, "hidden too")
	if buf.Len() != 0 {
		t.Fatalf("expected no output below info, got %q", buf.String())
	}
}
