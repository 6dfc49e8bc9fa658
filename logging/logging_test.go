package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestJSONHandler_NestsGroupsAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewJSONHandler(&buf, nil)).With("session", "abc").WithGroup("tick")
	logger.Info("step", "turn", 3, "err", errors.New("boom"))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("unmarshal %q: %v", buf.String(), err)
	}
	if rec["msg"] != "step" || rec["level"] != "INFO" {
		t.Fatalf("unexpected record %v", rec)
	}
	tick, ok := rec["tick"].(map[string]any)
	if !ok {
		t.Fatalf("missing tick group in %v", rec)
	}
	if tick["turn"] != float64(3) || tick["err"] != "boom" {
		t.Fatalf("tick group=%v", tick)
	}
	if rec["session"] != "abc" {
		t.Fatalf("attrs added before the group should stay top level, got %v", rec)
	}
}

func TestJSONHandler_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	h := NewJSONHandler(&buf, &HandlerOptions{HandlerOptions: slog.HandlerOptions{Level: slog.LevelWarn}})
	logger := slog.New(h)
	logger.Info("hidden")
	logger.Warn("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Fatalf("output=%q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{"debug": slog.LevelDebug, "": slog.LevelInfo, "WARN": slog.LevelWarn, "error": slog.LevelError} {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q)=%v,%v want %v", in, got, err, want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestOpen_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "snake.log")
	logger, closeFn, err := Open(path, "info")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	logger.Info("hello", "score", 7)
	if err := closeFn(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), `"hello"`) {
		t.Fatalf("log file missing record: %q", data)
	}
}

func TestOpen_EmptyPathDiscards(t *testing.T) {
	logger, closeFn, err := Open("", "info")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if logger.Enabled(t.Context(), slog.LevelError) {
		t.Fatalf("discard logger should not be enabled")
	}
	if err := closeFn(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
