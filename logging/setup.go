package logging

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// ParseLevel maps debug/info/warn/error to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// New returns a logger writing indented JSON records to w.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(NewJSONHandler(w, &HandlerOptions{
		HandlerOptions: slog.HandlerOptions{Level: level, AddSource: level <= slog.LevelDebug},
		Indent:         true,
	}))
}

// Open sets up logging for a terminal session. With an empty path every
// record is discarded; otherwise records are appended to path. The standard
// log package is pointed at the same destination so stray log.Printf calls
// from libraries cannot scribble over the game screen.
//
// The returned close func is never nil.
func Open(path, level string) (*slog.Logger, func() error, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, nil, err
	}

	if path == "" {
		log.SetOutput(io.Discard)
		return slog.New(slog.DiscardHandler), func() error { return nil }, nil
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	log.SetOutput(f)

	return New(f, lvl), f.Close, nil
}
