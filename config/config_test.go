package config

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/brensch/termsnake/game"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Settings() != game.DefaultSettings {
		t.Fatalf("settings=%+v want %+v", cfg.Settings(), game.DefaultSettings)
	}
	if cfg.Tick != 200*time.Millisecond || cfg.Frontend != FrontendTea || cfg.Sound || cfg.TraceDir != "" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults do not validate: %v", err)
	}
}

func TestLoad_FileOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snake.yaml")
	data := "board:\n  width: 30\ntick: 90ms\nfrontend: tcell\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Board.Width != 30 || cfg.Board.Height != 10 || cfg.Board.InitialLength != 4 {
		t.Fatalf("board=%+v want width overridden only", cfg.Board)
	}
	if cfg.Tick != 90*time.Millisecond || cfg.Frontend != FrontendTcell {
		t.Fatalf("tick=%s frontend=%s", cfg.Tick, cfg.Frontend)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		edit func(*Config)
	}{
		{"narrow board", func(c *Config) { c.Board.Width = 1 }},
		{"flat board", func(c *Config) { c.Board.Height = 1 }},
		{"snake wider than board", func(c *Config) { c.Board.InitialLength = 21 }},
		{"no snake", func(c *Config) { c.Board.InitialLength = 0 }},
		{"zero tick", func(c *Config) { c.Tick = 0 }},
		{"unknown frontend", func(c *Config) { c.Frontend = "curses" }},
		{"unknown level", func(c *Config) { c.Log.Level = "loud" }},
	}
	for _, tc := range cases {
		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		tc.edit(cfg)
		if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
			t.Fatalf("%s: err=%v want ErrInvalid", tc.name, err)
		}
	}
}

func TestParse_FlagsOverrideFile(t *testing.T) {
	t.Setenv("SNAKE_LOG", "")
	path := filepath.Join(t.TempDir(), "snake.yaml")
	if err := os.WriteFile(path, []byte("board:\n  width: 30\n  height: 12\nsound: true\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SNAKE_CONFIG", path)

	cfg, err := Parse("snake", []string{"-height", "8", "-tick", "50ms", "-frontend", "tcell", "-seed", "42"}, io.Discard)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Board.Width != 30 || cfg.Board.Height != 8 {
		t.Fatalf("board=%+v want 30x8", cfg.Board)
	}
	if !cfg.Sound || cfg.Tick != 50*time.Millisecond || cfg.Frontend != FrontendTcell || cfg.Seed != 42 {
		t.Fatalf("cfg=%+v", cfg)
	}
}

func TestParse_LogEnv(t *testing.T) {
	t.Setenv("SNAKE_CONFIG", "")
	t.Setenv("SNAKE_LOG", "/tmp/snake.log")

	cfg, err := Parse("snake", nil, io.Discard)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Log.File != "/tmp/snake.log" {
		t.Fatalf("log file=%q", cfg.Log.File)
	}

	cfg, err = Parse("snake", []string{"-log-file", "other.log"}, io.Discard)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Log.File != "other.log" {
		t.Fatalf("flag should win over env, got %q", cfg.Log.File)
	}
}

func TestParse_Invalid(t *testing.T) {
	t.Setenv("SNAKE_CONFIG", "")
	if _, err := Parse("snake", []string{"-length", "50"}, io.Discard); !errors.Is(err, ErrInvalid) {
		t.Fatalf("err=%v want ErrInvalid", err)
	}
	if _, err := Parse("snake", []string{"-bogus"}, io.Discard); err == nil {
		t.Fatalf("expected unknown flag error")
	}
}
