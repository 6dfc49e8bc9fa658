// Package config loads game settings from embedded defaults, an optional
// YAML file and command line flags, in that order of precedence.
package config

import (
	_ "embed"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/brensch/termsnake/game"
	"github.com/brensch/termsnake/logging"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Frontend names.
const (
	FrontendTea   = "tea"
	FrontendTcell = "tcell"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config holds everything cmd/snake needs to start a game.
type Config struct {
	Board        BoardConfig   `yaml:"board"`
	Tick         time.Duration `yaml:"tick"`
	Seed         int64         `yaml:"seed"`
	Frontend     string        `yaml:"frontend"`
	Sound        bool          `yaml:"sound"`
	TraceDir     string        `yaml:"trace_dir"`
	SpectateAddr string        `yaml:"spectate_addr"`
	Log          LogConfig     `yaml:"log"`
}

type BoardConfig struct {
	Width         int `yaml:"width"`
	Height        int `yaml:"height"`
	InitialLength int `yaml:"initial_length"`
}

type LogConfig struct {
	File  string `yaml:"file"`
	Level string `yaml:"level"`
}

// Settings converts the board section for game.NewGameState.
func (c *Config) Settings() game.Settings {
	return game.Settings{
		Width:         c.Board.Width,
		Height:        c.Board.Height,
		InitialLength: c.Board.InitialLength,
	}
}

// Load reads the embedded defaults and, when path is set, overlays the file.
// Keys missing from the file keep their default.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}
	return cfg, nil
}

// Validate rejects settings no game can start with.
func (c *Config) Validate() error {
	b := c.Board
	if b.Width < 2 || b.Height < 2 {
		return fmt.Errorf("%w: board %dx%d is too small", ErrInvalid, b.Width, b.Height)
	}
	if b.InitialLength < 1 || b.InitialLength > b.Width {
		return fmt.Errorf("%w: initial_length %d must be between 1 and the board width %d", ErrInvalid, b.InitialLength, b.Width)
	}
	if c.Tick <= 0 {
		return fmt.Errorf("%w: tick must be positive, got %s", ErrInvalid, c.Tick)
	}
	switch c.Frontend {
	case FrontendTea, FrontendTcell:
	default:
		return fmt.Errorf("%w: unknown frontend %q (want %s or %s)", ErrInvalid, c.Frontend, FrontendTea, FrontendTcell)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// Parse builds a validated Config from args (without the program name).
// -config picks the YAML file; every other flag overrides the file only when
// given explicitly.
func Parse(name string, args []string, output io.Writer) (*Config, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	if output != nil {
		fs.SetOutput(output)
	}

	path := fs.String("config", getEnvOrDefault("SNAKE_CONFIG", ""), "YAML config file (env SNAKE_CONFIG)")
	width := fs.Int("width", 0, "board width in cells")
	height := fs.Int("height", 0, "board height in cells")
	length := fs.Int("length", 0, "initial snake length")
	tick := fs.Duration("tick", 0, "time per move, e.g. 150ms")
	seed := fs.Int64("seed", 0, "food placement seed, 0 for time based")
	frontend := fs.String("frontend", "", "terminal frontend: tea or tcell")
	sound := fs.Bool("sound", false, "play sound cues")
	traceDir := fs.String("trace-dir", "", "write a parquet trace of the game into this directory")
	spectate := fs.String("spectate", "", "serve a websocket spectator feed on host:port")
	logFile := fs.String("log-file", "", "append JSON logs to this file (env SNAKE_LOG)")
	logLevel := fs.String("log-level", "", "debug, info, warn or error")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg, err := Load(*path)
	if err != nil {
		return nil, err
	}
	if env := os.Getenv("SNAKE_LOG"); env != "" {
		cfg.Log.File = env
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "width":
			cfg.Board.Width = *width
		case "height":
			cfg.Board.Height = *height
		case "length":
			cfg.Board.InitialLength = *length
		case "tick":
			cfg.Tick = *tick
		case "seed":
			cfg.Seed = *seed
		case "frontend":
			cfg.Frontend = *frontend
		case "sound":
			cfg.Sound = *sound
		case "trace-dir":
			cfg.TraceDir = *traceDir
		case "spectate":
			cfg.SpectateAddr = *spectate
		case "log-file":
			cfg.Log.File = *logFile
		case "log-level":
			cfg.Log.Level = *logLevel
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
