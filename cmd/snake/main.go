package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/brensch/termsnake/config"
	"github.com/brensch/termsnake/engine"
	"github.com/brensch/termsnake/input"
	"github.com/brensch/termsnake/logging"
	"github.com/brensch/termsnake/render"
	"github.com/brensch/termsnake/screen"
	"github.com/brensch/termsnake/sound"
	"github.com/brensch/termsnake/spectate"
	"github.com/brensch/termsnake/store"
	"github.com/brensch/termsnake/tui"
	"github.com/brensch/termsnake/viewer"
)

// frontend is a terminal that both produces keys and shows frames.
type frontend interface {
	input.KeySource
	engine.Display
	Close() error
}

func main() {
	cfg, err := config.Parse("snake", os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, closeLog, err := logging.Open(cfg.Log.File, cfg.Log.Level)
	if err != nil {
		log.Fatalf("Failed to open log: %v", err)
	}

	code := run(cfg, logger)
	_ = closeLog()
	os.Exit(code)
}

// run plays one game and returns the process exit status. From here on the
// standard logger may be discarded, so diagnostics go straight to stderr.
func run(cfg *config.Config, logger *slog.Logger) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session := uuid.NewString()
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	logger = logger.With("session", session)
	logger.Info("starting", "seed", seed, "frontend", cfg.Frontend)

	var observers []engine.Observer

	if cfg.Sound {
		cues, err := sound.New(logger)
		if err != nil {
			logger.Warn("sound disabled", "err", err)
		} else {
			defer cues.Close()
			observers = append(observers, cues)
		}
	}

	var recorder *store.Recorder
	if cfg.TraceDir != "" {
		rec, err := store.NewRecorder(cfg.TraceDir, logger)
		if err != nil {
			logger.Warn("trace disabled", "err", err)
		} else {
			recorder = rec
			observers = append(observers, rec)
		}
	}

	var (
		hub      *spectate.Hub
		feedErrs <-chan error
	)
	// The feed gets its own context so it can be stopped, and waited for,
	// before the process exits.
	feedCtx, stopFeed := context.WithCancel(ctx)
	defer stopFeed()
	if cfg.SpectateAddr != "" {
		h := spectate.NewHub(logger)
		var routes []spectate.Routes
		if cfg.TraceDir != "" {
			routes = append(routes, viewer.NewServer(cfg.TraceDir, logger))
		}
		addr, errs, err := spectate.Serve(feedCtx, cfg.SpectateAddr, h, routes...)
		if err != nil {
			logger.Warn("spectator feed disabled", "err", err)
		} else {
			hub, feedErrs = h, errs
			observers = append(observers, h)
			logger.Info("spectators can connect", "url", fmt.Sprintf("ws://%s/ws", addr))
		}
	}

	fe, err := openFrontend(cfg.Frontend, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "snake: %v\n", err)
		return 1
	}

	relay := input.NewRelay(fe, input.DefaultBuffer, logger)
	relay.Start()

	driver, err := engine.NewDriver(engine.Config{
		Settings: cfg.Settings(),
		Tick:     cfg.Tick,
		Session:  session,
		Rand:     rand.New(rand.NewSource(seed)),
		Logger:   logger,
	}, fe, relay, observers...)
	if err != nil {
		_ = fe.Close()
		fmt.Fprintf(os.Stderr, "snake: %v\n", err)
		return 1
	}

	opening := driver.State()
	if recorder != nil {
		recorder.Snapshot(session, opening)
	}
	if hub != nil {
		hub.Publish(spectate.NewFrameMessage(session, opening.Turn, render.NewFrame(opening)))
	}

	res, runErr := driver.Run(ctx)

	// The terminal must be restored before anything is printed. The relay
	// goroutine may still be blocked in ReadKey; it is left behind.
	if err := fe.Close(); err != nil {
		logger.Warn("frontend close", "err", err)
	}

	if recorder != nil {
		if path, err := recorder.Close(); err != nil {
			logger.Error("write trace", "err", err)
			fmt.Fprintf(os.Stderr, "snake: trace not written: %v\n", err)
		} else if path != "" {
			fmt.Printf("Trace: %s\n", path)
		}
	}

	if hub != nil {
		stopFeed()
		select {
		case err := <-feedErrs:
			if err != nil {
				logger.Error("spectator server stopped", "err", err)
			}
		case <-time.After(spectate.ShutdownTimeout + time.Second):
			logger.Warn("spectator feed did not shut down in time")
		}
		logger.Info("spectator feed closed", "dropped_frames", hub.Dropped())
	}

	if runErr != nil {
		logger.Error("game aborted", "err", runErr)
		fmt.Fprintf(os.Stderr, "snake: %v\n", runErr)
		return 1
	}

	fmt.Print(render.Text(render.NewFrame(driver.State())))
	logger.Info("finished", "score", res.Score, "turns", res.Turns, "won", res.Won, "quit", res.Quit)
	return 0
}

func openFrontend(name string, logger *slog.Logger) (frontend, error) {
	switch name {
	case config.FrontendTcell:
		s, err := screen.New()
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		p := tui.New(logger)
		p.Start()
		return p, nil
	}
}
