package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brensch/termsnake/engine"
	"github.com/brensch/termsnake/game"
	"github.com/brensch/termsnake/render"
	"github.com/brensch/termsnake/store"
)

const clearScreen = "\033[H\033[2J"

func main() {
	tracePath := flag.String("trace", "", "Trace file to replay (default: newest in -dir)")
	dir := flag.String("dir", getEnvOrDefault("SNAKE_TRACE_DIR", "traces"), "Directory searched when -trace is not set")
	tick := flag.Duration("tick", engine.DefaultTick, "Delay between frames")
	flag.Parse()

	path := *tracePath
	if path == "" {
		paths, err := store.ListTraces(*dir)
		if err != nil {
			log.Fatalf("Failed to list traces: %v", err)
		}
		if len(paths) == 0 {
			log.Fatalf("No traces in %s", *dir)
		}
		path = paths[0]
	}

	rows, err := store.ReadTrace(path)
	if err != nil {
		log.Fatalf("Failed to read trace: %v", err)
	}
	if len(rows) == 0 {
		log.Fatalf("Trace %s is empty", path)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(*tick)
	defer ticker.Stop()

	for i, row := range rows {
		if i > 0 {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}

		state, err := store.RowState(row)
		if err != nil {
			log.Fatalf("Bad row: %v", err)
		}
		fmt.Print(clearScreen)
		fmt.Printf("session %s  turn %d  intent %s", row.Session, row.Turn, game.Direction(row.Intent))
		if row.Intent != 0 && !row.Accepted {
			fmt.Print(" (rejected)")
		}
		if row.Dropped > 0 {
			fmt.Printf("  dropped %d", row.Dropped)
		}
		fmt.Print("\n")
		fmt.Print(render.Text(render.NewFrame(state)))
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
