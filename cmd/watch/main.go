package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/brensch/termsnake/spectate"
)

// clearScreen homes the cursor and wipes the terminal.
const clearScreen = "\033[H\033[2J"

func main() {
	url := flag.String("url", getEnvOrDefault("SNAKE_WATCH_URL", "ws://localhost:8080/ws"), "Spectator feed URL")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("Watching %s", *url)

	var last spectate.FrameMessage
	err := spectate.Watch(ctx, *url, func(m spectate.FrameMessage) error {
		last = m
		fmt.Print(clearScreen)
		fmt.Printf("session %s  turn %d\n\n", m.Session, m.Turn)
		fmt.Print(m.Text)
		return nil
	})
	if err != nil {
		log.Fatalf("Watch failed: %v", err)
	}

	if last.Over {
		log.Printf("Game over after %d turns with score %d", last.Turn, last.Score)
	} else {
		log.Printf("Feed closed at turn %d", last.Turn)
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
