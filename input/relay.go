package input

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/brensch/termsnake/game"
)

var (
	// ErrInput wraps any failure reading from the key source.
	ErrInput = errors.New("input read failed")
	// ErrClosed is returned by frontends whose input side has shut down.
	ErrClosed = errors.New("input source closed")
)

// DefaultBuffer is the relay channel size. The loop drains it every tick,
// so it only needs to absorb a burst of key repeats.
const DefaultBuffer = 32

// Relay reads keys on its own goroutine and forwards movement intents to the
// loop driver. It is the only producer on its channels and never touches game
// state.
type Relay struct {
	src    KeySource
	logger *slog.Logger

	dirs     chan game.Direction
	acks     chan struct{}
	quit     chan struct{}
	errs     chan error
	quitOnce sync.Once
}

func NewRelay(src KeySource, buffer int, logger *slog.Logger) *Relay {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Relay{
		src:    src,
		logger: logger,
		dirs:   make(chan game.Direction, buffer),
		acks:   make(chan struct{}, 1),
		quit:   make(chan struct{}),
		errs:   make(chan error, 1),
	}
}

// Directions carries translated movement presses, oldest first.
func (r *Relay) Directions() <-chan game.Direction { return r.dirs }

// Acks receives a value after any key press. It holds at most one pending
// signal; further presses while it is full are coalesced.
func (r *Relay) Acks() <-chan struct{} { return r.acks }

// Quit is closed when a quit key is pressed.
func (r *Relay) Quit() <-chan struct{} { return r.quit }

// Err delivers at most one error, after which Run has returned.
func (r *Relay) Err() <-chan error { return r.errs }

// Start runs the relay on a new goroutine. Nothing joins it: it stays blocked
// in ReadKey until the source fails or the process exits.
func (r *Relay) Start() {
	go r.Run()
}

// Run blocks reading keys until the source fails.
func (r *Relay) Run() {
	for {
		ev, err := r.src.ReadKey()
		if err != nil {
			if errors.Is(err, ErrClosed) {
				r.logger.Debug("key source closed")
			} else {
				r.logger.Error("key source failed", "err", err)
			}
			r.errs <- fmt.Errorf("%w: %w", ErrInput, err)
			return
		}
		r.handle(ev)
	}
}

func (r *Relay) handle(ev KeyEvent) {
	if ev.Kind != Press {
		return
	}

	select {
	case r.acks <- struct{}{}:
	default:
	}

	if IsQuit(ev) {
		r.quitOnce.Do(func() { close(r.quit) })
		return
	}

	d := Translate(ev)
	if d == game.None {
		return
	}
	r.logger.Debug("intent", "dir", d.String())
	r.dirs <- d
}

// Pusher receives drained intents. *rules.IntentQueue satisfies it.
type Pusher interface {
	Push(game.Direction) bool
}

// Drain moves everything currently buffered on ch into q without waiting.
// It returns how many values were read and how many q refused.
func Drain(ch <-chan game.Direction, q Pusher) (received, dropped int) {
	for {
		select {
		case d := <-ch:
			received++
			if !q.Push(d) {
				dropped++
			}
		default:
			return received, dropped
		}
	}
}
