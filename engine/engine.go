// Package engine runs the fixed-tick game loop.
//
// The driver owns the game state. Each tick it drains the input relay into
// the intent queue, steps the simulation, redraws the display and notifies
// observers. Input arrives concurrently but is only ever consumed on a tick
// boundary, which caps the snake's speed independent of how fast keys come in.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/brensch/termsnake/game"
	"github.com/brensch/termsnake/input"
	"github.com/brensch/termsnake/render"
	"github.com/brensch/termsnake/rules"
)

// DefaultTick is the time the snake spends on each cell.
const DefaultTick = 200 * time.Millisecond

// Display is the output side of a frontend.
type Display interface {
	Clear() error
	DrawFrame(f render.Frame) error
	Refresh() error
}

// Inputs is what the driver consumes from the input relay.
type Inputs interface {
	Directions() <-chan game.Direction
	Acks() <-chan struct{}
	Quit() <-chan struct{}
	Err() <-chan error
}

// TickEvent is handed to observers after every step.
type TickEvent struct {
	Session string
	Turn    int
	// State is a copy; observers may keep it.
	State   *game.GameState
	Outcome rules.Outcome
	Frame   render.Frame
	// Dropped counts intents refused by the full queue this tick.
	Dropped int
}

// Observer sees every tick. OnTick runs on the driver goroutine and must not
// block.
type Observer interface {
	OnTick(ev TickEvent)
}

// Config wires a Driver.
type Config struct {
	Settings game.Settings
	Tick     time.Duration
	Session  string
	Rand     *rand.Rand
	Logger   *slog.Logger
}

// Result summarises a finished game.
type Result struct {
	Score int
	Turns int
	Won   bool
	Dead  bool
	// Quit is set when the player or the context ended the game early.
	Quit bool
}

// Driver is the game loop. It is single use.
type Driver struct {
	cfg       Config
	display   Display
	inputs    Inputs
	observers []Observer
	logger    *slog.Logger

	state *game.GameState
	queue rules.IntentQueue
}

func NewDriver(cfg Config, display Display, inputs Inputs, observers ...Observer) (*Driver, error) {
	if cfg.Settings == (game.Settings{}) {
		cfg.Settings = game.DefaultSettings
	}
	if cfg.Tick <= 0 {
		cfg.Tick = DefaultTick
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	state, err := game.NewGameState(cfg.Settings, cfg.Rand)
	if err != nil {
		return nil, fmt.Errorf("new game: %w", err)
	}

	return &Driver{
		cfg:       cfg,
		display:   display,
		inputs:    inputs,
		observers: observers,
		logger:    logger.With("session", cfg.Session),
		state:     state,
	}, nil
}

// State returns a copy of the current state.
func (d *Driver) State() *game.GameState { return d.state.Clone() }

// Run plays one game to the end.
//
// It returns when the snake dies or fills the board (after the final frame
// has been acknowledged by one key press), when the player quits, or when ctx
// is cancelled. A failing key source is returned as an error wrapping
// input.ErrInput; a failing display is returned as is.
func (d *Driver) Run(ctx context.Context) (Result, error) {
	d.logger.Info("game started",
		"width", d.state.Width, "height", d.state.Height,
		"length", len(d.state.Snake), "tick", d.cfg.Tick.String())

	if err := d.draw(render.NewFrame(d.state)); err != nil {
		return d.result(), err
	}

	ticker := time.NewTicker(d.cfg.Tick)
	defer ticker.Stop()

	for !d.state.Terminal() {
		select {
		case <-ctx.Done():
			d.logger.Info("game cancelled", "turn", d.state.Turn)
			return d.quit(), nil
		case <-d.inputs.Quit():
			d.logger.Info("player quit", "turn", d.state.Turn, "score", d.state.Score())
			return d.quit(), nil
		case err := <-d.inputs.Err():
			return d.result(), err
		case <-ticker.C:
		}

		if err := d.advance(); err != nil {
			return d.result(), err
		}
	}

	return d.finish(ctx)
}

// advance runs one tick: drain, step, redraw, notify.
func (d *Driver) advance() error {
	_, dropped := input.Drain(d.inputs.Directions(), &d.queue)
	if dropped > 0 {
		d.logger.Debug("intents dropped", "turn", d.state.Turn, "dropped", dropped, "pending", d.queue.Pending())
	}

	out := rules.Step(d.state, &d.queue, d.cfg.Rand)
	if out.Intent != game.None {
		d.logger.Debug("intent resolved",
			"turn", d.state.Turn, "intent", out.Intent.String(), "accepted", out.Accepted)
	}
	if out.Ate {
		d.logger.Info("food eaten", "turn", d.state.Turn, "length", len(d.state.Snake), "food", d.state.Food)
	}

	frame := render.NewFrame(d.state)
	ev := TickEvent{
		Session: d.cfg.Session,
		Turn:    d.state.Turn,
		State:   d.state.Clone(),
		Outcome: out,
		Frame:   frame,
		Dropped: dropped,
	}
	for _, o := range d.observers {
		o.OnTick(ev)
	}

	// The final frame is drawn by finish once the loop exits.
	if d.state.Terminal() {
		return nil
	}
	return d.draw(frame)
}

// finish shows the end-of-game frame and waits for one acknowledgement.
func (d *Driver) finish(ctx context.Context) (Result, error) {
	res := d.result()
	d.logger.Info("game over", "score", res.Score, "turns", res.Turns, "won", res.Won)

	// Presses made while the snake was still moving do not count.
	select {
	case <-d.inputs.Acks():
	default:
	}

	if err := d.draw(render.NewFrame(d.state)); err != nil {
		return res, err
	}

	select {
	case <-d.inputs.Acks():
	case <-d.inputs.Quit():
	case <-ctx.Done():
	case err := <-d.inputs.Err():
		return res, err
	}
	return res, nil
}

func (d *Driver) draw(f render.Frame) error {
	if err := d.display.Clear(); err != nil {
		return fmt.Errorf("clear display: %w", err)
	}
	if err := d.display.DrawFrame(f); err != nil {
		return fmt.Errorf("draw frame: %w", err)
	}
	if err := d.display.Refresh(); err != nil {
		return fmt.Errorf("refresh display: %w", err)
	}
	return nil
}

func (d *Driver) result() Result {
	return Result{
		Score: d.state.Score(),
		Turns: d.state.Turn,
		Won:   d.state.Won,
		Dead:  d.state.Dead,
	}
}

func (d *Driver) quit() Result {
	res := d.result()
	res.Quit = true
	return res
}
