package engine

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/brensch/termsnake/game"
	"github.com/brensch/termsnake/input"
	"github.com/brensch/termsnake/render"
)

type recordingDisplay struct {
	mu      sync.Mutex
	frames  []render.Frame
	clears  int
	refresh int
}

func (d *recordingDisplay) Clear() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clears++
	return nil
}

func (d *recordingDisplay) DrawFrame(f render.Frame) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.frames = append(d.frames, f)
	return nil
}

func (d *recordingDisplay) Refresh() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.refresh++
	return nil
}

func (d *recordingDisplay) last() render.Frame {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.frames[len(d.frames)-1]
}

type fakeInputs struct {
	dirs chan game.Direction
	acks chan struct{}
	quit chan struct{}
	errs chan error
}

func newFakeInputs() *fakeInputs {
	return &fakeInputs{
		dirs: make(chan game.Direction, 16),
		acks: make(chan struct{}, 1),
		quit: make(chan struct{}),
		errs: make(chan error, 1),
	}
}

func (f *fakeInputs) Directions() <-chan game.Direction { return f.dirs }
func (f *fakeInputs) Acks() <-chan struct{}             { return f.acks }
func (f *fakeInputs) Quit() <-chan struct{}             { return f.quit }
func (f *fakeInputs) Err() <-chan error                 { return f.errs }

type observerFunc func(TickEvent)

func (f observerFunc) OnTick(ev TickEvent) { f(ev) }

func testConfig() Config {
	return Config{
		Settings: game.Settings{Width: 6, Height: 4, InitialLength: 2},
		Tick:     time.Millisecond,
		Session:  "test",
		Rand:     rand.New(rand.NewSource(1)),
	}
}

func TestDriver_AdvanceDrainsOneIntentPerTick(t *testing.T) {
	display := &recordingDisplay{}
	in := newFakeInputs()
	var events []TickEvent
	d, err := NewDriver(testConfig(), display, in, observerFunc(func(ev TickEvent) { events = append(events, ev) }))
	if err != nil {
		t.Fatalf("NewDriver: %v", err)
	}

	// Head at (2,2) heading Right. Queue Down, Left, Up, Right: the fourth is
	// beyond capacity and dropped.
	in.dirs <- game.Down
	in.dirs <- game.Left
	in.dirs <- game.Up
	in.dirs <- game.Right

	if err := d.advance(); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if len(events) != 1 || events[0].Dropped != 1 {
		t.Fatalf("events=%+v want one event with one drop", events)
	}
	if !events[0].Outcome.Accepted || events[0].State.Direction != game.Down {
		t.Fatalf("first tick outcome %+v dir=%v", events[0].Outcome, events[0].State.Direction)
	}
	if got := d.queue.Pending(); len(got) != 2 || got[0] != game.Left || got[1] != game.Up {
		t.Fatalf("pending=%v want [Left Up]", got)
	}
	if events[0].State.Head() != (game.Point{X: 2, Y: 3}) {
		t.Fatalf("head=%v want (2,3)", events[0].State.Head())
	}
	if len(display.frames) != 1 || display.clears != 1 || display.refresh != 1 {
		t.Fatalf("display calls frames=%d clears=%d refresh=%d", len(display.frames), display.clears, display.refresh)
	}
}

func TestDriver_RunUntilDeathWaitsForAck(t *testing.T) {
	display := &recordingDisplay{}
	in := newFakeInputs()
	d, err := NewDriver(testConfig(), display, in)
	if err != nil {
		t.Fatalf("NewDriver: %v", err)
	}

	// A stale press before death must not count as the acknowledgement.
	in.acks <- struct{}{}

	type runResult struct {
		res Result
		err error
	}
	done := make(chan runResult, 1)
	go func() {
		res, err := d.Run(context.Background())
		done <- runResult{res, err}
	}()

	// Heading Right from x=2 on a 6 wide board: dead on the fifth tick.
	deadline := time.After(2 * time.Second)
	for {
		display.mu.Lock()
		n := len(display.frames)
		over := n > 0 && display.frames[n-1].Over()
		display.mu.Unlock()
		if over {
			break
		}
		select {
		case r := <-done:
			t.Fatalf("Run returned before acknowledgement: %+v", r)
		case <-deadline:
			t.Fatalf("death frame never drawn")
		case <-time.After(time.Millisecond):
		}
	}

	select {
	case r := <-done:
		t.Fatalf("Run returned before acknowledgement: %+v", r)
	case <-time.After(20 * time.Millisecond):
	}

	in.acks <- struct{}{}
	var r runResult
	select {
	case r = <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return after acknowledgement")
	}
	if r.err != nil {
		t.Fatalf("Run: %v", r.err)
	}
	if !r.res.Dead || r.res.Quit || r.res.Won {
		t.Fatalf("result=%+v want dead", r.res)
	}
	last := display.last()
	if last.Message != render.DeathMessage {
		t.Fatalf("last message=%q", last.Message)
	}
	if !strings.Contains(render.Text(last), render.DeathMessage) {
		t.Fatalf("death text missing message")
	}
}

func TestDriver_QuitEndsGame(t *testing.T) {
	in := newFakeInputs()
	cfg := testConfig()
	cfg.Tick = time.Hour
	d, err := NewDriver(cfg, &recordingDisplay{}, in)
	if err != nil {
		t.Fatalf("NewDriver: %v", err)
	}
	close(in.quit)

	res, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.Quit || res.Dead {
		t.Fatalf("result=%+v want quit", res)
	}
}

func TestDriver_InputErrorIsReturned(t *testing.T) {
	in := newFakeInputs()
	cfg := testConfig()
	cfg.Tick = time.Hour
	d, err := NewDriver(cfg, &recordingDisplay{}, in)
	if err != nil {
		t.Fatalf("NewDriver: %v", err)
	}
	in.errs <- errors.Join(input.ErrInput, errors.New("eof"))

	_, err = d.Run(context.Background())
	if !errors.Is(err, input.ErrInput) {
		t.Fatalf("err=%v want ErrInput", err)
	}
}

func TestDriver_ContextCancel(t *testing.T) {
	cfg := testConfig()
	cfg.Tick = time.Hour
	d, err := NewDriver(cfg, &recordingDisplay{}, newFakeInputs())
	if err != nil {
		t.Fatalf("NewDriver: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := d.Run(ctx)
	if err != nil || !res.Quit {
		t.Fatalf("res=%+v err=%v", res, err)
	}
}

func TestNewDriver_RejectsBadBoard(t *testing.T) {
	cfg := testConfig()
	cfg.Settings.InitialLength = 99
	if _, err := NewDriver(cfg, &recordingDisplay{}, newFakeInputs()); !errors.Is(err, game.ErrInvalidSettings) {
		t.Fatalf("err=%v want ErrInvalidSettings", err)
	}
}

func TestNewDriver_ZeroSettingsUseDefaults(t *testing.T) {
	cfg := testConfig()
	cfg.Settings = game.Settings{}
	d, err := NewDriver(cfg, &recordingDisplay{}, newFakeInputs())
	if err != nil {
		t.Fatalf("NewDriver: %v", err)
	}
	state := d.State()
	if state.Width != game.DefaultSettings.Width || state.Height != game.DefaultSettings.Height ||
		len(state.Snake) != game.DefaultSettings.InitialLength {
		t.Fatalf("state %dx%d length %d", state.Width, state.Height, len(state.Snake))
	}
}
