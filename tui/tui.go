// Package tui is the Bubble Tea frontend.
//
// Bubble Tea owns the terminal and its own event loop, so the program runs on
// a goroutine of its own: key messages are handed to the input relay through
// a buffered channel, and frames from the game loop arrive as messages sent
// into the program.
package tui

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/brensch/termsnake/input"
	"github.com/brensch/termsnake/render"
)

// keyBuffer bounds how many key presses may wait for the relay.
const keyBuffer = 64

type frameMsg render.Frame

// Program adapts a Bubble Tea program to input.KeySource and engine.Display.
type Program struct {
	prog   *tea.Program
	keys   chan input.KeyEvent
	done   chan struct{}
	logger *slog.Logger

	mu      sync.Mutex
	pending render.Frame
	runErr  error
}

// Option configures the underlying tea.Program.
type Option = tea.ProgramOption

// New creates the program without starting it. Extra options are passed to
// tea.NewProgram; the alternate screen is always used.
func New(logger *slog.Logger, opts ...Option) *Program {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	p := &Program{
		keys:   make(chan input.KeyEvent, keyBuffer),
		done:   make(chan struct{}),
		logger: logger,
	}
	opts = append([]Option{tea.WithAltScreen()}, opts...)
	p.prog = tea.NewProgram(newModel(p.keys, logger), opts...)
	return p
}

// Start runs the program on a new goroutine.
func (p *Program) Start() {
	go func() {
		_, err := p.prog.Run()
		p.mu.Lock()
		p.runErr = err
		p.mu.Unlock()
		close(p.done)
	}()
}

// ReadKey blocks until Bubble Tea delivers a key or the program stops.
func (p *Program) ReadKey() (input.KeyEvent, error) {
	select {
	case ev := <-p.keys:
		return ev, nil
	case <-p.done:
		// Keys that arrived just before shutdown still count.
		select {
		case ev := <-p.keys:
			return ev, nil
		default:
		}
		if err := p.err(); err != nil {
			return input.KeyEvent{}, fmt.Errorf("bubbletea: %w", err)
		}
		return input.KeyEvent{}, input.ErrClosed
	}
}

// Clear discards the frame being assembled.
func (p *Program) Clear() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = render.Frame{}
	return nil
}

// DrawFrame stages f for the next Refresh.
func (p *Program) DrawFrame(f render.Frame) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = f
	return nil
}

// Refresh hands the staged frame to the program.
func (p *Program) Refresh() error {
	select {
	case <-p.done:
		return errors.New("bubbletea program has exited")
	default:
	}
	p.mu.Lock()
	f := p.pending
	p.mu.Unlock()
	p.prog.Send(frameMsg(f))
	return nil
}

// Close stops the program and restores the terminal.
func (p *Program) Close() error {
	p.prog.Quit()
	<-p.done
	err := p.err()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}

func (p *Program) err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.runErr
}
