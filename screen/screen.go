// Package screen is the tcell frontend: a direct cell-addressed terminal
// screen with no extra event loop of its own.
package screen

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/brensch/termsnake/input"
	"github.com/brensch/termsnake/render"
)

var (
	emptyStyle   = tcell.StyleDefault.Foreground(tcell.ColorDarkGray)
	bodyStyle    = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	headStyle    = tcell.StyleDefault.Foreground(tcell.ColorLime).Bold(true)
	foodStyle    = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	borderStyle  = tcell.StyleDefault.Foreground(tcell.ColorSlateBlue)
	textStyle    = tcell.StyleDefault.Bold(true)
	messageStyle = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
)

// Screen adapts a tcell.Screen to input.KeySource and engine.Display.
type Screen struct {
	s tcell.Screen
}

// New initialises the terminal.
func New() (*Screen, error) {
	s, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("create screen: %w", err)
	}
	if err := s.Init(); err != nil {
		return nil, fmt.Errorf("init screen: %w", err)
	}
	return Wrap(s), nil
}

// Wrap uses an already initialised screen, such as a simulation screen.
func Wrap(s tcell.Screen) *Screen {
	s.HideCursor()
	s.Clear()
	return &Screen{s: s}
}

// ReadKey blocks on the tcell event queue. Resizes are handled here and
// never reach the caller. A nil event means the screen was finalised.
func (sc *Screen) ReadKey() (input.KeyEvent, error) {
	for {
		ev := sc.s.PollEvent()
		switch ev := ev.(type) {
		case nil:
			return input.KeyEvent{}, input.ErrClosed
		case *tcell.EventKey:
			return keyEvent(ev), nil
		case *tcell.EventResize:
			sc.s.Sync()
		case *tcell.EventError:
			return input.KeyEvent{}, fmt.Errorf("tcell: %w", ev)
		}
	}
}

func keyEvent(ev *tcell.EventKey) input.KeyEvent {
	out := input.KeyEvent{Kind: input.Press}
	switch ev.Key() {
	case tcell.KeyUp:
		out.Key = input.KeyUp
	case tcell.KeyDown:
		out.Key = input.KeyDown
	case tcell.KeyLeft:
		out.Key = input.KeyLeft
	case tcell.KeyRight:
		out.Key = input.KeyRight
	case tcell.KeyEscape:
		out.Key = input.KeyEscape
	case tcell.KeyCtrlC:
		out.Key = input.KeyInterrupt
	case tcell.KeyRune:
		out.Key = input.KeyRune
		out.Rune = ev.Rune()
	default:
		out.Key = input.KeyOther
	}
	return out
}

func (sc *Screen) Clear() error {
	sc.s.Clear()
	return nil
}

// DrawFrame writes the score line, the bordered grid and the message, laid
// out like render.Text.
func (sc *Screen) DrawFrame(f render.Frame) error {
	sc.puts(0, 0, fmt.Sprintf("Score: %d", f.Score), textStyle)

	const top = 2
	w, h := f.Grid.Width(), f.Grid.Height()
	for x := 0; x < w+2; x++ {
		sc.s.SetContent(x, top, '-', nil, borderStyle)
		sc.s.SetContent(x, top+h+1, '-', nil, borderStyle)
	}
	for y, row := range f.Grid {
		sc.s.SetContent(0, top+1+y, '|', nil, borderStyle)
		for x, c := range row {
			sc.s.SetContent(1+x, top+1+y, rune(c), nil, glyphStyle(c))
		}
		sc.s.SetContent(w+1, top+1+y, '|', nil, borderStyle)
	}

	if f.Over() {
		sc.puts(0, top+h+2, f.Message, messageStyle)
	}
	return nil
}

func (sc *Screen) Refresh() error {
	sc.s.Show()
	return nil
}

// Close restores the terminal. Any goroutine blocked in ReadKey returns
// input.ErrClosed.
func (sc *Screen) Close() error {
	sc.s.Fini()
	return nil
}

func (sc *Screen) puts(x, y int, s string, style tcell.Style) {
	for i, r := range []rune(s) {
		sc.s.SetContent(x+i, y, r, nil, style)
	}
}

func glyphStyle(c render.Glyph) tcell.Style {
	switch c {
	case render.Head:
		return headStyle
	case render.Body:
		return bodyStyle
	case render.Food:
		return foodStyle
	}
	return emptyStyle
}
