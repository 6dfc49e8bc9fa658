// Package input turns raw key events from a terminal frontend into
// directional intents for the game loop.
package input

import (
	"unicode"

	"github.com/brensch/termsnake/game"
)

// Key identifies a key independently of the terminal library.
type Key uint8

const (
	KeyOther Key = iota
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	// KeyRune carries a printable character in KeyEvent.Rune.
	KeyRune
	KeyEscape
	// KeyInterrupt is Ctrl+C delivered as a key in raw mode.
	KeyInterrupt
)

// Kind distinguishes presses from releases. Most terminals only ever report
// presses.
type Kind uint8

const (
	Press Kind = iota
	Release
)

// KeyEvent is one raw event from a KeySource.
type KeyEvent struct {
	Key  Key
	Rune rune
	Kind Kind
}

// KeySource is the blocking input side of a frontend.
type KeySource interface {
	// ReadKey blocks until the next key event. An error means the input
	// device is gone; callers must not retry.
	ReadKey() (KeyEvent, error)
}

// Translate maps arrow keys and WASD presses to a direction. Everything else,
// including releases, maps to game.None.
func Translate(ev KeyEvent) game.Direction {
	if ev.Kind != Press {
		return game.None
	}
	switch ev.Key {
	case KeyUp:
		return game.Up
	case KeyDown:
		return game.Down
	case KeyLeft:
		return game.Left
	case KeyRight:
		return game.Right
	case KeyRune:
		switch unicode.ToLower(ev.Rune) {
		case 'w':
			return game.Up
		case 's':
			return game.Down
		case 'a':
			return game.Left
		case 'd':
			return game.Right
		}
	}
	return game.None
}

// IsQuit reports whether ev asks to leave the game: Esc, Ctrl+C or q.
func IsQuit(ev KeyEvent) bool {
	if ev.Kind != Press {
		return false
	}
	switch ev.Key {
	case KeyEscape, KeyInterrupt:
		return true
	case KeyRune:
		return unicode.ToLower(ev.Rune) == 'q'
	}
	return false
}
