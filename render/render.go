// Package render projects a game state onto a grid of glyphs.
//
// Projection is pure. Putting the grid on a terminal is left to the
// frontends; Text gives them (and the spectator feed) a plain layout.
package render

import (
	"fmt"
	"strings"

	"github.com/brensch/termsnake/game"
)

// Glyph is the rune drawn for one board cell.
type Glyph rune

const (
	Empty Glyph = '~'
	Body  Glyph = '@'
	Head  Glyph = '&'
	Food  Glyph = '$'
)

const (
	DeathMessage = "You Died"
	WinMessage   = "You Win"
)

// Grid is indexed [row][col]; row 0 is y=1.
type Grid [][]Glyph

// Width is the number of columns.
func (g Grid) Width() int {
	if len(g) == 0 {
		return 0
	}
	return len(g[0])
}

// Height is the number of rows.
func (g Grid) Height() int { return len(g) }

// Row returns one row as a string.
func (g Grid) Row(i int) string {
	var sb strings.Builder
	sb.Grow(len(g[i]))
	for _, c := range g[i] {
		sb.WriteRune(rune(c))
	}
	return sb.String()
}

// Project builds the W x H grid for state. Segments outside the board (which
// a committed state never has) are skipped.
func Project(state *game.GameState) Grid {
	grid := make(Grid, state.Height)
	for y := range grid {
		grid[y] = make([]Glyph, state.Width)
		for x := range grid[y] {
			grid[y][x] = Empty
		}
	}

	for i, p := range state.Snake {
		if game.IsOutOfBounds(p, state.Width, state.Height) {
			continue
		}
		if i == 0 {
			grid[p.Y-1][p.X-1] = Head
		} else {
			grid[p.Y-1][p.X-1] = Body
		}
	}

	// Food under a segment is an invariant violation; the snake wins the cell.
	f := state.Food
	if !game.IsOutOfBounds(f, state.Width, state.Height) && grid[f.Y-1][f.X-1] == Empty {
		grid[f.Y-1][f.X-1] = Food
	}

	return grid
}

// Frame is everything a display needs for one redraw.
type Frame struct {
	Grid  Grid
	Score int
	// Message is set on the final frame only.
	Message string
}

// Over reports whether this is the final frame of a game.
func (f Frame) Over() bool { return f.Message != "" }

// NewFrame projects state and attaches the end-of-game message if any.
func NewFrame(state *game.GameState) Frame {
	f := Frame{Grid: Project(state), Score: state.Score()}
	switch {
	case state.Dead:
		f.Message = DeathMessage
	case state.Won:
		f.Message = WinMessage
	}
	return f
}

// Text lays a frame out the way the plain terminal version prints it:
// score line, a blank line, a dashed border, |row| lines, the border again
// and finally the message when the game is over.
func Text(f Frame) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Score: %d\n\n", f.Score)
	border := strings.Repeat("-", f.Grid.Width()+2)
	sb.WriteString(border)
	sb.WriteByte('\n')
	for i := range f.Grid {
		sb.WriteByte('|')
		sb.WriteString(f.Grid.Row(i))
		sb.WriteString("|\n")
	}
	sb.WriteString(border)
	sb.WriteByte('\n')
	if f.Message != "" {
		sb.WriteString(f.Message)
		sb.WriteByte('\n')
	}
	return sb.String()
}
