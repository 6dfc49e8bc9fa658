// Package game defines the core game state types for the terminal snake game.
//
// These types represent the whole board: one snake, one piece of food, the
// committed heading and the per-tick flags. The state is owned by a single
// goroutine (the loop driver) and is cheap to clone for observers.
package game

import (
	"errors"
	"fmt"
	"math/rand"
)

// ErrInvalidSettings is returned when a board cannot be laid out.
var ErrInvalidSettings = errors.New("invalid game settings")

// Point is a board coordinate.
// Coordinates are 1-indexed: (1,1) is the top-left cell, (W,H) the bottom-right.
type Point struct {
	X int
	Y int
}

// Add moves p one cell along d.
func (p Point) Add(d Direction) Point {
	dx, dy := d.Delta()
	return Point{X: p.X + dx, Y: p.Y + dy}
}

// Settings fixes the board geometry for one game.
type Settings struct {
	Width         int
	Height        int
	InitialLength int
}

// DefaultSettings matches the classic 20x10 board with a 4 segment snake.
var DefaultSettings = Settings{Width: 20, Height: 10, InitialLength: 4}

func (s Settings) validate() error {
	if s.Width < 2 || s.Height < 2 {
		return fmt.Errorf("%w: board %dx%d is too small", ErrInvalidSettings, s.Width, s.Height)
	}
	if s.InitialLength < 1 || s.InitialLength > s.Width {
		return fmt.Errorf("%w: initial length %d does not fit width %d", ErrInvalidSettings, s.InitialLength, s.Width)
	}
	return nil
}

// GameState is the complete state needed for one simulation step.
type GameState struct {
	Width         int
	Height        int
	InitialLength int

	// Snake holds the body, head first.
	Snake     []Point
	Food      Point
	Direction Direction

	// Eating defers tail removal to the next commit.
	Eating bool
	Dead   bool
	// Won is set when food cannot be placed because the snake fills the board.
	Won  bool
	Turn int
}

// NewGameState lays out the starting snake on the middle row, head rightmost,
// heading right. Food starts one cell from the right wall on the same row when
// that cell is free, otherwise on a random free cell.
func NewGameState(s Settings, rng *rand.Rand) (*GameState, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}

	row := s.Height / 2
	body := make([]Point, 0, s.InitialLength)
	for x := s.InitialLength; x >= 1; x-- {
		body = append(body, Point{X: x, Y: row})
	}

	state := &GameState{
		Width:         s.Width,
		Height:        s.Height,
		InitialLength: s.InitialLength,
		Snake:         body,
		Direction:     Right,
	}

	food := Point{X: s.Width - 1, Y: row}
	if IsOccupied(food, body) {
		var ok bool
		food, ok = PlaceFood(rng, s.Width, s.Height, body)
		if !ok {
			state.Won = true
		}
	}
	state.Food = food

	return state, nil
}

// Head returns the head segment.
func (s *GameState) Head() Point { return s.Snake[0] }

// Tail returns the last segment.
func (s *GameState) Tail() Point { return s.Snake[len(s.Snake)-1] }

// Score is the number of segments grown since the start.
func (s *GameState) Score() int { return len(s.Snake) - s.InitialLength }

// Terminal reports whether no further steps will run.
func (s *GameState) Terminal() bool { return s.Dead || s.Won }

// Clone performs a deep copy of the game state.
func (s *GameState) Clone() *GameState {
	if s == nil {
		return nil
	}

	out := *s
	if len(s.Snake) > 0 {
		out.Snake = make([]Point, len(s.Snake))
		copy(out.Snake, s.Snake)
	}
	return &out
}
