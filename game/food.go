// food.go implements food placement for the snake game.

package game

import (
	"math/rand"
)

// rejectionFactor bounds the number of blind draws as a multiple of the board
// area before PlaceFood falls back to enumerating free cells.
const rejectionFactor = 4

// IsOccupied reports whether p is one of the snake's segments.
func IsOccupied(p Point, snake []Point) bool {
	for _, s := range snake {
		if s == p {
			return true
		}
	}
	return false
}

// IsOutOfBounds reports whether p lies outside [1,w]x[1,h].
func IsOutOfBounds(p Point, w, h int) bool {
	return p.X < 1 || p.X > w || p.Y < 1 || p.Y > h
}

// PlaceFood picks a uniformly random cell not covered by the snake.
//
// It draws blindly and rejects occupied cells, which is what almost always
// happens on a mostly empty board. After rejectionFactor*w*h misses it
// enumerates the free cells and picks one of them, so a crowded board still
// terminates with a uniform choice. ok is false when no cell is free.
func PlaceFood(rng *rand.Rand, w, h int, snake []Point) (Point, bool) {
	if w <= 0 || h <= 0 {
		return Point{}, false
	}
	if len(snake) >= w*h {
		return Point{}, false
	}

	for attempt := 0; attempt < rejectionFactor*w*h; attempt++ {
		p := Point{X: rng.Intn(w) + 1, Y: rng.Intn(h) + 1}
		if !IsOccupied(p, snake) {
			return p, true
		}
	}

	occupied := make(map[Point]struct{}, len(snake))
	for _, p := range snake {
		occupied[p] = struct{}{}
	}
	free := make([]Point, 0, w*h-len(occupied))
	for y := 1; y <= h; y++ {
		for x := 1; x <= w; x++ {
			p := Point{X: x, Y: y}
			if _, ok := occupied[p]; ok {
				continue
			}
			free = append(free, p)
		}
	}
	if len(free) == 0 {
		return Point{}, false
	}
	return free[rng.Intn(len(free))], true
}
