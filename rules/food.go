package rules

import (
	"math/rand"
	"time"

	"github.com/brensch/termsnake/game"
)

// consumeFood marks the snake as eating and moves the food to a free cell of
// the already committed body. It returns false when the body covers the whole
// board, which ends the game as a win.
//
// A nil rng falls back to a time seeded source so Step stays usable from
// tests that never reach food.
func consumeFood(state *game.GameState, rng *rand.Rand) bool {
	state.Eating = true

	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	p, ok := game.PlaceFood(rng, state.Width, state.Height, state.Snake)
	if !ok {
		return false
	}
	state.Food = p
	return true
}
