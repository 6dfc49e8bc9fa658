package rules

import (
	"math/rand"

	"github.com/brensch/termsnake/game"
)

// Outcome reports what a single Step did.
type Outcome struct {
	// Intent is the queued direction considered this tick, game.None if the
	// queue was empty.
	Intent   game.Direction
	Accepted bool
	Ate      bool
	Died     bool
	Won      bool
}

// ResolveIntent reports whether next may replace current as the heading.
// Repeating the current heading is a no-op and a 180 degree turn would drive
// the head into the neck, so both are refused.
func ResolveIntent(current, next game.Direction) bool {
	if !next.Valid() {
		return false
	}
	return next != current && next != current.Opposite()
}

// Step advances state by one tick in place.
//
// The oldest queued intent is consumed first. The new head is checked against
// the walls and the body before anything is committed; when not eating the
// current tail is vacated in the same tick and is therefore not an obstacle.
// A terminal state is left untouched.
func Step(state *game.GameState, q *IntentQueue, rng *rand.Rand) Outcome {
	var out Outcome
	if state == nil || state.Terminal() || len(state.Snake) == 0 {
		return out
	}

	if q != nil {
		if next, ok := q.Pop(); ok {
			out.Intent = next
			if ResolveIntent(state.Direction, next) {
				state.Direction = next
				out.Accepted = true
			}
		}
	}

	newHead := state.Head().Add(state.Direction)

	if IsFatal(state, newHead) {
		state.Dead = true
		out.Died = true
		return out
	}

	body := state.Snake
	if state.Eating {
		state.Eating = false
		body = append(body, game.Point{})
	}
	copy(body[1:], body[:len(body)-1])
	body[0] = newHead
	state.Snake = body
	state.Turn++

	if newHead == state.Food {
		out.Ate = true
		if !consumeFood(state, rng) {
			state.Won = true
			out.Won = true
		}
	}

	return out
}

// IsFatal reports whether moving the head to p ends the game.
func IsFatal(state *game.GameState, p game.Point) bool {
	if game.IsOutOfBounds(p, state.Width, state.Height) {
		return true
	}

	body := state.Snake
	if !state.Eating && len(body) > 0 {
		// Tail leaves as the head arrives.
		body = body[:len(body)-1]
	}
	return game.IsOccupied(p, body)
}
