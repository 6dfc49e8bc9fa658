package rules

import "github.com/brensch/termsnake/game"

// IntentCapacity caps how many turns can be queued ahead of the snake.
// Anything pressed beyond that is dropped so input lag stays bounded.
const IntentCapacity = 3

// IntentQueue is a bounded FIFO of directions waiting to be committed.
// It is owned by the loop driver and is not safe for concurrent use.
type IntentQueue struct {
	buf   [IntentCapacity]game.Direction
	start int
	n     int
}

// Push appends d. When the queue is full the new value is discarded, keeping
// the oldest entries, and Push returns false.
func (q *IntentQueue) Push(d game.Direction) bool {
	if q.n == IntentCapacity {
		return false
	}
	q.buf[(q.start+q.n)%IntentCapacity] = d
	q.n++
	return true
}

// Pop removes and returns the oldest entry.
func (q *IntentQueue) Pop() (game.Direction, bool) {
	if q.n == 0 {
		return game.None, false
	}
	d := q.buf[q.start]
	q.start = (q.start + 1) % IntentCapacity
	q.n--
	return d, true
}

// Pending returns the queued entries, oldest first.
func (q *IntentQueue) Pending() []game.Direction {
	out := make([]game.Direction, 0, q.n)
	for i := 0; i < q.n; i++ {
		out = append(out, q.buf[(q.start+i)%IntentCapacity])
	}
	return out
}
