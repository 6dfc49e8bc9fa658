package game

// Direction is a heading on the board.
// None is the zero value and only ever appears on the input side; a committed
// heading is always one of the four real directions.
type Direction uint8

const (
	None Direction = iota
	Up
	Down
	Left
	Right
)

var directionNames = [...]string{"None", "Up", "Down", "Left", "Right"}

func (d Direction) String() string {
	if int(d) < len(directionNames) {
		return directionNames[d]
	}
	return "Direction(?)"
}

// Opposite maps Up<->Down and Left<->Right.
func (d Direction) Opposite() Direction {
	switch d {
	case Up:
		return Down
	case Down:
		return Up
	case Left:
		return Right
	case Right:
		return Left
	}
	return None
}

// Delta is the unit step for d. Y grows downwards.
func (d Direction) Delta() (dx, dy int) {
	switch d {
	case Up:
		return 0, -1
	case Down:
		return 0, 1
	case Left:
		return -1, 0
	case Right:
		return 1, 0
	}
	return 0, 0
}

// Valid reports whether d is one of the four headings.
func (d Direction) Valid() bool {
	return d >= Up && d <= Right
}
