package elevdispatch

import "fmt"

type Direction int

const (
	Down Direction = -1
	Idle Direction = 0
	Up   Direction = 1
)

func (d Direction) String() string {
	switch d {
	case Up:
		return "UP"
	case Down:
		return "DOWN"
	case Idle:
		return "IDLE"
	default:
		return "UNDEFINED"
	}
}

func (d Direction) MarshalText() ([]byte, error) {
	switch d {
	case Up, Down, Idle:
		return []byte(d.String()), nil
	}
	return nil, fmt.Errorf("invalid direction %d", int(d))
}

func (d *Direction) UnmarshalText(text []byte) error {
	switch string(text) {
	case "UP":
		*d = Up
	case "DOWN":
		*d = Down
	case "IDLE":
		*d = Idle
	default:
		return fmt.Errorf("invalid direction %q", text)
	}
	return nil
}

// ahead reports whether floor lies strictly beyond from when travelling in d.
func (d Direction) ahead(from, floor int) bool {
	switch d {
	case Up:
		return floor > from
	case Down:
		return floor < from
	default:
		return false
	}
}
