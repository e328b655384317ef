package elevdispatch

import (
	"fmt"

	"github.com/google/uuid"
)

// Trip is one passenger journey from a pickup floor to a dropoff floor.
// The zero value is not a valid trip; build trips with NewTrip.
type Trip struct {
	id        uuid.UUID
	pickup    int
	dropoff   int
	direction Direction
}

// NewTrip expects pickup != dropoff. The Dispatcher checks this before calling.
func NewTrip(pickup, dropoff int) Trip {
	dir := Down
	if dropoff > pickup {
		dir = Up
	}
	return Trip{
		id:        uuid.New(),
		pickup:    pickup,
		dropoff:   dropoff,
		direction: dir,
	}
}

func (t Trip) ID() uuid.UUID { return t.id }
func (t Trip) Pickup() int { return t.pickup }
func (t Trip) Dropoff() int { return t.dropoff }
func (t Trip) Direction() Direction { return t.direction }

func (t Trip) String() string {
	return fmt.Sprintf("Floor %d → %d (%s)", t.pickup, t.dropoff, t.direction)
}
