package elevdispatch

import "slices"

const startFloor = 1

// Car is a single elevator. It is owned by a Dispatcher and only mutated through it.
type Car struct {
	id           int
	floor        int
	direction    Direction
	destinations []int
}

// NewCar returns an idle car parked at floor 1.
func NewCar(id int) *Car {
	return &Car{
		id:        id,
		floor:     startFloor,
		direction: Idle,
	}
}

func (c *Car) ID() int { return c.id }
func (c *Car) Floor() int { return c.floor }
func (c *Car) Direction() Direction { return c.direction }

// Load is the number of queued destinations.
func (c *Car) Load() int { return len(c.destinations) }

// Destinations returns a copy of the destination queue, front first.
func (c *Car) Destinations() []int { return slices.Clone(c.destinations) }

// CanAccept reports whether the car may take trip right now. An idle car takes
// anything. A moving car only takes trips going its way whose pickup it has not
// reached yet; a pickup at the current floor is refused.
func (c *Car) CanAccept(trip Trip) bool {
	if c.direction == Idle {
		return true
	}
	if trip.Direction() != c.direction {
		return false
	}
	return c.direction.ahead(c.floor, trip.Pickup())
}

// Accept queues the trip's pickup and dropoff floors. It does not re-check
// CanAccept and leaves the direction alone until the next Advance.
func (c *Car) Accept(trip Trip) {
	c.destinations = append(c.destinations, trip.Pickup(), trip.Dropoff())
}

// Advance moves the car at most one floor toward its first destination and pops
// that destination once the car stands on it. It returns false when the car had
// nothing to do.
func (c *Car) Advance() (Tick, bool) {
	if len(c.destinations) == 0 {
		c.direction = Idle
		return Tick{}, false
	}

	var tick Tick
	target := c.destinations[0]
	switch {
	case target > c.floor:
		c.direction = Up
		c.floor++
		moved := MovedEvent(c.id, c.floor, Up)
		tick.Moved = &moved
	case target < c.floor:
		c.direction = Down
		c.floor--
		moved := MovedEvent(c.id, c.floor, Down)
		tick.Moved = &moved
	}

	if c.floor == target {
		c.destinations = c.destinations[1:]
		arrived := ArrivedEvent(c.id, c.floor)
		tick.Arrived = &arrived
	}
	return tick, true
}

func (c *Car) snapshot() CarStatus {
	return CarStatus{
		ID:           c.id,
		Floor:        c.floor,
		Direction:    c.direction,
		Destinations: c.Destinations(),
	}
}
