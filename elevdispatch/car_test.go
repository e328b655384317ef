package elevdispatch

import (
	"slices"
	"testing"

	"github.com/rs/zerolog"

	"elevsim/logger"
)

func init() {
	_ = logger.GetLoggerConfigured(zerolog.Disabled)
}

// carAt drives a fresh car to floor and leaves it with direction dir.
func carAt(t *testing.T, floor int, dir Direction) *Car {
	t.Helper()
	car := NewCar(1)
	car.floor = floor
	car.direction = dir
	return car
}

func TestNewCar(t *testing.T) {
	car := NewCar(3)
	if car.ID() != 3 {
		t.Errorf("ID() = %d, expected 3", car.ID())
	}
	if car.Floor() != 1 {
		t.Errorf("Floor() = %d, expected 1", car.Floor())
	}
	if car.Direction() != Idle {
		t.Errorf("Direction() = %v, expected IDLE", car.Direction())
	}
	if car.Load() != 0 {
		t.Errorf("Load() = %d, expected 0", car.Load())
	}
}

func TestCanAccept(t *testing.T) {
	cases := []struct {
		name    string
		floor   int
		dir     Direction
		pickup  int
		dropoff int
		want    bool
	}{
		{"idle takes up trip below", 5, Idle, 2, 9, true},
		{"idle takes down trip above", 5, Idle, 8, 1, true},
		{"idle takes trip at own floor", 5, Idle, 5, 1, true},
		{"up takes up trip ahead", 3, Up, 4, 6, true},
		{"up refuses up trip at own floor", 3, Up, 3, 6, false},
		{"up refuses up trip behind", 3, Up, 2, 6, false},
		{"up refuses down trip ahead", 3, Up, 8, 4, false},
		{"down takes down trip ahead", 7, Down, 5, 1, true},
		{"down refuses down trip at own floor", 7, Down, 7, 1, false},
		{"down refuses down trip behind", 7, Down, 9, 8, false},
		{"down refuses up trip ahead", 7, Down, 2, 5, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			car := carAt(t, c.floor, c.dir)
			before := car.Destinations()
			got := car.CanAccept(NewTrip(c.pickup, c.dropoff))
			if got != c.want {
				t.Errorf("CanAccept(%d→%d) from floor %d %v = %v, expected %v",
					c.pickup, c.dropoff, c.floor, c.dir, got, c.want)
			}
			if car.Floor() != c.floor || car.Direction() != c.dir || !slices.Equal(before, car.Destinations()) {
				t.Errorf("CanAccept mutated the car")
			}
		})
	}
}

func TestAcceptAppendsPickupThenDropoff(t *testing.T) {
	car := NewCar(1)
	car.Accept(NewTrip(5, 9))
	car.Accept(NewTrip(3, 1))

	expected := []int{5, 9, 3, 1}
	if got := car.Destinations(); !slices.Equal(got, expected) {
		t.Errorf("Destinations() = %v, expected %v", got, expected)
	}
	if car.Direction() != Idle {
		t.Errorf("Direction() = %v after Accept, expected IDLE until the next Advance", car.Direction())
	}
}

func TestDestinationsIsACopy(t *testing.T) {
	car := NewCar(1)
	car.Accept(NewTrip(4, 2))

	dests := car.Destinations()
	dests[0] = 10
	if got := car.Destinations(); got[0] != 4 {
		t.Errorf("Destinations()[0] = %d after mutating the returned slice, expected 4", got[0])
	}
}

func TestAdvanceIdleIsNoop(t *testing.T) {
	car := carAt(t, 4, Up)
	for i := 0; i < 5; i++ {
		tick, active := car.Advance()
		if active {
			t.Fatalf("Advance() reported activity on an empty car: %+v", tick)
		}
		if car.Floor() != 4 {
			t.Errorf("Floor() = %d, expected 4", car.Floor())
		}
		if car.Direction() != Idle {
			t.Errorf("Direction() = %v, expected IDLE", car.Direction())
		}
	}
}

func TestAdvanceConvergesOnSingleDestination(t *testing.T) {
	for _, target := range []int{7, 1, 4} {
		car := carAt(t, 4, Idle)
		car.destinations = []int{target}

		distance := abs(car.Floor() - target)
		steps := 0
		for {
			tick, active := car.Advance()
			if !active {
				t.Fatalf("target %d: car went idle before arriving", target)
			}
			steps++
			newDistance := abs(car.Floor() - target)
			if distance > 0 && newDistance != distance-1 {
				t.Fatalf("target %d: distance went from %d to %d", target, distance, newDistance)
			}
			distance = newDistance
			if newDistance == 0 {
				if tick.Arrived == nil {
					t.Fatalf("target %d: reached floor without an arrival event", target)
				}
				if car.Load() != 0 {
					t.Errorf("target %d: destination not popped on arrival", target)
				}
				break
			}
			if tick.Arrived != nil {
				t.Fatalf("target %d: arrival event at floor %d", target, car.Floor())
			}
		}

		want := abs(4 - target)
		if want == 0 {
			want = 1
		}
		if steps != want {
			t.Errorf("target %d: took %d advances, expected %d", target, steps, want)
		}
	}
}

func TestAdvanceEvents(t *testing.T) {
	car := NewCar(2)
	car.Accept(NewTrip(2, 1))

	tick, active := car.Advance()
	if !active {
		t.Fatalf("Advance() = inactive, expected movement")
	}
	if tick.Moved == nil || *tick.Moved != MovedEvent(2, 2, Up) {
		t.Errorf("Moved = %+v, expected %+v", tick.Moved, MovedEvent(2, 2, Up))
	}
	if tick.Arrived == nil || *tick.Arrived != ArrivedEvent(2, 2) {
		t.Errorf("Arrived = %+v, expected %+v", tick.Arrived, ArrivedEvent(2, 2))
	}
	if car.Direction() != Up {
		t.Errorf("Direction() = %v, expected UP", car.Direction())
	}

	tick, _ = car.Advance()
	if tick.Moved == nil || *tick.Moved != MovedEvent(2, 1, Down) {
		t.Errorf("Moved = %+v, expected %+v", tick.Moved, MovedEvent(2, 1, Down))
	}
	if tick.Arrived == nil || *tick.Arrived != ArrivedEvent(2, 1) {
		t.Errorf("Arrived = %+v, expected %+v", tick.Arrived, ArrivedEvent(2, 1))
	}

	_, active = car.Advance()
	if active || car.Direction() != Idle {
		t.Errorf("car still active after completing its trip (direction %v)", car.Direction())
	}
}

func TestEventType(t *testing.T) {
	cases := []struct {
		event Event
		want  string
	}{
		{MovedEvent(1, 4, Up), "MovedEvent"},
		{ArrivedEvent(2, 3), "ArrivedEvent"},
		{Event{Car: 1, Floor: 1}, "UnknownEvent"},
	}
	for _, c := range cases {
		if got := c.event.EventType(); got != c.want {
			t.Errorf("EventType() of %+v = %q, expected %q", c.event, got, c.want)
		}
	}
}

func TestAdvanceParkedArrivesWithoutMoving(t *testing.T) {
	car := NewCar(1)
	car.Accept(NewTrip(1, 3))

	tick, active := car.Advance()
	if !active {
		t.Fatalf("Advance() = inactive, expected an arrival")
	}
	if tick.Moved != nil {
		t.Errorf("Moved = %+v, expected no movement", tick.Moved)
	}
	if tick.Arrived == nil || *tick.Arrived != ArrivedEvent(1, 1) {
		t.Errorf("Arrived = %+v, expected %+v", tick.Arrived, ArrivedEvent(1, 1))
	}
	if car.Direction() != Idle {
		t.Errorf("Direction() = %v, expected IDLE to be kept while parked", car.Direction())
	}
	if got := car.Destinations(); !slices.Equal(got, []int{3}) {
		t.Errorf("Destinations() = %v, expected [3]", got)
	}
}
