// dispatcher.go
// Purpose: Owns the fleet and the backlog of unassigned trips. Admits trip
// requests, picks a car for each one and advances the whole fleet one step at a time.
package elevdispatch

import (
	"errors"
	"fmt"
	"sync"

	"elevsim/logger"
)

var Log = logger.GetLogger()

var (
	ErrPickupOutOfRange  = errors.New("invalid pickup floor")
	ErrDropoffOutOfRange = errors.New("invalid dropoff floor")
	ErrSameFloor         = errors.New("pickup and dropoff floors cannot be the same")
	ErrInvalidFleet      = errors.New("invalid fleet configuration")
)

// Dispatcher is safe for concurrent use. Every exported method holds the same
// mutex for its whole duration, so cars and backlog always change together.
type Dispatcher struct {
	mu         sync.Mutex
	cars       []*Car
	pending    []Trip
	floorCount int
	step       int
}

// NewDispatcher builds numCars idle cars at floor 1 serving floors [1, numFloors].
func NewDispatcher(numCars, numFloors int) (*Dispatcher, error) {
	if numCars < 1 {
		return nil, fmt.Errorf("%w: need at least one car, got %d", ErrInvalidFleet, numCars)
	}
	if numFloors < 2 {
		return nil, fmt.Errorf("%w: need at least two floors, got %d", ErrInvalidFleet, numFloors)
	}

	cars := make([]*Car, numCars)
	for i := range cars {
		cars[i] = NewCar(i + 1)
	}
	return &Dispatcher{cars: cars, floorCount: numFloors}, nil
}

func (d *Dispatcher) FloorCount() int { return d.floorCount }

func (d *Dispatcher) NumCars() int { return len(d.cars) }

// RequestTrip validates and admits a trip. A rejected request returns one of
// ErrPickupOutOfRange, ErrDropoffOutOfRange or ErrSameFloor (wrapped) and changes
// nothing. An admitted trip is either accepted by a car or queued.
func (d *Dispatcher) RequestTrip(pickup, dropoff int) (Assignment, error) {
	if pickup < 1 || pickup > d.floorCount {
		return Assignment{}, fmt.Errorf("%w: %d", ErrPickupOutOfRange, pickup)
	}
	if dropoff < 1 || dropoff > d.floorCount {
		return Assignment{}, fmt.Errorf("%w: %d", ErrDropoffOutOfRange, dropoff)
	}
	if pickup == dropoff {
		return Assignment{}, fmt.Errorf("%w: %d", ErrSameFloor, pickup)
	}

	trip := NewTrip(pickup, dropoff)

	d.mu.Lock()
	defer d.mu.Unlock()

	Log.Debug().Str("trip", trip.ID().String()).Msgf("Request received: %s", trip)

	car, ok := d.findBestCar(trip)
	if !ok {
		d.pending = append(d.pending, trip)
		Log.Debug().Str("trip", trip.ID().String()).Int("pending", len(d.pending)).Msg("Trip queued")
		return Assignment{Trip: trip, Queued: true}, nil
	}
	car.Accept(trip)
	Log.Debug().Str("trip", trip.ID().String()).Int("car", car.ID()).Msg("Trip assigned")
	return Assignment{Trip: trip, Car: car.ID()}, nil
}

// FindBestCar returns the car the trip would be given right now without
// assigning it.
func (d *Dispatcher) FindBestCar(trip Trip) (CarStatus, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	car, ok := d.findBestCar(trip)
	if !ok {
		return CarStatus{}, false
	}
	return car.snapshot(), true
}

// findBestCar picks the eligible car closest to the pickup, then the one with the
// fewest queued destinations. Remaining ties go to the lowest car id.
func (d *Dispatcher) findBestCar(trip Trip) (*Car, bool) {
	var best *Car
	bestDistance, bestLoad := 0, 0

	for _, car := range d.cars {
		if !car.CanAccept(trip) {
			continue
		}
		distance := abs(car.Floor() - trip.Pickup())
		load := car.Load()
		if best == nil || distance < bestDistance || (distance == bestDistance && load < bestLoad) {
			best, bestDistance, bestLoad = car, distance, load
		}
	}
	return best, best != nil
}

// Step advances every car once, in fleet order, and then offers each backlog
// trip, oldest first, to the fleet again.
func (d *Dispatcher) Step() StepReport {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.step++
	report := StepReport{Step: d.step}

	for _, car := range d.cars {
		tick, active := car.Advance()
		if !active {
			continue
		}
		for _, e := range tick.Events() {
			Log.Debug().Int("step", d.step).Str("event", e.EventType()).Int("car", e.Car).Int("floor", e.Floor).Msg("Car advanced")
			report.Events = append(report.Events, e)
		}
	}

	report.Assigned = d.drainPending()
	return report
}

func (d *Dispatcher) drainPending() []Assignment {
	if len(d.pending) == 0 {
		return nil
	}

	var assigned []Assignment
	remaining := d.pending[:0]
	for _, trip := range d.pending {
		car, ok := d.findBestCar(trip)
		if !ok {
			remaining = append(remaining, trip)
			continue
		}
		car.Accept(trip)
		assigned = append(assigned, Assignment{Trip: trip, Car: car.ID()})
		Log.Debug().Str("trip", trip.ID().String()).Int("car", car.ID()).Msgf("Pending request (%s) assigned", trip)
	}
	clear(d.pending[len(remaining):])
	d.pending = remaining
	return assigned
}

// Status returns a copy of the fleet and backlog state.
func (d *Dispatcher) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()

	return Status{
		Step:    d.step,
		Cars:    d.snapshotCars(),
		Pending: len(d.pending),
	}
}

// Cars returns a copy of every car in fleet order.
func (d *Dispatcher) Cars() []CarStatus {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snapshotCars()
}

func (d *Dispatcher) snapshotCars() []CarStatus {
	cars := make([]CarStatus, len(d.cars))
	for i, car := range d.cars {
		cars[i] = car.snapshot()
	}
	return cars
}

// Car returns a copy of the car with the given 1-based id.
func (d *Dispatcher) Car(id int) (CarStatus, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if id < 1 || id > len(d.cars) {
		return CarStatus{}, false
	}
	return d.cars[id-1].snapshot(), true
}

func (d *Dispatcher) PendingCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// PendingTrips returns the backlog in arrival order.
func (d *Dispatcher) PendingTrips() []Trip {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]Trip, len(d.pending))
	copy(out, d.pending)
	return out
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
