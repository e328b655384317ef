package elevdispatch

type EventKind int

const (
	EventMoved EventKind = iota + 1
	EventArrived
)

// Event is what a car reports from a single advance. Direction is only set for
// EventMoved.
type Event struct {
	Kind      EventKind `json:"kind"`
	Car       int       `json:"car"`
	Floor     int       `json:"floor"`
	Direction Direction `json:"direction,omitempty"`
}

func MovedEvent(car, floor int, dir Direction) Event {
	return Event{Kind: EventMoved, Car: car, Floor: floor, Direction: dir}
}

func ArrivedEvent(car, floor int) Event {
	return Event{Kind: EventArrived, Car: car, Floor: floor}
}

func (e Event) EventType() string {
	switch e.Kind {
	case EventMoved:
		return "MovedEvent"
	case EventArrived:
		return "ArrivedEvent"
	default:
		return "UnknownEvent"
	}
}

// Tick is the outcome of one Car.Advance. Either field may be nil.
type Tick struct {
	Moved   *Event
	Arrived *Event
}

// Events returns the tick's events, move first.
func (t Tick) Events() []Event {
	var events []Event
	if t.Moved != nil {
		events = append(events, *t.Moved)
	}
	if t.Arrived != nil {
		events = append(events, *t.Arrived)
	}
	return events
}

// Assignment records where an admitted trip went. Car is 0 when the trip was queued.
type Assignment struct {
	Trip   Trip
	Car    int
	Queued bool
}

// StepReport is everything that happened during one Dispatcher.Step.
type StepReport struct {
	Step int
	// Events in fleet order, per car move before arrival.
	Events []Event
	// Backlog trips handed to a car after the cars advanced.
	Assigned []Assignment
}

func (r StepReport) Moves() []Event {
	return r.filter(EventMoved)
}

func (r StepReport) Arrivals() []Event {
	return r.filter(EventArrived)
}

func (r StepReport) filter(kind EventKind) []Event {
	var out []Event
	for _, e := range r.Events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}
