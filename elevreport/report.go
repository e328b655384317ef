// report.go
// Purpose: Console formatting for the simulation: per-step move/arrival rows,
// request outcomes and the fleet status block.
package elevreport

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"elevsim/elevdispatch"
)

const cellWidth = 34

func EventString(e elevdispatch.Event) string {
	switch e.Kind {
	case elevdispatch.EventMoved:
		return fmt.Sprintf("Elevator %d: Moving %s to floor %d", e.Car, e.Direction, e.Floor)
	case elevdispatch.EventArrived:
		return fmt.Sprintf("Elevator %d: Arrived at floor %d", e.Car, e.Floor)
	default:
		return fmt.Sprintf("Elevator %d: unknown event at floor %d", e.Car, e.Floor)
	}
}

// Row renders events as "| cell | cell | " with fixed-width cells. It returns ""
// for no events.
func Row(events []elevdispatch.Event) string {
	if len(events) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("| ")
	for _, e := range events {
		fmt.Fprintf(&b, "%-*s | ", cellWidth, EventString(e))
	}
	return b.String()
}

func RequestReceived(trip elevdispatch.Trip) string {
	return Received(trip.Pickup(), trip.Dropoff(), trip.Direction())
}

// Received is RequestReceived for callers holding only the trip's fields, such
// as remote clients.
func Received(pickup, dropoff int, dir elevdispatch.Direction) string {
	return fmt.Sprintf("Request received: Floor %d → %d (%s)", pickup, dropoff, dir)
}

func AssignmentString(a elevdispatch.Assignment) string {
	return Outcome(a.Car, a.Queued)
}

func Outcome(car int, queued bool) string {
	if queued {
		return "Request queued (no suitable elevator available)"
	}
	return fmt.Sprintf("Assigned to Elevator %d", car)
}

func PendingAssigned(a elevdispatch.Assignment) string {
	return PendingAssignedTo(a.Trip.Pickup(), a.Trip.Dropoff(), a.Car)
}

func PendingAssignedTo(pickup, dropoff, car int) string {
	return fmt.Sprintf("Pending request (Floor %d → %d) assigned to Elevator %d", pickup, dropoff, car)
}

// Rejection describes why RequestTrip refused a request.
func Rejection(pickup, dropoff int, err error) string {
	switch {
	case errors.Is(err, elevdispatch.ErrPickupOutOfRange):
		return fmt.Sprintf("Invalid pickup floor: %d", pickup)
	case errors.Is(err, elevdispatch.ErrDropoffOutOfRange):
		return fmt.Sprintf("Invalid dropoff floor: %d", dropoff)
	case errors.Is(err, elevdispatch.ErrSameFloor):
		return "Pickup and dropoff floors cannot be the same"
	default:
		return fmt.Sprintf("Request %d → %d rejected: %v", pickup, dropoff, err)
	}
}

func CarLine(c elevdispatch.CarStatus) string {
	dests := make([]string, len(c.Destinations))
	for i, f := range c.Destinations {
		dests[i] = fmt.Sprint(f)
	}
	return fmt.Sprintf("Elevator %d: Floor %d, Direction: %s, Destinations: [%s]",
		c.ID, c.Floor, c.Direction, strings.Join(dests, ", "))
}

// Printer writes the simulation's console output to W.
type Printer struct {
	W io.Writer
}

func NewPrinter(w io.Writer) *Printer {
	return &Printer{W: w}
}

func (p *Printer) Request(pickup, dropoff int, a elevdispatch.Assignment, err error) {
	if err != nil {
		fmt.Fprintln(p.W, Rejection(pickup, dropoff, err))
		return
	}
	fmt.Fprintln(p.W, RequestReceived(a.Trip))
	fmt.Fprintln(p.W, AssignmentString(a))
}

func (p *Printer) Step(r elevdispatch.StepReport) {
	if row := Row(r.Moves()); row != "" {
		fmt.Fprintln(p.W, row)
	}
	if row := Row(r.Arrivals()); row != "" {
		fmt.Fprintln(p.W, row)
	}
	for _, a := range r.Assigned {
		fmt.Fprintln(p.W, PendingAssigned(a))
	}
}

func (p *Printer) Status(s elevdispatch.Status) {
	fmt.Fprintln(p.W)
	fmt.Fprintln(p.W, "=== ELEVATOR STATUS ===")
	for _, c := range s.Cars {
		fmt.Fprintln(p.W, CarLine(c))
	}
	fmt.Fprintf(p.W, "Pending requests: %d\n", s.Pending)
	fmt.Fprintln(p.W, "=======================")
	fmt.Fprintln(p.W)
}
