package elevnetwork

import (
	"encoding/json"
	"errors"
	"fmt"

	"elevsim/common"
	"elevsim/elevdispatch"
)

type MsgKind string

const (
	MsgHello   MsgKind = "hello"
	MsgRequest MsgKind = "request"
	MsgAck     MsgKind = "ack"
	MsgReject  MsgKind = "reject"
	MsgStatus  MsgKind = "status"
	MsgReport  MsgKind = "report"
)

// Rejection codes carried in reject messages, so clients can rebuild the
// dispatcher's sentinel errors.
const (
	codePickupOutOfRange  = "pickup_out_of_range"
	codeDropoffOutOfRange = "dropoff_out_of_range"
	codeSameFloor         = "same_floor"
	codeTooLarge          = "too_large"
	codeBadMessage        = "bad_message"
)

var (
	ErrRejected   = errors.New("request rejected")
	ErrBadMessage = errors.New("malformed message")
)

type netMsg struct {
	Kind    MsgKind `json:"kind"`
	Origin  string  `json:"origin,omitempty"`
	Counter uint64  `json:"counter,omitempty"`

	Pickup  int `json:"pickup,omitempty"`
	Dropoff int `json:"dropoff,omitempty"`

	Assignment *AssignmentMsg       `json:"assignment,omitempty"`
	Status     *elevdispatch.Status `json:"status,omitempty"`
	Report     *ReportMsg           `json:"report,omitempty"`

	Code  string `json:"code,omitempty"`
	Error string `json:"error,omitempty"`
}

// AssignmentMsg is the wire form of elevdispatch.Assignment.
type AssignmentMsg struct {
	TripID    string                 `json:"tripId"`
	Pickup    int                    `json:"pickup"`
	Dropoff   int                    `json:"dropoff"`
	Direction elevdispatch.Direction `json:"direction"`
	Car       int                    `json:"car,omitempty"`
	Queued    bool                   `json:"queued,omitempty"`
}

func NewAssignmentMsg(a elevdispatch.Assignment) AssignmentMsg {
	return AssignmentMsg{
		TripID:    a.Trip.ID().String(),
		Pickup:    a.Trip.Pickup(),
		Dropoff:   a.Trip.Dropoff(),
		Direction: a.Trip.Direction(),
		Car:       a.Car,
		Queued:    a.Queued,
	}
}

func (a AssignmentMsg) String() string {
	if a.Queued {
		return fmt.Sprintf("Floor %d → %d (%s): queued", a.Pickup, a.Dropoff, a.Direction)
	}
	return fmt.Sprintf("Floor %d → %d (%s): Elevator %d", a.Pickup, a.Dropoff, a.Direction, a.Car)
}

// ReportMsg is the wire form of elevdispatch.StepReport.
type ReportMsg struct {
	Step     int                  `json:"step"`
	Events   []elevdispatch.Event `json:"events,omitempty"`
	Assigned []AssignmentMsg      `json:"assigned,omitempty"`
}

func NewReportMsg(r elevdispatch.StepReport) ReportMsg {
	msg := ReportMsg{Step: r.Step, Events: r.Events}
	for _, a := range r.Assigned {
		msg.Assigned = append(msg.Assigned, NewAssignmentMsg(a))
	}
	return msg
}

func encodeNetMsg(msg netMsg) ([]byte, error) {
	b, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode %s message: %w", msg.Kind, err)
	}
	return b, nil
}

func decodeNetMsg(frame []byte) (netMsg, error) {
	var msg netMsg
	if err := json.Unmarshal(common.TrimZeros(frame), &msg); err != nil {
		return netMsg{}, fmt.Errorf("%w: %v", ErrBadMessage, err)
	}
	if msg.Kind == "" {
		return netMsg{}, fmt.Errorf("%w: missing kind", ErrBadMessage)
	}
	return msg, nil
}

func rejectCode(err error) string {
	switch {
	case errors.Is(err, elevdispatch.ErrPickupOutOfRange):
		return codePickupOutOfRange
	case errors.Is(err, elevdispatch.ErrDropoffOutOfRange):
		return codeDropoffOutOfRange
	case errors.Is(err, elevdispatch.ErrSameFloor):
		return codeSameFloor
	default:
		return codeBadMessage
	}
}

// rejectError rebuilds the error a reject message stands for. It always wraps
// ErrRejected, and the dispatcher sentinel or ErrFrameTooLarge when the code
// names one.
func rejectError(msg netMsg) error {
	var cause error
	switch msg.Code {
	case codePickupOutOfRange:
		cause = elevdispatch.ErrPickupOutOfRange
	case codeDropoffOutOfRange:
		cause = elevdispatch.ErrDropoffOutOfRange
	case codeSameFloor:
		cause = elevdispatch.ErrSameFloor
	case codeTooLarge:
		cause = ErrFrameTooLarge
	default:
		cause = ErrBadMessage
	}
	return fmt.Errorf("%w: %w: %s", ErrRejected, cause, msg.Error)
}
