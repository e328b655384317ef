package elevnetwork

import (
	"errors"
	"fmt"
	"testing"

	"elevsim/elevdispatch"
)

func TestDecodeNetMsgTrimsPadding(t *testing.T) {
	b, err := encodeNetMsg(netMsg{Kind: MsgRequest, Origin: "lobby", Counter: 7, Pickup: 3, Dropoff: 1})
	if err != nil {
		t.Fatalf("encode error: %v", err)
	}
	frame := make([]byte, 256)
	copy(frame, b)

	msg, err := decodeNetMsg(frame)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if msg.Kind != MsgRequest || msg.Origin != "lobby" || msg.Counter != 7 || msg.Pickup != 3 || msg.Dropoff != 1 {
		t.Errorf("decoded %+v", msg)
	}
}

func TestDecodeNetMsgErrors(t *testing.T) {
	for _, frame := range [][]byte{
		[]byte("not json"),
		[]byte(`{"counter":1}`),
		make([]byte, 32),
	} {
		if _, err := decodeNetMsg(frame); !errors.Is(err, ErrBadMessage) {
			t.Errorf("decodeNetMsg(%q) error = %v, expected ErrBadMessage", frame, err)
		}
	}
}

func TestNewReportMsg(t *testing.T) {
	d, err := elevdispatch.NewDispatcher(2, 10)
	if err != nil {
		t.Fatal(err)
	}
	a, err := d.RequestTrip(3, 1)
	if err != nil {
		t.Fatal(err)
	}

	am := NewAssignmentMsg(a)
	if am.TripID != a.Trip.ID().String() || am.Pickup != 3 || am.Dropoff != 1 || am.Direction != elevdispatch.Down {
		t.Errorf("NewAssignmentMsg = %+v, expected trip 3→1 DOWN with id %s", am, a.Trip.ID())
	}
	if am.Car != 1 || am.Queued {
		t.Errorf("NewAssignmentMsg car/queued = %d/%v, expected 1/false", am.Car, am.Queued)
	}

	report := elevdispatch.StepReport{
		Step:     4,
		Events:   []elevdispatch.Event{elevdispatch.MovedEvent(1, 2, elevdispatch.Up)},
		Assigned: []elevdispatch.Assignment{a},
	}
	rm := NewReportMsg(report)
	if rm.Step != 4 || len(rm.Events) != 1 || len(rm.Assigned) != 1 || rm.Assigned[0] != am {
		t.Errorf("NewReportMsg = %+v", rm)
	}

	b, err := encodeNetMsg(netMsg{Kind: MsgReport, Report: &rm})
	if err != nil {
		t.Fatalf("encode error: %v", err)
	}
	msg, err := decodeNetMsg(b)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if msg.Report == nil || msg.Report.Events[0] != report.Events[0] {
		t.Errorf("decoded report %+v, expected events %v", msg.Report, report.Events)
	}
}

func TestRejectCodesRoundTrip(t *testing.T) {
	for _, sentinel := range []error{
		elevdispatch.ErrPickupOutOfRange,
		elevdispatch.ErrDropoffOutOfRange,
		elevdispatch.ErrSameFloor,
	} {
		wrapped := fmt.Errorf("%w: 11", sentinel)
		err := rejectError(netMsg{Kind: MsgReject, Code: rejectCode(wrapped), Error: wrapped.Error()})
		if !errors.Is(err, ErrRejected) || !errors.Is(err, sentinel) {
			t.Errorf("rejectError for %v = %v, expected it to wrap ErrRejected and the sentinel", sentinel, err)
		}
	}

	err := rejectError(netMsg{Kind: MsgReject, Code: codeTooLarge})
	if !errors.Is(err, ErrRejected) || !errors.Is(err, ErrFrameTooLarge) {
		t.Errorf("too_large rejection = %v, expected ErrRejected wrapping ErrFrameTooLarge", err)
	}

	err = rejectError(netMsg{Kind: MsgReject, Code: rejectCode(errors.New("other"))})
	if !errors.Is(err, ErrBadMessage) {
		t.Errorf("unknown rejection = %v, expected ErrBadMessage", err)
	}
}
