package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"elevsim/common"
	"elevsim/elevdispatch"
	"elevsim/elevreport"
	"elevsim/logger"
)

func init() {
	_ = logger.GetLoggerConfigured(zerolog.Disabled)
}

func testConfig() common.Config {
	cfg := common.DefaultConfig()
	cfg.StepInterval = time.Millisecond
	cfg.Steps = 3
	cfg.StatusEvery = 2
	cfg.Script = []common.ScriptedRequest{
		{AfterStep: -1, Pickup: 5, Dropoff: 9},
		{AfterStep: -1, Pickup: 3, Dropoff: 3},
		{AfterStep: 1, Pickup: 8, Dropoff: 2},
	}
	return cfg
}

func TestStepThreadRunsScriptAndStops(t *testing.T) {
	cfg := testConfig()
	d, err := elevdispatch.NewDispatcher(cfg.NumCars, cfg.NumFloors)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	reportCh := make(chan elevdispatch.StepReport, cfg.Steps)

	stepThread(context.Background(), cfg, d, elevreport.NewPrinter(&buf), reportCh)
	out := buf.String()

	for _, want := range []string{
		"Request received: Floor 5 → 9 (UP)",
		"Assigned to Elevator 1",
		"Pickup and dropoff floors cannot be the same",
		"Request received: Floor 8 → 2 (DOWN)",
		"Elevator 1: Moving UP to floor 2",
		"=== ELEVATOR STATUS ===",
		"=== SIMULATION ENDED ===",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output is missing %q:\n%s", want, out)
		}
	}
	// After steps 0 and 2, plus the final block.
	if n := strings.Count(out, "=== ELEVATOR STATUS ==="); n != 3 {
		t.Errorf("printed %d status blocks, expected 3", n)
	}
	if d.Status().Step != 3 {
		t.Errorf("dispatcher at step %d, expected 3", d.Status().Step)
	}

	if len(reportCh) != 3 {
		t.Fatalf("forwarded %d reports, expected 3", len(reportCh))
	}
	for i := 1; i <= 3; i++ {
		if r := <-reportCh; r.Step != i {
			t.Errorf("report %d has step %d", i, r.Step)
		}
	}
}

func TestStepThreadStopsOnCancel(t *testing.T) {
	cfg := testConfig()
	cfg.Steps = 0
	cfg.StepInterval = time.Hour
	d, err := elevdispatch.NewDispatcher(cfg.NumCars, cfg.NumFloors)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		stepThread(ctx, cfg, d, elevreport.NewPrinter(&buf), nil)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("stepThread did not stop after cancel")
	}
	if !strings.HasSuffix(buf.String(), "=== SIMULATION ENDED ===\n") {
		t.Errorf("output does not end with the end banner:\n%s", buf.String())
	}
	if d.Status().Step != 0 {
		t.Errorf("dispatcher stepped %d times, expected 0", d.Status().Step)
	}
}

func TestPublishReportIsDetachedAndNonBlocking(t *testing.T) {
	d, err := elevdispatch.NewDispatcher(1, 10)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.RequestTrip(3, 6); err != nil {
		t.Fatal(err)
	}
	report := d.Step()

	reportCh := make(chan elevdispatch.StepReport, 1)
	publishReport(report, reportCh)
	publishReport(report, reportCh) // full, dropped

	got := <-reportCh
	if got.Step != report.Step || len(got.Events) != len(report.Events) {
		t.Fatalf("published %+v, expected a copy of %+v", got, report)
	}
	got.Events[0].Floor = 99
	if report.Events[0].Floor == 99 {
		t.Errorf("published report shares its events with the source report")
	}
	publishReport(report, nil)
}
