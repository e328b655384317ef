// stepthread.go
// Purpose: Drives the simulation clock. Issues the scripted requests, steps the
// dispatcher once per interval, prints every step and hands a copy of each step
// report to the network thread.
package main

import (
	"context"
	"fmt"
	"time"

	"elevsim/common"
	"elevsim/elevdispatch"
	"elevsim/elevreport"
)

func stepThread(
	ctx context.Context,
	cfg common.Config,
	d *elevdispatch.Dispatcher,
	out *elevreport.Printer,
	reportCh chan<- elevdispatch.StepReport,
) {
	issueScripted(cfg.ScriptAt(-1), d, out)

	ticker := time.NewTicker(cfg.StepInterval)
	defer ticker.Stop()

	for i := 0; cfg.Steps == 0 || i < cfg.Steps; i++ {
		select {
		case <-ctx.Done():
			Log.Info().Int("steps", i).Msg("Stepping interrupted")
			finish(d, out)
			return
		case <-ticker.C:
		}

		report := d.Step()
		out.Step(report)
		publishReport(report, reportCh)

		issueScripted(cfg.ScriptAt(i), d, out)

		if cfg.StatusEvery > 0 && i%cfg.StatusEvery == 0 {
			out.Status(d.Status())
		}
	}
	finish(d, out)
}

func issueScripted(reqs []common.ScriptedRequest, d *elevdispatch.Dispatcher, out *elevreport.Printer) {
	for _, r := range reqs {
		a, err := d.RequestTrip(r.Pickup, r.Dropoff)
		out.Request(r.Pickup, r.Dropoff, a, err)
	}
}

// publishReport never blocks the clock; a busy network thread misses the report.
func publishReport(report elevdispatch.StepReport, reportCh chan<- elevdispatch.StepReport) {
	if reportCh == nil {
		return
	}
	clone, err := common.DeepCopy(report)
	if err != nil {
		Log.Error().Err(err).Int("step", report.Step).Msg("Copy step report failed")
		return
	}
	select {
	case reportCh <- clone:
	default:
		Log.Debug().Int("step", report.Step).Msg("Network busy, report not forwarded")
	}
}

func finish(d *elevdispatch.Dispatcher, out *elevreport.Printer) {
	out.Status(d.Status())
	fmt.Fprintln(out.W, "=== SIMULATION ENDED ===")
}
