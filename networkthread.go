// networkthread.go
package main

import (
	"context"

	"elevsim/common"
	"elevsim/elevdispatch"
	"elevsim/elevnetwork"
)

// networkThread serves remote clients until ctx is done and pushes every step
// report it receives to them. A listen failure leaves the simulation running
// without a control surface.
func networkThread(
	ctx context.Context,
	cfg common.Config,
	d *elevdispatch.Dispatcher,
	reportCh <-chan elevdispatch.StepReport,
) {
	srv, err := elevnetwork.NewControlServer(cfg.NodeID, cfg.ListenAddr, cfg.FrameSize, d)
	if err != nil {
		Log.Error().Err(err).Str("addr", cfg.ListenAddr).Msg("Control server not started")
		return
	}

	served := make(chan error, 1)
	go func() { served <- srv.Serve(ctx) }()

	for {
		select {
		case <-ctx.Done():
			if err := <-served; err != nil {
				Log.Error().Err(err).Msg("Control server stopped")
			}
			return

		case report := <-reportCh:
			srv.Broadcast(report)
		}
	}
}
