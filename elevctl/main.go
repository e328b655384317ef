// elevctl talks to a running simulation's control server.
//
//	elevctl [-addr host:port] request <pickup> <dropoff>
//	elevctl [-addr host:port] status
//	elevctl [-addr host:port] watch
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/xyproto/randomstring"

	"elevsim/elevdispatch"
	"elevsim/elevnetwork"
	"elevsim/elevreport"
	"elevsim/logger"
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] request <pickup> <dropoff> | status | watch\n", os.Args[0])
	flag.PrintDefaults()
}

func main() {
	addr := flag.String("addr", "127.0.0.1:4242", "control server address ip:port (UDP port for QUIC)")
	id := flag.String("id", "", "client id sent in hello (random if empty)")
	frameSize := flag.Int("frame", elevnetwork.QUIC_FRAME_SIZE, "frame size, must match the server")
	timeout := flag.Duration("timeout", 5*time.Second, "dial and request timeout")
	verbose := flag.Bool("v", false, "log connection details")
	flag.Usage = usage
	flag.Parse()

	level := zerolog.WarnLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	log := logger.GetLoggerConfigured(level)

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}
	if *id == "" {
		*id = "ctl-" + randomstring.EnglishFrequencyString(6)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	go func() {
		<-sig
		cancel()
	}()

	dialCtx, dialCancel := context.WithTimeout(ctx, *timeout)
	c, err := elevnetwork.Dial(dialCtx, *addr, *id, *frameSize)
	dialCancel()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Connect error:", err)
		os.Exit(1)
	}
	defer c.Close()
	log.Debug().Str("server", c.ServerID()).Str("addr", *addr).Str("id", *id).Msg("Connected")

	out := elevreport.NewPrinter(os.Stdout)
	switch cmd := flag.Arg(0); cmd {
	case "request":
		err = request(ctx, c, out, flag.Args()[1:], *timeout)
	case "status":
		err = status(ctx, c, out, *timeout)
	case "watch":
		err = watch(ctx, c, out)
	default:
		usage()
		err = fmt.Errorf("unknown command %q", cmd)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		c.Close()
		os.Exit(1)
	}
}

func request(ctx context.Context, c *elevnetwork.ControlClient, out *elevreport.Printer, args []string, timeout time.Duration) error {
	if len(args) != 2 {
		return errors.New("request needs <pickup> <dropoff>")
	}
	pickup, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("pickup: %w", err)
	}
	dropoff, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("dropoff: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	a, err := c.RequestTrip(ctx, pickup, dropoff)
	if errors.Is(err, elevnetwork.ErrRejected) {
		return errors.New(elevreport.Rejection(pickup, dropoff, err))
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(out.W, "%s [%s]\n", elevreport.Received(a.Pickup, a.Dropoff, a.Direction), a.TripID)
	fmt.Fprintln(out.W, elevreport.Outcome(a.Car, a.Queued))
	return nil
}

func status(ctx context.Context, c *elevnetwork.ControlClient, out *elevreport.Printer, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	s, err := c.Status(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out.W, "Step %d\n", s.Step)
	out.Status(s)
	return nil
}

func watch(ctx context.Context, c *elevnetwork.ControlClient, out *elevreport.Printer) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case rm, ok := <-c.Reports():
			if !ok {
				return errors.New("server closed the connection")
			}
			fmt.Fprintf(out.W, "--- step %d ---\n", rm.Step)
			out.Step(elevdispatch.StepReport{Step: rm.Step, Events: rm.Events})
			for _, a := range rm.Assigned {
				fmt.Fprintln(out.W, elevreport.PendingAssignedTo(a.Pickup, a.Dropoff, a.Car))
			}
		}
	}
}
