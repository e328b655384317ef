// main.go
// Purpose: Application entry point. Loads configuration, builds the dispatcher
// and starts the step and network threads. Handles shutdown on interrupt (Ctrl+C).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"time"

	"elevsim/common"
	"elevsim/elevdispatch"
	"elevsim/elevreport"
	"elevsim/logger"
)

var Log = logger.GetLogger()

const reportBufSize = 8

type flags struct {
	configPath string
	envPath    string

	cars     int
	floors   int
	interval time.Duration
	steps    int
	listen   string
	nodeID   string
	logLevel string
}

func parseFlags() flags {
	var f flags
	flag.StringVar(&f.configPath, "config", "", "config file (.yaml, .yml or .con)")
	flag.StringVar(&f.envPath, "env", ".env", "dotenv file with ELEVSIM_* overrides")
	flag.IntVar(&f.cars, "cars", 0, "number of elevators")
	flag.IntVar(&f.floors, "floors", 0, "number of floors")
	flag.DurationVar(&f.interval, "interval", 0, "time between steps")
	flag.IntVar(&f.steps, "steps", 0, "steps to run, 0 runs until interrupted")
	flag.StringVar(&f.listen, "listen", "", "control server address, \"off\" disables it")
	flag.StringVar(&f.nodeID, "id", "", "node id reported to control clients")
	flag.StringVar(&f.logLevel, "log", "", "log level (debug, info, warn, error)")
	flag.Parse()
	return f
}

// loadConfig applies, lowest priority first: defaults, the config file, the env
// file and the flags set on the command line.
func loadConfig(f flags) (common.Config, error) {
	cfg := common.DefaultConfig()
	if f.configPath != "" {
		var err error
		if cfg, err = common.LoadConfig(f.configPath); err != nil {
			return cfg, err
		}
	}

	if f.envPath != "" {
		optional := !isFlagSet("env")
		if err := cfg.ApplyEnvFile(f.envPath, optional); err != nil {
			return cfg, err
		}
	}

	flag.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "cars":
			cfg.NumCars = f.cars
		case "floors":
			cfg.NumFloors = f.floors
		case "interval":
			cfg.StepInterval = f.interval
		case "steps":
			cfg.Steps = f.steps
		case "listen":
			cfg.ListenAddr = f.listen
			if f.listen == "off" {
				cfg.ListenAddr = ""
			}
		case "id":
			cfg.NodeID = f.nodeID
		case "log":
			cfg.LogLevel = f.logLevel
		}
	})
	return cfg, cfg.Validate()
}

func isFlagSet(name string) bool {
	set := false
	flag.Visit(func(fl *flag.Flag) {
		if fl.Name == name {
			set = true
		}
	})
	return set
}

func main() {
	cfg, err := loadConfig(parseFlags())
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error loading config:", err)
		os.Exit(2)
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error loading config:", err)
		os.Exit(2)
	}
	logger.GetLoggerConfigured(level)

	if cfg.EnsureNodeID() {
		Log.Info().Str("node", cfg.NodeID).Msg("Generated node id")
	}

	d, err := elevdispatch.NewDispatcher(cfg.NumCars, cfg.NumFloors)
	if err != nil {
		Log.Fatal().Err(err).Msg("Building dispatcher failed")
	}

	// ctrl + c handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	go func() {
		select {
		case <-sig:
			Log.Info().Msg("Interrupt received")
			cancel()
		case <-ctx.Done():
		}
	}()

	out := elevreport.NewPrinter(os.Stdout)
	fmt.Fprintln(out.W, "=== ELEVATOR SIMULATION STARTED ===")
	fmt.Fprintln(out.W)

	// step thread to network thread
	var reportCh chan elevdispatch.StepReport

	var wg sync.WaitGroup
	if cfg.ListenAddr != "" {
		reportCh = make(chan elevdispatch.StepReport, reportBufSize)
		wg.Add(1)
		go func() {
			defer wg.Done()
			networkThread(ctx, cfg, d, reportCh)
		}()
	}

	stepThread(ctx, cfg, d, out, reportCh)
	cancel()
	wg.Wait()
	Log.Debug().Msg("Shutting down")
}
