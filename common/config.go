// common/config.go
package common

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xyproto/randomstring"
	"gopkg.in/yaml.v3"
)

const NODE_ID_LEN = 8

var ErrInvalidConfig = errors.New("invalid config")

// ScriptedRequest is a trip request the step driver issues on its own.
// AfterStep -1 means before the first step.
type ScriptedRequest struct {
	AfterStep int `yaml:"afterStep"`
	Pickup    int `yaml:"pickup"`
	Dropoff   int `yaml:"dropoff"`
}

type Config struct {
	NumCars   int `yaml:"numCars"`
	NumFloors int `yaml:"numFloors"`

	StepInterval time.Duration `yaml:"stepInterval"`
	// Steps to run before stopping; 0 runs until interrupted.
	Steps int `yaml:"steps"`
	// Print the fleet status after every StatusEvery-th step; 0 disables.
	StatusEvery int `yaml:"statusEvery"`

	LogLevel string `yaml:"logLevel"`
	NodeID   string `yaml:"nodeID"`

	// Empty disables the network control server.
	ListenAddr string `yaml:"listenAddr"`
	FrameSize  int    `yaml:"frameSize"`

	Script []ScriptedRequest `yaml:"script"`
}

// DefaultConfig is the demo building: 2 cars, 10 floors, 30 one-second steps and
// a handful of scripted passengers.
func DefaultConfig() Config {
	return Config{
		NumCars:      2,
		NumFloors:    10,
		StepInterval: time.Second,
		Steps:        30,
		StatusEvery:  5,
		LogLevel:     "info",
		ListenAddr:   ":4242",
		FrameSize:    4096,
		Script: []ScriptedRequest{
			{AfterStep: -1, Pickup: 5, Dropoff: 9},
			{AfterStep: -1, Pickup: 3, Dropoff: 1},
			{AfterStep: -1, Pickup: 7, Dropoff: 10},
			{AfterStep: 5, Pickup: 2, Dropoff: 8},
			{AfterStep: 10, Pickup: 6, Dropoff: 2},
			{AfterStep: 15, Pickup: 1, Dropoff: 7},
		},
	}
}

// LoadConfig reads path on top of DefaultConfig. The format follows the
// extension: .yaml/.yml, or .con for "--key value" files.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		file, err := os.Open(path)
		if err != nil {
			return cfg, fmt.Errorf("open config %s: %w", path, err)
		}
		defer file.Close()

		if err := yaml.NewDecoder(file).Decode(&cfg); err != nil {
			return cfg, fmt.Errorf("decode config %s: %w", path, err)
		}
	case ".con":
		if err := cfg.loadCon(path); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("%w: unknown config format %q", ErrInvalidConfig, path)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) loadCon(path string) error {
	var stepInterval string
	err := ConLoad(path,
		ConVal("numCars", &c.NumCars, "%d"),
		ConVal("numFloors", &c.NumFloors, "%d"),
		ConVal("stepInterval", &stepInterval, "%s"),
		ConVal("steps", &c.Steps, "%d"),
		ConVal("statusEvery", &c.StatusEvery, "%d"),
		ConVal("logLevel", &c.LogLevel, "%s"),
		ConVal("nodeID", &c.NodeID, "%s"),
		ConVal("listenAddr", &c.ListenAddr, "%s"),
		ConVal("frameSize", &c.FrameSize, "%d"),
		ConEnum("listen", &c.ListenAddr,
			ConMatch("off", ""),
			ConMatch("default", ":4242"),
		),
	)
	if err != nil {
		return err
	}
	if stepInterval != "" {
		d, err := time.ParseDuration(stepInterval)
		if err != nil {
			return fmt.Errorf("config %s: stepInterval: %w", path, err)
		}
		c.StepInterval = d
	}
	return nil
}

func (c Config) Validate() error {
	if c.NumCars < 1 {
		return fmt.Errorf("%w: numCars must be at least 1, got %d", ErrInvalidConfig, c.NumCars)
	}
	if c.NumFloors < 2 {
		return fmt.Errorf("%w: numFloors must be at least 2, got %d", ErrInvalidConfig, c.NumFloors)
	}
	if c.StepInterval <= 0 {
		return fmt.Errorf("%w: stepInterval must be positive, got %v", ErrInvalidConfig, c.StepInterval)
	}
	if c.Steps < 0 {
		return fmt.Errorf("%w: steps must not be negative, got %d", ErrInvalidConfig, c.Steps)
	}
	if c.StatusEvery < 0 {
		return fmt.Errorf("%w: statusEvery must not be negative, got %d", ErrInvalidConfig, c.StatusEvery)
	}
	if c.ListenAddr != "" && c.FrameSize <= 0 {
		return fmt.Errorf("%w: frameSize must be positive, got %d", ErrInvalidConfig, c.FrameSize)
	}
	for i, r := range c.Script {
		if r.AfterStep < -1 {
			return fmt.Errorf("%w: script[%d].afterStep must be -1 or more, got %d", ErrInvalidConfig, i, r.AfterStep)
		}
	}
	return nil
}

// EnsureNodeID fills an empty NodeID with a random one and reports whether it did.
func (c *Config) EnsureNodeID() bool {
	if c.NodeID != "" {
		return false
	}
	c.NodeID = randomstring.EnglishFrequencyString(NODE_ID_LEN)
	return true
}

// ScriptAt returns the scripted requests to issue after step (-1 for the start),
// in config order.
func (c Config) ScriptAt(step int) []ScriptedRequest {
	var out []ScriptedRequest
	for _, r := range c.Script {
		if r.AfterStep == step {
			out = append(out, r)
		}
	}
	return out
}
