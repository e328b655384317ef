package common

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	ENV_CARS          = "ELEVSIM_CARS"
	ENV_FLOORS        = "ELEVSIM_FLOORS"
	ENV_STEP_INTERVAL = "ELEVSIM_STEP_INTERVAL"
	ENV_STEPS         = "ELEVSIM_STEPS"
	ENV_LISTEN        = "ELEVSIM_LISTEN"
	ENV_NODE_ID       = "ELEVSIM_NODE_ID"
	ENV_LOG_LEVEL     = "ELEVSIM_LOG_LEVEL"
)

// ApplyEnvFile overrides cfg from a dotenv file. A missing file is not an error
// when optional is set. The result is not validated, since later sources may
// still override it.
func (c *Config) ApplyEnvFile(path string, optional bool) error {
	env, err := godotenv.Read(path)
	if err != nil {
		if optional && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read env file %s: %w", path, err)
	}
	if err := c.ApplyEnv(env); err != nil {
		return fmt.Errorf("env file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides cfg from ELEVSIM_* keys. Unknown keys are ignored.
func (c *Config) ApplyEnv(env map[string]string) error {
	ints := []struct {
		key  string
		dest *int
	}{
		{ENV_CARS, &c.NumCars},
		{ENV_FLOORS, &c.NumFloors},
		{ENV_STEPS, &c.Steps},
	}
	for _, i := range ints {
		v, ok := env[i.key]
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", i.key, err)
		}
		*i.dest = n
	}

	if v, ok := env[ENV_STEP_INTERVAL]; ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", ENV_STEP_INTERVAL, err)
		}
		c.StepInterval = d
	}
	if v, ok := env[ENV_LISTEN]; ok {
		c.ListenAddr = v
	}
	if v, ok := env[ENV_NODE_ID]; ok {
		c.NodeID = v
	}
	if v, ok := env[ENV_LOG_LEVEL]; ok {
		c.LogLevel = v
	}
	return nil
}
