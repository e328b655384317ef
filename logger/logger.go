// logger.go
// Purpose: Process-wide zerolog logger. Configured once with a console writer on
// stdout; every package grabs it through GetLogger().
package logger

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

const timeFormat = "2006-01-02T15:04:05.000Z07:00"

var once sync.Once
var Log zerolog.Logger

func configureLogger() {
	zerolog.TimeFieldFormat = timeFormat

	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: timeFormat,
	}

	Log = zerolog.New(output).With().Timestamp().Logger()
}

// GetLoggerConfigured configures the logger on first use and sets the global level.
// Later calls only adjust the level.
func GetLoggerConfigured(level zerolog.Level) *zerolog.Logger {
	once.Do(configureLogger)
	zerolog.SetGlobalLevel(level)
	return &Log
}

func GetLogger() *zerolog.Logger {
	once.Do(configureLogger)
	return &Log
}

// ParseLevel accepts zerolog level names ("debug", "info", ...). Empty means info.
func ParseLevel(name string) (zerolog.Level, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(name))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("log level %q: %w", name, err)
	}
	return level, nil
}
