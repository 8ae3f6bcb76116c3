package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogConfig holds logging configuration
type LogConfig struct {
	Level   string `json:"level"`   // debug, info, warn, error
	Format  string `json:"format"`  // json, pretty
	Console bool   `json:"console"` // log to stderr
}

// DefaultLogConfig returns sensible defaults
func DefaultLogConfig() *LogConfig {
	return &LogConfig{
		Level:   "warn",
		Format:  "pretty",
		Console: true,
	}
}

// SetupLogger configures the global logger. Diagnostics go to stderr so
// stdout stays clean for rendered query output.
func SetupLogger(config *LogConfig) error {
	level, err := zerolog.ParseLevel(config.Level)
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(level)

	var writer io.Writer = os.Stderr
	if config.Format == "pretty" {
		writer = zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		}
	}
	if !config.Console {
		writer = io.Discard
	}

	log.Logger = zerolog.New(writer).With().Timestamp().Logger()
	return nil
}

// GetLogger returns a contextual logger
func GetLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// GetCacheLogger returns a logger for cache operations
func GetCacheLogger(operation string) zerolog.Logger {
	return log.With().
		Str("component", "cache").
		Str("operation", operation).
		Logger()
}

// GetQueryLogger returns a logger for filter evaluation
func GetQueryLogger(scope string) zerolog.Logger {
	return log.With().
		Str("component", "query").
		Str("scope", scope).
		Logger()
}
