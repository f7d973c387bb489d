package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"

	"veryus/internal/config"
)

// New creates a zerolog logger with structured output
func New(cfg config.LogConfig) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	if cfg.Env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			Level(ParseLevel(cfg.Level)).
			With().
			Timestamp().
			Caller().
			Str("service", "veryus").
			Logger()
	}

	return zerolog.New(os.Stdout).
		Level(ParseLevel(cfg.Level)).
		With().
		Timestamp().
		Str("service", "veryus").
		Logger()
}

// ParseLevel maps LOG_LEVEL values, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
