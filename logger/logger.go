// Package logger wraps zerolog behind a small printf-style facade so the
// rest of vantage never imports zerolog directly.
package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

var log zerolog.Logger

func init() {
	zerolog.TimeFieldFormat = time.RFC3339
	Configure(os.Getenv("LOG_FORMAT"), os.Getenv("LOG_LEVEL"))
}

// Configure rebuilds the package logger. format "console" (default in dev)
// renders human-readable lines; anything else (or "json") emits structured
// JSON suitable for log aggregation.
func Configure(format, level string) {
	var w = os.Stdout
	var out zerolog.ConsoleWriter
	logger := zerolog.New(w).With().Timestamp().Logger()
	if format != "json" {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
		logger = zerolog.New(out).With().Timestamp().Logger()
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	log = logger.Level(lvl)
}

// Infof logs at info level.
func Infof(format string, args ...interface{}) { log.Info().Msgf(format, args...) }

// Warnf logs at warn level.
func Warnf(format string, args ...interface{}) { log.Warn().Msgf(format, args...) }

// Errorf logs at error level.
func Errorf(format string, args ...interface{}) { log.Error().Msgf(format, args...) }

// Debugf logs at debug level.
func Debugf(format string, args ...interface{}) { log.Debug().Msgf(format, args...) }

// Fatalf logs at fatal level and exits the process (os.Exit(1)).
func Fatalf(format string, args ...interface{}) { log.Fatal().Msgf(format, args...) }

// With returns a child logger carrying a single structured field, useful for
// per-ticker or per-cycle scoping without interpolating it into every message.
func With(key, value string) zerolog.Logger {
	return log.With().Str(key, value).Logger()
}
