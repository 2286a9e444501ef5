package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var zlog = zerolog.New(os.Stdout).With().Timestamp().Logger()

// Init configures the global zerolog logger for the given environment.
func Init(env string) {
	var w io.Writer

	if env == "development" || env == "dev" {
		w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	} else {
		w = os.Stdout
	}

	zlog = zerolog.New(w).With().
		Timestamp().
		Str("service", "blazehunter").
		Logger()

	zerolog.TimeFieldFormat = time.RFC3339
}

// Get returns the global logger.
func Get() *zerolog.Logger {
	return &zlog
}

// With returns a child logger tagged with the component name.
func With(component string) zerolog.Logger {
	return zlog.With().Str("component", component).Logger()
}

// WithSession returns a logger carrying the session id.
func WithSession(sessionID string) zerolog.Logger {
	return zlog.With().Str("session_id", sessionID).Logger()
}

// Silence discards all output. Used by tests.
func Silence() {
	zlog = zerolog.Nop()
}
