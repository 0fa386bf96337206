// Package telemetry configures the process-wide structured logger. It is
// purely ambient: nothing in the agent, memory, or streaming core consults
// it for control flow, it only narrates what already happened.
package telemetry

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds a human-readable console logger writing to w, at Debug level
// when verbose is true and at Info level otherwise.
func New(w io.Writer, verbose bool) zerolog.Logger {
	console := zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(console).Level(level).With().Timestamp().Logger()
}

// Default returns a logger writing to stderr at Info level, for callers
// that don't need to thread a *zerolog.Logger through construction.
func Default() zerolog.Logger {
	return New(os.Stderr, false)
}
