// Package logger builds the zerolog logger shared by the CLI and scripts.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Options configures New.
type Options struct {
	Debug bool
	// JSON switches from the console writer to one JSON object per line.
	JSON   bool
	Writer io.Writer // defaults to os.Stderr
}

// New returns a logger writing to opts.Writer at info level, or debug level
// when opts.Debug is set.
func New(opts Options) zerolog.Logger {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	if !opts.JSON {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	}

	level := zerolog.InfoLevel
	if opts.Debug {
		level = zerolog.DebugLevel
	}

	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
