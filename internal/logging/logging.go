package logging

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// New builds a leveled logger writing to w. console switches to the
// human-readable writer used when a terminal is attached to stderr.
// Unknown levels fall back to info.
func New(level string, w io.Writer, console bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	if console {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	return zerolog.New(w).
		Level(lvl).
		With().
		Timestamp().
		Logger()
}
