package config

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger returns a JSON logger writing to w at the named level.
// Unknown levels fall back to info.
func NewLogger(level string, w io.Writer) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}
