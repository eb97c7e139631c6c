// Package logging builds the zerolog loggers used by the converter and the
// inspection server.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

type Config struct {
	Level  string
	Format string

	// Out receives debug to warn lines, ErrOut the rest. They default to
	// stdout and stderr.
	Out    io.Writer
	ErrOut io.Writer
}

func New(cfg Config) (zerolog.Logger, error) {
	level := zerolog.InfoLevel
	if cfg.Level != "" {
		parsed, err := zerolog.ParseLevel(cfg.Level)
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		level = parsed
	}

	out, errOut := cfg.Out, cfg.ErrOut
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}

	switch cfg.Format {
	case "", FormatConsole:
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
		errOut = zerolog.ConsoleWriter{Out: errOut, TimeFormat: time.RFC3339}
	case FormatJSON:
	default:
		return zerolog.Nop(), fmt.Errorf("unknown log format %q", cfg.Format)
	}

	writer := zerolog.MultiLevelWriter(
		LevelWriter{
			Writer: out,
			Levels: []zerolog.Level{zerolog.TraceLevel, zerolog.DebugLevel, zerolog.InfoLevel, zerolog.WarnLevel},
		},
		LevelWriter{
			Writer: errOut,
			Levels: []zerolog.Level{zerolog.ErrorLevel, zerolog.FatalLevel, zerolog.PanicLevel},
		},
	)
	return zerolog.New(writer).Level(level).With().Timestamp().Logger(), nil
}

// LevelWriter passes on only the lines logged at one of Levels.
type LevelWriter struct {
	io.Writer
	Levels []zerolog.Level
}

func (w LevelWriter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	for _, l := range w.Levels {
		if l == level {
			return w.Write(p)
		}
	}
	return len(p), nil
}
