// Package logging builds the zerolog loggers used by the snowflake binary.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/scaffolder/snowflake"
)

// Output formats accepted by New.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Options configures New.
type Options struct {
	// Level is a zerolog level name (trace, debug, info, warn, error). Empty means info.
	Level string

	// Format is FormatConsole or FormatJSON. Empty means console.
	Format string

	// Output defaults to os.Stderr so logs never mix with generated IDs on stdout.
	Output io.Writer
}

// New returns a logger with a timestamp on every event.
func New(opts Options) (zerolog.Logger, error) {
	level := zerolog.InfoLevel
	if opts.Level != "" {
		l, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("logging: %w", err)
		}
		level = l
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	switch strings.ToLower(opts.Format) {
	case "", FormatConsole:
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	case FormatJSON:
	default:
		return zerolog.Nop(), fmt.Errorf("logging: unknown format %q (want %s or %s)", opts.Format, FormatConsole, FormatJSON)
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger(), nil
}

// ForGenerator returns a child logger carrying the generator identity and layout.
func ForGenerator(logger zerolog.Logger, gen *snowflake.Generator) zerolog.Logger {
	layout := gen.Layout()
	return logger.With().
		Int64("generator_id", gen.GeneratorID()).
		Str("epoch", gen.Epoch().UTC().Format(time.RFC3339)).
		Str("layout", fmt.Sprintf("%d/%d/%d", layout.TimestampBits, layout.GeneratorIDBits, layout.SequenceBits)).
		Logger()
}

// Metrics renders generator counters as a nested zerolog dictionary.
//
// Example:
//
//	logger.Info().Dict("metrics", logging.Metrics(gen.Metrics())).Msg("done")
func Metrics(m snowflake.Metrics) *zerolog.Event {
	return zerolog.Dict().
		Int64("generated", m.Generated).
		Int64("sequence_exhausted", m.SequenceExhausted).
		Int64("clock_regressions", m.ClockRegressions).
		Int64("timestamp_overflows", m.TimestampOverflows).
		Int64("wait_us", m.WaitTimeUs)
}

// GeneratorError logs an error returned by a generator. Clock regressions are
// logged at error level with their drift, anything else at warn level.
func GeneratorError(logger zerolog.Logger, err error) {
	if regErr, ok := snowflake.AsClockRegression(err); ok {
		logger.Error().
			Err(err).
			Dur("drift", regErr.Drift()).
			Int64("last_ms", regErr.Last).
			Int64("current_ms", regErr.Current).
			Msg("clock regression, generator halted")
		return
	}
	logger.Warn().Err(err).Msg("id generation failed")
}
