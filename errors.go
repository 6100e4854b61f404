// Package snowflake - errors.go provides the error taxonomy of the generator.
//
// Every error type unwraps to a sentinel so callers can use errors.Is for the
// category and errors.As when they need the details.

package snowflake

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors. The typed errors below unwrap to one of these.
var (
	// ErrInvalidConfig is returned (wrapped in a ConfigError) when a Config
	// cannot produce collision-free IDs.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrClockRegression is returned (wrapped in a ClockRegressionError) when
	// the wall clock reads earlier than the timestamp of the last issued ID.
	ErrClockRegression = errors.New("clock moved backwards")

	// ErrTimestampOverflow is returned (wrapped in an OverflowError) when the
	// time elapsed since the epoch no longer fits the timestamp field.
	ErrTimestampOverflow = errors.New("timestamp overflow")
)

// ============================================================================
// Configuration Errors
// ============================================================================

// ConfigError describes which configuration field failed validation and why.
//
// Example usage:
//
//	gen, err := snowflake.New(cfg)
//	if cfgErr, ok := snowflake.AsConfigError(err); ok {
//	    log.Error().Str("field", cfgErr.Field).Msg(cfgErr.Reason)
//	}
type ConfigError struct {
	// Field is the name of the configuration field that failed validation.
	Field string

	// Value is the rejected value, formatted for logging.
	Value string

	// Reason is a human-readable explanation of the failure.
	Reason string

	// Constraint describes the accepted range, e.g. "must be between 0 and 1023".
	Constraint string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s=%s (%s) - %s",
		e.Field, e.Value, e.Reason, e.Constraint)
}

// Unwrap returns ErrInvalidConfig for errors.Is compatibility.
func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

func newConfigError(field, value, reason, constraint string) *ConfigError {
	return &ConfigError{
		Field:      field,
		Value:      value,
		Reason:     reason,
		Constraint: constraint,
	}
}

// ============================================================================
// Clock Regression Errors
// ============================================================================

// ClockRegressionError reports that the wall clock was observed earlier than
// the timestamp of the last issued ID.
//
// The error is terminal for the generator that returned it: every later call
// returns the same error. Discard the generator and build a new one once the
// clock has been confirmed stable.
//
// Example usage:
//
//	id, err := gen.NextID()
//	if regErr, ok := snowflake.AsClockRegression(err); ok {
//	    log.Error().
//	        Dur("drift", regErr.Drift()).
//	        Int64("generator", regErr.GeneratorID).
//	        Msg("clock regression, generator halted")
//	}
type ClockRegressionError struct {
	// Current is the clock reading, in Unix milliseconds, that triggered the error.
	Current int64

	// Last is the Unix millisecond timestamp of the last issued ID, or the
	// epoch when no ID had been issued yet.
	Last int64

	// GeneratorID identifies the generator that observed the regression.
	GeneratorID int64
}

// Error implements the error interface.
func (e *ClockRegressionError) Error() string {
	return fmt.Sprintf("clock moved backwards: drift=%dms current=%d last=%d generator=%d",
		e.Last-e.Current, e.Current, e.Last, e.GeneratorID)
}

// Unwrap returns ErrClockRegression for errors.Is compatibility.
func (e *ClockRegressionError) Unwrap() error {
	return ErrClockRegression
}

// Drift returns how far the clock went backwards.
func (e *ClockRegressionError) Drift() time.Duration {
	return time.Duration(e.Last-e.Current) * time.Millisecond
}

func newClockRegressionError(current, last, generatorID int64) *ClockRegressionError {
	return &ClockRegressionError{
		Current:     current,
		Last:        last,
		GeneratorID: generatorID,
	}
}

// ============================================================================
// Overflow Errors
// ============================================================================

// OverflowError reports that the timestamp component outgrew its bit field.
//
// This happens when a generator outlives the lifespan of its layout (about
// 69 years for LayoutDefault). The generator state is left untouched.
type OverflowError struct {
	// Elapsed is the number of milliseconds since the epoch at the time of the call.
	Elapsed int64

	// MaxTimestamp is the largest timestamp delta the layout can hold.
	MaxTimestamp int64

	// GeneratorID identifies the generator that overflowed.
	GeneratorID int64
}

// Error implements the error interface.
func (e *OverflowError) Error() string {
	return fmt.Sprintf("timestamp overflow: elapsed=%dms exceeds layout maximum %dms (generator=%d)",
		e.Elapsed, e.MaxTimestamp, e.GeneratorID)
}

// Unwrap returns ErrTimestampOverflow for errors.Is compatibility.
func (e *OverflowError) Unwrap() error {
	return ErrTimestampOverflow
}

// ============================================================================
// Error Helper Functions
// ============================================================================

// IsConfigError reports whether err is or wraps a ConfigError.
func IsConfigError(err error) bool {
	var cfgErr *ConfigError
	return errors.As(err, &cfgErr)
}

// IsClockRegression reports whether err is or wraps a ClockRegressionError.
func IsClockRegression(err error) bool {
	var regErr *ClockRegressionError
	return errors.As(err, &regErr)
}

// AsConfigError extracts the ConfigError from an error chain.
func AsConfigError(err error) (*ConfigError, bool) {
	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) {
		return cfgErr, true
	}
	return nil, false
}

// AsClockRegression extracts the ClockRegressionError from an error chain.
//
// Example:
//
//	if regErr, ok := snowflake.AsClockRegression(err); ok {
//	    fmt.Printf("clock drifted back %v\n", regErr.Drift())
//	}
func AsClockRegression(err error) (*ClockRegressionError, bool) {
	var regErr *ClockRegressionError
	if errors.As(err, &regErr) {
		return regErr, true
	}
	return nil, false
}
