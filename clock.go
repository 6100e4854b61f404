package snowflake

import "time"

// Clock is the wall-clock source of a Generator.
//
// UnixMilli must return the current wall-clock time in milliseconds since the
// Unix epoch. Implementations must be safe for concurrent use; the generator
// calls UnixMilli while holding its lock, including repeatedly while it waits
// for the next millisecond.
type Clock interface {
	UnixMilli() int64
}

// SystemClock reads the operating system wall clock.
//
// It deliberately reads wall time rather than the monotonic clock, so that a
// clock stepped backwards by NTP or a VM migration is detected and reported as
// a ClockRegressionError instead of being hidden.
type SystemClock struct{}

// UnixMilli implements Clock.
func (SystemClock) UnixMilli() int64 {
	return time.Now().UnixMilli()
}

// ClockFunc adapts a function to the Clock interface.
//
// Example:
//
//	cfg.Clock = snowflake.ClockFunc(func() int64 { return fixed })
type ClockFunc func() int64

// UnixMilli implements Clock.
func (f ClockFunc) UnixMilli() int64 {
	return f()
}
