// Package snowflake - layout.go describes how the bits of an ID are divided
// between the timestamp delta, the generator ID and the sequence counter.

package snowflake

import (
	"fmt"
	"math"
	"time"
)

// idWidth is the number of bits available in an ID.
const idWidth = 64

// Layout defines the bit allocation of an ID, from most to least significant:
//
//	┌──────────────────────────┬───────────────────┬────────────────┐
//	│ TimestampBits: ms since  │ GeneratorIDBits:  │ SequenceBits:  │
//	│ the configured epoch     │ generator identity│ per-ms counter │
//	└──────────────────────────┴───────────────────┴────────────────┘
//
// The three widths must add up to at most 64. Layouts that leave the top bit
// unused (sum of 63) keep every ID representable as a non-negative int64,
// which is what SQL BIGINT columns and JavaScript-adjacent systems expect.
//
// IDs generated under different layouts cannot be compared or decoded with
// each other. Pick one per deployment.
type Layout struct {
	// TimestampBits is the width of the timestamp delta (1-63).
	TimestampBits int

	// GeneratorIDBits is the width of the generator identity.
	GeneratorIDBits int

	// SequenceBits is the width of the intra-millisecond counter.
	SequenceBits int
}

// Pre-defined layouts. All of them use 63 bits.
var (
	// LayoutDefault is the classic Twitter layout: about 69 years of lifespan,
	// 1,024 generators, 4,096 IDs per millisecond per generator.
	LayoutDefault = Layout{
		TimestampBits:   41,
		GeneratorIDBits: 10,
		SequenceBits:    12,
	}

	// LayoutWide trades lifespan and throughput for generator count: about
	// 17 years, 16,384 generators, 1,024 IDs per millisecond per generator.
	LayoutWide = Layout{
		TimestampBits:   39,
		GeneratorIDBits: 14,
		SequenceBits:    10,
	}

	// LayoutLongLife covers about 139 years with 4,096 generators and
	// 512 IDs per millisecond per generator.
	LayoutLongLife = Layout{
		TimestampBits:   42,
		GeneratorIDBits: 12,
		SequenceBits:    9,
	}
)

// Components are the decoded parts of an ID.
type Components struct {
	// TimestampDelta is the number of milliseconds between the epoch and the
	// moment the ID was issued.
	TimestampDelta int64

	// GeneratorID identifies the generator that issued the ID.
	GeneratorID int64

	// Sequence is the position of the ID within its millisecond.
	Sequence int64

	// Time is the absolute issue time. It is only set when the epoch is
	// known (Config.Decode, Generator.Decode).
	Time time.Time
}

func (l Layout) isZero() bool {
	return l.TimestampBits == 0 && l.GeneratorIDBits == 0 && l.SequenceBits == 0
}

// Validate checks that the layout fits a 64-bit ID.
//
// Validation rules:
//   - TimestampBits must be between 1 and 63
//   - GeneratorIDBits and SequenceBits must be non-negative
//   - the sum of all widths must not exceed 64
//
// The returned error is a *ConfigError.
func (l Layout) Validate() error {
	if l.TimestampBits < 1 || l.TimestampBits > 63 {
		return newConfigError(
			"TimestampBits",
			fmt.Sprintf("%d", l.TimestampBits),
			"out of range",
			"must be between 1 and 63",
		)
	}
	if l.GeneratorIDBits < 0 {
		return newConfigError(
			"GeneratorIDBits",
			fmt.Sprintf("%d", l.GeneratorIDBits),
			"must be non-negative",
			"bit width must be >= 0",
		)
	}
	if l.SequenceBits < 0 {
		return newConfigError(
			"SequenceBits",
			fmt.Sprintf("%d", l.SequenceBits),
			"must be non-negative",
			"bit width must be >= 0",
		)
	}

	total := l.TimestampBits + l.GeneratorIDBits + l.SequenceBits
	if total > idWidth {
		return newConfigError(
			"Layout",
			fmt.Sprintf("%d+%d+%d", l.TimestampBits, l.GeneratorIDBits, l.SequenceBits),
			"bit widths exceed the integer width",
			fmt.Sprintf("sum must be <= %d, got %d", idWidth, total),
		)
	}
	return nil
}

// Shifts returns the left-shift amounts of the timestamp and generator ID
// components.
func (l Layout) Shifts() (timestampShift, generatorIDShift int) {
	return l.GeneratorIDBits + l.SequenceBits, l.SequenceBits
}

// MaxGeneratorID returns the largest generator ID the layout can encode.
func (l Layout) MaxGeneratorID() int64 {
	return mask(l.GeneratorIDBits)
}

// MaxSequence returns the largest sequence value per millisecond.
func (l Layout) MaxSequence() int64 {
	return mask(l.SequenceBits)
}

// MaxTimestamp returns the largest timestamp delta, in milliseconds.
func (l Layout) MaxTimestamp() int64 {
	return mask(l.TimestampBits)
}

// mask returns 2^bits - 1 for bits in [0, 63].
func mask(bits int) int64 {
	return int64(uint64(1)<<uint(bits) - 1)
}

// Compose packs components into an ID. Components.Time is ignored.
//
// Returns a *ConfigError when a component does not fit its field.
//
// Example:
//
//	id, _ := snowflake.LayoutDefault.Compose(snowflake.Components{
//	    TimestampDelta: 1000, GeneratorID: 42, Sequence: 7,
//	})
//	// id == 1000<<22 | 42<<12 | 7
func (l Layout) Compose(c Components) (ID, error) {
	if c.TimestampDelta < 0 || c.TimestampDelta > l.MaxTimestamp() {
		return 0, newConfigError("TimestampDelta", fmt.Sprintf("%d", c.TimestampDelta),
			"does not fit the timestamp field", fmt.Sprintf("must be between 0 and %d", l.MaxTimestamp()))
	}
	if c.GeneratorID < 0 || c.GeneratorID > l.MaxGeneratorID() {
		return 0, newConfigError("GeneratorID", fmt.Sprintf("%d", c.GeneratorID),
			"does not fit the generator field", fmt.Sprintf("must be between 0 and %d", l.MaxGeneratorID()))
	}
	if c.Sequence < 0 || c.Sequence > l.MaxSequence() {
		return 0, newConfigError("Sequence", fmt.Sprintf("%d", c.Sequence),
			"does not fit the sequence field", fmt.Sprintf("must be between 0 and %d", l.MaxSequence()))
	}
	return l.compose(c.TimestampDelta, c.GeneratorID, c.Sequence), nil
}

// compose is the unchecked bit packing shared with the generator hot path.
func (l Layout) compose(delta, generatorID, sequence int64) ID {
	timestampShift, generatorIDShift := l.Shifts()
	return ID(uint64(delta)<<uint(timestampShift) |
		uint64(generatorID)<<uint(generatorIDShift) |
		uint64(sequence))
}

// Decompose extracts the components of an ID using the inverse bit shifts:
//
//	timestampDelta = id >> timestampShift
//	generatorID    = (id >> generatorIDShift) & maxGeneratorID
//	sequence       = id & maxSequence
//
// Bits above the layout's total width are ignored. Components.Time is left
// zero because the layout does not know the epoch.
func (l Layout) Decompose(id ID) Components {
	timestampShift, generatorIDShift := l.Shifts()
	v := uint64(id)
	return Components{
		TimestampDelta: int64(v>>uint(timestampShift)) & l.MaxTimestamp(),
		GeneratorID:    int64(v>>uint(generatorIDShift)) & l.MaxGeneratorID(),
		Sequence:       int64(v) & l.MaxSequence(),
	}
}

// Fits reports whether id has no bits set above the layout's total width.
// Such bits cannot come from a generator using this layout.
func (l Layout) Fits(id ID) bool {
	width := l.TimestampBits + l.GeneratorIDBits + l.SequenceBits
	if width >= idWidth {
		return true
	}
	return uint64(id)>>uint(width) == 0
}

// LayoutCapacity summarizes what a layout can sustain.
type LayoutCapacity struct {
	// Generators is the number of distinct generator IDs.
	Generators int64

	// IDsPerMillisecond is the number of IDs one generator can issue per millisecond.
	IDsPerMillisecond int64

	// ThroughputPerGenerator is the theoretical maximum IDs per second per generator.
	ThroughputPerGenerator int64

	// Lifespan is how long after the epoch the timestamp field overflows,
	// capped at the largest time.Duration.
	Lifespan time.Duration
}

// Capacity returns the theoretical capacity of the layout.
func (l Layout) Capacity() LayoutCapacity {
	perMs := l.MaxSequence() + 1
	if l.SequenceBits >= 63 {
		perMs = math.MaxInt64
	}

	// float64 keeps the multiplication from overflowing for wide timestamps
	lifespan := time.Duration(math.MaxInt64)
	if ns := (float64(l.MaxTimestamp()) + 1) * float64(time.Millisecond); ns < math.MaxInt64 {
		lifespan = time.Duration(ns)
	}

	throughput := int64(math.MaxInt64)
	if perMs <= math.MaxInt64/1000 {
		throughput = perMs * 1000
	}

	generators := l.MaxGeneratorID() + 1
	if l.GeneratorIDBits >= 63 {
		generators = math.MaxInt64
	}

	return LayoutCapacity{
		Generators:             generators,
		IDsPerMillisecond:      perMs,
		ThroughputPerGenerator: throughput,
		Lifespan:               lifespan,
	}
}

// String returns a human-readable description of the capacity.
func (c LayoutCapacity) String() string {
	years := int(c.Lifespan.Hours() / 24 / 365)
	return fmt.Sprintf("Generators: %d, ThroughputPerGenerator: %d/sec, Lifespan: %d years",
		c.Generators, c.ThroughputPerGenerator, years)
}
