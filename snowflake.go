// Package snowflake generates monotonic, cluster-unique 64-bit identifiers
// based on Twitter's Snowflake scheme.
//
// # Overview
//
// Each ID packs three fields into an unsigned 64-bit integer:
//   - the milliseconds elapsed since a configured epoch
//   - the identity of the generator that issued it
//   - a counter that disambiguates IDs issued within the same millisecond
//
// IDs issued by one Generator are strictly increasing. IDs issued by
// generators that share an epoch and layout but have different generator IDs
// never collide. Coordination happens entirely through the configuration:
// assign every generator in the cluster its own generator ID.
//
// # ID Structure (LayoutDefault)
//
//	┌─────────────────────────────────────────────┬──────────────┬──────────────┐
//	│ 1 bit │ 41 bits: ms since epoch             │  10 bits:    │  12 bits:    │
//	│ zero  │ ~69 years from 2024-01-01           │  generator   │  sequence    │
//	│       │                                     │  (0-1023)    │  (0-4095)    │
//	└─────────────────────────────────────────────┴──────────────┴──────────────┘
//
// # Clock Policy
//
//   - Sequence exhaustion (more than maxSequence+1 IDs in one millisecond) is
//     expected and handled by busy-waiting for the next millisecond.
//   - Clock regression (the wall clock reading earlier than the last issued
//     ID) is an operational anomaly. NextID returns a ClockRegressionError and
//     the generator refuses to issue any further IDs.
//
// # Usage
//
//	gen, err := snowflake.New(snowflake.DefaultConfig(42))
//	if err != nil {
//	    return err
//	}
//	id, err := gen.NextID()
package snowflake

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultEpoch is January 1, 2024 00:00:00 UTC. A recent epoch maximizes the
// lifespan of the timestamp field.
var DefaultEpoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// noTimestamp marks a generator that has not issued an ID yet.
const noTimestamp int64 = math.MinInt64

// batchCancelCheckInterval is how many IDs NextBatch issues between context checks.
const batchCancelCheckInterval = 100

// Config holds the immutable configuration of a Generator.
type Config struct {
	// GeneratorID identifies this generator within the cluster.
	// Must be unique across every generator sharing the epoch and layout.
	// Valid range: 0 to Layout.MaxGeneratorID().
	GeneratorID int64

	// Epoch is the zero point of the timestamp field. It must not be in the
	// future when the generator is constructed.
	// Default: DefaultEpoch
	Epoch time.Time

	// Layout is the bit allocation of generated IDs.
	// Default: LayoutDefault
	Layout Layout

	// Clock is the wall-clock source.
	// Default: SystemClock
	Clock Clock
}

// DefaultConfig returns a Config with the given generator ID, DefaultEpoch,
// LayoutDefault and the system clock.
func DefaultConfig(generatorID int64) Config {
	return Config{
		GeneratorID: generatorID,
		Epoch:       DefaultEpoch,
		Layout:      LayoutDefault,
		Clock:       SystemClock{},
	}
}

func (c *Config) applyDefaults() {
	if c.Layout.isZero() {
		c.Layout = LayoutDefault
	}
	if c.Epoch.IsZero() {
		c.Epoch = DefaultEpoch
	}
	if c.Clock == nil {
		c.Clock = SystemClock{}
	}
}

// Validate fills in defaults and checks the configuration.
//
// Validation rules:
//   - Layout must fit 64 bits (see Layout.Validate)
//   - GeneratorID must be between 0 and Layout.MaxGeneratorID()
//   - Epoch must not be after the current clock reading
//   - the time elapsed since Epoch must fit the timestamp field
//
// Returns a *ConfigError describing the first violation.
func (c *Config) Validate() error {
	c.applyDefaults()

	if err := c.Layout.Validate(); err != nil {
		return err
	}

	if maxID := c.Layout.MaxGeneratorID(); c.GeneratorID < 0 || c.GeneratorID > maxID {
		return newConfigError(
			"GeneratorID",
			fmt.Sprintf("%d", c.GeneratorID),
			"out of valid range for layout",
			fmt.Sprintf("must be between 0 and %d (%d bits)", maxID, c.Layout.GeneratorIDBits),
		)
	}

	epochMillis := c.Epoch.UnixMilli()
	now := c.Clock.UnixMilli()
	if epochMillis > now {
		return newConfigError(
			"Epoch",
			c.Epoch.UTC().Format(time.RFC3339Nano),
			"is in the future",
			fmt.Sprintf("must not be after the current time (%s)", time.UnixMilli(now).UTC().Format(time.RFC3339)),
		)
	}
	if elapsed := now - epochMillis; elapsed > c.Layout.MaxTimestamp() {
		return newConfigError(
			"Epoch",
			c.Epoch.UTC().Format(time.RFC3339Nano),
			"too far in the past for the timestamp field",
			fmt.Sprintf("elapsed %dms exceeds %dms (%d bits)", elapsed, c.Layout.MaxTimestamp(), c.Layout.TimestampBits),
		)
	}
	return nil
}

// Decode extracts the components of an ID issued under this configuration,
// including its absolute issue time.
func (c Config) Decode(id ID) (Components, error) {
	c.applyDefaults()
	if err := c.Layout.Validate(); err != nil {
		return Components{}, err
	}
	comp := c.Layout.Decompose(id)
	comp.Time = issueTime(c.Epoch.UnixMilli(), comp.TimestampDelta)
	return comp, nil
}

// Metrics holds runtime counters of a Generator.
//
// All counters are monotonically increasing until ResetMetrics is called.
type Metrics struct {
	Generated          int64 // IDs successfully issued
	SequenceExhausted  int64 // times the per-millisecond sequence ran out
	ClockRegressions   int64 // clock regressions observed (each one halts the generator)
	TimestampOverflows int64 // calls rejected because the timestamp field overflowed
	WaitTimeUs         int64 // total time spent waiting for the next millisecond, in microseconds
}

// Generator issues Snowflake IDs.
//
// # Thread Safety
//
// Generator is safe for concurrent use. A single mutex guards the
// (lastTimestamp, sequence) pair for the whole of each call, including any
// wait for the next millisecond, so the lock order is also the ID order.
//
// # Lifecycle
//
// A Generator issues IDs until it observes a clock regression. From then on
// every call returns the same *ClockRegressionError; see Err.
type Generator struct {
	mu            sync.Mutex // guards sequence, lastTimestamp and failed
	sequence      int64
	lastTimestamp int64
	failed        error

	clock       Clock
	layout      Layout
	epoch       time.Time
	epochMillis int64
	generatorID int64

	// precomputed from layout
	timestampShift   int
	generatorIDShift int
	maxSequence      int64
	maxTimestamp     int64

	generated          atomic.Int64
	sequenceExhausted  atomic.Int64
	clockRegressions   atomic.Int64
	timestampOverflows atomic.Int64
	waitTimeUs         atomic.Int64
}

// New validates cfg and returns a Generator ready to issue IDs.
//
// Example:
//
//	cfg := snowflake.DefaultConfig(5)
//	cfg.Layout = snowflake.LayoutWide
//	gen, err := snowflake.New(cfg)
//
// Returns a *ConfigError when validation fails.
func New(cfg Config) (*Generator, error) {
	if err := (&cfg).Validate(); err != nil {
		return nil, err
	}

	timestampShift, generatorIDShift := cfg.Layout.Shifts()

	return &Generator{
		lastTimestamp:    noTimestamp,
		clock:            cfg.Clock,
		layout:           cfg.Layout,
		epoch:            cfg.Epoch,
		epochMillis:      cfg.Epoch.UnixMilli(),
		generatorID:      cfg.GeneratorID,
		timestampShift:   timestampShift,
		generatorIDShift: generatorIDShift,
		maxSequence:      cfg.Layout.MaxSequence(),
		maxTimestamp:     cfg.Layout.MaxTimestamp(),
	}, nil
}

// NextID issues the next ID.
//
// Successive calls return strictly increasing IDs, even when the clock does
// not advance between them. When the sequence for the current millisecond is
// exhausted, NextID blocks (holding the generator lock) until the clock moves
// to the next millisecond. It does not take a context: callers that need a
// hard deadline must enforce it around the call.
//
// Errors:
//   - *ClockRegressionError if the clock reads earlier than the last issued
//     ID, including while waiting out an exhausted sequence. The generator is
//     then permanently failed.
//   - *OverflowError if the elapsed time no longer fits the timestamp field.
func (g *Generator) NextID() (ID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	id, err := g.nextLocked()
	if err != nil {
		return 0, err
	}
	g.generated.Add(1)
	return id, nil
}

// MustNextID is like NextID but panics on error.
func (g *Generator) MustNextID() ID {
	id, err := g.NextID()
	if err != nil {
		panic(err)
	}
	return id
}

// NextBatch issues count IDs under a single lock acquisition.
//
// The IDs follow the same rules as NextID and are strictly increasing. ctx is
// checked between IDs, never during a wait for the next millisecond. On error
// the IDs issued so far are returned together with the error.
//
// Example:
//
//	ids, err := gen.NextBatch(ctx, 1000)
//	if err != nil {
//	    log.Error().Err(err).Int("issued", len(ids)).Msg("batch interrupted")
//	}
func (g *Generator) NextBatch(ctx context.Context, count int) ([]ID, error) {
	if count <= 0 {
		return []ID{}, nil
	}

	ids := make([]ID, 0, count)

	g.mu.Lock()
	defer g.mu.Unlock()

	// counted once on every return path
	defer func() { g.generated.Add(int64(len(ids))) }()

	for i := 0; i < count; i++ {
		if i%batchCancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return ids, err
			}
		}

		id, err := g.nextLocked()
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// nextLocked runs the generation algorithm. g.mu must be held.
func (g *Generator) nextLocked() (ID, error) {
	if g.failed != nil {
		return 0, g.failed
	}

	now := g.clock.UnixMilli()

	// The floor is the last issued timestamp, or the epoch before the first ID.
	floor := g.lastTimestamp
	if floor == noTimestamp {
		floor = g.epochMillis
	}
	if now < floor {
		return 0, g.fail(now, floor)
	}

	sequence := int64(0)
	if now == g.lastTimestamp {
		// mask wraps maxSequence+1 back to zero
		sequence = (g.sequence + 1) & g.maxSequence
		if sequence == 0 {
			g.sequenceExhausted.Add(1)
			var ok bool
			if now, ok = g.waitNextMillis(); !ok {
				return 0, g.fail(now, g.lastTimestamp)
			}
		}
	}

	delta := now - g.epochMillis
	if delta > g.maxTimestamp {
		g.timestampOverflows.Add(1)
		return 0, &OverflowError{
			Elapsed:      delta,
			MaxTimestamp: g.maxTimestamp,
			GeneratorID:  g.generatorID,
		}
	}

	g.sequence = sequence
	g.lastTimestamp = now

	return ID(uint64(delta)<<uint(g.timestampShift) |
		uint64(g.generatorID)<<uint(g.generatorIDShift) |
		uint64(sequence)), nil
}

// fail records a clock regression and moves the generator to its terminal
// failed state.
func (g *Generator) fail(now, last int64) error {
	g.clockRegressions.Add(1)
	err := newClockRegressionError(now, last, g.generatorID)
	g.failed = err
	return err
}

// waitNextMillis spins until the clock passes lastTimestamp and returns the
// new reading. runtime.Gosched keeps the spin from starving other goroutines.
// It reports false with the offending reading if the clock moves backwards
// while waiting.
func (g *Generator) waitNextMillis() (int64, bool) {
	start := time.Now()
	defer func() { g.waitTimeUs.Add(time.Since(start).Microseconds()) }()

	for {
		now := g.clock.UnixMilli()
		if now > g.lastTimestamp {
			return now, true
		}
		if now < g.lastTimestamp {
			return now, false
		}
		runtime.Gosched()
	}
}

// Decode extracts the components of an ID issued by a generator with the same
// epoch and layout, including its absolute issue time.
func (g *Generator) Decode(id ID) Components {
	comp := g.layout.Decompose(id)
	comp.Time = issueTime(g.epochMillis, comp.TimestampDelta)
	return comp
}

// issueTime returns epochMillis+delta as a UTC time. Sums past the int64
// range, possible for timestamp fields of 62 bits or more, clamp to the
// largest representable millisecond.
func issueTime(epochMillis, delta int64) time.Time {
	if epochMillis > 0 && delta > math.MaxInt64-epochMillis {
		return time.UnixMilli(math.MaxInt64).UTC()
	}
	return time.UnixMilli(epochMillis + delta).UTC()
}

// Err returns the terminal error of a failed generator, or nil while the
// generator can still issue IDs.
func (g *Generator) Err() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.failed
}

// GeneratorID returns the generator ID. It is immutable after construction.
func (g *Generator) GeneratorID() int64 {
	return g.generatorID
}

// Layout returns the bit layout of the IDs this generator issues.
func (g *Generator) Layout() Layout {
	return g.layout
}

// Epoch returns the configured epoch.
func (g *Generator) Epoch() time.Time {
	return g.epoch
}

// Metrics returns a snapshot of the generator counters.
//
// Example:
//
//	m := gen.Metrics()
//	if m.ClockRegressions > 0 {
//	    log.Warn().Int64("regressions", m.ClockRegressions).Msg("clock issues detected")
//	}
func (g *Generator) Metrics() Metrics {
	return Metrics{
		Generated:          g.generated.Load(),
		SequenceExhausted:  g.sequenceExhausted.Load(),
		ClockRegressions:   g.clockRegressions.Load(),
		TimestampOverflows: g.timestampOverflows.Load(),
		WaitTimeUs:         g.waitTimeUs.Load(),
	}
}

// ResetMetrics zeroes all counters. Mostly useful in tests.
func (g *Generator) ResetMetrics() {
	g.generated.Store(0)
	g.sequenceExhausted.Store(0)
	g.clockRegressions.Store(0)
	g.timestampOverflows.Store(0)
	g.waitTimeUs.Store(0)
}
