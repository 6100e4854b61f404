package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sony/sonyflake"
	"github.com/spf13/cobra"

	"github.com/scaffolder/snowflake"
	"github.com/scaffolder/snowflake/internal/logging"
)

// benchResult is one measured run.
type benchResult struct {
	Name       string  `json:"name" yaml:"name"`
	Generated  int     `json:"generated" yaml:"generated"`
	Duration   string  `json:"duration" yaml:"duration"`
	RatePerSec float64 `json:"rate_per_sec" yaml:"rate_per_sec"`
	NsPerOp    float64 `json:"ns_per_op" yaml:"ns_per_op"`

	elapsed time.Duration
}

func newBenchResult(name string, n int, elapsed time.Duration) benchResult {
	r := benchResult{Name: name, Generated: n, Duration: elapsed.String(), elapsed: elapsed}
	if n > 0 && elapsed > 0 {
		r.RatePerSec = float64(n) / elapsed.Seconds()
		r.NsPerOp = float64(elapsed.Nanoseconds()) / float64(n)
	}
	return r
}

func (a *app) newBenchCmd() *cobra.Command {
	var (
		duration  time.Duration
		batchSize int
		compare   bool
		output    string
	)

	cmd := &cobra.Command{
		Use:     "bench",
		Aliases: []string{"benchmark", "b"},
		Short:   "Measure ID generation throughput",
		Example: `  snowflake bench --duration 5s
  snowflake bench --id 42 --sonyflake`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if duration <= 0 {
				return fmt.Errorf("invalid --duration %v; must be positive", duration)
			}
			if batchSize < 1 {
				return fmt.Errorf("invalid --batch %d; must be at least 1", batchSize)
			}
			if err := checkOutput(output); err != nil {
				return err
			}

			gen, logger, err := a.newGenerator(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			var results []benchResult

			single, err := benchSingle(ctx, gen, duration)
			if err != nil {
				logging.GeneratorError(logger, err)
				return err
			}
			results = append(results, single)

			batched, err := benchBatch(ctx, gen, duration, batchSize)
			if err != nil {
				logging.GeneratorError(logger, err)
				return err
			}
			results = append(results, batched)

			if compare {
				sf, err := benchSonyflake(ctx, gen, duration)
				if err != nil {
					return err
				}
				results = append(results, sf)
			}

			logger.Info().Dict("metrics", logging.Metrics(gen.Metrics())).Msg("benchmark finished")

			if strings.ToLower(output) != outputText {
				return writeStructured(cmd.OutOrStdout(), output, results)
			}
			printBench(cmd.OutOrStdout(), gen, duration, results)
			return nil
		},
	}

	cmd.Flags().DurationVarP(&duration, "duration", "d", 3*time.Second, "Duration of each run")
	cmd.Flags().IntVar(&batchSize, "batch", 100, "Batch size for the batch run")
	cmd.Flags().BoolVar(&compare, "sonyflake", false, "Also run github.com/sony/sonyflake for comparison")
	cmd.Flags().StringVarP(&output, "output", "o", outputText, "Output: text|json|yaml")
	return cmd
}

func benchSingle(ctx context.Context, gen *snowflake.Generator, d time.Duration) (benchResult, error) {
	n := 0
	start := time.Now()
	deadline := start.Add(d)
	for time.Now().Before(deadline) && ctx.Err() == nil {
		if _, err := gen.NextID(); err != nil {
			return benchResult{}, err
		}
		n++
	}
	return newBenchResult("single", n, time.Since(start)), nil
}

func benchBatch(ctx context.Context, gen *snowflake.Generator, d time.Duration, size int) (benchResult, error) {
	n := 0
	start := time.Now()
	deadline := start.Add(d)
	for time.Now().Before(deadline) && ctx.Err() == nil {
		ids, err := gen.NextBatch(ctx, size)
		n += len(ids)
		if err != nil && ctx.Err() == nil {
			return benchResult{}, err
		}
	}
	return newBenchResult(fmt.Sprintf("batch-%d", size), n, time.Since(start)), nil
}

// benchSonyflake runs sonyflake with the same epoch and the low 16 bits of
// the generator ID as machine ID.
func benchSonyflake(ctx context.Context, gen *snowflake.Generator, d time.Duration) (benchResult, error) {
	machineID := uint16(gen.GeneratorID())
	sf := sonyflake.NewSonyflake(sonyflake.Settings{
		StartTime: gen.Epoch(),
		MachineID: func() (uint16, error) { return machineID, nil },
	})
	if sf == nil {
		return benchResult{}, fmt.Errorf("sonyflake: invalid settings for epoch %s", gen.Epoch().Format(time.RFC3339))
	}

	n := 0
	start := time.Now()
	deadline := start.Add(d)
	for time.Now().Before(deadline) && ctx.Err() == nil {
		if _, err := sf.NextID(); err != nil {
			return benchResult{}, fmt.Errorf("sonyflake: %w", err)
		}
		n++
	}
	return newBenchResult("sonyflake", n, time.Since(start)), nil
}

func printBench(w io.Writer, gen *snowflake.Generator, d time.Duration, results []benchResult) {
	layout := gen.Layout()
	fmt.Fprintf(w, "Running benchmarks (duration: %v, generator: %d, layout: %d/%d/%d)\n\n",
		d, gen.GeneratorID(), layout.TimestampBits, layout.GeneratorIDBits, layout.SequenceBits)

	for i, r := range results {
		fmt.Fprintf(w, "%d. %s\n", i+1, r.Name)
		fmt.Fprintf(w, "   Generated: %d IDs\n", r.Generated)
		fmt.Fprintf(w, "   Duration:  %v\n", r.elapsed.Round(time.Millisecond))
		fmt.Fprintf(w, "   Rate:      %.0f IDs/sec (%.0f ns/op)\n\n", r.RatePerSec, r.NsPerOp)
	}

	m := gen.Metrics()
	fmt.Fprintf(w, "Theoretical: %s\n", layout.Capacity())
	fmt.Fprintf(w, "Sequence exhausted %d times, waited %v\n",
		m.SequenceExhausted, (time.Duration(m.WaitTimeUs) * time.Microsecond).Round(time.Millisecond))
}
