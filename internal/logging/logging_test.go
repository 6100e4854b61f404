package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scaffolder/snowflake"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var events []map[string]any
	dec := json.NewDecoder(buf)
	for dec.More() {
		var ev map[string]any
		require.NoError(t, dec.Decode(&ev))
		events = append(events, ev)
	}
	return events
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"defaults", Options{}, false},
		{"json debug", Options{Level: "debug", Format: FormatJSON}, false},
		{"upper case", Options{Level: "WARN", Format: "CONSOLE"}, false},
		{"bad level", Options{Level: "loud"}, true},
		{"bad format", Options{Format: "xml"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.Output = &bytes.Buffer{}
			_, err := New(tt.opts)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestNewLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "warn", Format: FormatJSON, Output: &buf})
	require.NoError(t, err)

	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")

	events := decodeLines(t, &buf)
	require.Len(t, events, 1)
	assert.Equal(t, "shown", events[0]["message"])
	assert.Equal(t, "warn", events[0]["level"])
	assert.Contains(t, events[0], "time")
}

func TestForGeneratorAndMetrics(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Format: FormatJSON, Output: &buf})
	require.NoError(t, err)

	gen, err := snowflake.New(snowflake.DefaultConfig(17))
	require.NoError(t, err)
	_, err = gen.NextID()
	require.NoError(t, err)

	genLogger := ForGenerator(logger, gen)
	genLogger.Info().Dict("metrics", Metrics(gen.Metrics())).Msg("done")

	events := decodeLines(t, &buf)
	require.Len(t, events, 1)
	ev := events[0]
	assert.EqualValues(t, 17, ev["generator_id"])
	assert.Equal(t, "41/10/12", ev["layout"])
	assert.Equal(t, "2024-01-01T00:00:00Z", ev["epoch"])

	metrics, ok := ev["metrics"].(map[string]any)
	require.True(t, ok, "metrics is not an object: %v", ev["metrics"])
	assert.EqualValues(t, 1, metrics["generated"])
	assert.EqualValues(t, 0, metrics["clock_regressions"])
}

func TestGeneratorError(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	now := snowflake.DefaultEpoch.Add(time.Hour).UnixMilli()
	gen, err := snowflake.New(snowflake.Config{Clock: snowflake.ClockFunc(func() int64 { return now })})
	require.NoError(t, err)
	_, err = gen.NextID()
	require.NoError(t, err)
	now -= 20
	_, err = gen.NextID()
	require.Error(t, err)

	GeneratorError(logger, err)
	GeneratorError(logger, errors.New("other"))

	events := decodeLines(t, &buf)
	require.Len(t, events, 2)
	assert.Equal(t, "error", events[0]["level"])
	assert.EqualValues(t, 20, events[0]["drift"])
	assert.Equal(t, "warn", events[1]["level"])
}
