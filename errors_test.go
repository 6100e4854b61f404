package snowflake

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestConfigError(t *testing.T) {
	err := newConfigError("GeneratorID", "2048", "out of valid range for layout", "must be between 0 and 1023")

	want := "invalid configuration: GeneratorID=2048 (out of valid range for layout) - must be between 0 and 1023"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !errors.Is(err, ErrInvalidConfig) {
		t.Error("errors.Is(err, ErrInvalidConfig) = false")
	}
	if errors.Is(err, ErrClockRegression) {
		t.Error("errors.Is(err, ErrClockRegression) = true")
	}
}

func TestClockRegressionError(t *testing.T) {
	err := newClockRegressionError(1000, 1250, 3)

	msg := err.Error()
	for _, part := range []string{"drift=250ms", "current=1000", "last=1250", "generator=3"} {
		if !strings.Contains(msg, part) {
			t.Errorf("Error() = %q, missing %q", msg, part)
		}
	}
	if err.Drift() != 250*time.Millisecond {
		t.Errorf("Drift() = %v, want 250ms", err.Drift())
	}
	if !errors.Is(err, ErrClockRegression) {
		t.Error("errors.Is(err, ErrClockRegression) = false")
	}
}

func TestOverflowError(t *testing.T) {
	err := &OverflowError{Elapsed: 300, MaxTimestamp: 255, GeneratorID: 1}
	if !errors.Is(err, ErrTimestampOverflow) {
		t.Error("errors.Is(err, ErrTimestampOverflow) = false")
	}
	if !strings.Contains(err.Error(), "elapsed=300ms") {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestErrorHelpers(t *testing.T) {
	cfgErr := newConfigError("Epoch", "x", "bad", "fix it")
	regErr := newClockRegressionError(1, 2, 0)

	wrappedCfg := fmt.Errorf("building generator: %w", cfgErr)
	wrappedReg := fmt.Errorf("issuing id: %w", regErr)

	tests := []struct {
		name      string
		err       error
		isConfig  bool
		isRegress bool
	}{
		{"config error", cfgErr, true, false},
		{"wrapped config error", wrappedCfg, true, false},
		{"regression", regErr, false, true},
		{"wrapped regression", wrappedReg, false, true},
		{"plain error", errors.New("boom"), false, false},
		{"nil", nil, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsConfigError(tt.err); got != tt.isConfig {
				t.Errorf("IsConfigError() = %v, want %v", got, tt.isConfig)
			}
			if got := IsClockRegression(tt.err); got != tt.isRegress {
				t.Errorf("IsClockRegression() = %v, want %v", got, tt.isRegress)
			}

			gotCfg, ok := AsConfigError(tt.err)
			if ok != tt.isConfig || (ok && gotCfg != cfgErr) {
				t.Errorf("AsConfigError() = %v, %v", gotCfg, ok)
			}
			gotReg, ok := AsClockRegression(tt.err)
			if ok != tt.isRegress || (ok && gotReg != regErr) {
				t.Errorf("AsClockRegression() = %v, %v", gotReg, ok)
			}
		})
	}
}
