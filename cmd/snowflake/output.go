package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/scaffolder/snowflake"
)

// Output formats for structured results.
const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

// idInfo is the structured view of one ID.
type idInfo struct {
	ID             string    `json:"id" yaml:"id"`
	Formatted      string    `json:"formatted,omitempty" yaml:"formatted,omitempty"`
	Base62         string    `json:"base62" yaml:"base62"`
	Hex            string    `json:"hex" yaml:"hex"`
	Time           time.Time `json:"time" yaml:"time"`
	TimestampDelta int64     `json:"timestamp_delta" yaml:"timestamp_delta"`
	GeneratorID    int64     `json:"generator_id" yaml:"generator_id"`
	Sequence       int64     `json:"sequence" yaml:"sequence"`
}

func newIDInfo(id snowflake.ID, c snowflake.Components, formatted string) idInfo {
	info := idInfo{
		ID:             id.String(),
		Base62:         id.Base62(),
		Hex:            id.Hex(),
		Time:           c.Time,
		TimestampDelta: c.TimestampDelta,
		GeneratorID:    c.GeneratorID,
		Sequence:       c.Sequence,
	}
	if formatted != info.ID {
		info.Formatted = formatted
	}
	return info
}

func checkOutput(output string) error {
	switch strings.ToLower(output) {
	case outputText, outputJSON, outputYAML:
		return nil
	default:
		return fmt.Errorf("invalid --output %q; use text|json|yaml", output)
	}
}

// writeStructured writes v as indented JSON or as YAML.
func writeStructured(w io.Writer, output string, v any) error {
	switch strings.ToLower(output) {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported structured output %q", output)
	}
}
