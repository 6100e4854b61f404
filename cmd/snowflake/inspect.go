package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/scaffolder/snowflake"
)

// errInvalidID makes validate exit non-zero after printing its report.
var errInvalidID = errors.New("invalid ID")

// parseID decodes s with the given format, or tries every format when it is empty.
func parseID(s, format string) (snowflake.ID, error) {
	if format == "" {
		return snowflake.ParseAny(s)
	}
	return snowflake.Parse(s, format)
}

func (a *app) newDecodeCmd() *cobra.Command {
	var (
		inFormat string
		output   string
	)

	cmd := &cobra.Command{
		Use:     "decode <id>",
		Aliases: []string{"parse", "p"},
		Short:   "Show the components of an ID",
		Example: `  snowflake decode 1234567890123456789
  snowflake decode 1tckI1NfUnH --input-format base62 --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkOutput(output); err != nil {
				return err
			}
			id, err := parseID(args[0], inFormat)
			if err != nil {
				return err
			}
			cfg, err := a.loadConfig(cmd, false)
			if err != nil {
				return err
			}
			c, err := cfg.Decode(id)
			if err != nil {
				return err
			}

			if strings.ToLower(output) != outputText {
				return writeStructured(cmd.OutOrStdout(), output, newIDInfo(id, c, ""))
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "ID:           %s\n", id)
			fmt.Fprintf(w, "Time:         %s\n", c.Time.Format(time.RFC3339Nano))
			fmt.Fprintf(w, "Delta:        %d ms since %s\n", c.TimestampDelta, cfg.Epoch.UTC().Format(time.RFC3339))
			fmt.Fprintf(w, "Generator ID: %d\n", c.GeneratorID)
			fmt.Fprintf(w, "Sequence:     %d\n", c.Sequence)
			fmt.Fprintf(w, "Base58:       %s\n", id.Base58())
			fmt.Fprintf(w, "Base62:       %s\n", id.Base62())
			fmt.Fprintf(w, "Hex:          %s\n", id.Hex())
			return nil
		},
	}

	cmd.Flags().StringVar(&inFormat, "input-format", "", "Input format (default: try decimal, base62, base58, hex)")
	cmd.Flags().StringVarP(&output, "output", "o", outputText, "Output: text|json|yaml")
	return cmd
}

func (a *app) newEncodeCmd() *cobra.Command {
	var inFormat string

	cmd := &cobra.Command{
		Use:     "encode <id> <format>",
		Aliases: []string{"enc", "e"},
		Short:   "Convert an ID to another text form",
		Long:    "Convert an ID to another text form. Formats: " + strings.Join(snowflake.Formats, ", ") + ".",
		Example: `  snowflake encode 1234567890123456789 base62
  snowflake encode ff hex --input-format hex`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], inFormat)
			if err != nil {
				return err
			}
			s, err := id.Format(args[1])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), s)
			return nil
		},
	}

	cmd.Flags().StringVar(&inFormat, "input-format", "", "Input format (default: try decimal, base62, base58, hex)")
	return cmd
}

func (a *app) newValidateCmd() *cobra.Command {
	var inFormat string

	cmd := &cobra.Command{
		Use:     "validate <id>",
		Aliases: []string{"val", "v"},
		Short:   "Check that an ID could have been issued under the configured layout",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()

			id, err := parseID(args[0], inFormat)
			if err != nil {
				fmt.Fprintf(w, "INVALID: unable to parse %q\n", args[0])
				return err
			}
			cfg, err := a.loadConfig(cmd, false)
			if err != nil {
				return err
			}
			c, err := cfg.Decode(id)
			if err != nil {
				return err
			}

			var problems []string
			if !cfg.Layout.Fits(id) {
				problems = append(problems, "bits set above the layout width")
			}
			if c.Time.After(time.Now().Add(time.Second)) {
				problems = append(problems, "timestamp is in the future")
			}

			if len(problems) > 0 {
				fmt.Fprintln(w, "INVALID:", strings.Join(problems, "; "))
			} else {
				fmt.Fprintln(w, "VALID")
			}
			fmt.Fprintf(w, "  Time:         %s\n", c.Time.Format(time.RFC3339Nano))
			fmt.Fprintf(w, "  Generator ID: %d (0-%d)\n", c.GeneratorID, cfg.Layout.MaxGeneratorID())
			fmt.Fprintf(w, "  Sequence:     %d (0-%d)\n", c.Sequence, cfg.Layout.MaxSequence())

			if len(problems) > 0 {
				return errInvalidID
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&inFormat, "input-format", "", "Input format (default: try decimal, base62, base58, hex)")
	return cmd
}
