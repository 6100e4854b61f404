package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/scaffolder/snowflake/internal/keygen"
)

func newKeyCmd() *cobra.Command {
	var (
		count int
		seed  uint64
	)

	cmd := &cobra.Command{
		Use:   "key",
		Short: "Generate random component keys",
		Long:  fmt.Sprintf("Generate %d-character keys drawn from %s.", keygen.Length, keygen.Alphabet),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 1 {
				return fmt.Errorf("invalid --count %d; must be at least 1", count)
			}
			if !cmd.Flags().Changed("seed") {
				seed = uint64(time.Now().UnixNano())
			}
			keygen.Init(seed)

			w := cmd.OutOrStdout()
			for i := 0; i < count; i++ {
				key, err := keygen.Key()
				if err != nil {
					return err
				}
				fmt.Fprintln(w, key)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 1, "Number of keys")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Seed for the key source (default: current time)")
	return cmd
}
