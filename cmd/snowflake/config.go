package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scaffolder/snowflake"
	"github.com/scaffolder/snowflake/internal/config"
)

func (a *app) newConfigCmd() *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective generator configuration as YAML",
		Long: `Print the effective generator configuration as a config file.

The output can be saved and passed back with --config. With --check the
configuration is also used to build a generator, which validates the epoch
against the current time.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd, false)
			if err != nil {
				return err
			}
			if check {
				if _, err := snowflake.New(cfg); err != nil {
					return err
				}
			}

			data, err := config.Sample(a.generator, cfg)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "# %s\n", cfg.Layout.Capacity())
			_, err = w.Write(data)
			return err
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "Also build a generator from the configuration")
	return cmd
}
