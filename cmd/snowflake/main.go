// Command snowflake generates and inspects Snowflake IDs.
//
// Usage:
//
//	snowflake generate [flags]       Generate IDs
//	snowflake decode <id>            Show the components of an ID
//	snowflake encode <id> <format>   Convert an ID to another text form
//	snowflake validate <id>          Check that an ID fits the configured layout
//	snowflake bench [flags]          Measure generation throughput
//	snowflake key [flags]            Generate random component keys
//	snowflake config                 Print the effective configuration
//
// The generator is read from the section idgenerators.<name> of the file
// given with --config, overridden by SNOWFLAKE_IDGENERATORS_<NAME>_* variables
// and finally by --id.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/scaffolder/snowflake"
	"github.com/scaffolder/snowflake/internal/config"
	"github.com/scaffolder/snowflake/internal/logging"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	cancel()
	if err != nil {
		os.Exit(1)
	}
}

// app holds the global flags shared by every command.
type app struct {
	configPath string
	generator  string
	id         int64
	logLevel   string
	logFormat  string

	logger zerolog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{logger: zerolog.Nop()}

	root := &cobra.Command{
		Use:          "snowflake",
		Short:        "Snowflake ID generator",
		Long:         "Generate, decode and validate monotonic, cluster-unique 64-bit Snowflake IDs.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.New(logging.Options{
				Level:  a.logLevel,
				Format: a.logFormat,
				Output: cmd.ErrOrStderr(),
			})
			if err != nil {
				return err
			}
			a.logger = logger
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", os.Getenv("SNOWFLAKE_CONFIG"), "Config file (yaml, json or toml)")
	flags.StringVar(&a.generator, "generator", config.DefaultGenerator, "Generator name under idgenerators")
	flags.Int64Var(&a.id, "id", 0, "Generator ID, overrides the configured one")
	flags.StringVar(&a.logLevel, "log-level", "warn", "Log level: trace|debug|info|warn|error")
	flags.StringVar(&a.logFormat, "log-format", logging.FormatConsole, "Log format: console|json")

	root.AddCommand(
		a.newGenerateCmd(),
		a.newDecodeCmd(),
		a.newEncodeCmd(),
		a.newValidateCmd(),
		a.newBenchCmd(),
		newKeyCmd(),
		a.newConfigCmd(),
		newVersionCmd(),
	)
	return root
}

// loadConfig resolves the generator configuration. When requireID is false a
// missing generator falls back to the default epoch and layout, which is all
// decoding needs.
func (a *app) loadConfig(cmd *cobra.Command, requireID bool) (snowflake.Config, error) {
	idFlag := cmd.Flags().Changed("id")

	cfg, err := config.Load(a.configPath, a.generator)
	if errors.Is(err, config.ErrUnknownGenerator) && (idFlag || !requireID) {
		cfg, err = config.Default(a.id).Snowflake()
	}
	if err != nil {
		return snowflake.Config{}, err
	}
	if idFlag {
		cfg.GeneratorID = a.id
	}
	return cfg, nil
}

// newGenerator builds a generator from the resolved configuration and logs it.
func (a *app) newGenerator(cmd *cobra.Command) (*snowflake.Generator, zerolog.Logger, error) {
	cfg, err := a.loadConfig(cmd, true)
	if err != nil {
		return nil, a.logger, err
	}
	gen, err := snowflake.New(cfg)
	if err != nil {
		return nil, a.logger, fmt.Errorf("create generator: %w", err)
	}

	logger := logging.ForGenerator(a.logger, gen)
	logger.Debug().Str("capacity", gen.Layout().Capacity().String()).Msg("generator ready")
	return gen, logger, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "snowflake version %s\n", version)
		},
	}
}
