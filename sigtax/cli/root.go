// Package cli implements the sigtax command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	internal "github.com/ZanzyTHEbar/sigtax/sigtax"
	"github.com/ZanzyTHEbar/sigtax/sigtax/config"
)

// env is the state shared by subcommands once configuration is loaded.
type env struct {
	cfg    *config.Config
	log    zerolog.Logger
	stdout io.Writer
	stderr io.Writer
}

// NewRootCmd builds the command tree writing to stdout and stderr.
func NewRootCmd(stdout, stderr io.Writer) *cobra.Command {
	e := &env{stdout: stdout, stderr: stderr, log: internal.GetLogger().Output(stderr)}
	var configPath, logLevel string

	root := &cobra.Command{
		Use:           internal.DefaultAppName,
		Short:         "Classify genomes by k-mer signature Jaccard distance against a reference taxonomy",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			if logLevel != "" {
				cfg.Log.Level = logLevel
			}
			if _, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Log.Level))); err != nil {
				e.log.Warn().Str("log_level", cfg.Log.Level).Msg("unknown log level, using info")
			}
			e.cfg = cfg
			e.log = internal.NewLogger(stderr, cfg.Log.Level, cfg.Log.Pretty)
			return nil
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default searches ., etc/sigtax, then "+internal.DefaultGlobalConfigFile+")")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(
		newQueryCmd(e),
		newDistCmd(e),
		newTaxonomyCmd(e),
		newInfoCmd(e),
	)
	return root
}

// Run executes the command line in args and returns the process exit code.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := NewRootCmd(stdout, stderr)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(stderr, "interrupted")
			return 130
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
