package main

import (
	"os"

	"github.com/spf13/cobra"

	"sql-orchestrator/internal/logger"
	"sql-orchestrator/internal/platform/paths"
)

type rootOptions struct {
	configFile string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "sql-orchestrator",
		Short: "Run ordered batches of SQL commands against named connections",
		Long: `sql-orchestrator executes batches of named database commands in order,
optionally inside one transaction scope, forwards output parameters between
commands and returns every result table.

The daemon (sql-orchestratord) serves batches over HTTP. This tool manages
its configuration and runs batches locally.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.configFile != "" {
				return os.Setenv(paths.ConfigEnv, opts.configFile)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (default: per-user config dir, or $"+paths.ConfigEnv+")")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log to stderr")

	cmd.AddCommand(
		newRunCmd(opts),
		newConnectionsCmd(),
		newTestConnectionCmd(),
		newConfigCmd(),
		newServiceCmd(),
	)
	return cmd
}

func (o *rootOptions) logger() logger.LoggerService {
	if o.verbose {
		return logger.NewWriter(os.Stderr, true)
	}
	return logger.Nop()
}
