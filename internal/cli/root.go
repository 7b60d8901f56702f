// Package cli provides the command-line interface for LeapEdit.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapedit/internal/cli/commands"
	"github.com/leapstack-labs/leapedit/internal/cli/config"

	// Register the bundled adapters.
	_ "github.com/leapstack-labs/leapedit/pkg/adapters/duckdb"
	_ "github.com/leapstack-labs/leapedit/pkg/adapters/postgres"
	_ "github.com/leapstack-labs/leapedit/pkg/adapters/sqlite"
)

var (
	cfgFile    string
	targetFlag string
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "leapedit",
		Short: "LeapEdit - reconcile table edits into reviewed SQL",
		Long: `LeapEdit edits database objects (columns, indexes, constraints, rows,
tables and session variables) and turns the edits into the exact DDL/DML
needed to reconcile the database.

Every script is shown for confirmation before it runs, and every run is
recorded in a local journal.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" || cmd.Name() == "version" {
				return nil
			}

			cfg, err := config.LoadConfigWithTarget(cfgFile, targetFlag, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			logger := newLogger(cmd, cfg.Verbose)
			ctx := context.WithValue(cmd.Context(), config.LoggerKey(), logger)
			cmd.SetContext(ctx)

			if configFile := config.GetConfigFileUsed(); configFile != "" {
				logger.Debug("using config file", slog.String("path", configFile))
			}
			if targetFlag != "" {
				logger.Debug("using target", slog.String("target", targetFlag))
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	// Global persistent flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ./leapedit.yaml)")
	flags.StringVarP(&targetFlag, "target", "t", "", "Target environment to use (e.g., dev, staging, prod)")
	flags.String("type", "", "Database type (postgres|duckdb|sqlite)")
	flags.StringP("database", "d", "", "Database name, or file path for duckdb/sqlite")
	flags.String("host", "", "Database host")
	flags.String("schema", "", "Default schema")
	flags.String("commit", "", "Commit mode (auto|manual)")
	flags.String("delimiter", "", "Statement delimiter used when splitting scripts")
	flags.Int("limit", 0, "Maximum rows loaded by row editors (0 loads all)")
	flags.String("editor", "", "Command used to edit scripts before running them")
	flags.String("journal", "", "Path to the execution journal")
	flags.BoolP("verbose", "v", false, "Verbose output")

	_ = rootCmd.RegisterFlagCompletionFunc("commit", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{config.CommitAuto, config.CommitManual}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("type", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"postgres", "duckdb", "sqlite"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(commands.NewVersionCommand(Version))
	rootCmd.AddCommand(commands.NewShowCommand())
	rootCmd.AddCommand(commands.NewApplyCommand())
	rootCmd.AddCommand(commands.NewHistoryCommand())

	return rootCmd
}

// newLogger builds the CLI logger: text on stderr, debug level with -v.
func newLogger(cmd *cobra.Command, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
