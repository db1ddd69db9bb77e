package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath string
	verbose    bool
	jsonOutput bool

	// appVersion is reported by $version substitutions.
	appVersion = "dev"
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	appVersion = version
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "elogcfg",
		Short: "Inspect and validate logbook configurations",
		Long: `elogcfg reads logbook configuration files the way the logbook server does.

It can:
  - Validate a configuration and report its warnings
  - Resolve single settings under a set of active conditions
  - Show the attribute schema of a logbook
  - Check entry values against that schema
  - Substitute entry variables and apply presets
  - Watch configuration files and reload them on change
  - Show the history of recorded reloads`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "telemetry settings file (YAML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	rootCmd.AddCommand(newValidateCommand())
	rootCmd.AddCommand(newGetCommand())
	rootCmd.AddCommand(newSchemaCommand())
	rootCmd.AddCommand(newExportCommand())
	rootCmd.AddCommand(newCheckEntryCommand())
	rootCmd.AddCommand(newSubstCommand())
	rootCmd.AddCommand(newWatchCommand())
	rootCmd.AddCommand(newHistoryCommand())

	return rootCmd
}
