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
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mlcc",
		Short: "ML Container Creator - configuration resolution and validation",
		Long: `mlcc resolves and validates the configuration of ML serving containers
before any project files are generated.

It combines:
  - Versioned registries of frameworks, models, and instance types
  - Wildcard model matching and configuration profiles
  - Instance/accelerator compatibility checks
  - A pluggable environment-variable validation pipeline (known flags,
    community reports, OPA/rego policies)
  - Prior-run memory, so repeat runs start from last time's answers`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	// Add subcommands
	rootCmd.AddCommand(newGenerateCommand())
	rootCmd.AddCommand(newValidateCommand())
	rootCmd.AddCommand(newRegistryCommand())
	rootCmd.AddCommand(newRunsCommand())

	return rootCmd
}
