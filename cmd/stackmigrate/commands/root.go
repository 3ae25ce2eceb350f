package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stackmigrate/stackmigrate/pkg/telemetry"
)

var (
	// Global flags
	logLevel   string
	jsonOutput bool
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "stackmigrate",
		Short: "stackmigrate - Migration Analysis & Validation Engine",
		Long: `stackmigrate inspects an existing infrastructure template, reconstructs its
resource dependency graph and implicit relationships, and proves that a
migrated definition is state-equivalent to the original (zero-diff guarantee).

Features:
  - Dependency-ordered resource extraction with cycle tolerance
  - Relationship inference (permission grants, network access, data references)
  - Recursive structural template diffing
  - Non-functional change classification with configurable allow-lists
  - Optional validation run history (SQLite)`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	rootCmd.AddCommand(newAnalyzeCommand())
	rootCmd.AddCommand(newValidateCommand())
	rootCmd.AddCommand(newHistoryCommand())

	return rootCmd
}

// newTelemetry builds a telemetry instance from the global flags.
func newTelemetry(version string) (*telemetry.Telemetry, error) {
	cfg := telemetry.DefaultConfig()
	cfg.ServiceVersion = version
	cfg.Logging.Level = logLevel
	if jsonOutput {
		// Keep stdout clean for machine-readable output
		cfg.Logging.Format = "json"
		cfg.Logging.Output = "stderr"
	}
	return telemetry.NewTelemetry(cfg)
}
