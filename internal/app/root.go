package app

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/workprune/internal/config"
)

var (
	dbPath     string
	configPath string
	verbose    bool

	logger = newLogger(false)

	// RootCmd is the root command for workprune
	RootCmd = &cobra.Command{
		Use:   "workprune",
		Short: "Decide which workspace files are safe to delete",
		Long: `workprune walks a project workspace and decides, file by file, whether it is
safe to delete, must be kept, or needs a human to look at it.

Every decision comes with a confidence score and a written trail of reasons.
Files that need review are cross-checked against the rest of the workspace
for references (imports, file reads, glob patterns, string literals).

Decisions:
  • DELETE_SAFE      Logs, temp files and intermediates past the age threshold
  • KEEP_REQUIRED    Source, config, protected paths and required artifacts
  • REVIEW_REQUIRED  Generated outputs, experiments, prompts, unknown files

Quick Start:
  1. workprune analyze
  2. Read cleanup_reports/cleanup_report_<run>.md
  3. workprune apply --dry-run
  4. workprune apply

Examples:
  # Analyze the current directory
  workprune analyze

  # Explain one decision
  workprune explain output/summary.csv

  # Delete DELETE_SAFE files (snapshotted first)
  workprune apply

  # Undo the last apply
  workprune undo latest`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = newLogger(verbose)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "workprune: workspace cleanup with explained decisions")
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Run 'workprune analyze' to analyze the current directory.")
			fmt.Fprintln(out, "Run 'workprune --help' for the full reference.")
			return nil
		},
	}
)

func init() {
	RootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (default: ~/.config/workprune/workprune.db)")
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: workprune.yaml in the analyzed directory)")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log per-file details to stderr")

	// Enable cobra's built-in suggestion feature for unknown subcommands
	RootCmd.SuggestionsMinimumDistance = 2
}

// Execute runs the root command
func Execute() error {
	return RootCmd.Execute()
}

// newLogger returns a text logger on stderr. Per-file problems are logged
// at Debug, so they only show with --verbose.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// dataDir returns the workprune state directory, creating it if needed.
func dataDir() (string, error) {
	dir, err := config.Dir()
	if err != nil {
		return "", fmt.Errorf("failed to get config directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create workprune directory: %w", err)
	}
	return dir, nil
}

// getDBPath returns the database path, using the flag value or default
func getDBPath() (string, error) {
	if dbPath != "" {
		return dbPath, nil
	}
	dir, err := dataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "workprune.db"), nil
}

// getDefaultPIDFile returns the default PID file path
func getDefaultPIDFile() (string, error) {
	dir, err := dataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "watch.pid"), nil
}

// getDefaultLogFile returns the default log file path
func getDefaultLogFile() (string, error) {
	dir, err := dataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "watch.log"), nil
}
