package app

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/workprune/internal/analyzer"
	"github.com/blackwell-systems/workprune/internal/output"
	"github.com/blackwell-systems/workprune/internal/report"
)

var (
	explainDir  string
	explainJSON bool
)

var explainCmd = &cobra.Command{
	Use:   "explain <file>",
	Short: "Show why a file got its decision",
	Long: `Analyze a single file and print its category, decision, confidence, the
full reasoning trail, and, for files that need review, every reference
to it found in the workspace.`,
	Example: `  # Explain a generated output
  workprune explain output/summary.csv

  # Explain a file in another workspace
  workprune explain --dir ~/projects/churn-model data/intermediate/features.parquet

  # Machine-readable
  workprune explain logs/train.log --json`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return fmt.Errorf("missing file path\n\nUsage: workprune explain <file>")
		}
		return cobra.ExactArgs(1)(cmd, args)
	},
	RunE: runExplain,
}

func init() {
	explainCmd.Flags().StringVar(&explainDir, "dir", ".", "workspace root the file belongs to")
	explainCmd.Flags().BoolVar(&explainJSON, "json", false, "print the analysis as JSON")

	RootCmd.AddCommand(explainCmd)
}

func runExplain(cmd *cobra.Command, args []string) error {
	root, err := resolveRoot([]string{explainDir})
	if err != nil {
		return err
	}
	cfg := loadConfig(root)

	// Relative paths are relative to the workspace root.
	target := args[0]
	if !filepath.IsAbs(target) {
		target = filepath.Join(root, target)
	}

	sc, err := newScanner(root, cfg)
	if err != nil {
		return err
	}

	fa, err := sc.AnalyzeFile(target)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if explainJSON {
		return printJSON(out, report.New(report.ModeAnalyze, []*analyzer.FileAnalysis{fa}, time.Now()))
	}

	fmt.Fprint(out, output.RenderExplanation(fa))
	return nil
}
