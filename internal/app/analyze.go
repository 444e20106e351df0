package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/workprune/internal/analyzer"
	"github.com/blackwell-systems/workprune/internal/config"
	"github.com/blackwell-systems/workprune/internal/output"
	"github.com/blackwell-systems/workprune/internal/report"
	"github.com/blackwell-systems/workprune/internal/scanner"
)

var (
	analyzeQuiet bool
	analyzeJSON  bool
	analyzeAll   bool
	analyzeTopN  int

	analyzeCmd = &cobra.Command{
		Use:   "analyze [dir]",
		Short: "Analyze a workspace and write a cleanup report",
		Long: `Walk a workspace and decide, for every file, whether it is DELETE_SAFE,
KEEP_REQUIRED or REVIEW_REQUIRED. Nothing is deleted.

Each run writes cleanup_report_<run>.json and cleanup_report_<run>.md to the
report directory (default: cleanup_reports/ inside the workspace) and is
recorded in the run history.

A workprune.yaml or workprune.toml in the workspace root overrides the
defaults (age threshold, protected paths, required artifacts, exclusions).`,
		Example: `  # Analyze the current directory
  workprune analyze

  # Analyze another directory and print the JSON report
  workprune analyze ~/projects/churn-model --json

  # Show every file, including KEEP_REQUIRED ones
  workprune analyze --all`,
		Args: cobra.MaximumNArgs(1),
		RunE: runAnalyze,
	}
)

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeQuiet, "quiet", false, "suppress output except errors")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "print the JSON report to stdout")
	analyzeCmd.Flags().BoolVar(&analyzeAll, "all", false, "include KEEP_REQUIRED files in the table")
	analyzeCmd.Flags().IntVar(&analyzeTopN, "top", report.DefaultTopN, "files listed per group in the Markdown report")

	RootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	root, err := resolveRoot(args)
	if err != nil {
		return err
	}
	cfg := loadConfig(root)
	out := cmd.OutOrStdout()

	showProgress := !analyzeQuiet && !analyzeJSON
	r, err := runAnalysis(cmd.Context(), root, cfg, report.ModeAnalyze, showProgress)
	if err != nil {
		return err
	}

	jsonPath, mdPath, err := saveRun(root, cfg, r, analyzeTopN)
	if err != nil {
		return err
	}

	if analyzeJSON {
		return printJSON(out, r)
	}
	if analyzeQuiet {
		return nil
	}

	printSummary(out, r, analyzeAll)
	fmt.Fprintf(out, "\nReports written:\n  %s\n  %s\n", jsonPath, mdPath)
	if r.Summary.DeleteSafe > 0 {
		fmt.Fprintln(out, "\nRun 'workprune apply --dry-run' to preview deletion.")
	}
	return nil
}

// runAnalysis analyzes root in the given mode, with a progress bar on
// stderr when it is a terminal.
func runAnalysis(ctx context.Context, root string, cfg *config.CleanupConfig, mode report.Mode, showProgress bool) (*report.Report, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	var opts []scanner.Option
	var bar *output.ProgressBar
	if showProgress && isatty.IsTerminal(os.Stderr.Fd()) {
		bar = output.NewProgress(0, "Analyzing files")
		opts = append(opts, scanner.WithProgress(bar.Update))
	}

	sc, err := newScanner(root, cfg, opts...)
	if err != nil {
		return nil, err
	}

	r, err := sc.Run(ctx, mode)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return nil, fmt.Errorf("analysis failed: %w", err)
	}
	return r, nil
}

// printSummary prints the decision line and the file table.
func printSummary(out io.Writer, r *report.Report, all bool) {
	reclaimable := analyzer.Recommend(r.Files).TotalSize
	fmt.Fprintf(out, "Analyzed %d files in run %s\n\n", r.TotalFiles(), r.RunID)
	fmt.Fprintln(out, output.RenderDecisionSummary(r.Summary, reclaimable))
	fmt.Fprintln(out)

	files := r.Files
	if !all {
		files = append(r.ByDecision(analyzer.DeleteSafe), r.ByDecision(analyzer.ReviewRequired)...)
		if len(files) == 0 {
			fmt.Fprintln(out, "Nothing to delete or review.")
			return
		}
	}
	fmt.Fprint(out, output.RenderFileTable(files))
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
