package app

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/workprune/internal/analyzer"
	"github.com/blackwell-systems/workprune/internal/output"
	"github.com/blackwell-systems/workprune/internal/snapshots"
	"github.com/blackwell-systems/workprune/internal/store"
)

var (
	historyLimit     int
	historyAll       bool
	historyRun       int64
	historyDecision  string
	historyPruneDays int
)

var historyCmd = &cobra.Command{
	Use:   "history [dir]",
	Short: "Show past analysis and apply runs",
	Long: `List recorded runs for a workspace, newest first, with their decision counts.

Use --run to list the files of one run, optionally filtered by decision.
Use --prune-days to forget runs and snapshot copies older than N days.`,
	Example: `  # Runs for the current directory
  workprune history

  # Runs for every workspace
  workprune history --all

  # Files deleted-or-deletable in run 12
  workprune history --run 12 --decision DELETE_SAFE

  # Forget runs older than 90 days
  workprune history --prune-days 90`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum runs to show (0 for all)")
	historyCmd.Flags().BoolVar(&historyAll, "all", false, "show runs for every workspace")
	historyCmd.Flags().Int64Var(&historyRun, "run", 0, "show the files of this run id")
	historyCmd.Flags().StringVar(&historyDecision, "decision", "", "with --run, only files with this decision")
	historyCmd.Flags().IntVar(&historyPruneDays, "prune-days", 0, "delete runs and snapshot copies older than this many days")

	RootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	out := cmd.OutOrStdout()

	if historyPruneDays > 0 {
		return pruneHistory(out, st, historyPruneDays)
	}
	if historyRun > 0 {
		return showRunFiles(out, st, historyRun, historyDecision)
	}

	root := ""
	if !historyAll {
		if root, err = resolveRoot(args); err != nil {
			return err
		}
	}

	runs, err := st.ListRuns(root, historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded.")
		fmt.Fprintln(out, "\nRun 'workprune analyze' to create one.")
		return nil
	}

	if root != "" {
		fmt.Fprintf(out, "Runs for %s:\n\n", root)
	}
	fmt.Fprint(out, output.RenderRunTable(runs))
	fmt.Fprintln(out, "\nShow files with: workprune history --run <id>")
	return nil
}

func showRunFiles(out io.Writer, st *store.Store, id int64, decision string) error {
	run, err := st.GetRun(id)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("run %d not found\n\nRun 'workprune history' to see recorded runs", id)
	}
	if err != nil {
		return fmt.Errorf("failed to get run %d: %w", id, err)
	}

	decision = strings.ToUpper(strings.TrimSpace(decision))
	if decision != "" && !validDecision(decision) {
		return fmt.Errorf("invalid decision %q (want DELETE_SAFE, KEEP_REQUIRED or REVIEW_REQUIRED)", decision)
	}

	files, err := st.GetRunFiles(id, decision)
	if err != nil {
		return fmt.Errorf("failed to get run files: %w", err)
	}

	fmt.Fprintf(out, "Run %s (%s) in %s\n", run.RunID, run.Mode, run.Root)
	if run.ReportPath != "" {
		fmt.Fprintf(out, "Report: %s\n", run.ReportPath)
	}
	fmt.Fprintln(out)

	if len(files) == 0 {
		fmt.Fprintln(out, "No files.")
		return nil
	}

	fmt.Fprintf(out, "%-50s %-22s %-16s %5s %10s\n", "Path", "Category", "Decision", "Conf", "Size")
	fmt.Fprintln(out, strings.Repeat("─", 107))
	for _, f := range files {
		fmt.Fprintf(out, "%-50s %-22s %-16s %4.0f%% %10s\n",
			f.Path, f.Category, f.Decision, f.Confidence*100, humanize.IBytes(uint64(f.SizeBytes)))
	}
	return nil
}

func validDecision(d string) bool {
	for _, known := range analyzer.AllDecisions {
		if string(known) == d {
			return true
		}
	}
	return false
}

func pruneHistory(out io.Writer, st *store.Store, days int) error {
	maxAge := time.Duration(days) * 24 * time.Hour

	runs, err := st.DeleteRunsBefore(time.Now().Add(-maxAge))
	if err != nil {
		return fmt.Errorf("failed to prune runs: %w", err)
	}

	removed, err := snapshots.New(st, getSnapshotDir()).CleanupOldSnapshots(maxAge)
	if err != nil {
		return fmt.Errorf("failed to prune snapshots: %w", err)
	}

	fmt.Fprintf(out, "✓ Removed %d runs and %d snapshot copies older than %d days\n", runs, removed, days)
	return nil
}
