package app

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/workprune/internal/analyzer"
	"github.com/blackwell-systems/workprune/internal/output"
	"github.com/blackwell-systems/workprune/internal/report"
	"github.com/blackwell-systems/workprune/internal/snapshots"
)

var (
	applyFlagDryRun     bool
	applyFlagYes        bool
	applyFlagNoSnapshot bool
	applyTopN           int
)

var applyCmd = &cobra.Command{
	Use:   "apply [dir]",
	Short: "Delete files whose decision is DELETE_SAFE",
	Long: `Analyze a workspace and delete every file whose decision is DELETE_SAFE.

REVIEW_REQUIRED and KEEP_REQUIRED files are never touched.

Safety features:
  - Files that fail validation (low confidence, references, permanent
    lifetime header) are skipped
  - The total size is capped by max_delete_size_mb (default 100)
  - Files are copied to a snapshot first (unless --no-snapshot)
  - Requires confirmation (unless --yes)

Examples:
  # Preview what would be deleted
  workprune apply --dry-run

  # Delete after confirmation
  workprune apply

  # Delete without snapshot or prompt (dangerous!)
  workprune apply --no-snapshot --yes`,
	Args: cobra.MaximumNArgs(1),
	RunE: runApply,
}

func init() {
	applyCmd.Flags().BoolVar(&applyFlagDryRun, "dry-run", false, "Show what would be deleted without deleting")
	applyCmd.Flags().BoolVar(&applyFlagYes, "yes", false, "Skip confirmation prompt")
	applyCmd.Flags().BoolVar(&applyFlagNoSnapshot, "no-snapshot", false, "Skip automatic snapshot creation (dangerous)")
	applyCmd.Flags().IntVar(&applyTopN, "top", report.DefaultTopN, "files listed per group in the Markdown report")

	RootCmd.AddCommand(applyCmd)
}

func runApply(cmd *cobra.Command, args []string) error {
	root, err := resolveRoot(args)
	if err != nil {
		return err
	}
	cfg := loadConfig(root)
	out := cmd.OutOrStdout()

	r, err := runAnalysis(cmd.Context(), root, cfg, report.ModeApply, true)
	if err != nil {
		return err
	}

	engine := analyzer.New(cfg, root)
	candidates, warnings := selectDeletions(engine, r.Files)

	if len(warnings) > 0 {
		fmt.Fprintln(out, "⚠  Skipped:")
		for _, w := range warnings {
			fmt.Fprintf(out, "  %s\n", w)
		}
		fmt.Fprintln(out)
	}

	rec := analyzer.Recommend(candidates)
	if len(rec.Files) == 0 {
		fmt.Fprintln(out, "No files are safe to delete.")
		if !applyFlagDryRun {
			r.NotDeleted = warnings
			_, _, err := saveRun(root, cfg, r, applyTopN)
			return err
		}
		return nil
	}

	if err := engine.CheckSizeCap(rec); err != nil {
		if errors.Is(err, analyzer.ErrSizeCapExceeded) {
			return fmt.Errorf("%w\n\nRaise max_delete_size_mb in workprune.yaml or delete in smaller batches", err)
		}
		return err
	}

	fmt.Fprintf(out, "Files to delete (%d, %s):\n\n", len(rec.Files), humanize.IBytes(uint64(rec.TotalSize)))
	fmt.Fprint(out, output.RenderFileTable(rec.Files))
	fmt.Fprintln(out)

	if applyFlagDryRun {
		fmt.Fprintln(out, "Dry run: no files were deleted.")
		return nil
	}

	if !applyFlagYes {
		if !confirm(cmd.InOrStdin(), out, fmt.Sprintf("Delete %d files?", len(rec.Files))) {
			fmt.Fprintln(out, "Deletion cancelled.")
			return nil
		}
	}

	paths := make([]string, len(rec.Files))
	for i, fa := range rec.Files {
		paths[i] = fa.Path
	}

	var snapshotID int64
	if !applyFlagNoSnapshot {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		spinner := output.NewSpinner("Creating snapshot")
		spinner.Start()
		snapshotID, err = snapshots.New(st, getSnapshotDir()).CreateSnapshot(root, paths, "pre-apply "+r.RunID)
		spinner.Stop()
		if err != nil {
			return fmt.Errorf("failed to create snapshot (nothing was deleted): %w", err)
		}
		fmt.Fprintf(out, "✓ Snapshot %d created\n", snapshotID)
	}

	deleted, failures := deleteFiles(root, paths)
	var freed int64
	for _, fa := range rec.Files {
		if deleted[fa.Path] {
			freed += fa.SizeBytes
		}
	}

	r.NotDeleted = append(warnings, failures...)
	jsonPath, _, saveErr := saveRun(root, cfg, r, applyTopN)
	if saveErr != nil {
		logger.Warn("report not written", "err", saveErr)
	}

	printApplyResult(out, len(deleted), freed, failures, snapshotID, jsonPath)

	if len(failures) > 0 {
		return fmt.Errorf("deleted %d/%d files, %d failures", len(deleted), len(paths), len(failures))
	}
	return nil
}

// selectDeletions returns the DELETE_SAFE files that pass validation and a
// warning line for each one that does not.
func selectDeletions(engine *analyzer.Engine, files []*analyzer.FileAnalysis) ([]*analyzer.FileAnalysis, []string) {
	var ok []*analyzer.FileAnalysis
	var warnings []string
	for _, fa := range files {
		if fa.Decision != analyzer.DeleteSafe {
			continue
		}
		if w := engine.ValidateDeletion([]*analyzer.FileAnalysis{fa}); len(w) > 0 {
			warnings = append(warnings, w...)
			continue
		}
		ok = append(ok, fa)
	}
	return ok, warnings
}

// deleteFiles removes each path under root. A missing file counts as
// deleted.
func deleteFiles(root string, paths []string) (map[string]bool, []string) {
	deleted := make(map[string]bool, len(paths))
	var failures []string
	for _, p := range paths {
		err := os.Remove(filepath.Join(root, filepath.FromSlash(p)))
		if err != nil && !os.IsNotExist(err) {
			failures = append(failures, fmt.Sprintf("%s: %v", p, err))
			logger.Warn("delete failed", "path", p, "err", err)
			continue
		}
		deleted[p] = true
	}
	return deleted, failures
}

func printApplyResult(out io.Writer, deleted int, freed int64, failures []string, snapshotID int64, reportPath string) {
	fmt.Fprintf(out, "\n✓ Deleted %d files (%s freed)\n", deleted, humanize.IBytes(uint64(freed)))

	if len(failures) > 0 {
		fmt.Fprintf(out, "\n⚠  %d files could not be deleted:\n", len(failures))
		for _, f := range failures {
			fmt.Fprintf(out, "  %s\n", f)
		}
	}
	if reportPath != "" {
		fmt.Fprintf(out, "\nReport: %s\n", reportPath)
	}
	if snapshotID > 0 {
		fmt.Fprintf(out, "Undo with: workprune undo %d\n", snapshotID)
	}
}
