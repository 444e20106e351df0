package app

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/workprune/internal/output"
	"github.com/blackwell-systems/workprune/internal/snapshots"
	"github.com/blackwell-systems/workprune/internal/store"
)

var (
	undoFlagList bool
	undoFlagYes  bool
)

var undoCmd = &cobra.Command{
	Use:   "undo [snapshot-id | latest]",
	Short: "Restore files from a snapshot",
	Long: `Restore files that an apply deleted.

Every apply copies the files it is about to delete into a snapshot first
(unless --no-snapshot). Restoring puts each file back at its original path
with its original permissions and modification time. A file that exists
again at its original path is left alone.

Arguments:
  snapshot-id  The numeric ID of the snapshot to restore
  latest       Restore the most recent snapshot`,
	Example: `  workprune undo --list           # List all snapshots
  workprune undo latest           # Restore latest snapshot
  workprune undo 42               # Restore snapshot ID 42
  workprune undo 42 --yes         # Restore without confirmation`,
	Args: cobra.MaximumNArgs(1),
	RunE: runUndo,
}

func init() {
	undoCmd.Flags().BoolVar(&undoFlagList, "list", false, "List available snapshots")
	undoCmd.Flags().BoolVar(&undoFlagYes, "yes", false, "Skip confirmation prompt")

	RootCmd.AddCommand(undoCmd)
}

func runUndo(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	out := cmd.OutOrStdout()
	snapMgr := snapshots.New(st, getSnapshotDir())

	if undoFlagList {
		return listSnapshots(out, snapMgr)
	}

	if len(args) == 0 {
		return fmt.Errorf("snapshot ID or 'latest' required\n\nUsage: workprune undo [snapshot-id | latest]\n\nUse 'workprune undo --list' to see available snapshots")
	}

	snapshotID, err := resolveSnapshotID(out, snapMgr, args[0])
	if err != nil {
		return err
	}

	snapshot, err := st.GetSnapshot(snapshotID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("snapshot %d not found\n\nRun 'workprune undo --list' to see available snapshots", snapshotID)
		}
		return err
	}

	files, err := st.GetSnapshotFiles(snapshotID)
	if err != nil {
		return fmt.Errorf("failed to get snapshot files: %w", err)
	}

	printSnapshotDetails(out, snapshot, files)

	if !undoFlagYes {
		if !confirm(cmd.InOrStdin(), out, fmt.Sprintf("Restore %d files?", len(files))) {
			fmt.Fprintln(out, "Restoration cancelled.")
			return nil
		}
	}

	spinner := output.NewSpinner("Restoring files from snapshot")
	spinner.Start()
	restored, err := snapMgr.RestoreSnapshot(snapshotID)
	spinner.Stop()

	if err != nil {
		if errors.Is(err, snapshots.ErrAlreadyRestored) {
			return err
		}
		if len(restored) > 0 {
			fmt.Fprintf(out, "\n⚠  Restored %d of %d files\n", len(restored), len(files))
		}
		return fmt.Errorf("restoration incomplete: %w", err)
	}

	fmt.Fprintf(out, "\n✓ Restored %d files from snapshot %d into %s\n", len(restored), snapshotID, snapshot.Root)
	return nil
}

// resolveSnapshotID turns "latest" or a numeric argument into an id.
func resolveSnapshotID(out io.Writer, snapMgr *snapshots.Manager, arg string) (int64, error) {
	if strings.EqualFold(arg, "latest") {
		snaps, err := snapMgr.ListSnapshots()
		if err != nil {
			return 0, fmt.Errorf("failed to list snapshots: %w", err)
		}
		if len(snaps) == 0 {
			return 0, fmt.Errorf("no snapshots available\n\nSnapshots are created by 'workprune apply' before files are deleted")
		}
		// Newest first.
		fmt.Fprintf(out, "Using latest snapshot: ID %d\n", snaps[0].ID)
		return snaps[0].ID, nil
	}

	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid snapshot ID: %s (must be a number or 'latest')", arg)
	}
	return id, nil
}

func printSnapshotDetails(out io.Writer, snapshot *store.Snapshot, files []*store.SnapshotFile) {
	fmt.Fprintf(out, "\nSnapshot Details:\n")
	fmt.Fprintf(out, "  ID: %d\n", snapshot.ID)
	fmt.Fprintf(out, "  Created: %s\n", snapshot.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "  Reason: %s\n", snapshot.Reason)
	fmt.Fprintf(out, "  Workspace: %s\n", snapshot.Root)
	fmt.Fprintf(out, "  Files: %d\n", snapshot.FileCount)
	if snapshot.RestoredAt != nil {
		fmt.Fprintf(out, "  Restored: %s\n", snapshot.RestoredAt.Local().Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintln(out)

	if len(files) == 0 {
		return
	}
	fmt.Fprintln(out, "Files to restore:")
	for _, f := range files {
		fmt.Fprintf(out, "  - %s (%s)\n", f.Path, humanize.IBytes(uint64(f.SizeBytes)))
	}
	fmt.Fprintln(out)
}

// listSnapshots displays all available snapshots.
func listSnapshots(out io.Writer, snapMgr *snapshots.Manager) error {
	snaps, err := snapMgr.ListSnapshots()
	if err != nil {
		return fmt.Errorf("failed to list snapshots: %w", err)
	}

	if len(snaps) == 0 {
		fmt.Fprintln(out, "No snapshots available.")
		fmt.Fprintln(out, "\nSnapshots are created by 'workprune apply' before files are deleted.")
		return nil
	}

	fmt.Fprintf(out, "\nAvailable snapshots:\n\n")
	fmt.Fprint(out, output.RenderSnapshotTable(snaps))
	fmt.Fprintf(out, "\nRestore with: workprune undo <id>\n")
	return nil
}
