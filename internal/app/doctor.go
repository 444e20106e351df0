package app

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/workprune/internal/config"
	"github.com/blackwell-systems/workprune/internal/report"
	"github.com/blackwell-systems/workprune/internal/watcher"
)

// errDiagnostics is returned when doctor finds a critical issue.
var errDiagnostics = errors.New("diagnostics failed")

var doctorCmd = &cobra.Command{
	Use:   "doctor [dir]",
	Short: "Diagnose common issues and check workspace health",
	Long: `Runs diagnostic checks on workprune's state for a workspace.

Checks:
  • Configuration file parses
  • Database exists and is accessible
  • Snapshot directory is writable
  • Latest report is readable
  • Watch daemon status`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDoctor,
}

func init() {
	RootCmd.AddCommand(doctorCmd)
}

// doctorResult counts issues by severity.
type doctorResult struct {
	critical int
	warnings int
}

func runDoctor(cmd *cobra.Command, args []string) error {
	root, err := resolveRoot(args)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Running workprune diagnostics for %s...\n\n", root)

	var res doctorResult
	cfg := checkConfig(out, root, &res)
	checkDatabase(out, root, &res)
	checkSnapshotDir(out, &res)
	checkReports(out, reportDir(root, cfg), &res)
	checkDaemon(out, &res)

	fmt.Fprintln(out)
	switch {
	case res.critical > 0:
		fmt.Fprintf(out, "Found %d critical issue(s) and %d warning(s).\n", res.critical, res.warnings)
		return errDiagnostics
	case res.warnings > 0:
		fmt.Fprintf(out, "Found %d warning(s). workprune is functional.\n", res.warnings)
	default:
		fmt.Fprintln(out, "✓ All checks passed!")
	}
	return nil
}

func checkConfig(out io.Writer, root string, res *doctorResult) *config.CleanupConfig {
	p := configPath
	if p == "" {
		found, ok := config.Discover(root)
		if !ok {
			fmt.Fprintln(out, "✓ No config file, using defaults")
			return config.Default()
		}
		p = found
	}

	if configPath != "" {
		if _, err := os.Stat(p); err != nil {
			fmt.Fprintln(out, "⚠ Config file not found:", p)
			res.warnings++
			return config.Default()
		}
	}

	cfg, err := config.Load(p)
	if err != nil {
		fmt.Fprintln(out, "✗ Config file invalid:", err)
		fmt.Fprintln(out, "  Action: fix the file or remove it to use defaults")
		res.critical++
		return cfg
	}
	fmt.Fprintln(out, "✓ Config loaded:", p)
	return cfg
}

func checkDatabase(out io.Writer, root string, res *doctorResult) {
	p, err := getDBPath()
	if err != nil {
		fmt.Fprintln(out, "✗ Database path error:", err)
		res.critical++
		return
	}
	if _, err := os.Stat(p); os.IsNotExist(err) {
		fmt.Fprintln(out, "⚠ Database not found at:", p)
		fmt.Fprintln(out, "  Action: Run 'workprune analyze' to create it")
		res.warnings++
		return
	}

	st, err := openStore()
	if err != nil {
		fmt.Fprintln(out, "✗ Cannot open database:", err)
		res.critical++
		return
	}
	defer st.Close()
	fmt.Fprintln(out, "✓ Database is accessible:", p)

	runs, err := st.ListRuns(root, 1)
	if err != nil {
		fmt.Fprintln(out, "✗ Cannot read runs:", err)
		res.critical++
		return
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "⚠ No runs recorded for this workspace")
		fmt.Fprintln(out, "  Action: Run 'workprune analyze'")
		res.warnings++
		return
	}
	fmt.Fprintf(out, "✓ Last run %s (%s)\n", runs[0].RunID, humanize.Time(runs[0].CreatedAt))
}

func checkSnapshotDir(out io.Writer, res *doctorResult) {
	dir := getSnapshotDir()
	f, err := os.CreateTemp(dir, ".doctor-*")
	if err != nil {
		fmt.Fprintln(out, "✗ Snapshot directory not writable:", err)
		fmt.Fprintln(out, "  Action: 'workprune apply' needs it unless run with --no-snapshot")
		res.critical++
		return
	}
	f.Close()
	os.Remove(f.Name())
	fmt.Fprintln(out, "✓ Snapshot directory writable:", dir)
}

func checkReports(out io.Writer, dir string, res *doctorResult) {
	latest, err := report.Latest(dir)
	if err != nil {
		fmt.Fprintln(out, "⚠ No reports in", dir)
		res.warnings++
		return
	}
	r, err := report.Load(latest)
	if err != nil {
		fmt.Fprintln(out, "✗ Latest report unreadable:", err)
		res.critical++
		return
	}
	fmt.Fprintf(out, "✓ Latest report: %s (%d files)\n", filepath.Base(latest), r.TotalFiles())
}

func checkDaemon(out io.Writer, res *doctorResult) {
	pidFile := watchPIDFile
	if pidFile == "" {
		var err error
		if pidFile, err = getDefaultPIDFile(); err != nil {
			fmt.Fprintln(out, "⚠ Failed to get PID file path:", err)
			res.warnings++
			return
		}
	}

	running, err := watcher.IsDaemonRunning(pidFile)
	if err != nil {
		fmt.Fprintln(out, "⚠ Failed to check daemon status:", err)
		res.warnings++
		return
	}
	if running {
		fmt.Fprintln(out, "✓ Watch daemon running")
		return
	}
	fmt.Fprintln(out, "  Watch daemon not running (optional: 'workprune watch --daemon')")
}
