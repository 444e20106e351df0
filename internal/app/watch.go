package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/workprune/internal/analyzer"
	"github.com/blackwell-systems/workprune/internal/config"
	"github.com/blackwell-systems/workprune/internal/output"
	"github.com/blackwell-systems/workprune/internal/report"
	"github.com/blackwell-systems/workprune/internal/watcher"
)

var (
	watchDaemon      bool
	watchDaemonChild bool
	watchPIDFile     string
	watchLogFile     string
	watchStop        bool
	watchDebounce    time.Duration

	watchCmd = &cobra.Command{
		Use:   "watch [dir]",
		Short: "Re-analyze a workspace whenever it changes",
		Long: `Watch a workspace and re-run the analysis after files change.

Changes are batched: a new analysis starts once the tree has been quiet for
the debounce interval. Each analysis writes fresh reports and is recorded in
the run history, exactly like 'workprune analyze'. Excluded directories and
the report directory are not watched.

Watch modes:
  • Foreground (default): Run in current terminal with Ctrl+C to stop
  • Daemon: Run as a background process
  • Stop: Stop a running daemon`,
		Example: `  # Watch the current directory (Ctrl+C to stop)
  workprune watch

  # Run as background daemon
  workprune watch ~/projects/churn-model --daemon

  # Stop running daemon
  workprune watch --stop`,
		Args: cobra.MaximumNArgs(1),
		RunE: runWatch,
	}
)

func init() {
	watchCmd.Flags().BoolVar(&watchDaemon, "daemon", false, "run as background daemon")
	watchCmd.Flags().BoolVar(&watchDaemonChild, "daemon-child", false, "internal flag for daemon child process")
	watchCmd.Flags().StringVar(&watchPIDFile, "pid-file", "", "PID file path (default: ~/.config/workprune/watch.pid)")
	watchCmd.Flags().StringVar(&watchLogFile, "log-file", "", "log file path (default: ~/.config/workprune/watch.log)")
	watchCmd.Flags().BoolVar(&watchStop, "stop", false, "stop running daemon")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watcher.DefaultDebounce, "quiet period before re-analyzing")

	// Hide the internal daemon-child flag from help
	watchCmd.Flags().MarkHidden("daemon-child")

	RootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if watchPIDFile == "" {
		defaultPID, err := getDefaultPIDFile()
		if err != nil {
			return fmt.Errorf("failed to get default PID file path: %w", err)
		}
		watchPIDFile = defaultPID
	}

	if watchLogFile == "" {
		defaultLog, err := getDefaultLogFile()
		if err != nil {
			return fmt.Errorf("failed to get default log file path: %w", err)
		}
		watchLogFile = defaultLog
	}

	if watchStop {
		return stopWatchDaemon(cmd.OutOrStdout())
	}

	root, err := resolveRoot(args)
	if err != nil {
		return err
	}

	if watchDaemon {
		return startWatchDaemon(cmd.OutOrStdout(), root)
	}

	cfg := loadConfig(root)
	out := cmd.OutOrStdout()

	sc, err := newScanner(root, cfg)
	if err != nil {
		return err
	}

	w, err := watcher.New(root, reanalyze(out, root, cfg),
		watcher.WithDebounce(watchDebounce),
		watcher.WithIgnore(sc.Excluded),
		watcher.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	if watchDaemonChild {
		// Output is redirected to the log file by the parent.
		return w.RunDaemon(watchPIDFile)
	}

	return runWatchForeground(cmd.Context(), out, root, cfg, w)
}

// reanalyze returns the watcher handler: one full analysis per batch.
func reanalyze(out io.Writer, root string, cfg *config.CleanupConfig) watcher.Handler {
	return func(ctx context.Context, changed []string) {
		logger.Debug("re-analyzing", "changed", len(changed))

		r, err := runAnalysis(ctx, root, cfg, report.ModeAnalyze, false)
		if err != nil {
			logger.Warn("analysis failed", "err", err)
			return
		}
		if _, _, err := saveRun(root, cfg, r, report.DefaultTopN); err != nil {
			logger.Warn("report not written", "err", err)
		}

		printWatchLine(out, r, len(changed))
	}
}

// printWatchLine prints a one-line summary of a watch-triggered run.
func printWatchLine(out io.Writer, r *report.Report, changed int) {
	reclaimable := analyzer.Recommend(r.Files).TotalSize
	fmt.Fprintf(out, "[%s] %d changed · %s\n",
		r.Timestamp.Format("15:04:05"), changed, output.RenderDecisionSummary(r.Summary, reclaimable))
}

func stopWatchDaemon(out io.Writer) error {
	running, err := watcher.IsDaemonRunning(watchPIDFile)
	if err != nil {
		return fmt.Errorf("failed to check daemon status: %w", err)
	}

	if !running {
		fmt.Fprintln(out, "Daemon is not running")
		return nil
	}

	if err := watcher.StopDaemon(watchPIDFile); err != nil {
		return fmt.Errorf("failed to stop daemon: %w", err)
	}
	fmt.Fprintln(out, "✓ Daemon stopped")

	return nil
}

func startWatchDaemon(out io.Writer, root string) error {
	var extra []string
	if configPath != "" {
		extra = append(extra, "--config", configPath)
	}
	if dbPath != "" {
		extra = append(extra, "--db", dbPath)
	}
	extra = append(extra, "--pid-file", watchPIDFile, "--debounce", watchDebounce.String())

	if err := watcher.StartDaemon(root, watchPIDFile, watchLogFile, extra...); err != nil {
		return fmt.Errorf("failed to start daemon: %w", err)
	}

	fmt.Fprintf(out, "✓ Watching %s in the background\n", root)
	fmt.Fprintf(out, "  PID file: %s\n", watchPIDFile)
	fmt.Fprintf(out, "  Log file: %s\n", watchLogFile)
	fmt.Fprintf(out, "\nTo stop: workprune watch --stop\n")

	return nil
}

func runWatchForeground(ctx context.Context, out io.Writer, root string, cfg *config.CleanupConfig, w *watcher.Watcher) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(out, "Watching %s (press Ctrl+C to stop)...\n\n", root)

	// Baseline run so the first report exists before any change.
	reanalyze(out, root, cfg)(ctx, nil)

	if err := w.Run(ctx); err != nil {
		return fmt.Errorf("watcher failed: %w", err)
	}

	fmt.Fprintln(out, "\nWatcher stopped")
	return nil
}
