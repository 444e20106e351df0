// Package watcher re-runs workspace analysis when files change.
//
// A Watcher registers every non-excluded directory under a root with
// fsnotify, collects changed paths, and hands them to a Handler once the
// tree has been quiet for the debounce interval. Directories created while
// watching are registered as they appear.
//
// Key features:
//   - Debounced batches (one analysis per burst of edits)
//   - Exclusion hook so report and VCS writes don't retrigger analysis
//   - Daemon mode support with PID file management
//   - Graceful shutdown with SIGTERM/SIGINT handling
//
// Example usage:
//
//	w, err := watcher.New(root, func(ctx context.Context, changed []string) {
//		// re-run analysis
//	}, watcher.WithIgnore(sc.Excluded))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Watch in the foreground until ctx is cancelled
//	if err := w.Run(ctx); err != nil {
//		log.Fatal(err)
//	}
//
//	// Or start as daemon
//	if err := watcher.StartDaemon(root, "/tmp/workprune.pid", "/tmp/workprune.log"); err != nil {
//		log.Fatal(err)
//	}
package watcher
