package app

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/blackwell-systems/workprune/internal/config"
	"github.com/blackwell-systems/workprune/internal/report"
	"github.com/blackwell-systems/workprune/internal/scanner"
	"github.com/blackwell-systems/workprune/internal/store"
)

// getSnapshotDir returns the directory for snapshot storage.
// Uses ~/.config/workprune/snapshots by default.
func getSnapshotDir() string {
	dir, err := dataDir()
	if err != nil {
		// Fallback to current directory
		return "snapshots"
	}

	snapshotDir := filepath.Join(dir, "snapshots")
	if err := os.MkdirAll(snapshotDir, 0755); err != nil {
		return "snapshots"
	}

	return snapshotDir
}

// resolveRoot returns the absolute directory named by args, or the
// working directory when args is empty.
func resolveRoot(args []string) (string, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	root, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", dir, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return "", fmt.Errorf("cannot analyze %s: %w", dir, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("cannot analyze %s: not a directory", dir)
	}
	return root, nil
}

// loadConfig loads --config, or a config file discovered in root. A bad
// config file is reported and the defaults are used.
func loadConfig(root string) *config.CleanupConfig {
	p := configPath
	if p == "" {
		found, ok := config.Discover(root)
		if !ok {
			return config.Default()
		}
		p = found
	}

	cfg, err := config.Load(p)
	if err != nil {
		logger.Warn("using default configuration", "path", p, "err", err)
	} else {
		logger.Debug("loaded configuration", "path", p)
	}
	return cfg
}

// openStore opens the database and makes sure the schema exists.
func openStore() (*store.Store, error) {
	path, err := getDBPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get database path: %w", err)
	}
	st, err := store.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := st.CreateSchema(); err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return st, nil
}

// newScanner builds a scanner for root with the shared logger.
func newScanner(root string, cfg *config.CleanupConfig, opts ...scanner.Option) (*scanner.Scanner, error) {
	opts = append([]scanner.Option{scanner.WithLogger(logger)}, opts...)
	sc, err := scanner.New(root, cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create scanner: %w", err)
	}
	return sc, nil
}

// reportDir resolves the configured report directory against root.
func reportDir(root string, cfg *config.CleanupConfig) string {
	if filepath.IsAbs(cfg.ReportDir) {
		return cfg.ReportDir
	}
	return filepath.Join(root, filepath.FromSlash(cfg.ReportDir))
}

// saveRun writes both report files and records the run. A database failure
// is logged, not returned: the reports on disk are the primary output.
func saveRun(root string, cfg *config.CleanupConfig, r *report.Report, topN int) (jsonPath, mdPath string, err error) {
	jsonPath, mdPath, err = report.Write(reportDir(root, cfg), r, topN)
	if err != nil {
		return "", "", err
	}

	st, err := openStore()
	if err != nil {
		logger.Warn("run not recorded", "err", err)
		return jsonPath, mdPath, nil
	}
	defer st.Close()

	if _, err := st.RecordRun(root, jsonPath, r); err != nil {
		logger.Warn("run not recorded", "err", err)
	}
	return jsonPath, mdPath, nil
}

// confirm asks a yes/no question on out and reads the answer from in.
// Anything but y or yes is a no.
func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", prompt)

	response, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && response == "" {
		return false
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}
