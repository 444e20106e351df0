package app

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/blackwell-systems/workprune/internal/report"
	"github.com/blackwell-systems/workprune/internal/watcher"
)

// oldTime is well past the default age threshold.
var oldTime = time.Now().Add(-60 * 24 * time.Hour)

// setupTestEnv points every piece of global state at temporary locations
// and resets command flags to their defaults.
func setupTestEnv(t *testing.T) {
	t.Helper()

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("NO_COLOR", "1")

	oldDB, oldConfig, oldVerbose := dbPath, configPath, verbose
	dbPath = filepath.Join(t.TempDir(), "test.db")
	configPath = ""
	verbose = false
	t.Cleanup(func() {
		dbPath, configPath, verbose = oldDB, oldConfig, oldVerbose
	})

	resetFlags()
	t.Cleanup(resetFlags)
}

func resetFlags() {
	analyzeQuiet, analyzeJSON, analyzeAll, analyzeTopN = false, false, false, report.DefaultTopN
	applyFlagDryRun, applyFlagYes, applyFlagNoSnapshot, applyTopN = false, false, false, report.DefaultTopN
	explainDir, explainJSON = ".", false
	headerPurpose, headerLifetime, headerCategory, headerShow = "", "", "", false
	historyLimit, historyAll, historyRun, historyDecision, historyPruneDays = 20, false, 0, "", 0
	undoFlagList, undoFlagYes = false, false
	watchDaemon, watchDaemonChild, watchStop = false, false, false
	watchPIDFile, watchLogFile, watchDebounce = "", "", watcher.DefaultDebounce
}

// executeCommand runs the root command with args and returns its stdout.
func executeCommand(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	RootCmd.SetOut(&out)
	RootCmd.SetErr(&out)
	RootCmd.SetIn(strings.NewReader(stdin))
	RootCmd.SetArgs(args)
	t.Cleanup(func() {
		RootCmd.SetOut(nil)
		RootCmd.SetErr(nil)
		RootCmd.SetIn(nil)
		RootCmd.SetArgs(nil)
	})

	err := RootCmd.Execute()
	return out.String(), err
}

// writeWorkspace creates files under a new temporary workspace. Names
// ending in .log are backdated past the age threshold.
func writeWorkspace(t *testing.T, files map[string]string) string {
	t.Helper()

	root := t.TempDir()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		if strings.HasSuffix(name, ".log") {
			if err := os.Chtimes(p, oldTime, oldTime); err != nil {
				t.Fatal(err)
			}
		}
	}
	return root
}

// sampleWorkspace has one deletable log, one kept source file and one
// generated output that needs review.
func sampleWorkspace(t *testing.T) string {
	return writeWorkspace(t, map[string]string{
		"main.py":            "import pandas\nprint('hello')\n",
		"logs/train.log":     "epoch 1 loss 0.3\nepoch 2 loss 0.2\n",
		"output/summary.csv": "a,b\n1,2\n",
	})
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
