package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/workprune/internal/analyzer"
	"github.com/blackwell-systems/workprune/internal/classifier"
	"github.com/blackwell-systems/workprune/internal/config"
	"github.com/blackwell-systems/workprune/internal/header"
	"github.com/blackwell-systems/workprune/internal/report"
)

var testNow = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	content string
	ageDays int
}

func buildTree(t *testing.T, files map[string]fixture) string {
	t.Helper()
	root := t.TempDir()
	for rel, f := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte(f.content), 0644))
		mtime := testNow.Add(-time.Duration(f.ageDays) * 24 * time.Hour)
		require.NoError(t, os.Chtimes(p, mtime, mtime))
	}
	return root
}

func byPath(files []*analyzer.FileAnalysis) map[string]*analyzer.FileAnalysis {
	m := make(map[string]*analyzer.FileAnalysis, len(files))
	for _, fa := range files {
		m[fa.Path] = fa
	}
	return m
}

func newScanner(t *testing.T, root string, opts ...Option) *Scanner {
	t.Helper()
	opts = append([]Option{WithClock(func() time.Time { return testNow })}, opts...)
	s, err := New(root, config.Default(), opts...)
	require.NoError(t, err)
	return s
}

func TestNew_RejectsMissingAndFileRoots(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing"), nil)
	assert.Error(t, err)

	root := buildTree(t, map[string]fixture{"a.txt": {content: "x"}})
	_, err = New(filepath.Join(root, "a.txt"), nil)
	assert.Error(t, err)
}

func TestWalk_ExcludesAndReportDir(t *testing.T) {
	root := buildTree(t, map[string]fixture{
		"main.py":                             {content: "print(1)\n"},
		"node_modules/pkg/index.js":           {content: "x"},
		".git/HEAD":                           {content: "ref"},
		"cleanup_reports/cleanup_report_1.md": {content: "# old"},
		"sub/cleanup_reports/keep.log":        {content: "x"},
	})

	files, err := newScanner(t, root).Walk()
	require.NoError(t, err)

	paths := byPath(files)
	assert.Len(t, files, 2)
	assert.Contains(t, paths, "main.py")
	assert.Contains(t, paths, "sub/cleanup_reports/keep.log", "only the root report dir is excluded")
}

func TestWalk_ProvisionalAnalysis(t *testing.T) {
	root := buildTree(t, map[string]fixture{
		"tool.py": {content: "# Purpose: one-off export\n# Category: EXPERIMENT\n# Expected Lifetime: temporary\n", ageDays: 3},
	})

	files, err := newScanner(t, root).Walk()
	require.NoError(t, err)
	require.Len(t, files, 1)

	fa := files[0]
	assert.Equal(t, classifier.Experiment, fa.Category)
	assert.Equal(t, analyzer.ReviewRequired, fa.Decision)
	assert.Equal(t, "one-off export", fa.Purpose)
	assert.Equal(t, "temporary", fa.ExpectedLifetime)
	assert.Equal(t, []string{"Header declares category EXPERIMENT"}, fa.Reasoning)
	assert.Equal(t, testNow.Add(-3*24*time.Hour).Unix(), fa.LastModified.Unix())
}

func TestAnalyze_Pipeline(t *testing.T) {
	root := buildTree(t, map[string]fixture{
		"src/report.py":                 {content: "import summary\n", ageDays: 100},
		"src/loader.py":                 {content: "import glob\nfiles = glob.glob('output/*')  # summary\n", ageDays: 100},
		"output/summary.csv":            {content: "a,b\n", ageDays: 100},
		"data/intermediate/scratch.bin": {content: "\x00\x01", ageDays: 20},
		"logs/today.log":                {content: "ok\n", ageDays: 1},
		"config.yaml":                   {content: "a: 1\n", ageDays: 500},
		"mystery.xyz":                   {content: "?\n", ageDays: 40},
	})

	var calls int
	files, err := newScanner(t, root, WithProgress(func(done, total int) {
		calls++
		assert.Equal(t, 7, total)
	})).Analyze(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, calls)

	m := byPath(files)

	out := m["output/summary.csv"]
	assert.Equal(t, classifier.GeneratedOutput, out.Category)
	assert.Equal(t, analyzer.ReviewRequired, out.Decision)
	assert.Equal(t, 0.75, out.Confidence)
	assert.Contains(t, out.Reasoning[len(out.Reasoning)-1], "1 direct + 1 indirect")
	assert.Contains(t, out.RecommendedAction, "src/report.py")
	assert.Contains(t, out.RecommendedAction, "src/loader.py")

	scratch := m["data/intermediate/scratch.bin"]
	assert.Equal(t, analyzer.DeleteSafe, scratch.Decision)
	assert.Equal(t, 0.98, scratch.Confidence)
	assert.Empty(t, scratch.References, "only REVIEW_REQUIRED files are enriched")

	assert.Equal(t, analyzer.KeepRequired, m["logs/today.log"].Decision)
	assert.Equal(t, analyzer.KeepRequired, m["config.yaml"].Decision)

	mystery := m["mystery.xyz"]
	assert.Equal(t, classifier.Unknown, mystery.Category)
	assert.Equal(t, analyzer.ReviewRequired, mystery.Decision)
	assert.Equal(t, 0.5, mystery.Confidence)
}

func TestAnalyze_IsolatesPerFileFailures(t *testing.T) {
	root := buildTree(t, map[string]fixture{
		"good.tmp": {content: "x", ageDays: 30},
		"bad.tmp":  {content: "x", ageDays: 30},
	})

	reader := func(p string) header.Metadata {
		if filepath.Base(p) == "bad.tmp" {
			panic("boom")
		}
		return header.Read(p)
	}

	files, err := newScanner(t, root, WithHeaderReader(reader)).Analyze(context.Background())
	require.NoError(t, err)
	require.Len(t, files, 2)

	m := byPath(files)
	assert.Equal(t, analyzer.DeleteSafe, m["good.tmp"].Decision)

	bad := m["bad.tmp"]
	assert.Equal(t, classifier.Unknown, bad.Category)
	assert.Equal(t, analyzer.ReviewRequired, bad.Decision)
	assert.Contains(t, bad.Reasoning[0], "Classification failed: boom")
}

func TestAnalyze_Cancelled(t *testing.T) {
	root := buildTree(t, map[string]fixture{"a.tmp": {content: "x"}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newScanner(t, root).Analyze(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_BuildsReport(t *testing.T) {
	root := buildTree(t, map[string]fixture{
		"a.tmp":   {content: "x", ageDays: 30},
		"main.go": {content: "package main\n"},
		"odd.xyz": {content: "?"},
	})

	r, err := newScanner(t, root).Run(context.Background(), report.ModeAnalyze)
	require.NoError(t, err)

	assert.Equal(t, "20260501_090000", r.RunID)
	assert.Equal(t, report.Summary{DeleteSafe: 1, KeepRequired: 1, ReviewRequired: 1}, r.Summary)
	assert.Equal(t, r.TotalFiles(), r.Summary.Total())
}

func TestAnalyzeFile(t *testing.T) {
	root := buildTree(t, map[string]fixture{
		"notes/scratch_prompt.txt": {content: "hello\n"},
	})
	s := newScanner(t, root)

	fa, err := s.AnalyzeFile(filepath.Join(root, "notes", "scratch_prompt.txt"))
	require.NoError(t, err)
	assert.Equal(t, "notes/scratch_prompt.txt", fa.Path)
	assert.Equal(t, classifier.Prompt, fa.Category)
	assert.Equal(t, analyzer.ReviewRequired, fa.Decision)

	_, err = s.AnalyzeFile("../elsewhere.txt")
	assert.Error(t, err)

	_, err = s.AnalyzeFile("notes")
	assert.Error(t, err)
}

func TestReportDirPattern(t *testing.T) {
	assert.Equal(t, "/cleanup_reports", reportDirPattern("/w", "cleanup_reports"))
	assert.Equal(t, "/out/reports", reportDirPattern("/w", "/w/out/reports/"))
	assert.Equal(t, "", reportDirPattern("/w", "/elsewhere"))
	assert.Equal(t, "", reportDirPattern("/w", "../up"))
}
