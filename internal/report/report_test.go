package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/workprune/internal/analyzer"
	"github.com/blackwell-systems/workprune/internal/classifier"
	"github.com/blackwell-systems/workprune/internal/references"
)

var runTime = time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)

func sampleFiles() []*analyzer.FileAnalysis {
	return []*analyzer.FileAnalysis{
		{
			Path: "logs/old.log", Category: classifier.LogFile, SizeBytes: 2048,
			LastModified: runTime.Add(-30 * 24 * time.Hour),
			Decision:     analyzer.DeleteSafe, Confidence: 0.98,
			Reasoning:         []string{"LOG_FILE is 30 days old (threshold 14 days)"},
			RiskAssessment:    "Low: log file past its retention threshold",
			RecommendedAction: "Safe to delete",
		},
		{
			Path: "main.go", Category: classifier.SourceCode, SizeBytes: 100,
			Decision: analyzer.KeepRequired, Confidence: 1.0,
			Purpose: "Entry point", ExpectedLifetime: "permanent", Created: "2026-01-01",
		},
		{
			Path: "output/summary.csv", Category: classifier.GeneratedOutput, SizeBytes: 1500,
			Decision: analyzer.ReviewRequired, Confidence: 0.75,
			RiskAssessment:    "Medium: regeneration | generator",
			RecommendedAction: "Check references before deleting: src/report.py",
			References: []references.Reference{
				{File: "src/report.py", Line: 3, Context: ">>>    3 | import summary", Type: references.TypeImport},
				{File: "src/loader.py", Line: 2, IsIndirect: true, Type: references.TypeGlobPattern},
			},
		},
	}
}

func TestNew_RunIDAndSummary(t *testing.T) {
	r := New(ModeAnalyze, sampleFiles(), runTime)

	assert.Equal(t, "20260203_040506", r.RunID)
	assert.Equal(t, Summary{DeleteSafe: 1, KeepRequired: 1, ReviewRequired: 1}, r.Summary)
	assert.Equal(t, 3, r.TotalFiles())
}

func TestSummaryConservation(t *testing.T) {
	decisions := []analyzer.DecisionType{
		analyzer.DeleteSafe, analyzer.KeepRequired, analyzer.ReviewRequired, "", "BOGUS",
	}

	for n := 0; n < 25; n++ {
		var files []*analyzer.FileAnalysis
		for i := 0; i < n; i++ {
			files = append(files, &analyzer.FileAnalysis{
				Path:     fmt.Sprintf("f%d", i),
				Decision: decisions[(i*7+n)%len(decisions)],
			})
		}
		r := New(ModeAnalyze, files, runTime)
		assert.Equal(t, r.TotalFiles(), r.Summary.Total(), "n=%d", n)

		var listed int
		for _, d := range analyzer.AllDecisions {
			listed += len(r.ByDecision(d))
		}
		assert.Equal(t, n, listed)
	}
}

func TestMarshalJSON_Structure(t *testing.T) {
	r := New(ModeApply, sampleFiles(), runTime)

	data, err := json.Marshal(r)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))

	meta := raw["metadata"].(map[string]any)
	assert.Equal(t, "20260203_040506", meta["run_id"])
	assert.Equal(t, "apply", meta["mode"])
	assert.Equal(t, "2026-02-03T04:05:06Z", meta["timestamp"])
	assert.Equal(t, float64(3), meta["total_files"])
	assert.Equal(t, map[string]any{
		"delete_safe": float64(1), "keep_required": float64(1), "review_required": float64(1),
	}, meta["summary"])

	files := raw["files"].([]any)
	require.Len(t, files, 3)

	review := files[2].(map[string]any)
	assert.Equal(t, 1.46, review["size_kb"])
	assert.Equal(t, 0.75, review["confidence"])
	assert.Equal(t, float64(1), review["direct_references"])
	assert.Equal(t, float64(1), review["indirect_references"])
	assert.Len(t, review["references"], 2)

	keep := files[1].(map[string]any)
	assert.Equal(t, []any{}, keep["reasoning"])
	assert.Equal(t, []any{}, keep["references"])
	assert.Equal(t, "permanent", keep["expected_lifetime"])
}

func TestJSONRoundTrip(t *testing.T) {
	orig := New(ModeAnalyze, sampleFiles(), runTime)

	data, err := json.Marshal(orig)
	require.NoError(t, err)

	var back Report
	require.NoError(t, json.Unmarshal(data, &back))

	assert.Equal(t, orig.RunID, back.RunID)
	assert.Equal(t, orig.Mode, back.Mode)
	assert.True(t, orig.Timestamp.Equal(back.Timestamp))
	assert.Equal(t, orig.Summary, back.Summary)
	require.Len(t, back.Files, 3)

	for i, want := range orig.Files {
		got := back.Files[i]
		assert.Equal(t, want.Path, got.Path)
		assert.Equal(t, want.Category, got.Category)
		assert.Equal(t, want.SizeBytes, got.SizeBytes)
		assert.Equal(t, want.Decision, got.Decision)
		assert.Equal(t, want.Confidence, got.Confidence)
		assert.Equal(t, want.RecommendedAction, got.RecommendedAction)
		assert.Equal(t, want.References, got.References)
		assert.Equal(t, want.Purpose, got.Purpose)
		assert.Equal(t, want.Created, got.Created)
		assert.True(t, want.LastModified.Equal(got.LastModified))
	}
}

func TestUnmarshalJSON_BadTimestamp(t *testing.T) {
	var r Report
	err := json.Unmarshal([]byte(`{"metadata":{"timestamp":"yesterday"},"files":[]}`), &r)
	assert.Error(t, err)
}

func TestMarkdown_Sections(t *testing.T) {
	md := New(ModeAnalyze, sampleFiles(), runTime).Markdown(10)

	assert.Contains(t, md, "- **Run ID:** 20260203_040506")
	assert.Contains(t, md, "| DELETE_SAFE | 1 |")
	assert.Contains(t, md, "## DELETE_SAFE (1)")
	assert.Contains(t, md, "- `logs/old.log` (2.0 KiB, LOG_FILE)")
	assert.Contains(t, md, "| `output/summary.csv` | GENERATED_OUTPUT | 75% | Medium: regeneration \\| generator |")
	assert.Contains(t, md, "#### `output/summary.csv`")
	assert.Contains(t, md, "- **Action:** Check references before deleting: src/report.py")
	assert.Contains(t, md, "1 file will be kept.")
	assert.Contains(t, md, "Run `workprune apply`")
	assert.NotContains(t, md, "workprune undo")
}

func TestMarkdown_TruncatesLists(t *testing.T) {
	var files []*analyzer.FileAnalysis
	for i := 0; i < 7; i++ {
		files = append(files, &analyzer.FileAnalysis{
			Path: fmt.Sprintf("tmp/%d.tmp", i), Category: classifier.TempFile,
			Decision: analyzer.DeleteSafe, Confidence: 0.98,
		})
	}

	md := New(ModeApply, files, runTime).Markdown(3)

	assert.Contains(t, md, "- `tmp/2.tmp`")
	assert.NotContains(t, md, "- `tmp/3.tmp`")
	assert.Contains(t, md, "- ... and 4 more")
	assert.Contains(t, md, "Nothing needs review.")
	assert.Contains(t, md, "workprune undo latest")
}

func TestMarkdown_ApplyNotes(t *testing.T) {
	r := New(ModeApply, sampleFiles(), runTime)
	md := r.Markdown(10)
	assert.Contains(t, md, "- All DELETE_SAFE files were removed in this run.")

	r.NotDeleted = []string{"logs/old.log: referenced by 1 other file"}
	md = r.Markdown(10)
	assert.NotContains(t, md, "All DELETE_SAFE files were removed")
	assert.Contains(t, md, "- 0 of 1 DELETE_SAFE files were removed in this run. These were left in place:")
	assert.Contains(t, md, "  - logs/old.log: referenced by 1 other file")

	empty := New(ModeApply, nil, runTime).Markdown(10)
	assert.Contains(t, empty, "- There were no DELETE_SAFE files to remove.")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate(strings.Repeat("abcdefghij", 3), 10))
}

func TestWriteAndLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cleanup_reports")
	r := New(ModeAnalyze, sampleFiles(), runTime)

	jsonPath, mdPath, err := Write(dir, r, 0)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "cleanup_report_20260203_040506.json"), jsonPath)
	assert.Equal(t, filepath.Join(dir, "cleanup_report_20260203_040506.md"), mdPath)

	md, err := os.ReadFile(mdPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(md), "# Workspace Cleanup Report"))

	loaded, err := Load(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, r.Summary, loaded.Summary)
	assert.Len(t, loaded.Files, 3)

	later := New(ModeApply, nil, runTime.Add(time.Hour))
	_, _, err = Write(dir, later, 0)
	require.NoError(t, err)

	latest, err := Latest(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "cleanup_report_20260203_050506.json"), latest)
}

func TestLatest_Empty(t *testing.T) {
	_, err := Latest(t.TempDir())
	assert.Error(t, err)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
