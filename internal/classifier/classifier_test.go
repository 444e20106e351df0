package classifier

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/workprune/internal/header"
)

func TestClassifyWithHeader_PatternRules(t *testing.T) {
	tests := []struct {
		path string
		want Category
	}{
		{".gitignore", Config},
		{"sub/.DS_Store", TempFile},
		{"requirements.txt", Config},
		{"requirements-ci.txt", Config},
		{"go.mod", Config},
		{"run_pipeline.bat", Prompt},
		{"scripts/deploy.sh", Prompt},
		{".env", Config},
		{"src/main.py", SourceCode},
		{"pkg/server.go", SourceCode},
		{"NOTES.md", SourceCode},
		{"settings.yaml", Config},
		{"Makefile", Config},
		{"prompts/summarize.txt", Prompt},
		{"extract_prompt.txt", Prompt},
		{"input/customers.csv", InputData},
		{"papers/attention.pdf", InputData},
		{"data/intermediate/scratch.bin", IntermediateArtifact},
		{"tmp/chunk_0001.dat", IntermediateArtifact},
		{"output/chart.png", GeneratedOutput},
		{"__pycache__/mod.cpython-312.pyc", GeneratedOutput},
		{"coverage/lcov.info", GeneratedOutput},
		{"run.log", LogFile},
		{"logs/2026-01-01.txt", LogFile},
		{"cache.tmp", TempFile},
		{"draft.docx~", TempFile},
		{"results.bak", TempFile},
		{"old_results.csv", Experiment},
		{"demo-data.csv", Experiment},
		{"scratch2.dat", Experiment},
		{"docs/guide.md", SourceCode},
		{"docs/changelog.txt", SourceCode},
		{"mystery.xyz", Unknown},
		{"notes.txt", Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyWithHeader(tt.path, header.Metadata{}))
		})
	}
}

func TestClassifyWithHeader_HeaderShortCircuits(t *testing.T) {
	// main.go would otherwise match the source-code rule.
	got := ClassifyWithHeader("main.go", header.Metadata{Category: "CONFIG"})
	assert.Equal(t, Config, got)

	cat, rule := Explain("main.go", header.Metadata{Category: "config"})
	assert.Equal(t, Config, cat)
	assert.Equal(t, "header", rule)
}

func TestClassifyWithHeader_InvalidHeaderCategoryFallsThrough(t *testing.T) {
	got := ClassifyWithHeader("main.go", header.Metadata{Category: "TOOLS"})
	assert.Equal(t, SourceCode, got)
}

func TestClassify_ReadsHeaderFromDisk(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "pkg", "main.go")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("// Category: CONFIG\npackage main\n"), 0644))

	c := New(root, nil)

	assert.Equal(t, Config, c.Classify("pkg/main.go"))
	// Idempotent on an unchanged file.
	assert.Equal(t, Config, c.Classify("pkg/main.go"))
}

func TestClassify_UsesInjectedHeaderReader(t *testing.T) {
	var seen string
	c := New("/root", func(path string) header.Metadata {
		seen = path
		return header.Metadata{Category: "EXPERIMENT"}
	})

	assert.Equal(t, Experiment, c.Classify("src/app.py"))
	assert.Equal(t, filepath.Join("/root", "src", "app.py"), seen)
}

func TestClassify_AlwaysReturnsValidCategory(t *testing.T) {
	paths := []string{"", ".", "a", "a/b/c", "weird..name", "UPPER/CASE.PY", "x/y/z.unknownext"}
	for _, p := range paths {
		assert.True(t, ClassifyWithHeader(p, header.Metadata{}).Valid(), "path %q", p)
	}
}

func TestRules_OrderIsStable(t *testing.T) {
	var names []string
	for _, r := range Rules() {
		names = append(names, r.Name)
	}

	assert.Equal(t, []string{
		"vcs-dotfile", "os-junk", "requirement-manifest", "runner-script", "dotfile",
		"source-code", "config", "prompt", "input-data", "intermediate-artifact",
		"generated-output", "log-file", "temp-file", "experiment", "documentation",
	}, names)
}

func TestRules_FirstMatchWins(t *testing.T) {
	// Matches both the input-data rule (input/) and log-file rule (.log);
	// input-data comes first.
	assert.Equal(t, InputData, ClassifyWithHeader("input/run.log", header.Metadata{}))
	// Matches both intermediate (tmp/) and temp-file (.tmp).
	assert.Equal(t, IntermediateArtifact, ClassifyWithHeader("tmp/x.tmp", header.Metadata{}))
}

func TestParseCategory(t *testing.T) {
	c, ok := ParseCategory("  log_file ")
	assert.True(t, ok)
	assert.Equal(t, LogFile, c)

	_, ok = ParseCategory("DOCUMENTATION")
	assert.False(t, ok)
	assert.Len(t, AllCategories, 10)
}
