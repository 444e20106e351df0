package header

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRead_AllFields(t *testing.T) {
	path := writeFile(t, t.TempDir(), "export.py", `#!/usr/bin/env python3
# Purpose: nightly export of billing tables
# Expected Lifetime: temporary
# Category: generated_output
# Created: 2026-01-01
# Last Updated: 2026-02-14
import csv
`)

	m := Read(path)

	assert.Equal(t, "nightly export of billing tables", m.Purpose)
	assert.Equal(t, "temporary", m.Lifetime)
	assert.Equal(t, "GENERATED_OUTPUT", m.Category)
	assert.Equal(t, "2026-01-01", m.Created)
	assert.Equal(t, "2026-02-14", m.LastUpdated)
}

func TestRead_CaseInsensitiveLabels(t *testing.T) {
	path := writeFile(t, t.TempDir(), "notes.txt", "PURPOSE: scratch notes\nexpected_lifetime: permanent\nLAST-UPDATED: 2025-12-31\n")

	m := Read(path)

	assert.Equal(t, "scratch notes", m.Purpose)
	assert.Equal(t, "permanent", m.Lifetime)
	assert.Equal(t, "2025-12-31", m.LastUpdated)
	assert.Empty(t, m.Category)
	assert.Empty(t, m.Created)
}

func TestRead_IgnoresFieldsPastLimit(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < MaxHeaderLines; i++ {
		sb.WriteString("x = 1\n")
	}
	sb.WriteString("# Purpose: too late\n")
	path := writeFile(t, t.TempDir(), "late.py", sb.String())

	assert.True(t, Read(path).Empty())
}

func TestRead_MarkerBlockWinsOverEarlierKeys(t *testing.T) {
	content := "---\ncategory: blog\npurpose: front matter\n---\n" +
		"<!-- workprune:header\nPurpose: site settings\nCategory: CONFIG\nworkprune:end -->\n" +
		"body\n"
	path := writeFile(t, t.TempDir(), "post.md", content)

	m := Read(path)
	assert.Equal(t, "CONFIG", m.Category)
	assert.Equal(t, "site settings", m.Purpose)
	assert.Empty(t, m.Lifetime)
}

func TestRead_LooseFieldsWithoutBlock(t *testing.T) {
	path := writeFile(t, t.TempDir(), "notes.yaml", "category: experiment\npurpose: tuning runs\n")

	m := Read(path)
	assert.Equal(t, "EXPERIMENT", m.Category)
	assert.Equal(t, "tuning runs", m.Purpose)
}

func TestRead_BinaryAndMissingFilesAreEmpty(t *testing.T) {
	dir := t.TempDir()
	bin := writeFile(t, dir, "blob.bin", "Purpose: hidden\x00\x01\x02")

	assert.True(t, Read(bin).Empty())
	assert.True(t, Read(filepath.Join(dir, "does-not-exist.py")).Empty())
}

func TestWriteRead_RoundTrip(t *testing.T) {
	want := Metadata{
		Purpose:  "X",
		Lifetime: "permanent",
		Category: "SOURCE_CODE",
		Created:  "2026-01-01",
	}

	for _, name := range []string{"tool.py", "main.go", "README.md", "query.sql", "run.bat"} {
		t.Run(name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), name, "body line\n")

			require.NoError(t, Write(path, want))
			got := Read(path)

			assert.Equal(t, want, got)

			content, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.True(t, strings.HasSuffix(string(content), "body line\n"), "original content must be preserved")
		})
	}
}

func TestWrite_ReplacesExistingBlock(t *testing.T) {
	path := writeFile(t, t.TempDir(), "job.py", "print('hi')\n")

	require.NoError(t, Write(path, Metadata{Purpose: "first", Lifetime: "temporary", Created: "2026-01-01"}))
	require.NoError(t, Write(path, Metadata{Purpose: "second", Lifetime: "permanent", Created: "2026-01-01", LastUpdated: "2026-03-01"}))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(content), beginMarker), "exactly one header block")
	assert.NotContains(t, string(content), "first")

	got := Read(path)
	assert.Equal(t, "second", got.Purpose)
	assert.Equal(t, "permanent", got.Lifetime)
	assert.Equal(t, "2026-03-01", got.LastUpdated)
}

func TestWrite_KeepsShebangFirst(t *testing.T) {
	path := writeFile(t, t.TempDir(), "run.sh", "#!/bin/sh\necho hi\n")

	require.NoError(t, Write(path, Metadata{Purpose: "runner"}))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(string(content), "\n")
	assert.Equal(t, "#!/bin/sh", lines[0])
	assert.Equal(t, "# "+beginMarker, lines[1])
	assert.Equal(t, "runner", Read(path).Purpose)
}

func TestWrite_PreservesMode(t *testing.T) {
	path := writeFile(t, t.TempDir(), "run.sh", "echo hi\n")
	require.NoError(t, os.Chmod(path, 0755))

	require.NoError(t, Write(path, Metadata{Purpose: "runner"}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0755), info.Mode().Perm())
}

func TestWrite_UnsupportedFormat(t *testing.T) {
	path := writeFile(t, t.TempDir(), "data.json", "{}")

	err := Write(path, Metadata{Purpose: "x"})

	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.False(t, Supported(path))
}

func TestStamp(t *testing.T) {
	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

	fresh := Stamp(Metadata{Purpose: "p"}, now)
	assert.Equal(t, "2026-10-19", fresh.Created)
	assert.Equal(t, "2026-10-19", fresh.LastUpdated)

	existing := Stamp(Metadata{Created: "2025-01-01"}, now)
	assert.Equal(t, "2025-01-01", existing.Created)
	assert.Equal(t, "2026-10-19", existing.LastUpdated)
}
