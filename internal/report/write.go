package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Paths returns the JSON and Markdown file paths for run id in dir.
func Paths(dir, runID string) (jsonPath, mdPath string) {
	base := filepath.Join(dir, "cleanup_report_"+runID)
	return base + ".json", base + ".md"
}

// Write saves r to dir as cleanup_report_<run_id>.json and .md.
func Write(dir string, r *Report, topN int) (jsonPath, mdPath string, err error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", "", fmt.Errorf("failed to create report directory: %w", err)
	}

	jsonPath, mdPath = Paths(dir, r.RunID)

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(jsonPath, data, 0644); err != nil {
		return "", "", fmt.Errorf("failed to write report: %w", err)
	}

	if err := os.WriteFile(mdPath, []byte(r.Markdown(topN)), 0644); err != nil {
		return "", "", fmt.Errorf("failed to write report: %w", err)
	}

	return jsonPath, mdPath, nil
}

// Latest returns the newest JSON report in dir, by run id.
func Latest(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "cleanup_report_*.json"))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no reports in %s", dir)
	}
	// Run ids sort chronologically, and Glob returns sorted names.
	return matches[len(matches)-1], nil
}
