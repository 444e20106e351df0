// Package report assembles per-file analyses into a cleanup run report and
// serializes it as JSON (lossless, machine-readable) and Markdown (for
// people).
package report

import (
	"time"

	"github.com/blackwell-systems/workprune/internal/analyzer"
)

// Mode says whether a run only analyzed or also deleted.
type Mode string

const (
	ModeAnalyze Mode = "analyze"
	ModeApply   Mode = "apply"
)

// RunIDLayout formats the timestamp-derived run identifier.
const RunIDLayout = "20060102_150405"

// Summary counts files per decision.
type Summary struct {
	DeleteSafe     int `json:"delete_safe"`
	KeepRequired   int `json:"keep_required"`
	ReviewRequired int `json:"review_required"`
}

// Total returns the number of files counted.
func (s Summary) Total() int {
	return s.DeleteSafe + s.KeepRequired + s.ReviewRequired
}

// Count returns the count for one decision.
func (s Summary) Count(d analyzer.DecisionType) int {
	switch d {
	case analyzer.DeleteSafe:
		return s.DeleteSafe
	case analyzer.KeepRequired:
		return s.KeepRequired
	}
	return s.ReviewRequired
}

// Summarize counts files per decision. A file with no recognised decision
// is counted as needing review, so the counts always add up to len(files).
func Summarize(files []*analyzer.FileAnalysis) Summary {
	var s Summary
	for _, fa := range files {
		switch fa.Decision {
		case analyzer.DeleteSafe:
			s.DeleteSafe++
		case analyzer.KeepRequired:
			s.KeepRequired++
		default:
			s.ReviewRequired++
		}
	}
	return s
}

// Report is one cleanup run. It is built once by New; an apply run fills
// in NotDeleted before the report is written.
type Report struct {
	RunID     string
	Mode      Mode
	Timestamp time.Time
	Files     []*analyzer.FileAnalysis
	Summary   Summary

	// NotDeleted holds one "path: reason" line per DELETE_SAFE file that
	// an apply run skipped or failed to remove.
	NotDeleted []string
}

// New builds a report for files analyzed at now.
func New(mode Mode, files []*analyzer.FileAnalysis, now time.Time) *Report {
	if files == nil {
		files = []*analyzer.FileAnalysis{}
	}
	return &Report{
		RunID:     now.Format(RunIDLayout),
		Mode:      mode,
		Timestamp: now,
		Files:     files,
		Summary:   Summarize(files),
	}
}

// TotalFiles returns the number of files in the report.
func (r *Report) TotalFiles() int {
	return len(r.Files)
}

// ByDecision returns the files with decision d in report order.
func (r *Report) ByDecision(d analyzer.DecisionType) []*analyzer.FileAnalysis {
	var out []*analyzer.FileAnalysis
	for _, fa := range r.Files {
		if fa.Decision == d || (d == analyzer.ReviewRequired && !known(fa.Decision)) {
			out = append(out, fa)
		}
	}
	return out
}

// Find returns the analysis for path, if present.
func (r *Report) Find(path string) (*analyzer.FileAnalysis, bool) {
	for _, fa := range r.Files {
		if fa.Path == path {
			return fa, true
		}
	}
	return nil, false
}

func known(d analyzer.DecisionType) bool {
	for _, k := range analyzer.AllDecisions {
		if d == k {
			return true
		}
	}
	return false
}
