// Package output provides terminal output utilities for workprune.
//
// This package includes:
//   - Table rendering for file decisions, runs, and snapshots
//   - A detailed explanation view for a single file
//   - Progress bars and spinners for long-running operations
//
// Tables use plain characters and ANSI color codes. Color is only emitted
// when stdout is a terminal and NO_COLOR is unset.
package output

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/blackwell-systems/workprune/internal/analyzer"
	"github.com/blackwell-systems/workprune/internal/references"
	"github.com/blackwell-systems/workprune/internal/report"
	"github.com/blackwell-systems/workprune/internal/store"
)

// ANSI color codes for decision display
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorGray   = "\033[90m"
)

// IsColorEnabled returns true if ANSI color codes should be emitted.
// It checks that os.Stdout is a TTY and that the NO_COLOR env var is not set.
func IsColorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

// colorize wraps text in the given ANSI color code if color is enabled,
// otherwise returns the plain text.
func colorize(color, text string) string {
	if IsColorEnabled() {
		return color + text + colorReset
	}
	return text
}

// decisionRank orders decisions in tables: actionable first.
var decisionRank = map[analyzer.DecisionType]int{
	analyzer.DeleteSafe:     0,
	analyzer.ReviewRequired: 1,
	analyzer.KeepRequired:   2,
}

// RenderFileTable renders one row per analyzed file, grouped by decision
// and sorted by path within a group.
func RenderFileTable(files []*analyzer.FileAnalysis) string {
	if len(files) == 0 {
		return "No files found.\n"
	}

	sorted := make([]*analyzer.FileAnalysis, len(files))
	copy(sorted, files)
	sort.SliceStable(sorted, func(i, j int) bool {
		ri, rj := decisionRank[sorted[i].Decision], decisionRank[sorted[j].Decision]
		if ri != rj {
			return ri < rj
		}
		return sorted[i].Path < sorted[j].Path
	})

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%-40s %-9s %-14s %-18s %-5s %s\n",
		"Path", "Size", "Modified", "Category", "Conf", "Decision"))
	sb.WriteString(strings.Repeat("─", 104))
	sb.WriteString("\n")

	for _, fa := range sorted {
		label := colorize(decisionColor(fa.Decision), formatDecisionLabel(fa.Decision))
		sb.WriteString(fmt.Sprintf("%-40s %-9s %-14s %-18s %-5s %s\n",
			truncatePath(fa.Path, 40),
			formatSize(fa.SizeBytes),
			formatRelativeTime(fa.LastModified),
			fa.Category,
			formatConfidence(fa.Confidence),
			label))
	}

	return sb.String()
}

// formatDecisionLabel returns the display label for a decision.
func formatDecisionLabel(d analyzer.DecisionType) string {
	switch d {
	case analyzer.DeleteSafe:
		return "✓ delete"
	case analyzer.KeepRequired:
		return "keep"
	default:
		return "~ review"
	}
}

// decisionColor returns the ANSI color code for a decision.
func decisionColor(d analyzer.DecisionType) string {
	switch d {
	case analyzer.DeleteSafe:
		return colorGreen
	case analyzer.ReviewRequired:
		return colorYellow
	case analyzer.KeepRequired:
		return colorGray
	default:
		return colorRed
	}
}

// RenderExplanation renders the full reasoning behind one file's decision.
func RenderExplanation(fa *analyzer.FileAnalysis) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("File:       %s\n", fa.Path))
	sb.WriteString(fmt.Sprintf("Category:   %s\n", fa.Category))
	sb.WriteString(fmt.Sprintf("Decision:   %s (%s confidence)\n",
		colorize(decisionColor(fa.Decision), string(fa.Decision)), formatConfidence(fa.Confidence)))
	sb.WriteString(fmt.Sprintf("Size:       %s\n", formatSize(fa.SizeBytes)))
	if !fa.LastModified.IsZero() {
		sb.WriteString(fmt.Sprintf("Modified:   %s (%s)\n",
			fa.LastModified.Format("2006-01-02 15:04"), formatRelativeTime(fa.LastModified)))
	}

	if fa.Purpose != "" || fa.ExpectedLifetime != "" || fa.Created != "" || fa.LastUpdated != "" {
		sb.WriteString("\nHeader:\n")
		writeField(&sb, "Purpose", fa.Purpose)
		writeField(&sb, "Lifetime", fa.ExpectedLifetime)
		writeField(&sb, "Created", fa.Created)
		writeField(&sb, "Updated", fa.LastUpdated)
	}

	sb.WriteString("\nReasoning:\n")
	for i, reason := range fa.Reasoning {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, reason))
	}

	sb.WriteString("\nRisk:   " + fa.RiskAssessment + "\n")
	sb.WriteString("Action: " + fa.RecommendedAction + "\n")

	if len(fa.References) > 0 {
		direct, indirect := references.Stats(fa.References)
		sb.WriteString(fmt.Sprintf("\nReferences (%d direct, %d indirect):\n", direct, indirect))
		for _, ref := range fa.References {
			kind := string(ref.Type)
			if ref.IsIndirect {
				kind += ", indirect"
			}
			sb.WriteString(fmt.Sprintf("  %s:%d [%s]\n", ref.File, ref.Line, kind))
		}
	}

	return sb.String()
}

func writeField(sb *strings.Builder, name, value string) {
	if value == "" {
		return
	}
	sb.WriteString(fmt.Sprintf("  %-9s %s\n", name+":", value))
}

// RenderDecisionSummary renders a one-line decision breakdown.
// Format: "DELETE_SAFE: 5 files (43 MiB) · REVIEW_REQUIRED: 19 · KEEP_REQUIRED: 143"
func RenderDecisionSummary(s report.Summary, reclaimable int64) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s: %d files (%s)",
		colorize(colorGreen, string(analyzer.DeleteSafe)), s.DeleteSafe, formatSize(reclaimable)))
	sb.WriteString(" · ")
	sb.WriteString(fmt.Sprintf("%s: %d",
		colorize(colorYellow, string(analyzer.ReviewRequired)), s.ReviewRequired))
	sb.WriteString(" · ")
	sb.WriteString(fmt.Sprintf("%s: %d",
		colorize(colorGray, string(analyzer.KeepRequired)), s.KeepRequired))

	return sb.String()
}

// RenderRunTable renders a table of recorded runs.
func RenderRunTable(runs []*store.Run) string {
	if len(runs) == 0 {
		return "No runs recorded.\n"
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%-5s %-16s %-8s %-14s %6s %6s %6s %6s\n",
		"ID", "Run", "Mode", "When", "Files", "Delete", "Review", "Keep"))
	sb.WriteString(strings.Repeat("─", 76))
	sb.WriteString("\n")

	for _, run := range runs {
		sb.WriteString(fmt.Sprintf("%-5d %-16s %-8s %-14s %6d %6d %6d %6d\n",
			run.ID,
			run.RunID,
			run.Mode,
			formatRelativeTime(run.CreatedAt),
			run.TotalFiles,
			run.DeleteSafe,
			run.ReviewRequired,
			run.KeepRequired))
	}

	return sb.String()
}

// RenderSnapshotTable renders a table of snapshots, newest first.
func RenderSnapshotTable(snapshots []*store.Snapshot) string {
	if len(snapshots) == 0 {
		return "No snapshots found.\n"
	}

	sorted := make([]*store.Snapshot, len(snapshots))
	copy(sorted, snapshots)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%-5s %-17s %-6s %-10s %s\n",
		"ID", "Created", "Files", "Restored", "Reason"))
	sb.WriteString(strings.Repeat("─", 80))
	sb.WriteString("\n")

	for _, snap := range sorted {
		restored := "no"
		if snap.RestoredAt != nil {
			restored = "yes"
		}

		sb.WriteString(fmt.Sprintf("%-5d %-17s %-6d %-10s %s\n",
			snap.ID,
			formatRelativeTime(snap.CreatedAt),
			snap.FileCount,
			restored,
			truncate(snap.Reason, 40)))
	}

	return sb.String()
}

// formatSize converts bytes to a human-readable IEC size.
func formatSize(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	return humanize.IBytes(uint64(bytes))
}

// formatRelativeTime converts a timestamp to relative time (e.g., "2 days ago").
func formatRelativeTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.Time(t)
}

func formatConfidence(c float64) string {
	return fmt.Sprintf("%.0f%%", c*100)
}

// truncate truncates a string to maxLen runes, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

// truncatePath keeps the end of a path, which carries the file name. The
// cut moves forward to the next separator in the kept tail so no path
// segment is shown partially; a tail without a separator is kept as is.
func truncatePath(p string, maxLen int) string {
	r := []rune(p)
	if len(r) <= maxLen {
		return p
	}
	if maxLen <= 3 {
		return string(r[len(r)-maxLen:])
	}
	tail := string(r[len(r)-(maxLen-3):])
	if i := strings.IndexByte(tail, '/'); i > 0 {
		tail = tail[i:]
	}
	return "..." + tail
}
