package report

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/blackwell-systems/workprune/internal/analyzer"
)

// DefaultTopN is how many files each Markdown section lists.
const DefaultTopN = 20

const (
	detailCount = 5
	riskWidth   = 60
)

// Markdown renders the narrative form of the report. Each decision section
// lists at most topN files, followed by a remainder count.
func (r *Report) Markdown(topN int) string {
	if topN <= 0 {
		topN = DefaultTopN
	}

	var b strings.Builder

	b.WriteString("# Workspace Cleanup Report\n\n")
	fmt.Fprintf(&b, "- **Run ID:** %s\n", r.RunID)
	fmt.Fprintf(&b, "- **Mode:** %s\n", r.Mode)
	fmt.Fprintf(&b, "- **Timestamp:** %s\n", r.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "- **Total files:** %d\n\n", r.TotalFiles())

	b.WriteString("## Summary\n\n")
	b.WriteString("| Decision | Count |\n")
	b.WriteString("|----------|------:|\n")
	for _, d := range analyzer.AllDecisions {
		fmt.Fprintf(&b, "| %s | %d |\n", d, r.Summary.Count(d))
	}
	b.WriteString("\n")

	r.writeDeleteSafe(&b, topN)
	r.writeReview(&b, topN)

	fmt.Fprintf(&b, "## KEEP_REQUIRED (%d)\n\n", r.Summary.KeepRequired)
	fmt.Fprintf(&b, "%d %s will be kept.\n\n", r.Summary.KeepRequired, fileWord(r.Summary.KeepRequired))

	b.WriteString("## Next Steps\n\n")
	switch r.Mode {
	case ModeApply:
		r.writeApplied(&b)
		b.WriteString("- Restore them with `workprune undo latest` if anything broke.\n")
		b.WriteString("- REVIEW_REQUIRED files were left untouched.\n")
	default:
		b.WriteString("- No files were changed by this run.\n")
		b.WriteString("- Review the REVIEW_REQUIRED files and add headers to the ones you keep.\n")
		b.WriteString("- Run `workprune apply` to delete the DELETE_SAFE files (a snapshot is taken first).\n")
	}

	return b.String()
}

func (r *Report) writeDeleteSafe(b *strings.Builder, topN int) {
	safe := r.ByDecision(analyzer.DeleteSafe)
	fmt.Fprintf(b, "## DELETE_SAFE (%d)\n\n", len(safe))
	if len(safe) == 0 {
		b.WriteString("Nothing to delete.\n\n")
		return
	}

	var total int64
	for _, fa := range safe {
		total += fa.SizeBytes
	}
	fmt.Fprintf(b, "Reclaimable: %s\n\n", humanize.IBytes(uint64(total)))

	for _, fa := range head(safe, topN) {
		fmt.Fprintf(b, "- `%s` (%s, %s)\n", fa.Path, humanize.IBytes(uint64(fa.SizeBytes)), fa.Category)
	}
	if extra := len(safe) - topN; extra > 0 {
		fmt.Fprintf(b, "- ... and %d more\n", extra)
	}
	b.WriteString("\n")
}

func (r *Report) writeReview(b *strings.Builder, topN int) {
	review := r.ByDecision(analyzer.ReviewRequired)
	fmt.Fprintf(b, "## REVIEW_REQUIRED (%d)\n\n", len(review))
	if len(review) == 0 {
		b.WriteString("Nothing needs review.\n\n")
		return
	}

	b.WriteString("| Path | Category | Confidence | Risk |\n")
	b.WriteString("|------|----------|-----------:|------|\n")
	for _, fa := range head(review, topN) {
		fmt.Fprintf(b, "| `%s` | %s | %.0f%% | %s |\n",
			fa.Path, fa.Category, fa.Confidence*100, cell(truncate(fa.RiskAssessment, riskWidth)))
	}
	if extra := len(review) - topN; extra > 0 {
		fmt.Fprintf(b, "\n... and %d more\n", extra)
	}
	b.WriteString("\n### Details\n\n")

	for _, fa := range head(review, detailCount) {
		fmt.Fprintf(b, "#### `%s`\n\n", fa.Path)
		fmt.Fprintf(b, "- **Category:** %s\n", fa.Category)
		fmt.Fprintf(b, "- **Size:** %s\n", humanize.IBytes(uint64(fa.SizeBytes)))
		fmt.Fprintf(b, "- **Confidence:** %.0f%%\n", fa.Confidence*100)
		fmt.Fprintf(b, "- **Risk:** %s\n", fa.RiskAssessment)
		fmt.Fprintf(b, "- **Action:** %s\n", fa.RecommendedAction)
		if len(fa.Reasoning) > 0 {
			fmt.Fprintf(b, "- **Reasoning:** %s\n", strings.Join(fa.Reasoning, "; "))
		}
		b.WriteString("\n")
	}
}

func (r *Report) writeApplied(b *strings.Builder) {
	removed := r.Summary.DeleteSafe - len(r.NotDeleted)
	switch {
	case r.Summary.DeleteSafe == 0:
		b.WriteString("- There were no DELETE_SAFE files to remove.\n")
	case len(r.NotDeleted) == 0:
		b.WriteString("- All DELETE_SAFE files were removed in this run.\n")
	default:
		fmt.Fprintf(b, "- %d of %d DELETE_SAFE files were removed in this run. These were left in place:\n",
			max(removed, 0), r.Summary.DeleteSafe)
		for _, n := range r.NotDeleted {
			fmt.Fprintf(b, "  - %s\n", n)
		}
	}
}

func head(files []*analyzer.FileAnalysis, n int) []*analyzer.FileAnalysis {
	if len(files) > n {
		return files[:n]
	}
	return files
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-3]) + "..."
}

// cell escapes s for use inside a Markdown table cell.
func cell(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "|", `\|`), "\n", " ")
}

func fileWord(n int) string {
	if n == 1 {
		return "file"
	}
	return "files"
}
