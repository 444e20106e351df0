package analyzer

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/blackwell-systems/workprune/internal/references"
)

// maxListedReferrers caps how many referencing files a recommended action names.
const maxListedReferrers = 5

// ErrSizeCapExceeded is returned when a deletion set is larger than
// max_delete_size_mb allows.
var ErrSizeCapExceeded = errors.New("deletion exceeds size cap")

// EnrichWithReferences attaches refs to fa and records a summary line in
// the reasoning trail. When references exist the recommended action is
// rewritten to name the referencing files. Decision and confidence are
// left alone.
func EnrichWithReferences(fa *FileAnalysis, refs []references.Reference) {
	fa.References = append(fa.References, refs...)

	if len(refs) == 0 {
		fa.AddReason("No references found in other files")
		return
	}

	direct, indirect := references.Stats(refs)
	fa.AddReason(fmt.Sprintf("Found %d %s (%d direct + %d indirect)",
		len(refs), plural(len(refs), "reference", "references"), direct, indirect))

	files := references.Files(refs)
	listed := files
	if len(listed) > maxListedReferrers {
		listed = listed[:maxListedReferrers]
	}
	action := "Check references before deleting: " + strings.Join(listed, ", ")
	if extra := len(files) - len(listed); extra > 0 {
		action += fmt.Sprintf(", and %d more", extra)
	}
	fa.RecommendedAction = action
}

// Recommend returns the DELETE_SAFE files, largest first.
func Recommend(files []*FileAnalysis) *Recommendation {
	rec := &Recommendation{Files: []*FileAnalysis{}}
	for _, fa := range files {
		if fa.Decision != DeleteSafe {
			continue
		}
		rec.Files = append(rec.Files, fa)
		rec.TotalSize += fa.SizeBytes
	}

	sort.SliceStable(rec.Files, func(i, j int) bool {
		return rec.Files[i].SizeBytes > rec.Files[j].SizeBytes
	})

	return rec
}

// CheckSizeCap returns ErrSizeCapExceeded if rec is larger than the
// configured max_delete_size_mb.
func (e *Engine) CheckSizeCap(rec *Recommendation) error {
	limit := e.cfg.MaxDeleteBytes()
	if rec.TotalSize > limit {
		return fmt.Errorf("%w: %s selected, limit %s",
			ErrSizeCapExceeded, humanize.IBytes(uint64(rec.TotalSize)), humanize.IBytes(uint64(limit)))
	}
	return nil
}

// ValidateDeletion returns warnings for files that should not be deleted
// as-is. It never changes the analyses.
func (e *Engine) ValidateDeletion(files []*FileAnalysis) []string {
	var warnings []string

	for _, fa := range files {
		if fa.Decision != DeleteSafe {
			warnings = append(warnings,
				fmt.Sprintf("%s: decision is %s, not %s", fa.Path, fa.Decision, DeleteSafe))
			continue
		}

		if fa.Confidence < e.cfg.ConfidenceThreshold {
			warnings = append(warnings,
				fmt.Sprintf("%s: confidence %.2f is below threshold %.2f",
					fa.Path, fa.Confidence, e.cfg.ConfidenceThreshold))
		}

		if len(fa.References) > 0 {
			n := len(references.Files(fa.References))
			warnings = append(warnings,
				fmt.Sprintf("%s: referenced by %d other %s", fa.Path, n, plural(n, "file", "files")))
		}

		if strings.EqualFold(fa.ExpectedLifetime, "permanent") {
			warnings = append(warnings,
				fmt.Sprintf("%s: header declares a permanent lifetime", fa.Path))
		}
	}

	return warnings
}
