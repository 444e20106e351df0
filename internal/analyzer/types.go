package analyzer

import (
	"time"

	"github.com/blackwell-systems/workprune/internal/classifier"
	"github.com/blackwell-systems/workprune/internal/header"
	"github.com/blackwell-systems/workprune/internal/references"
)

// DecisionType is the retention outcome for a file.
type DecisionType string

const (
	DeleteSafe     DecisionType = "DELETE_SAFE"
	KeepRequired   DecisionType = "KEEP_REQUIRED"
	ReviewRequired DecisionType = "REVIEW_REQUIRED"
)

// AllDecisions lists every decision in report order.
var AllDecisions = []DecisionType{DeleteSafe, KeepRequired, ReviewRequired}

// FileAnalysis is everything known about one scanned file.
type FileAnalysis struct {
	Path         string // slash-separated, relative to the scan root
	Category     classifier.Category
	LastModified time.Time
	SizeBytes    int64

	Decision          DecisionType
	Confidence        float64  // 0.0-1.0, fixed per decision rule
	Reasoning         []string // append-only, see AddReason
	RiskAssessment    string
	RecommendedAction string
	References        []references.Reference

	// Header-declared metadata
	Purpose          string
	ExpectedLifetime string
	Created          string
	LastUpdated      string
}

// NewFileAnalysis returns a provisional analysis for a freshly scanned file.
// Its decision stays REVIEW_REQUIRED with zero confidence until an Engine
// decides it.
func NewFileAnalysis(path string, size int64, modified time.Time, meta header.Metadata) *FileAnalysis {
	return &FileAnalysis{
		Path:             path,
		Category:         classifier.Unknown,
		LastModified:     modified,
		SizeBytes:        size,
		Decision:         ReviewRequired,
		Purpose:          meta.Purpose,
		ExpectedLifetime: meta.Lifetime,
		Created:          meta.Created,
		LastUpdated:      meta.LastUpdated,
	}
}

// AddReason appends a line to the reasoning trail.
func (fa *FileAnalysis) AddReason(reason string) {
	fa.Reasoning = append(fa.Reasoning, reason)
}

// Metadata returns the header fields carried by the analysis.
func (fa *FileAnalysis) Metadata() header.Metadata {
	return header.Metadata{
		Purpose:     fa.Purpose,
		Lifetime:    fa.ExpectedLifetime,
		Category:    string(fa.Category),
		Created:     fa.Created,
		LastUpdated: fa.LastUpdated,
	}
}

// Recommendation is the set of files an apply run would delete.
type Recommendation struct {
	Files     []*FileAnalysis // largest first
	TotalSize int64
}
