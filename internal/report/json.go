package report

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/blackwell-systems/workprune/internal/analyzer"
	"github.com/blackwell-systems/workprune/internal/classifier"
	"github.com/blackwell-systems/workprune/internal/references"
)

type jsonReport struct {
	Metadata jsonMetadata `json:"metadata"`
	Files    []jsonFile   `json:"files"`
}

type jsonMetadata struct {
	RunID      string  `json:"run_id"`
	Mode       Mode    `json:"mode"`
	Timestamp  string  `json:"timestamp"`
	TotalFiles int     `json:"total_files"`
	Summary    Summary `json:"summary"`
}

type jsonFile struct {
	Path               string                 `json:"path"`
	Category           classifier.Category    `json:"category"`
	LastModified       string                 `json:"last_modified"`
	SizeBytes          int64                  `json:"size_bytes"`
	SizeKB             float64                `json:"size_kb"`
	Decision           analyzer.DecisionType  `json:"decision"`
	Confidence         float64                `json:"confidence"`
	Reasoning          []string               `json:"reasoning"`
	RiskAssessment     string                 `json:"risk_assessment"`
	RecommendedAction  string                 `json:"recommended_action"`
	References         []references.Reference `json:"references"`
	DirectReferences   int                    `json:"direct_references"`
	IndirectReferences int                    `json:"indirect_references"`
	Purpose            string                 `json:"purpose,omitempty"`
	ExpectedLifetime   string                 `json:"expected_lifetime,omitempty"`
	Created            string                 `json:"created,omitempty"`
	LastUpdated        string                 `json:"last_updated,omitempty"`
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// MarshalJSON renders the report as {"metadata": ..., "files": [...]}.
// Confidence and size_kb are rounded to two decimals.
func (r *Report) MarshalJSON() ([]byte, error) {
	out := jsonReport{
		Metadata: jsonMetadata{
			RunID:      r.RunID,
			Mode:       r.Mode,
			Timestamp:  r.Timestamp.Format(time.RFC3339),
			TotalFiles: r.TotalFiles(),
			Summary:    r.Summary,
		},
		Files: make([]jsonFile, 0, len(r.Files)),
	}

	for _, fa := range r.Files {
		direct, indirect := references.Stats(fa.References)
		refs := fa.References
		if refs == nil {
			refs = []references.Reference{}
		}
		reasoning := fa.Reasoning
		if reasoning == nil {
			reasoning = []string{}
		}

		var modified string
		if !fa.LastModified.IsZero() {
			modified = fa.LastModified.Format(time.RFC3339)
		}

		out.Files = append(out.Files, jsonFile{
			Path:               fa.Path,
			Category:           fa.Category,
			LastModified:       modified,
			SizeBytes:          fa.SizeBytes,
			SizeKB:             round2(float64(fa.SizeBytes) / 1024),
			Decision:           fa.Decision,
			Confidence:         round2(fa.Confidence),
			Reasoning:          reasoning,
			RiskAssessment:     fa.RiskAssessment,
			RecommendedAction:  fa.RecommendedAction,
			References:         refs,
			DirectReferences:   direct,
			IndirectReferences: indirect,
			Purpose:            fa.Purpose,
			ExpectedLifetime:   fa.ExpectedLifetime,
			Created:            fa.Created,
			LastUpdated:        fa.LastUpdated,
		})
	}

	return json.Marshal(out)
}

// UnmarshalJSON parses the form written by MarshalJSON. The summary is
// recomputed from the files.
func (r *Report) UnmarshalJSON(data []byte) error {
	var in jsonReport
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	ts, err := time.Parse(time.RFC3339, in.Metadata.Timestamp)
	if err != nil {
		return fmt.Errorf("invalid timestamp %q: %w", in.Metadata.Timestamp, err)
	}

	files := make([]*analyzer.FileAnalysis, 0, len(in.Files))
	for _, f := range in.Files {
		fa := &analyzer.FileAnalysis{
			Path:              f.Path,
			Category:          f.Category,
			SizeBytes:         f.SizeBytes,
			Decision:          f.Decision,
			Confidence:        f.Confidence,
			Reasoning:         f.Reasoning,
			RiskAssessment:    f.RiskAssessment,
			RecommendedAction: f.RecommendedAction,
			References:        f.References,
			Purpose:           f.Purpose,
			ExpectedLifetime:  f.ExpectedLifetime,
			Created:           f.Created,
			LastUpdated:       f.LastUpdated,
		}
		if len(fa.Reasoning) == 0 {
			fa.Reasoning = nil
		}
		if len(fa.References) == 0 {
			fa.References = nil
		}
		if f.SizeBytes == 0 && f.SizeKB > 0 {
			fa.SizeBytes = int64(math.Round(f.SizeKB * 1024))
		}
		if f.LastModified != "" {
			if fa.LastModified, err = time.Parse(time.RFC3339, f.LastModified); err != nil {
				return fmt.Errorf("invalid last_modified for %s: %w", f.Path, err)
			}
		}
		files = append(files, fa)
	}

	*r = Report{
		RunID:     in.Metadata.RunID,
		Mode:      in.Metadata.Mode,
		Timestamp: ts,
		Files:     files,
		Summary:   Summarize(files),
	}
	return nil
}

// Load reads a JSON report written by Write.
func Load(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}

	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse report %s: %w", path, err)
	}
	return &r, nil
}
