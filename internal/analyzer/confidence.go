package analyzer

import (
	"fmt"
	"path/filepath"

	"github.com/blackwell-systems/workprune/internal/classifier"
)

// Confidence is a fixed lookup per decision rule, not an estimate.
const (
	ConfidenceCertain    = 1.0
	ConfidenceAged       = 0.98
	ConfidenceGenerated  = 0.75
	ConfidenceExperiment = 0.70
	ConfidenceFallback   = 0.60
	ConfidenceUnknown    = 0.5
)

// SentinelAgeDays is the age assumed for a file whose modification time
// cannot be read, typically because it vanished after the scan.
const SentinelAgeDays = 99999

// Decide runs fa through the decision rules in priority order and records
// the outcome on fa. The first rule that applies wins:
//
//  1. protected path                      KEEP_REQUIRED    1.0
//  2. required artifact                   KEEP_REQUIRED    1.0
//  3. SOURCE_CODE, CONFIG                 KEEP_REQUIRED    1.0
//  4. TEMP_FILE, LOG_FILE, INTERMEDIATE   DELETE_SAFE 0.98 once old enough,
//     otherwise KEEP_REQUIRED 1.0
//  5. UNKNOWN                             REVIEW_REQUIRED  0.5
//  6. GENERATED_OUTPUT                    REVIEW_REQUIRED  0.75
//  7. EXPERIMENT                          REVIEW_REQUIRED  0.70
//  8. anything else                       REVIEW_REQUIRED  0.60
//
// Reasoning is appended to whatever fa already carries.
func (e *Engine) Decide(fa *FileAnalysis) *FileAnalysis {
	if entry, ok := e.cfg.ProtectedBy(fa.Path); ok {
		fa.AddReason(fmt.Sprintf("Path matches protected entry %q", entry))
		e.set(fa, KeepRequired, ConfidenceCertain,
			"None: protected paths are never deleted",
			"Keep")
		return fa
	}

	if e.cfg.IsRequiredArtifact(fa.Path) {
		fa.AddReason(fmt.Sprintf("%s is a required project artifact", filepath.Base(fa.Path)))
		e.set(fa, KeepRequired, ConfidenceCertain,
			"High if removed: the project expects this file",
			"Keep")
		return fa
	}

	switch fa.Category {
	case classifier.SourceCode, classifier.Config:
		fa.AddReason(fmt.Sprintf("Category %s is always kept", fa.Category))
		e.set(fa, KeepRequired, ConfidenceCertain,
			"High if removed: code and configuration define the project",
			"Keep")

	case classifier.TempFile, classifier.LogFile, classifier.IntermediateArtifact:
		e.decideByAge(fa)

	case classifier.Unknown:
		fa.AddReason("No header and no pattern rule identifies this file")
		e.set(fa, ReviewRequired, ConfidenceUnknown,
			"Unknown: cannot determine the file's purpose or what depends on it",
			"Review manually; add a header declaring Purpose and Category")

	case classifier.GeneratedOutput:
		fa.AddReason("Generated output can usually be rebuilt")
		e.set(fa, ReviewRequired, ConfidenceGenerated,
			"Medium: regenerating it depends on the generator still existing and working",
			"Review: confirm the generator can reproduce it before deleting")

	case classifier.Experiment:
		fa.AddReason("Looks like an experiment or scratch file")
		e.set(fa, ReviewRequired, ConfidenceExperiment,
			"Medium: may be referenced from history, notes or documentation",
			"Review: archive results worth keeping, then delete")

	default:
		fa.AddReason(fmt.Sprintf("Category %s has no automatic rule", fa.Category))
		e.set(fa, ReviewRequired, ConfidenceFallback,
			"Unclear whether the file is still needed",
			"Review manually")
	}

	return fa
}

// decideByAge handles the age-gated categories.
func (e *Engine) decideByAge(fa *FileAnalysis) {
	threshold := e.cfg.AgeThresholdDays
	age, ok := e.ageDays(fa)
	if !ok {
		fa.AddReason("Modification time unavailable; file treated as expired")
	}

	if age >= threshold {
		fa.AddReason(fmt.Sprintf("%s is %d days old (threshold %d days)", fa.Category, age, threshold))
		e.set(fa, DeleteSafe, ConfidenceAged,
			fmt.Sprintf("Low: %s past its retention threshold", categoryNoun(fa.Category)),
			"Safe to delete")
		return
	}

	wait := threshold - age
	fa.AddReason(fmt.Sprintf("%s is only %d days old (threshold %d days); eligible for deletion in %d %s",
		fa.Category, age, threshold, wait, plural(wait, "day", "days")))
	e.set(fa, KeepRequired, ConfidenceCertain,
		"None: still within its retention window",
		fmt.Sprintf("Keep for now; re-evaluate in %d %s", wait, plural(wait, "day", "days")))
}

// ageDays returns whole days since fa was last modified. The boolean is
// false when the file could not be stat'ed and SentinelAgeDays was used.
func (e *Engine) ageDays(fa *FileAnalysis) (int, bool) {
	info, err := e.stat(filepath.Join(e.root, filepath.FromSlash(fa.Path)))
	if err != nil {
		return SentinelAgeDays, false
	}
	fa.LastModified = info.ModTime()

	days := int(e.now().Sub(info.ModTime()).Hours() / 24)
	if days < 0 {
		days = 0
	}
	return days, true
}

func (e *Engine) set(fa *FileAnalysis, d DecisionType, confidence float64, risk, action string) {
	fa.Decision = d
	fa.Confidence = confidence
	fa.RiskAssessment = risk
	fa.RecommendedAction = action
}

func categoryNoun(c classifier.Category) string {
	switch c {
	case classifier.TempFile:
		return "temporary file"
	case classifier.LogFile:
		return "log file"
	case classifier.IntermediateArtifact:
		return "intermediate artifact"
	}
	return "file"
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
