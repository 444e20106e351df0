package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/blackwell-systems/workprune/internal/analyzer"
	"github.com/blackwell-systems/workprune/internal/report"
)

// Analyze walks the tree and decides every file. Files whose decision is
// REVIEW_REQUIRED are enriched with references. A failure on one file is
// recorded on that file and the run continues; only a failed walk or a
// cancelled ctx returns an error.
func (s *Scanner) Analyze(ctx context.Context) ([]*analyzer.FileAnalysis, error) {
	files, err := s.Walk()
	if err != nil {
		return nil, err
	}

	// Pick up files created since the last run.
	s.finder.Reset()

	for i, fa := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s.analyzeOne(fa)
		if s.progress != nil {
			s.progress(i+1, len(files))
		}
	}

	return files, nil
}

// Run analyzes the tree and wraps the result in a report for mode.
func (s *Scanner) Run(ctx context.Context, mode report.Mode) (*report.Report, error) {
	files, err := s.Analyze(ctx)
	if err != nil {
		return nil, err
	}
	return report.New(mode, files, s.now()), nil
}

// AnalyzeFile analyzes a single file, given relative to the root or as an
// absolute path inside it.
func (s *Scanner) AnalyzeFile(path string) (*analyzer.FileAnalysis, error) {
	rel, err := s.relative(path)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(filepath.Join(s.root, filepath.FromSlash(rel)))
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	fa := s.provisional(rel, info.Size(), info.ModTime())
	s.analyzeOne(fa)
	return fa, nil
}

// analyzeOne decides fa and, if it needs review, attaches references. A
// panic is turned into a REVIEW_REQUIRED analysis explaining the failure.
func (s *Scanner) analyzeOne(fa *analyzer.FileAnalysis) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("analysis failed", "path", fa.Path, "err", r)
			fa.Decision = analyzer.ReviewRequired
			fa.Confidence = 0
			fa.AddReason(fmt.Sprintf("Analysis failed: %v", r))
			fa.RiskAssessment = "Unknown: analysis did not complete"
			fa.RecommendedAction = "Review manually"
		}
	}()

	s.engine.Decide(fa)
	if fa.Decision != analyzer.ReviewRequired {
		return
	}

	analyzer.EnrichWithReferences(fa, s.finder.Find(fa.Path))
}

func (s *Scanner) relative(path string) (string, error) {
	if !filepath.IsAbs(path) {
		rel := filepath.ToSlash(filepath.Clean(path))
		if rel == "." || strings.HasPrefix(rel, "../") || rel == ".." {
			return "", fmt.Errorf("%s is outside %s", path, s.root)
		}
		return rel, nil
	}
	rel, err := filepath.Rel(s.root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%s is outside %s", path, s.root)
	}
	return filepath.ToSlash(rel), nil
}
