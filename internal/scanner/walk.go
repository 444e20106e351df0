package scanner

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/blackwell-systems/workprune/internal/analyzer"
	"github.com/blackwell-systems/workprune/internal/classifier"
	"github.com/blackwell-systems/workprune/internal/header"
)

// Walk lists every regular file under the root that is not excluded and
// returns a provisional analysis for each: size, modification time, header
// metadata and category, with the decision still REVIEW_REQUIRED.
// Unreadable entries are logged and skipped.
func (s *Scanner) Walk() ([]*analyzer.FileAnalysis, error) {
	var files []*analyzer.FileAnalysis

	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == s.root {
				return err
			}
			s.logger.Warn("skipping unreadable path", "path", p, "err", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(s.root, p)
		if err != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if s.excludes.MatchesPath(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			s.logger.Warn("skipping file", "path", rel, "err", err)
			return nil
		}

		files = append(files, s.provisional(rel, info.Size(), info.ModTime()))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", s.root, err)
	}

	return files, nil
}

// provisional reads the header of rel and classifies it. If either step
// panics the file is left UNKNOWN with the failure in its reasoning.
func (s *Scanner) provisional(rel string, size int64, modified time.Time) (fa *analyzer.FileAnalysis) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("classification failed", "path", rel, "err", r)
			fa = analyzer.NewFileAnalysis(rel, size, modified, header.Metadata{})
			fa.AddReason(fmt.Sprintf("Classification failed: %v", r))
		}
	}()

	meta := s.readHeader(filepath.Join(s.root, filepath.FromSlash(rel)))
	fa = analyzer.NewFileAnalysis(rel, size, modified, meta)

	cat, rule := classifier.Explain(rel, meta)
	fa.Category = cat
	switch rule {
	case "header":
		fa.AddReason(fmt.Sprintf("Header declares category %s", cat))
	case "default":
		fa.AddReason("No classification rule matched")
	default:
		fa.AddReason(fmt.Sprintf("Classified as %s by rule %q", cat, rule))
	}
	return fa
}
