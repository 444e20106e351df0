// Package scanner walks a workspace and drives every file through
// classification, the decision engine and, for files needing review, the
// reference finder.
package scanner

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	gitignore "github.com/sabhiram/go-gitignore"

	"github.com/blackwell-systems/workprune/internal/analyzer"
	"github.com/blackwell-systems/workprune/internal/config"
	"github.com/blackwell-systems/workprune/internal/header"
	"github.com/blackwell-systems/workprune/internal/references"
)

// ProgressFunc is called after each file is analyzed.
type ProgressFunc func(done, total int)

// Scanner analyzes the files under one root.
type Scanner struct {
	root       string
	cfg        *config.CleanupConfig
	excludes   *gitignore.GitIgnore
	engine     *analyzer.Engine
	finder     *references.Finder
	readHeader func(path string) header.Metadata
	logger     *slog.Logger
	now        func() time.Time
	progress   ProgressFunc
	refTimeout time.Duration
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithLogger sets the logger for per-file problems.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scanner) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the clock used for ages and report timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Scanner) {
		s.now = now
	}
}

// WithProgress registers a progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(s *Scanner) {
		s.progress = fn
	}
}

// WithHeaderReader replaces header.Read.
func WithHeaderReader(fn func(path string) header.Metadata) Option {
	return func(s *Scanner) {
		s.readHeader = fn
	}
}

// WithReferenceTimeout bounds each reference search.
func WithReferenceTimeout(d time.Duration) Option {
	return func(s *Scanner) {
		s.refTimeout = d
	}
}

// New creates a Scanner for root. A nil cfg means defaults.
func New(root string, cfg *config.CleanupConfig, opts ...Option) (*Scanner, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}
	if cfg == nil {
		cfg = config.Default()
	}

	s := &Scanner{
		root:       abs,
		cfg:        cfg,
		readHeader: header.Read,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	reportExclude := reportDirPattern(abs, cfg.ReportDir)
	s.excludes = gitignore.CompileIgnoreLines(withPattern(cfg.Exclude, reportExclude)...)
	s.engine = analyzer.New(cfg, abs, analyzer.WithClock(s.now))
	s.finder = references.New(abs,
		references.WithExcludes(withPattern(cfg.ReferenceExcludes, reportExclude)...),
		references.WithTimeout(s.refTimeout),
		references.WithLogger(s.logger),
		references.WithClock(s.now),
	)

	return s, nil
}

// Root returns the absolute scan root.
func (s *Scanner) Root() string {
	return s.root
}

// Engine returns the decision engine the scanner uses.
func (s *Scanner) Engine() *analyzer.Engine {
	return s.engine
}

// Excluded reports whether rel (slash-separated) is skipped by the walk.
func (s *Scanner) Excluded(rel string) bool {
	return s.excludes.MatchesPath(filepath.ToSlash(rel))
}

// reportDirPattern returns a root-anchored exclusion for the report
// directory, or "" when it lies outside root.
func reportDirPattern(root, reportDir string) string {
	dir := reportDir
	if filepath.IsAbs(dir) {
		rel, err := filepath.Rel(root, dir)
		if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
			return ""
		}
		dir = rel
	}
	dir = strings.Trim(filepath.ToSlash(filepath.Clean(dir)), "/")
	if dir == "" || dir == "." || strings.HasPrefix(dir, "..") {
		return ""
	}
	return "/" + dir
}

func withPattern(patterns []string, extra string) []string {
	out := append([]string(nil), patterns...)
	if extra != "" {
		out = append(out, extra)
	}
	return out
}
