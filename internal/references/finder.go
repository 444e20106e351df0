// Package references searches a workspace for textual mentions of a file.
//
// Detection is deliberately simple: every eligible text file is scanned line
// by line for the target's file name, or its stem when the stem is longer
// than three characters. Coincidental substring hits are reported too; the
// decision engine treats any reference as a reason for human review rather
// than trying to prove it is real.
package references

import (
	"bufio"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-enry/go-enry/v2"
	gitignore "github.com/sabhiram/go-gitignore"
)

// DefaultContextLines is how many lines are shown on each side of a match.
const DefaultContextLines = 2

// minStemLen is the stem length above which stem matches count.
const minStemLen = 3

// maxFileBytes skips candidates too large to be hand-written text.
const maxFileBytes = 4 << 20

// DefaultIncludes are the gitignore-style patterns of files worth searching:
// code, structured data, documentation and runner scripts.
var DefaultIncludes = []string{
	"*.go", "*.py", "*.ipynb", "*.js", "*.mjs", "*.ts", "*.tsx", "*.jsx", "*.java", "*.rb",
	"*.rs", "*.c", "*.h", "*.cpp", "*.hpp", "*.cs", "*.php", "*.swift", "*.kt", "*.scala",
	"*.r", "*.R", "*.sql", "*.lua", "*.pl",
	"*.json", "*.yaml", "*.yml", "*.toml", "*.ini", "*.cfg", "*.conf", "*.xml", "*.env",
	"*.md", "*.rst", "*.txt", "*.adoc",
	"*.sh", "*.bash", "*.zsh", "*.bat", "*.cmd", "*.ps1",
	"Makefile", "Dockerfile", "Justfile", "Procfile",
}

// DefaultExcludes keeps history, VCS and dependency trees out of the search.
var DefaultExcludes = []string{
	".git", ".hg", ".svn", "node_modules", ".venv", "venv", ".history", "archive", "cleanup_reports",
}

// Finder locates references to workspace files.
type Finder struct {
	root         string
	includes     *gitignore.GitIgnore
	excludes     *gitignore.GitIgnore
	contextLines int
	timeout      time.Duration
	logger       *slog.Logger
	now          func() time.Time

	// candidates is filled on first use and reused by every Find.
	candidates []string
	loaded     bool
}

// Option configures a Finder.
type Option func(*Finder)

// WithContextLines sets the number of lines shown around each match.
func WithContextLines(n int) Option {
	return func(f *Finder) {
		if n >= 0 {
			f.contextLines = n
		}
	}
}

// WithExcludes replaces the default exclusion patterns (gitignore syntax).
func WithExcludes(patterns ...string) Option {
	return func(f *Finder) {
		f.excludes = gitignore.CompileIgnoreLines(patterns...)
	}
}

// WithIncludes replaces the default candidate patterns (gitignore syntax).
func WithIncludes(patterns ...string) Option {
	return func(f *Finder) {
		f.includes = gitignore.CompileIgnoreLines(patterns...)
	}
}

// WithTimeout bounds the time spent on a single Find. Zero means no bound.
// A search that runs out of time returns what it found so far.
func WithTimeout(d time.Duration) Option {
	return func(f *Finder) {
		f.timeout = d
	}
}

// WithLogger sets the logger used for skipped files.
func WithLogger(l *slog.Logger) Option {
	return func(f *Finder) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithClock overrides the clock used for timeouts.
func WithClock(now func() time.Time) Option {
	return func(f *Finder) {
		f.now = now
	}
}

// New creates a Finder rooted at root.
func New(root string, opts ...Option) *Finder {
	f := &Finder{
		root:         root,
		includes:     gitignore.CompileIgnoreLines(DefaultIncludes...),
		excludes:     gitignore.CompileIgnoreLines(DefaultExcludes...),
		contextLines: DefaultContextLines,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Candidates returns the slash-separated relative paths Find searches.
// The list is built on first call and cached for the Finder's lifetime.
func (f *Finder) Candidates() []string {
	if !f.loaded {
		f.candidates = f.listCandidates()
		f.loaded = true
	}
	return f.candidates
}

// Reset drops the cached candidate list so the next Find walks the tree again.
func (f *Finder) Reset() {
	f.candidates = nil
	f.loaded = false
}

func (f *Finder) listCandidates() []string {
	var out []string

	err := filepath.WalkDir(f.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			f.logger.Debug("skipping unreadable path", "path", p, "err", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(f.root, p)
		if relErr != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if f.excludes.MatchesPath(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		if f.includes.MatchesPath(rel) {
			out = append(out, rel)
		}
		return nil
	})
	if err != nil {
		f.logger.Warn("reference candidate walk incomplete", "root", f.root, "err", err)
	}

	return out
}

// Find returns every reference to target (relative to the root) found in
// the candidate files, excluding target itself. Unreadable and binary
// candidates are skipped.
func (f *Finder) Find(target string) []Reference {
	target = filepath.ToSlash(target)
	name := path.Base(target)
	stem := strings.TrimSuffix(name, path.Ext(name))

	var deadline time.Time
	if f.timeout > 0 {
		deadline = f.now().Add(f.timeout)
	}

	var refs []Reference
	for _, cand := range f.Candidates() {
		if cand == target {
			continue
		}
		if !deadline.IsZero() && f.now().After(deadline) {
			f.logger.Warn("reference search timed out", "target", target, "found", len(refs))
			break
		}

		found, err := f.scanFile(cand, name, stem)
		if err != nil {
			f.logger.Debug("skipping reference candidate", "path", cand, "err", err)
			continue
		}
		refs = append(refs, found...)
	}

	return refs
}

// scanFile searches one candidate for name or stem.
func (f *Finder) scanFile(rel, name, stem string) ([]Reference, error) {
	lines, err := readLines(filepath.Join(f.root, filepath.FromSlash(rel)))
	if err != nil {
		return nil, err
	}

	var refs []Reference
	for i, line := range lines {
		if !mentions(line, name, stem) {
			continue
		}
		typ, indirect := InferType(line, name)
		refs = append(refs, Reference{
			File:       rel,
			Line:       i + 1,
			Context:    contextWindow(lines, i, f.contextLines),
			IsIndirect: indirect,
			Type:       typ,
		})
	}
	return refs, nil
}

func mentions(line, name, stem string) bool {
	if strings.Contains(line, name) {
		return true
	}
	return len(stem) > minStemLen && strings.Contains(line, stem)
}

// contextWindow renders lines[idx-n : idx+n] with 1-based line numbers and
// the matched line marked.
func contextWindow(lines []string, idx, n int) string {
	start := idx - n
	if start < 0 {
		start = 0
	}
	end := idx + n
	if end > len(lines)-1 {
		end = len(lines) - 1
	}

	var sb strings.Builder
	for j := start; j <= end; j++ {
		marker := "   "
		if j == idx {
			marker = ">>>"
		}
		fmt.Fprintf(&sb, "%s %4d | %s", marker, j+1, lines[j])
		if j < end {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// readLines loads a text file. Binary and oversized files are rejected.
func readLines(p string) ([]string, error) {
	file, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size() > maxFileBytes {
		return nil, fmt.Errorf("file too large (%d bytes)", info.Size())
	}

	r := bufio.NewReaderSize(file, 8000)
	prefix, _ := r.Peek(8000)
	if enry.IsBinary(prefix) {
		return nil, fmt.Errorf("binary file")
	}

	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxFileBytes)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}
