// Package header reads and writes the workprune metadata block that may sit
// at the top of a workspace file.
//
// A block declares up to five labeled fields, one per line:
//
//	# workprune:header
//	# Purpose: nightly export of the billing tables
//	# Expected Lifetime: temporary
//	# Category: GENERATED_OUTPUT
//	# Created: 2026-01-01
//	# Last Updated: 2026-02-14
//	# workprune:end
//
// Reading is tolerant: fields are matched case-insensitively anywhere in the
// first MaxHeaderLines lines, with or without a comment leader, and a file
// that is binary or unreadable simply has no metadata.
package header

import (
	"bufio"
	"io"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/go-enry/go-enry/v2"
)

// MaxHeaderLines is how far into a file Read looks for header fields.
const MaxHeaderLines = 50

// sniffBytes is the prefix inspected for binary content.
const sniffBytes = 8000

// DateLayout is the format of the Created and Last Updated fields.
const DateLayout = "2006-01-02"

// Well-known Expected Lifetime values.
const (
	LifetimeTemporary = "temporary"
	LifetimePermanent = "permanent"
)

// Metadata holds the fields declared by a header block. Every field is
// optional; the zero value means "no header".
type Metadata struct {
	Purpose     string
	Lifetime    string
	Category    string // upper-cased on read
	Created     string // YYYY-MM-DD
	LastUpdated string // YYYY-MM-DD
}

// Empty reports whether no field is set.
func (m Metadata) Empty() bool {
	return m == Metadata{}
}

// leader matches an optional comment prefix in front of a field label.
const leader = `(?i)^\s*(?:#+|//+|--|;+|\*|::|rem\b|<!--)?\s*`

var (
	purposeRe     = regexp.MustCompile(leader + `purpose\s*:\s*(.+?)\s*(?:-->)?\s*$`)
	lifetimeRe    = regexp.MustCompile(leader + `expected[ _-]?lifetime\s*:\s*([A-Za-z0-9_-]+)`)
	categoryRe    = regexp.MustCompile(leader + `category\s*:\s*(.+?)\s*(?:-->)?\s*$`)
	createdRe     = regexp.MustCompile(leader + `created\s*:\s*(\d{4}-\d{2}-\d{2})`)
	lastUpdatedRe = regexp.MustCompile(leader + `last[ _-]?updated\s*:\s*(\d{4}-\d{2}-\d{2})`)
)

// Read extracts header metadata from the file at path. Binary, missing or
// unreadable files yield an empty Metadata.
func Read(path string) Metadata {
	f, err := os.Open(path)
	if err != nil {
		return Metadata{}
	}
	defer f.Close()

	r := bufio.NewReaderSize(f, sniffBytes)
	// Peek returns whatever is available along with io.EOF on short files.
	prefix, _ := r.Peek(sniffBytes)
	if enry.IsBinary(prefix) {
		return Metadata{}
	}

	return Parse(r)
}

// Parse extracts header metadata from the first MaxHeaderLines lines of r.
// A workprune:header block in those lines is authoritative and nothing
// outside it is read. Without a block, the first occurrence of each field
// wins.
func Parse(r io.Reader) Metadata {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lines := make([]string, 0, MaxHeaderLines)
	for len(lines) < MaxHeaderLines && scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	// A scan error just truncates what we could read.

	if start, end := findBlock(lines); start >= 0 {
		lines = lines[start+1 : end]
	}
	return parseFields(lines)
}

func parseFields(lines []string) Metadata {
	var m Metadata
	for _, line := range lines {
		if m.Purpose == "" {
			m.Purpose = firstGroup(purposeRe, line)
		}
		if m.Lifetime == "" {
			m.Lifetime = firstGroup(lifetimeRe, line)
		}
		if m.Category == "" {
			m.Category = strings.ToUpper(firstGroup(categoryRe, line))
		}
		if m.Created == "" {
			m.Created = firstGroup(createdRe, line)
		}
		if m.LastUpdated == "" {
			m.LastUpdated = firstGroup(lastUpdatedRe, line)
		}
	}
	return m
}

func firstGroup(re *regexp.Regexp, line string) string {
	match := re.FindStringSubmatch(line)
	if match == nil {
		return ""
	}
	return strings.TrimSpace(match[1])
}

// Stamp fills Created (when absent) and sets LastUpdated to the date of now.
func Stamp(m Metadata, now time.Time) Metadata {
	today := now.Format(DateLayout)
	if m.Created == "" {
		m.Created = today
	}
	m.LastUpdated = today
	return m
}
