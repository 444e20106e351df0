// Package classifier assigns one of ten semantic categories to a workspace
// file.
//
// A category declared in the file's header block always wins. Otherwise the
// path is run through an ordered rule table (see Rules) and the first match
// decides; files nothing matches are UNKNOWN.
package classifier

import (
	"path/filepath"

	"github.com/blackwell-systems/workprune/internal/header"
)

// HeaderReader loads header metadata for an absolute path.
type HeaderReader func(path string) header.Metadata

// Classifier classifies paths relative to a scan root.
type Classifier struct {
	root       string
	readHeader HeaderReader
}

// New creates a Classifier for files under root. Headers are read with
// header.Read unless readHeader is non-nil.
func New(root string, readHeader HeaderReader) *Classifier {
	if readHeader == nil {
		readHeader = header.Read
	}
	return &Classifier{root: root, readHeader: readHeader}
}

// Classify returns the category of the file at rel (relative to the root).
func (c *Classifier) Classify(rel string) Category {
	meta := c.readHeader(filepath.Join(c.root, filepath.FromSlash(rel)))
	return ClassifyWithHeader(rel, meta)
}

// ClassifyWithHeader classifies rel using already-loaded header metadata.
// It never touches the filesystem.
func ClassifyWithHeader(rel string, meta header.Metadata) Category {
	cat, _ := Explain(rel, meta)
	return cat
}

// Explain is ClassifyWithHeader that also names the rule that decided:
// "header" for a declared category, "default" when nothing matched.
func Explain(rel string, meta header.Metadata) (Category, string) {
	if declared, ok := ParseCategory(meta.Category); ok {
		return declared, "header"
	}
	return matchRules(filepath.ToSlash(rel))
}
