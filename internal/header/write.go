package header

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Block delimiters. They are matched with strings.Contains so the comment
// leader around them does not matter.
const (
	beginMarker = "workprune:header"
	endMarker   = "workprune:end"
)

// ErrUnsupportedFormat is returned by Write for file types that have no
// comment syntax a header block can live in (JSON, binaries, unknown
// extensions).
var ErrUnsupportedFormat = errors.New("file type does not support a header block")

// commentStyle describes how a header block is rendered for a file type.
// Line styles prefix every line; block styles wrap the fields in open/close.
type commentStyle struct {
	prefix string
	open   string
	close  string
}

var (
	hashStyle  = commentStyle{prefix: "# "}
	slashStyle = commentStyle{prefix: "// "}
	dashStyle  = commentStyle{prefix: "-- "}
	remStyle   = commentStyle{prefix: "REM "}
	htmlStyle  = commentStyle{open: "<!-- ", close: " -->"}
)

var stylesByExt = map[string]commentStyle{
	".py": hashStyle, ".sh": hashStyle, ".bash": hashStyle, ".zsh": hashStyle,
	".yaml": hashStyle, ".yml": hashStyle, ".toml": hashStyle, ".rb": hashStyle,
	".r": hashStyle, ".pl": hashStyle, ".ps1": hashStyle, ".txt": hashStyle,
	".cfg": hashStyle, ".ini": hashStyle, ".conf": hashStyle,

	".go": slashStyle, ".js": slashStyle, ".ts": slashStyle, ".jsx": slashStyle,
	".tsx": slashStyle, ".java": slashStyle, ".c": slashStyle, ".h": slashStyle,
	".cpp": slashStyle, ".hpp": slashStyle, ".cs": slashStyle, ".rs": slashStyle,
	".swift": slashStyle, ".kt": slashStyle, ".scala": slashStyle, ".php": slashStyle,

	".sql": dashStyle, ".lua": dashStyle,

	".bat": remStyle, ".cmd": remStyle,

	".md": htmlStyle, ".html": htmlStyle, ".htm": htmlStyle, ".xml": htmlStyle,
}

func styleFor(path string) (commentStyle, bool) {
	style, ok := stylesByExt[strings.ToLower(filepath.Ext(path))]
	return style, ok
}

// Supported reports whether Write can place a header block in path.
func Supported(path string) bool {
	_, ok := styleFor(path)
	return ok
}

// render produces the header block lines for m, skipping empty fields.
func (s commentStyle) render(m Metadata) []string {
	fields := []struct{ label, value string }{
		{"Purpose", m.Purpose},
		{"Expected Lifetime", m.Lifetime},
		{"Category", strings.ToUpper(m.Category)},
		{"Created", m.Created},
		{"Last Updated", m.LastUpdated},
	}

	var lines []string
	if s.open != "" {
		lines = append(lines, s.open+beginMarker)
	} else {
		lines = append(lines, s.prefix+beginMarker)
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		lines = append(lines, s.prefix+f.label+": "+f.value)
	}
	if s.close != "" {
		lines = append(lines, endMarker+s.close)
	} else {
		lines = append(lines, s.prefix+endMarker)
	}
	return lines
}

// Write places a canonical header block for m at the top of the file,
// replacing an existing block if one is present. Content outside the block
// is preserved byte for byte, and a leading shebang or XML declaration stays
// on the first line.
func Write(path string, m Metadata) error {
	style, ok := styleFor(path)
	if !ok {
		return fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	updated := spliceBlock(string(content), style.render(m))

	return writeAtomic(path, []byte(updated), info.Mode().Perm())
}

// spliceBlock replaces or inserts block in content.
func spliceBlock(content string, block []string) string {
	lines := strings.Split(content, "\n")

	start, end := findBlock(lines)
	if start >= 0 {
		out := make([]string, 0, len(lines)-(end-start+1)+len(block))
		out = append(out, lines[:start]...)
		out = append(out, block...)
		out = append(out, lines[end+1:]...)
		return strings.Join(out, "\n")
	}

	insertAt := 0
	if len(lines) > 0 && (strings.HasPrefix(lines[0], "#!") || strings.HasPrefix(lines[0], "<?xml")) {
		insertAt = 1
	}

	out := make([]string, 0, len(lines)+len(block))
	out = append(out, lines[:insertAt]...)
	out = append(out, block...)
	if content == "" {
		// Keep a trailing newline on otherwise empty files.
		out = append(out, "")
	} else {
		out = append(out, lines[insertAt:]...)
	}
	return strings.Join(out, "\n")
}

// findBlock locates an existing header block within the first
// MaxHeaderLines lines. It returns -1, -1 when there is none.
func findBlock(lines []string) (int, int) {
	start := -1
	for i := 0; i < len(lines) && i < MaxHeaderLines; i++ {
		if start < 0 && strings.Contains(lines[i], beginMarker) {
			start = i
			continue
		}
		if start >= 0 && strings.Contains(lines[i], endMarker) {
			return start, i
		}
	}
	return -1, -1
}

// writeAtomic writes data to a temp file next to path and renames it over
// path so a crash never leaves a half-written file behind.
func writeAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".workprune-header-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
