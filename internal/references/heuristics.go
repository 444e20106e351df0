package references

import (
	"regexp"
	"strings"
)

// refFamily is one keyword family of the reference-type heuristic.
type refFamily struct {
	typ      RefType
	indirect bool
	re       *regexp.Regexp
}

// families is checked top to bottom and the first family whose pattern
// matches the line decides the type. A line that matches several families
// (say "import" and "glob") takes the earliest one. This is keyword
// sniffing, not parsing, and it errs on the side of reporting a reference.
var families = []refFamily{
	{typ: TypeImport, re: regexp.MustCompile(`\bimport\b`)},
	{typ: TypeInclude, re: regexp.MustCompile(`\b(?:from|require|require_relative|include)\b`)},
	{typ: TypeFileOperation, re: regexp.MustCompile(
		`\b(?:open|fopen|Open|OpenFile|ReadFile|readFile|readFileSync|createReadStream|load|loadtxt|read_csv|read_excel|read_json|read_parquet|read_table|read_text|read_bytes)\s*\(|\.read\(|\bwith\s+open\b`)},
	{typ: TypeGlobPattern, indirect: true, re: regexp.MustCompile(
		`\b(?:i?glob|rglob|Glob|walk|Walk|WalkDir|listdir|scandir|readdir|readdirSync|fnmatch)\b`)},
	// string_literal is handled separately: it depends on the target name.
	{typ: TypeDynamic, indirect: true, re: regexp.MustCompile(
		`\b(?:eval|exec|getattr|setattr|hasattr|__import__|importlib|import_module|reflect)\b`)},
	{typ: TypeDynamicFormat, indirect: true, re: regexp.MustCompile(
		`\bf["']|\.format\(|%s|%\(|\bSprintf\b|\$\{|\{\}|\b[Tt]emplate\b`)},
}

// literalIndex is the position in families where the string-literal check
// runs, between glob_pattern and dynamic.
const literalIndex = 4

// InferType classifies how line refers to filename and whether the
// reference is indirect (glob or dynamically built).
func InferType(line, filename string) (RefType, bool) {
	for i, fam := range families {
		if i == literalIndex && isQuotedLiteral(line, filename) {
			return TypeStringLiteral, false
		}
		if fam.re.MatchString(line) {
			return fam.typ, fam.indirect
		}
	}
	return TypeReference, false
}

func isQuotedLiteral(line, filename string) bool {
	for _, q := range []string{`"`, `'`, "`"} {
		if strings.Contains(line, q+filename+q) {
			return true
		}
	}
	return false
}
