package classifier

import "strings"

// Category is the semantic label assigned to every scanned file. Each file
// gets exactly one.
type Category string

const (
	SourceCode           Category = "SOURCE_CODE"
	Config               Category = "CONFIG"
	Prompt               Category = "PROMPT"
	InputData            Category = "INPUT_DATA"
	IntermediateArtifact Category = "INTERMEDIATE_ARTIFACT"
	GeneratedOutput      Category = "GENERATED_OUTPUT"
	LogFile              Category = "LOG_FILE"
	TempFile             Category = "TEMP_FILE"
	Experiment           Category = "EXPERIMENT"
	Unknown              Category = "UNKNOWN"
)

// AllCategories lists every category in declaration order.
var AllCategories = []Category{
	SourceCode,
	Config,
	Prompt,
	InputData,
	IntermediateArtifact,
	GeneratedOutput,
	LogFile,
	TempFile,
	Experiment,
	Unknown,
}

// ParseCategory maps a declared category string (any case, surrounding
// space allowed) to a Category. It returns false for anything that is not
// one of the ten values.
func ParseCategory(s string) (Category, bool) {
	want := Category(strings.ToUpper(strings.TrimSpace(s)))
	for _, c := range AllCategories {
		if c == want {
			return c, true
		}
	}
	return "", false
}

// Valid reports whether c is one of the ten categories.
func (c Category) Valid() bool {
	_, ok := ParseCategory(string(c))
	return ok
}

func (c Category) String() string {
	return string(c)
}
