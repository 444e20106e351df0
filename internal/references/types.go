package references

// RefType tags how a referencing line appears to use the target file.
type RefType string

const (
	TypeImport        RefType = "import"
	TypeInclude       RefType = "include"
	TypeFileOperation RefType = "file_operation"
	TypeGlobPattern   RefType = "glob_pattern"
	TypeStringLiteral RefType = "string_literal"
	TypeDynamic       RefType = "dynamic"
	TypeDynamicFormat RefType = "dynamic_format"
	TypeReference     RefType = "reference"
)

// Reference is textual evidence that one file mentions another.
type Reference struct {
	File       string  `json:"file"` // slash-separated, relative to the scan root
	Line       int     `json:"line"` // 1-based
	Context    string  `json:"context"`
	IsIndirect bool    `json:"is_indirect"`
	Type       RefType `json:"type"`
}

// Stats splits refs into direct and indirect counts.
func Stats(refs []Reference) (direct, indirect int) {
	for _, r := range refs {
		if r.IsIndirect {
			indirect++
		} else {
			direct++
		}
	}
	return direct, indirect
}

// Files returns the distinct referencing files in first-seen order.
func Files(refs []Reference) []string {
	seen := make(map[string]bool, len(refs))
	var files []string
	for _, r := range refs {
		if seen[r.File] {
			continue
		}
		seen[r.File] = true
		files = append(files, r.File)
	}
	return files
}
