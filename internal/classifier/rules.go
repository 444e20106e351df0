package classifier

import (
	"path"
	"regexp"
	"strings"

	"github.com/go-enry/go-enry/v2"
)

// fileFacts is the normalized view of a path that rule predicates inspect.
type fileFacts struct {
	rel   string // slash-separated, relative to the scan root
	lower string // lower-cased rel, wrapped in slashes for segment checks
	base  string // lower-cased file name
	stem  string // lower-cased file name without extension
	ext   string // lower-cased extension including the dot
}

func newFacts(rel string) fileFacts {
	rel = strings.TrimPrefix(path.Clean(strings.ReplaceAll(rel, "\\", "/")), "./")
	base := strings.ToLower(path.Base(rel))
	ext := path.Ext(base)
	return fileFacts{
		rel:   rel,
		lower: "/" + strings.ToLower(rel),
		base:  base,
		stem:  strings.TrimSuffix(base, ext),
		ext:   ext,
	}
}

// inDir reports whether any directory segment of the path equals one of dirs.
// A dir may span several segments ("data/intermediate").
func (f fileFacts) inDir(dirs ...string) bool {
	for _, d := range dirs {
		if strings.Contains(f.lower, "/"+d+"/") {
			return true
		}
	}
	return false
}

func (f fileFacts) hasExt(exts map[string]bool) bool {
	return exts[f.ext]
}

// Rule is one entry of the ordered classification table.
type Rule struct {
	Name     string
	Category Category
	match    func(fileFacts) bool
}

// Matches reports whether the rule applies to the slash-separated relative path.
func (r Rule) Matches(rel string) bool {
	return r.match(newFacts(rel))
}

func set(items ...string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, it := range items {
		m[it] = true
	}
	return m
}

var (
	vcsDotfiles = set(".gitignore", ".gitattributes", ".gitmodules", ".dockerignore", ".editorconfig")

	osJunk = set(".ds_store", "thumbs.db", "desktop.ini")

	manifestNames = set(
		"requirements.txt", "requirements-dev.txt", "constraints.txt", "pipfile", "pipfile.lock",
		"pyproject.toml", "setup.py", "setup.cfg", "go.mod", "go.sum", "package.json",
		"package-lock.json", "yarn.lock", "pnpm-lock.yaml", "cargo.toml", "cargo.lock",
		"gemfile", "gemfile.lock", "composer.json", "environment.yml",
	)

	runnerExts = set(".bat", ".cmd", ".ps1", ".sh")

	sourceExts = set(
		".go", ".py", ".js", ".mjs", ".cjs", ".ts", ".tsx", ".jsx", ".java", ".c", ".h",
		".cpp", ".cc", ".hpp", ".cs", ".rb", ".rs", ".php", ".swift", ".kt", ".scala",
		".sql", ".r", ".lua", ".pl", ".html", ".htm", ".css", ".scss", ".vue", ".svelte",
		".ipynb",
	)

	configExts = set(".yaml", ".yml", ".json", ".toml", ".ini", ".cfg", ".conf", ".env", ".properties", ".xml")

	configNames = set(
		"makefile", "dockerfile", "docker-compose.yml", "docker-compose.yaml", "procfile",
		"config", "settings", "tsconfig.json", "justfile", "vagrantfile",
	)

	settingsDirs = []string{".vscode", ".idea", ".github", ".config", ".devcontainer"}

	documentExts = set(
		".pdf", ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx", ".odt", ".ods", ".rtf", ".epub",
		".zip", ".tar", ".gz", ".tgz", ".bz2", ".xz", ".7z", ".rar",
	)

	generatedDirs = []string{
		"output", "outputs", "coverage", "htmlcov", "__pycache__", ".pytest_cache",
		".mypy_cache", ".ruff_cache", "dist", "build", ".next", ".nuxt",
	}

	tempExts = set(".tmp", ".temp", ".bak", ".swp", ".swo", ".orig", ".rej", ".old", ".pyc")

	docExts = set(".md", ".rst", ".txt", ".adoc")

	experimentRe = regexp.MustCompile(`(^|[_.\- ])(experiments?|exp|tests?|demo|scratch|sandbox|backup|old|draft|wip)\d*($|[_.\- ])`)
)

func isMarkdown(f fileFacts) bool {
	return f.ext == ".md" || f.ext == ".markdown"
}

func isDocumentation(f fileFacts) bool {
	return f.inDir("docs", "doc", "documentation") || enry.IsDocumentation(f.rel)
}

// rules is the classification table. Order is part of the contract: the
// first matching predicate decides and nothing after it is consulted.
var rules = []Rule{
	// Special cases run before the general rules.
	{Name: "vcs-dotfile", Category: Config, match: func(f fileFacts) bool {
		return vcsDotfiles[f.base]
	}},
	{Name: "os-junk", Category: TempFile, match: func(f fileFacts) bool {
		return osJunk[f.base]
	}},
	{Name: "requirement-manifest", Category: Config, match: func(f fileFacts) bool {
		return manifestNames[f.base] || (strings.HasPrefix(f.base, "requirements") && f.ext == ".txt")
	}},
	{Name: "runner-script", Category: Prompt, match: func(f fileFacts) bool {
		return f.hasExt(runnerExts)
	}},
	{Name: "dotfile", Category: Config, match: func(f fileFacts) bool {
		return strings.HasPrefix(f.base, ".")
	}},

	// General rules.
	{Name: "source-code", Category: SourceCode, match: func(f fileFacts) bool {
		return f.hasExt(sourceExts) || (isMarkdown(f) && !isDocumentation(f))
	}},
	{Name: "config", Category: Config, match: func(f fileFacts) bool {
		return f.hasExt(configExts) || configNames[f.base] ||
			(strings.HasPrefix(f.base, ".") && f.inDir(settingsDirs...))
	}},
	{Name: "prompt", Category: Prompt, match: func(f fileFacts) bool {
		return f.inDir("prompts") || strings.Contains(f.base, "_prompt")
	}},
	{Name: "input-data", Category: InputData, match: func(f fileFacts) bool {
		return f.inDir("input") || f.hasExt(documentExts)
	}},
	{Name: "intermediate-artifact", Category: IntermediateArtifact, match: func(f fileFacts) bool {
		return f.inDir("data/intermediate", "tmp")
	}},
	{Name: "generated-output", Category: GeneratedOutput, match: func(f fileFacts) bool {
		return f.inDir(generatedDirs...)
	}},
	{Name: "log-file", Category: LogFile, match: func(f fileFacts) bool {
		return f.ext == ".log" || f.inDir("logs")
	}},
	{Name: "temp-file", Category: TempFile, match: func(f fileFacts) bool {
		return f.hasExt(tempExts) || strings.HasSuffix(f.base, "~") ||
			strings.HasPrefix(f.base, "~$") || strings.HasSuffix(f.base, ".bak")
	}},
	{Name: "experiment", Category: Experiment, match: func(f fileFacts) bool {
		return experimentRe.MatchString(f.stem)
	}},
	{Name: "documentation", Category: SourceCode, match: func(f fileFacts) bool {
		return f.hasExt(docExts) && isDocumentation(f)
	}},
}

// Rules returns a copy of the ordered classification table.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// matchRules runs the table against rel and returns the first hit.
func matchRules(rel string) (Category, string) {
	f := newFacts(rel)
	for _, r := range rules {
		if r.match(f) {
			return r.Category, r.Name
		}
	}
	return Unknown, "default"
}
