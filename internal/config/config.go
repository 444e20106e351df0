// Package config provides configuration loading for workprune.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Defaults applied when a field is missing or invalid.
const (
	DefaultAgeThresholdDays    = 14
	DefaultConfidenceThreshold = 0.95
	DefaultMaxDeleteSizeMB     = 100
	DefaultReportDir           = "cleanup_reports"
)

// CandidateFiles are the config file names Discover looks for, in order.
var CandidateFiles = []string{"workprune.yaml", "workprune.yml", "workprune.toml", ".workprune.yaml"}

// CleanupConfig controls what the decision engine protects and when aged
// files become deletable. Treat a loaded config as read-only.
type CleanupConfig struct {
	// AgeThresholdDays is the minimum age before temp, log and intermediate
	// files may be deleted.
	AgeThresholdDays int `yaml:"age_threshold_days" toml:"age_threshold_days"`

	// ConfidenceThreshold is reported alongside decisions; deletion itself is
	// gated by the engine's fixed per-rule confidence.
	ConfidenceThreshold float64 `yaml:"confidence_threshold" toml:"confidence_threshold"`

	// ProtectedPaths always force retention. Matching is case-insensitive on
	// the slash-separated relative path, by prefix or substring.
	ProtectedPaths []string `yaml:"protected_paths" toml:"protected_paths"`

	// RequiredArtifacts are base names that are always kept.
	RequiredArtifacts []string `yaml:"required_artifacts" toml:"required_artifacts"`

	// MaxDeleteSizeMB caps the total size a single apply run may delete.
	MaxDeleteSizeMB float64 `yaml:"max_delete_size_mb" toml:"max_delete_size_mb"`

	// Exclude lists gitignore-style patterns skipped by the tree walk.
	Exclude []string `yaml:"exclude" toml:"exclude"`

	// ReferenceExcludes lists gitignore-style patterns (history, archives,
	// outputs) never searched for references.
	ReferenceExcludes []string `yaml:"reference_excludes" toml:"reference_excludes"`

	// ReportDir is where reports are written, relative to the scan root
	// unless absolute. It is always excluded from the walk.
	ReportDir string `yaml:"report_dir" toml:"report_dir"`

	required map[string]bool
}

// Default returns a CleanupConfig with sensible defaults.
func Default() *CleanupConfig {
	cfg := &CleanupConfig{
		AgeThresholdDays:    DefaultAgeThresholdDays,
		ConfidenceThreshold: DefaultConfidenceThreshold,
		ProtectedPaths: []string{
			".git/",
			".github/",
			".vscode/",
		},
		RequiredArtifacts: []string{
			"config.yaml",
			"requirements.txt",
			"go.mod",
			"go.sum",
			"package.json",
			"README.md",
			"LICENSE",
		},
		MaxDeleteSizeMB: DefaultMaxDeleteSizeMB,
		Exclude: []string{
			".git",
			".hg",
			".svn",
			"node_modules",
			".venv",
			"venv",
		},
		ReferenceExcludes: []string{
			".git",
			"node_modules",
			".venv",
			"venv",
			".history",
			"archive",
		},
		ReportDir: DefaultReportDir,
	}
	cfg.normalize()
	return cfg
}

// Load reads a YAML or TOML configuration file (chosen by extension).
// Missing fields keep their defaults. A missing file is not an error.
// On a malformed file Load returns the defaults together with the parse
// error so callers can warn and carry on.
func Load(p string) (*CleanupConfig, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return Default(), fmt.Errorf("reading config %s: %w", p, err)
	}

	cfg := Default()
	switch strings.ToLower(filepath.Ext(p)) {
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	default:
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return Default(), fmt.Errorf("parsing config %s: %w", p, err)
	}

	cfg.normalize()
	return cfg, nil
}

// Discover returns the first candidate config file present in root.
func Discover(root string) (string, bool) {
	for _, name := range CandidateFiles {
		p := filepath.Join(root, name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, true
		}
	}
	return "", false
}

// normalize backfills invalid values and builds lookup tables.
func (c *CleanupConfig) normalize() {
	if c.AgeThresholdDays <= 0 {
		c.AgeThresholdDays = DefaultAgeThresholdDays
	}
	if c.ConfidenceThreshold <= 0 || c.ConfidenceThreshold > 1 {
		c.ConfidenceThreshold = DefaultConfidenceThreshold
	}
	if c.MaxDeleteSizeMB <= 0 {
		c.MaxDeleteSizeMB = DefaultMaxDeleteSizeMB
	}
	if strings.TrimSpace(c.ReportDir) == "" {
		c.ReportDir = DefaultReportDir
	}

	protected := c.ProtectedPaths[:0:0]
	for _, p := range c.ProtectedPaths {
		p = strings.TrimSpace(filepath.ToSlash(p))
		if p != "" {
			protected = append(protected, p)
		}
	}
	c.ProtectedPaths = protected

	c.required = make(map[string]bool, len(c.RequiredArtifacts))
	for _, name := range c.RequiredArtifacts {
		name = strings.TrimSpace(name)
		if name != "" {
			c.required[name] = true
		}
	}
}

// ProtectedBy returns the first protected-path entry matching rel.
func (c *CleanupConfig) ProtectedBy(rel string) (string, bool) {
	lower := strings.ToLower(filepath.ToSlash(rel))
	for _, p := range c.ProtectedPaths {
		// A prefix match is a substring match at offset zero.
		if strings.Contains(lower, strings.ToLower(strings.TrimPrefix(p, "./"))) {
			return p, true
		}
	}
	return "", false
}

// IsRequiredArtifact reports whether the base name of rel is a required artifact.
func (c *CleanupConfig) IsRequiredArtifact(rel string) bool {
	base := path.Base(filepath.ToSlash(rel))
	if c.required != nil {
		return c.required[base]
	}
	for _, name := range c.RequiredArtifacts {
		if strings.TrimSpace(name) == base {
			return true
		}
	}
	return false
}

// MaxDeleteBytes returns MaxDeleteSizeMB in bytes.
func (c *CleanupConfig) MaxDeleteBytes() int64 {
	return int64(c.MaxDeleteSizeMB * 1024 * 1024)
}

// Dir returns the workprune config directory, respecting XDG_CONFIG_HOME.
// Defaults to ~/.config/workprune if XDG_CONFIG_HOME is not set.
func Dir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "workprune"), nil
}
