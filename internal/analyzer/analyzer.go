package analyzer

import (
	"io/fs"
	"os"
	"time"

	"github.com/blackwell-systems/workprune/internal/config"
)

// Engine decides what to do with classified files.
type Engine struct {
	cfg  *config.CleanupConfig
	root string
	now  func() time.Time
	stat func(name string) (fs.FileInfo, error)
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the clock used for age computation.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithStat overrides how modification times are read.
func WithStat(stat func(name string) (fs.FileInfo, error)) Option {
	return func(e *Engine) {
		e.stat = stat
	}
}

// New creates a new Engine for files under root. A nil cfg means defaults.
func New(cfg *config.CleanupConfig, root string, opts ...Option) *Engine {
	if cfg == nil {
		cfg = config.Default()
	}
	e := &Engine{
		cfg:  cfg,
		root: root,
		now:  time.Now,
		stat: os.Stat,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config returns the configuration the engine decides with.
func (e *Engine) Config() *config.CleanupConfig {
	return e.cfg
}
