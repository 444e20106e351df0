package watcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the tree must be quiet before a batch fires.
const DefaultDebounce = 2 * time.Second

// Handler receives the slash-separated paths, relative to the root, that
// changed since the previous batch. Calls are never concurrent.
type Handler func(ctx context.Context, changed []string)

// Watcher watches a directory tree and calls a Handler after changes settle.
type Watcher struct {
	root     string
	handler  Handler
	debounce time.Duration
	ignore   func(rel string) bool
	logger   *slog.Logger

	fsw     *fsnotify.Watcher
	stopCh  chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	pending map[string]struct{}
	started bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before a batch is delivered.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithIgnore skips paths for which fn returns true. Ignored directories
// are not watched at all.
func WithIgnore(fn func(rel string) bool) Option {
	return func(w *Watcher) {
		if fn != nil {
			w.ignore = fn
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// New creates a Watcher for root. Nothing is watched until Start.
func New(root string, handler Handler, opts ...Option) (*Watcher, error) {
	if handler == nil {
		return nil, fmt.Errorf("handler cannot be nil")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", root, err)
	}

	w := &Watcher{
		root:     abs,
		handler:  handler,
		debounce: DefaultDebounce,
		ignore:   func(string) bool { return false },
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		stopCh:   make(chan struct{}),
		pending:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start registers the tree with fsnotify and begins delivering batches.
// ctx is passed to the handler; cancelling it does not stop the watcher.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return fmt.Errorf("watcher already started")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	w.fsw = fsw

	if err := w.addTree(w.root); err != nil {
		fsw.Close()
		return err
	}

	w.started = true
	w.wg.Add(1)
	go w.loop(ctx)

	return nil
}

// Stop halts the watcher. Pending changes that have not settled are dropped.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return nil
	}
	w.started = false
	w.mu.Unlock()

	close(w.stopCh)
	w.wg.Wait()
	return w.fsw.Close()
}

// Run starts the watcher and blocks until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return w.Stop()
}

// addTree watches dir and every non-ignored directory below it.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == dir {
				return fmt.Errorf("failed to walk %s: %w", dir, err)
			}
			w.logger.Debug("skipping unreadable directory", "path", p, "err", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != w.root && w.ignore(w.rel(p)) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(p); err != nil {
			if p == w.root {
				return fmt.Errorf("failed to watch %s: %w", p, err)
			}
			w.logger.Warn("failed to watch directory", "path", p, "err", err)
		}
		return nil
	})
}

func (w *Watcher) rel(p string) string {
	rel, err := filepath.Rel(w.root, p)
	if err != nil {
		return filepath.ToSlash(p)
	}
	return filepath.ToSlash(rel)
}

// loop collects events and fires the handler once the tree is quiet.
func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.record(ev) {
				continue
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "err", err)

		case <-timer.C:
			w.flush(ctx)

		case <-w.stopCh:
			return
		}
	}
}

// record notes a changed path. It reports whether the event counts.
func (w *Watcher) record(ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}

	rel := w.rel(ev.Name)
	if rel == "." || strings.HasPrefix(rel, "../") || w.ignore(rel) {
		return false
	}

	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.addTree(ev.Name); err != nil && !errors.Is(err, fs.ErrNotExist) {
				w.logger.Warn("failed to watch new directory", "path", rel, "err", err)
			}
		}
	}

	w.mu.Lock()
	w.pending[rel] = struct{}{}
	w.mu.Unlock()

	w.logger.Debug("change", "path", rel, "op", ev.Op.String())
	return true
}

// flush hands the pending batch to the handler.
func (w *Watcher) flush(ctx context.Context) {
	w.mu.Lock()
	if len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	changed := make([]string, 0, len(w.pending))
	for p := range w.pending {
		changed = append(changed, p)
	}
	w.pending = make(map[string]struct{})
	w.mu.Unlock()

	sort.Strings(changed)
	w.handler(ctx, changed)
}
