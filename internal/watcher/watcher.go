// Package watcher imports grade and rating files dropped into watched directories.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/hyperjump/kurasu/internal/importer"
	"go.uber.org/zap"
)

const defaultDebounce = 400 * time.Millisecond

// Handler imports and removes files. *importer.Importer satisfies it.
type Handler interface {
	ImportFile(ctx context.Context, path string) (*importer.Result, error)
	RemoveFile(ctx context.Context, path string) (int64, error)
}

// Watcher watches drop directories and hands created, written and removed files to a Handler.
// Writes to the same path within the debounce window trigger a single import.
type Watcher struct {
	roots      []string
	extensions []string
	recursive  bool
	handler    Handler
	debounce   time.Duration
	logger     *zap.Logger

	mu       sync.Mutex
	fsw      *fsnotify.Watcher
	ctx      context.Context
	timers   map[string]*time.Timer
	started  bool
	done     chan struct{}
	stopOnce sync.Once
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets a logger for import results and watch events.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithDebounce sets how long a path must be quiet before it is imported.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// New creates a watcher over roots. extensions filter which files are handled (empty = all
// formats the importer supports).
func New(roots, extensions []string, recursive bool, handler Handler, opts ...Option) *Watcher {
	if len(extensions) == 0 {
		extensions = importer.SupportedExtensions()
	}
	w := &Watcher{
		roots:      append([]string(nil), roots...),
		extensions: extensions,
		recursive:  recursive,
		handler:    handler,
		debounce:   defaultDebounce,
		logger:     zap.NewNop(),
		timers:     make(map[string]*time.Timer),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start starts watching. Missing roots are created. It runs until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.fsw = fsw
	for i, root := range w.roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			_ = fsw.Close()
			return err
		}
		w.roots[i] = filepath.Clean(abs)
		if err := w.addRootLocked(w.roots[i]); err != nil {
			_ = fsw.Close()
			return err
		}
	}
	w.ctx = ctx
	w.started = true
	w.logger.Info("watching drop directories",
		zap.Strings("roots", w.roots),
		zap.Strings("extensions", w.extensions),
		zap.Bool("recursive", w.recursive),
	)
	go w.run(ctx, fsw)
	return nil
}

func (w *Watcher) addRootLocked(root string) error {
	if err := os.MkdirAll(root, 0755); err != nil {
		return err
	}
	if !w.recursive {
		return w.fsw.Add(root)
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.fsw.Add(path)
		}
		return nil
	})
}

func (w *Watcher) run(ctx context.Context, fsw *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	path := filepath.Clean(ev.Name)
	if !w.underRoot(path) {
		return
	}
	w.logger.Debug("watcher event", zap.String("op", ev.Op.String()), zap.String("path", path))

	switch {
	case ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write):
		info, err := os.Stat(path)
		if err != nil {
			return
		}
		if info.IsDir() {
			if ev.Has(fsnotify.Create) {
				w.handleNewDirectory(path)
			}
			return
		}
		if w.matches(path) {
			w.schedule(path)
		}
	case ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename):
		w.cancel(path)
		if w.matches(path) {
			w.remove(path)
		}
	}
}

// handleNewDirectory watches a directory created under a recursive root and imports its files.
func (w *Watcher) handleNewDirectory(dir string) {
	w.mu.Lock()
	fsw, recursive := w.fsw, w.recursive
	w.mu.Unlock()
	if fsw == nil || !recursive {
		return
	}
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if err := fsw.Add(path); err != nil {
				w.logger.Warn("watcher failed to add directory", zap.String("path", path), zap.Error(err))
			}
			return nil
		}
		if w.matches(path) {
			w.schedule(path)
		}
		return nil
	})
}

func (w *Watcher) underRoot(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, root := range w.roots {
		if root == path || inDir(root, path) {
			return true
		}
	}
	return false
}

func inDir(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (w *Watcher) matches(path string) bool {
	return importer.ExtensionAllowed(filepath.Ext(path), w.extensions)
}

func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return
	}
	if t, ok := w.timers[path]; ok {
		t.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		if w.timers[path] != t {
			w.mu.Unlock()
			return
		}
		delete(w.timers, path)
		w.mu.Unlock()
		w.importFile(path)
	})
	w.timers[path] = t
}

func (w *Watcher) cancel(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.timers[path]; ok {
		t.Stop()
		delete(w.timers, path)
	}
}

func (w *Watcher) context() context.Context {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.ctx == nil {
		return context.Background()
	}
	return w.ctx
}

func (w *Watcher) importFile(path string) {
	res, err := w.handler.ImportFile(w.context(), path)
	if err != nil {
		w.logger.Warn("import failed", zap.String("path", path), zap.Error(err))
		return
	}
	w.logger.Info("file imported",
		zap.String("path", res.Path),
		zap.String("kind", string(res.Kind)),
		zap.Int("rows", res.Rows),
		zap.Int("skipped", res.Skipped),
	)
}

func (w *Watcher) remove(path string) {
	n, err := w.handler.RemoveFile(w.context(), path)
	if err != nil {
		w.logger.Warn("remove failed", zap.String("path", path), zap.Error(err))
		return
	}
	w.logger.Info("file removed", zap.String("path", path), zap.Int64("rows", n))
}

// Roots returns a copy of the watched root directories.
func (w *Watcher) Roots() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.roots...)
}

// SyncExistingFiles imports every matching file already present in the roots.
// Returns the number of files imported successfully.
func (w *Watcher) SyncExistingFiles() int {
	n := 0
	for _, root := range w.Roots() {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if d.IsDir() {
				if !w.recursive && path != root {
					return filepath.SkipDir
				}
				return nil
			}
			if !w.matches(path) {
				return nil
			}
			if _, err := w.handler.ImportFile(w.context(), path); err != nil {
				w.logger.Warn("import failed", zap.String("path", path), zap.Error(err))
				return nil
			}
			n++
			return nil
		})
	}
	w.logger.Info("drop directories synced", zap.Int("files", n))
	return n
}

// Stop stops the watcher and cancels pending imports.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return
	}
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
	_ = w.fsw.Close()
	w.fsw = nil
	w.started = false
	w.mu.Unlock()
	w.stopOnce.Do(func() { close(w.done) })
}

// Done is closed when the watcher stops.
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}
