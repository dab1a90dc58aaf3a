package lintbridge

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"
)

// Watcher re-runs lint invocations when watched source files change. It is
// a convenience for the standalone runner; bundler hosts drive invocations
// themselves.
type Watcher struct {
	logger       *slog.Logger
	fs           afero.Fs
	watcher      *fsnotify.Watcher
	debounceTime time.Duration
	extensions   map[string]bool
	process      func(path string)

	// Debouncing state
	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer
}

// WatchConfig holds configuration for a Watcher.
type WatchConfig struct {
	Logger       *slog.Logger
	FS           afero.Fs
	DebounceTime time.Duration
	// Extensions are the file extensions (with dot) worth re-linting.
	Extensions []string
}

// NewWatcher creates a watcher that calls process for every changed file
// with a matching extension, debounced.
func NewWatcher(cfg WatchConfig, process func(path string)) (*Watcher, error) {
	if cfg.FS == nil {
		cfg.FS = afero.NewOsFs()
	}
	if cfg.DebounceTime == 0 {
		cfg.DebounceTime = 100 * time.Millisecond
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, NewHostError("failed to create file watcher", err)
	}

	extensions := make(map[string]bool, len(cfg.Extensions))
	for _, ext := range cfg.Extensions {
		extensions[ext] = true
	}

	return &Watcher{
		logger:       ensureLogger(cfg.Logger),
		fs:           cfg.FS,
		watcher:      fsWatcher,
		debounceTime: cfg.DebounceTime,
		extensions:   extensions,
		process:      process,
		pending:      make(map[string]struct{}),
	}, nil
}

// Start watches the tree under root until ctx is done.
func (w *Watcher) Start(ctx context.Context, root string) error {
	if err := w.addDirs(root); err != nil {
		return err
	}
	w.logger.Info("watching for changes", "path", root)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

// Stop closes the underlying watcher.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

// addDirs watches directories, not individual files, so new files are
// picked up. Hidden directories and node_modules are skipped.
func (w *Watcher) addDirs(root string) error {
	return afero.Walk(w.fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			w.logger.Warn("error walking path", "path", path, "error", err)
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		if strings.HasPrefix(info.Name(), ".") && path != root {
			return filepath.SkipDir
		}
		if info.Name() == "node_modules" {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn("failed to watch directory", "path", path, "error", err)
		}
		return nil
	})
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}

	// New directories need watching too.
	if info, err := w.fs.Stat(event.Name); err == nil && info.IsDir() {
		if err := w.watcher.Add(event.Name); err != nil {
			w.logger.Warn("failed to watch new directory", "path", event.Name, "error", err)
		}
		return
	}

	if !w.extensions[filepath.Ext(event.Name)] {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending[event.Name] = struct{}{}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounceTime, w.flush)
}

func (w *Watcher) flush() {
	w.mu.Lock()
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	w.pending = make(map[string]struct{})
	w.mu.Unlock()

	for _, p := range paths {
		w.process(p)
	}
}
