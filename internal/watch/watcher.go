// Package watch turns file system changes under a project root into batches
// of scenario paths.
package watch

import (
	"context"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for more events before it
// flushes a batch.
const DefaultDebounce = 200 * time.Millisecond

// skipDirs are never watched.
var skipDirs = map[string]bool{
	".git":           true,
	".hg":            true,
	".svn":           true,
	".scenariowatch": true,
	"node_modules":   true,
}

// Handler receives one debounced batch of mapped paths.
type Handler func(ctx context.Context, paths []string)

// Config holds watcher configuration.
type Config struct {
	Root     string
	Rules    []Rule
	Debounce time.Duration
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// Watcher watches Root recursively.
type Watcher struct {
	root     string
	rules    []Rule
	debounce time.Duration
	handler  Handler
	logger   *slog.Logger
}

// New creates a Watcher that calls handler with every debounced batch. A
// relative Root is resolved against the working directory.
func New(cfg Config, handler Handler) *Watcher {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	root := cfg.Root
	if root == "" {
		root = "."
	}
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	return &Watcher{
		root:     root,
		rules:    cfg.Rules,
		debounce: cfg.Debounce,
		handler:  handler,
		logger:   logger,
	}
}

// Map returns the targets for an absolute or root relative file name.
func (w *Watcher) Map(name string) []string {
	rel := name
	if filepath.IsAbs(name) {
		r, err := filepath.Rel(w.root, name)
		if err != nil {
			return nil
		}
		rel = r
	}
	rel = filepath.ToSlash(rel)
	if strings.HasPrefix(rel, "../") {
		return nil
	}
	return MatchAll(w.rules, rel)
}

// Run watches until ctx is cancelled. The handler runs on the watch loop, so
// batches never overlap.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	if err := watchDirRecursive(watcher, w.root); err != nil {
		return err
	}
	w.logger.Debug("watching", "root", w.root, "rules", len(w.rules))

	pending := make(map[string]bool)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	flush := func() {
		if len(pending) == 0 {
			return
		}
		batch := make([]string, 0, len(pending))
		for p := range pending {
			batch = append(batch, p)
		}
		sort.Strings(batch)
		pending = make(map[string]bool)

		w.logger.Debug("flushing changes", "paths", batch)
		w.handler(ctx, batch)
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-timer.C:
			flush()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := watchDirRecursive(watcher, event.Name); err != nil {
						w.logger.Warn("failed to watch new directory", "dir", event.Name, "error", err)
					}
					continue
				}
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}

			targets := w.Map(event.Name)
			if len(targets) == 0 {
				continue
			}
			for _, t := range targets {
				pending[t] = true
			}

			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", "error", err)
		}
	}
}

// watchDirRecursive adds a directory and all subdirectories to the watcher.
func watchDirRecursive(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && skipDirs[d.Name()] {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}
