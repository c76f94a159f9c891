// Package watcher reports changes to entity files under a data directory.
// Rapid events (editors often write several times per save) are coalesced
// into one batch per quiet period.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ersonp/mythos/internal/infrastructure/parsers"
	"github.com/ersonp/mythos/internal/infrastructure/source"
)

// DefaultDebounce is the quiet period before a batch of changes is reported.
const DefaultDebounce = 300 * time.Millisecond

// Watcher recursively watches a data directory for entity file changes.
type Watcher struct {
	root     string
	debounce time.Duration
	logger   *slog.Logger
}

// New creates a watcher for root. A non-positive debounce means
// DefaultDebounce; a nil logger discards output.
func New(root string, debounce time.Duration, logger *slog.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Watcher{root: root, debounce: debounce, logger: logger}
}

// Run watches until ctx is done, calling onChange with the sorted paths of
// the entity files and manifests that changed in each batch. onChange runs
// on the watching goroutine, so events arriving meanwhile are batched into
// the next call.
func (w *Watcher) Run(ctx context.Context, onChange func(paths []string)) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	if err := w.addTree(fw, w.root); err != nil {
		return err
	}

	pending := make(map[string]struct{})
	timer := time.NewTimer(w.debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}

			// New directories (new categories) must be watched too.
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if !ignoreDir(info.Name()) {
						if err := w.addTree(fw, event.Name); err != nil {
							w.logger.Warn("watch directory failed",
								slog.String("path", event.Name),
								slog.String("error", err.Error()))
						}
					}
					continue
				}
			}

			if !relevant(w.root, event) {
				continue
			}
			pending[event.Name] = struct{}{}
			timer.Reset(w.debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", slog.String("error", err.Error()))

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			pending = make(map[string]struct{})

			w.logger.Debug("data changed", slog.Int("files", len(paths)))
			onChange(paths)
		}
	}
}

// addTree adds dir and every non-hidden subdirectory to the watch list.
func (w *Watcher) addTree(fw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return fmt.Errorf("watching %s: %w", dir, err)
			}
			return nil // skip inaccessible paths
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && ignoreDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := fw.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

// ignoreDir skips hidden directories such as .mythos and .git.
func ignoreDir(name string) bool {
	return strings.HasPrefix(name, ".")
}

// relevant reports whether the event touches an entity file or manifest
// outside any hidden directory below root.
func relevant(root string, event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}

	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	if rel, err := filepath.Rel(root, filepath.Dir(event.Name)); err == nil {
		for _, part := range strings.Split(rel, string(filepath.Separator)) {
			if part != "." && part != ".." && ignoreDir(part) {
				return false
			}
		}
	}
	return base == source.ManifestFile || parsers.ForFile(base) != nil
}
