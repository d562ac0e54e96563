// Package watch re-runs a callback when resource schema files change.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/simonhull/firebird-suite/quill/internal/logger"
	"github.com/simonhull/firebird-suite/quill/internal/schema"
)

// DefaultDebounce collapses editor save bursts into one run.
const DefaultDebounce = 200 * time.Millisecond

// Options configures a Watcher.
type Options struct {
	Debounce time.Duration
	Logger   logger.Logger
}

// Watcher watches a schema directory tree.
type Watcher struct {
	watcher  *fsnotify.Watcher
	root     string
	debounce time.Duration
	log      logger.Logger
}

// New watches root and every directory below it that Discover searches.
func New(root string, opts Options) (*Watcher, error) {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewSilentLogger()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	w := &Watcher{watcher: fw, root: root, debounce: opts.Debounce, log: opts.Logger}
	if err := w.addTree(root); err != nil {
		fw.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && schema.SkipDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

// relevant reports whether an event can change the resource set.
func relevant(event fsnotify.Event) bool {
	if !strings.HasSuffix(event.Name, schema.FileSuffix) {
		return false
	}
	return event.Has(fsnotify.Create) || event.Has(fsnotify.Write) ||
		event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
}

// Run blocks until ctx is done, calling fn after each burst of schema file
// changes has been quiet for the debounce interval. Errors from fn are
// logged and watching continues.
func (w *Watcher) Run(ctx context.Context, fn func(context.Context) error) error {
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if schema.SkipDir(filepath.Base(event.Name)) {
						continue
					}
					if err := w.addTree(event.Name); err != nil {
						w.log.Warn("Failed to watch new directory", logger.F("path", event.Name), logger.F("error", err))
					}
					continue
				}
			}
			if !relevant(event) {
				continue
			}
			w.log.Debug("Schema changed", logger.F("path", event.Name), logger.F("op", event.Op.String()))
			timer.Reset(w.debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("Watcher error", logger.F("error", err))

		case <-timer.C:
			if err := fn(ctx); err != nil && !errors.Is(err, context.Canceled) {
				w.log.Error("Synchronization failed", logger.F("error", err))
			}
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
