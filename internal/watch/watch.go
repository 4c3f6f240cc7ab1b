// Package watch triggers index rebuilds when the indexed tree changes.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"devscope/internal/index"
)

// DefaultDebounce is how long events must settle before a rebuild runs.
const DefaultDebounce = 500 * time.Millisecond

// Watcher observes a tree and calls Rebuild once events settle. Edit
// bursts (saves, checkouts, generators) collapse into a single rebuild.
type Watcher struct {
	Root string
	// SkipDir is the index output directory. Changes under it are our own
	// writes and never trigger a rebuild.
	SkipDir  string
	Debounce time.Duration
	// Rebuild runs after the debounce window closes. Errors are logged and
	// watching continues.
	Rebuild func(ctx context.Context) error
	Logger  *slog.Logger
}

// Run watches until ctx is canceled. Directories are watched recursively;
// directories created while running are picked up from their create
// events.
func (w *Watcher) Run(ctx context.Context) error {
	logger := w.Logger
	if logger == nil {
		logger = slog.Default()
	}
	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer fw.Close()

	if err := w.addTree(fw, w.Root); err != nil {
		return err
	}
	logger.Info("watching for changes", "root", w.Root, "debounce", debounce)

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(evt) {
				continue
			}
			if evt.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(evt.Name); err == nil && info.IsDir() {
					if err := w.addTree(fw, evt.Name); err != nil {
						logger.Warn("cannot watch new directory", "path", evt.Name, "error", err)
					}
				}
			}
			logger.Debug("change event", "op", evt.Op.String(), "path", evt.Name)
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(debounce)

		case <-timer.C:
			logger.Info("changes settled, rebuilding index")
			if err := w.Rebuild(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				logger.Error("rebuild failed", "error", err)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "error", err)
		}
	}
}

// addTree watches root and every directory below it, honoring the same
// skip rules as the crawler.
func (w *Watcher) addTree(fw *fsnotify.Watcher, root string) error {
	skip := ""
	if w.SkipDir != "" {
		skip = filepath.Clean(w.SkipDir)
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if index.SkipDirName(d.Name()) {
			return filepath.SkipDir
		}
		if skip != "" && filepath.Clean(path) == skip {
			return filepath.SkipDir
		}
		if err := fw.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

// relevant filters chmod-only noise and our own index writes.
func (w *Watcher) relevant(evt fsnotify.Event) bool {
	if evt.Op == fsnotify.Chmod {
		return false
	}
	if w.SkipDir == "" {
		return true
	}
	skip := filepath.Clean(w.SkipDir)
	name := filepath.Clean(evt.Name)
	return name != skip && !strings.HasPrefix(name, skip+string(filepath.Separator))
}
