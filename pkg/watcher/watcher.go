// Package watcher provides a recursive filesystem watcher used by the watch
// command to rerun maintenance tasks whenever Python sources change.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rotisserie/eris"
)

// Watcher observes a project tree and delivers debounced batches of changed
// paths on C. Only Python sources and the tool's own config files trigger
// batches; excluded directories are never watched.
type Watcher struct {
	C chan []string

	fsw      *fsnotify.Watcher
	root     string
	excludes []string
	debounce time.Duration
}

// relevantFiles are non-source files that should still trigger a rerun
var relevantFiles = []string{"pymake.yaml", "tasks.star", ".style.yapf", "pylintrc"}

func New(root string, excludes []string, debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, eris.Wrap(err, "Failed to create filesystem watcher")
	}

	w := &Watcher{
		C:        make(chan []string, 1),
		fsw:      fsw,
		root:     root,
		excludes: excludes,
		debounce: debounce,
	}

	err = w.addRecursive(root)
	if err != nil {
		fsw.Close()
		return nil, err
	}

	return w, nil
}

func (w *Watcher) skipDir(name string) bool {
	if name == "__pycache__" || strings.HasPrefix(name, ".") {
		return true
	}

	for _, excluded := range w.excludes {
		if name == excluded {
			return true
		}
	}
	return false
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if eris.Is(err, os.ErrNotExist) {
				return nil
			}
			return err
		}

		if !info.IsDir() {
			return nil
		}

		if path != root && w.skipDir(filepath.Base(path)) {
			return filepath.SkipDir
		}

		err = w.fsw.Add(path)
		if err != nil {
			return eris.Wrapf(err, "Failed to watch %s", path)
		}
		return nil
	})
}

func (w *Watcher) relevant(path string) bool {
	name := filepath.Base(path)
	if strings.HasSuffix(name, ".py") {
		return true
	}

	for _, item := range relevantFiles {
		if name == item {
			return true
		}
	}
	return false
}

// Run pumps filesystem events into debounced batches until the context is
// cancelled. It always returns a non-nil reason.
func (w *Watcher) Run(ctx context.Context) error {
	var pending []string
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return eris.New("watcher closed")
			}

			if event.Op.Has(fsnotify.Create) {
				info, err := os.Stat(event.Name)
				if err == nil && info.IsDir() {
					if !w.skipDir(filepath.Base(event.Name)) {
						// new directories need their own watch
						if err := w.addRecursive(event.Name); err != nil {
							return err
						}
					}
					continue
				}
			}

			if !w.relevant(event.Name) {
				continue
			}

			pending = append(pending, event.Name)
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			batch := dedupe(pending)
			pending = nil
			fire = nil

			select {
			case w.C <- batch:
			case <-ctx.Done():
				return ctx.Err()
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return eris.New("watcher closed")
			}
			return eris.Wrap(err, "filesystem watcher failed")
		}
	}
}

func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func dedupe(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	result := make([]string, 0, len(paths))
	for _, item := range paths {
		if !seen[item] {
			seen[item] = true
			result = append(result, item)
		}
	}
	return result
}
