// Package watch re-runs work when a results file changes on disk.
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/huangsam/hydrocheck/internal/contract"
)

// DefaultDebounce coalesces the burst of events an editor or solver emits per save.
const DefaultDebounce = 500 * time.Millisecond

// RunFunc is invoked once per settled change.
type RunFunc func(ctx context.Context) error

// Watcher observes a single file through its parent directory, so atomic
// rename-into-place writes are seen as well as in-place writes.
type Watcher struct {
	path     string
	debounce time.Duration
	fsw      *fsnotify.Watcher
}

// New starts observing path. Events are only delivered once Run is called.
func New(path string, debounce time.Duration) (*Watcher, error) {
	if path == "" {
		return nil, errors.New("watch path cannot be empty")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}
	return &Watcher{path: abs, debounce: debounce, fsw: fsw}, nil
}

// Run blocks until ctx is done or fn returns an error. Each burst of changes
// to the file produces one call to fn after the debounce period.
func (w *Watcher) Run(ctx context.Context, fn RunFunc) error {
	defer func() { _ = w.fsw.Close() }()

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			timer.Reset(w.debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			contract.LogWarn("File watcher error", err)

		case <-timer.C:
			if err := fn(ctx); err != nil {
				return err
			}
		}
	}
}

// relevant reports whether event changes the watched file's contents.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
}

// Watch observes path and calls fn after each settled change until ctx is done.
func Watch(ctx context.Context, path string, debounce time.Duration, fn RunFunc) error {
	w, err := New(path, debounce)
	if err != nil {
		return err
	}
	return w.Run(ctx, fn)
}
