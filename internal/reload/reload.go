// Package reload watches a program file and loads it again whenever it
// changes on disk.
package reload

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/howeyc/fsnotify"
	"github.com/retroenv/retrogolib/log"

	"github.com/tuboc/chip8vm/internal/loader"
)

// DefaultDebounce is how long the file must stay unchanged before it is
// reloaded. Editors and assemblers often write a file in several steps.
const DefaultDebounce = 100 * time.Millisecond

// Target receives reloaded program images.
type Target interface {
	Load(image []byte) error
}

// Watcher reloads one file into a Target.
type Watcher struct {
	Debounce time.Duration

	logger  *log.Logger
	path    string
	target  Target
	watcher *fsnotify.Watcher
}

// New starts watching the directory containing path. Changes are only
// acted on once Run is called.
func New(logger *log.Logger, path string, target Target) (*Watcher, error) {
	path, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := watcher.Watch(filepath.Dir(path)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(path), err)
	}
	return &Watcher{
		Debounce: DefaultDebounce,
		logger:   logger,
		path:     path,
		target:   target,
		watcher:  watcher,
	}, nil
}

// Run reloads the file after every change until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() { _ = w.watcher.Close() }()

	var reload <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case <-reload:
			reload = nil
			w.reload()

		case ev := <-w.watcher.Event:
			if ev != nil && filepath.Clean(ev.Name) == w.path && !ev.IsAttrib() {
				reload = time.After(w.Debounce)
			}

		case err := <-w.watcher.Error:
			w.logger.Warn("File watcher failed", log.Err(err))
		}
	}
}

func (w *Watcher) reload() {
	image, err := loader.Load(w.path)
	if err != nil {
		w.logger.Warn("Reloading program failed", log.String("path", w.path), log.Err(err))
		return
	}
	if err := w.target.Load(image); err != nil {
		return
	}
	w.logger.Info("Program reloaded", log.String("path", w.path), log.Int("size", len(image)))
}
