// Package watcher watches the static asset root for changes, with
// debouncing so a burst of writes produces one notification. In debug mode
// its events drive browser live reload; outside debug mode they can
// invalidate memoized bundle content in long-running processes.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/webpress/webpress/internal/logging"
)

// ChangeHandler receives the batch of paths that changed within one
// debounce window.
type ChangeHandler func(paths []string)

// Watcher wraps fsnotify with recursive directory registration and
// debounced change delivery.
type Watcher struct {
	fs       *fsnotify.Watcher
	delay    time.Duration
	logger   logging.Logger
	mutex    sync.Mutex
	handlers []ChangeHandler
	pending  map[string]struct{}
	timer    *time.Timer
}

// New creates a watcher that groups changes arriving within delay.
func New(delay time.Duration, logger logging.Logger) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Watcher{
		fs:      fs,
		delay:   delay,
		logger:  logger.WithComponent("watcher"),
		pending: make(map[string]struct{}),
	}, nil
}

// OnChange registers a handler invoked with each debounced batch.
func (w *Watcher) OnChange(handler ChangeHandler) {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	w.handlers = append(w.handlers, handler)
}

// AddRecursive watches root and every directory below it. Directories
// created later are picked up as their create events arrive.
func (w *Watcher) AddRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.fs.Add(path)
		}
		return nil
	})
}

// Start processes events until the context is cancelled.
func (w *Watcher) Start(ctx context.Context) {
	go w.loop(ctx)
}

func (w *Watcher) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handleEvent(ctx, event)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn(ctx, err, "watch error")
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	// Newly created directories need their own watch.
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.fs.Add(event.Name); err != nil {
				w.logger.Warn(ctx, err, "watching new directory", "path", event.Name)
			}
			return
		}
	}

	w.mutex.Lock()
	defer w.mutex.Unlock()

	w.pending[event.Name] = struct{}{}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.delay, w.flush)
}

func (w *Watcher) flush() {
	w.mutex.Lock()
	paths := make([]string, 0, len(w.pending))
	for path := range w.pending {
		paths = append(paths, path)
	}
	w.pending = make(map[string]struct{})
	handlers := make([]ChangeHandler, len(w.handlers))
	copy(handlers, w.handlers)
	w.mutex.Unlock()

	if len(paths) == 0 {
		return
	}
	for _, handler := range handlers {
		handler(paths)
	}
}

// Close stops the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	w.mutex.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mutex.Unlock()
	return w.fs.Close()
}
