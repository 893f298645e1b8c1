// Package watcher turns edits made to the data directory by other processes into
// change events, so connected replicas reload files changed behind the service's back.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bekkerfineart/gallery/internal/infrastructure/logger"
	"github.com/bekkerfineart/gallery/internal/ports"
)

// SelfWrites reports whether the service wrote path itself since a given time
type SelfWrites interface {
	WrittenSince(path string, since time.Time) bool
}

// Resolver maps a file path to the collection stored in it
type Resolver func(path string) (string, bool)

// DataWatcher watches one data directory
type DataWatcher struct {
	dir       string
	resolve   Resolver
	self      SelfWrites
	publisher ports.ChangePublisher
	debounce  time.Duration
	logger    *logger.Logger

	mu      sync.Mutex
	pending map[string]time.Time
}

// New creates a watcher. debounce is how long a file must stay quiet before its change
// is published.
func New(dir string, resolve Resolver, self SelfWrites, publisher ports.ChangePublisher, debounce time.Duration, log *logger.Logger) *DataWatcher {
	if log == nil {
		log = logger.NewNop()
	}
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	return &DataWatcher{
		dir:       dir,
		resolve:   resolve,
		self:      self,
		publisher: publisher,
		debounce:  debounce,
		logger:    log.WithComponent("data-watcher"),
		pending:   make(map[string]time.Time),
	}
}

// String names the watcher in supervisor logs
func (w *DataWatcher) String() string { return "data-watcher" }

// Serve watches until ctx is cancelled. It implements suture.Service.
func (w *DataWatcher) Serve(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	w.logger.Infow("Watching data directory", "dir", w.dir)

	tick := w.debounce / 5
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fw.Events:
			if !ok {
				return fmt.Errorf("watcher event channel closed")
			}
			w.handleEvent(event)

		case err, ok := <-fw.Errors:
			if !ok {
				return fmt.Errorf("watcher error channel closed")
			}
			w.logger.Warnw("Data watcher error", "error", err.Error())

		case now := <-ticker.C:
			w.flush(now)
		}
	}
}

func (w *DataWatcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}
	if _, ok := w.resolve(event.Name); !ok {
		return
	}

	w.mu.Lock()
	w.pending[filepath.Clean(event.Name)] = time.Now()
	w.mu.Unlock()
}

// flush publishes the files that have been quiet for the debounce window
func (w *DataWatcher) flush(now time.Time) {
	w.mu.Lock()
	settled := make(map[string]time.Time)
	for path, at := range w.pending {
		if now.Sub(at) >= w.debounce {
			settled[path] = at
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()

	for path, at := range settled {
		if w.self != nil && w.self.WrittenSince(path, at.Add(-w.debounce)) {
			continue
		}
		collection, ok := w.resolve(path)
		if !ok {
			continue
		}

		w.logger.Infow("External change detected", "file", path, "collection", collection)
		w.publisher.Publish(ports.ChangeEvent{
			Collection: collection,
			Action:     ports.ChangeExternal,
			Timestamp:  now.UTC(),
		})
	}
}
