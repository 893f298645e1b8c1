package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/bekkerfineart/gallery/internal/ports"
)

type recorder struct {
	mu     sync.Mutex
	events []ports.ChangeEvent
}

func (r *recorder) Publish(e ports.ChangeEvent) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recorder) snapshot() []ports.ChangeEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ports.ChangeEvent(nil), r.events...)
}

type selfWrites struct {
	mu    sync.Mutex
	paths map[string]time.Time
}

func (s *selfWrites) mark(path string) {
	s.mu.Lock()
	s.paths[filepath.Clean(path)] = time.Now()
	s.mu.Unlock()
}

func (s *selfWrites) WrittenSince(path string, since time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	at, ok := s.paths[filepath.Clean(path)]
	return ok && !at.Before(since)
}

func resolveJSON(path string) (string, bool) {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || filepath.Ext(base) != ".json" {
		return "", false
	}
	return strings.TrimSuffix(base, ".json"), true
}

func run(t *testing.T, w *DataWatcher) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Serve(ctx) }()
	// give fsnotify time to register the directory
	time.Sleep(50 * time.Millisecond)
	return cancel, done
}

func TestDataWatcher_PublishesExternalEdits(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	rec := &recorder{}
	w := New(dir, resolveJSON, &selfWrites{paths: map[string]time.Time{}}, rec, 50*time.Millisecond, nil)
	cancel, done := run(t, w)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "artworks.json"), []byte("[]"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	require.Eventually(t, func() bool { return len(rec.snapshot()) > 0 }, 2*time.Second, 20*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	events := rec.snapshot()
	require.Len(t, events, 1, "repeated writes to one file are debounced into one event")
	assert.Equal(t, "artworks", events[0].Collection)
	assert.Equal(t, ports.ChangeExternal, events[0].Action)
}

func TestDataWatcher_IgnoresOwnWrites(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	rec := &recorder{}
	self := &selfWrites{paths: map[string]time.Time{}}
	w := New(dir, resolveJSON, self, rec, 50*time.Millisecond, nil)
	cancel, done := run(t, w)

	path := filepath.Join(dir, "sales.json")
	self.mark(path)
	require.NoError(t, os.WriteFile(path, []byte("[]"), 0o644))

	time.Sleep(300 * time.Millisecond)
	cancel()
	<-done

	assert.Empty(t, rec.snapshot())
}
