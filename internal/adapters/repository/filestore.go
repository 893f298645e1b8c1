package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/bekkerfineart/gallery/internal/domain/entities"
	"github.com/bekkerfineart/gallery/internal/infrastructure/logger"
	"github.com/bekkerfineart/gallery/internal/infrastructure/metrics"
	"github.com/bekkerfineart/gallery/internal/ports"
)

// ErrRecordNotFound is returned by Collection when no record has the requested id
var ErrRecordNotFound = errors.New("record not found")

// errUnchanged lets a Mutate callback skip the write and the change event
var errUnchanged = errors.New("collection unchanged")

// Keyed is implemented by every record stored in a Collection
type Keyed interface {
	GetID() string
}

// Options are shared by all files of one data directory
type Options struct {
	Dir       string
	Logger    *logger.Logger
	Publisher ports.ChangePublisher
	Tracker   *WriteTracker
	Now       func() time.Time
}

func (o *Options) defaults() {
	if o.Logger == nil {
		o.Logger = logger.NewNop()
	}
	if o.Publisher == nil {
		o.Publisher = ports.NopPublisher
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// WriteTracker remembers when the service itself last wrote each data file so the
// directory watcher can tell its own writes from edits made by other processes.
type WriteTracker struct {
	mu     sync.Mutex
	writes map[string]time.Time
}

func NewWriteTracker() *WriteTracker {
	return &WriteTracker{writes: make(map[string]time.Time)}
}

func (t *WriteTracker) mark(path string, at time.Time) {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.writes[filepath.Clean(path)] = at
	t.mu.Unlock()
}

// WrittenSince reports whether path was written by the store at or after since
func (t *WriteTracker) WrittenSince(path string, since time.Time) bool {
	if t == nil {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	at, ok := t.writes[filepath.Clean(path)]
	return ok && !at.Before(since)
}

// jsonFile is one data file with its seed and lock. Every access holds mu; there is
// no locking across processes.
type jsonFile struct {
	name string
	path string
	opts Options
	mu   sync.Mutex
}

func newJSONFile(name string, opts Options) *jsonFile {
	opts.defaults()
	return &jsonFile{
		name: name,
		path: filepath.Join(opts.Dir, name+".json"),
		opts: opts,
	}
}

// read decodes the file into dst. A missing file is created from seed; a corrupt file
// is moved aside and recreated from seed. In both cases dst receives the seed.
func (f *jsonFile) read(dst interface{}, decode func([]byte) error, seed func() interface{}) error {
	data, err := os.ReadFile(f.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		metrics.StoreReseeds.WithLabelValues(f.name, "missing").Inc()
		return f.reseed(dst, seed)
	case err != nil:
		return fmt.Errorf("failed to read %s: %w", f.path, err)
	}

	if err := decode(data); err != nil {
		quarantine := fmt.Sprintf("%s.corrupt-%d", f.path, f.opts.Now().Unix())
		f.opts.Logger.Warnw("Data file is corrupt, reseeding",
			"file", f.path,
			"quarantine", quarantine,
			"error", err.Error(),
		)
		if renameErr := os.Rename(f.path, quarantine); renameErr != nil {
			return fmt.Errorf("failed to quarantine corrupt %s: %w", f.path, renameErr)
		}
		metrics.StoreReseeds.WithLabelValues(f.name, "corrupt").Inc()
		return f.reseed(dst, seed)
	}
	return nil
}

func (f *jsonFile) reseed(dst interface{}, seed func() interface{}) error {
	value := seed()
	if err := f.write(value, 0); err != nil {
		return err
	}
	// round-trip so dst is an independent copy of the seed
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}

// write atomically replaces the file with the indented JSON encoding of value
func (f *jsonFile) write(value interface{}, records int) (err error) {
	start := f.opts.Now()
	defer func() {
		result := "ok"
		if err != nil {
			result = "error"
		}
		metrics.StoreWrites.WithLabelValues(f.name, result).Inc()
		f.opts.Logger.LogStoreWrite(f.path, records, time.Since(start), err)
	}()

	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}

	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", f.name, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), "."+f.name+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	f.opts.Tracker.mark(f.path, f.opts.Now())
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", f.path, err)
	}
	return nil
}

func (f *jsonFile) publish(action, id string) {
	metrics.ChangeEvents.WithLabelValues(f.name, action).Inc()
	f.opts.Publisher.Publish(ports.ChangeEvent{
		Collection: f.name,
		Action:     action,
		ID:         id,
		Timestamp:  f.opts.Now().UTC(),
	})
}

// Collection is a JSON array file of keyed records
type Collection[T Keyed] struct {
	file *jsonFile
	seed func() []T
}

// NewCollection creates a collection stored in <dir>/<name>.json
func NewCollection[T Keyed](name string, seed func() []T, opts Options) *Collection[T] {
	return &Collection[T]{file: newJSONFile(name, opts), seed: seed}
}

// Name is the collection name used in change events
func (c *Collection[T]) Name() string { return c.file.name }

// Path is the backing file
func (c *Collection[T]) Path() string { return c.file.path }

func (c *Collection[T]) load() ([]T, error) {
	var items []T
	err := c.file.read(&items,
		func(data []byte) error { return json.Unmarshal(data, &items) },
		func() interface{} { return c.seed() },
	)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func (c *Collection[T]) save(items []T) error {
	if items == nil {
		items = []T{}
	}
	return c.file.write(items, len(items))
}

// All returns every record in file order
func (c *Collection[T]) All(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.file.mu.Lock()
	defer c.file.mu.Unlock()
	return c.load()
}

// Get returns the record with the given id or ErrRecordNotFound
func (c *Collection[T]) Get(ctx context.Context, id string) (*T, error) {
	items, err := c.All(ctx)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].GetID() == id {
			return &items[i], nil
		}
	}
	return nil, ErrRecordNotFound
}

// Insert adds a record at the end (or the front when prepend is set). Ids must be unique.
func (c *Collection[T]) Insert(ctx context.Context, item T, prepend bool) error {
	return c.Mutate(ctx, ports.ChangeCreate, item.GetID(), func(items []T) ([]T, error) {
		for _, existing := range items {
			if existing.GetID() == item.GetID() {
				return nil, entities.ErrDuplicateID
			}
		}
		if prepend {
			return append([]T{item}, items...), nil
		}
		return append(items, item), nil
	})
}

// Replace swaps the record having the same id
func (c *Collection[T]) Replace(ctx context.Context, item T) error {
	return c.Mutate(ctx, ports.ChangeUpdate, item.GetID(), func(items []T) ([]T, error) {
		for i := range items {
			if items[i].GetID() == item.GetID() {
				items[i] = item
				return items, nil
			}
		}
		return nil, ErrRecordNotFound
	})
}

// Delete removes the record with the given id. Deleting an unknown id is not an error
// and leaves the file untouched.
func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	return c.Mutate(ctx, ports.ChangeDelete, id, func(items []T) ([]T, error) {
		kept := make([]T, 0, len(items))
		for _, item := range items {
			if item.GetID() != id {
				kept = append(kept, item)
			}
		}
		if len(kept) == len(items) {
			return nil, errUnchanged
		}
		return kept, nil
	})
}

// Reset overwrites the file with the seed data
func (c *Collection[T]) Reset(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.file.mu.Lock()
	defer c.file.mu.Unlock()

	items := c.seed()
	if err := c.save(items); err != nil {
		return nil, err
	}
	c.file.publish(ports.ChangeReset, "")
	return items, nil
}

// Mutate loads the records, applies fn and writes the result back under the file lock.
// When fn returns an error nothing is written.
func (c *Collection[T]) Mutate(ctx context.Context, action, id string, fn func([]T) ([]T, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.file.mu.Lock()
	defer c.file.mu.Unlock()

	items, err := c.load()
	if err != nil {
		return err
	}
	updated, err := fn(items)
	if errors.Is(err, errUnchanged) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := c.save(updated); err != nil {
		return err
	}
	c.file.publish(action, id)
	return nil
}

// Document is a JSON file holding a single value
type Document[T any] struct {
	file   *jsonFile
	seed   func() T
	decode func([]byte) (T, error)
}

// NewDocument creates a document stored in <dir>/<name>.json. decode may be nil, in
// which case the file is decoded as a plain T.
func NewDocument[T any](name string, seed func() T, decode func([]byte) (T, error), opts Options) *Document[T] {
	if decode == nil {
		decode = func(data []byte) (T, error) {
			var v T
			err := json.Unmarshal(data, &v)
			return v, err
		}
	}
	return &Document[T]{file: newJSONFile(name, opts), seed: seed, decode: decode}
}

func (d *Document[T]) Name() string { return d.file.name }

func (d *Document[T]) Path() string { return d.file.path }

// Load returns the stored value, creating it from seed when missing
func (d *Document[T]) Load(ctx context.Context) (T, error) {
	var value T
	if err := ctx.Err(); err != nil {
		return value, err
	}
	d.file.mu.Lock()
	defer d.file.mu.Unlock()

	err := d.file.read(&value,
		func(data []byte) error {
			v, err := d.decode(data)
			if err != nil {
				return err
			}
			value = v
			return nil
		},
		func() interface{} { return d.seed() },
	)
	return value, err
}

// Save replaces the stored value
func (d *Document[T]) Save(ctx context.Context, value T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.file.mu.Lock()
	defer d.file.mu.Unlock()

	if err := d.file.write(value, 1); err != nil {
		return err
	}
	d.file.publish(ports.ChangeReplace, "")
	return nil
}

// Reset overwrites the stored value with the seed
func (d *Document[T]) Reset(ctx context.Context) (T, error) {
	value := d.seed()
	if err := ctx.Err(); err != nil {
		return value, err
	}
	d.file.mu.Lock()
	defer d.file.mu.Unlock()

	if err := d.file.write(value, 1); err != nil {
		return value, err
	}
	d.file.publish(ports.ChangeReset, "")
	return value, nil
}
