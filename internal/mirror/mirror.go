// Package mirror keeps a local copy of the gallery collections so a client keeps
// working while the API is unreachable. Reads prefer the API and fall back to the
// mirror, then to the built-in seed data. Writes go to the API first and always land
// in the mirror.
package mirror

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/goccy/go-json"

	"github.com/bekkerfineart/gallery/internal/domain/entities"
)

// Mirror keys, one JSON file each
const (
	KeyArtworks   = "bekker-artworks"
	KeyHeroSlides = "bekker-hero-slides"
	KeyContent    = "bekker-content"
	KeySales      = "bekker-sales"
	KeyCollage    = "bekker-collage"
	KeySettings   = "bekker-settings"
	KeyContacts   = "bekker-contacts"
	// KeyCart holds the local shopping cart; it has no API counterpart
	KeyCart = "bekker-cart"
)

// Resource ties a change feed collection to its API path and mirror key
type Resource struct {
	Collection string
	Key        string
	Path       string
	// Admin resources need a bearer token to read
	Admin bool
	seed  func() interface{}
}

// Seed returns the JSON encoding of the built-in default value
func (r Resource) Seed() ([]byte, error) {
	return json.Marshal(r.seed())
}

var resources = []Resource{
	{Collection: "artworks", Key: KeyArtworks, Path: "/api/artworks", seed: func() interface{} { return entities.SeedArtworks() }},
	{Collection: "hero-slides", Key: KeyHeroSlides, Path: "/api/hero-slides", seed: func() interface{} { return entities.SeedHeroSlides() }},
	{Collection: "content", Key: KeyContent, Path: "/api/content", seed: func() interface{} { return entities.SeedContent() }},
	{Collection: "sales", Key: KeySales, Path: "/api/sales", Admin: true, seed: func() interface{} { return entities.SeedSales() }},
	{Collection: "collage", Key: KeyCollage, Path: "/api/collage", seed: func() interface{} { return entities.SeedCollage() }},
	{Collection: "settings", Key: KeySettings, Path: "/api/settings", seed: func() interface{} { return entities.DefaultSettings() }},
	{Collection: "contacts", Key: KeyContacts, Path: "/api/contacts", Admin: true, seed: func() interface{} { return []entities.ContactMessage{} }},
}

// Resources lists every mirrored resource
func Resources() []Resource {
	out := make([]Resource, len(resources))
	copy(out, resources)
	return out
}

// ResourceFor finds the resource behind a change feed collection name
func ResourceFor(collection string) (Resource, bool) {
	for _, r := range resources {
		if r.Collection == collection {
			return r, true
		}
	}
	return Resource{}, false
}

func mustResource(collection string) Resource {
	r, ok := ResourceFor(collection)
	if !ok {
		panic("mirror: unknown collection " + collection)
	}
	return r
}

// Mirror is a directory of JSON values keyed by name. Access to one key is
// serialized; different keys do not block each other.
type Mirror struct {
	dir string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Open creates dir if needed
func Open(dir string) (*Mirror, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create mirror dir: %w", err)
	}
	return &Mirror{dir: dir, locks: make(map[string]*sync.Mutex)}, nil
}

func (m *Mirror) Dir() string { return m.dir }

func (m *Mirror) path(key string) string {
	return filepath.Join(m.dir, key+".json")
}

func (m *Mirror) lock(key string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[key]
	if !ok {
		l = &sync.Mutex{}
		m.locks[key] = l
	}
	return l
}

// Get returns the stored value for key. ok is false when nothing is stored.
func (m *Mirror) Get(key string) (data []byte, ok bool, err error) {
	l := m.lock(key)
	l.Lock()
	defer l.Unlock()
	return m.read(key)
}

// Put replaces the value for key. data must be valid JSON.
func (m *Mirror) Put(key string, data []byte) error {
	l := m.lock(key)
	l.Lock()
	defer l.Unlock()
	return m.write(key, data)
}

// Update reads the value for key, passes it to fn and stores the result, holding the
// key's lock throughout so concurrent updates are not lost. ok is false when nothing
// is stored yet. When fn fails nothing is written.
func (m *Mirror) Update(key string, fn func(current []byte, ok bool) ([]byte, error)) error {
	l := m.lock(key)
	l.Lock()
	defer l.Unlock()

	current, ok, err := m.read(key)
	if err != nil {
		return err
	}
	updated, err := fn(current, ok)
	if err != nil {
		return err
	}
	return m.write(key, updated)
}

func (m *Mirror) read(key string) ([]byte, bool, error) {
	data, err := os.ReadFile(m.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read mirror %s: %w", key, err)
	}
	return data, true, nil
}

func (m *Mirror) write(key string, data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("mirror %s: refusing to store invalid JSON", key)
	}

	tmp, err := os.CreateTemp(m.dir, "."+key+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write mirror %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write mirror %s: %w", key, err)
	}
	return os.Rename(tmp.Name(), m.path(key))
}

// Remove deletes the value for key. Removing a missing key is not an error.
func (m *Mirror) Remove(key string) error {
	l := m.lock(key)
	l.Lock()
	defer l.Unlock()

	if err := os.Remove(m.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Keys lists the stored keys in name order
func (m *Mirror) Keys() ([]string, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, err
	}
	var keys []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != ".json" {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(keys)
	return keys, nil
}
