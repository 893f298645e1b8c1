package repository

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

	"github.com/bekkerfineart/gallery/internal/domain/entities"
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

func (r *recorder) all() []ports.ChangeEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ports.ChangeEvent(nil), r.events...)
}

func newOpts(t *testing.T) (Options, *recorder) {
	t.Helper()
	rec := &recorder{}
	return Options{Dir: t.TempDir(), Publisher: rec, Tracker: NewWriteTracker()}, rec
}

func TestCollection_SeedsMissingFile(t *testing.T) {
	opts, _ := newOpts(t)
	repo := NewArtworkRepository(opts)

	artworks, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, artworks, len(entities.SeedArtworks()))

	data, err := os.ReadFile(filepath.Join(opts.Dir, "artworks.json"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "[\n  {"), "file should be indented with two spaces")
}

func TestCollection_CorruptFileIsQuarantined(t *testing.T) {
	opts, _ := newOpts(t)
	path := filepath.Join(opts.Dir, "sales.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	repo := NewSaleRepository(opts)
	sales, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, sales, len(entities.SeedSales()))

	matches, err := filepath.Glob(path + ".corrupt-*")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	kept, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(kept))
}

func TestArtworkRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	opts, rec := newOpts(t)
	repo := NewArtworkRepository(opts)

	artwork := &entities.Artwork{ID: "w100", Title: "Harbour", Price: 5400, Status: entities.ArtworkStatusAvailable}
	require.NoError(t, repo.Create(ctx, artwork))
	assert.NotNil(t, artwork.Images)

	err := repo.Create(ctx, artwork)
	assert.ErrorIs(t, err, entities.ErrDuplicateID)

	assert.ErrorIs(t, repo.Create(ctx, &entities.Artwork{Title: "no id"}), entities.ErrMissingID)

	artwork.Price = 6000
	require.NoError(t, repo.Update(ctx, artwork))

	got, err := repo.GetByID(ctx, "w100")
	require.NoError(t, err)
	assert.Equal(t, 6000.0, got.Price)

	err = repo.Update(ctx, &entities.Artwork{ID: "missing"})
	assert.ErrorIs(t, err, entities.ErrArtworkNotFound)

	require.NoError(t, repo.Delete(ctx, "w100"))
	require.NoError(t, repo.Delete(ctx, "w100"))
	_, err = repo.GetByID(ctx, "w100")
	assert.ErrorIs(t, err, entities.ErrArtworkNotFound)

	actions := []string{}
	for _, e := range rec.all() {
		assert.Equal(t, "artworks", e.Collection)
		actions = append(actions, e.Action)
	}
	assert.Equal(t, []string{ports.ChangeCreate, ports.ChangeUpdate, ports.ChangeDelete, ports.ChangeDelete}, actions)
}

func TestArtworkRepository_Reset(t *testing.T) {
	ctx := context.Background()
	opts, _ := newOpts(t)
	repo := NewArtworkRepository(opts)

	require.NoError(t, repo.Delete(ctx, "w001"))
	artworks, err := repo.Reset(ctx)
	require.NoError(t, err)
	assert.Equal(t, entities.SeedArtworks(), artworks)

	listed, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, listed, len(entities.SeedArtworks()))
}

func TestCollection_DeleteAllWritesEmptyArray(t *testing.T) {
	ctx := context.Background()
	opts, _ := newOpts(t)
	repo := NewSaleRepository(opts)

	sales, err := repo.List(ctx)
	require.NoError(t, err)
	for _, s := range sales {
		require.NoError(t, repo.Delete(ctx, s.ID))
	}

	data, err := os.ReadFile(filepath.Join(opts.Dir, "sales.json"))
	require.NoError(t, err)
	assert.Equal(t, "[]", strings.TrimSpace(string(data)))
}

func TestCollection_DeleteUnknownIDLeavesFileAlone(t *testing.T) {
	ctx := context.Background()
	opts, rec := newOpts(t)
	repo := NewSaleRepository(opts)

	_, err := repo.List(ctx)
	require.NoError(t, err)
	path := filepath.Join(opts.Dir, "sales.json")
	before, err := os.Stat(path)
	require.NoError(t, err)
	events := len(rec.all())

	require.NoError(t, repo.Delete(ctx, "sale-missing"))

	after, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, before.ModTime(), after.ModTime())
	assert.Len(t, rec.all(), events)

	sales, err := repo.List(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, sales)
	require.NoError(t, repo.Delete(ctx, sales[0].ID))
	assert.Len(t, rec.all(), events+1)
}

func TestContactRepository_NewestFirst(t *testing.T) {
	ctx := context.Background()
	opts, _ := newOpts(t)
	repo := NewContactRepository(opts)

	require.NoError(t, repo.Create(ctx, &entities.ContactMessage{
		ID: "contact_new", Type: entities.ContactTypeGeneral, Name: "Ann", Email: "ann@example.com", Message: "Hi",
	}))

	contacts, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "contact_new", contacts[0].ID)
}

func TestActivityRepository_Capped(t *testing.T) {
	ctx := context.Background()
	opts, _ := newOpts(t)
	repo := NewActivityRepository(opts)
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < entities.MaxActivities+5; i++ {
		require.NoError(t, repo.Append(ctx, &entities.Activity{
			ID:        entities.NewActivityID(),
			Type:      entities.ActivityArtworkAdded,
			Title:     "added",
			Timestamp: entities.Timestamp(base.Add(time.Duration(i) * time.Minute)),
		}))
	}

	activities, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, activities, entities.MaxActivities)
	assert.Equal(t, entities.Timestamp(base.Add(time.Duration(entities.MaxActivities+4)*time.Minute)), activities[0].Timestamp)
}

func TestSettingsRepository_MergesDefaults(t *testing.T) {
	ctx := context.Background()
	opts, _ := newOpts(t)
	require.NoError(t, os.WriteFile(filepath.Join(opts.Dir, "settings.json"), []byte(`{"theme":"dark"}`), 0o644))

	repo := NewSettingsRepository(opts)
	settings, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "dark", settings.Theme)
	assert.Equal(t, 25, settings.MaxImageSize)
	assert.True(t, settings.AutoSave)

	reset, err := repo.Reset(ctx)
	require.NoError(t, err)
	assert.Equal(t, entities.DefaultSettings(), *reset)
}

func TestContentRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	opts, rec := newOpts(t)
	repo := NewContentRepository(opts)

	slides, err := repo.GetHeroSlides(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, slides)

	slides = append(slides, entities.HeroSlide{ID: "h9", Image: "https://cdn.example.com/h9.jpg", Headline: "New"})
	require.NoError(t, repo.SaveHeroSlides(ctx, slides))

	got, err := repo.GetHeroSlides(ctx)
	require.NoError(t, err)
	assert.Equal(t, slides, got)

	events := rec.all()
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, "hero-slides", last.Collection)
	assert.Equal(t, ports.ChangeReplace, last.Action)
}

func TestStore_CollectionForPath(t *testing.T) {
	opts, _ := newOpts(t)
	store := NewStore(opts)

	name, ok := store.CollectionForPath(filepath.Join(opts.Dir, "hero-slides.json"))
	assert.True(t, ok)
	assert.Equal(t, "hero-slides", name)

	_, ok = store.CollectionForPath(filepath.Join(opts.Dir, ".artworks.json.tmp-123"))
	assert.False(t, ok)
	_, ok = store.CollectionForPath(filepath.Join(opts.Dir, "notes.json"))
	assert.False(t, ok)
}

func TestWriteTracker(t *testing.T) {
	ctx := context.Background()
	opts, _ := newOpts(t)
	before := time.Now().Add(-time.Second)
	store := NewStore(opts)

	_, err := store.Artworks.List(ctx)
	require.NoError(t, err)
	assert.True(t, store.Tracker().WrittenSince(store.Artworks.Path(), before))
	assert.False(t, store.Tracker().WrittenSince(filepath.Join(opts.Dir, "sales.json"), before))
}

func TestStore_ResetAll(t *testing.T) {
	ctx := context.Background()
	opts, _ := newOpts(t)
	store := NewStore(opts)

	require.NoError(t, store.Contacts.Create(ctx, &entities.ContactMessage{ID: "c-x", Name: "x", Email: "x@example.com", Message: "m"}))
	require.NoError(t, store.ResetAll(ctx, false))

	contacts, err := store.Contacts.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "c-x", contacts[0].ID)

	require.NoError(t, store.ResetAll(ctx, true))
	contacts, err = store.Contacts.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, entities.SeedContacts(), contacts)
}
