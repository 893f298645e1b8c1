package mirror

import (
	"context"
	"errors"
	"fmt"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bekkerfineart/gallery/internal/adapters/repository"
	"github.com/bekkerfineart/gallery/internal/domain/entities"
	"github.com/bekkerfineart/gallery/internal/infrastructure/config"
	"github.com/bekkerfineart/gallery/internal/infrastructure/events"
	"github.com/bekkerfineart/gallery/internal/infrastructure/logger"
	"github.com/bekkerfineart/gallery/internal/infrastructure/server"
	"github.com/bekkerfineart/gallery/internal/ports"
)

type gallery struct {
	url   string
	store *repository.Store
	hub   *events.Hub
}

func startGallery(t *testing.T) *gallery {
	t.Helper()
	log := logger.NewNop()
	hub := events.NewHub(log)
	store := repository.NewStore(repository.Options{Dir: t.TempDir(), Logger: log, Publisher: hub})

	cfg := &config.Config{
		App: config.AppConfig{Version: "test"},
		Admin: config.AdminConfig{
			Username:  "admin",
			Password:  "bekker2024",
			JWTSecret: "mirror-test",
			TokenTTL:  time.Hour,
			Issuer:    "bekker-gallery",
		},
		Security: config.SecurityConfig{
			CORSAllowedOrigins: "*",
			RateLimitRequests:  1000,
			RateLimitWindow:    time.Minute,
			MaxUploadSize:      10 * 1024 * 1024,
		},
	}
	s, err := server.New(cfg, store, hub, log)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	hubDone := make(chan struct{})
	go func() {
		_ = hub.RunWithContext(ctx)
		close(hubDone)
	}()

	srv := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		srv.Close()
		cancel()
		<-hubDone
	})
	return &gallery{url: srv.URL, store: store, hub: hub}
}

func openMirror(t *testing.T) *Mirror {
	t.Helper()
	m, err := Open(t.TempDir())
	require.NoError(t, err)
	return m
}

// offlineURL points at a server that has already shut down
func offlineURL(t *testing.T) string {
	srv := httptest.NewServer(nil)
	url := srv.URL
	srv.Close()
	return url
}

func TestMirror_PutGetRemove(t *testing.T) {
	m := openMirror(t)

	_, ok, err := m.Get(KeyArtworks)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Put(KeyArtworks, []byte(`[{"id":"w001"}]`)))
	require.NoError(t, m.Put(KeySettings, []byte(`{"theme":"dark"}`)))
	assert.Error(t, m.Put(KeyContent, []byte(`{"broken`)))

	data, ok, err := m.Get(KeyArtworks)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `[{"id":"w001"}]`, string(data))

	keys, err := m.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{KeyArtworks, KeySettings}, keys)

	require.NoError(t, m.Remove(KeyArtworks))
	require.NoError(t, m.Remove(KeyArtworks))
	_, ok, _ = m.Get(KeyArtworks)
	assert.False(t, ok)
}

func TestResourceFor(t *testing.T) {
	r, ok := ResourceFor("hero-slides")
	require.True(t, ok)
	assert.Equal(t, KeyHeroSlides, r.Key)
	assert.Equal(t, "/api/hero-slides", r.Path)

	_, ok = ResourceFor("activities")
	assert.False(t, ok)
	assert.Len(t, Resources(), 7)
}

func TestClient_ReadCachesAPIResponse(t *testing.T) {
	g := startGallery(t)
	m := openMirror(t)
	c := NewClient(g.url, m)

	artworks, source, err := c.Artworks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SourceAPI, source)
	assert.Len(t, artworks, 3)

	data, ok, err := m.Get(KeyArtworks)
	require.NoError(t, err)
	require.True(t, ok)
	var cached []entities.Artwork
	require.NoError(t, json.Unmarshal(data, &cached))
	assert.Equal(t, artworks, cached)
}

func TestClient_ReadFallsBackToMirrorThenSeed(t *testing.T) {
	m := openMirror(t)
	c := NewClient(offlineURL(t), m)
	ctx := context.Background()

	artworks, source, err := c.Artworks(ctx)
	require.NoError(t, err)
	assert.Equal(t, SourceSeed, source)
	assert.Equal(t, entities.SeedArtworks(), artworks)

	require.NoError(t, m.Put(KeyArtworks, []byte(`[{"id":"w900","title":"Cached","price":100,"status":"available"}]`)))
	artworks, source, err = c.Artworks(ctx)
	require.NoError(t, err)
	assert.Equal(t, SourceMirror, source)
	require.Len(t, artworks, 1)
	assert.Equal(t, "w900", artworks[0].ID)

	settings, source, err := c.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, SourceSeed, source)
	assert.Equal(t, entities.DefaultSettings(), settings)

	contacts, _, err := c.Contacts(ctx)
	require.NoError(t, err)
	assert.Empty(t, contacts)
}

func TestClient_WriteOfflineUpdatesMirror(t *testing.T) {
	m := openMirror(t)
	c := NewClient(offlineURL(t), m)
	ctx := context.Background()

	_, err := c.CreateArtwork(ctx, entities.Artwork{ID: "w777", Title: "Offline", Price: 900, Status: entities.ArtworkStatusAvailable})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOffline))

	var offline *OfflineError
	require.True(t, errors.As(err, &offline))
	assert.NotNil(t, offline.Err)

	artworks, source, err := c.Artworks(ctx)
	require.NoError(t, err)
	assert.Equal(t, SourceMirror, source)
	require.Len(t, artworks, 4)
	assert.Equal(t, "w777", artworks[3].ID)

	require.ErrorIs(t, c.DeleteArtwork(ctx, "w001"), ErrOffline)
	artworks, _, _ = c.Artworks(ctx)
	assert.Len(t, artworks, 3)

	require.ErrorIs(t, c.SaveSettings(ctx, entities.Settings{Theme: "dark", Currency: "EUR", MaxImageSize: 5, DateFormat: "YYYY-MM-DD"}), ErrOffline)
	settings, _, _ := c.Settings(ctx)
	assert.Equal(t, "EUR", settings.Currency)
}

func TestClient_WriteOnline(t *testing.T) {
	g := startGallery(t)
	m := openMirror(t)
	c := NewClient(g.url, m)
	ctx := context.Background()

	_, err := c.UpdateArtwork(ctx, entities.Artwork{ID: "w001", Title: "Renamed", Price: 1, Status: entities.ArtworkStatusAvailable})
	require.ErrorIs(t, err, ErrOffline, "admin writes need a token")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 401, apiErr.StatusCode)

	require.NoError(t, c.Login(ctx, "admin", "bekker2024"))

	artwork := entities.SeedArtworks()[0]
	artwork.Price = 24000
	_, err = c.UpdateArtwork(ctx, artwork)
	require.NoError(t, err)

	stored, err := g.store.Artworks.GetByID(ctx, "w001")
	require.NoError(t, err)
	assert.Equal(t, 24000.0, stored.Price)

	data, ok, err := m.Get(KeyArtworks)
	require.NoError(t, err)
	require.True(t, ok)
	var mirrored []entities.Artwork
	require.NoError(t, json.Unmarshal(data, &mirrored))
	assert.Equal(t, 24000.0, mirrored[0].Price)
}

func lastArtwork(t *testing.T, m *Mirror) entities.Artwork {
	t.Helper()
	data, ok, err := m.Get(KeyArtworks)
	require.NoError(t, err)
	require.True(t, ok)
	var artworks []entities.Artwork
	require.NoError(t, json.Unmarshal(data, &artworks))
	require.NotEmpty(t, artworks)
	return artworks[len(artworks)-1]
}

func TestClient_CreateMirrorsServerAssignedRecord(t *testing.T) {
	g := startGallery(t)
	m := openMirror(t)
	c := NewClient(g.url, m)
	ctx := context.Background()
	require.NoError(t, c.Login(ctx, "admin", "bekker2024"))

	created, err := c.CreateArtwork(ctx, entities.Artwork{Title: "Harbour at Dusk", Price: 8200})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, entities.ArtworkStatusAvailable, created.Status)

	onServer, err := g.store.Artworks.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, onServer[len(onServer)-1].ID, created.ID)

	mirrored := lastArtwork(t, m)
	assert.Equal(t, created.ID, mirrored.ID)
	assert.Equal(t, entities.ArtworkStatusAvailable, mirrored.Status)

	created.Price = 9000
	_, err = c.UpdateArtwork(ctx, *created)
	require.NoError(t, err)
	assert.Equal(t, 9000.0, lastArtwork(t, m).Price)

	require.NoError(t, c.DeleteArtwork(ctx, created.ID))
	assert.NotEqual(t, created.ID, lastArtwork(t, m).ID)

	sale, err := c.CreateSale(ctx, entities.Sale{ArtworkID: "w001", SaleDate: "2025-03-01", SalePrice: 23500})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sale.ID, "sale"))
	assert.Equal(t, entities.SaleStatusCompleted, sale.Status)

	sales, source, err := c.Sales(ctx)
	require.NoError(t, err)
	assert.Equal(t, SourceAPI, source)
	assert.Equal(t, sale.ID, sales[len(sales)-1].ID)
}

func TestClient_CreateOfflineAssignsLocalID(t *testing.T) {
	m := openMirror(t)
	c := NewClient(offlineURL(t), m)
	ctx := context.Background()

	created, err := c.CreateArtwork(ctx, entities.Artwork{Title: "Offline Study", Price: 500})
	require.ErrorIs(t, err, ErrOffline)
	require.True(t, strings.HasPrefix(created.ID, "w"))
	assert.Equal(t, entities.ArtworkStatusAvailable, created.Status)
	assert.Equal(t, created.ID, lastArtwork(t, m).ID)

	require.ErrorIs(t, c.DeleteArtwork(ctx, created.ID), ErrOffline)
	assert.NotEqual(t, created.ID, lastArtwork(t, m).ID)
}

func TestMirror_UpdateSerializesWriters(t *testing.T) {
	m := openMirror(t)
	c := NewClient(offlineURL(t), m)
	ctx := context.Background()

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := c.CreateArtwork(ctx, entities.Artwork{ID: fmt.Sprintf("w9%02d", i), Title: "Study", Price: 100})
			assert.ErrorIs(t, err, ErrOffline)
		}(i)
	}
	wg.Wait()

	artworks, source, err := c.Artworks(ctx)
	require.NoError(t, err)
	assert.Equal(t, SourceMirror, source)
	assert.Len(t, artworks, len(entities.SeedArtworks())+writers)
}

func TestClient_Cart(t *testing.T) {
	g := startGallery(t)
	m := openMirror(t)
	c := NewClient(g.url, m)
	ctx := context.Background()

	_, _, err := c.QuoteCart(ctx)
	assert.ErrorIs(t, err, entities.ErrEmptyCart)

	_, err = c.AddToCart("w001", entities.FramingNone)
	require.NoError(t, err)
	_, err = c.AddToCart("w001", entities.FramingNone)
	require.NoError(t, err)
	cart, err := c.AddToCart("w001", entities.FramingDark)
	require.NoError(t, err)
	require.Len(t, cart.Lines, 2)
	assert.Equal(t, 3, cart.ItemCount())

	quote, source, err := c.QuoteCart(ctx)
	require.NoError(t, err)
	assert.Equal(t, SourceAPI, source)
	assert.Equal(t, 23500.0*3+1000, quote.Total)

	cart, err = c.UpdateCartQuantity("w001", entities.FramingDark, 0)
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)

	_, err = c.AddToCart("w002", entities.FramingNone)
	require.NoError(t, err)
	_, _, err = c.QuoteCart(ctx)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr, "sold artworks are rejected by the API")
	assert.Equal(t, 400, apiErr.StatusCode)

	cart, err = c.RemoveFromCart("w002", entities.FramingNone)
	require.NoError(t, err)
	assert.Len(t, cart.Lines, 1)

	offline := NewClient(offlineURL(t), m)
	quote, source, err = offline.QuoteCart(ctx)
	require.NoError(t, err)
	assert.Equal(t, SourceSeed, source)
	assert.Equal(t, 47000.0, quote.Total)

	require.NoError(t, c.ClearCart())
	cart, err = c.Cart()
	require.NoError(t, err)
	assert.Empty(t, cart.Lines)
}

func TestClient_Pull(t *testing.T) {
	g := startGallery(t)
	m := openMirror(t)
	c := NewClient(g.url, m)
	ctx := context.Background()

	pulled, err := c.Pull(ctx)
	require.NoError(t, err)
	assert.Len(t, pulled, 5)

	require.NoError(t, c.Login(ctx, "admin", "bekker2024"))
	pulled, err = c.Pull(ctx)
	require.NoError(t, err)
	assert.Len(t, pulled, 7)

	keys, err := m.Keys()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{KeyArtworks, KeyHeroSlides, KeyContent, KeySales, KeyCollage, KeySettings, KeyContacts}, keys)

	_, err = NewClient(offlineURL(t), openMirror(t)).Pull(ctx)
	assert.Error(t, err)
}

func TestClient_WatchPropagatesChanges(t *testing.T) {
	g := startGallery(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	watcherMirror := openMirror(t)
	watcher := NewClient(g.url, watcherMirror)
	require.NoError(t, watcher.Login(ctx, "admin", "bekker2024"))

	changes := make(chan ports.ChangeEvent, 16)
	watchErr := make(chan error, 1)
	go func() {
		watchErr <- watcher.Watch(ctx, func(ev ports.ChangeEvent) { changes <- ev })
	}()
	require.Eventually(t, func() bool { return g.hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	writer := NewClient(g.url, openMirror(t))
	require.NoError(t, writer.Login(ctx, "admin", "bekker2024"))
	require.NoError(t, writer.DeleteSale(ctx, "sale001"))

	timeout := time.After(3 * time.Second)
	for seen := false; !seen; {
		select {
		case ev := <-changes:
			if ev.Collection == "sales" {
				assert.Equal(t, ports.ChangeDelete, ev.Action)
				seen = true
			}
		case <-timeout:
			t.Fatal("no change event received")
		}
	}

	data, ok, err := watcherMirror.Get(KeySales)
	require.NoError(t, err)
	require.True(t, ok)
	var sales []entities.Sale
	require.NoError(t, json.Unmarshal(data, &sales))
	require.Len(t, sales, 1)
	assert.Equal(t, "sale002", sales[0].ID)

	cancel()
	select {
	case err := <-watchErr:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("watch did not stop")
	}
}
