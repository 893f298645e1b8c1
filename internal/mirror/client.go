package mirror

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"

	"github.com/bekkerfineart/gallery/internal/domain/entities"
	"github.com/bekkerfineart/gallery/internal/infrastructure/logger"
	"github.com/bekkerfineart/gallery/internal/ports"
)

// ErrOffline marks a write that reached the mirror but not the API
var ErrOffline = errors.New("gallery api unreachable")

// Source tells where a read was served from
type Source string

const (
	SourceAPI    Source = "api"
	SourceMirror Source = "mirror"
	SourceSeed   Source = "seed"
)

// APIError is a non-2xx response from the gallery API
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api returned %d", e.StatusCode)
	}
	return fmt.Sprintf("api returned %d: %s", e.StatusCode, e.Message)
}

// OfflineError wraps the API failure of a write that was applied to the mirror only
type OfflineError struct {
	Err error
}

func (e *OfflineError) Error() string { return "saved to mirror only: " + e.Err.Error() }

func (e *OfflineError) Unwrap() error { return e.Err }

func (e *OfflineError) Is(target error) bool { return target == ErrOffline }

// Client talks to the gallery API and keeps the mirror current
type Client struct {
	baseURL string
	http    *http.Client
	mirror  *Mirror
	logger  *logger.Logger

	mu    sync.RWMutex
	token string
}

// Option configures a Client
type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithToken sets the admin bearer token used for admin resources
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func WithLogger(l *logger.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client for the API at baseURL
func NewClient(baseURL string, m *Mirror, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		mirror:  m,
		logger:  logger.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.WithComponent("mirror")
	return c
}

// Mirror returns the local store
func (c *Client) Mirror() *Mirror { return c.mirror }

func (c *Client) authToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Login exchanges the admin credentials for a token and keeps it for later calls
func (c *Client) Login(ctx context.Context, username, password string) error {
	var resp ports.AuthResponse
	req := ports.LoginRequest{Username: username, Password: password}
	if err := c.do(ctx, http.MethodPost, "/api/admin/login", req, &resp); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	c.mu.Lock()
	c.token = resp.AccessToken
	c.mu.Unlock()
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token := c.authToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var body struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &body) == nil {
			apiErr.Message = body.Error
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if raw, ok := out.(*[]byte); ok {
		*raw = data
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// refresh copies one resource from the API into the mirror
func (c *Client) refresh(ctx context.Context, r Resource) ([]byte, error) {
	var data []byte
	if err := c.do(ctx, http.MethodGet, r.Path, nil, &data); err != nil {
		return nil, err
	}
	if err := c.mirror.Put(r.Key, data); err != nil {
		return nil, err
	}
	return data, nil
}

// cached returns the mirror copy of r, or its seed when the mirror has none
func (c *Client) cached(r Resource) ([]byte, Source, error) {
	data, ok, err := c.mirror.Get(r.Key)
	if err != nil {
		c.logger.Warnw("Mirror read failed", "key", r.Key, "error", err.Error())
	}
	if ok && json.Valid(data) {
		return data, SourceMirror, nil
	}
	seed, err := r.Seed()
	return seed, SourceSeed, err
}

func (c *Client) fetch(ctx context.Context, r Resource) ([]byte, Source, error) {
	data, err := c.refresh(ctx, r)
	if err == nil {
		return data, SourceAPI, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, "", ctxErr
	}
	c.logger.Warnw("API read failed, using mirror", "path", r.Path, "error", err.Error())
	return c.cached(r)
}

func read[T any](ctx context.Context, c *Client, collection string) (T, Source, error) {
	var value T
	r := mustResource(collection)

	data, source, err := c.fetch(ctx, r)
	if err != nil {
		return value, source, err
	}
	if err := json.Unmarshal(data, &value); err != nil {
		if source == SourceSeed {
			return value, source, err
		}
		c.logger.Warnw("Stored copy is not decodable, using seed", "key", r.Key, "error", err.Error())
		seed, err := r.Seed()
		if err != nil {
			return value, SourceSeed, err
		}
		var fallback T
		err = json.Unmarshal(seed, &fallback)
		return fallback, SourceSeed, err
	}
	return value, source, nil
}

func (c *Client) Artworks(ctx context.Context) ([]entities.Artwork, Source, error) {
	return read[[]entities.Artwork](ctx, c, "artworks")
}

func (c *Client) HeroSlides(ctx context.Context) ([]entities.HeroSlide, Source, error) {
	return read[[]entities.HeroSlide](ctx, c, "hero-slides")
}

func (c *Client) Content(ctx context.Context) (entities.Content, Source, error) {
	return read[entities.Content](ctx, c, "content")
}

func (c *Client) Collage(ctx context.Context) (entities.Collage, Source, error) {
	return read[entities.Collage](ctx, c, "collage")
}

// Settings are merged over the defaults like the server does
func (c *Client) Settings(ctx context.Context) (entities.Settings, Source, error) {
	r := mustResource("settings")
	data, source, err := c.fetch(ctx, r)
	if err != nil {
		return entities.DefaultSettings(), source, err
	}
	settings, err := entities.MergeSettings(data)
	if err != nil {
		return entities.DefaultSettings(), SourceSeed, nil
	}
	return settings, source, nil
}

func (c *Client) Sales(ctx context.Context) ([]entities.Sale, Source, error) {
	return read[[]entities.Sale](ctx, c, "sales")
}

func (c *Client) Contacts(ctx context.Context) ([]entities.ContactMessage, Source, error) {
	return read[[]entities.ContactMessage](ctx, c, "contacts")
}

// write sends the request to the API, decoding a successful response into out, and
// then applies update to the mirror copy under the key lock. update runs after the API
// call, so it can tell from out whether the API accepted the write. The mirror is
// updated even when the API call fails; the API error comes back wrapped in an
// OfflineError.
func (c *Client) write(ctx context.Context, collection, method, path string, body, out interface{}, update func([]byte) ([]byte, error)) error {
	r := mustResource(collection)
	apiErr := c.do(ctx, method, path, body, out)
	if apiErr != nil && ctx.Err() != nil {
		return ctx.Err()
	}

	err := c.mirror.Update(r.Key, func(current []byte, ok bool) ([]byte, error) {
		if !ok || !json.Valid(current) {
			seed, err := r.Seed()
			if err != nil {
				return nil, err
			}
			current = seed
		}
		return update(current)
	})
	if err != nil {
		return err
	}

	if apiErr != nil {
		c.logger.Warnw("API write failed, saved to mirror only",
			"method", method,
			"path", path,
			"error", apiErr.Error(),
		)
		return &OfflineError{Err: apiErr}
	}
	return nil
}

type keyed interface {
	GetID() string
}

// Response envelopes of the admin write endpoints
type (
	artworkEnvelope struct {
		Artwork *entities.Artwork `json:"artwork"`
	}
	saleEnvelope struct {
		Sale *entities.Sale `json:"sale"`
	}
	settingsEnvelope struct {
		Settings *entities.Settings `json:"settings"`
	}
)

func replaceWith(value interface{}) func([]byte) ([]byte, error) {
	return func([]byte) ([]byte, error) { return json.Marshal(value) }
}

func editList[T keyed](edit func([]T) []T) func([]byte) ([]byte, error) {
	return func(data []byte) ([]byte, error) {
		var items []T
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, err
		}
		items = edit(items)
		if items == nil {
			items = []T{}
		}
		return json.Marshal(items)
	}
}

func appendItem[T keyed](item T) func([]byte) ([]byte, error) {
	return editList(func(items []T) []T { return append(items, item) })
}

func replaceItem[T keyed](item T) func([]byte) ([]byte, error) {
	return editList(func(items []T) []T {
		for i := range items {
			if items[i].GetID() == item.GetID() {
				items[i] = item
			}
		}
		return items
	})
}

func removeItem[T keyed](id string) func([]byte) ([]byte, error) {
	return editList(func(items []T) []T {
		kept := items[:0]
		for _, item := range items {
			if item.GetID() != id {
				kept = append(kept, item)
			}
		}
		return kept
	})
}

// CreateArtwork adds an artwork and returns the record as mirrored. When the API
// accepts it that is the server's copy, with the id and defaults it assigned.
// Offline, the local record is kept and gets an id of the same form when it has none.
func (c *Client) CreateArtwork(ctx context.Context, artwork entities.Artwork) (*entities.Artwork, error) {
	var resp artworkEnvelope
	err := c.write(ctx, "artworks", http.MethodPost, "/api/artworks", artwork, &resp, func(data []byte) ([]byte, error) {
		if resp.Artwork != nil {
			artwork = *resp.Artwork
		} else {
			prepareArtwork(&artwork, time.Now())
		}
		return appendItem(artwork)(data)
	})
	return &artwork, err
}

func (c *Client) UpdateArtwork(ctx context.Context, artwork entities.Artwork) (*entities.Artwork, error) {
	var resp artworkEnvelope
	err := c.write(ctx, "artworks", http.MethodPut, "/api/artworks", artwork, &resp, func(data []byte) ([]byte, error) {
		if resp.Artwork != nil {
			artwork = *resp.Artwork
		}
		return replaceItem(artwork)(data)
	})
	return &artwork, err
}

func (c *Client) DeleteArtwork(ctx context.Context, id string) error {
	return c.write(ctx, "artworks", http.MethodDelete, "/api/artworks?id="+url.QueryEscape(id), nil, nil, removeItem[entities.Artwork](id))
}

// CreateSale adds a sale; see CreateArtwork for which record ends up in the mirror
func (c *Client) CreateSale(ctx context.Context, sale entities.Sale) (*entities.Sale, error) {
	var resp saleEnvelope
	err := c.write(ctx, "sales", http.MethodPost, "/api/sales", sale, &resp, func(data []byte) ([]byte, error) {
		if resp.Sale != nil {
			sale = *resp.Sale
		} else {
			prepareSale(&sale, time.Now())
		}
		return appendItem(sale)(data)
	})
	return &sale, err
}

func (c *Client) UpdateSale(ctx context.Context, sale entities.Sale) (*entities.Sale, error) {
	var resp saleEnvelope
	err := c.write(ctx, "sales", http.MethodPut, "/api/sales", sale, &resp, func(data []byte) ([]byte, error) {
		if resp.Sale != nil {
			sale = *resp.Sale
		}
		return replaceItem(sale)(data)
	})
	return &sale, err
}

func (c *Client) DeleteSale(ctx context.Context, id string) error {
	return c.write(ctx, "sales", http.MethodDelete, "/api/sales?id="+url.QueryEscape(id), nil, nil, removeItem[entities.Sale](id))
}

func (c *Client) SaveHeroSlides(ctx context.Context, slides []entities.HeroSlide) error {
	return c.write(ctx, "hero-slides", http.MethodPut, "/api/hero-slides", slides, nil, replaceWith(slides))
}

func (c *Client) SaveContent(ctx context.Context, content entities.Content) error {
	return c.write(ctx, "content", http.MethodPut, "/api/content", content, nil, replaceWith(content))
}

func (c *Client) SaveCollage(ctx context.Context, collage entities.Collage) error {
	return c.write(ctx, "collage", http.MethodPut, "/api/collage", collage, nil, replaceWith(collage))
}

// SaveSettings mirrors the settings the server stored after merging over defaults
func (c *Client) SaveSettings(ctx context.Context, settings entities.Settings) error {
	var resp settingsEnvelope
	return c.write(ctx, "settings", http.MethodPut, "/api/settings", settings, &resp, func(data []byte) ([]byte, error) {
		if resp.Settings != nil {
			settings = *resp.Settings
		}
		return json.Marshal(settings)
	})
}

// prepareArtwork fills what the server would for a record created offline
func prepareArtwork(a *entities.Artwork, now time.Time) {
	if a.ID == "" {
		a.ID = entities.NewArtworkID(now)
	}
	if a.Status == "" {
		a.Status = entities.ArtworkStatusAvailable
	}
	if a.Images == nil {
		a.Images = []string{}
	}
}

func prepareSale(s *entities.Sale, now time.Time) {
	if s.ID == "" {
		s.ID = entities.NewSaleID(now, nil)
	}
	if s.Status == "" {
		s.Status = entities.SaleStatusCompleted
	}
}

// Pull refreshes every readable resource concurrently. Admin resources are skipped
// when the client has no token. The first failure cancels the rest.
func (c *Client) Pull(ctx context.Context) ([]Resource, error) {
	var (
		mu     sync.Mutex
		pulled []Resource
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, r := range resources {
		r := r
		if r.Admin && c.authToken() == "" {
			continue
		}
		g.Go(func() error {
			if _, err := c.refresh(gctx, r); err != nil {
				return fmt.Errorf("pull %s: %w", r.Collection, err)
			}
			mu.Lock()
			pulled = append(pulled, r)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return pulled, err
	}
	return pulled, nil
}
