package ports

import (
	"context"
	"time"

	"github.com/bekkerfineart/gallery/internal/domain/entities"
)

// ArtworkRepository defines the interface for artwork data operations
type ArtworkRepository interface {
	List(ctx context.Context) ([]entities.Artwork, error)
	GetByID(ctx context.Context, id string) (*entities.Artwork, error)
	Create(ctx context.Context, artwork *entities.Artwork) error
	Update(ctx context.Context, artwork *entities.Artwork) error
	Delete(ctx context.Context, id string) error
	Reset(ctx context.Context) ([]entities.Artwork, error)
}

// SaleRepository defines the interface for sale data operations
type SaleRepository interface {
	List(ctx context.Context) ([]entities.Sale, error)
	GetByID(ctx context.Context, id string) (*entities.Sale, error)
	Create(ctx context.Context, sale *entities.Sale) error
	Update(ctx context.Context, sale *entities.Sale) error
	Delete(ctx context.Context, id string) error
	Reset(ctx context.Context) ([]entities.Sale, error)
}

// ContactRepository defines the interface for contact message operations
type ContactRepository interface {
	List(ctx context.Context) ([]entities.ContactMessage, error)
	GetByID(ctx context.Context, id string) (*entities.ContactMessage, error)
	Create(ctx context.Context, contact *entities.ContactMessage) error
	Update(ctx context.Context, contact *entities.ContactMessage) error
	Delete(ctx context.Context, id string) error
}

// ActivityRepository stores the capped dashboard activity feed
type ActivityRepository interface {
	Append(ctx context.Context, activity *entities.Activity) error
	List(ctx context.Context) ([]entities.Activity, error)
}

// ContentRepository covers the single-document storefront files
type ContentRepository interface {
	GetContent(ctx context.Context) (*entities.Content, error)
	SaveContent(ctx context.Context, content *entities.Content) error
	GetHeroSlides(ctx context.Context) ([]entities.HeroSlide, error)
	SaveHeroSlides(ctx context.Context, slides []entities.HeroSlide) error
	GetCollage(ctx context.Context) (*entities.Collage, error)
	SaveCollage(ctx context.Context, collage *entities.Collage) error
}

// SettingsRepository stores admin preferences
type SettingsRepository interface {
	Get(ctx context.Context) (*entities.Settings, error)
	Save(ctx context.Context, settings *entities.Settings) error
	Reset(ctx context.Context) (*entities.Settings, error)
}

// Change actions published on the change feed
const (
	ChangeCreate   = "create"
	ChangeUpdate   = "update"
	ChangeDelete   = "delete"
	ChangeReplace  = "replace"
	ChangeReset    = "reset"
	ChangeExternal = "external"
)

// ChangeEvent announces a write to one of the stored collections
type ChangeEvent struct {
	Collection string    `json:"collection"`
	Action     string    `json:"action"`
	ID         string    `json:"id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// ChangePublisher fans change events out to interested replicas
type ChangePublisher interface {
	Publish(event ChangeEvent)
}

// ChangePublisherFunc adapts a function to ChangePublisher
type ChangePublisherFunc func(ChangeEvent)

func (f ChangePublisherFunc) Publish(event ChangeEvent) { f(event) }

// NopPublisher drops every event
var NopPublisher ChangePublisher = ChangePublisherFunc(func(ChangeEvent) {})
