package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/bekkerfineart/gallery/internal/domain/entities"
	"github.com/bekkerfineart/gallery/internal/ports"
)

// SaleRepositoryImpl implements the SaleRepository interface on sales.json
type SaleRepositoryImpl struct {
	coll *Collection[entities.Sale]
}

// NewSaleRepository creates a new sale repository
func NewSaleRepository(opts Options) *SaleRepositoryImpl {
	return &SaleRepositoryImpl{coll: NewCollection("sales", entities.SeedSales, opts)}
}

var _ ports.SaleRepository = (*SaleRepositoryImpl)(nil)

func (r *SaleRepositoryImpl) List(ctx context.Context) ([]entities.Sale, error) {
	sales, err := r.coll.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	return sales, nil
}

func (r *SaleRepositoryImpl) GetByID(ctx context.Context, id string) (*entities.Sale, error) {
	sale, err := r.coll.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, entities.ErrSaleNotFound
		}
		return nil, fmt.Errorf("get sale by id: %w", err)
	}
	return sale, nil
}

func (r *SaleRepositoryImpl) Create(ctx context.Context, sale *entities.Sale) error {
	if sale.ID == "" {
		return entities.ErrMissingID
	}
	if err := r.coll.Insert(ctx, *sale, false); err != nil {
		if errors.Is(err, entities.ErrDuplicateID) {
			return err
		}
		return fmt.Errorf("create sale: %w", err)
	}
	return nil
}

func (r *SaleRepositoryImpl) Update(ctx context.Context, sale *entities.Sale) error {
	if err := r.coll.Replace(ctx, *sale); err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return entities.ErrSaleNotFound
		}
		return fmt.Errorf("update sale: %w", err)
	}
	return nil
}

func (r *SaleRepositoryImpl) Delete(ctx context.Context, id string) error {
	if err := r.coll.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete sale: %w", err)
	}
	return nil
}

func (r *SaleRepositoryImpl) Reset(ctx context.Context) ([]entities.Sale, error) {
	sales, err := r.coll.Reset(ctx)
	if err != nil {
		return nil, fmt.Errorf("reset sales: %w", err)
	}
	return sales, nil
}

// ContactRepositoryImpl implements the ContactRepository interface on contacts.json.
// New messages are stored first.
type ContactRepositoryImpl struct {
	coll *Collection[entities.ContactMessage]
}

// NewContactRepository creates a new contact repository
func NewContactRepository(opts Options) *ContactRepositoryImpl {
	return &ContactRepositoryImpl{coll: NewCollection("contacts", entities.SeedContacts, opts)}
}

var _ ports.ContactRepository = (*ContactRepositoryImpl)(nil)

func (r *ContactRepositoryImpl) List(ctx context.Context) ([]entities.ContactMessage, error) {
	contacts, err := r.coll.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	return contacts, nil
}

func (r *ContactRepositoryImpl) GetByID(ctx context.Context, id string) (*entities.ContactMessage, error) {
	contact, err := r.coll.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, entities.ErrContactNotFound
		}
		return nil, fmt.Errorf("get contact by id: %w", err)
	}
	return contact, nil
}

func (r *ContactRepositoryImpl) Create(ctx context.Context, contact *entities.ContactMessage) error {
	if contact.ID == "" {
		return entities.ErrMissingID
	}
	if err := r.coll.Insert(ctx, *contact, true); err != nil {
		if errors.Is(err, entities.ErrDuplicateID) {
			return err
		}
		return fmt.Errorf("create contact: %w", err)
	}
	return nil
}

func (r *ContactRepositoryImpl) Update(ctx context.Context, contact *entities.ContactMessage) error {
	if err := r.coll.Replace(ctx, *contact); err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return entities.ErrContactNotFound
		}
		return fmt.Errorf("update contact: %w", err)
	}
	return nil
}

func (r *ContactRepositoryImpl) Delete(ctx context.Context, id string) error {
	if err := r.coll.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	return nil
}

// ActivityRepositoryImpl keeps the newest entities.MaxActivities activities in activities.json
type ActivityRepositoryImpl struct {
	coll *Collection[entities.Activity]
}

// NewActivityRepository creates a new activity repository
func NewActivityRepository(opts Options) *ActivityRepositoryImpl {
	return &ActivityRepositoryImpl{
		coll: NewCollection("activities", func() []entities.Activity { return []entities.Activity{} }, opts),
	}
}

var _ ports.ActivityRepository = (*ActivityRepositoryImpl)(nil)

func (r *ActivityRepositoryImpl) Append(ctx context.Context, activity *entities.Activity) error {
	err := r.coll.Mutate(ctx, ports.ChangeCreate, activity.ID, func(items []entities.Activity) ([]entities.Activity, error) {
		items = append([]entities.Activity{*activity}, items...)
		if len(items) > entities.MaxActivities {
			items = items[:entities.MaxActivities]
		}
		return items, nil
	})
	if err != nil {
		return fmt.Errorf("append activity: %w", err)
	}
	return nil
}

// List returns the activities newest first
func (r *ActivityRepositoryImpl) List(ctx context.Context) ([]entities.Activity, error) {
	activities, err := r.coll.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	sort.SliceStable(activities, func(i, j int) bool {
		return activities[i].Time().After(activities[j].Time())
	})
	return activities, nil
}

// ContentRepositoryImpl stores content.json, hero-slides.json and collage.json
type ContentRepositoryImpl struct {
	content *Document[entities.Content]
	slides  *Document[[]entities.HeroSlide]
	collage *Document[entities.Collage]
}

// NewContentRepository creates a new content repository
func NewContentRepository(opts Options) *ContentRepositoryImpl {
	return &ContentRepositoryImpl{
		content: NewDocument("content", entities.SeedContent, nil, opts),
		slides:  NewDocument("hero-slides", entities.SeedHeroSlides, nil, opts),
		collage: NewDocument("collage", entities.SeedCollage, nil, opts),
	}
}

var _ ports.ContentRepository = (*ContentRepositoryImpl)(nil)

func (r *ContentRepositoryImpl) GetContent(ctx context.Context) (*entities.Content, error) {
	content, err := r.content.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("get content: %w", err)
	}
	return &content, nil
}

func (r *ContentRepositoryImpl) SaveContent(ctx context.Context, content *entities.Content) error {
	if err := r.content.Save(ctx, *content); err != nil {
		return fmt.Errorf("save content: %w", err)
	}
	return nil
}

func (r *ContentRepositoryImpl) GetHeroSlides(ctx context.Context) ([]entities.HeroSlide, error) {
	slides, err := r.slides.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("get hero slides: %w", err)
	}
	if slides == nil {
		slides = []entities.HeroSlide{}
	}
	return slides, nil
}

func (r *ContentRepositoryImpl) SaveHeroSlides(ctx context.Context, slides []entities.HeroSlide) error {
	if slides == nil {
		slides = []entities.HeroSlide{}
	}
	if err := r.slides.Save(ctx, slides); err != nil {
		return fmt.Errorf("save hero slides: %w", err)
	}
	return nil
}

func (r *ContentRepositoryImpl) GetCollage(ctx context.Context) (*entities.Collage, error) {
	collage, err := r.collage.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("get collage: %w", err)
	}
	return &collage, nil
}

func (r *ContentRepositoryImpl) SaveCollage(ctx context.Context, collage *entities.Collage) error {
	if err := r.collage.Save(ctx, *collage); err != nil {
		return fmt.Errorf("save collage: %w", err)
	}
	return nil
}

// SettingsRepositoryImpl stores settings.json, always merged over the defaults
type SettingsRepositoryImpl struct {
	doc *Document[entities.Settings]
}

// NewSettingsRepository creates a new settings repository
func NewSettingsRepository(opts Options) *SettingsRepositoryImpl {
	return &SettingsRepositoryImpl{
		doc: NewDocument("settings", entities.DefaultSettings, entities.MergeSettings, opts),
	}
}

var _ ports.SettingsRepository = (*SettingsRepositoryImpl)(nil)

func (r *SettingsRepositoryImpl) Get(ctx context.Context) (*entities.Settings, error) {
	settings, err := r.doc.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	return &settings, nil
}

func (r *SettingsRepositoryImpl) Save(ctx context.Context, settings *entities.Settings) error {
	if err := r.doc.Save(ctx, *settings); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

func (r *SettingsRepositoryImpl) Reset(ctx context.Context) (*entities.Settings, error) {
	settings, err := r.doc.Reset(ctx)
	if err != nil {
		return nil, fmt.Errorf("reset settings: %w", err)
	}
	return &settings, nil
}
