package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/bekkerfineart/gallery/internal/domain/entities"
	"github.com/bekkerfineart/gallery/internal/ports"
)

// ArtworkRepositoryImpl implements the ArtworkRepository interface on artworks.json
type ArtworkRepositoryImpl struct {
	coll *Collection[entities.Artwork]
}

// NewArtworkRepository creates a new artwork repository
func NewArtworkRepository(opts Options) *ArtworkRepositoryImpl {
	return &ArtworkRepositoryImpl{
		coll: NewCollection("artworks", entities.SeedArtworks, opts),
	}
}

var _ ports.ArtworkRepository = (*ArtworkRepositoryImpl)(nil)

func (r *ArtworkRepositoryImpl) List(ctx context.Context) ([]entities.Artwork, error) {
	artworks, err := r.coll.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("list artworks: %w", err)
	}
	return artworks, nil
}

func (r *ArtworkRepositoryImpl) GetByID(ctx context.Context, id string) (*entities.Artwork, error) {
	artwork, err := r.coll.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, entities.ErrArtworkNotFound
		}
		return nil, fmt.Errorf("get artwork by id: %w", err)
	}
	return artwork, nil
}

func (r *ArtworkRepositoryImpl) Create(ctx context.Context, artwork *entities.Artwork) error {
	if artwork.ID == "" {
		return entities.ErrMissingID
	}
	if artwork.Images == nil {
		artwork.Images = []string{}
	}
	if err := r.coll.Insert(ctx, *artwork, false); err != nil {
		if errors.Is(err, entities.ErrDuplicateID) {
			return err
		}
		return fmt.Errorf("create artwork: %w", err)
	}
	return nil
}

func (r *ArtworkRepositoryImpl) Update(ctx context.Context, artwork *entities.Artwork) error {
	if err := r.coll.Replace(ctx, *artwork); err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return entities.ErrArtworkNotFound
		}
		return fmt.Errorf("update artwork: %w", err)
	}
	return nil
}

func (r *ArtworkRepositoryImpl) Delete(ctx context.Context, id string) error {
	if err := r.coll.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete artwork: %w", err)
	}
	return nil
}

func (r *ArtworkRepositoryImpl) Reset(ctx context.Context) ([]entities.Artwork, error) {
	artworks, err := r.coll.Reset(ctx)
	if err != nil {
		return nil, fmt.Errorf("reset artworks: %w", err)
	}
	return artworks, nil
}

// Path is the backing data file
func (r *ArtworkRepositoryImpl) Path() string { return r.coll.Path() }
