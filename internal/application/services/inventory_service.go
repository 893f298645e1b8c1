package services

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/bekkerfineart/gallery/internal/domain/entities"
	"github.com/bekkerfineart/gallery/internal/infrastructure/logger"
	"github.com/bekkerfineart/gallery/internal/ports"
)

// InventoryService handles artworks and sales
type InventoryService struct {
	artworkRepo ports.ArtworkRepository
	saleRepo    ports.SaleRepository
	activities  *ActivityService
	validate    *validator.Validate
	logger      *logger.Logger
	now         func() time.Time

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewInventoryService creates a new inventory service
func NewInventoryService(artworkRepo ports.ArtworkRepository, saleRepo ports.SaleRepository, activities *ActivityService, logger *logger.Logger) *InventoryService {
	return &InventoryService{
		artworkRepo: artworkRepo,
		saleRepo:    saleRepo,
		activities:  activities,
		validate:    validator.New(),
		logger:      logger,
		now:         time.Now,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// ListArtworks returns every artwork in storage order
func (s *InventoryService) ListArtworks(ctx context.Context) ([]entities.Artwork, error) {
	artworks, err := s.artworkRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list artworks: %w", err)
	}
	return artworks, nil
}

// GetArtwork retrieves an artwork by ID
func (s *InventoryService) GetArtwork(ctx context.Context, id string) (*entities.Artwork, error) {
	artwork, err := s.artworkRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("artwork not found: %w", err)
	}
	return artwork, nil
}

// CreateArtwork stores a new artwork, generating an id when none is given
func (s *InventoryService) CreateArtwork(ctx context.Context, artwork *entities.Artwork) (*entities.Artwork, error) {
	if artwork.ID == "" {
		artwork.ID = entities.NewArtworkID(s.now())
	}
	if artwork.Status == "" {
		artwork.Status = entities.ArtworkStatusAvailable
	}
	if artwork.Images == nil {
		artwork.Images = []string{}
	}
	if err := s.check(artwork); err != nil {
		return nil, err
	}

	if err := s.artworkRepo.Create(ctx, artwork); err != nil {
		return nil, fmt.Errorf("failed to create artwork: %w", err)
	}

	s.logger.Infow("Artwork created", "artwork_id", artwork.ID, "title", artwork.Title)
	_, _ = s.activities.Record(ctx, entities.ActivityArtworkAdded,
		fmt.Sprintf("New artwork added: %s", artwork.Title), "",
		map[string]interface{}{"artworkId": artwork.ID, "price": artwork.Price},
	)
	return artwork, nil
}

// UpdateArtwork replaces the stored artwork with the same id
func (s *InventoryService) UpdateArtwork(ctx context.Context, artwork *entities.Artwork) (*entities.Artwork, error) {
	if artwork.ID == "" {
		return nil, entities.ErrMissingID
	}
	if err := s.check(artwork); err != nil {
		return nil, err
	}
	if err := s.artworkRepo.Update(ctx, artwork); err != nil {
		return nil, fmt.Errorf("failed to update artwork: %w", err)
	}

	s.logger.Infow("Artwork updated", "artwork_id", artwork.ID)
	_, _ = s.activities.Record(ctx, entities.ActivityArtworkUpdated,
		fmt.Sprintf("Artwork updated: %s", artwork.Title), "",
		map[string]interface{}{"artworkId": artwork.ID},
	)
	return artwork, nil
}

// DeleteArtwork removes an artwork. Unknown ids are ignored.
func (s *InventoryService) DeleteArtwork(ctx context.Context, id string) error {
	if id == "" {
		return entities.ErrMissingID
	}
	if err := s.artworkRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete artwork: %w", err)
	}
	s.logger.Infow("Artwork deleted", "artwork_id", id)
	return nil
}

// ResetArtworks restores the seed inventory
func (s *InventoryService) ResetArtworks(ctx context.Context) ([]entities.Artwork, error) {
	artworks, err := s.artworkRepo.Reset(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to reset artworks: %w", err)
	}
	s.logger.Infow("Artworks reset to initial state", "count", len(artworks))
	return artworks, nil
}

// ListSales returns every sale in storage order
func (s *InventoryService) ListSales(ctx context.Context) ([]entities.Sale, error) {
	sales, err := s.saleRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}
	return sales, nil
}

// CreateSale stores a sale as given, generating an id when none is given
func (s *InventoryService) CreateSale(ctx context.Context, sale *entities.Sale) (*entities.Sale, error) {
	if sale.ID == "" {
		sale.ID = s.newSaleID()
	}
	if sale.Status == "" {
		sale.Status = entities.SaleStatusCompleted
	}
	if err := s.check(sale); err != nil {
		return nil, err
	}
	if err := s.saleRepo.Create(ctx, sale); err != nil {
		return nil, fmt.Errorf("failed to create sale: %w", err)
	}
	s.logger.Infow("Sale created", "sale_id", sale.ID, "artwork_id", sale.ArtworkID)
	return sale, nil
}

// UpdateSale replaces the stored sale with the same id
func (s *InventoryService) UpdateSale(ctx context.Context, sale *entities.Sale) (*entities.Sale, error) {
	if sale.ID == "" {
		return nil, entities.ErrMissingID
	}
	if err := s.check(sale); err != nil {
		return nil, err
	}
	if err := s.saleRepo.Update(ctx, sale); err != nil {
		return nil, fmt.Errorf("failed to update sale: %w", err)
	}
	return sale, nil
}

// DeleteSale removes a sale. Unknown ids are ignored.
func (s *InventoryService) DeleteSale(ctx context.Context, id string) error {
	if id == "" {
		return entities.ErrMissingID
	}
	if err := s.saleRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete sale: %w", err)
	}
	return nil
}

// ResetSales restores the seed sales
func (s *InventoryService) ResetSales(ctx context.Context) ([]entities.Sale, error) {
	sales, err := s.saleRepo.Reset(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to reset sales: %w", err)
	}
	return sales, nil
}

// RecordSale stores a completed sale and marks its artwork sold. Sold artworks are
// rejected, and the sale is removed again when the artwork cannot be updated.
func (s *InventoryService) RecordSale(ctx context.Context, req ports.RecordSaleRequest) (*entities.Sale, *entities.Artwork, error) {
	artwork, err := s.artworkRepo.GetByID(ctx, req.ArtworkID)
	if err != nil {
		return nil, nil, fmt.Errorf("artwork not found: %w", err)
	}
	if !artwork.IsAvailable() {
		return nil, nil, fmt.Errorf("%w: %s", entities.ErrArtworkUnavailable, artwork.ID)
	}

	title := req.ArtworkTitle
	if title == "" {
		title = artwork.Title
	}
	original := req.OriginalPrice
	if original == 0 {
		original = artwork.Price
	}

	sale := &entities.Sale{
		ID:             s.newSaleID(),
		ArtworkID:      artwork.ID,
		ArtworkTitle:   title,
		SaleDate:       req.SaleDate,
		OriginalPrice:  original,
		SalePrice:      req.SalePrice,
		CustomerName:   req.CustomerName,
		CustomerEmail:  req.CustomerEmail,
		CustomerPhone:  req.CustomerPhone,
		PaymentMethod:  req.PaymentMethod,
		DeliveryMethod: req.DeliveryMethod,
		Notes:          req.Notes,
		Status:         entities.SaleStatusCompleted,
	}

	if err := s.saleRepo.Create(ctx, sale); err != nil {
		return nil, nil, fmt.Errorf("failed to record sale: %w", err)
	}

	artwork.MarkSold(sale)
	if err := s.artworkRepo.Update(ctx, artwork); err != nil {
		if delErr := s.saleRepo.Delete(ctx, sale.ID); delErr != nil {
			s.logger.Errorw("Failed to remove sale after artwork update failed",
				"sale_id", sale.ID,
				"error", delErr.Error(),
			)
		}
		return nil, nil, fmt.Errorf("failed to mark artwork sold: %w", err)
	}

	s.logger.Infow("Sale recorded",
		"sale_id", sale.ID,
		"artwork_id", artwork.ID,
		"sale_price", sale.SalePrice,
	)

	_, _ = s.activities.Record(ctx, entities.ActivitySaleAdded,
		fmt.Sprintf("Sale recorded: %s", sale.ArtworkTitle),
		fmt.Sprintf("Sold to %s for R%.0f", sale.CustomerName, sale.SalePrice),
		map[string]interface{}{"saleId": sale.ID, "artworkId": artwork.ID, "amount": sale.SalePrice},
	)
	_, _ = s.activities.Record(ctx, entities.ActivityArtworkSold,
		fmt.Sprintf("Artwork sold: %s", artwork.Title), "",
		map[string]interface{}{"artworkId": artwork.ID},
	)

	return sale, artwork, nil
}

func (s *InventoryService) check(v interface{}) error {
	if err := s.validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", entities.ErrValidation, err)
	}
	return nil
}

func (s *InventoryService) newSaleID() string {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return entities.NewSaleID(s.now(), s.rng)
}
