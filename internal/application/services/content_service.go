package services

import (
	"context"
	"fmt"

	"github.com/bekkerfineart/gallery/internal/domain/entities"
	"github.com/bekkerfineart/gallery/internal/infrastructure/logger"
	"github.com/bekkerfineart/gallery/internal/ports"
)

// ContentService handles the editable storefront copy, hero slides and collage
type ContentService struct {
	repo       ports.ContentRepository
	activities *ActivityService
	logger     *logger.Logger
}

// NewContentService creates a new content service
func NewContentService(repo ports.ContentRepository, activities *ActivityService, logger *logger.Logger) *ContentService {
	return &ContentService{
		repo:       repo,
		activities: activities,
		logger:     logger,
	}
}

func (s *ContentService) GetContent(ctx context.Context) (*entities.Content, error) {
	content, err := s.repo.GetContent(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load content: %w", err)
	}
	return content, nil
}

func (s *ContentService) SaveContent(ctx context.Context, content *entities.Content) error {
	if err := s.repo.SaveContent(ctx, content); err != nil {
		return fmt.Errorf("failed to save content: %w", err)
	}
	s.updated(ctx, "Website content updated", "content")
	return nil
}

func (s *ContentService) GetHeroSlides(ctx context.Context) ([]entities.HeroSlide, error) {
	slides, err := s.repo.GetHeroSlides(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load hero slides: %w", err)
	}
	return slides, nil
}

func (s *ContentService) SaveHeroSlides(ctx context.Context, slides []entities.HeroSlide) error {
	if err := s.repo.SaveHeroSlides(ctx, slides); err != nil {
		return fmt.Errorf("failed to save hero slides: %w", err)
	}
	s.updated(ctx, "Hero slides updated", "hero-slides")
	return nil
}

func (s *ContentService) GetCollage(ctx context.Context) (*entities.Collage, error) {
	collage, err := s.repo.GetCollage(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load collage: %w", err)
	}
	return collage, nil
}

func (s *ContentService) SaveCollage(ctx context.Context, collage *entities.Collage) error {
	if collage.Images == nil {
		collage.Images = []string{}
	}
	if err := s.repo.SaveCollage(ctx, collage); err != nil {
		return fmt.Errorf("failed to save collage: %w", err)
	}
	s.updated(ctx, "Collage updated", "collage")
	return nil
}

func (s *ContentService) updated(ctx context.Context, title, section string) {
	s.logger.Infow("Content saved", "section", section)
	_, _ = s.activities.Record(ctx, entities.ActivityContentUpdated, title, "",
		map[string]interface{}{"section": section},
	)
}
