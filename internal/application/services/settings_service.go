package services

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/bekkerfineart/gallery/internal/domain/entities"
	"github.com/bekkerfineart/gallery/internal/infrastructure/logger"
	"github.com/bekkerfineart/gallery/internal/ports"
)

// SettingsService handles the dashboard preferences
type SettingsService struct {
	repo     ports.SettingsRepository
	validate *validator.Validate
	logger   *logger.Logger
}

// NewSettingsService creates a new settings service
func NewSettingsService(repo ports.SettingsRepository, logger *logger.Logger) *SettingsService {
	return &SettingsService{repo: repo, validate: validator.New(), logger: logger}
}

// Get returns the stored settings merged over the defaults
func (s *SettingsService) Get(ctx context.Context) (*entities.Settings, error) {
	settings, err := s.repo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return settings, nil
}

// Save merges a partial JSON settings object over the defaults and stores the result
func (s *SettingsService) Save(ctx context.Context, raw []byte) (*entities.Settings, error) {
	settings, err := entities.MergeSettings(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entities.ErrInvalidSettings, err)
	}
	if err := s.validate.Struct(settings); err != nil {
		return nil, fmt.Errorf("%w: %v", entities.ErrInvalidSettings, err)
	}
	if err := s.repo.Save(ctx, &settings); err != nil {
		return nil, fmt.Errorf("failed to save settings: %w", err)
	}
	s.logger.Infow("Settings saved", "theme", settings.Theme, "currency", settings.Currency)
	return &settings, nil
}

// Reset restores the default settings
func (s *SettingsService) Reset(ctx context.Context) (*entities.Settings, error) {
	settings, err := s.repo.Reset(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to reset settings: %w", err)
	}
	return settings, nil
}
