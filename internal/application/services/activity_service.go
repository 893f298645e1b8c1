package services

import (
	"context"
	"fmt"
	"time"

	"github.com/bekkerfineart/gallery/internal/domain/entities"
	"github.com/bekkerfineart/gallery/internal/infrastructure/logger"
	"github.com/bekkerfineart/gallery/internal/ports"
)

// ActivityService records the dashboard activity feed
type ActivityService struct {
	repo   ports.ActivityRepository
	logger *logger.Logger
	now    func() time.Time
}

// NewActivityService creates a new activity service
func NewActivityService(repo ports.ActivityRepository, logger *logger.Logger) *ActivityService {
	return &ActivityService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// Record appends an activity. Failures are logged and returned; callers treat the feed
// as best effort and do not fail the operation that triggered it.
func (s *ActivityService) Record(ctx context.Context, kind entities.ActivityType, title, description string, metadata map[string]interface{}) (*entities.Activity, error) {
	activity := &entities.Activity{
		ID:          entities.NewActivityID(),
		Type:        kind,
		Title:       title,
		Description: description,
		Metadata:    metadata,
		Timestamp:   entities.Timestamp(s.now()),
	}

	if err := s.repo.Append(ctx, activity); err != nil {
		s.logger.Warnw("Failed to record activity", "type", kind, "error", err.Error())
		return nil, fmt.Errorf("failed to record activity: %w", err)
	}
	return activity, nil
}

// List returns the newest activities first
func (s *ActivityService) List(ctx context.Context) ([]entities.Activity, error) {
	activities, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	return activities, nil
}

// Feed returns the newest activities first, each with its age relative to now
func (s *ActivityService) Feed(ctx context.Context) ([]ports.ActivityEntry, error) {
	activities, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	entries := make([]ports.ActivityEntry, 0, len(activities))
	for _, a := range activities {
		entry := ports.ActivityEntry{Activity: a}
		if at := a.Time(); !at.IsZero() {
			entry.TimeAgo = entities.TimeAgo(now, at)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
