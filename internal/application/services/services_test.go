package services

import (
	"context"
	"testing"

	"github.com/bekkerfineart/gallery/internal/adapters/repository"
	"github.com/bekkerfineart/gallery/internal/infrastructure/logger"
)

type fixture struct {
	store      *repository.Store
	activities *ActivityService
	inventory  *InventoryService
	contacts   *ContactService
	content    *ContentService
	settings   *SettingsService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logger.NewNop()
	store := repository.NewStore(repository.Options{Dir: t.TempDir(), Logger: log})
	activities := NewActivityService(store.Activities, log)
	return &fixture{
		store:      store,
		activities: activities,
		inventory:  NewInventoryService(store.Artworks, store.Sales, activities, log),
		contacts:   NewContactService(store.Contacts, activities, log),
		content:    NewContentService(store.Content, activities, log),
		settings:   NewSettingsService(store.Settings, log),
	}
}

func (f *fixture) activityTypes(t *testing.T) []string {
	t.Helper()
	list, err := f.activities.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	types := make([]string, 0, len(list))
	for _, a := range list {
		types = append(types, string(a.Type))
	}
	return types
}
