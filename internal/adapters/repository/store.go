package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// Store bundles the repositories of one data directory
type Store struct {
	Artworks   *ArtworkRepositoryImpl
	Sales      *SaleRepositoryImpl
	Contacts   *ContactRepositoryImpl
	Activities *ActivityRepositoryImpl
	Content    *ContentRepositoryImpl
	Settings   *SettingsRepositoryImpl

	dir     string
	tracker *WriteTracker
}

// NewStore opens every data file under opts.Dir. Files are created lazily on first read.
func NewStore(opts Options) *Store {
	if opts.Tracker == nil {
		opts.Tracker = NewWriteTracker()
	}
	return &Store{
		Artworks:   NewArtworkRepository(opts),
		Sales:      NewSaleRepository(opts),
		Contacts:   NewContactRepository(opts),
		Activities: NewActivityRepository(opts),
		Content:    NewContentRepository(opts),
		Settings:   NewSettingsRepository(opts),
		dir:        opts.Dir,
		tracker:    opts.Tracker,
	}
}

// Dir is the data directory
func (s *Store) Dir() string { return s.dir }

// Tracker records the store's own writes
func (s *Store) Tracker() *WriteTracker { return s.tracker }

// Collections lists the names of every data file, without extension
func (s *Store) Collections() []string {
	return []string{
		s.Artworks.coll.Name(),
		s.Sales.coll.Name(),
		s.Contacts.coll.Name(),
		s.Activities.coll.Name(),
		s.Content.content.Name(),
		s.Content.slides.Name(),
		s.Content.collage.Name(),
		s.Settings.doc.Name(),
	}
}

// CollectionForPath maps a data file path to its collection name
func (s *Store) CollectionForPath(path string) (string, bool) {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || filepath.Ext(base) != ".json" {
		return "", false
	}
	name := strings.TrimSuffix(base, ".json")
	for _, c := range s.Collections() {
		if c == name {
			return name, true
		}
	}
	return "", false
}

// ResetAll restores the seeded collections and documents. Contacts and activities
// are left alone unless includeInbox is set.
func (s *Store) ResetAll(ctx context.Context, includeInbox bool) error {
	if _, err := s.Artworks.Reset(ctx); err != nil {
		return err
	}
	if _, err := s.Sales.Reset(ctx); err != nil {
		return err
	}
	if _, err := s.Settings.Reset(ctx); err != nil {
		return err
	}
	if err := s.ResetContent(ctx); err != nil {
		return err
	}
	if includeInbox {
		if _, err := s.Contacts.coll.Reset(ctx); err != nil {
			return fmt.Errorf("reset contacts: %w", err)
		}
		if _, err := s.Activities.coll.Reset(ctx); err != nil {
			return fmt.Errorf("reset activities: %w", err)
		}
	}
	return nil
}

// ResetContent restores the storefront copy, hero slides and collage
func (s *Store) ResetContent(ctx context.Context) error {
	if _, err := s.Content.content.Reset(ctx); err != nil {
		return fmt.Errorf("reset content: %w", err)
	}
	if _, err := s.Content.slides.Reset(ctx); err != nil {
		return fmt.Errorf("reset hero slides: %w", err)
	}
	if _, err := s.Content.collage.Reset(ctx); err != nil {
		return fmt.Errorf("reset collage: %w", err)
	}
	return nil
}
