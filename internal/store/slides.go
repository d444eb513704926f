// Tabula - Digital Signage Management and Display Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tabula

package store

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/tabula/internal/models"
)

// CreateSlide stores a new slide. An empty ID is assigned a UUID.
func (s *Store) CreateSlide(_ context.Context, sl *models.Slide) error {
	return timed("create", "slides", func() error {
		if sl.ID == "" {
			sl.ID = uuid.NewString()
		}
		if sl.DisplayIDs == nil {
			sl.DisplayIDs = []string{}
		}
		now := time.Now().UTC()
		sl.CreatedAt = now
		sl.UpdatedAt = now
		return s.put(slideKeyPrefix+sl.ID, sl)
	})
}

// GetSlide retrieves a slide by id.
func (s *Store) GetSlide(_ context.Context, id string) (*models.Slide, error) {
	var sl models.Slide
	err := timed("get", "slides", func() error {
		return s.get(slideKeyPrefix+id, &sl)
	})
	if err != nil {
		return nil, err
	}
	return &sl, nil
}

// ListSlides returns all slides sorted by name.
func (s *Store) ListSlides(_ context.Context) ([]models.Slide, error) {
	var slides []models.Slide
	err := timed("list", "slides", func() error {
		var err error
		slides, err = listDocs[models.Slide](s, slideKeyPrefix)
		return err
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].Name < slides[j].Name })
	return slides, nil
}

// UpdateSlide replaces a stored slide, preserving its creation time.
func (s *Store) UpdateSlide(ctx context.Context, sl *models.Slide) error {
	existing, err := s.GetSlide(ctx, sl.ID)
	if err != nil {
		return err
	}
	sl.CreatedAt = existing.CreatedAt
	sl.UpdatedAt = time.Now().UTC()
	if sl.DisplayIDs == nil {
		sl.DisplayIDs = []string{}
	}
	return timed("update", "slides", func() error {
		return s.put(slideKeyPrefix+sl.ID, sl)
	})
}

// DeleteSlide removes a slide.
func (s *Store) DeleteSlide(_ context.Context, id string) error {
	return timed("delete", "slides", func() error {
		return s.delete(slideKeyPrefix + id)
	})
}
