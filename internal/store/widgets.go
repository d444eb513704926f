// Tabula - Digital Signage Management and Display Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tabula

package store

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/tabula/internal/models"
)

// CreateWidget stores a new widget. An empty ID is assigned a UUID.
func (s *Store) CreateWidget(_ context.Context, w *models.Widget) error {
	return timed("create", "widgets", func() error {
		if w.ID == "" {
			w.ID = uuid.NewString()
		}
		now := time.Now().UTC()
		w.CreatedAt = now
		w.UpdatedAt = now
		return s.put(widgetKeyPrefix+w.ID, w)
	})
}

// GetWidget retrieves a widget by id.
func (s *Store) GetWidget(_ context.Context, id string) (*models.Widget, error) {
	var w models.Widget
	err := timed("get", "widgets", func() error {
		return s.get(widgetKeyPrefix+id, &w)
	})
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// ListWidgets returns all widgets sorted by name.
func (s *Store) ListWidgets(_ context.Context) ([]models.Widget, error) {
	var widgets []models.Widget
	err := timed("list", "widgets", func() error {
		var err error
		widgets, err = listDocs[models.Widget](s, widgetKeyPrefix)
		return err
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(widgets, func(i, j int) bool { return widgets[i].Name < widgets[j].Name })
	return widgets, nil
}

// UpdateWidget replaces a stored widget, preserving its creation time.
func (s *Store) UpdateWidget(ctx context.Context, w *models.Widget) error {
	existing, err := s.GetWidget(ctx, w.ID)
	if err != nil {
		return err
	}
	w.CreatedAt = existing.CreatedAt
	w.UpdatedAt = time.Now().UTC()
	return timed("update", "widgets", func() error {
		return s.put(widgetKeyPrefix+w.ID, w)
	})
}

// DeleteWidget removes a widget and strips its references from every
// layout and from display legacy widget lists.
func (s *Store) DeleteWidget(ctx context.Context, id string) error {
	if err := timed("delete", "widgets", func() error {
		return s.delete(widgetKeyPrefix + id)
	}); err != nil {
		return err
	}

	layouts, err := s.ListLayouts(ctx)
	if err != nil {
		return fmt.Errorf("widget cleanup: %w", err)
	}
	for i := range layouts {
		l := &layouts[i]
		kept := make([]models.LayoutWidget, 0, len(l.Widgets))
		removed := false
		for _, ref := range l.Widgets {
			if ref.WidgetID == id {
				removed = true
				continue
			}
			kept = append(kept, ref)
		}
		if !removed {
			continue
		}
		l.Widgets = kept
		if err := s.UpdateLayout(ctx, l); err != nil {
			return fmt.Errorf("strip widget from layout %s: %w", l.ID, err)
		}
	}

	displays, err := s.ListDisplays(ctx)
	if err != nil {
		return fmt.Errorf("widget cleanup: %w", err)
	}
	for i := range displays {
		d := &displays[i]
		kept := make([]string, 0, len(d.Widgets))
		removed := false
		for _, wid := range d.Widgets {
			if wid == id {
				removed = true
				continue
			}
			kept = append(kept, wid)
		}
		if !removed {
			continue
		}
		if _, err := s.PatchDisplay(ctx, d.ID, models.DisplayPatch{Widgets: &kept}); err != nil {
			return fmt.Errorf("strip widget from display %s: %w", d.ID, err)
		}
	}
	return nil
}
