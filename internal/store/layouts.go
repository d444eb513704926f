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

// CreateLayout stores a new layout. An empty ID is assigned a UUID.
func (s *Store) CreateLayout(_ context.Context, l *models.Layout) error {
	return timed("create", "layouts", func() error {
		if l.ID == "" {
			l.ID = uuid.NewString()
		}
		if l.Widgets == nil {
			l.Widgets = []models.LayoutWidget{}
		}
		if l.StatusBar.Elements == nil {
			l.StatusBar.Elements = []string{}
		}
		now := time.Now().UTC()
		l.CreatedAt = now
		l.UpdatedAt = now
		return s.put(layoutKeyPrefix+l.ID, l)
	})
}

// GetLayout retrieves a layout by id.
func (s *Store) GetLayout(_ context.Context, id string) (*models.Layout, error) {
	var l models.Layout
	err := timed("get", "layouts", func() error {
		return s.get(layoutKeyPrefix+id, &l)
	})
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// ListLayouts returns all layouts sorted by name.
func (s *Store) ListLayouts(_ context.Context) ([]models.Layout, error) {
	var layouts []models.Layout
	err := timed("list", "layouts", func() error {
		var err error
		layouts, err = listDocs[models.Layout](s, layoutKeyPrefix)
		return err
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(layouts, func(i, j int) bool { return layouts[i].Name < layouts[j].Name })
	return layouts, nil
}

// UpdateLayout replaces a stored layout document, preserving its
// creation time.
func (s *Store) UpdateLayout(ctx context.Context, l *models.Layout) error {
	existing, err := s.GetLayout(ctx, l.ID)
	if err != nil {
		return err
	}
	l.CreatedAt = existing.CreatedAt
	l.UpdatedAt = time.Now().UTC()
	if l.Widgets == nil {
		l.Widgets = []models.LayoutWidget{}
	}
	return timed("update", "layouts", func() error {
		return s.put(layoutKeyPrefix+l.ID, l)
	})
}

// DeleteLayout removes a layout and detaches it from every display
// that references it.
func (s *Store) DeleteLayout(ctx context.Context, id string) error {
	if err := timed("delete", "layouts", func() error {
		return s.delete(layoutKeyPrefix + id)
	}); err != nil {
		return err
	}

	displays, err := s.ListDisplays(ctx)
	if err != nil {
		return fmt.Errorf("layout cleanup: %w", err)
	}
	empty := ""
	for i := range displays {
		if displays[i].Layout != id {
			continue
		}
		if _, err := s.PatchDisplay(ctx, displays[i].ID, models.DisplayPatch{Layout: &empty}); err != nil {
			return fmt.Errorf("detach layout from display %s: %w", displays[i].ID, err)
		}
	}
	return nil
}

// AddLayoutWidget appends a positioned widget reference to a layout.
func (s *Store) AddLayoutWidget(ctx context.Context, layoutID string, ref models.LayoutWidget) (*models.Layout, error) {
	l, err := s.GetLayout(ctx, layoutID)
	if err != nil {
		return nil, err
	}
	l.Widgets = append(l.Widgets, ref)
	if err := s.UpdateLayout(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

// RepositionLayoutWidget updates the grid position of one widget
// reference inside a layout.
func (s *Store) RepositionLayoutWidget(ctx context.Context, layoutID string, ref models.LayoutWidget) (*models.Layout, error) {
	l, err := s.GetLayout(ctx, layoutID)
	if err != nil {
		return nil, err
	}
	found := false
	for i := range l.Widgets {
		if l.Widgets[i].WidgetID == ref.WidgetID {
			l.Widgets[i] = ref
			found = true
			break
		}
	}
	if !found {
		return nil, ErrNotFound
	}
	if err := s.UpdateLayout(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

// RemoveLayoutWidget removes a widget reference from a layout.
func (s *Store) RemoveLayoutWidget(ctx context.Context, layoutID, widgetID string) (*models.Layout, error) {
	l, err := s.GetLayout(ctx, layoutID)
	if err != nil {
		return nil, err
	}
	kept := l.Widgets[:0]
	found := false
	for _, w := range l.Widgets {
		if w.WidgetID == widgetID {
			found = true
			continue
		}
		kept = append(kept, w)
	}
	if !found {
		return nil, ErrNotFound
	}
	l.Widgets = kept
	if err := s.UpdateLayout(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}
