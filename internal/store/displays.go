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

// CreateDisplay stores a new display. An empty ID is assigned a UUID.
func (s *Store) CreateDisplay(_ context.Context, d *models.Display) error {
	return timed("create", "displays", func() error {
		if d.ID == "" {
			d.ID = uuid.NewString()
		}
		if d.Widgets == nil {
			d.Widgets = []string{}
		}
		if d.StatusBar.Elements == nil {
			d.StatusBar.Elements = []string{}
		}
		now := time.Now().UTC()
		d.CreatedAt = now
		d.UpdatedAt = now
		return s.put(displayKeyPrefix+d.ID, d)
	})
}

// GetDisplay retrieves a display by id.
func (s *Store) GetDisplay(_ context.Context, id string) (*models.Display, error) {
	var d models.Display
	err := timed("get", "displays", func() error {
		return s.get(displayKeyPrefix+id, &d)
	})
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ListDisplays returns all displays sorted by name.
func (s *Store) ListDisplays(_ context.Context) ([]models.Display, error) {
	var displays []models.Display
	err := timed("list", "displays", func() error {
		var err error
		displays, err = listDocs[models.Display](s, displayKeyPrefix)
		return err
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(displays, func(i, j int) bool { return displays[i].Name < displays[j].Name })
	return displays, nil
}

// PatchDisplay applies a partial update to a display and returns the
// updated document. Nil patch fields leave the stored value untouched.
func (s *Store) PatchDisplay(ctx context.Context, id string, patch models.DisplayPatch) (*models.Display, error) {
	d, err := s.GetDisplay(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		d.Name = *patch.Name
	}
	if patch.Widgets != nil {
		d.Widgets = *patch.Widgets
	}
	if patch.Layout != nil {
		d.Layout = *patch.Layout
	}
	if patch.StatusBar != nil {
		sb := *patch.StatusBar
		if sb.Elements == nil {
			sb.Elements = []string{}
		}
		d.StatusBar = sb
	}
	d.UpdatedAt = time.Now().UTC()
	err = timed("patch", "displays", func() error {
		return s.put(displayKeyPrefix+d.ID, d)
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

// DeleteDisplay removes a display.
func (s *Store) DeleteDisplay(_ context.Context, id string) error {
	return timed("delete", "displays", func() error {
		return s.delete(displayKeyPrefix + id)
	})
}

// DisplaysUsingLayout returns the ids of displays whose layout field
// references the given layout.
func (s *Store) DisplaysUsingLayout(ctx context.Context, layoutID string) ([]string, error) {
	displays, err := s.ListDisplays(ctx)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, d := range displays {
		if d.Layout == layoutID {
			ids = append(ids, d.ID)
		}
	}
	return ids, nil
}

// DisplaysShowingWidget returns the ids of displays on which the given
// widget is visible, either through a layout that positions it or
// through the legacy direct widget reference list.
func (s *Store) DisplaysShowingWidget(ctx context.Context, widgetID string) ([]string, error) {
	displays, err := s.ListDisplays(ctx)
	if err != nil {
		return nil, err
	}
	layouts, err := s.ListLayouts(ctx)
	if err != nil {
		return nil, err
	}

	layoutHasWidget := make(map[string]bool, len(layouts))
	for _, l := range layouts {
		for _, w := range l.Widgets {
			if w.WidgetID == widgetID {
				layoutHasWidget[l.ID] = true
				break
			}
		}
	}

	seen := make(map[string]bool)
	var ids []string
	for _, d := range displays {
		if layoutHasWidget[d.Layout] {
			if !seen[d.ID] {
				seen[d.ID] = true
				ids = append(ids, d.ID)
			}
			continue
		}
		for _, wid := range d.Widgets {
			if wid == widgetID && !seen[d.ID] {
				seen[d.ID] = true
				ids = append(ids, d.ID)
				break
			}
		}
	}
	return ids, nil
}
