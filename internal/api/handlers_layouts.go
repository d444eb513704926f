// Tabula - Digital Signage Management and Display Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tabula

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/tabula/internal/logging"
	"github.com/tomtom215/tabula/internal/models"
)

type createLayoutRequest struct {
	Name        string               `json:"name" validate:"required,min=1,max=200"`
	Description string               `json:"description,omitempty" validate:"max=1000"`
	Orientation string               `json:"orientation,omitempty" validate:"omitempty,oneof=landscape portrait"`
	LayoutType  string               `json:"layoutType,omitempty" validate:"omitempty,oneof=spaced compact"`
	Widgets     []models.LayoutWidget `json:"widgets,omitempty"`
	StatusBar   *models.StatusBar    `json:"statusBar,omitempty"`
	IsTemplate  bool                 `json:"isTemplate,omitempty"`
	GridConfig  *models.GridConfig   `json:"gridConfig,omitempty"`
}

type updateLayoutRequest struct {
	Name        string                `json:"name" validate:"required,min=1,max=200"`
	Description string                `json:"description,omitempty" validate:"max=1000"`
	Orientation string                `json:"orientation,omitempty" validate:"omitempty,oneof=landscape portrait"`
	LayoutType  string                `json:"layoutType,omitempty" validate:"omitempty,oneof=spaced compact"`
	Widgets     []models.LayoutWidget `json:"widgets"`
	StatusBar   *models.StatusBar     `json:"statusBar,omitempty"`
	IsActive    bool                  `json:"isActive,omitempty"`
	IsTemplate  bool                  `json:"isTemplate,omitempty"`
	GridConfig  *models.GridConfig    `json:"gridConfig,omitempty"`
}

type layoutWidgetRequest struct {
	WidgetID string `json:"widgetId" validate:"required"`
	X        int    `json:"x" validate:"gte=0"`
	Y        int    `json:"y" validate:"gte=0"`
	W        int    `json:"w" validate:"gte=1"`
	H        int    `json:"h" validate:"gte=1"`
}

// defaultGridConfig matches the grid the rendering client assumes when
// a layout does not carry one.
func defaultGridConfig() models.GridConfig {
	return models.GridConfig{
		Cols:      12,
		Rows:      12,
		Margin:    [2]int{8, 8},
		RowHeight: 60,
	}
}

// ListLayouts handles GET /api/v1/layouts.
func (h *Handler) ListLayouts(w http.ResponseWriter, r *http.Request) {
	layouts, err := h.store.ListLayouts(r.Context())
	if err != nil {
		WriteStoreError(w, r, err)
		return
	}
	NewResponseWriter(w, r).SuccessWithPagination(layouts, &PaginationMeta{
		Count: len(layouts),
		Total: int64(len(layouts)),
	})
}

// CreateLayout handles POST /api/v1/layouts.
func (h *Handler) CreateLayout(w http.ResponseWriter, r *http.Request) {
	var req createLayoutRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	layout := &models.Layout{
		Name:        req.Name,
		Description: req.Description,
		Orientation: models.Orientation(req.Orientation),
		LayoutType:  models.LayoutType(req.LayoutType),
		Widgets:     req.Widgets,
		IsTemplate:  req.IsTemplate,
		CreatorID:   creatorID(r),
		GridConfig:  defaultGridConfig(),
	}
	if layout.Orientation == "" {
		layout.Orientation = models.OrientationLandscape
	}
	if layout.LayoutType == "" {
		layout.LayoutType = models.LayoutSpaced
	}
	if req.StatusBar != nil {
		layout.StatusBar = *req.StatusBar
	}
	if req.GridConfig != nil {
		layout.GridConfig = *req.GridConfig
	}

	if err := h.store.CreateLayout(r.Context(), layout); err != nil {
		writeStoreErr(w, r, err, "layout")
		return
	}
	NewResponseWriter(w, r).Created(layout)
}

// GetLayout handles GET /api/v1/layouts/{id}.
func (h *Handler) GetLayout(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	layout, err := h.store.GetLayout(r.Context(), id)
	if err != nil {
		writeStoreErr(w, r, err, "layout")
		return
	}
	WriteSuccess(w, r, layout)
}

// UpdateLayout handles PUT /api/v1/layouts/{id}. The layout document is
// replaced wholesale; displays referencing it are notified.
func (h *Handler) UpdateLayout(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateLayoutRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	layout := &models.Layout{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		Orientation: models.Orientation(req.Orientation),
		LayoutType:  models.LayoutType(req.LayoutType),
		Widgets:     req.Widgets,
		IsActive:    req.IsActive,
		IsTemplate:  req.IsTemplate,
		GridConfig:  defaultGridConfig(),
	}
	if layout.Orientation == "" {
		layout.Orientation = models.OrientationLandscape
	}
	if layout.LayoutType == "" {
		layout.LayoutType = models.LayoutSpaced
	}
	if req.StatusBar != nil {
		layout.StatusBar = *req.StatusBar
	}
	if req.GridConfig != nil {
		layout.GridConfig = *req.GridConfig
	}

	if err := h.store.UpdateLayout(r.Context(), layout); err != nil {
		writeStoreErr(w, r, err, "layout")
		return
	}

	h.notifyLayoutChange(r, id, models.ActionUpdated)
	WriteSuccess(w, r, layout)
}

// DeleteLayout handles DELETE /api/v1/layouts/{id}. Displays using the
// layout are detached and notified.
func (h *Handler) DeleteLayout(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	// Resolve affected displays before the delete detaches them.
	affected, err := h.store.DisplaysUsingLayout(r.Context(), id)
	if err != nil {
		WriteStoreError(w, r, err)
		return
	}

	if err := h.store.DeleteLayout(r.Context(), id); err != nil {
		writeStoreErr(w, r, err, "layout")
		return
	}

	h.publishChange(r.Context(), affected, models.ActionDeleted, "layout", id, "")
	NewResponseWriter(w, r).NoContent()
}

// AddLayoutWidget handles POST /api/v1/layouts/{id}/widgets.
func (h *Handler) AddLayoutWidget(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req layoutWidgetRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	// The referenced widget must exist before it can be placed.
	if _, err := h.store.GetWidget(r.Context(), req.WidgetID); err != nil {
		writeStoreErr(w, r, err, "widget")
		return
	}

	layout, err := h.store.AddLayoutWidget(r.Context(), id, models.LayoutWidget{
		WidgetID: req.WidgetID,
		X:        req.X,
		Y:        req.Y,
		W:        req.W,
		H:        req.H,
	})
	if err != nil {
		writeStoreErr(w, r, err, "layout")
		return
	}

	h.notifyLayoutChange(r, id, models.ActionUpdated)
	NewResponseWriter(w, r).Created(layout)
}

// RepositionLayoutWidget handles PUT /api/v1/layouts/{id}/widgets/{widgetId}.
func (h *Handler) RepositionLayoutWidget(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	widgetID := chi.URLParam(r, "widgetId")

	var req layoutWidgetRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteBadRequest(w, r, "Invalid request body: "+err.Error())
		return
	}
	req.WidgetID = widgetID
	if verr := validateLayoutWidgetGeometry(req); verr != "" {
		WriteBadRequest(w, r, verr)
		return
	}

	layout, err := h.store.RepositionLayoutWidget(r.Context(), id, models.LayoutWidget{
		WidgetID: widgetID,
		X:        req.X,
		Y:        req.Y,
		W:        req.W,
		H:        req.H,
	})
	if err != nil {
		writeStoreErr(w, r, err, "layout widget")
		return
	}

	h.notifyLayoutChange(r, id, models.ActionRepositioned)
	WriteSuccess(w, r, layout)
}

// RemoveLayoutWidget handles DELETE /api/v1/layouts/{id}/widgets/{widgetId}.
func (h *Handler) RemoveLayoutWidget(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	widgetID := chi.URLParam(r, "widgetId")

	layout, err := h.store.RemoveLayoutWidget(r.Context(), id, widgetID)
	if err != nil {
		writeStoreErr(w, r, err, "layout widget")
		return
	}

	h.notifyLayoutChange(r, id, models.ActionUpdated)
	WriteSuccess(w, r, layout)
}

func validateLayoutWidgetGeometry(req layoutWidgetRequest) string {
	switch {
	case req.X < 0 || req.Y < 0:
		return "Widget position cannot be negative"
	case req.W < 1 || req.H < 1:
		return "Widget size must be at least 1x1"
	}
	return ""
}

// notifyLayoutChange fans a layout mutation out to every display that
// currently shows the layout.
func (h *Handler) notifyLayoutChange(r *http.Request, layoutID, action string) {
	affected, err := h.store.DisplaysUsingLayout(r.Context(), layoutID)
	if err != nil {
		logging.Error().Err(err).Str("layout_id", layoutID).Msg("affected display lookup failed")
		return
	}
	h.publishChange(r.Context(), affected, action, "layout", layoutID, "")
}
