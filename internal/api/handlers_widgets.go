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

type widgetRequest struct {
	Name string         `json:"name" validate:"required,min=1,max=200"`
	Type string         `json:"type" validate:"required,min=1,max=64"`
	Data map[string]any `json:"data,omitempty"`
}

// ListWidgets handles GET /api/v1/widgets.
func (h *Handler) ListWidgets(w http.ResponseWriter, r *http.Request) {
	widgets, err := h.store.ListWidgets(r.Context())
	if err != nil {
		WriteStoreError(w, r, err)
		return
	}
	NewResponseWriter(w, r).SuccessWithPagination(widgets, &PaginationMeta{
		Count: len(widgets),
		Total: int64(len(widgets)),
	})
}

// CreateWidget handles POST /api/v1/widgets.
func (h *Handler) CreateWidget(w http.ResponseWriter, r *http.Request) {
	var req widgetRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	widget := &models.Widget{
		Name:      req.Name,
		Type:      req.Type,
		Data:      req.Data,
		CreatorID: creatorID(r),
	}
	if err := h.store.CreateWidget(r.Context(), widget); err != nil {
		writeStoreErr(w, r, err, "widget")
		return
	}
	NewResponseWriter(w, r).Created(widget)
}

// GetWidget handles GET /api/v1/widgets/{id}.
func (h *Handler) GetWidget(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	widget, err := h.store.GetWidget(r.Context(), id)
	if err != nil {
		writeStoreErr(w, r, err, "widget")
		return
	}
	WriteSuccess(w, r, widget)
}

// UpdateWidget handles PUT /api/v1/widgets/{id}. Displays currently
// showing the widget, directly or through a layout, are notified.
func (h *Handler) UpdateWidget(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req widgetRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	widget := &models.Widget{
		ID:   id,
		Name: req.Name,
		Type: req.Type,
		Data: req.Data,
	}
	if err := h.store.UpdateWidget(r.Context(), widget); err != nil {
		writeStoreErr(w, r, err, "widget")
		return
	}

	h.notifyWidgetChange(r, id, models.ActionUpdated)
	WriteSuccess(w, r, widget)
}

// DeleteWidget handles DELETE /api/v1/widgets/{id}.
func (h *Handler) DeleteWidget(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	// Resolve affected displays before the reference chain is cut.
	affected, err := h.store.DisplaysShowingWidget(r.Context(), id)
	if err != nil {
		WriteStoreError(w, r, err)
		return
	}

	if err := h.store.DeleteWidget(r.Context(), id); err != nil {
		writeStoreErr(w, r, err, "widget")
		return
	}

	h.publishChange(r.Context(), affected, models.ActionDeleted, "widget", id, "")
	NewResponseWriter(w, r).NoContent()
}

func (h *Handler) notifyWidgetChange(r *http.Request, widgetID, action string) {
	affected, err := h.store.DisplaysShowingWidget(r.Context(), widgetID)
	if err != nil {
		logging.Error().Err(err).Str("widget_id", widgetID).Msg("affected display lookup failed")
		return
	}
	h.publishChange(r.Context(), affected, action, "widget", widgetID, "")
}
