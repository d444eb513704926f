// Tabula - Digital Signage Management and Display Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tabula

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/tabula/internal/models"
)

type slideRequest struct {
	Name       string         `json:"name" validate:"required,min=1,max=200"`
	Type       string         `json:"type" validate:"required,min=1,max=64"`
	Data       map[string]any `json:"data,omitempty"`
	Duration   int            `json:"duration" validate:"gte=0,lte=86400"`
	IsActive   bool           `json:"isActive,omitempty"`
	DisplayIDs []string       `json:"displayIds,omitempty"`
}

// defaultSlideDuration is applied when a slide is created without one.
const defaultSlideDuration = 10

// ListSlides handles GET /api/v1/slides.
func (h *Handler) ListSlides(w http.ResponseWriter, r *http.Request) {
	slides, err := h.store.ListSlides(r.Context())
	if err != nil {
		WriteStoreError(w, r, err)
		return
	}
	NewResponseWriter(w, r).SuccessWithPagination(slides, &PaginationMeta{
		Count: len(slides),
		Total: int64(len(slides)),
	})
}

// CreateSlide handles POST /api/v1/slides.
func (h *Handler) CreateSlide(w http.ResponseWriter, r *http.Request) {
	var req slideRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	slide := &models.Slide{
		Name:       req.Name,
		Type:       req.Type,
		Data:       req.Data,
		Duration:   req.Duration,
		IsActive:   req.IsActive,
		DisplayIDs: req.DisplayIDs,
		CreatorID:  creatorID(r),
	}
	if slide.Duration == 0 {
		slide.Duration = defaultSlideDuration
	}
	if slide.DisplayIDs == nil {
		slide.DisplayIDs = []string{}
	}

	if err := h.store.CreateSlide(r.Context(), slide); err != nil {
		writeStoreErr(w, r, err, "slide")
		return
	}

	h.publishChange(r.Context(), slide.DisplayIDs, models.ActionCreated, "slide", slide.ID, slide.ID)
	NewResponseWriter(w, r).Created(slide)
}

// GetSlide handles GET /api/v1/slides/{id}.
func (h *Handler) GetSlide(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	slide, err := h.store.GetSlide(r.Context(), id)
	if err != nil {
		writeStoreErr(w, r, err, "slide")
		return
	}
	WriteSuccess(w, r, slide)
}

// UpdateSlide handles PUT /api/v1/slides/{id}. Displays the slide was
// assigned to before or after the update are both notified, so a slide
// moved between displays refreshes both sides.
func (h *Handler) UpdateSlide(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req slideRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	previous, err := h.store.GetSlide(r.Context(), id)
	if err != nil {
		writeStoreErr(w, r, err, "slide")
		return
	}

	slide := &models.Slide{
		ID:         id,
		Name:       req.Name,
		Type:       req.Type,
		Data:       req.Data,
		Duration:   req.Duration,
		IsActive:   req.IsActive,
		DisplayIDs: req.DisplayIDs,
	}
	if slide.Duration == 0 {
		slide.Duration = defaultSlideDuration
	}
	if slide.DisplayIDs == nil {
		slide.DisplayIDs = []string{}
	}

	if err := h.store.UpdateSlide(r.Context(), slide); err != nil {
		writeStoreErr(w, r, err, "slide")
		return
	}

	affected := unionIDs(previous.DisplayIDs, slide.DisplayIDs)
	h.publishChange(r.Context(), affected, models.ActionUpdated, "slide", id, id)
	WriteSuccess(w, r, slide)
}

// DeleteSlide handles DELETE /api/v1/slides/{id}.
func (h *Handler) DeleteSlide(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	slide, err := h.store.GetSlide(r.Context(), id)
	if err != nil {
		writeStoreErr(w, r, err, "slide")
		return
	}
	if err := h.store.DeleteSlide(r.Context(), id); err != nil {
		writeStoreErr(w, r, err, "slide")
		return
	}

	h.publishChange(r.Context(), slide.DisplayIDs, models.ActionDeleted, "slide", id, id)
	NewResponseWriter(w, r).NoContent()
}

// unionIDs merges two id slices preserving first-seen order.
func unionIDs(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, id := range a {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	for _, id := range b {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
