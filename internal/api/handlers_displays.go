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

type createDisplayRequest struct {
	Name      string            `json:"name" validate:"required,min=1,max=200"`
	Layout    string            `json:"layout,omitempty"`
	Widgets   []string          `json:"widgets,omitempty"`
	StatusBar *models.StatusBar `json:"statusBar,omitempty"`
}

// ListDisplays handles GET /api/v1/displays.
func (h *Handler) ListDisplays(w http.ResponseWriter, r *http.Request) {
	displays, err := h.store.ListDisplays(r.Context())
	if err != nil {
		WriteStoreError(w, r, err)
		return
	}
	NewResponseWriter(w, r).SuccessWithPagination(displays, &PaginationMeta{
		Count: len(displays),
		Total: int64(len(displays)),
	})
}

// CreateDisplay handles POST /api/v1/displays.
func (h *Handler) CreateDisplay(w http.ResponseWriter, r *http.Request) {
	var req createDisplayRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	display := &models.Display{
		Name:      req.Name,
		Layout:    req.Layout,
		Widgets:   req.Widgets,
		CreatorID: creatorID(r),
	}
	if req.StatusBar != nil {
		display.StatusBar = *req.StatusBar
	}
	if display.StatusBar.Elements == nil {
		display.StatusBar.Elements = []string{}
	}

	if err := h.store.CreateDisplay(r.Context(), display); err != nil {
		writeStoreErr(w, r, err, "display")
		return
	}

	h.publishChange(r.Context(), []string{display.ID}, models.ActionCreated, "display", display.ID, "")
	NewResponseWriter(w, r).Created(display)
}

// GetDisplay handles GET /api/v1/displays/{id}.
func (h *Handler) GetDisplay(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	display, err := h.store.GetDisplay(r.Context(), id)
	if err != nil {
		writeStoreErr(w, r, err, "display")
		return
	}
	WriteSuccess(w, r, display)
}

// PatchDisplay handles PATCH /api/v1/displays/{id}. Nil patch fields
// leave the stored document untouched.
func (h *Handler) PatchDisplay(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var patch models.DisplayPatch
	if err := decodeJSON(r, &patch); err != nil {
		WriteBadRequest(w, r, "Invalid request body: "+err.Error())
		return
	}
	if patch.Name != nil && *patch.Name == "" {
		WriteBadRequest(w, r, "Display name cannot be empty")
		return
	}

	display, err := h.store.PatchDisplay(r.Context(), id, patch)
	if err != nil {
		writeStoreErr(w, r, err, "display")
		return
	}

	h.publishChange(r.Context(), []string{id}, models.ActionUpdated, "display", id, "")
	WriteSuccess(w, r, display)
}

// DeleteDisplay handles DELETE /api/v1/displays/{id}.
func (h *Handler) DeleteDisplay(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.DeleteDisplay(r.Context(), id); err != nil {
		writeStoreErr(w, r, err, "display")
		return
	}

	h.publishChange(r.Context(), []string{id}, models.ActionDeleted, "display", id, "")
	NewResponseWriter(w, r).NoContent()
}

type deviceTokenResponse struct {
	Token     string `json:"token"`
	DisplayID string `json:"displayId"`
	ExpiresIn int64  `json:"expiresIn"`
}

// IssueDeviceToken handles POST /api/v1/displays/{id}/token. It mints a
// device-scoped token the physical screen uses to open its event stream.
func (h *Handler) IssueDeviceToken(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.store.GetDisplay(r.Context(), id); err != nil {
		writeStoreErr(w, r, err, "display")
		return
	}

	token, err := h.jwt.GenerateDeviceToken(id)
	if err != nil {
		WriteInternalError(w, r, "Failed to issue device token")
		return
	}

	WriteSuccess(w, r, deviceTokenResponse{
		Token:     token,
		DisplayID: id,
		ExpiresIn: int64(h.cfg.Security.DeviceTokenTTL.Seconds()),
	})
}
