// Tabula - Digital Signage Management and Display Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tabula

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/tabula/internal/analytics"
	"github.com/tomtom215/tabula/internal/auth"
	"github.com/tomtom215/tabula/internal/config"
	"github.com/tomtom215/tabula/internal/events"
	"github.com/tomtom215/tabula/internal/logging"
	"github.com/tomtom215/tabula/internal/models"
	"github.com/tomtom215/tabula/internal/sse"
	"github.com/tomtom215/tabula/internal/store"
	"github.com/tomtom215/tabula/internal/validation"
	"github.com/tomtom215/tabula/internal/weather"
	"github.com/tomtom215/tabula/internal/websocket"
)

// maxRequestBody caps request payload size for JSON endpoints.
const maxRequestBody = 1 << 20 // 1 MB

// Handler carries the dependencies shared by all endpoint handlers.
type Handler struct {
	cfg        *config.Config
	store      *store.Store
	analytics  *analytics.DB
	bus        events.Bus
	dispatcher *sse.Dispatcher
	hub        *websocket.Hub
	weather    *weather.Proxy
	jwt        *auth.JWTManager
}

// NewHandler creates the endpoint handler set. The analytics database
// may be nil when analytics is disabled; affected endpoints then return
// 503.
func NewHandler(
	cfg *config.Config,
	st *store.Store,
	adb *analytics.DB,
	bus events.Bus,
	dispatcher *sse.Dispatcher,
	hub *websocket.Hub,
	wp *weather.Proxy,
	jwt *auth.JWTManager,
) *Handler {
	return &Handler{
		cfg:        cfg,
		store:      st,
		analytics:  adb,
		bus:        bus,
		dispatcher: dispatcher,
		hub:        hub,
		weather:    wp,
		jwt:        jwt,
	}
}

// decodeJSON decodes a bounded JSON request body into v.
func decodeJSON(r *http.Request, v interface{}) error {
	body := http.MaxBytesReader(nil, r.Body, maxRequestBody)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// decodeAndValidate decodes the request body into v and runs struct
// validation, writing the error response itself on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := decodeJSON(r, v); err != nil {
		WriteBadRequest(w, r, "Invalid request body: "+err.Error())
		return false
	}
	if verr := validation.ValidateStruct(v); verr != nil {
		apiErr := verr.ToAPIError()
		NewResponseWriter(w, r).ValidationError(apiErr.Message, apiErr.Details)
		return false
	}
	return true
}

// creatorID returns the authenticated username, if any, for ownership
// stamping on created documents.
func creatorID(r *http.Request) string {
	if claims := auth.ClaimsFromContext(r.Context()); claims != nil {
		return claims.Username
	}
	return ""
}

// writeStoreErr maps store errors to the API envelope.
func writeStoreErr(w http.ResponseWriter, r *http.Request, err error, kind string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		WriteNotFound(w, r, kind+" not found")
	case errors.Is(err, store.ErrConflict):
		NewResponseWriter(w, r).Conflict(kind + " conflict: " + err.Error())
	default:
		WriteStoreError(w, r, err)
	}
}

// publishChange publishes a content-change event after a mutation has
// committed. Publish failures are logged, never surfaced to the client;
// the mutation itself already succeeded.
func (h *Handler) publishChange(ctx context.Context, displayIDs []string, action, reason, entityID, slideID string) {
	if len(displayIDs) == 0 && reason != "display" {
		// Nothing on screen references the entity yet.
		return
	}
	change := models.ContentChange{
		DisplayIDs: displayIDs,
		Action:     action,
		Reason:     reason,
		EntityID:   entityID,
		SlideID:    slideID,
		OccurredAt: time.Now().UTC(),
	}
	if err := h.bus.Publish(ctx, change); err != nil {
		logging.Error().Err(err).
			Str("reason", reason).
			Str("action", action).
			Str("entity_id", entityID).
			Msg("content change publish failed")
	}
}
