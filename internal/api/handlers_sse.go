// Tabula - Digital Signage Management and Display Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tabula

package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/tabula/internal/auth"
	"github.com/tomtom215/tabula/internal/logging"
	"github.com/tomtom215/tabula/internal/sse"
)

// DisplayEvents handles GET /api/v1/displays/{id}/events. It holds the
// connection open and streams content-change events for one display.
// Device tokens are bound to a single display id; a user token may
// watch any display.
func (h *Handler) DisplayEvents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	claims := auth.ClaimsFromContext(r.Context())
	if claims != nil && claims.Kind == auth.TokenKindDevice && claims.DisplayID != id {
		NewResponseWriter(w, r).Forbidden("Token is not valid for this display")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteInternalError(w, r, "Streaming unsupported")
		return
	}

	stream, err := h.dispatcher.Register(id)
	if err != nil {
		if errors.Is(err, sse.ErrTooManyStreams) {
			NewResponseWriter(w, r).TooManyRequests("Too many open streams for this display")
			return
		}
		WriteBadRequest(w, r, err.Error())
		return
	}
	defer h.dispatcher.Unregister(stream)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	// Reconnect delay hint for EventSource clients.
	fmt.Fprint(w, "retry: 5000\n\n")
	flusher.Flush()

	log := logging.WithComponent("sse").With().Str("display_id", id).Logger()
	log.Debug().Msg("event stream opened")

	heartbeat := time.NewTicker(h.cfg.SSE.HeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			log.Debug().Msg("event stream closed by client")
			return
		case <-stream.Done():
			log.Debug().Msg("event stream closed by dispatcher")
			return
		case env := <-stream.Events():
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", env.Event, env.Data)
			flusher.Flush()
		case <-heartbeat.C:
			// Comment line; keeps intermediaries from idling out the
			// connection.
			fmt.Fprint(w, ": heartbeat\n\n")
			flusher.Flush()
		}
	}
}
