// Tabula - Digital Signage Management and Display Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tabula

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/tabula/internal/weather"
)

// Weather handles GET /api/v1/weather. Query parameters are forwarded
// to the upstream provider; the API key is attached server-side.
func (h *Handler) Weather(w http.ResponseWriter, r *http.Request) {
	body, err := h.weather.Forecast(r.Context(), r.URL.Query())
	if err != nil {
		switch {
		case errors.Is(err, weather.ErrDisabled):
			NewResponseWriter(w, r).ServiceUnavailable("Weather is disabled")
		case errors.Is(err, weather.ErrRateLimited):
			NewResponseWriter(w, r).TooManyRequests("Weather request rate exceeded")
		case errors.Is(err, weather.ErrUnavailable):
			NewResponseWriter(w, r).ExternalServiceError("weather", err)
		default:
			NewResponseWriter(w, r).ExternalServiceError("weather", err)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
