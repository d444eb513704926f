// Tabula - Digital Signage Management and Display Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tabula

package authz

import (
	"net/http"

	"github.com/tomtom215/tabula/internal/auth"
	"github.com/tomtom215/tabula/internal/logging"
	"github.com/tomtom215/tabula/internal/models"
)

// Middleware authorizes requests against the enforcer using the role
// carried in the authenticated claims. It must run after the auth
// middleware; a request with no claims is denied.
func Middleware(e *Enforcer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := auth.ClaimsFromContext(r.Context())
			if claims == nil {
				forbidden(w)
				return
			}

			role := claims.Role
			if role == "" && claims.Kind == auth.TokenKindDevice {
				// Device tokens have no role; they reach only the
				// device routes, which are guarded separately.
				next.ServeHTTP(w, r)
				return
			}
			if !models.ValidRole(role) {
				forbidden(w)
				return
			}

			allowed, err := e.Enforce(role, r.URL.Path, r.Method)
			if err != nil {
				logging.Error().Err(err).
					Str("role", role).
					Str("path", r.URL.Path).
					Str("method", r.Method).
					Msg("authorization check failed")
				forbidden(w)
				return
			}
			if !allowed {
				logging.Debug().
					Str("role", role).
					Str("path", r.URL.Path).
					Str("method", r.Method).
					Msg("request denied by policy")
				forbidden(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func forbidden(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte(`{"success":false,"error":{"code":"FORBIDDEN","message":"insufficient permissions"}}`))
}
