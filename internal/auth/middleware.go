// Tabula - Digital Signage Management and Display Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tabula

package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/tomtom215/tabula/internal/config"
	"github.com/tomtom215/tabula/internal/logging"
	"github.com/tomtom215/tabula/internal/models"
)

type contextKey string

const claimsContextKey contextKey = "auth_claims"

// ClaimsFromContext returns the authenticated claims stored by the
// middleware, or nil when the request was not authenticated.
func ClaimsFromContext(ctx context.Context) *Claims {
	claims, _ := ctx.Value(claimsContextKey).(*Claims)
	return claims
}

// WithClaims stores claims in the context. Exported for handler tests.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

// Middleware guards routes with JWT validation. With auth mode "none"
// every request is treated as an anonymous admin; intended for
// single-operator deployments on trusted networks and rejected by
// config validation in production.
type Middleware struct {
	jwt  *JWTManager
	mode string
}

// NewMiddleware builds the auth middleware. jwt may be nil only when
// the mode is "none".
func NewMiddleware(jwt *JWTManager, cfg config.SecurityConfig) *Middleware {
	return &Middleware{jwt: jwt, mode: cfg.AuthMode}
}

// Disabled reports whether authentication is turned off.
func (m *Middleware) Disabled() bool {
	return m.mode == config.AuthModeNone
}

// RequireUser admits requests carrying a valid user session token.
func (m *Middleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.Disabled() {
			claims := &Claims{Username: "anonymous", Role: models.RoleAdmin, Kind: TokenKindUser}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
			return
		}

		token := TokenFromRequest(r)
		if token == "" {
			unauthorized(w, "missing credentials")
			return
		}
		claims, err := m.jwt.ValidateToken(token, TokenKindUser)
		if err != nil {
			logging.Debug().Err(err).Str("path", r.URL.Path).Msg("user token rejected")
			unauthorized(w, "invalid or expired token")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

// RequireDevice admits requests carrying a valid device token, or a
// user token so admins can preview display endpoints. The token may
// arrive in the Authorization header or, because EventSource cannot set
// headers, in the "token" query parameter.
func (m *Middleware) RequireDevice(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.Disabled() {
			next.ServeHTTP(w, r)
			return
		}

		token := TokenFromRequest(r)
		if token == "" {
			unauthorized(w, "missing credentials")
			return
		}
		claims, err := m.jwt.ValidateToken(token, TokenKindDevice)
		if err != nil {
			if userClaims, userErr := m.jwt.ValidateToken(token, TokenKindUser); userErr == nil {
				next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), userClaims)))
				return
			}
			logging.Debug().Err(err).Str("path", r.URL.Path).Msg("device token rejected")
			unauthorized(w, "invalid or expired token")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

// TokenFromRequest extracts a bearer token from the Authorization
// header, falling back to the "token" query parameter.
func TokenFromRequest(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="tabula"`)
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"success":false,"error":{"code":"UNAUTHORIZED","message":"` + msg + `"}}`))
}
