// Tabula - Digital Signage Management and Display Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tabula

package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tomtom215/tabula/internal/config"
	"github.com/tomtom215/tabula/internal/models"
)

func claimsEcho(t *testing.T, got **Claims) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireUserWithBearerToken(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	mw := NewMiddleware(m, testSecurityConfig())

	token, _ := m.GenerateToken("alice", models.RoleAdmin)

	var got *Claims
	req := httptest.NewRequest(http.MethodGet, "/api/v1/displays", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	mw.RequireUser(claimsEcho(t, &got)).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got == nil || got.Username != "alice" {
		t.Fatalf("claims = %+v", got)
	}
}

func TestRequireUserRejectsMissingToken(t *testing.T) {
	t.Parallel()

	mw := NewMiddleware(newTestManager(t), testSecurityConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/displays", nil)
	rec := httptest.NewRecorder()
	mw.RequireUser(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler reached without credentials")
	})).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestRequireUserRejectsDeviceToken(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	mw := NewMiddleware(m, testSecurityConfig())
	token, _ := m.GenerateDeviceToken("d-1")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/displays", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	mw.RequireUser(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler reached with device token")
	})).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestRequireDeviceAcceptsQueryParamToken(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	mw := NewMiddleware(m, testSecurityConfig())
	token, _ := m.GenerateDeviceToken("d-1")

	var got *Claims
	req := httptest.NewRequest(http.MethodGet, "/api/v1/displays/d-1/events?token="+token, nil)
	rec := httptest.NewRecorder()
	mw.RequireDevice(claimsEcho(t, &got)).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got == nil || got.DisplayID != "d-1" {
		t.Fatalf("claims = %+v", got)
	}
}

func TestRequireDeviceAcceptsUserToken(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	mw := NewMiddleware(m, testSecurityConfig())
	token, _ := m.GenerateToken("alice", models.RoleAdmin)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/displays/d-1/events", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	mw.RequireDevice(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, admin preview should be admitted", rec.Code)
	}
}

func TestAuthModeNoneInjectsAnonymousAdmin(t *testing.T) {
	t.Parallel()

	cfg := testSecurityConfig()
	cfg.AuthMode = config.AuthModeNone
	mw := NewMiddleware(nil, cfg)

	var got *Claims
	req := httptest.NewRequest(http.MethodGet, "/api/v1/displays", nil)
	rec := httptest.NewRecorder()
	mw.RequireUser(claimsEcho(t, &got)).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got == nil || got.Role != models.RoleAdmin {
		t.Fatalf("claims = %+v", got)
	}
}

func TestTokenFromRequestPrefersHeader(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/?token=from-query", nil)
	req.Header.Set("Authorization", "Bearer from-header")
	if got := TokenFromRequest(req); got != "from-header" {
		t.Fatalf("token = %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/?token=from-query", nil)
	if got := TokenFromRequest(req); got != "from-query" {
		t.Fatalf("token = %q", got)
	}
}
