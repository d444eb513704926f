// Tabula - Digital Signage Management and Display Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tabula

package authz

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tomtom215/tabula/internal/auth"
	"github.com/tomtom215/tabula/internal/models"
)

func newTestEnforcer(t *testing.T) *Enforcer {
	t.Helper()
	e, err := NewEnforcer(nil)
	if err != nil {
		t.Fatalf("NewEnforcer: %v", err)
	}
	return e
}

func TestEnforcerRoleMatrix(t *testing.T) {
	t.Parallel()

	e := newTestEnforcer(t)

	tests := []struct {
		role   string
		path   string
		method string
		want   bool
	}{
		{"viewer", "/api/v1/displays", http.MethodGet, true},
		{"viewer", "/api/v1/displays/d-1", http.MethodGet, true},
		{"viewer", "/api/v1/displays", http.MethodPost, false},
		{"viewer", "/api/v1/displays/d-1", http.MethodDelete, false},
		{"viewer", "/api/v1/analytics/impressions/summary", http.MethodGet, true},
		{"viewer", "/api/v1/users", http.MethodGet, false},

		{"editor", "/api/v1/displays", http.MethodGet, true},
		{"editor", "/api/v1/displays", http.MethodPost, true},
		{"editor", "/api/v1/displays/d-1", http.MethodPatch, true},
		{"editor", "/api/v1/layouts/l-1/widgets", http.MethodPost, true},
		{"editor", "/api/v1/layouts/l-1/widgets/w-1", http.MethodPatch, true},
		{"editor", "/api/v1/layouts/l-1/widgets/w-1", http.MethodDelete, true},
		{"editor", "/api/v1/layouts/l-1/widgets/w-1", http.MethodPut, false},
		{"editor", "/api/v1/users", http.MethodPost, false},
		{"editor", "/api/v1/displays/d-1/token", http.MethodPost, false},

		{"admin", "/api/v1/displays/d-1", http.MethodDelete, true},
		{"admin", "/api/v1/users", http.MethodPost, true},
		{"admin", "/api/v1/users/u-1", http.MethodDelete, true},
		{"admin", "/api/v1/displays/d-1/token", http.MethodPost, true},
		{"admin", "/api/v1/slides", http.MethodGet, true},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.role+" "+tc.method+" "+tc.path, func(t *testing.T) {
			t.Parallel()
			got, err := e.Enforce(tc.role, tc.path, tc.method)
			if err != nil {
				t.Fatalf("Enforce: %v", err)
			}
			if got != tc.want {
				t.Fatalf("Enforce(%s, %s, %s) = %v, want %v", tc.role, tc.path, tc.method, got, tc.want)
			}
		})
	}
}

func TestEnforcerUnknownRoleDenied(t *testing.T) {
	t.Parallel()

	e := newTestEnforcer(t)
	allowed, err := e.Enforce("intruder", "/api/v1/displays", http.MethodGet)
	if err != nil {
		t.Fatalf("Enforce: %v", err)
	}
	if allowed {
		t.Fatal("unknown role was allowed")
	}
}

func TestEnforcerCachesDecisions(t *testing.T) {
	t.Parallel()

	e := newTestEnforcer(t)
	if e.cache == nil {
		t.Fatal("cache not enabled by default config")
	}

	if _, err := e.Enforce("viewer", "/api/v1/displays", http.MethodGet); err != nil {
		t.Fatalf("Enforce: %v", err)
	}
	if _, ok := e.cache.get("viewer", "/api/v1/displays", http.MethodGet); !ok {
		t.Fatal("decision not cached")
	}
}

func TestMiddlewareAllowsAndDenies(t *testing.T) {
	t.Parallel()

	e := newTestEnforcer(t)
	handler := Middleware(e)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// Viewer reading displays passes.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/displays", nil)
	req = req.WithContext(auth.WithClaims(req.Context(), &auth.Claims{
		Username: "v", Role: models.RoleViewer, Kind: auth.TokenKindUser,
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("viewer GET status = %d", rec.Code)
	}

	// Viewer creating a display is denied.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/displays", nil)
	req = req.WithContext(auth.WithClaims(req.Context(), &auth.Claims{
		Username: "v", Role: models.RoleViewer, Kind: auth.TokenKindUser,
	}))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("viewer POST status = %d, want 403", rec.Code)
	}

	// No claims at all is denied.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/displays", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("anonymous status = %d, want 403", rec.Code)
	}
}
