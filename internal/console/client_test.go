// Tabula - Digital Signage Management and Display Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tabula

package console

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/tomtom215/tabula/internal/models"
)

func TestClientFetch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/v1/displays/d-1" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{"id":"d-1","name":"Lobby","statusBar":{"enabled":true,"elements":["clock_aa"]}}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", time.Second)
	d, err := c.Fetch(context.Background(), "d-1")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if d.ID != "d-1" || d.Name != "Lobby" || !d.StatusBar.Enabled {
		t.Fatalf("display = %+v", d)
	}
}

func TestClientUpdateSendsPatch(t *testing.T) {
	t.Parallel()

	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("method = %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second)
	name := "New Name"
	if err := c.Update(context.Background(), "d-1", models.DisplayPatch{Name: &name}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if gotBody["name"] != "New Name" {
		t.Fatalf("body = %v", gotBody)
	}
	if _, ok := gotBody["layout"]; ok {
		t.Fatal("untouched fields must be omitted from the patch")
	}
}

func TestClientErrorEnvelope(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"success":false,"error":{"code":"NOT_FOUND","message":"display not found"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second)
	_, err := c.Fetch(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "NOT_FOUND") {
		t.Fatalf("err = %v, want error code surfaced", err)
	}
}

func TestClientDelete(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method = %s", r.Method)
		}
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second)
	if err := c.Delete(context.Background(), "d-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}
