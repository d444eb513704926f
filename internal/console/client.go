// Tabula - Digital Signage Management and Display Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tabula

package console

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/tomtom215/tabula/internal/models"
)

// DisplayClient is the persistence surface the session needs. The HTTP
// client below is the production implementation; tests substitute
// in-memory fakes.
type DisplayClient interface {
	Fetch(ctx context.Context, id string) (*models.Display, error)
	Update(ctx context.Context, id string, patch models.DisplayPatch) error
}

// Client talks to the display API over HTTP.
type Client struct {
	baseURL string
	token   string
	httpc   *http.Client
}

// NewClient returns a client for the API rooted at baseURL, e.g.
// "http://localhost:7446". token is sent as a bearer credential on
// every request; pass empty when the server runs with auth disabled.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpc:   &http.Client{Timeout: timeout},
	}
}

type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *apiError       `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Fetch retrieves one display document.
func (c *Client) Fetch(ctx context.Context, id string) (*models.Display, error) {
	env, err := c.do(ctx, http.MethodGet, "/api/v1/displays/"+id, nil)
	if err != nil {
		return nil, err
	}
	var d models.Display
	if err := json.Unmarshal(env.Data, &d); err != nil {
		return nil, fmt.Errorf("decode display: %w", err)
	}
	return &d, nil
}

// Update persists a partial display document.
func (c *Client) Update(ctx context.Context, id string, patch models.DisplayPatch) error {
	body, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("encode patch: %w", err)
	}
	_, err = c.do(ctx, http.MethodPatch, "/api/v1/displays/"+id, body)
	return err
}

// Delete removes a display.
func (c *Client) Delete(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/v1/displays/"+id, nil)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (*apiEnvelope, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var env apiEnvelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, fmt.Errorf("%s %s: status %d: decode envelope: %w", method, path, resp.StatusCode, err)
		}
	}
	if resp.StatusCode >= 400 || (len(raw) > 0 && !env.Success) {
		if env.Error != nil {
			return nil, fmt.Errorf("%s %s: %s: %s", method, path, env.Error.Code, env.Error.Message)
		}
		return nil, fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}
	return &env, nil
}
