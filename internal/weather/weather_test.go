// Tabula - Digital Signage Management and Display Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tabula

package weather

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/tabula/internal/config"
)

func testWeatherConfig(baseURL string) config.WeatherConfig {
	return config.WeatherConfig{
		Enabled:           true,
		BaseURL:           baseURL,
		Timeout:           time.Second,
		CacheTTL:          time.Minute,
		RequestsPerMinute: 600,
	}
}

func forecastParams() url.Values {
	return url.Values{
		"latitude":  []string{"52.52"},
		"longitude": []string{"13.41"},
	}
}

func TestProxyDisabled(t *testing.T) {
	t.Parallel()

	p := NewProxy(config.WeatherConfig{Enabled: false})
	_, err := p.Forecast(context.Background(), forecastParams())
	if !errors.Is(err, ErrDisabled) {
		t.Fatalf("err = %v, want ErrDisabled", err)
	}
}

func TestProxyForecastAndCache(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if got := r.URL.Query().Get("latitude"); got != "52.52" {
			t.Errorf("latitude = %q", got)
		}
		_, _ = w.Write([]byte(`{"current_weather":{"temperature":21.5}}`))
	}))
	defer srv.Close()

	p := NewProxy(testWeatherConfig(srv.URL))

	for i := 0; i < 3; i++ {
		body, err := p.Forecast(context.Background(), forecastParams())
		if err != nil {
			t.Fatalf("Forecast #%d: %v", i, err)
		}
		if len(body) == 0 {
			t.Fatal("empty body")
		}
	}

	if got := calls.Load(); got != 1 {
		t.Fatalf("upstream called %d times, want 1 (cache)", got)
	}
}

func TestProxyCacheKeyIgnoresParamOrder(t *testing.T) {
	t.Parallel()

	a := url.Values{}
	a.Set("latitude", "1")
	a.Set("longitude", "2")
	b := url.Values{}
	b.Set("longitude", "2")
	b.Set("latitude", "1")

	if cacheKey(a) != cacheKey(b) {
		t.Fatalf("cache keys differ: %q vs %q", cacheKey(a), cacheKey(b))
	}

	c := url.Values{}
	c.Set("latitude", "1")
	c.Set("longitude", "3")
	if cacheKey(a) == cacheKey(c) {
		t.Fatal("distinct queries collided")
	}
}

func TestProxyAppendsAPIKeyServerSide(t *testing.T) {
	t.Parallel()

	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.URL.Query().Get("apikey")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	cfg := testWeatherConfig(srv.URL)
	cfg.APIKey = "secret"
	p := NewProxy(cfg)

	if _, err := p.Forecast(context.Background(), forecastParams()); err != nil {
		t.Fatalf("Forecast: %v", err)
	}
	if gotKey != "secret" {
		t.Fatalf("apikey = %q, want injected server-side", gotKey)
	}
}

func TestProxyRateLimited(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	cfg := testWeatherConfig(srv.URL)
	cfg.RequestsPerMinute = 1
	p := NewProxy(cfg)

	// First call consumes the burst token.
	if _, err := p.Forecast(context.Background(), forecastParams()); err != nil {
		t.Fatalf("first Forecast: %v", err)
	}

	// A distinct query misses the cache and must hit the limiter.
	other := url.Values{"latitude": []string{"0"}, "longitude": []string{"0"}}
	_, err := p.Forecast(context.Background(), other)
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}

	// The cached query still serves without rate budget.
	if _, err := p.Forecast(context.Background(), forecastParams()); err != nil {
		t.Fatalf("cached Forecast: %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("upstream called %d times, want 1", got)
	}
}

func TestProxyUpstreamFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	p := NewProxy(testWeatherConfig(srv.URL))
	_, err := p.Forecast(context.Background(), forecastParams())
	if err == nil {
		t.Fatal("expected upstream failure")
	}
}

func TestProxyCircuitBreakerOpens(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewProxy(testWeatherConfig(srv.URL))

	// Distinct queries defeat the cache so each attempt reaches the
	// breaker. It opens after 10 requests at a 100% failure rate.
	sawOpen := false
	for i := 0; i < 20; i++ {
		params := url.Values{"latitude": []string{string(rune('a' + i))}}
		_, err := p.Forecast(context.Background(), params)
		if errors.Is(err, ErrUnavailable) {
			sawOpen = true
			break
		}
		if err == nil {
			t.Fatal("expected error from failing upstream")
		}
	}
	if !sawOpen {
		t.Fatal("circuit breaker never opened")
	}
}

func TestTTLCacheExpiry(t *testing.T) {
	t.Parallel()

	c := newTTLCache(20 * time.Millisecond)
	c.set("k", []byte("v"))

	if _, ok := c.get("k"); !ok {
		t.Fatal("fresh entry missing")
	}
	time.Sleep(40 * time.Millisecond)
	if _, ok := c.get("k"); ok {
		t.Fatal("expired entry served")
	}
	if c.len() != 0 {
		t.Fatalf("cache len = %d after lazy eviction", c.len())
	}
}
