// Tabula - Digital Signage Management and Display Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tabula

// Package weather proxies forecast requests from weather widgets to an
// Open-Meteo compatible upstream. The proxy exists so that API keys
// never reach display devices and so a fleet of displays refreshing at
// once turns into a handful of upstream calls: responses are cached by
// normalized query, calls are rate limited, and a circuit breaker
// sheds load while the upstream is failing.
package weather

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/tabula/internal/config"
	"github.com/tomtom215/tabula/internal/logging"
	"github.com/tomtom215/tabula/internal/metrics"
)

var (
	// ErrDisabled is returned when the weather proxy is turned off in
	// configuration.
	ErrDisabled = errors.New("weather: proxy disabled")

	// ErrRateLimited is returned when the upstream call budget is
	// exhausted and no cached response exists.
	ErrRateLimited = errors.New("weather: upstream rate limit exceeded")

	// ErrUnavailable is returned while the circuit breaker is open.
	ErrUnavailable = errors.New("weather: upstream unavailable")
)

// Proxy fetches and caches upstream forecast responses.
type Proxy struct {
	cfg     config.WeatherConfig
	httpc   *http.Client
	cb      *gobreaker.CircuitBreaker[[]byte]
	limiter *rate.Limiter
	cache   *ttlCache
}

// NewProxy builds a proxy from configuration. The breaker opens after a
// 60% failure rate over at least 10 requests and probes recovery after
// 30 seconds, so displays fall back to their cached forecast instead of
// hammering a failing upstream.
func NewProxy(cfg config.WeatherConfig) *Proxy {
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 30
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	metrics.WeatherCircuitBreakerState.Set(0)

	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "weather-upstream",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", stateToString(from)).
				Str("to", stateToString(to)).
				Msg("weather circuit breaker state transition")
			metrics.WeatherCircuitBreakerState.Set(stateToFloat(to))
		},
	})

	return &Proxy{
		cfg:     cfg,
		httpc:   &http.Client{Timeout: timeout},
		cb:      cb,
		limiter: rate.NewLimiter(rate.Limit(float64(rpm)/60.0), rpm),
		cache:   newTTLCache(ttl),
	}
}

// Forecast returns the upstream response body for the given query
// parameters. Cached responses are served without consuming rate
// budget; the API key, when configured, is appended server-side and is
// never part of the cache key.
func (p *Proxy) Forecast(ctx context.Context, params url.Values) ([]byte, error) {
	if !p.cfg.Enabled {
		return nil, ErrDisabled
	}

	key := cacheKey(params)
	if body, ok := p.cache.get(key); ok {
		metrics.WeatherRequests.WithLabelValues("cache_hit").Inc()
		return body, nil
	}

	if !p.limiter.Allow() {
		metrics.WeatherRequests.WithLabelValues("rate_limited").Inc()
		return nil, ErrRateLimited
	}

	body, err := p.cb.Execute(func() ([]byte, error) {
		return p.fetch(ctx, params)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.WeatherRequests.WithLabelValues("rejected").Inc()
			return nil, ErrUnavailable
		}
		metrics.WeatherRequests.WithLabelValues("failure").Inc()
		return nil, err
	}

	metrics.WeatherRequests.WithLabelValues("success").Inc()
	p.cache.set(key, body)
	return body, nil
}

func (p *Proxy) fetch(ctx context.Context, params url.Values) ([]byte, error) {
	u, err := url.Parse(p.cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	q := u.Query()
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	if p.cfg.APIKey != "" {
		q.Set("apikey", p.cfg.APIKey)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather upstream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather upstream: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read upstream response: %w", err)
	}
	return body, nil
}

// cacheKey normalizes the query into a stable key so parameter order
// does not fragment the cache.
func cacheKey(params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		vs := append([]string(nil), params[k]...)
		sort.Strings(vs)
		for _, v := range vs {
			b.WriteString(k)
			b.WriteByte('=')
			b.WriteString(v)
			b.WriteByte('&')
		}
	}
	return b.String()
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
