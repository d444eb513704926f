// Tabula - Digital Signage Management and Display Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tabula

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/tomtom215/tabula/internal/auth"
	"github.com/tomtom215/tabula/internal/authz"
	"github.com/tomtom215/tabula/internal/middleware"
)

// Router wires handlers, authentication, authorization and the Chi
// middleware stack into one http.Handler.
type Router struct {
	handler  *Handler
	authMW   *auth.Middleware
	enforcer *authz.Enforcer
	chiMW    *ChiMiddleware
}

// NewRouter creates a router from its wired dependencies.
func NewRouter(h *Handler, authMW *auth.Middleware, enforcer *authz.Enforcer, mwConfig *ChiMiddlewareConfig) *Router {
	return &Router{
		handler:  h,
		authMW:   authMW,
		enforcer: enforcer,
		chiMW:    NewChiMiddleware(mwConfig),
	}
}

// Setup configures all HTTP routes.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to every route in order.
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMW.CORS()) // global so OPTIONS preflight is handled

	h := router.handler

	// Health endpoints: permissive rate limiting so monitoring probes
	// are never starved.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMW.RateLimitHealth())
		r.Use(APISecurityHeaders())
		r.Get("/", h.HealthReady)
		r.Get("/live", h.HealthLive)
		r.Get("/ready", h.HealthReady)
	})

	// Login gets the strictest rate limit.
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(APISecurityHeaders())
		r.With(router.chiMW.RateLimitLogin()).Post("/login", h.Login)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMW.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(middleware.PrometheusMetrics)
		r.Use(middleware.Compression)

		// Admin and operator endpoints: session auth plus role policy.
		r.Group(func(r chi.Router) {
			r.Use(router.authMW.RequireUser)
			r.Use(authz.Middleware(router.enforcer))

			// Registered flat, not as a mounted subtree: the device
			// event stream below shares the /displays prefix.
			r.Get("/displays", h.ListDisplays)
			r.Post("/displays", h.CreateDisplay)
			r.Get("/displays/{id}", h.GetDisplay)
			r.Patch("/displays/{id}", h.PatchDisplay)
			r.Delete("/displays/{id}", h.DeleteDisplay)
			r.Post("/displays/{id}/token", h.IssueDeviceToken)

			r.Route("/layouts", func(r chi.Router) {
				r.Get("/", h.ListLayouts)
				r.Post("/", h.CreateLayout)
				r.Get("/{id}", h.GetLayout)
				r.Put("/{id}", h.UpdateLayout)
				r.Delete("/{id}", h.DeleteLayout)
				r.Post("/{id}/widgets", h.AddLayoutWidget)
				r.Patch("/{id}/widgets/{widgetId}", h.RepositionLayoutWidget)
				r.Delete("/{id}/widgets/{widgetId}", h.RemoveLayoutWidget)
			})

			r.Route("/widgets", func(r chi.Router) {
				r.Get("/", h.ListWidgets)
				r.Post("/", h.CreateWidget)
				r.Get("/{id}", h.GetWidget)
				r.Put("/{id}", h.UpdateWidget)
				r.Delete("/{id}", h.DeleteWidget)
			})

			r.Route("/slides", func(r chi.Router) {
				r.Get("/", h.ListSlides)
				r.Post("/", h.CreateSlide)
				r.Get("/{id}", h.GetSlide)
				r.Put("/{id}", h.UpdateSlide)
				r.Delete("/{id}", h.DeleteSlide)
			})

			r.Route("/users", func(r chi.Router) {
				r.Get("/", h.ListUsers)
				r.Post("/", h.CreateUser)
				r.Get("/{id}", h.GetUser)
				r.Delete("/{id}", h.DeleteUser)
			})

			// Registered flat: impression reporting below shares the
			// /analytics prefix.
			r.Get("/analytics/impressions/summary", h.AnalyticsSummary)
			r.Get("/analytics/impressions/hourly", h.AnalyticsHourly)

			r.Get("/weather", h.Weather)
			r.Get("/ws", h.WebSocket)
		})

		// Display event streams: device-token auth, no role policy.
		// A device token carries no role; the display id binding is
		// checked in the handler.
		r.Group(func(r chi.Router) {
			r.Use(router.authMW.RequireDevice)
			r.Get("/displays/{id}/events", h.DisplayEvents)
			r.Post("/analytics/impressions", h.RecordImpressions)
		})
	})

	// Prometheus metrics endpoint, outside the API envelope.
	r.Handle("/metrics", promhttp.Handler())

	// Swagger UI backed by the generated doc spec.
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("list"),
		httpSwagger.DomID("swagger-ui"),
	))

	return r
}
