// Tabula - Digital Signage Management and Display Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tabula

// Command server runs the Tabula signage server: the admin and display
// HTTP API, the per-display event streams, the admin WebSocket hub,
// and the background data services, all under one supervision tree.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/tomtom215/tabula/docs" // Generated swagger docs
	"github.com/tomtom215/tabula/internal/analytics"
	"github.com/tomtom215/tabula/internal/api"
	"github.com/tomtom215/tabula/internal/auth"
	"github.com/tomtom215/tabula/internal/authz"
	"github.com/tomtom215/tabula/internal/backup"
	"github.com/tomtom215/tabula/internal/config"
	"github.com/tomtom215/tabula/internal/events"
	"github.com/tomtom215/tabula/internal/logging"
	"github.com/tomtom215/tabula/internal/models"
	"github.com/tomtom215/tabula/internal/sse"
	"github.com/tomtom215/tabula/internal/store"
	"github.com/tomtom215/tabula/internal/supervisor"
	"github.com/tomtom215/tabula/internal/weather"
	"github.com/tomtom215/tabula/internal/websocket"
)

func main() {
	if err := run(); err != nil {
		logging.Error().Err(err).Msg("Server failed")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		return err
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("environment", cfg.Server.Environment).
		Str("addr", cfg.Server.Addr()).
		Msg("Starting Tabula")

	if err := cfg.Validate(); err != nil {
		return err
	}

	if cfg.Security.AuthMode == config.AuthModeNone {
		logging.Warn().Msg("=========================================================")
		logging.Warn().Msg("AUTHENTICATION IS DISABLED (security.auth_mode = none)")
		logging.Warn().Msg("Every request is treated as an administrator.")
		logging.Warn().Msg("Do not expose this instance beyond a trusted network.")
		logging.Warn().Msg("=========================================================")
	}

	st, err := store.Open(cfg.Store)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logging.Error().Err(cerr).Msg("Store close failed")
		}
	}()
	logging.Info().Str("path", cfg.Store.Path).Bool("in_memory", cfg.Store.InMemory).Msg("Document store opened")

	var adb *analytics.DB
	if cfg.Analytics.Enabled {
		adb, err = analytics.New(cfg.Analytics)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := adb.Close(); cerr != nil {
				logging.Error().Err(cerr).Msg("Analytics close failed")
			}
		}()
		logging.Info().Str("path", cfg.Analytics.Path).Msg("Proof-of-play analytics enabled")
	} else {
		logging.Info().Msg("Proof-of-play analytics disabled")
	}

	bus, closeBus, err := newEventBus(cfg)
	if err != nil {
		return err
	}
	defer closeBus()

	dispatcher := sse.NewDispatcher(cfg.SSE)
	hub := websocket.NewHub()
	wp := weather.NewProxy(cfg.Weather)

	jwt, err := auth.NewJWTManager(cfg.Security)
	if err != nil {
		return err
	}
	enforcer, err := authz.NewEnforcer(authz.DefaultEnforcerConfig())
	if err != nil {
		return err
	}

	if err := seedAdminUser(cfg, st); err != nil {
		return err
	}

	handler := api.NewHandler(cfg, st, adb, bus, dispatcher, hub, wp, jwt)
	router := api.NewRouter(handler, auth.NewMiddleware(jwt, cfg.Security), enforcer, api.MiddlewareConfigFromSecurity(cfg.Security))

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	tree, err := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		return err
	}

	tree.AddDataService(store.NewGCService(st, cfg.Store.GCInterval))
	if adb != nil {
		tree.AddDataService(analytics.NewPruneService(adb, 1*time.Hour))
	}
	if cfg.Backup.Enabled {
		tree.AddDataService(backup.NewService(st, cfg.Backup))
	}

	tree.AddMessagingService(events.NewBridge(bus, dispatcher, hub))
	tree.AddMessagingService(supervisor.NewHubService(hub))
	tree.AddMessagingService(sse.NewJanitor(dispatcher, cfg.SSE.JanitorInterval))

	tree.AddAPIService(supervisor.NewHTTPServerService(server, 10*time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
		cancel()
	}()

	logging.Info().Str("addr", cfg.Server.Addr()).Msg("Tabula ready")

	errCh := tree.ServeBackground(ctx)
	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	if report, rerr := tree.UnstoppedServiceReport(); rerr == nil {
		for _, svc := range report {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop cleanly")
		}
	}

	logging.Info().Msg("Tabula stopped gracefully")
	return nil
}

// seedAdminUser ensures the configured administrator account exists so a
// fresh install can log in. An account that already exists is left alone,
// including its password.
func seedAdminUser(cfg *config.Config, st *store.Store) error {
	if cfg.Security.AuthMode != config.AuthModeJWT {
		return nil
	}
	if cfg.Security.AdminUsername == "" || cfg.Security.AdminPassword == "" {
		return nil
	}

	hash, err := auth.HashPassword(cfg.Security.AdminPassword)
	if err != nil {
		return err
	}
	user := &models.User{
		Username:     cfg.Security.AdminUsername,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
	}
	err = st.CreateUser(context.Background(), user)
	switch {
	case errors.Is(err, store.ErrConflict):
		logging.Debug().Str("username", user.Username).Msg("Admin user already exists")
		return nil
	case err != nil:
		return err
	}
	logging.Info().Str("username", user.Username).Msg("Admin user created")
	return nil
}
