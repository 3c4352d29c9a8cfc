// Railref - French Rail Network Reference Data Service
// Copyright 2026 A. Vaillant
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/availlant/railref

// Command server runs the Railref daemon: the periodic synchronization
// engine and the HTTP API, both under a suture supervisor tree.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/availlant/railref/internal/api"
	"github.com/availlant/railref/internal/config"
	"github.com/availlant/railref/internal/database"
	"github.com/availlant/railref/internal/logging"
	"github.com/availlant/railref/internal/supervisor"
	"github.com/availlant/railref/internal/supervisor/services"
	"github.com/availlant/railref/internal/sync"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Config errors are logged with the default logger; the
		// configured one is not available yet.
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Dur("sync_interval", cfg.Sync.Interval).
		Str("environment", cfg.Server.Environment).
		Msg("Starting Railref")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Failed to close database")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Upstream provider clients, shared between the sync engine and the
	// live proxy handlers.
	ods := sync.NewOpenDataSoftClient(&cfg.Sources.OpenDataSoft)
	sncf := sync.NewSNCFClient(&cfg.Sources.SNCF)
	navitia := sync.NewNavitiaClient(&cfg.Sources.Navitia)

	manager := sync.NewManager(cfg, db, ods, sncf, navitia)

	handler := api.NewHandler(cfg, db, manager, navitia)
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      api.NewRouter(cfg, handler),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  2 * cfg.Server.Timeout,
	}

	// Supervisor tree: zerolog bridged to slog for suture's event hook.
	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddSyncService(services.NewSyncService(manager))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree error")
	}

	logging.Info().Msg("Railref stopped")
}
