// Railref - French Rail Network Reference Data Service
// Copyright 2026 A. Vaillant
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/availlant/railref

// Package api provides the Chi-based HTTP surface over the reference
// store and the live provider proxies.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/availlant/railref/internal/config"
)

// NewRouter builds the full route tree.
func NewRouter(cfg *config.Config, h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Security.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", h.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if !cfg.Security.RateLimitDisabled {
			r.Use(httprate.LimitByIP(cfg.Security.RateLimitReqs, cfg.Security.RateLimitWindow))
		}
		r.Use(requestMetrics)

		r.Get("/regions", h.Regions)
		r.Get("/regions/{code}", h.RegionByCode)
		r.Get("/departements", h.Departements)
		r.Get("/departements/{code}", h.DepartementByCode)
		r.Get("/stations", h.Stations)
		r.Get("/stations/{uic}", h.StationByUIC)
		r.Get("/lines", h.Lines)
		r.Get("/lines/{code}", h.LineByCode)

		r.Get("/trains/departures", h.Departures)
		r.Get("/alerts", h.Alerts)
		r.Get("/stats", h.Stats)

		r.With(jwtAuth(cfg.Security.JWTSecret)).Post("/sync", h.TriggerSync)
	})

	return r
}
