// Railref - French Rail Network Reference Data Service
// Copyright 2026 A. Vaillant
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/availlant/railref

/*
handlers.go - HTTP API Handlers

Read endpoints serve the synchronized reference store (regions,
departements, stations, lines). Departures and alerts are live proxies
to the journey-planning provider and never touch the store. The sync
trigger is the only mutating route and sits behind JWT auth.
*/
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/availlant/railref/internal/config"
	"github.com/availlant/railref/internal/database"
	"github.com/availlant/railref/internal/models"
	syncengine "github.com/availlant/railref/internal/sync"
)

// Store is the database surface the handlers need. *database.DB
// satisfies it.
type Store interface {
	Ping(ctx context.Context) error
	ListRegions(ctx context.Context) ([]models.Region, error)
	GetRegion(ctx context.Context, code string) (*models.Region, error)
	ListDepartements(ctx context.Context, regionCode string) ([]models.Departement, error)
	GetDepartement(ctx context.Context, code string) (*models.Departement, error)
	ListStations(ctx context.Context, f database.StationFilter) ([]models.Station, int, error)
	GetStation(ctx context.Context, uic string) (*models.Station, error)
	ListLines(ctx context.Context, network string) ([]models.Line, error)
	GetLine(ctx context.Context, code string) (*models.Line, error)
	TableCounts(ctx context.Context) (*database.Counts, error)
}

// SyncTrigger is the sync manager surface the handlers need.
type SyncTrigger interface {
	TriggerSync(ctx context.Context) (*models.RunSummary, error)
	LastRun() *models.RunSummary
	State() models.RunState
}

// LiveProvider serves operational data proxied at query time.
type LiveProvider interface {
	Disruptions(ctx context.Context) ([]models.Disruption, error)
	Departures(ctx context.Context, station string, count int) ([]models.Departure, error)
}

// Handler carries the dependencies of all HTTP handlers.
type Handler struct {
	store   Store
	manager SyncTrigger
	live    LiveProvider
	cfg     *config.Config
}

// NewHandler creates the API handler set.
func NewHandler(cfg *config.Config, store Store, manager SyncTrigger, live LiveProvider) *Handler {
	return &Handler{store: store, manager: manager, live: live, cfg: cfg}
}

// Health reports liveness plus database reachability and sync state.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if err := h.store.Ping(r.Context()); err != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	respondJSON(w, code, &models.APIResponse{
		Status: status,
		Data: map[string]any{
			"sync_state": h.manager.State(),
		},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// Regions lists all regions.
func (h *Handler) Regions(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	regions, err := h.store.ListRegions(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "failed to list regions", err)
		return
	}
	respondList(w, regions, len(regions), start)
}

// RegionByCode returns one region.
func (h *Handler) RegionByCode(w http.ResponseWriter, r *http.Request) {
	h.respondOne(w, r, func(ctx context.Context) (any, error) {
		return h.store.GetRegion(ctx, chi.URLParam(r, "code"))
	})
}

// Departements lists departements, optionally filtered by ?region=.
func (h *Handler) Departements(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	departements, err := h.store.ListDepartements(r.Context(), r.URL.Query().Get("region"))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "failed to list departements", err)
		return
	}
	respondList(w, departements, len(departements), start)
}

// DepartementByCode returns one departement.
func (h *Handler) DepartementByCode(w http.ResponseWriter, r *http.Request) {
	h.respondOne(w, r, func(ctx context.Context) (any, error) {
		return h.store.GetDepartement(ctx, chi.URLParam(r, "code"))
	})
}

// stationsRequest carries the validated station listing parameters.
type stationsRequest struct {
	Limit  int `validate:"min=1"`
	Offset int `validate:"min=0"`
}

// Stations lists stations with substring search, departement filter and
// limit/offset pagination.
func (h *Handler) Stations(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	req := stationsRequest{
		Limit:  getIntParam(r, "limit", h.cfg.API.DefaultPageSize),
		Offset: getIntParam(r, "offset", 0),
	}
	if req.Limit > h.cfg.API.MaxPageSize {
		req.Limit = h.cfg.API.MaxPageSize
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	filter := database.StationFilter{
		Query:       r.URL.Query().Get("q"),
		Departement: r.URL.Query().Get("departement"),
		Limit:       req.Limit,
		Offset:      req.Offset,
	}
	stations, total, err := h.store.ListStations(r.Context(), filter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "failed to list stations", err)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   stations,
		Metadata: models.Metadata{
			Timestamp: time.Now(),
			Count:     len(stations),
			Total:     total,
			Limit:     req.Limit,
			Offset:    req.Offset,
			TookMs:    time.Since(start).Milliseconds(),
		},
	})
}

// StationByUIC returns one station.
func (h *Handler) StationByUIC(w http.ResponseWriter, r *http.Request) {
	h.respondOne(w, r, func(ctx context.Context) (any, error) {
		return h.store.GetStation(ctx, chi.URLParam(r, "uic"))
	})
}

// Lines lists lines, optionally filtered by ?network=.
func (h *Handler) Lines(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	lines, err := h.store.ListLines(r.Context(), r.URL.Query().Get("network"))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "failed to list lines", err)
		return
	}
	respondList(w, lines, len(lines), start)
}

// LineByCode returns one line.
func (h *Handler) LineByCode(w http.ResponseWriter, r *http.Request) {
	h.respondOne(w, r, func(ctx context.Context) (any, error) {
		return h.store.GetLine(ctx, chi.URLParam(r, "code"))
	})
}

// Departures proxies the next departures from a station live from the
// journey-planning provider. ?station= is required (UIC code or full
// stop_area ID).
func (h *Handler) Departures(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	station := r.URL.Query().Get("station")
	if station == "" {
		respondError(w, http.StatusBadRequest, "MISSING_PARAMETER", "station parameter is required", nil)
		return
	}
	count := getIntParam(r, "count", 10)
	if count < 1 || count > 50 {
		count = 10
	}

	departures, err := h.live.Departures(r.Context(), station, count)
	if err != nil {
		respondError(w, http.StatusBadGateway, "UPSTREAM_ERROR", "failed to fetch departures", err)
		return
	}
	respondList(w, departures, len(departures), start)
}

// Alerts proxies the current network disruptions live from the
// journey-planning provider.
func (h *Handler) Alerts(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	disruptions, err := h.live.Disruptions(r.Context())
	if err != nil {
		respondError(w, http.StatusBadGateway, "UPSTREAM_ERROR", "failed to fetch disruptions", err)
		return
	}
	respondList(w, disruptions, len(disruptions), start)
}

// Stats reports reference table counts and the last sync run summary.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	counts, err := h.store.TableCounts(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "failed to count tables", err)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: map[string]any{
			"tables":     counts,
			"sync_state": h.manager.State(),
			"last_run":   h.manager.LastRun(),
		},
		Metadata: models.Metadata{
			Timestamp: time.Now(),
			TookMs:    time.Since(start).Milliseconds(),
		},
	})
}

// TriggerSync executes a synchronization run and returns its summary.
// Returns 409 when a run is already in progress.
func (h *Handler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	summary, err := h.manager.TriggerSync(r.Context())
	if err != nil {
		if errors.Is(err, syncengine.ErrSyncInProgress) {
			respondError(w, http.StatusConflict, "SYNC_IN_PROGRESS", "a synchronization run is already in progress", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "SYNC_ERROR", "synchronization failed to start", err)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   summary,
		Metadata: models.Metadata{
			Timestamp: time.Now(),
			TookMs:    time.Since(start).Milliseconds(),
		},
	})
}

// respondOne handles the shared single-entity lookup envelope.
func (h *Handler) respondOne(w http.ResponseWriter, r *http.Request, get func(ctx context.Context) (any, error)) {
	start := time.Now()

	item, err := get(r.Context())
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "no such resource", nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "query failed", err)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   item,
		Metadata: models.Metadata{
			Timestamp: time.Now(),
			TookMs:    time.Since(start).Milliseconds(),
		},
	})
}

// respondList sends a collection in the standard envelope.
func respondList(w http.ResponseWriter, data any, count int, start time.Time) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   data,
		Metadata: models.Metadata{
			Timestamp: time.Now(),
			Count:     count,
			TookMs:    time.Since(start).Milliseconds(),
		},
	})
}
