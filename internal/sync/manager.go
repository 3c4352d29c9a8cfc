// Railref - French Rail Network Reference Data Service
// Copyright 2026 A. Vaillant
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/availlant/railref

/*
manager.go - Sync Manager Lifecycle and Orchestration

The manager orchestrates full synchronization runs from the three
upstream providers into the DuckDB reference store.

A run syncs entity types in fixed order: regions, departements,
stations, lines. Each entity type is independent; a partial or failed
entity sync never prevents the following ones, and a run always
terminates in the completed state with per-entity partial flags in its
summary.

Thread safety:
  - syncMu: prevents concurrent run execution
  - mu: protects state and lastRun
*/
package sync

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/availlant/railref/internal/config"
	"github.com/availlant/railref/internal/database"
	"github.com/availlant/railref/internal/logging"
	"github.com/availlant/railref/internal/metrics"
	"github.com/availlant/railref/internal/models"
)

// ErrSyncInProgress is returned by TriggerSync when a run is already
// executing.
var ErrSyncInProgress = errors.New("synchronization already in progress")

// Manager orchestrates synchronization runs and the periodic sync loop.
type Manager struct {
	cfg     *config.Config
	store   Store
	ods     *OpenDataSoftClient
	sncf    *SNCFClient
	navitia *NavitiaClient

	syncMu sync.Mutex   // one run at a time
	mu     sync.RWMutex // guards state, lastRun

	state   models.RunState
	lastRun *models.RunSummary

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewManager creates a sync manager. The clients may be shared with the
// API layer's live proxies.
func NewManager(cfg *config.Config, store Store, ods *OpenDataSoftClient, sncf *SNCFClient, navitia *NavitiaClient) *Manager {
	return &Manager{
		cfg:      cfg,
		store:    store,
		ods:      ods,
		sncf:     sncf,
		navitia:  navitia,
		state:    models.RunNotStarted,
		stopChan: make(chan struct{}),
	}
}

// Start launches the periodic sync loop. If sync.on_startup is set, a
// run executes immediately before the first tick.
func (m *Manager) Start(ctx context.Context) {
	m.wg.Add(1)
	go m.loop(ctx)
	logging.Info().Dur("interval", m.cfg.Sync.Interval).Bool("on_startup", m.cfg.Sync.OnStartup).Msg("Sync manager started")
}

// Stop terminates the periodic loop and waits for any in-flight run's
// goroutine bookkeeping. Safe to call more than once.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.stopChan) })
	m.wg.Wait()
	logging.Info().Msg("Sync manager stopped")
}

func (m *Manager) loop(ctx context.Context) {
	defer m.wg.Done()

	if m.cfg.Sync.OnStartup {
		if _, err := m.runLocked(ctx); err != nil {
			logging.Warn().Err(err).Msg("Startup sync skipped")
		}
	}

	ticker := time.NewTicker(m.cfg.Sync.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := m.runLocked(ctx); err != nil {
				logging.Warn().Err(err).Msg("Scheduled sync skipped")
			}
		case <-m.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// TriggerSync executes a run immediately. It returns ErrSyncInProgress
// if another run holds the sync mutex.
func (m *Manager) TriggerSync(ctx context.Context) (*models.RunSummary, error) {
	return m.runLocked(ctx)
}

func (m *Manager) runLocked(ctx context.Context) (*models.RunSummary, error) {
	if !m.syncMu.TryLock() {
		return nil, ErrSyncInProgress
	}
	defer m.syncMu.Unlock()
	return m.runFull(ctx), nil
}

// State returns the current orchestrator state.
func (m *Manager) State() models.RunState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// LastRun returns the most recent run summary, or nil before any run.
func (m *Manager) LastRun() *models.RunSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastRun
}

// runFull executes one full synchronization run. It never returns an
// error: per-entity failures are contained in the summary's partial
// flags and the run always reaches the completed state.
func (m *Manager) runFull(ctx context.Context) *models.RunSummary {
	summary := &models.RunSummary{
		RunID:     uuid.NewString(),
		State:     models.RunRunning,
		StartedAt: time.Now().UTC(),
	}

	m.mu.Lock()
	m.state = models.RunRunning
	m.mu.Unlock()

	metrics.SyncRuns.Inc()
	logging.Info().Str("run_id", summary.RunID).Msg("Starting full synchronization run")

	for _, entity := range models.EntityOrder {
		summary.Results = append(summary.Results, m.syncEntity(ctx, entity))
	}

	summary.FinishedAt = time.Now().UTC()
	summary.Duration = summary.FinishedAt.Sub(summary.StartedAt)
	summary.State = models.RunCompleted

	m.mu.Lock()
	m.state = models.RunCompleted
	m.lastRun = summary
	m.mu.Unlock()

	logging.Info().
		Str("run_id", summary.RunID).
		Int("total_records", summary.TotalRecords()).
		Bool("partial", summary.Partial()).
		Dur("duration", summary.Duration).
		Msg("Synchronization run completed")
	return summary
}

// syncEntity dispatches one entity type to its provider-specific
// fetch/upsert pair.
func (m *Manager) syncEntity(ctx context.Context, entity models.EntityType) models.EntityResult {
	switch entity {
	case models.EntityRegions:
		return syncEntity(ctx, m, entity, "opendatasoft", m.ods.FetchRegionsPage, database.UpsertRegion)
	case models.EntityDepartements:
		return syncEntity(ctx, m, entity, "opendatasoft", m.ods.FetchDepartementsPage, database.UpsertDepartement)
	case models.EntityStations:
		return syncEntity(ctx, m, entity, "sncf", m.sncf.FetchStationsPage, database.UpsertStation)
	case models.EntityLines:
		return syncEntity(ctx, m, entity, "navitia", m.navitia.FetchLinesPage, database.UpsertLine)
	default:
		return models.EntityResult{Entity: entity, Partial: true, Error: "unknown entity type"}
	}
}

// syncEntity runs the page loop for one entity type and folds the
// outcome into an EntityResult. Free function because methods cannot
// introduce type parameters.
func syncEntity[T record](ctx context.Context, m *Manager, entity models.EntityType, provider string, fetch pageFetch[T], upsert upsertFunc[T]) models.EntityResult {
	start := time.Now()
	name := string(entity)
	tracker := newKeyTracker()

	logging.Info().Str("entity", name).Str("provider", provider).Msg("Syncing entity type")

	pg := newPaginator(name, provider, &m.cfg.Sync, fetch, func(ctx context.Context, records []T) (int, int, error) {
		return reconcilePage(ctx, m.store, name, tracker, records, upsert)
	})

	persisted, rejected, partial, err := pg.run(ctx)

	result := models.EntityResult{
		Entity:   entity,
		Records:  persisted,
		Rejected: rejected,
		Partial:  partial,
		Duration: time.Since(start),
	}
	if err != nil {
		result.Error = err.Error()
	}
	metrics.ObserveEntitySync(name, persisted, partial, result.Duration)

	evt := logging.Info()
	if partial {
		evt = logging.Warn()
	}
	evt.Str("entity", name).Int("records", persisted).Int("rejected", rejected).Bool("partial", partial).Dur("duration", result.Duration).Msg("Entity sync finished")
	return result
}
