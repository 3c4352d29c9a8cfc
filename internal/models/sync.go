// Railref - French Rail Network Reference Data Service
// Copyright 2026 A. Vaillant
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/availlant/railref

package models

import "time"

// EntityType identifies one synchronized entity family.
type EntityType string

// Synchronized entity types, in dependency order.
const (
	EntityRegions      EntityType = "regions"
	EntityDepartements EntityType = "departements"
	EntityStations     EntityType = "stations"
	EntityLines        EntityType = "lines"
)

// EntityOrder is the fixed order in which entity types are synced.
// Regions and departements come first so their codes exist (best effort)
// before the rows that reference them.
var EntityOrder = []EntityType{
	EntityRegions,
	EntityDepartements,
	EntityStations,
	EntityLines,
}

// RunState is the orchestrator state for one synchronization run.
type RunState string

// Run states. There is no failed terminal state: a run always reaches
// Completed, carrying per-entity partial-failure flags instead.
const (
	RunNotStarted RunState = "not_started"
	RunRunning    RunState = "running"
	RunCompleted  RunState = "completed"
)

// EntityResult reports the outcome of one entity type's sync.
type EntityResult struct {
	Entity   EntityType    `json:"entity"`
	Records  int           `json:"records"`
	Rejected int           `json:"rejected"` // empty-key or duplicate records dropped
	Partial  bool          `json:"partial"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"` // cause of the partial failure, when any
}

// RunSummary aggregates the results of one full synchronization run.
type RunSummary struct {
	RunID      string         `json:"run_id"`
	State      RunState       `json:"state"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Duration   time.Duration  `json:"duration"`
	Results    []EntityResult `json:"results"`
}

// Partial reports whether any entity type ended short of full data.
func (s *RunSummary) Partial() bool {
	for _, r := range s.Results {
		if r.Partial {
			return true
		}
	}
	return false
}

// TotalRecords returns the sum of records persisted across entity types.
func (s *RunSummary) TotalRecords() int {
	total := 0
	for _, r := range s.Results {
		total += r.Records
	}
	return total
}
