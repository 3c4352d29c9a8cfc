// Railref - French Rail Network Reference Data Service
// Copyright 2026 A. Vaillant
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/availlant/railref

package database

import (
	"context"
	"fmt"
)

// schemaStatements creates the reference tables. Natural keys are primary
// keys so ON CONFLICT upserts enforce the one-row-per-key invariant at
// the storage layer. departements.region_code is deliberately NOT a
// foreign key: upstream ordering is best effort and a departement may
// arrive before its region in a partial run.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS regions (
		code        VARCHAR PRIMARY KEY,
		name        VARCHAR NOT NULL,
		created_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS departements (
		code         VARCHAR PRIMARY KEY,
		name         VARCHAR NOT NULL,
		region_code  VARCHAR,
		created_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS stations (
		uic_code        VARCHAR PRIMARY KEY,
		name            VARCHAR NOT NULL,
		commune         VARCHAR,
		departement     VARCHAR,
		latitude        DOUBLE,
		longitude       DOUBLE,
		has_freight     BOOLEAN NOT NULL DEFAULT FALSE,
		has_passengers  BOOLEAN NOT NULL DEFAULT FALSE,
		is_active       BOOLEAN NOT NULL DEFAULT TRUE,
		created_at      TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at      TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS lines (
		line_code   VARCHAR PRIMARY KEY,
		name        VARCHAR NOT NULL,
		network     VARCHAR,
		color       VARCHAR,
		text_color  VARCHAR,
		is_active   BOOLEAN NOT NULL DEFAULT TRUE,
		created_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_stations_departement ON stations(departement)`,
	`CREATE INDEX IF NOT EXISTS idx_stations_name ON stations(name)`,
	`CREATE INDEX IF NOT EXISTS idx_departements_region ON departements(region_code)`,
}

func (db *DB) initSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}
