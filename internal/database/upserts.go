// Railref - French Rail Network Reference Data Service
// Copyright 2026 A. Vaillant
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/availlant/railref

package database

import (
	"context"
	"database/sql"

	"github.com/availlant/railref/internal/metrics"
	"github.com/availlant/railref/internal/models"
)

// Tx-scoped natural-key upserts used by the sync engine. Each inserts a
// fresh row or overwrites every mutable attribute of the existing one,
// stamping updated_at; created_at survives the overwrite. All of them
// run inside the caller's page transaction.

// UpsertRegion inserts or updates one region by INSEE region code.
func UpsertRegion(ctx context.Context, tx *sql.Tx, rec models.RegionRecord) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO regions (code, name)
		VALUES (?, ?)
		ON CONFLICT (code) DO UPDATE SET
			name = EXCLUDED.name,
			updated_at = now()`,
		rec.Code, rec.Name)
	if err != nil {
		metrics.DBQueryErrors.WithLabelValues("upsert", "regions").Inc()
	}
	return err
}

// UpsertDepartement inserts or updates one departement by INSEE code.
func UpsertDepartement(ctx context.Context, tx *sql.Tx, rec models.DepartementRecord) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO departements (code, name, region_code)
		VALUES (?, ?, ?)
		ON CONFLICT (code) DO UPDATE SET
			name = EXCLUDED.name,
			region_code = EXCLUDED.region_code,
			updated_at = now()`,
		rec.Code, rec.Name, rec.RegionCode)
	if err != nil {
		metrics.DBQueryErrors.WithLabelValues("upsert", "departements").Inc()
	}
	return err
}

// UpsertStation inserts or updates one station by UIC code. Re-synced
// stations come back active even if previously deactivated.
func UpsertStation(ctx context.Context, tx *sql.Tx, rec models.StationRecord) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO stations (uic_code, name, commune, departement, latitude, longitude, has_freight, has_passengers, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, TRUE)
		ON CONFLICT (uic_code) DO UPDATE SET
			name = EXCLUDED.name,
			commune = EXCLUDED.commune,
			departement = EXCLUDED.departement,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			has_freight = EXCLUDED.has_freight,
			has_passengers = EXCLUDED.has_passengers,
			is_active = TRUE,
			updated_at = now()`,
		rec.UICCode, rec.Name, rec.Commune, rec.Departement,
		rec.Latitude, rec.Longitude, rec.HasFreight(), rec.HasPassengers())
	if err != nil {
		metrics.DBQueryErrors.WithLabelValues("upsert", "stations").Inc()
	}
	return err
}

// UpsertLine inserts or updates one line by its provider-assigned code.
func UpsertLine(ctx context.Context, tx *sql.Tx, rec models.LineRecord) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO lines (line_code, name, network, color, text_color, is_active)
		VALUES (?, ?, ?, ?, ?, TRUE)
		ON CONFLICT (line_code) DO UPDATE SET
			name = EXCLUDED.name,
			network = EXCLUDED.network,
			color = EXCLUDED.color,
			text_color = EXCLUDED.text_color,
			is_active = TRUE,
			updated_at = now()`,
		rec.ID, rec.Name, rec.Network, rec.Color, rec.TextColor)
	if err != nil {
		metrics.DBQueryErrors.WithLabelValues("upsert", "lines").Inc()
	}
	return err
}
