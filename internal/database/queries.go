// Railref - French Rail Network Reference Data Service
// Copyright 2026 A. Vaillant
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/availlant/railref

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/availlant/railref/internal/metrics"
	"github.com/availlant/railref/internal/models"
)

// ErrNotFound is returned by Get* queries when no row matches.
var ErrNotFound = errors.New("not found")

// ListRegions returns all regions ordered by code.
func (db *DB) ListRegions(ctx context.Context) ([]models.Region, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT code, name, created_at, updated_at
		FROM regions ORDER BY code`)
	if err != nil {
		metrics.DBQueryErrors.WithLabelValues("list", "regions").Inc()
		return nil, fmt.Errorf("listing regions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.Region
	for rows.Next() {
		var r models.Region
		if err := rows.Scan(&r.Code, &r.Name, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning region: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetRegion returns one region by INSEE code.
func (db *DB) GetRegion(ctx context.Context, code string) (*models.Region, error) {
	var r models.Region
	err := db.conn.QueryRowContext(ctx, `
		SELECT code, name, created_at, updated_at
		FROM regions WHERE code = ?`, code).
		Scan(&r.Code, &r.Name, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		metrics.DBQueryErrors.WithLabelValues("get", "regions").Inc()
		return nil, fmt.Errorf("getting region %q: %w", code, err)
	}
	return &r, nil
}

// ListDepartements returns all departements ordered by code, optionally
// filtered by region code.
func (db *DB) ListDepartements(ctx context.Context, regionCode string) ([]models.Departement, error) {
	query := `SELECT code, name, region_code, created_at, updated_at FROM departements`
	args := []any{}
	if regionCode != "" {
		query += ` WHERE region_code = ?`
		args = append(args, regionCode)
	}
	query += ` ORDER BY code`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		metrics.DBQueryErrors.WithLabelValues("list", "departements").Inc()
		return nil, fmt.Errorf("listing departements: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.Departement
	for rows.Next() {
		var d models.Departement
		var region sql.NullString
		if err := rows.Scan(&d.Code, &d.Name, &region, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning departement: %w", err)
		}
		d.RegionCode = region.String
		out = append(out, d)
	}
	return out, rows.Err()
}

// GetDepartement returns one departement by INSEE code.
func (db *DB) GetDepartement(ctx context.Context, code string) (*models.Departement, error) {
	var d models.Departement
	var region sql.NullString
	err := db.conn.QueryRowContext(ctx, `
		SELECT code, name, region_code, created_at, updated_at
		FROM departements WHERE code = ?`, code).
		Scan(&d.Code, &d.Name, &region, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		metrics.DBQueryErrors.WithLabelValues("get", "departements").Inc()
		return nil, fmt.Errorf("getting departement %q: %w", code, err)
	}
	d.RegionCode = region.String
	return &d, nil
}

// StationFilter narrows and pages a station listing.
type StationFilter struct {
	Query       string // case-insensitive substring match on name
	Departement string // exact match on the catalog departement label
	Limit       int
	Offset      int
}

// ListStations returns a page of stations plus the total count matching
// the filter.
func (db *DB) ListStations(ctx context.Context, f StationFilter) ([]models.Station, int, error) {
	where := []string{"is_active"}
	args := []any{}
	if f.Query != "" {
		where = append(where, "name ILIKE ?")
		args = append(args, "%"+f.Query+"%")
	}
	if f.Departement != "" {
		where = append(where, "departement = ?")
		args = append(args, f.Departement)
	}
	whereClause := " WHERE " + strings.Join(where, " AND ")

	var total int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM stations`+whereClause, args...).Scan(&total); err != nil {
		metrics.DBQueryErrors.WithLabelValues("count", "stations").Inc()
		return nil, 0, fmt.Errorf("counting stations: %w", err)
	}

	query := `
		SELECT uic_code, name, commune, departement, latitude, longitude,
		       has_freight, has_passengers, is_active, created_at, updated_at
		FROM stations` + whereClause + ` ORDER BY uic_code LIMIT ? OFFSET ?`
	rows, err := db.conn.QueryContext(ctx, query, append(args, f.Limit, f.Offset)...)
	if err != nil {
		metrics.DBQueryErrors.WithLabelValues("list", "stations").Inc()
		return nil, 0, fmt.Errorf("listing stations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.Station
	for rows.Next() {
		s, err := scanStation(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, s)
	}
	return out, total, rows.Err()
}

// GetStation returns one station by UIC code.
func (db *DB) GetStation(ctx context.Context, uic string) (*models.Station, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT uic_code, name, commune, departement, latitude, longitude,
		       has_freight, has_passengers, is_active, created_at, updated_at
		FROM stations WHERE uic_code = ?`, uic)
	s, err := scanStation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		metrics.DBQueryErrors.WithLabelValues("get", "stations").Inc()
		return nil, fmt.Errorf("getting station %q: %w", uic, err)
	}
	return &s, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStation(row rowScanner) (models.Station, error) {
	var s models.Station
	var commune, departement sql.NullString
	var lat, lon sql.NullFloat64
	err := row.Scan(&s.UICCode, &s.Name, &commune, &departement, &lat, &lon,
		&s.HasFreight, &s.HasPassengers, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return s, err
	}
	s.Commune = commune.String
	s.Departement = departement.String
	if lat.Valid {
		s.Latitude = &lat.Float64
	}
	if lon.Valid {
		s.Longitude = &lon.Float64
	}
	return s, nil
}

// ListLines returns all active lines ordered by code, optionally
// filtered by network name.
func (db *DB) ListLines(ctx context.Context, network string) ([]models.Line, error) {
	query := `
		SELECT line_code, name, network, color, text_color, is_active, created_at, updated_at
		FROM lines WHERE is_active`
	args := []any{}
	if network != "" {
		query += ` AND network = ?`
		args = append(args, network)
	}
	query += ` ORDER BY line_code`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		metrics.DBQueryErrors.WithLabelValues("list", "lines").Inc()
		return nil, fmt.Errorf("listing lines: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.Line
	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// GetLine returns one line by its provider-assigned code.
func (db *DB) GetLine(ctx context.Context, code string) (*models.Line, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT line_code, name, network, color, text_color, is_active, created_at, updated_at
		FROM lines WHERE line_code = ?`, code)
	l, err := scanLine(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		metrics.DBQueryErrors.WithLabelValues("get", "lines").Inc()
		return nil, fmt.Errorf("getting line %q: %w", code, err)
	}
	return &l, nil
}

func scanLine(row rowScanner) (models.Line, error) {
	var l models.Line
	var network, color, textColor sql.NullString
	err := row.Scan(&l.LineCode, &l.Name, &network, &color, &textColor,
		&l.IsActive, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return l, err
	}
	l.Network = network.String
	l.Color = color.String
	l.TextColor = textColor.String
	return l, nil
}

// Counts reports the row count of each reference table, for /stats.
type Counts struct {
	Regions      int `json:"regions"`
	Departements int `json:"departements"`
	Stations     int `json:"stations"`
	Lines        int `json:"lines"`
}

// TableCounts returns the current row counts of the reference tables.
func (db *DB) TableCounts(ctx context.Context) (*Counts, error) {
	var c Counts
	err := db.conn.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM regions),
			(SELECT COUNT(*) FROM departements),
			(SELECT COUNT(*) FROM stations),
			(SELECT COUNT(*) FROM lines)`).
		Scan(&c.Regions, &c.Departements, &c.Stations, &c.Lines)
	if err != nil {
		metrics.DBQueryErrors.WithLabelValues("count", "all").Inc()
		return nil, fmt.Errorf("counting tables: %w", err)
	}
	return &c, nil
}
