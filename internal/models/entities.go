// Railref - French Rail Network Reference Data Service
// Copyright 2026 A. Vaillant
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/availlant/railref

// Package models defines the persisted entities, the normalized upstream
// record shapes, and the API response envelopes shared across Railref.
package models

import "time"

// Region is a French administrative region, keyed by its INSEE region code.
type Region struct {
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Departement is a French administrative department, keyed by its INSEE
// department code. RegionCode is a weak reference by code, not an enforced
// foreign key: upstream sync ordering does not guarantee the region row
// exists when the department arrives.
type Departement struct {
	Code       string    `json:"code"`
	Name       string    `json:"name"`
	RegionCode string    `json:"region_code"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Station is a rail station from the national stations catalog, keyed by
// its UIC code. Departement is the free-text department label carried by
// the catalog, not the INSEE department code.
type Station struct {
	UICCode       string    `json:"uic_code"`
	Name          string    `json:"name"`
	Commune       string    `json:"commune,omitempty"`
	Departement   string    `json:"departement,omitempty"`
	Latitude      *float64  `json:"latitude,omitempty"`
	Longitude     *float64  `json:"longitude,omitempty"`
	HasFreight    bool      `json:"has_freight"`
	HasPassengers bool      `json:"has_passengers"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Line is a commercial rail line, keyed by the provider-assigned line code
// (an opaque string that may contain non-numeric characters).
type Line struct {
	LineCode  string    `json:"line_code"`
	Name      string    `json:"name"`
	Network   string    `json:"network,omitempty"`
	Color     string    `json:"color,omitempty"`
	TextColor string    `json:"text_color,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
