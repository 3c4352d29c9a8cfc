// Railref - French Rail Network Reference Data Service
// Copyright 2026 A. Vaillant
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/availlant/railref

package models

// Normalized upstream record shapes. Source clients flatten each provider's
// envelope (nested record.fields wrappers, pagination metadata variants)
// into these before any downstream logic sees them.

// RegionRecord is one region as returned by the administrative dataset.
type RegionRecord struct {
	Code string `json:"code"`
	Name string `json:"nom"`
}

// Key returns the natural key (region code).
func (r RegionRecord) Key() string { return r.Code }

// DepartementRecord is one department as returned by the administrative
// dataset.
type DepartementRecord struct {
	Code       string `json:"code"`
	Name       string `json:"nom"`
	RegionCode string `json:"code_region"`
}

// Key returns the natural key (department code).
func (r DepartementRecord) Key() string { return r.Code }

// StationRecord is one station from the liste-des-gares catalog after
// envelope normalization. Freight and passenger service flags arrive as
// "O"/"N" strings; coordinates come from the WGS84 columns.
type StationRecord struct {
	UICCode     string   `json:"code_uic"`
	Name        string   `json:"libelle"`
	Commune     string   `json:"commune"`
	Departement string   `json:"departemen"` // catalog column name, truncated upstream
	Freight     string   `json:"fret"`
	Passengers  string   `json:"voyageurs"`
	Latitude    *float64 `json:"y_wgs84"`
	Longitude   *float64 `json:"x_wgs84"`
}

// Key returns the natural key (UIC code).
func (r StationRecord) Key() string { return r.UICCode }

// HasFreight reports whether the station carries freight service.
func (r StationRecord) HasFreight() bool { return r.Freight == "O" }

// HasPassengers reports whether the station carries passenger service.
func (r StationRecord) HasPassengers() bool { return r.Passengers == "O" }

// LineRecord is one line as returned by the network provider, flattened
// from its nested network object.
type LineRecord struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Network   string `json:"-"` // flattened from network.name
	Color     string `json:"color"`
	TextColor string `json:"text_color"`
}

// Key returns the natural key (provider-assigned line code).
func (r LineRecord) Key() string { return r.ID }

// Disruption is a live network disruption from the operational provider.
// Disruptions are never persisted; they are proxied at query time.
type Disruption struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Cause    string `json:"cause"`
	Category string `json:"category,omitempty"`
	Severity string `json:"severity"`
	Message  string `json:"message,omitempty"`
	LineCode string `json:"line_code,omitempty"`
	Begin    string `json:"begin,omitempty"`
	End      string `json:"end,omitempty"`
}

// Departure is a live next departure from a station, fetched at query time.
type Departure struct {
	Direction     string `json:"direction"`
	LineCode      string `json:"line_code,omitempty"`
	LineName      string `json:"line_name,omitempty"`
	Network       string `json:"network,omitempty"`
	DepartureTime string `json:"departure_time"`
	BaseTime      string `json:"base_departure_time,omitempty"`
	Headsign      string `json:"headsign,omitempty"`
}
