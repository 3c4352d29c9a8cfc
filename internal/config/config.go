// Railref - French Rail Network Reference Data Service
// Copyright 2026 A. Vaillant
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/availlant/railref

// Package config loads and validates Railref configuration via Koanf v2
// with layered sources: built-in defaults, an optional YAML file, then
// environment variables (highest priority).
package config

import "time"

// Config is the root configuration for the Railref server.
type Config struct {
	Sources  SourcesConfig  `koanf:"sources"`
	Database DatabaseConfig `koanf:"database"`
	Sync     SyncConfig     `koanf:"sync"`
	Server   ServerConfig   `koanf:"server"`
	Security SecurityConfig `koanf:"security"`
	API      APIConfig      `koanf:"api"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// SourcesConfig groups the upstream data provider endpoints.
type SourcesConfig struct {
	SNCF         SNCFConfig         `koanf:"sncf"`
	Navitia      NavitiaConfig      `koanf:"navitia"`
	OpenDataSoft OpenDataSoftConfig `koanf:"opendatasoft"`
}

// SNCFConfig holds SNCF open data (Explore v2.1) settings.
// The stations catalog (liste-des-gares) is served from this provider.
//
// Environment variables:
//   - RAILREF_SOURCES__SNCF__BASE_URL
//   - RAILREF_SOURCES__SNCF__API_KEY (optional)
type SNCFConfig struct {
	BaseURL string        `koanf:"base_url"`
	APIKey  string        `koanf:"api_key"`
	Timeout time.Duration `koanf:"timeout"`
}

// NavitiaConfig holds Navitia.io settings. Lines are synced from this
// provider; disruptions and departures are proxied live at query time.
type NavitiaConfig struct {
	BaseURL  string        `koanf:"base_url"`
	APIKey   string        `koanf:"api_key"`
	Coverage string        `koanf:"coverage"`
	Timeout  time.Duration `koanf:"timeout"`
}

// OpenDataSoftConfig holds the public OpenDataSoft platform settings.
// Regions and departements are synced from this provider.
type OpenDataSoftConfig struct {
	BaseURL string        `koanf:"base_url"`
	Timeout time.Duration `koanf:"timeout"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	Path                   string `koanf:"path"`
	MaxMemory              string `koanf:"max_memory"`
	Threads                int    `koanf:"threads"` // 0 = runtime.NumCPU()
	PreserveInsertionOrder bool   `koanf:"preserve_insertion_order"`
}

// SyncConfig tunes the synchronization engine.
//
// Per-page retry policy: up to RetryAttempts attempts with linear backoff,
// attempt x TimeoutBackoff for timeout-class transient errors and
// attempt x TransientBackoff for other transient errors. A page whose
// retries are exhausted is skipped and flags the entity sync partial;
// MaxConsecutiveFailures skipped or failed pages in a row abort it.
type SyncConfig struct {
	Interval               time.Duration `koanf:"interval"`
	OnStartup              bool          `koanf:"on_startup"`
	PageSize               int           `koanf:"page_size"`
	RetryAttempts          int           `koanf:"retry_attempts"`
	TimeoutBackoff         time.Duration `koanf:"timeout_backoff"`
	TransientBackoff       time.Duration `koanf:"transient_backoff"`
	MaxConsecutiveFailures int           `koanf:"max_consecutive_failures"`
	PageDelay              time.Duration `koanf:"page_delay"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"`
}

// SecurityConfig holds authentication and rate limit settings.
// JWTSecret protects the mutating sync-trigger route only; read
// endpoints are public like the upstream open data they republish.
type SecurityConfig struct {
	JWTSecret         string        `koanf:"jwt_secret"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// APIConfig holds read API pagination limits.
type APIConfig struct {
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}
