// Railref - French Rail Network Reference Data Service
// Copyright 2026 A. Vaillant
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/availlant/railref

package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	if err := c.validateSources(); err != nil {
		return err
	}
	if err := c.validateSync(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateSources() error {
	if err := validateHTTPURL(c.Sources.SNCF.BaseURL, "sources.sncf.base_url"); err != nil {
		return err
	}
	if err := validateHTTPURL(c.Sources.Navitia.BaseURL, "sources.navitia.base_url"); err != nil {
		return err
	}
	if err := validateHTTPURL(c.Sources.OpenDataSoft.BaseURL, "sources.opendatasoft.base_url"); err != nil {
		return err
	}
	if c.Sources.Navitia.Coverage == "" {
		return fmt.Errorf("sources.navitia.coverage must not be empty")
	}
	return nil
}

func (c *Config) validateSync() error {
	if c.Sync.PageSize <= 0 {
		return fmt.Errorf("sync.page_size must be positive, got %d", c.Sync.PageSize)
	}
	if c.Sync.RetryAttempts <= 0 {
		return fmt.Errorf("sync.retry_attempts must be positive, got %d", c.Sync.RetryAttempts)
	}
	if c.Sync.MaxConsecutiveFailures <= 0 {
		return fmt.Errorf("sync.max_consecutive_failures must be positive, got %d", c.Sync.MaxConsecutiveFailures)
	}
	if c.Sync.Interval <= 0 {
		return fmt.Errorf("sync.interval must be positive, got %s", c.Sync.Interval)
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	return nil
}

func (c *Config) validateSecurity() error {
	// JWT secret is only required in production; development deployments
	// may leave the sync-trigger route unprotected.
	if c.Server.Environment == "production" && len(c.Security.JWTSecret) < 32 {
		return fmt.Errorf("security.jwt_secret must be at least 32 characters in production")
	}
	if !c.Security.RateLimitDisabled {
		if c.Security.RateLimitReqs <= 0 {
			return fmt.Errorf("security.rate_limit_reqs must be positive, got %d", c.Security.RateLimitReqs)
		}
		if c.Security.RateLimitWindow <= 0 {
			return fmt.Errorf("security.rate_limit_window must be positive, got %s", c.Security.RateLimitWindow)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "disabled":
	default:
		return fmt.Errorf("logging.level must be one of trace/debug/info/warn/error/fatal, got %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

// validateHTTPURL checks that a value is a well-formed http(s) URL.
func validateHTTPURL(value, name string) error {
	if value == "" {
		return fmt.Errorf("%s is required", name)
	}
	u, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", name, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https scheme, got %q", name, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%s is missing a host", name)
	}
	return nil
}
