// Railref - French Rail Network Reference Data Service
// Copyright 2026 A. Vaillant
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/availlant/railref

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/railref/config.yaml",
	"/etc/railref/config.yml",
}

// ConfigPathEnvVar overrides the config file search path.
const ConfigPathEnvVar = "RAILREF_CONFIG"

// envPrefix is the prefix for all Railref environment variables.
// Nesting uses a double underscore: RAILREF_SOURCES__SNCF__BASE_URL
// maps to sources.sncf.base_url.
const envPrefix = "RAILREF_"

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by the config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Sources: SourcesConfig{
			SNCF: SNCFConfig{
				BaseURL: "https://data.sncf.com/api/explore/v2.1",
				APIKey:  "",
				Timeout: 30 * time.Second,
			},
			Navitia: NavitiaConfig{
				BaseURL:  "https://api.navitia.io/v1",
				APIKey:   "",
				Coverage: "sncf",
				Timeout:  30 * time.Second,
			},
			OpenDataSoft: OpenDataSoftConfig{
				BaseURL: "https://public.opendatasoft.com/api/explore/v2.1",
				Timeout: 30 * time.Second,
			},
		},
		Database: DatabaseConfig{
			Path:                   "/data/railref.duckdb",
			MaxMemory:              "1GB",
			Threads:                0, // 0 = use runtime.NumCPU()
			PreserveInsertionOrder: true,
		},
		Sync: SyncConfig{
			Interval:               6 * time.Hour,
			OnStartup:              true,
			PageSize:               100,
			RetryAttempts:          3,
			TimeoutBackoff:         5 * time.Second,
			TransientBackoff:       2 * time.Second,
			MaxConsecutiveFailures: 5,
			PageDelay:              200 * time.Millisecond,
		},
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8043,
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		Security: SecurityConfig{
			JWTSecret:         "",
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
			CORSOrigins:       []string{"*"},
		},
		API: APIConfig{
			DefaultPageSize: 20,
			MaxPageSize:     100,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load builds the configuration from layered sources:
//  1. Defaults: built-in sensible defaults
//  2. Config file: optional YAML (RAILREF_CONFIG or DefaultConfigPaths)
//  3. Environment variables: RAILREF_-prefixed, highest priority
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	envProvider := env.Provider(envPrefix, ".", envTransform)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// envTransform maps RAILREF_SOURCES__SNCF__BASE_URL to sources.sncf.base_url.
// Double underscores separate nesting levels so field names may contain
// single underscores.
func envTransform(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	return strings.ReplaceAll(strings.ToLower(s), "__", ".")
}

// sliceConfigPaths lists config keys parsed as comma-separated slices
// when provided via environment variables.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields converts comma-separated env strings into slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		raw := k.Get(path)
		s, ok := raw.(string)
		if !ok || s == "" {
			continue
		}
		parts := strings.Split(s, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		if err := k.Set(path, parts); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// findConfigFile searches for a config file, env override first.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
