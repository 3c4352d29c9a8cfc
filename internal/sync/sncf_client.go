// Railref - French Rail Network Reference Data Service
// Copyright 2026 A. Vaillant
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/availlant/railref

package sync

import (
	"context"
	"net/http"
	"net/url"

	"github.com/availlant/railref/internal/config"
	"github.com/availlant/railref/internal/models"
)

// stationsDataset is the SNCF station catalog. Its schema predates the
// Explore migration, which is why the departement column arrives
// truncated and service flags are "O"/"N" strings.
const stationsDataset = "liste-des-gares"

// SNCFClient fetches the station catalog from the SNCF open data
// platform (Explore v2.1).
type SNCFClient struct {
	pc *providerClient
}

// NewSNCFClient creates a client for the SNCF open data platform.
// An API key is optional; anonymous reads are quota-limited upstream.
func NewSNCFClient(cfg *config.SNCFConfig) *SNCFClient {
	var auth func(*http.Request)
	if cfg.APIKey != "" {
		key := cfg.APIKey
		auth = func(req *http.Request) {
			req.Header.Set("Authorization", "Apikey "+key)
		}
	}
	return &SNCFClient{
		pc: newProviderClient("sncf", cfg.BaseURL, cfg.Timeout, auth),
	}
}

// FetchStationsPage fetches one page of the station catalog. Items may
// arrive flat or nested under record.fields depending on the export;
// both shapes normalize to the same StationRecord.
func (c *SNCFClient) FetchStationsPage(ctx context.Context, offset, limit int) ([]models.StationRecord, PageMeta, error) {
	params := url.Values{}
	params.Set("order_by", "code_uic")
	return fetchExplorePage[models.StationRecord](ctx, c.pc, stationsDataset, offset, limit, params)
}
