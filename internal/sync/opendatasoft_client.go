// Railref - French Rail Network Reference Data Service
// Copyright 2026 A. Vaillant
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/availlant/railref

package sync

import (
	"context"
	"net/url"

	"github.com/availlant/railref/internal/config"
	"github.com/availlant/railref/internal/models"
)

// Administrative reference datasets on the public Opendatasoft platform.
const (
	regionsDataset      = "georef-france-region"
	departementsDataset = "georef-france-departement"
)

// OpenDataSoftClient fetches the administrative reference datasets
// (regions and departements) from the public Opendatasoft platform.
type OpenDataSoftClient struct {
	pc *providerClient
}

// NewOpenDataSoftClient creates a client for the public Opendatasoft
// platform. The platform is keyless for public catalog reads.
func NewOpenDataSoftClient(cfg *config.OpenDataSoftConfig) *OpenDataSoftClient {
	return &OpenDataSoftClient{
		pc: newProviderClient("opendatasoft", cfg.BaseURL, cfg.Timeout, nil),
	}
}

// FetchRegionsPage fetches one page of French regions. The select clause
// projects the georef columns onto the normalized record shape so both
// administrative datasets decode identically.
func (c *OpenDataSoftClient) FetchRegionsPage(ctx context.Context, offset, limit int) ([]models.RegionRecord, PageMeta, error) {
	params := url.Values{}
	params.Set("select", "reg_code as code, reg_name as nom")
	params.Set("order_by", "code")
	return fetchExplorePage[models.RegionRecord](ctx, c.pc, regionsDataset, offset, limit, params)
}

// FetchDepartementsPage fetches one page of French departements.
func (c *OpenDataSoftClient) FetchDepartementsPage(ctx context.Context, offset, limit int) ([]models.DepartementRecord, PageMeta, error) {
	params := url.Values{}
	params.Set("select", "dep_code as code, dep_name as nom, reg_code as code_region")
	params.Set("order_by", "code")
	return fetchExplorePage[models.DepartementRecord](ctx, c.pc, departementsDataset, offset, limit, params)
}
