// Railref - French Rail Network Reference Data Service
// Copyright 2026 A. Vaillant
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/availlant/railref

package sync

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/goccy/go-json"
)

// PageMeta carries the pagination metadata of one fetched page, already
// normalized across providers. Total is the declared total result count,
// or -1 when the provider does not declare one.
type PageMeta struct {
	Count int
	Total int
}

// Empty reports whether the page carried no records.
func (m PageMeta) Empty() bool { return m.Count == 0 }

// exploreResponse is the Opendatasoft Explore v2.1 page envelope shared
// by the SNCF and public Opendatasoft platforms.
type exploreResponse struct {
	TotalCount int               `json:"total_count"`
	Results    []json.RawMessage `json:"results"`
}

// recordEnvelope is the alternate Explore item shape where the usable
// fields are nested one level down. Some datasets serve both shapes
// depending on export age, so every item is probed for it.
type recordEnvelope struct {
	Record struct {
		Fields json.RawMessage `json:"fields"`
	} `json:"record"`
}

// decodeExplorePage decodes one Explore v2.1 page body into flat records,
// unwrapping the record.fields envelope where present. A body that does
// not decode is fatal: the dataset schema has changed and retrying the
// same request would return the same bytes.
func decodeExplorePage[T any](body []byte) ([]T, PageMeta, error) {
	var resp exploreResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, PageMeta{}, &FatalError{Err: fmt.Errorf("decoding page envelope: %w", err)}
	}

	records := make([]T, 0, len(resp.Results))
	for _, raw := range resp.Results {
		payload := raw
		var env recordEnvelope
		if err := json.Unmarshal(raw, &env); err == nil && len(env.Record.Fields) > 0 {
			payload = env.Record.Fields
		}

		var rec T
		if err := json.Unmarshal(payload, &rec); err != nil {
			return nil, PageMeta{}, &FatalError{Err: fmt.Errorf("decoding record: %w", err)}
		}
		records = append(records, rec)
	}

	return records, PageMeta{Count: len(records), Total: resp.TotalCount}, nil
}

// fetchExplorePage fetches one limit/offset page of an Explore v2.1
// dataset and decodes it.
func fetchExplorePage[T any](ctx context.Context, pc *providerClient, dataset string, offset, limit int, extra url.Values) ([]T, PageMeta, error) {
	params := url.Values{}
	for k, vs := range extra {
		params[k] = vs
	}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(offset))

	body, err := pc.get(ctx, "/catalog/datasets/"+dataset+"/records", params)
	if err != nil {
		return nil, PageMeta{}, err
	}
	return decodeExplorePage[T](body)
}
