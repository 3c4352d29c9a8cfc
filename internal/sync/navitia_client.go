// Railref - French Rail Network Reference Data Service
// Copyright 2026 A. Vaillant
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/availlant/railref

package sync

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/availlant/railref/internal/config"
	"github.com/availlant/railref/internal/models"
)

// NavitiaClient talks to the Navitia.io journey-planning API. Lines are
// synced into the reference store; disruptions and departures are
// operational data and are proxied live, never persisted.
type NavitiaClient struct {
	pc       *providerClient
	coverage string
}

// NewNavitiaClient creates a Navitia client. Navitia authenticates with
// the token as basic-auth username.
func NewNavitiaClient(cfg *config.NavitiaConfig) *NavitiaClient {
	var auth func(*http.Request)
	if cfg.APIKey != "" {
		key := cfg.APIKey
		auth = func(req *http.Request) {
			req.SetBasicAuth(key, "")
		}
	}
	return &NavitiaClient{
		pc:       newProviderClient("navitia", cfg.BaseURL, cfg.Timeout, auth),
		coverage: cfg.Coverage,
	}
}

// Wire shapes. Navitia nests aggressively; only the fields the reference
// store and the live proxies need are decoded.

type navitiaLine struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	TextColor string `json:"text_color"`
	Network   struct {
		Name string `json:"name"`
	} `json:"network"`
}

type navitiaPagination struct {
	TotalResult  int `json:"total_result"`
	ItemsPerPage int `json:"items_per_page"`
	StartPage    int `json:"start_page"`
}

type navitiaLinesResponse struct {
	Lines      []navitiaLine     `json:"lines"`
	Pagination navitiaPagination `json:"pagination"`
}

type navitiaDisruption struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Cause    string `json:"cause"`
	Category string `json:"category"`
	Severity struct {
		Name string `json:"name"`
	} `json:"severity"`
	Messages []struct {
		Text string `json:"text"`
	} `json:"messages"`
	ApplicationPeriods []struct {
		Begin string `json:"begin"`
		End   string `json:"end"`
	} `json:"application_periods"`
	ImpactedObjects []struct {
		PtObject struct {
			ID   string `json:"id"`
			Type string `json:"embedded_type"`
		} `json:"pt_object"`
	} `json:"impacted_objects"`
}

type navitiaDeparture struct {
	DisplayInformations struct {
		Direction string `json:"direction"`
		Code      string `json:"code"`
		Name      string `json:"name"`
		Network   string `json:"network"`
		Headsign  string `json:"headsign"`
	} `json:"display_informations"`
	StopDateTime struct {
		DepartureDateTime     string `json:"departure_date_time"`
		BaseDepartureDateTime string `json:"base_departure_date_time"`
	} `json:"stop_date_time"`
}

// FetchLinesPage fetches one page of lines. Navitia paginates with
// start_page/count rather than limit/offset, so the offset is converted;
// the paginator always requests aligned offsets.
func (c *NavitiaClient) FetchLinesPage(ctx context.Context, offset, limit int) ([]models.LineRecord, PageMeta, error) {
	params := url.Values{}
	params.Set("start_page", strconv.Itoa(offset/limit))
	params.Set("count", strconv.Itoa(limit))

	body, err := c.pc.get(ctx, "/coverage/"+c.coverage+"/lines", params)
	if err != nil {
		return nil, PageMeta{}, err
	}

	var resp navitiaLinesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, PageMeta{}, &FatalError{Err: err}
	}

	records := make([]models.LineRecord, 0, len(resp.Lines))
	for _, l := range resp.Lines {
		records = append(records, models.LineRecord{
			ID:        l.ID,
			Name:      l.Name,
			Network:   l.Network.Name,
			Color:     l.Color,
			TextColor: l.TextColor,
		})
	}

	total := resp.Pagination.TotalResult
	if total == 0 && len(records) > 0 {
		total = -1 // provider omitted the declared total
	}
	return records, PageMeta{Count: len(records), Total: total}, nil
}

// Disruptions fetches the current network disruptions. Results are
// deduplicated by disruption ID; Navitia repeats a disruption once per
// impacted object group.
func (c *NavitiaClient) Disruptions(ctx context.Context) ([]models.Disruption, error) {
	body, err := c.pc.get(ctx, "/coverage/"+c.coverage+"/disruptions", nil)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Disruptions []navitiaDisruption `json:"disruptions"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &FatalError{Err: err}
	}

	seen := make(map[string]struct{}, len(resp.Disruptions))
	out := make([]models.Disruption, 0, len(resp.Disruptions))
	for _, d := range resp.Disruptions {
		if d.ID == "" {
			continue
		}
		if _, ok := seen[d.ID]; ok {
			continue
		}
		seen[d.ID] = struct{}{}

		m := models.Disruption{
			ID:       d.ID,
			Status:   d.Status,
			Cause:    d.Cause,
			Category: d.Category,
			Severity: d.Severity.Name,
		}
		if m.Severity == "" {
			m.Severity = "info"
		}
		if len(d.Messages) > 0 {
			m.Message = d.Messages[0].Text
		}
		if len(d.ApplicationPeriods) > 0 {
			m.Begin = d.ApplicationPeriods[0].Begin
			m.End = d.ApplicationPeriods[0].End
		}
		for _, obj := range d.ImpactedObjects {
			if obj.PtObject.Type == "line" {
				m.LineCode = obj.PtObject.ID
				break
			}
		}
		out = append(out, m)
	}
	return out, nil
}

// Departures fetches the next departures from a station. The station may
// be given as a bare UIC code or a full Navitia stop_area ID.
func (c *NavitiaClient) Departures(ctx context.Context, station string, count int) ([]models.Departure, error) {
	stopArea := station
	if !strings.Contains(station, ":") {
		stopArea = "stop_area:SNCF:" + station
	}

	params := url.Values{}
	params.Set("count", strconv.Itoa(count))

	body, err := c.pc.get(ctx, "/coverage/"+c.coverage+"/stop_areas/"+url.PathEscape(stopArea)+"/departures", params)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Departures []navitiaDeparture `json:"departures"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &FatalError{Err: err}
	}

	out := make([]models.Departure, 0, len(resp.Departures))
	for _, d := range resp.Departures {
		out = append(out, models.Departure{
			Direction:     d.DisplayInformations.Direction,
			LineCode:      d.DisplayInformations.Code,
			LineName:      d.DisplayInformations.Name,
			Network:       d.DisplayInformations.Network,
			Headsign:      d.DisplayInformations.Headsign,
			DepartureTime: d.StopDateTime.DepartureDateTime,
			BaseTime:      d.StopDateTime.BaseDepartureDateTime,
		})
	}
	return out, nil
}
