// Railref - French Rail Network Reference Data Service
// Copyright 2026 A. Vaillant
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/availlant/railref

package sync

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/availlant/railref/internal/config"
	"github.com/availlant/railref/internal/models"
)

func TestDecodeExplorePageFlatShape(t *testing.T) {
	body := []byte(`{"total_count":2,"results":[
		{"code":"11","nom":"Île-de-France"},
		{"code":"84","nom":"Auvergne-Rhône-Alpes"}
	]}`)

	records, meta, err := decodeExplorePage[models.RegionRecord](body)
	checkNoError(t, "decode", err)
	checkIntEqual(t, "count", meta.Count, 2)
	checkIntEqual(t, "total", meta.Total, 2)
	checkStringEqual(t, "first code", records[0].Code, "11")
	checkStringEqual(t, "first name", records[0].Name, "Île-de-France")
}

func TestDecodeExplorePageRecordFieldsEnvelope(t *testing.T) {
	// Older exports nest usable fields under record.fields. Both shapes
	// must decode to the same flat record.
	body := []byte(`{"total_count":1,"results":[
		{"record":{"fields":{"code_uic":"87686006","libelle":"Paris Gare de Lyon","departemen":"Paris","fret":"N","voyageurs":"O","y_wgs84":48.844,"x_wgs84":2.373}}}
	]}`)

	records, meta, err := decodeExplorePage[models.StationRecord](body)
	checkNoError(t, "decode", err)
	checkIntEqual(t, "count", meta.Count, 1)

	s := records[0]
	checkStringEqual(t, "uic", s.UICCode, "87686006")
	checkStringEqual(t, "name", s.Name, "Paris Gare de Lyon")
	checkBoolEqual(t, "freight", s.HasFreight(), false)
	checkBoolEqual(t, "passengers", s.HasPassengers(), true)
	if s.Latitude == nil || *s.Latitude != 48.844 {
		t.Errorf("latitude: expected 48.844, got %v", s.Latitude)
	}
}

func TestDecodeExplorePageMalformedBodyIsFatal(t *testing.T) {
	_, _, err := decodeExplorePage[models.RegionRecord]([]byte(`<html>gateway error</html>`))
	checkError(t, "decode", err)
	checkBoolEqual(t, "fatal", isFatal(err), true)
}

func TestSNCFClientFetchStationsPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		checkStringEqual(t, "path", r.URL.Path, "/catalog/datasets/liste-des-gares/records")
		checkStringEqual(t, "offset", r.URL.Query().Get("offset"), "200")
		checkStringEqual(t, "limit", r.URL.Query().Get("limit"), "100")
		_, _ = w.Write([]byte(`{"total_count":3042,"results":[
			{"code_uic":"87171009","libelle":"Culmont - Chalindrey","departemen":"Haute-Marne","fret":"O","voyageurs":"O"}
		]}`))
	}))
	defer server.Close()

	client := NewSNCFClient(&config.SNCFConfig{BaseURL: server.URL, Timeout: 5 * time.Second})
	records, meta, err := client.FetchStationsPage(context.Background(), 200, 100)
	checkNoError(t, "fetch", err)
	checkIntEqual(t, "total", meta.Total, 3042)
	checkIntEqual(t, "count", meta.Count, 1)
	checkStringEqual(t, "key", records[0].Key(), "87171009")
	checkBoolEqual(t, "freight", records[0].HasFreight(), true)
}

func TestOpenDataSoftClientProjectsGeorefColumns(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/catalog/datasets/georef-france-region/records":
			checkStringEqual(t, "select", r.URL.Query().Get("select"), "reg_code as code, reg_name as nom")
			_, _ = w.Write([]byte(`{"total_count":13,"results":[{"code":"53","nom":"Bretagne"}]}`))
		case "/catalog/datasets/georef-france-departement/records":
			_, _ = w.Write([]byte(`{"total_count":101,"results":[{"code":"35","nom":"Ille-et-Vilaine","code_region":"53"}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := NewOpenDataSoftClient(&config.OpenDataSoftConfig{BaseURL: server.URL, Timeout: 5 * time.Second})

	regions, meta, err := client.FetchRegionsPage(context.Background(), 0, 100)
	checkNoError(t, "regions", err)
	checkIntEqual(t, "regions total", meta.Total, 13)
	checkStringEqual(t, "region key", regions[0].Key(), "53")

	departements, meta, err := client.FetchDepartementsPage(context.Background(), 0, 100)
	checkNoError(t, "departements", err)
	checkIntEqual(t, "departements total", meta.Total, 101)
	checkStringEqual(t, "departement region", departements[0].RegionCode, "53")
}

func TestNavitiaClientFetchLinesPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		checkStringEqual(t, "path", r.URL.Path, "/coverage/sncf/lines")
		checkStringEqual(t, "start_page", r.URL.Query().Get("start_page"), "2")
		checkStringEqual(t, "count", r.URL.Query().Get("count"), "100")

		user, _, ok := r.BasicAuth()
		checkBoolEqual(t, "basic auth present", ok, true)
		checkStringEqual(t, "token", user, "test-token")

		_, _ = w.Write([]byte(`{
			"lines":[{"id":"line:SNCF:FR:Line::A1BF73:","name":"Paris - Lyon","color":"204A87","text_color":"FFFFFF","network":{"name":"TGV INOUI"}}],
			"pagination":{"total_result":431,"items_per_page":100,"start_page":2}
		}`))
	}))
	defer server.Close()

	client := NewNavitiaClient(&config.NavitiaConfig{
		BaseURL: server.URL, APIKey: "test-token", Coverage: "sncf", Timeout: 5 * time.Second,
	})

	records, meta, err := client.FetchLinesPage(context.Background(), 200, 100)
	checkNoError(t, "fetch", err)
	checkIntEqual(t, "total", meta.Total, 431)
	checkStringEqual(t, "key", records[0].Key(), "line:SNCF:FR:Line::A1BF73:")
	checkStringEqual(t, "network flattened", records[0].Network, "TGV INOUI")
}

func TestNavitiaClientDisruptions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		checkStringEqual(t, "path", r.URL.Path, "/coverage/sncf/disruptions")
		// The same disruption repeats once per impacted object group.
		_, _ = w.Write([]byte(`{"disruptions":[
			{"id":"d1","status":"active","cause":"travaux","severity":{"name":"blocking"},
			 "messages":[{"text":"Ligne fermée"}],
			 "application_periods":[{"begin":"20260826T050000","end":"20260826T230000"}],
			 "impacted_objects":[{"pt_object":{"id":"line:SNCF:X","embedded_type":"line"}}]},
			{"id":"d1","status":"active","cause":"travaux","severity":{"name":"blocking"}},
			{"id":"d2","status":"past","cause":"incident voyageur","severity":{}}
		]}`))
	}))
	defer server.Close()

	client := NewNavitiaClient(&config.NavitiaConfig{
		BaseURL: server.URL, Coverage: "sncf", Timeout: 5 * time.Second,
	})

	disruptions, err := client.Disruptions(context.Background())
	checkNoError(t, "disruptions", err)
	checkIntEqual(t, "deduplicated count", len(disruptions), 2)
	checkStringEqual(t, "line code", disruptions[0].LineCode, "line:SNCF:X")
	checkStringEqual(t, "message", disruptions[0].Message, "Ligne fermée")
	checkStringEqual(t, "begin", disruptions[0].Begin, "20260826T050000")
	checkStringEqual(t, "default severity", disruptions[1].Severity, "info")
}

func TestNavitiaClientDepartures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Bare UIC codes expand to full stop_area IDs.
		checkStringEqual(t, "path", r.URL.Path, "/coverage/sncf/stop_areas/stop_area:SNCF:87686006/departures")
		checkStringEqual(t, "count", r.URL.Query().Get("count"), "5")
		_, _ = w.Write([]byte(`{"departures":[
			{"display_informations":{"direction":"Lyon Part-Dieu","code":"TGV","name":"Paris - Lyon","network":"TGV INOUI","headsign":"6607"},
			 "stop_date_time":{"departure_date_time":"20260826T081500","base_departure_date_time":"20260826T081000"}}
		]}`))
	}))
	defer server.Close()

	client := NewNavitiaClient(&config.NavitiaConfig{
		BaseURL: server.URL, Coverage: "sncf", Timeout: 5 * time.Second,
	})

	departures, err := client.Departures(context.Background(), "87686006", 5)
	checkNoError(t, "departures", err)
	checkIntEqual(t, "count", len(departures), 1)
	checkStringEqual(t, "direction", departures[0].Direction, "Lyon Part-Dieu")
	checkStringEqual(t, "delayed departure", departures[0].DepartureTime, "20260826T081500")
	checkStringEqual(t, "scheduled departure", departures[0].BaseTime, "20260826T081000")
}
