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
	"github.com/availlant/railref/internal/database"
	"github.com/availlant/railref/internal/models"
)

func setupTestStore(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.New(&config.DatabaseConfig{
		Path:                   ":memory:",
		MaxMemory:              "256MB",
		Threads:                1,
		PreserveInsertionOrder: true,
	})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// newUpstreamServer fakes all three providers behind one mux. Setting
// failRegions makes the administrative regions dataset permanently
// unavailable.
func newUpstreamServer(t *testing.T, failRegions bool) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/catalog/datasets/georef-france-region/records", func(w http.ResponseWriter, r *http.Request) {
		if failRegions {
			// 404 is fatal: the entity aborts after a single attempt,
			// without tripping the shared provider breaker.
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("offset") != "0" {
			_, _ = w.Write([]byte(`{"total_count":2,"results":[]}`))
			return
		}
		_, _ = w.Write([]byte(`{"total_count":2,"results":[
			{"code":"11","nom":"Île-de-France"},
			{"code":"53","nom":"Bretagne"}
		]}`))
	})

	mux.HandleFunc("/catalog/datasets/georef-france-departement/records", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("offset") != "0" {
			_, _ = w.Write([]byte(`{"total_count":2,"results":[]}`))
			return
		}
		_, _ = w.Write([]byte(`{"total_count":2,"results":[
			{"code":"75","nom":"Paris","code_region":"11"},
			{"code":"35","nom":"Ille-et-Vilaine","code_region":"53"}
		]}`))
	})

	// The station catalog carries a duplicate UIC and a record with no
	// key; both must be rejected without failing the page.
	mux.HandleFunc("/catalog/datasets/liste-des-gares/records", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("offset") != "0" {
			_, _ = w.Write([]byte(`{"total_count":3,"results":[]}`))
			return
		}
		_, _ = w.Write([]byte(`{"total_count":3,"results":[
			{"code_uic":"87686006","libelle":"Paris Gare de Lyon","departemen":"Paris","fret":"N","voyageurs":"O","y_wgs84":48.844,"x_wgs84":2.373},
			{"code_uic":"87686006","libelle":"Paris Gare de Lyon (doublon)","fret":"N","voyageurs":"O"},
			{"code_uic":"","libelle":"Gare fantôme","fret":"N","voyageurs":"N"}
		]}`))
	})

	mux.HandleFunc("/coverage/sncf/lines", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("start_page") != "0" {
			_, _ = w.Write([]byte(`{"lines":[],"pagination":{"total_result":1}}`))
			return
		}
		_, _ = w.Write([]byte(`{
			"lines":[{"id":"line:SNCF:A","name":"Paris - Lyon","network":{"name":"TGV INOUI"}}],
			"pagination":{"total_result":1,"items_per_page":100,"start_page":0}
		}`))
	})

	return httptest.NewServer(mux)
}

func newTestManager(t *testing.T, db *database.DB, upstreamURL string) *Manager {
	t.Helper()
	cfg := &config.Config{
		Sources: config.SourcesConfig{
			SNCF:         config.SNCFConfig{BaseURL: upstreamURL, Timeout: 5 * time.Second},
			Navitia:      config.NavitiaConfig{BaseURL: upstreamURL, Coverage: "sncf", Timeout: 5 * time.Second},
			OpenDataSoft: config.OpenDataSoftConfig{BaseURL: upstreamURL, Timeout: 5 * time.Second},
		},
		Sync: *testSyncConfig(),
	}
	return NewManager(cfg, db,
		NewOpenDataSoftClient(&cfg.Sources.OpenDataSoft),
		NewSNCFClient(&cfg.Sources.SNCF),
		NewNavitiaClient(&cfg.Sources.Navitia))
}

func TestManagerFullRun(t *testing.T) {
	server := newUpstreamServer(t, false)
	defer server.Close()

	db := setupTestStore(t)
	m := newTestManager(t, db, server.URL)

	summary, err := m.TriggerSync(context.Background())
	checkNoError(t, "trigger", err)

	checkStringEqual(t, "state", string(summary.State), string(models.RunCompleted))
	checkBoolEqual(t, "partial", summary.Partial(), false)
	checkIntEqual(t, "entity results", len(summary.Results), 4)
	if summary.RunID == "" {
		t.Error("run ID should be set")
	}

	// Fixed entity order.
	for i, want := range models.EntityOrder {
		checkStringEqual(t, "order", string(summary.Results[i].Entity), string(want))
	}

	checkIntEqual(t, "regions", summary.Results[0].Records, 2)
	checkIntEqual(t, "departements", summary.Results[1].Records, 2)
	checkIntEqual(t, "stations", summary.Results[2].Records, 1)
	checkIntEqual(t, "stations rejected", summary.Results[2].Rejected, 2)
	checkIntEqual(t, "lines", summary.Results[3].Records, 1)

	counts, err := db.TableCounts(context.Background())
	checkNoError(t, "counts", err)
	checkIntEqual(t, "regions rows", counts.Regions, 2)
	checkIntEqual(t, "stations rows", counts.Stations, 1)
	checkIntEqual(t, "lines rows", counts.Lines, 1)

	// The winning station is the first occurrence of the key.
	station, err := db.GetStation(context.Background(), "87686006")
	checkNoError(t, "get station", err)
	checkStringEqual(t, "station name", station.Name, "Paris Gare de Lyon")
	checkBoolEqual(t, "passengers", station.HasPassengers, true)

	checkStringEqual(t, "manager state", string(m.State()), string(models.RunCompleted))
	if m.LastRun() == nil || m.LastRun().RunID != summary.RunID {
		t.Error("last run summary should be retained")
	}
}

func TestManagerRunIsIdempotent(t *testing.T) {
	server := newUpstreamServer(t, false)
	defer server.Close()

	db := setupTestStore(t)
	m := newTestManager(t, db, server.URL)

	_, err := m.TriggerSync(context.Background())
	checkNoError(t, "first run", err)
	_, err = m.TriggerSync(context.Background())
	checkNoError(t, "second run", err)

	counts, err := db.TableCounts(context.Background())
	checkNoError(t, "counts", err)
	checkIntEqual(t, "regions rows", counts.Regions, 2)
	checkIntEqual(t, "departements rows", counts.Departements, 2)
	checkIntEqual(t, "stations rows", counts.Stations, 1)
	checkIntEqual(t, "lines rows", counts.Lines, 1)
}

func TestManagerContainsEntityFailure(t *testing.T) {
	server := newUpstreamServer(t, true)
	defer server.Close()

	db := setupTestStore(t)
	m := newTestManager(t, db, server.URL)

	summary, err := m.TriggerSync(context.Background())
	checkNoError(t, "trigger", err)

	// The run still completes: regions is partial, everything after it
	// syncs normally.
	checkStringEqual(t, "state", string(summary.State), string(models.RunCompleted))
	checkBoolEqual(t, "run partial", summary.Partial(), true)
	checkBoolEqual(t, "regions partial", summary.Results[0].Partial, true)
	checkBoolEqual(t, "departements ok", summary.Results[1].Partial, false)
	checkIntEqual(t, "departements", summary.Results[1].Records, 2)
	checkIntEqual(t, "stations", summary.Results[2].Records, 1)
	checkIntEqual(t, "lines", summary.Results[3].Records, 1)
}
