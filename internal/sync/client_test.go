// Railref - French Rail Network Reference Data Service
// Copyright 2026 A. Vaillant
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/availlant/railref

package sync

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestProviderClientGet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		checkStringEqual(t, "accept header", r.Header.Get("Accept"), "application/json")
		checkStringEqual(t, "path", r.URL.Path, "/catalog/datasets/liste-des-gares/records")
		checkStringEqual(t, "limit param", r.URL.Query().Get("limit"), "100")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"total_count":1,"results":[]}`))
	}))
	defer server.Close()

	pc := newProviderClient("test-ok", server.URL, 5*time.Second, nil)
	body, err := pc.get(context.Background(), "/catalog/datasets/liste-des-gares/records", map[string][]string{"limit": {"100"}})
	checkNoError(t, "get", err)
	checkStringEqual(t, "body", string(body), `{"total_count":1,"results":[]}`)
}

func TestProviderClientAuthDecorator(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		checkStringEqual(t, "authorization", r.Header.Get("Authorization"), "Apikey secret")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	pc := newProviderClient("test-auth", server.URL, 5*time.Second, func(req *http.Request) {
		req.Header.Set("Authorization", "Apikey secret")
	})
	_, err := pc.get(context.Background(), "/anything", nil)
	checkNoError(t, "get", err)
}

func TestProviderClientClassifiesStatuses(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantFatal bool
	}{
		{"server error is transient", http.StatusInternalServerError, false},
		{"rate limit is transient", http.StatusTooManyRequests, false},
		{"not found is fatal", http.StatusNotFound, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "upstream says no", tt.status)
			}))
			defer server.Close()

			pc := newProviderClient("test-"+tt.name, server.URL, 5*time.Second, nil)
			_, err := pc.get(context.Background(), "/x", nil)
			checkError(t, "get", err)
			checkBoolEqual(t, "fatal", isFatal(err), tt.wantFatal)
		})
	}
}

func TestProviderClientCircuitBreakerOpens(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer server.Close()

	pc := newProviderClient("test-breaker", server.URL, 5*time.Second, nil)

	// Trip threshold: >=60% failures over >=10 requests.
	for i := 0; i < 10; i++ {
		_, err := pc.get(context.Background(), "/x", nil)
		checkError(t, "failing request", err)
	}

	// The breaker is now open; the request never reaches the server
	// and surfaces as a transient error.
	_, err := pc.get(context.Background(), "/x", nil)
	checkError(t, "request with open breaker", err)
	var te *TransientError
	if !errors.As(err, &te) {
		t.Fatalf("expected a transient error from the open breaker, got %v", err)
	}
}

func TestReadBodyForErrorCapsSize(t *testing.T) {
	big := make([]byte, 2*maxErrorBodySize)
	for i := range big {
		big[i] = 'x'
	}

	got := readBodyForError(bytes.NewReader(big))
	checkIntEqual(t, "capped length", len(got), maxErrorBodySize)
}
