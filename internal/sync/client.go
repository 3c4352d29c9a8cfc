// Railref - French Rail Network Reference Data Service
// Copyright 2026 A. Vaillant
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/availlant/railref

package sync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/availlant/railref/internal/logging"
	"github.com/availlant/railref/internal/metrics"
)

const maxErrorBodySize = 64 * 1024 // 64KB cap on error bodies we log back

// providerClient is the shared HTTP plumbing for all upstream open-data
// providers. Each provider wraps one with its own base URL, auth and
// response decoding. Every request runs through a circuit breaker so
// requests to a flapping upstream fail fast instead of retrying into it.
type providerClient struct {
	name    string
	baseURL string
	client  *http.Client
	cb      *gobreaker.CircuitBreaker[[]byte]
	// auth decorates the outgoing request, e.g. Navitia basic auth.
	// May be nil for keyless providers.
	auth func(*http.Request)
}

// newProviderClient builds the shared client for one upstream provider.
// Circuit breaker configuration mirrors the fetch retry policy: it opens
// after a 60% failure rate over at least 10 requests and probes recovery
// after two minutes.
func newProviderClient(name, baseURL string, timeout time.Duration, auth func(*http.Request)) *providerClient {
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0) // 0 = closed

	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("provider", name).Str("from", from.String()).Str("to", to.String()).Msg("[CIRCUIT BREAKER] State transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})

	return &providerClient{
		name:    name,
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		cb:      cb,
		auth:    auth,
	}
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// get performs a GET against path with query params and returns the raw
// body. Errors come back already classified into the retry taxonomy:
// an open breaker or network failure is transient, a 4xx is fatal.
func (pc *providerClient) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	reqURL := pc.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	body, err := pc.cb.Execute(func() ([]byte, error) {
		return pc.doGet(ctx, reqURL)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.PageFetches.WithLabelValues(pc.name, "transient").Inc()
			return nil, &TransientError{Err: fmt.Errorf("%s circuit breaker: %w", pc.name, err)}
		}
		if isFatal(err) {
			metrics.PageFetches.WithLabelValues(pc.name, "fatal").Inc()
		} else {
			metrics.PageFetches.WithLabelValues(pc.name, "transient").Inc()
		}
		return nil, err
	}

	metrics.PageFetches.WithLabelValues(pc.name, "ok").Inc()
	return body, nil
}

// doGet executes the request inside the breaker so that status failures
// count toward its trip threshold.
func (pc *providerClient) doGet(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &FatalError{Err: fmt.Errorf("building request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if pc.auth != nil {
		pc.auth(req)
	}

	resp, err := pc.client.Do(req)
	if err != nil {
		return nil, classifyRequestError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body := readBodyForError(resp.Body)
		return nil, classifyStatusError(resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyRequestError(fmt.Errorf("reading response body: %w", err))
	}
	return body, nil
}

// readBodyForError reads a capped prefix of the response body for error
// reporting. Upstreams occasionally return multi-megabyte HTML error
// pages; we only keep enough to diagnose.
func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte(fmt.Sprintf("<failed to read body: %v>", err))
	}
	return body
}
