// Railref - French Rail Network Reference Data Service
// Copyright 2026 A. Vaillant
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/availlant/railref

package sync

import (
	"context"
	"errors"
	"net/http"
	"testing"
)

func TestClassifyStatusError(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		wantFatal   bool
		wantTimeout bool
	}{
		{"rate limited", http.StatusTooManyRequests, false, false},
		{"gateway timeout", http.StatusGatewayTimeout, false, true},
		{"internal error", http.StatusInternalServerError, false, false},
		{"bad gateway", http.StatusBadGateway, false, false},
		{"not found", http.StatusNotFound, true, false},
		{"unauthorized", http.StatusUnauthorized, true, false},
		{"bad request", http.StatusBadRequest, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classifyStatusError(tt.status, "body")
			checkBoolEqual(t, "fatal", isFatal(err), tt.wantFatal)
			checkBoolEqual(t, "timeout", isTimeout(err), tt.wantTimeout)
		})
	}
}

func TestClassifyRequestError(t *testing.T) {
	err := classifyRequestError(context.DeadlineExceeded)
	checkBoolEqual(t, "deadline is timeout", isTimeout(err), true)
	checkBoolEqual(t, "deadline is not fatal", isFatal(err), false)

	// Cancellation passes through untouched so shutdown is not treated
	// as an upstream failure.
	err = classifyRequestError(context.Canceled)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled to pass through, got %v", err)
	}
	var te *TransientError
	if errors.As(err, &te) {
		t.Error("cancellation should not be classified as transient")
	}

	err = classifyRequestError(errors.New("connection refused"))
	if !errors.As(err, &te) {
		t.Fatalf("expected a transient error, got %v", err)
	}
	checkBoolEqual(t, "plain network error is not timeout", te.Timeout, false)
}

func TestErrorUnwrapping(t *testing.T) {
	cause := errors.New("root cause")

	if !errors.Is(&TransientError{Err: cause}, cause) {
		t.Error("TransientError should unwrap to its cause")
	}
	if !errors.Is(&FatalError{Err: cause}, cause) {
		t.Error("FatalError should unwrap to its cause")
	}
	if !errors.Is(&PersistenceError{Err: cause}, cause) {
		t.Error("PersistenceError should unwrap to its cause")
	}
}
