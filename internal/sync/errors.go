// Railref - French Rail Network Reference Data Service
// Copyright 2026 A. Vaillant
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/availlant/railref

package sync

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// TransientError marks a fetch failure that is worth retrying: network
// resets, timeouts, rate limiting, upstream 5xx. Timeout distinguishes
// timeout-class failures, which back off on a longer schedule because the
// upstream is likely overloaded rather than briefly unreachable.
type TransientError struct {
	Timeout bool
	Err     error
}

func (e *TransientError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("transient (timeout): %v", e.Err)
	}
	return fmt.Sprintf("transient: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// FatalError marks a fetch failure that no amount of retrying will fix:
// malformed response bodies, authentication rejections, 4xx statuses.
// A fatal error aborts the current entity sync immediately.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string { return fmt.Sprintf("fatal: %v", e.Err) }

func (e *FatalError) Unwrap() error { return e.Err }

// PersistenceError marks a database failure while applying a page. The
// page transaction has been rolled back; the records will be picked up
// again on the next run.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string { return fmt.Sprintf("persistence: %v", e.Err) }

func (e *PersistenceError) Unwrap() error { return e.Err }

// isFatal reports whether err (or anything it wraps) is a FatalError.
func isFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}

// isTimeout reports whether err is a timeout-class transient error.
func isTimeout(err error) bool {
	var te *TransientError
	if errors.As(err, &te) {
		return te.Timeout
	}
	return false
}

// classifyRequestError maps a transport-level error from http.Client.Do
// into the retry taxonomy. Context cancellation passes through untouched
// so the caller can distinguish shutdown from upstream failure.
func classifyRequestError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &TransientError{Timeout: true, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &TransientError{Timeout: true, Err: err}
	}
	return &TransientError{Err: err}
}

// classifyStatusError maps a non-2xx HTTP status into the retry taxonomy.
// 429 and 5xx are transient; everything else in 4xx is a client-side
// mistake and retrying the same request would only repeat it.
func classifyStatusError(status int, body string) error {
	err := fmt.Errorf("unexpected status %d: %s", status, body)
	switch {
	case status == http.StatusTooManyRequests:
		return &TransientError{Err: err}
	case status == http.StatusGatewayTimeout:
		return &TransientError{Timeout: true, Err: err}
	case status >= 500:
		return &TransientError{Err: err}
	default:
		return &FatalError{Err: err}
	}
}
