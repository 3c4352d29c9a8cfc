// Railref - French Rail Network Reference Data Service
// Copyright 2026 A. Vaillant
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/availlant/railref

/*
paginator.go - Upstream Page Loop

The paginator drives one entity type's sync: it walks the upstream
dataset page by page, retries transient failures with linear backoff,
skips pages whose retries are exhausted, and hands each fetched page to
a handler (dedup + persist).

Termination:
  - an empty page, or
  - cumulative fetched records >= the declared total (guards against
    providers that keep echoing the last page forever)

Failure containment:
  - a fatal fetch error aborts the entity immediately (partial)
  - each skipped or unpersisted page increments a consecutive-failure
    counter shared between fetching and persistence; reaching the
    ceiling aborts the entity (partial), keeping what was committed
  - any successfully applied page resets the counter
  - a lost page (skipped after retry exhaustion, or rolled back) marks
    the entity partial even when the loop later terminates normally; an
    undercount is never reported as a full sync

A paginator is built per entity per run and never reused.
*/
package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/availlant/railref/internal/config"
	"github.com/availlant/railref/internal/logging"
	"github.com/availlant/railref/internal/metrics"
)

// record is anything carrying a natural key.
type record interface {
	Key() string
}

// pageFetch fetches one page at the given offset. Implementations return
// errors classified as *TransientError or *FatalError.
type pageFetch[T record] func(ctx context.Context, offset, limit int) ([]T, PageMeta, error)

// pageHandler applies one page (dedup + upsert in one transaction) and
// reports how many records were persisted and rejected. On error the
// page must have been rolled back in full.
type pageHandler[T record] func(ctx context.Context, records []T) (persisted, rejected int, err error)

type paginator[T record] struct {
	entity   string
	provider string
	fetch    pageFetch[T]
	handle   pageHandler[T]
	cfg      *config.SyncConfig
	limiter  *rate.Limiter
}

func newPaginator[T record](entity, provider string, cfg *config.SyncConfig, fetch pageFetch[T], handle pageHandler[T]) *paginator[T] {
	interval := cfg.PageDelay
	if interval <= 0 {
		interval = time.Nanosecond
	}
	return &paginator[T]{
		entity:   entity,
		provider: provider,
		fetch:    fetch,
		handle:   handle,
		cfg:      cfg,
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
	}
}

// run walks the dataset to completion. partial reports whether the
// entity finished short of full data, including runs that terminate
// normally after losing a page; committed work is always kept.
func (p *paginator[T]) run(ctx context.Context) (persisted, rejected int, partial bool, err error) {
	consecutive := 0
	fetched := 0
	declared := -1
	lost := false

	for offset := 0; ; offset += p.cfg.PageSize {
		if werr := p.limiter.Wait(ctx); werr != nil {
			return persisted, rejected, true, werr
		}

		records, meta, ferr := p.fetchWithRetry(ctx, offset)
		if ferr != nil {
			if ctx.Err() != nil {
				return persisted, rejected, true, ctx.Err()
			}
			if isFatal(ferr) {
				logging.Error().Err(ferr).Str("entity", p.entity).Int("offset", offset).Msg("Fatal fetch error, aborting entity sync")
				return persisted, rejected, true, ferr
			}

			// Retries exhausted: skip this page and move to the next offset.
			// Its records are gone for this run, so the entity is partial.
			lost = true
			consecutive++
			logging.Warn().Err(ferr).Str("entity", p.entity).Int("offset", offset).Int("consecutive_failures", consecutive).Msg("Page skipped after retry exhaustion")
			if consecutive >= p.cfg.MaxConsecutiveFailures {
				return persisted, rejected, true, fmt.Errorf("%s: aborting after %d consecutive page failures: %w", p.entity, consecutive, ferr)
			}
			continue
		}

		if meta.Total > 0 {
			declared = meta.Total
		}
		if meta.Empty() {
			break
		}
		fetched += meta.Count

		n, rej, herr := p.handle(ctx, records)
		rejected += rej
		if herr != nil {
			lost = true
			consecutive++
			logging.Warn().Err(herr).Str("entity", p.entity).Int("offset", offset).Int("consecutive_failures", consecutive).Msg("Page rolled back, continuing with next page")
			if consecutive >= p.cfg.MaxConsecutiveFailures {
				return persisted, rejected, true, fmt.Errorf("%s: aborting after %d consecutive page failures: %w", p.entity, consecutive, herr)
			}
		} else {
			persisted += n
			consecutive = 0
			logging.Debug().Str("entity", p.entity).Int("offset", offset).Int("page_records", meta.Count).Int("persisted", persisted).Msg("Page applied")
		}

		if declared > 0 && fetched >= declared {
			break
		}
	}

	return persisted, rejected, lost, nil
}

// fetchWithRetry backoff schedule: attempt x TimeoutBackoff for timeout-class
// transient errors, attempt x TransientBackoff otherwise. Waits are
// cancellable; context cancellation and fatal errors return immediately.
func (p *paginator[T]) fetchWithRetry(ctx context.Context, offset int) ([]T, PageMeta, error) {
	var lastErr error

	for attempt := 1; attempt <= p.cfg.RetryAttempts; attempt++ {
		if ctx.Err() != nil {
			return nil, PageMeta{}, ctx.Err()
		}

		records, meta, err := p.fetch(ctx, offset, p.cfg.PageSize)
		if err == nil {
			return records, meta, nil
		}
		if isFatal(err) || errors.Is(err, context.Canceled) {
			return nil, PageMeta{}, err
		}
		lastErr = err

		if attempt < p.cfg.RetryAttempts {
			delay := time.Duration(attempt) * p.cfg.TransientBackoff
			if isTimeout(err) {
				delay = time.Duration(attempt) * p.cfg.TimeoutBackoff
			}
			metrics.PageFetchRetries.WithLabelValues(p.provider).Inc()
			logging.Warn().Err(err).Str("entity", p.entity).Int("offset", offset).Int("attempt", attempt).Int("max_attempts", p.cfg.RetryAttempts).Dur("delay", delay).Msg("Retrying page fetch")
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, PageMeta{}, ctx.Err()
			}
		}
	}

	return nil, PageMeta{}, fmt.Errorf("page at offset %d: max retry attempts reached: %w", offset, lastErr)
}
