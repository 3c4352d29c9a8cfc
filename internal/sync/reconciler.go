// Railref - French Rail Network Reference Data Service
// Copyright 2026 A. Vaillant
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/availlant/railref

package sync

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/availlant/railref/internal/logging"
	"github.com/availlant/railref/internal/metrics"
)

// Store is the database surface the sync engine needs. *database.DB
// satisfies it.
type Store interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// upsertFunc persists one record inside the page transaction, inserting
// by natural key or overwriting the existing row's mutable attributes.
type upsertFunc[T record] func(ctx context.Context, tx *sql.Tx, rec T) error

// reconcilePage applies one page in a single transaction: records with an
// empty key or an already-seen key are rejected, survivors are upserted,
// then the page commits atomically. Any database error rolls the whole
// page back and discards the tracker's pending keys, so a rolled-back
// page's records stay eligible for the next run.
func reconcilePage[T record](ctx context.Context, store Store, entity string, tracker *keyTracker, records []T, upsert upsertFunc[T]) (persisted, rejected int, err error) {
	tx, err := store.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, &PersistenceError{Err: fmt.Errorf("beginning page transaction: %w", err)}
	}

	rejectedBy := make(map[string]int, 2)

	for _, rec := range records {
		key := rec.Key()
		if key == "" {
			rejected++
			rejectedBy["empty_key"]++
			continue
		}
		if !tracker.Accept(key) {
			rejected++
			rejectedBy["duplicate"]++
			continue
		}

		if uerr := upsert(ctx, tx, rec); uerr != nil {
			_ = tx.Rollback()
			tracker.Discard()
			return 0, 0, &PersistenceError{Err: fmt.Errorf("upserting %s %q: %w", entity, key, uerr)}
		}
		persisted++
	}

	if cerr := tx.Commit(); cerr != nil {
		tracker.Discard()
		return 0, 0, &PersistenceError{Err: fmt.Errorf("committing page: %w", cerr)}
	}

	tracker.Commit()
	for reason, n := range rejectedBy {
		metrics.SyncRejected.WithLabelValues(entity, reason).Add(float64(n))
		logging.Debug().Str("entity", entity).Str("reason", reason).Int("count", n).Msg("Records rejected")
	}
	return persisted, rejected, nil
}
