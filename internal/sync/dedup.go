// Railref - French Rail Network Reference Data Service
// Copyright 2026 A. Vaillant
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/availlant/railref

package sync

// keyTracker deduplicates records by natural key across all pages of one
// entity sync. The first occurrence of a key wins; later occurrences are
// rejected. A tracker lives for exactly one run and is not safe for
// concurrent use (the page loop is sequential).
//
// Accepted keys are staged until the page's transaction settles: Commit
// makes them permanent, Discard releases them so a rolled-back page does
// not burn its keys for the rest of the run.
type keyTracker struct {
	seen    map[string]struct{}
	pending map[string]struct{}
}

func newKeyTracker() *keyTracker {
	return &keyTracker{
		seen:    make(map[string]struct{}),
		pending: make(map[string]struct{}),
	}
}

// Accept reports whether key should be kept: false for the empty key and
// for any key already accepted this run, committed or pending. Accepted
// keys are staged as pending.
func (t *keyTracker) Accept(key string) bool {
	if key == "" {
		return false
	}
	if _, ok := t.seen[key]; ok {
		return false
	}
	if _, ok := t.pending[key]; ok {
		return false
	}
	t.pending[key] = struct{}{}
	return true
}

// Commit promotes the pending page's keys to permanently seen.
func (t *keyTracker) Commit() {
	for k := range t.pending {
		t.seen[k] = struct{}{}
	}
	t.pending = make(map[string]struct{})
}

// Discard drops the pending page's keys, leaving them eligible again.
func (t *keyTracker) Discard() {
	t.pending = make(map[string]struct{})
}

// Len returns the number of committed keys so far.
func (t *keyTracker) Len() int { return len(t.seen) }
