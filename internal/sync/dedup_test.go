// Railref - French Rail Network Reference Data Service
// Copyright 2026 A. Vaillant
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/availlant/railref

package sync

import "testing"

func TestKeyTrackerFirstOccurrenceWins(t *testing.T) {
	tr := newKeyTracker()

	checkBoolEqual(t, "first 87686006", tr.Accept("87686006"), true)
	checkBoolEqual(t, "duplicate 87686006", tr.Accept("87686006"), false)
	checkBoolEqual(t, "first 87171009", tr.Accept("87171009"), true)

	tr.Commit()
	checkBoolEqual(t, "duplicate after commit", tr.Accept("87686006"), false)
	checkIntEqual(t, "committed count", tr.Len(), 2)
}

func TestKeyTrackerRejectsEmptyKey(t *testing.T) {
	tr := newKeyTracker()

	checkBoolEqual(t, "empty key", tr.Accept(""), false)
	checkBoolEqual(t, "empty key again", tr.Accept(""), false)
	checkIntEqual(t, "committed count", tr.Len(), 0)
}

func TestKeyTrackerDiscardReleasesPendingKeys(t *testing.T) {
	tr := newKeyTracker()

	checkBoolEqual(t, "accept 75", tr.Accept("75"), true)
	checkBoolEqual(t, "accept 92", tr.Accept("92"), true)
	tr.Discard()

	// The page rolled back: its keys stay eligible.
	checkBoolEqual(t, "75 eligible again", tr.Accept("75"), true)
	tr.Commit()
	checkBoolEqual(t, "75 committed", tr.Accept("75"), false)
	checkIntEqual(t, "committed count", tr.Len(), 1)
}
