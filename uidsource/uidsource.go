// Copyright (c) 2024-2025 Six After, Inc
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

// Package uidsource defines the external collaborator that allocates task
// UIDs. The engine itself never advances the counter on a failed
// mutation; it asks for the next UID, attempts the insert, and only then
// signals that the UID was consumed. This mirrors the
// sixafter-graph/simple/ledger.go storage-abstraction split (an
// interface the engine depends on, with a reference in-memory
// implementation sitting beside it) applied to a monotonic counter rather
// than a vertex/edge store.
package uidsource

import "github.com/sixafter/tasknet/taskid"

// Source is the next/mark-used pair the task system asks for UIDs
// through. Next must be idempotent with respect to MarkUsed: calling
// Next without a following MarkUsed must not advance the counter.
type Source interface {
	// Next returns the UID that would be allocated if MarkUsed were
	// called next, without consuming it.
	Next() taskid.UID

	// MarkUsed advances the counter past uid. Callers call this only
	// after uid has been successfully inserted into the task system.
	MarkUsed(uid taskid.UID)
}

// MonotonicSource is the reference Source: an in-memory counter starting
// just above taskid.Zero.
type MonotonicSource struct {
	next taskid.UID
}

// NewMonotonicSource returns a MonotonicSource whose first allocation is
// taskid.Zero+1.
func NewMonotonicSource() *MonotonicSource {
	return &MonotonicSource{next: taskid.Zero + 1}
}

// Next returns the next UID to be allocated.
func (s *MonotonicSource) Next() taskid.UID {
	return s.next
}

// MarkUsed advances the counter to uid+1 if uid is not already behind it.
// A uid behind the current counter is a no-op: UIDs are never reused, so
// the counter only ever moves forward.
func (s *MonotonicSource) MarkUsed(uid taskid.UID) {
	if uid >= s.next {
		s.next = uid + 1
	}
}
