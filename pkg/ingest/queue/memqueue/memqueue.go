// Package memqueue provides an in-memory reconciliation queue used by tests
// and local runs without a Redis transport.
package memqueue

import (
	"context"
	"sync"

	ports "github.com/tigerroll/tidewrite/pkg/ingest/core/ports"
)

// Queue is an in-memory implementation of ports.ReconciliationQueue.
type Queue struct {
	mu      sync.Mutex
	entries []ports.ReconciliationEntry

	// failWith, when set, fails every Publish with the given error.
	failWith error
}

// NewQueue creates a new in-memory reconciliation queue.
func NewQueue() *Queue {
	return &Queue{}
}

var _ ports.ReconciliationQueue = (*Queue)(nil)

// Publish appends one entry to the queue.
func (q *Queue) Publish(ctx context.Context, entry ports.ReconciliationEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.failWith != nil {
		return q.failWith
	}
	q.entries = append(q.entries, entry)
	return nil
}

// Close does nothing for the in-memory queue.
func (q *Queue) Close() error { return nil }

// FailWith makes every subsequent Publish fail with err; nil restores normal operation.
func (q *Queue) FailWith(err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.failWith = err
}

// Entries returns a copy of the published entries.
func (q *Queue) Entries() []ports.ReconciliationEntry {
	q.mu.Lock()
	defer q.mu.Unlock()
	cp := make([]ports.ReconciliationEntry, len(q.entries))
	copy(cp, q.entries)
	return cp
}
