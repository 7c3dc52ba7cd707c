// Package ports declares the outbound interfaces the ingestion core emits to.
// The core owns neither the reconciliation queue nor the telemetry transport;
// both are external collaborators consumed through these narrow contracts.
package ports

import (
	"context"
	"time"

	model "github.com/tigerroll/tidewrite/pkg/ingest/core/model"
)

// ReconciliationEntry is the unit published for asynchronous secondary-store repair.
// It carries the full denormalized projection so the consumer can retry the
// secondary write without re-touching the primary store.
type ReconciliationEntry struct {
	// ID is the record id, the reconciliation key.
	ID string `json:"id"`
	// BatchID identifies the batch execution that produced the half-write.
	BatchID string `json:"batchId"`
	// Document is the full projection destined for the secondary store.
	Document map[string]interface{} `json:"document"`
	// FailureReason is the enumerated reason the secondary write failed.
	FailureReason string `json:"failureReason"`
	// FailedAt is the time the secondary write failed.
	FailedAt time.Time `json:"failedAt"`
}

// ReconciliationQueue receives records that wrote successfully to the primary
// store but not the secondary. Publish is fire-and-forget from the core's
// perspective: a publish failure is logged, never escalated to the caller.
type ReconciliationQueue interface {
	// Publish enqueues one entry for asynchronous secondary retry.
	Publish(ctx context.Context, entry ReconciliationEntry) error
	// Close releases the queue transport.
	Close() error
}

// RecordEvent is the structured completion event emitted once per record.
type RecordEvent struct {
	BatchID    string `json:"batchId"`
	RecordID   string `json:"recordId"`
	Index      int    `json:"index"`
	FinalState string `json:"finalState"`
	Reason     string `json:"reason,omitempty"`
	DurationMs int64  `json:"durationMs"`
}

// BatchEvent is the structured summary event emitted once per batch.
type BatchEvent struct {
	BatchID    string `json:"batchId"`
	Received   int    `json:"received"`
	Processed  int    `json:"processed"`
	Failed     int    `json:"failed"`
	Pending    int    `json:"pending"`
	DurationMs int64  `json:"durationMs"`
	TimedOut   bool   `json:"timedOut"`
}

// TelemetrySink receives one event per record completion and one per batch
// completion. The schema is the core's concern; the transport is external.
type TelemetrySink interface {
	RecordCompleted(ctx context.Context, event RecordEvent)
	BatchCompleted(ctx context.Context, event BatchEvent)
}

// SummaryArchiver persists sealed batch summaries for audit. Archiving happens
// after the summary is sealed and returned, so a failure here never changes
// record outcomes.
type SummaryArchiver interface {
	Archive(ctx context.Context, summary model.BatchSummary) error
}
