package metrics

import (
	"context"
	"time"

	model "github.com/tigerroll/tidewrite/pkg/ingest/core/model"
)

// MetricRecorder is an abstract interface for recording metrics related to batch ingestion.
// It provides a standardized way to record batch, record, and store-level events,
// facilitating integration with different metrics backends (e.g., Prometheus, OpenTelemetry Metrics).
type MetricRecorder interface {
	// RecordBatchStart records the start of a batch execution.
	//
	// ctx: The context for the operation.
	// batchID: The identifier of the started batch.
	// received: The number of records submitted in the batch.
	RecordBatchStart(ctx context.Context, batchID string, received int)

	// RecordBatchEnd records the completion of a batch execution.
	//
	// ctx: The context for the operation.
	// summary: The sealed summary of the finished batch.
	RecordBatchEnd(ctx context.Context, summary model.BatchSummary)

	// RecordRecordOutcome records the final classification of a single record.
	//
	// ctx: The context for the operation.
	// state: The record's final state.
	// reason: The enumerated failure reason, empty for Consistent records.
	RecordRecordOutcome(ctx context.Context, state model.FinalState, reason string)

	// RecordStoreWrite records one store write attempt and its duration.
	//
	// ctx: The context for the operation.
	// storeName: "primary" or "secondary".
	// outcome: The terminal state of the write.
	// duration: The wall-clock duration of the store call.
	RecordStoreWrite(ctx context.Context, storeName string, outcome model.OutcomeKind, duration time.Duration)

	// RecordReconciliationPublish records one reconciliation queue publish attempt.
	//
	// ctx: The context for the operation.
	// success: Whether the publish was acknowledged.
	RecordReconciliationPublish(ctx context.Context, success bool)
}

// Tracer is an abstract interface for integrating batch ingestion with distributed tracing.
type Tracer interface {
	// StartBatchSpan starts a trace span covering a whole batch execution.
	// The returned function finishes the span.
	StartBatchSpan(ctx context.Context, batchID string) (context.Context, func())

	// StartRecordSpan starts a trace span covering a single record's dual write.
	// The returned function finishes the span.
	StartRecordSpan(ctx context.Context, recordID string) (context.Context, func())

	// RecordError records an error in the current span.
	RecordError(ctx context.Context, module string, err error)
}
