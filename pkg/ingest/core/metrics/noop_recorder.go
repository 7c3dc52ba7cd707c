package metrics

import (
	"context"
	"time"

	model "github.com/tigerroll/tidewrite/pkg/ingest/core/model"
)

// NoOpMetricRecorder is an implementation of MetricRecorder that does nothing.
// It is used when metrics are disabled or during testing.
type NoOpMetricRecorder struct{}

// NewNoOpMetricRecorder creates a new instance of NoOpMetricRecorder.
func NewNoOpMetricRecorder() MetricRecorder {
	return &NoOpMetricRecorder{}
}

// RecordBatchStart does nothing.
func (r *NoOpMetricRecorder) RecordBatchStart(ctx context.Context, batchID string, received int) {}

// RecordBatchEnd does nothing.
func (r *NoOpMetricRecorder) RecordBatchEnd(ctx context.Context, summary model.BatchSummary) {}

// RecordRecordOutcome does nothing.
func (r *NoOpMetricRecorder) RecordRecordOutcome(ctx context.Context, state model.FinalState, reason string) {
}

// RecordStoreWrite does nothing.
func (r *NoOpMetricRecorder) RecordStoreWrite(ctx context.Context, storeName string, outcome model.OutcomeKind, duration time.Duration) {
}

// RecordReconciliationPublish does nothing.
func (r *NoOpMetricRecorder) RecordReconciliationPublish(ctx context.Context, success bool) {}

var _ MetricRecorder = (*NoOpMetricRecorder)(nil)

// --- NoOpTracer ---

// NoOpTracer is an implementation of Tracer that does nothing.
type NoOpTracer struct{}

// NewNoOpTracer creates a new instance of NoOpTracer.
func NewNoOpTracer() Tracer {
	return &NoOpTracer{}
}

// StartBatchSpan starts a Span for a batch execution.
func (t *NoOpTracer) StartBatchSpan(ctx context.Context, batchID string) (context.Context, func()) {
	return ctx, func() {}
}

// StartRecordSpan starts a Span for a single record.
func (t *NoOpTracer) StartRecordSpan(ctx context.Context, recordID string) (context.Context, func()) {
	return ctx, func() {}
}

// RecordError records an error in the current Span.
func (t *NoOpTracer) RecordError(ctx context.Context, module string, err error) {}

var _ Tracer = (*NoOpTracer)(nil)
