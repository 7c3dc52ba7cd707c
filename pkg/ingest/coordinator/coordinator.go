// Package coordinator drives a single record through both backing stores and
// classifies the outcome. Ordering is strict: the primary (relational) write
// completes, successfully or not, before the secondary (document) write is
// attempted. The coordinator never retries inline; repair of half-writes is
// the reconciliation queue consumer's responsibility.
package coordinator

import (
	"context"
	"errors"
	"time"

	metrics "github.com/tigerroll/tidewrite/pkg/ingest/core/metrics"
	model "github.com/tigerroll/tidewrite/pkg/ingest/core/model"
	ports "github.com/tigerroll/tidewrite/pkg/ingest/core/ports"
	"github.com/tigerroll/tidewrite/pkg/ingest/store"
	"github.com/tigerroll/tidewrite/pkg/ingest/support/util/logger"
)

const moduleName = "coordinator"

// DualWriteCoordinator orchestrates the primary-then-secondary write sequence
// for one record and resolves its RecordResult. It is safe for concurrent use
// by multiple in-flight records.
type DualWriteCoordinator struct {
	primary   store.PrimaryStore
	secondary store.SecondaryStore
	queue     ports.ReconciliationQueue
	recorder  metrics.MetricRecorder
	tracer    metrics.Tracer

	// perStoreTimeout bounds each individual store call. Zero means no bound
	// beyond the batch deadline.
	perStoreTimeout time.Duration
}

// NewDualWriteCoordinator creates a new DualWriteCoordinator.
//
// Parameters:
//
//	primary: The relational store adapter, the authoritative source of truth.
//	secondary: The document store adapter holding the denormalized projection.
//	queue: The reconciliation queue collaborator for half-write repair.
//	recorder: The metric recorder for store write and outcome metrics.
//	tracer: The tracer for per-record spans.
//	perStoreTimeout: The timeout applied to each individual store call.
func NewDualWriteCoordinator(
	primary store.PrimaryStore,
	secondary store.SecondaryStore,
	queue ports.ReconciliationQueue,
	recorder metrics.MetricRecorder,
	tracer metrics.Tracer,
	perStoreTimeout time.Duration,
) *DualWriteCoordinator {
	return &DualWriteCoordinator{
		primary:         primary,
		secondary:       secondary,
		queue:           queue,
		recorder:        recorder,
		tracer:          tracer,
		perStoreTimeout: perStoreTimeout,
	}
}

// Process writes one validated record to both stores and classifies the result.
// Store errors never propagate out of this method; they are captured into the
// returned RecordResult's WriteOutcomes.
//
// The classification contract:
//   - primary failed: Rejected, secondary never attempted
//   - primary ok, secondary failed: PendingReconciliation, entry published to the queue
//   - both ok: Consistent
func (c *DualWriteCoordinator) Process(ctx context.Context, batchID string, index int, rec model.Record) model.RecordResult {
	ctx, finishSpan := c.tracer.StartRecordSpan(ctx, rec.ID)
	defer finishSpan()

	result := model.RecordResult{
		ID:        rec.ID,
		Index:     index,
		Secondary: model.NotAttempted(),
	}

	// 1. Primary write. The primary is authoritative; a secondary-only record
	// must never exist, so a primary failure rejects the record outright.
	primaryOutcome := c.writePrimary(ctx, rec)
	result.Primary = primaryOutcome
	if !primaryOutcome.Succeeded() {
		result.FinalState = model.StateRejected
		result.Reason = primaryOutcome.Reason
		c.recorder.RecordRecordOutcome(ctx, result.FinalState, result.Reason)
		return result
	}

	// 2. Secondary write. The primary result stands regardless of what happens here.
	secondaryOutcome := c.writeSecondary(ctx, rec)
	result.Secondary = secondaryOutcome
	if secondaryOutcome.Succeeded() {
		result.FinalState = model.StateConsistent
		c.recorder.RecordRecordOutcome(ctx, result.FinalState, "")
		return result
	}

	// 3. Half-write: primary holds the record, secondary does not. Classify as
	// PendingReconciliation and hand the full projection to the queue so the
	// retry never re-touches the primary.
	result.FinalState = model.StatePendingReconciliation
	result.Reason = secondaryOutcome.Reason
	c.publishReconciliation(ctx, batchID, rec, secondaryOutcome.Reason)
	c.recorder.RecordRecordOutcome(ctx, result.FinalState, result.Reason)
	return result
}

// writePrimary performs the single-attempt primary upsert and captures the outcome.
func (c *DualWriteCoordinator) writePrimary(ctx context.Context, rec model.Record) model.WriteOutcome {
	callCtx, cancel := c.storeCallContext(ctx)
	defer cancel()

	start := time.Now()
	res, err := c.primary.Upsert(callCtx, rec.ID, rec.AttributeMap())
	duration := time.Since(start)

	var outcome model.WriteOutcome
	switch {
	case err != nil:
		reason := classifyStoreError(ctx, callCtx, err)
		logger.Warnf("Coordinator: primary write failed for record '%s': %s (%v)", rec.ID, reason, err)
		c.tracer.RecordError(ctx, moduleName, err)
		outcome = model.FailedOutcome(reason)
	case res.Created:
		outcome = model.Written()
	default:
		outcome = model.Unchanged()
	}
	c.recorder.RecordStoreWrite(ctx, "primary", outcome.Kind, duration)
	return outcome
}

// writeSecondary performs the single-attempt secondary upsert and captures the outcome.
// The document store reports no created-vs-replaced distinction; a successful
// replace mirrors the primary's outcome kind so a Consistent record's outcomes agree.
func (c *DualWriteCoordinator) writeSecondary(ctx context.Context, rec model.Record) model.WriteOutcome {
	callCtx, cancel := c.storeCallContext(ctx)
	defer cancel()

	start := time.Now()
	err := c.secondary.Upsert(callCtx, rec.ID, rec.Document())
	duration := time.Since(start)

	var outcome model.WriteOutcome
	if err != nil {
		reason := classifyStoreError(ctx, callCtx, err)
		logger.Warnf("Coordinator: secondary write failed for record '%s': %s (%v)", rec.ID, reason, err)
		c.tracer.RecordError(ctx, moduleName, err)
		outcome = model.FailedOutcome(reason)
	} else {
		outcome = model.Written()
	}
	c.recorder.RecordStoreWrite(ctx, "secondary", outcome.Kind, duration)
	return outcome
}

// publishReconciliation emits the half-written record to the reconciliation
// queue. Publish is fire-and-forget: a failure degrades the record to
// "untracked pending" and is logged, never escalated to the caller.
func (c *DualWriteCoordinator) publishReconciliation(ctx context.Context, batchID string, rec model.Record, reason string) {
	entry := ports.ReconciliationEntry{
		ID:            rec.ID,
		BatchID:       batchID,
		Document:      rec.Document(),
		FailureReason: reason,
		FailedAt:      time.Now().UTC(),
	}
	if err := c.queue.Publish(ctx, entry); err != nil {
		logger.Errorf("Coordinator: reconciliation publish failed for record '%s'; record is pending but untracked: %v", rec.ID, err)
		c.tracer.RecordError(ctx, moduleName, err)
		c.recorder.RecordReconciliationPublish(ctx, false)
		return
	}
	c.recorder.RecordReconciliationPublish(ctx, true)
}

// storeCallContext derives the context for a single store call, applying the
// per-store timeout when one is configured.
func (c *DualWriteCoordinator) storeCallContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.perStoreTimeout > 0 {
		return context.WithTimeout(ctx, c.perStoreTimeout)
	}
	return context.WithCancel(ctx)
}

// classifyStoreError maps a store adapter error to an enumerated failure reason.
// A batch-level cancellation takes precedence over the per-call deadline so a
// record cut off by the batch timeout reports Timeout, not StoreTimeout.
func classifyStoreError(batchCtx, callCtx context.Context, err error) string {
	if batchCtx.Err() != nil {
		return model.ReasonTimeout
	}
	if errors.Is(err, context.DeadlineExceeded) || callCtx.Err() != nil {
		return model.ReasonStoreTimeout
	}
	return model.ReasonStoreUnavailable
}
