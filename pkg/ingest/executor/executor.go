// Package executor fans a batch of raw records out across the dual-write
// coordinator with bounded concurrency, owns the batch timeout, and aggregates
// per-record outcomes into a sealed BatchSummary.
package executor

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	metrics "github.com/tigerroll/tidewrite/pkg/ingest/core/metrics"
	model "github.com/tigerroll/tidewrite/pkg/ingest/core/model"
	ports "github.com/tigerroll/tidewrite/pkg/ingest/core/ports"
	"github.com/tigerroll/tidewrite/pkg/ingest/support/util/logger"
	"github.com/tigerroll/tidewrite/pkg/ingest/validate"
)

// ErrBatchTooLarge is returned when a batch exceeds the configured maximum
// size. The whole batch is rejected before any validation or store write;
// there is no partial summary.
var ErrBatchTooLarge = errors.New(model.ReasonBatchTooLarge)

const (
	// DefaultMaxConcurrency bounds parallel record processing when no explicit value is configured.
	DefaultMaxConcurrency = 4
	// DefaultMaxBatchSize bounds the batch size when no explicit value is configured.
	DefaultMaxBatchSize = 1000
)

// Options holds the recognized batch execution settings.
type Options struct {
	// MaxConcurrency bounds how many records are in flight concurrently.
	MaxConcurrency int
	// PerRecordTimeout bounds each record's individual store calls; applied by the coordinator.
	PerRecordTimeout time.Duration
	// BatchTimeout bounds the whole batch. On expiry the summary is sealed
	// with whatever completed and marked timedOut.
	BatchTimeout time.Duration
	// MaxBatchSize is the largest accepted batch; larger batches are rejected wholesale.
	MaxBatchSize int
}

// normalized returns a copy of the options with defaults applied.
func (o Options) normalized() Options {
	if o.MaxConcurrency <= 0 {
		o.MaxConcurrency = DefaultMaxConcurrency
	}
	if o.MaxBatchSize <= 0 {
		o.MaxBatchSize = DefaultMaxBatchSize
	}
	return o
}

// RecordProcessor drives one validated record through both stores.
// *coordinator.DualWriteCoordinator is the production implementation.
type RecordProcessor interface {
	Process(ctx context.Context, batchID string, index int, rec model.Record) model.RecordResult
}

// BatchExecutor runs batches through the validator and the record processor
// with a bounded worker pool.
type BatchExecutor struct {
	validator *validate.Validator
	processor RecordProcessor
	sink      ports.TelemetrySink
	recorder  metrics.MetricRecorder
	tracer    metrics.Tracer
	opts      Options
}

// NewBatchExecutor creates a new BatchExecutor.
//
// Parameters:
//
//	validator: The record validator applied before any store write.
//	processor: The per-record dual-write processor.
//	sink: The telemetry sink receiving per-record and per-batch events.
//	recorder: The metric recorder.
//	tracer: The tracer for batch spans.
//	opts: The batch execution options; zero values fall back to defaults.
func NewBatchExecutor(
	validator *validate.Validator,
	processor RecordProcessor,
	sink ports.TelemetrySink,
	recorder metrics.MetricRecorder,
	tracer metrics.Tracer,
	opts Options,
) *BatchExecutor {
	return &BatchExecutor{
		validator: validator,
		processor: processor,
		sink:      sink,
		recorder:  recorder,
		tracer:    tracer,
		opts:      opts.normalized(),
	}
}

// Run executes one batch and returns the sealed summary.
//
// Guarantees:
//   - every input record yields exactly one RecordResult, in input order
//   - received == len(batch); processed, failed and pending are derived from final states
//   - a batch exceeding MaxBatchSize returns ErrBatchTooLarge with no processing
//   - batch timeout degrades the run to a partial summary, never a crash
func (e *BatchExecutor) Run(ctx context.Context, batch []model.RawRecord) (model.BatchSummary, error) {
	batchID := uuid.New().String()

	if len(batch) > e.opts.MaxBatchSize {
		logger.Warnf("Executor: batch of %d records exceeds maximum size %d, rejecting wholesale.", len(batch), e.opts.MaxBatchSize)
		return model.BatchSummary{}, ErrBatchTooLarge
	}

	builder := model.NewSummaryBuilder(batchID, len(batch))
	if len(batch) == 0 {
		summary := builder.Seal(false)
		logger.Debugf("Executor: empty batch '%s', nothing to do.", batchID)
		return summary, nil
	}

	ctx, finishSpan := e.tracer.StartBatchSpan(ctx, batchID)
	defer finishSpan()
	e.recorder.RecordBatchStart(ctx, batchID, len(batch))
	logger.Infof("Executor: batch '%s' started: %d records, concurrency %d.", batchID, len(batch), e.opts.MaxConcurrency)

	batchCtx := ctx
	var cancel context.CancelFunc
	if e.opts.BatchTimeout > 0 {
		batchCtx, cancel = context.WithTimeout(ctx, e.opts.BatchTimeout)
	} else {
		batchCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	e.runWorkers(batchCtx, batchID, batch, builder)

	// Caller cancellation and batch timeout both seal a partial summary.
	timedOut := batchCtx.Err() != nil
	summary := builder.Seal(timedOut)
	if timedOut {
		logger.Warnf("Executor: batch '%s' was cut off (%v); sealed a partial summary.", batchID, batchCtx.Err())
	}

	e.recorder.RecordBatchEnd(ctx, summary)
	e.sink.BatchCompleted(ctx, ports.BatchEvent{
		BatchID:    summary.BatchID,
		Received:   summary.Received,
		Processed:  summary.Processed,
		Failed:     summary.Failed,
		Pending:    summary.Pending,
		DurationMs: summary.DurationMs,
		TimedOut:   summary.TimedOut,
	})
	return summary, nil
}

// runWorkers fans the batch out across a bounded worker pool and blocks until
// every record has produced a result. Workers observing a dead batch context
// synthesize timeout results without touching either store, so draining is
// always prompt.
func (e *BatchExecutor) runWorkers(batchCtx context.Context, batchID string, batch []model.RawRecord, builder *model.SummaryBuilder) {
	workers := e.opts.MaxConcurrency
	if workers > len(batch) {
		workers = len(batch)
	}

	type job struct {
		index int
		raw   model.RawRecord
	}
	jobs := make(chan job)
	done := make(chan struct{})

	for w := 0; w < workers; w++ {
		go func() {
			for j := range jobs {
				start := time.Now()
				result := e.processOne(batchCtx, batchID, j.index, j.raw)
				builder.Append(result)
				e.emitRecordEvent(batchCtx, batchID, result, time.Since(start))
				done <- struct{}{}
			}
		}()
	}

	go func() {
		for i, raw := range batch {
			jobs <- job{index: i, raw: raw}
		}
		close(jobs)
	}()

	for range batch {
		<-done
	}
}

// processOne validates and processes a single record. Invalid records
// short-circuit to Rejected without touching either store; records picked up
// after the batch deadline are marked Failed(Timeout) for the primary store,
// which never got the chance to respond.
func (e *BatchExecutor) processOne(batchCtx context.Context, batchID string, index int, raw model.RawRecord) model.RecordResult {
	start := time.Now()

	if batchCtx.Err() != nil {
		id, _ := raw["id"].(string)
		result := model.RecordResult{
			ID:         id,
			Index:      index,
			Primary:    model.FailedOutcome(model.ReasonTimeout),
			Secondary:  model.NotAttempted(),
			FinalState: model.StateRejected,
			Reason:     model.ReasonTimeout,
		}
		e.recorder.RecordRecordOutcome(batchCtx, result.FinalState, result.Reason)
		return result
	}

	rec, rejection := e.validator.Validate(raw, start)
	if rejection != nil {
		result := model.RecordResult{
			ID:         rejection.ID,
			Index:      index,
			Primary:    model.NotAttempted(),
			Secondary:  model.NotAttempted(),
			FinalState: model.StateRejected,
			Reason:     rejection.Reason,
		}
		e.recorder.RecordRecordOutcome(batchCtx, result.FinalState, result.Reason)
		logger.Debugf("Executor: record at index %d rejected by validation: %s", index, rejection.Reason)
		return result
	}

	return e.processor.Process(batchCtx, batchID, index, rec)
}

// emitRecordEvent emits the structured per-record completion event.
func (e *BatchExecutor) emitRecordEvent(ctx context.Context, batchID string, result model.RecordResult, duration time.Duration) {
	e.sink.RecordCompleted(ctx, ports.RecordEvent{
		BatchID:    batchID,
		RecordID:   result.ID,
		Index:      result.Index,
		FinalState: result.FinalState.String(),
		Reason:     result.Reason,
		DurationMs: duration.Milliseconds(),
	})
}
