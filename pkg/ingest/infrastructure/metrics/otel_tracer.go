package metrics

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	metrics "github.com/tigerroll/tidewrite/pkg/ingest/core/metrics"
)

const tracerName = "github.com/tigerroll/tidewrite/pkg/ingest"

// OpenTelemetryTracer is an implementation of metrics.Tracer using OpenTelemetry.
type OpenTelemetryTracer struct {
	tracer trace.Tracer
}

// NewOpenTelemetryTracer creates a new instance of OpenTelemetryTracer.
// Spans are created through the globally registered TracerProvider, so the
// otelinit package must be initialized first for spans to be exported.
func NewOpenTelemetryTracer() metrics.Tracer {
	return &OpenTelemetryTracer{
		tracer: otel.Tracer(tracerName),
	}
}

// StartBatchSpan starts a new span covering a whole batch execution.
func (t *OpenTelemetryTracer) StartBatchSpan(ctx context.Context, batchID string) (context.Context, func()) {
	ctx, span := t.tracer.Start(ctx, "ingest.batch",
		trace.WithAttributes(attribute.String("ingest.batch.id", batchID)))
	return ctx, func() { span.End() }
}

// StartRecordSpan starts a new span covering a single record's dual write.
func (t *OpenTelemetryTracer) StartRecordSpan(ctx context.Context, recordID string) (context.Context, func()) {
	ctx, span := t.tracer.Start(ctx, "ingest.record",
		trace.WithAttributes(attribute.String("ingest.record.id", recordID)))
	return ctx, func() { span.End() }
}

// RecordError records an error in the current span.
func (t *OpenTelemetryTracer) RecordError(ctx context.Context, module string, err error) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.RecordError(err, trace.WithAttributes(attribute.String("ingest.module", module)))
	span.SetStatus(codes.Error, err.Error())
}

var _ metrics.Tracer = (*OpenTelemetryTracer)(nil)
