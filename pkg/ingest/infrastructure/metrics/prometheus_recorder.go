package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	metrics "github.com/tigerroll/tidewrite/pkg/ingest/core/metrics"
	model "github.com/tigerroll/tidewrite/pkg/ingest/core/model"
	logger "github.com/tigerroll/tidewrite/pkg/ingest/support/util/logger"
)

// PrometheusRecorder is a Prometheus implementation of the metrics.MetricRecorder interface.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	// Batch Metrics
	batchDurationSeconds *prometheus.HistogramVec
	batchStatusCounter   *prometheus.CounterVec
	batchReceivedTotal   prometheus.Counter

	// Record Metrics
	recordOutcomeCounter *prometheus.CounterVec

	// Store Metrics
	storeWriteDurationSeconds *prometheus.HistogramVec
	storeWriteCounter         *prometheus.CounterVec

	// Reconciliation Metrics
	reconciliationPublishCounter *prometheus.CounterVec
}

// NewPrometheusRecorder creates a new instance of PrometheusRecorder.
func NewPrometheusRecorder() metrics.MetricRecorder {
	registry := prometheus.NewRegistry()

	// Register Go standard metrics and process/OS metrics.
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &PrometheusRecorder{
		registry: registry,
		batchDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ingest_batch_duration_seconds",
			Help:    "Duration of batch executions.",
			Buckets: prometheus.DefBuckets,
		}, []string{"status"}),
		batchStatusCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ingest_batch_status_total",
			Help: "Total number of batch executions by status.",
		}, []string{"status"}),
		batchReceivedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ingest_batch_records_received_total",
			Help: "Total records received across all batches.",
		}),
		recordOutcomeCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ingest_record_outcome_total",
			Help: "Total record final states by state and reason.",
		}, []string{"final_state", "reason"}),
		storeWriteDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ingest_store_write_duration_seconds",
			Help:    "Duration of individual store write attempts.",
			Buckets: prometheus.DefBuckets,
		}, []string{"store", "outcome"}),
		storeWriteCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ingest_store_write_total",
			Help: "Total store write attempts by store and outcome.",
		}, []string{"store", "outcome"}),
		reconciliationPublishCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ingest_reconciliation_publish_total",
			Help: "Total reconciliation queue publish attempts by result.",
		}, []string{"result"}),
	}

	// Register all metrics with the registry.
	registry.MustRegister(r.batchDurationSeconds)
	registry.MustRegister(r.batchStatusCounter)
	registry.MustRegister(r.batchReceivedTotal)
	registry.MustRegister(r.recordOutcomeCounter)
	registry.MustRegister(r.storeWriteDurationSeconds)
	registry.MustRegister(r.storeWriteCounter)
	registry.MustRegister(r.reconciliationPublishCounter)

	return r
}

// GetRegistry returns the Prometheus registry.
func (r *PrometheusRecorder) GetRegistry() *prometheus.Registry {
	return r.registry
}

// RecordBatchStart records the start of a batch execution.
func (r *PrometheusRecorder) RecordBatchStart(ctx context.Context, batchID string, received int) {
	r.batchReceivedTotal.Add(float64(received))
	logger.Debugf("Metrics: batch '%s' started with %d records.", batchID, received)
}

// RecordBatchEnd records the completion of a batch execution.
func (r *PrometheusRecorder) RecordBatchEnd(ctx context.Context, summary model.BatchSummary) {
	status := "completed"
	if summary.TimedOut {
		status = "timed_out"
	}
	r.batchStatusCounter.WithLabelValues(status).Inc()
	r.batchDurationSeconds.WithLabelValues(status).Observe(float64(summary.DurationMs) / 1000.0)
}

// RecordRecordOutcome records the final classification of a single record.
func (r *PrometheusRecorder) RecordRecordOutcome(ctx context.Context, state model.FinalState, reason string) {
	r.recordOutcomeCounter.WithLabelValues(state.String(), reason).Inc()
}

// RecordStoreWrite records one store write attempt and its duration.
func (r *PrometheusRecorder) RecordStoreWrite(ctx context.Context, storeName string, outcome model.OutcomeKind, duration time.Duration) {
	r.storeWriteCounter.WithLabelValues(storeName, outcome.String()).Inc()
	r.storeWriteDurationSeconds.WithLabelValues(storeName, outcome.String()).Observe(duration.Seconds())
}

// RecordReconciliationPublish records one reconciliation queue publish attempt.
func (r *PrometheusRecorder) RecordReconciliationPublish(ctx context.Context, success bool) {
	result := "ok"
	if !success {
		result = "error"
	}
	r.reconciliationPublishCounter.WithLabelValues(result).Inc()
}

var _ metrics.MetricRecorder = (*PrometheusRecorder)(nil)
