// Package telemetry provides TelemetrySink implementations for the ingestion core.
// The default sink only logs; real transports (event hubs, pipelines) live
// behind the same port outside this repository.
package telemetry

import (
	"context"

	ports "github.com/tigerroll/tidewrite/pkg/ingest/core/ports"
	"github.com/tigerroll/tidewrite/pkg/ingest/support/util/logger"
)

// LogSink is a TelemetrySink implementation that only logs events.
type LogSink struct{}

// NewLogSink creates a new instance of LogSink.
func NewLogSink() ports.TelemetrySink {
	logger.Infof("Telemetry: Initializing logging sink.")
	return &LogSink{}
}

// RecordCompleted logs one record completion event.
func (s *LogSink) RecordCompleted(ctx context.Context, event ports.RecordEvent) {
	if event.FinalState == "Consistent" {
		logger.Debugf("Telemetry: record '%s' (batch %s, index %d) finished %s in %dms",
			event.RecordID, event.BatchID, event.Index, event.FinalState, event.DurationMs)
		return
	}
	logger.Warnf("Telemetry: record '%s' (batch %s, index %d) finished %s (reason: %s) in %dms",
		event.RecordID, event.BatchID, event.Index, event.FinalState, event.Reason, event.DurationMs)
}

// BatchCompleted logs one batch summary event.
func (s *LogSink) BatchCompleted(ctx context.Context, event ports.BatchEvent) {
	logger.Infof("Telemetry: batch '%s' finished: received=%d processed=%d failed=%d pending=%d timedOut=%v duration=%dms",
		event.BatchID, event.Received, event.Processed, event.Failed, event.Pending, event.TimedOut, event.DurationMs)
}

var _ ports.TelemetrySink = (*LogSink)(nil)
