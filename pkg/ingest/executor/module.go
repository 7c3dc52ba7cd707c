package executor

import (
	"time"

	"go.uber.org/fx"

	"github.com/tigerroll/tidewrite/pkg/ingest/coordinator"
	config "github.com/tigerroll/tidewrite/pkg/ingest/core/config"
	metrics "github.com/tigerroll/tidewrite/pkg/ingest/core/metrics"
	ports "github.com/tigerroll/tidewrite/pkg/ingest/core/ports"
	"github.com/tigerroll/tidewrite/pkg/ingest/validate"
)

// OptionsFromConfig maps the configured batch settings onto executor Options.
func OptionsFromConfig(cfg *config.Config) Options {
	b := cfg.Tidewrite.Batch
	return Options{
		MaxConcurrency:   b.MaxConcurrency,
		PerRecordTimeout: time.Duration(b.PerRecordTimeoutMs) * time.Millisecond,
		BatchTimeout:     time.Duration(b.BatchTimeoutMs) * time.Millisecond,
		MaxBatchSize:     b.MaxBatchSize,
	}
}

// NewBatchExecutorFromConfig builds the batch executor around the dual-write
// coordinator with the configured execution options.
func NewBatchExecutorFromConfig(
	cfg *config.Config,
	validator *validate.Validator,
	coord *coordinator.DualWriteCoordinator,
	sink ports.TelemetrySink,
	recorder metrics.MetricRecorder,
	tracer metrics.Tracer,
) *BatchExecutor {
	return NewBatchExecutor(validator, coord, sink, recorder, tracer, OptionsFromConfig(cfg))
}

// Module is the Fx module providing the batch executor.
var Module = fx.Options(
	fx.Provide(NewBatchExecutorFromConfig),
)
