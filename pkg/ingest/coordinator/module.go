package coordinator

import (
	"time"

	"go.uber.org/fx"

	config "github.com/tigerroll/tidewrite/pkg/ingest/core/config"
	metrics "github.com/tigerroll/tidewrite/pkg/ingest/core/metrics"
	ports "github.com/tigerroll/tidewrite/pkg/ingest/core/ports"
	"github.com/tigerroll/tidewrite/pkg/ingest/store"
)

// NewCoordinatorFromConfig builds the dual-write coordinator with the
// configured per-record store timeout.
func NewCoordinatorFromConfig(
	cfg *config.Config,
	primary store.PrimaryStore,
	secondary store.SecondaryStore,
	queue ports.ReconciliationQueue,
	recorder metrics.MetricRecorder,
	tracer metrics.Tracer,
) *DualWriteCoordinator {
	perStoreTimeout := time.Duration(cfg.Tidewrite.Batch.PerRecordTimeoutMs) * time.Millisecond
	return NewDualWriteCoordinator(primary, secondary, queue, recorder, tracer, perStoreTimeout)
}

// Module is the Fx module providing the dual-write coordinator.
var Module = fx.Options(
	fx.Provide(NewCoordinatorFromConfig),
)
