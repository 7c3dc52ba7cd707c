package redisqueue

import (
	"context"

	"go.uber.org/fx"

	config "github.com/tigerroll/tidewrite/pkg/ingest/core/config"
	ports "github.com/tigerroll/tidewrite/pkg/ingest/core/ports"
	exception "github.com/tigerroll/tidewrite/pkg/ingest/support/util/exception"
)

// NewReconciliationQueue builds the Redis Streams reconciliation queue from
// the adapter configuration named by infrastructure.reconciliation_ref.
func NewReconciliationQueue(lc fx.Lifecycle, cfg *config.Config) (ports.ReconciliationQueue, error) {
	name := cfg.Tidewrite.Infrastructure.ReconciliationRef

	var qCfg Config
	if err := config.DecodeAdapterConfig(cfg, name, &qCfg); err != nil {
		return nil, exception.NewIngestError("redisqueue", "failed to decode reconciliation queue configuration", err, false)
	}

	q, err := NewQueue(context.Background(), qCfg)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return q.Close()
		},
	})
	return q, nil
}

// Module is the Fx module providing the Redis-backed reconciliation queue.
var Module = fx.Options(
	fx.Provide(NewReconciliationQueue),
)
