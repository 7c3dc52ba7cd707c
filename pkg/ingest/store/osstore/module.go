package osstore

import (
	"go.uber.org/fx"

	config "github.com/tigerroll/tidewrite/pkg/ingest/core/config"
	"github.com/tigerroll/tidewrite/pkg/ingest/store"
	exception "github.com/tigerroll/tidewrite/pkg/ingest/support/util/exception"
)

// NewSecondaryStore builds the OpenSearch secondary store from the adapter
// configuration named by infrastructure.secondary_ref.
func NewSecondaryStore(cfg *config.Config) (store.SecondaryStore, error) {
	name := cfg.Tidewrite.Infrastructure.SecondaryRef

	var osCfg Config
	if err := config.DecodeAdapterConfig(cfg, name, &osCfg); err != nil {
		return nil, exception.NewIngestError("osstore", "failed to decode secondary store configuration", err, false)
	}

	return NewStore(osCfg, name)
}

// Module is the Fx module providing the OpenSearch-backed secondary store.
var Module = fx.Options(
	fx.Provide(NewSecondaryStore),
)
