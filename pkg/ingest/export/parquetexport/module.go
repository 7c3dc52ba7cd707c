package parquetexport

import (
	"context"

	"go.uber.org/fx"

	config "github.com/tigerroll/tidewrite/pkg/ingest/core/config"
	ports "github.com/tigerroll/tidewrite/pkg/ingest/core/ports"
	storage "github.com/tigerroll/tidewrite/pkg/ingest/storage"
	factory "github.com/tigerroll/tidewrite/pkg/ingest/storage/factory"
	exception "github.com/tigerroll/tidewrite/pkg/ingest/support/util/exception"
	logger "github.com/tigerroll/tidewrite/pkg/ingest/support/util/logger"
)

// archiveConfig is the raw adapter configuration for the archive connection,
// combining the storage connection settings with the exporter settings.
type archiveConfig struct {
	storage.Config `mapstructure:",squash"`
	Export         Config `mapstructure:"export"`
}

// NewSummaryArchiver builds the Parquet summary archiver from the adapter
// configuration named by infrastructure.archive_ref. When no archive_ref is
// configured, archiving is disabled and a no-op archiver is returned.
func NewSummaryArchiver(lc fx.Lifecycle, cfg *config.Config) (ports.SummaryArchiver, error) {
	name := cfg.Tidewrite.Infrastructure.ArchiveRef
	if name == "" {
		logger.Debugf("Archive: no archive_ref configured, batch audit export disabled.")
		return NoopArchiver{}, nil
	}

	var archCfg archiveConfig
	if err := config.DecodeAdapterConfig(cfg, name, &archCfg); err != nil {
		return nil, exception.NewIngestError(moduleName, "failed to decode archive storage configuration", err, false)
	}

	conn, err := factory.New(context.Background(), archCfg.Config, name)
	if err != nil {
		return nil, exception.NewIngestError(moduleName, "failed to create archive storage connection", err, false)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return conn.Close()
		},
	})

	return NewExporter(archCfg.Export, conn)
}

// Module is the Fx module providing the batch summary archiver.
var Module = fx.Options(
	fx.Provide(NewSummaryArchiver),
)
