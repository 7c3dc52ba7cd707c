package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/fx"

	"github.com/tigerroll/tidewrite/pkg/ingest/coordinator"
	config "github.com/tigerroll/tidewrite/pkg/ingest/core/config"
	model "github.com/tigerroll/tidewrite/pkg/ingest/core/model"
	ports "github.com/tigerroll/tidewrite/pkg/ingest/core/ports"
	"github.com/tigerroll/tidewrite/pkg/ingest/executor"
	parquetexport "github.com/tigerroll/tidewrite/pkg/ingest/export/parquetexport"
	infraMetrics "github.com/tigerroll/tidewrite/pkg/ingest/infrastructure/metrics"
	otelinit "github.com/tigerroll/tidewrite/pkg/ingest/infrastructure/otelinit"
	"github.com/tigerroll/tidewrite/pkg/ingest/migration"
	"github.com/tigerroll/tidewrite/pkg/ingest/queue/redisqueue"
	"github.com/tigerroll/tidewrite/pkg/ingest/store/gormstore"
	_ "github.com/tigerroll/tidewrite/pkg/ingest/store/gormstore/mysql"
	_ "github.com/tigerroll/tidewrite/pkg/ingest/store/gormstore/postgres"
	_ "github.com/tigerroll/tidewrite/pkg/ingest/store/gormstore/sqlite"
	"github.com/tigerroll/tidewrite/pkg/ingest/store/osstore"
	logger "github.com/tigerroll/tidewrite/pkg/ingest/support/util/logger"
	"github.com/tigerroll/tidewrite/pkg/ingest/telemetry"
	"github.com/tigerroll/tidewrite/pkg/ingest/validate"
)

// GetApplicationOptions builds the uber-fx options for the ingestion application.
func GetApplicationOptions(appCtx context.Context, envFilePath, batchFilePath string, embeddedConfig config.EmbeddedConfig) []fx.Option {
	var options []fx.Option

	options = append(options, fx.Supply(
		embeddedConfig,
		fx.Annotate(envFilePath, fx.ResultTags(`name:"envFilePath"`)),
		fx.Annotate(batchFilePath, fx.ResultTags(`name:"batchFilePath"`)),
		fx.Annotate(appCtx, fx.As(new(context.Context)), fx.ResultTags(`name:"appCtx"`)),
	))
	options = append(options, logger.Module)
	options = append(options, config.Module)
	options = append(options, infraMetrics.Module)
	options = append(options, telemetry.Module)
	options = append(options, validate.Module)
	options = append(options, gormstore.Module)
	options = append(options, osstore.Module)
	options = append(options, redisqueue.Module)
	options = append(options, parquetexport.Module)
	options = append(options, coordinator.Module)
	options = append(options, executor.Module)
	options = append(options, fx.Invoke(fx.Annotate(runBatchIngestion,
		fx.ParamTags("", "", "", "", "", "", `name:"appCtx"`, `name:"batchFilePath"`))))

	return options
}

// runBatchIngestion registers the Fx hook that drives one batch through the
// engine and shuts the application down afterwards.
func runBatchIngestion(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	exec *executor.BatchExecutor,
	primary *gormstore.Store,
	archiver ports.SummaryArchiver,
	cfg *config.Config,
	appCtx context.Context,
	batchFilePath string,
) {
	var otelShutdown otelinit.Shutdown

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			var err error
			otelShutdown, err = otelinit.Setup(appCtx, cfg.Tidewrite.Telemetry)
			if err != nil {
				return err
			}

			go func() {
				defer func() {
					if r := recover(); r != nil {
						logger.Errorf("Panic recovered in batch execution: %v", r)
					}
					logger.Infof("Requesting application shutdown after batch completion.")
					if err := shutdowner.Shutdown(); err != nil {
						logger.Errorf("Failed to shutdown application: %v", err)
					}
				}()

				if err := runOnce(appCtx, exec, primary, archiver, cfg, batchFilePath); err != nil {
					logger.Errorf("Batch ingestion failed: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Infof("Application is shutting down.")
			if otelShutdown != nil {
				return otelShutdown(ctx)
			}
			return nil
		},
	})
}

// runOnce applies pending migrations when configured, executes the batch read
// from batchFilePath, archives the summary and prints it to stdout.
func runOnce(
	ctx context.Context,
	exec *executor.BatchExecutor,
	primary *gormstore.Store,
	archiver ports.SummaryArchiver,
	cfg *config.Config,
	batchFilePath string,
) error {
	if cfg.Tidewrite.Infrastructure.MigrateOnStart {
		sqlDB, err := primary.DB().DB()
		if err != nil {
			return fmt.Errorf("failed to get underlying sql.DB for migration: %w", err)
		}
		if err := migration.NewMigrator(sqlDB, primary.Type()).Up(ctx); err != nil {
			return err
		}
	}

	data, err := os.ReadFile(batchFilePath)
	if err != nil {
		return fmt.Errorf("failed to read batch file '%s': %w", batchFilePath, err)
	}

	var batch []model.RawRecord
	if err := json.Unmarshal(data, &batch); err != nil {
		return fmt.Errorf("failed to parse batch file '%s': %w", batchFilePath, err)
	}
	logger.Infof("Read %d records from '%s'.", len(batch), batchFilePath)

	summary, err := exec.Run(ctx, batch)
	if err != nil {
		return err
	}

	if err := archiver.Archive(ctx, summary); err != nil {
		logger.Errorf("Failed to archive batch summary for batch '%s': %v", summary.BatchID, err)
	}

	out, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal batch summary: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
