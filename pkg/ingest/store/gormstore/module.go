package gormstore

import (
	"context"

	"go.uber.org/fx"

	config "github.com/tigerroll/tidewrite/pkg/ingest/core/config"
	"github.com/tigerroll/tidewrite/pkg/ingest/store"
	exception "github.com/tigerroll/tidewrite/pkg/ingest/support/util/exception"
)

// NewPrimaryStore builds the relational primary store from the adapter
// configuration named by infrastructure.primary_ref.
func NewPrimaryStore(lc fx.Lifecycle, cfg *config.Config) (*Store, error) {
	name := cfg.Tidewrite.Infrastructure.PrimaryRef

	var dbCfg DatabaseConfig
	if err := config.DecodeAdapterConfig(cfg, name, &dbCfg); err != nil {
		return nil, exception.NewIngestError("gormstore", "failed to decode primary store configuration", err, false)
	}

	s, err := NewStore(dbCfg, name)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return s.Close()
		},
	})
	return s, nil
}

// Module is the Fx module providing the GORM-backed primary store.
// The concrete *Store is also exposed so startup migration can reach the
// underlying database handle.
var Module = fx.Options(
	fx.Provide(NewPrimaryStore),
	fx.Provide(func(s *Store) store.PrimaryStore { return s }),
)
