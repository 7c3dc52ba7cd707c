// Package factory constructs archive storage connections from named adapter
// configurations, dispatching on the configured storage type.
package factory

import (
	"context"
	"fmt"

	storage "github.com/tigerroll/tidewrite/pkg/ingest/storage"
	gcs "github.com/tigerroll/tidewrite/pkg/ingest/storage/gcs"
	local "github.com/tigerroll/tidewrite/pkg/ingest/storage/local"
)

// New creates a storage connection for the given configuration and name.
func New(ctx context.Context, cfg storage.Config, name string) (storage.Connection, error) {
	switch cfg.Type {
	case local.AdapterType:
		return local.NewAdapter(cfg, name)
	case gcs.AdapterType:
		return gcs.NewAdapter(ctx, cfg, name)
	default:
		return nil, fmt.Errorf("unsupported storage type '%s' for connection '%s'", cfg.Type, name)
	}
}
