// Package sqlite registers the SQLite dialector with the gormstore registry.
package sqlite

import (
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tigerroll/tidewrite/pkg/ingest/store/gormstore"
)

// init registers the SQLite dialector factory with the gormstore adapter.
func init() {
	gormstore.RegisterDialector("sqlite", func(cfg gormstore.DatabaseConfig) (gorm.Dialector, error) {
		// For SQLite, Database holds the file path (or ":memory:").
		return gormsqlite.Open(cfg.Database), nil
	})
}
