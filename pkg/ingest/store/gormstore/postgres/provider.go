// Package postgres registers the PostgreSQL dialector with the gormstore registry.
package postgres

import (
	"fmt"

	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/tigerroll/tidewrite/pkg/ingest/store/gormstore"
)

// init registers the PostgreSQL dialector factory with the gormstore adapter.
func init() {
	gormstore.RegisterDialector("postgres", func(cfg gormstore.DatabaseConfig) (gorm.Dialector, error) {
		return gormpostgres.Open(ConnectionString(cfg)), nil
	})
}

// ConnectionString builds a PostgreSQL DSN from the store configuration.
func ConnectionString(cfg gormstore.DatabaseConfig) string {
	sslmode := cfg.Sslmode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, sslmode)
}
