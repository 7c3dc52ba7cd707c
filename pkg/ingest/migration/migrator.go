// Package migration applies the relational schema for the primary store using
// golang-migrate with migrations embedded in the binary.
package migration

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	logger "github.com/tigerroll/tidewrite/pkg/ingest/support/util/logger"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const (
	migrationsPath  = "migrations"
	migrationsTable = "tidewrite_schema_migrations"
)

// Migrator applies schema migrations against the primary store.
type Migrator interface {
	// Up applies all pending migrations.
	Up(ctx context.Context) error
	// Down rolls back all applied migrations.
	Down(ctx context.Context) error
}

type migratorImpl struct {
	sqlDB  *sql.DB
	dbType string
}

// NewMigrator creates a Migrator for the given database handle and dialect type.
func NewMigrator(sqlDB *sql.DB, dbType string) Migrator {
	return &migratorImpl{sqlDB: sqlDB, dbType: dbType}
}

// getDatabaseDriver retrieves a migrate/v4 Driver based on the database type.
func (m *migratorImpl) getDatabaseDriver() (database.Driver, error) {
	switch m.dbType {
	case "postgres", "redshift":
		return postgres.WithInstance(m.sqlDB, &postgres.Config{MigrationsTable: migrationsTable})
	case "mysql":
		return mysql.WithInstance(m.sqlDB, &mysql.Config{MigrationsTable: migrationsTable})
	case "sqlite":
		return sqlite.WithInstance(m.sqlDB, &sqlite.Config{MigrationsTable: migrationsTable})
	default:
		return nil, fmt.Errorf("unsupported database type for migration: %s", m.dbType)
	}
}

func (m *migratorImpl) getMigrateInstance() (*migrate.Migrate, error) {
	sourceDriver, err := iofs.New(migrationFS, migrationsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create iofs source driver: %w", err)
	}

	dbDriver, err := m.getDatabaseDriver()
	if err != nil {
		return nil, fmt.Errorf("failed to create database driver: %w", err)
	}

	mInstance, err := migrate.NewWithInstance("iofs", sourceDriver, m.dbType, dbDriver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return mInstance, nil
}

func (m *migratorImpl) run(command string) error {
	logger.Infof("Executing migration '%s' (DB: %s, Table: %s)", command, m.dbType, migrationsTable)

	mInstance, err := m.getMigrateInstance()
	if err != nil {
		return err
	}
	defer mInstance.Close()

	var migrateErr error
	switch command {
	case "up":
		migrateErr = mInstance.Up()
	case "down":
		migrateErr = mInstance.Down()
	default:
		return fmt.Errorf("unsupported migration command: %s", command)
	}

	if migrateErr != nil && migrateErr != migrate.ErrNoChange {
		return fmt.Errorf("migration failed for command '%s' (DB: %s): %w", command, m.dbType, migrateErr)
	}

	logger.Infof("Migration '%s' completed successfully.", command)
	return nil
}

func (m *migratorImpl) Up(ctx context.Context) error {
	return m.run("up")
}

func (m *migratorImpl) Down(ctx context.Context) error {
	return m.run("down")
}
