// Package gormstore provides the GORM-backed implementation of the primary
// (relational) store adapter. Dialect-specific connection setup is registered
// through a dialector registry by the mysql, postgres and sqlite subpackages.
package gormstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tigerroll/tidewrite/pkg/ingest/store"
	"github.com/tigerroll/tidewrite/pkg/ingest/support/util/logger"
)

// DialectorFactory generates a gorm.Dialector from a DatabaseConfig.
type DialectorFactory func(cfg DatabaseConfig) (gorm.Dialector, error)

var (
	dialectorRegistry = make(map[string]DialectorFactory)
	dialectorMutex    sync.RWMutex
)

// RegisterDialector registers a DialectorFactory for the given database type.
func RegisterDialector(dbType string, factory DialectorFactory) {
	dialectorMutex.Lock()
	defer dialectorMutex.Unlock()
	if _, exists := dialectorRegistry[dbType]; exists {
		logger.Warnf("Dialector for type '%s' already registered. Overwriting.", dbType)
	}
	dialectorRegistry[dbType] = factory
}

// GetDialectorFactory retrieves the DialectorFactory corresponding to the specified DB type.
func GetDialectorFactory(dbType string) (DialectorFactory, error) {
	dialectorMutex.RLock()
	defer dialectorMutex.RUnlock()
	factory, ok := dialectorRegistry[dbType]
	if !ok {
		return nil, fmt.Errorf("no dialector registered for database type: %s", dbType)
	}
	return factory, nil
}

// recordRow is the relational shape of an ingested record.
// Attributes beyond the status are held as a JSON payload so the table schema
// stays stable while the ingestion schema evolves.
type recordRow struct {
	ID         string    `gorm:"column:id;primaryKey"`
	Status     string    `gorm:"column:status"`
	Attributes string    `gorm:"column:attributes"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

// TableName returns the table backing the primary store.
func (recordRow) TableName() string {
	return "ingest_records"
}

// Store is the GORM implementation of store.PrimaryStore.
type Store struct {
	db     *gorm.DB
	dbType string
	name   string
}

var _ store.PrimaryStore = (*Store)(nil)

// NewStore establishes a pooled GORM connection from the given configuration.
//
// Parameters:
//
//	cfg: The relational store connection settings.
//	name: The configured connection name.
func NewStore(cfg DatabaseConfig, name string) (*Store, error) {
	factory, err := GetDialectorFactory(cfg.Type)
	if err != nil {
		return nil, fmt.Errorf("failed to get dialector factory for %s: %w", cfg.Type, err)
	}
	dialector, err := factory(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create dialector for %s: %w", cfg.Type, err)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open GORM connection: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	applyPoolSettings(sqlDB, cfg.Pool)

	logger.Infof("Established primary store connection: %s (%s)", name, cfg.Type)
	return &Store{db: db, dbType: cfg.Type, name: name}, nil
}

// NewStoreFromDB wraps an already-open GORM handle. Used by tests (sqlmock)
// and by callers managing the connection lifecycle themselves.
func NewStoreFromDB(db *gorm.DB, dbType, name string) *Store {
	return &Store{db: db, dbType: dbType, name: name}
}

// applyPoolSettings applies the configured connection pool limits.
func applyPoolSettings(sqlDB *sql.DB, pool PoolConfig) {
	if pool.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetimeMinutes > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(pool.ConnMaxLifetimeMinutes) * time.Minute)
	}
}

// Type returns the configured database type.
func (s *Store) Type() string { return s.dbType }

// Name returns the configured connection name.
func (s *Store) Name() string { return s.name }

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// DB returns the underlying *gorm.DB handle (for the migration runner).
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Upsert inserts or updates the record row keyed by id and reports whether the
// row was newly created. Existence is checked inside the same transaction as
// the upsert so the created-vs-updated report cannot race a concurrent writer.
func (s *Store) Upsert(ctx context.Context, id string, attributes map[string]string) (store.UpsertResult, error) {
	status := attributes["status"]
	payload := make(map[string]string, len(attributes))
	for k, v := range attributes {
		if k == "status" {
			continue
		}
		payload[k] = v
	}
	attrJSON, err := json.Marshal(payload)
	if err != nil {
		return store.UpsertResult{}, fmt.Errorf("failed to encode attributes for record '%s': %w", id, err)
	}

	row := recordRow{
		ID:         id,
		Status:     status,
		Attributes: string(attrJSON),
		UpdatedAt:  time.Now().UTC(),
	}

	created := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&recordRow{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		created = count == 0

		onConflict := clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "attributes", "updated_at"}),
		}
		return tx.Clauses(onConflict).Create(&row).Error
	})
	if err != nil {
		return store.UpsertResult{}, err
	}
	return store.UpsertResult{Created: created}, nil
}
