// Package store defines the capability interfaces for the two backing stores.
// The coordinator depends only on these interfaces; concrete adapters (GORM,
// OpenSearch, in-memory) are substituted underneath them.
package store

import "context"

// Connection represents a generic backing-store connection.
type Connection interface {
	// Type returns the adapter type (e.g., "postgres", "opensearch", "memory").
	Type() string
	// Name returns the configured connection name.
	Name() string
	// Close releases the connection and its pooled resources.
	Close() error
}

// UpsertResult reports how the primary store resolved an upsert.
type UpsertResult struct {
	// Created is true when the row did not previously exist.
	Created bool
}

// PrimaryStore is the capability interface for the relational store.
// It is the authoritative source of truth; the secondary store is always
// derived from it. Implementations must be safe for concurrent use by
// multiple in-flight records; connection pooling is the adapter's concern.
type PrimaryStore interface {
	Connection

	// Upsert inserts or updates the record row keyed by id and reports
	// whether the row was newly created.
	Upsert(ctx context.Context, id string, attributes map[string]string) (UpsertResult, error)
}

// SecondaryStore is the capability interface for the document store.
// Upsert has full document replace semantics.
type SecondaryStore interface {
	Connection

	// Upsert replaces the document keyed by id with the given projection.
	Upsert(ctx context.Context, id string, document map[string]interface{}) error
}
