// Package memstore provides in-memory implementations of the store capability
// interfaces. They back local runs without external infrastructure and serve
// as substitution points in tests, including injected per-store failures.
package memstore

import (
	"context"
	"sync"

	"github.com/tigerroll/tidewrite/pkg/ingest/store"
)

// PrimaryStore is an in-memory implementation of store.PrimaryStore.
type PrimaryStore struct {
	mu   sync.Mutex
	name string
	rows map[string]map[string]string

	// failWith, when set, fails every Upsert with the given error.
	failWith error
	// upserts counts Upsert calls, including failed ones.
	upserts int
}

// NewPrimaryStore creates a new in-memory primary store.
func NewPrimaryStore(name string) *PrimaryStore {
	return &PrimaryStore{
		name: name,
		rows: make(map[string]map[string]string),
	}
}

var _ store.PrimaryStore = (*PrimaryStore)(nil)

// Type returns "memory".
func (s *PrimaryStore) Type() string { return "memory" }

// Name returns the configured connection name.
func (s *PrimaryStore) Name() string { return s.name }

// Close does nothing for the in-memory store.
func (s *PrimaryStore) Close() error { return nil }

// Upsert inserts or updates the row keyed by id.
func (s *PrimaryStore) Upsert(ctx context.Context, id string, attributes map[string]string) (store.UpsertResult, error) {
	if err := ctx.Err(); err != nil {
		return store.UpsertResult{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upserts++
	if s.failWith != nil {
		return store.UpsertResult{}, s.failWith
	}
	_, existed := s.rows[id]
	row := make(map[string]string, len(attributes))
	for k, v := range attributes {
		row[k] = v
	}
	s.rows[id] = row
	return store.UpsertResult{Created: !existed}, nil
}

// FailWith makes every subsequent Upsert fail with err; nil restores normal operation.
func (s *PrimaryStore) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWith = err
}

// Row returns a copy of the stored row and whether it exists.
func (s *PrimaryStore) Row(id string) (map[string]string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	if !ok {
		return nil, false
	}
	cp := make(map[string]string, len(row))
	for k, v := range row {
		cp[k] = v
	}
	return cp, true
}

// UpsertCount returns the number of Upsert calls observed.
func (s *PrimaryStore) UpsertCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upserts
}

// SecondaryStore is an in-memory implementation of store.SecondaryStore.
type SecondaryStore struct {
	mu   sync.Mutex
	name string
	docs map[string]map[string]interface{}

	failWith error
	upserts  int
}

// NewSecondaryStore creates a new in-memory secondary store.
func NewSecondaryStore(name string) *SecondaryStore {
	return &SecondaryStore{
		name: name,
		docs: make(map[string]map[string]interface{}),
	}
}

var _ store.SecondaryStore = (*SecondaryStore)(nil)

// Type returns "memory".
func (s *SecondaryStore) Type() string { return "memory" }

// Name returns the configured connection name.
func (s *SecondaryStore) Name() string { return s.name }

// Close does nothing for the in-memory store.
func (s *SecondaryStore) Close() error { return nil }

// Upsert replaces the document keyed by id.
func (s *SecondaryStore) Upsert(ctx context.Context, id string, document map[string]interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upserts++
	if s.failWith != nil {
		return s.failWith
	}
	doc := make(map[string]interface{}, len(document))
	for k, v := range document {
		doc[k] = v
	}
	s.docs[id] = doc
	return nil
}

// FailWith makes every subsequent Upsert fail with err; nil restores normal operation.
func (s *SecondaryStore) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWith = err
}

// Document returns a copy of the stored document and whether it exists.
func (s *SecondaryStore) Document(id string) (map[string]interface{}, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok {
		return nil, false
	}
	cp := make(map[string]interface{}, len(doc))
	for k, v := range doc {
		cp[k] = v
	}
	return cp, true
}

// UpsertCount returns the number of Upsert calls observed.
func (s *SecondaryStore) UpsertCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upserts
}
