// Package osstore provides the OpenSearch-backed implementation of the
// secondary (document) store adapter. Upserts index the full denormalized
// projection with replace semantics, keyed by record id.
package osstore

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"github.com/tigerroll/tidewrite/pkg/ingest/store"
	"github.com/tigerroll/tidewrite/pkg/ingest/support/util/logger"
)

// Config holds OpenSearch connection settings.
type Config struct {
	URL      string `yaml:"url" mapstructure:"url"`           // Cluster endpoint URL.
	Username string `yaml:"username" mapstructure:"username"` // Basic auth username.
	Password string `yaml:"password" mapstructure:"password"` // Basic auth password.
	Insecure bool   `yaml:"insecure" mapstructure:"insecure"` // Skip TLS certificate verification.
	Index    string `yaml:"index" mapstructure:"index"`       // Target index for record documents.
}

// Store is the OpenSearch implementation of store.SecondaryStore.
type Store struct {
	client *opensearch.Client
	index  string
	name   string
}

var _ store.SecondaryStore = (*Store)(nil)

// NewStore creates an OpenSearch client and verifies connectivity.
//
// Parameters:
//
//	cfg: The OpenSearch connection settings.
//	name: The configured connection name.
func NewStore(cfg Config, name string) (*Store, error) {
	if cfg.Index == "" {
		return nil, fmt.Errorf("opensearch store '%s': index must be specified in configuration", name)
	}

	httpClient := &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: cfg.Insecure,
			},
		},
	}

	client, err := opensearch.NewClient(opensearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: httpClient.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create opensearch client: %w", err)
	}

	info, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("failed to ping opensearch: %w", err)
	}
	defer info.Body.Close()
	if info.IsError() {
		return nil, fmt.Errorf("opensearch returned error: %s", info.Status())
	}

	logger.Infof("Established secondary store connection: %s (opensearch, index '%s')", name, cfg.Index)
	return &Store{client: client, index: cfg.Index, name: name}, nil
}

// NewStoreWithClient wraps an existing client. Used by tests with a stubbed transport.
func NewStoreWithClient(client *opensearch.Client, index, name string) *Store {
	return &Store{client: client, index: index, name: name}
}

// Type returns "opensearch".
func (s *Store) Type() string { return "opensearch" }

// Name returns the configured connection name.
func (s *Store) Name() string { return s.name }

// Close does nothing; the underlying transport pools connections per process.
func (s *Store) Close() error { return nil }

// Upsert replaces the document keyed by id with the given projection.
func (s *Store) Upsert(ctx context.Context, id string, document map[string]interface{}) error {
	body, err := json.Marshal(document)
	if err != nil {
		return fmt.Errorf("failed to encode document for record '%s': %w", id, err)
	}

	req := opensearchapi.IndexRequest{
		Index:      s.index,
		DocumentID: id,
		Body:       bytes.NewReader(body),
	}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return fmt.Errorf("opensearch index request failed for record '%s': %w", id, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("opensearch rejected document for record '%s': %s", id, res.Status())
	}
	return nil
}
