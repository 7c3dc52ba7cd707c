// Package storage defines the common interfaces for archive storage adapters.
// These interfaces abstract object storage operations, allowing the ingestion
// engine to archive batch artifacts to different backends (e.g., GCS, local
// file system) through a unified API.
package storage

import (
	"context"
	"io"
)

// Connection represents an object storage connection.
type Connection interface {
	// Upload uploads data to the specified bucket and object name.
	// 'data' is the stream of data to upload. 'contentType' is the MIME type of the data.
	Upload(ctx context.Context, bucket, objectName string, data io.Reader, contentType string) error
	// Download downloads data from the specified bucket and object name.
	// It returns a ReadCloser which must be closed by the caller after use.
	Download(ctx context.Context, bucket, objectName string) (io.ReadCloser, error)
	// ListObjects lists objects within the specified bucket and prefix.
	// The 'fn' callback function is called for each object name found.
	ListObjects(ctx context.Context, bucket, prefix string, fn func(objectName string) error) error
	// DeleteObject deletes the specified object from the bucket.
	DeleteObject(ctx context.Context, bucket, objectName string) error

	// Type returns the adapter type (e.g., "gcs", "local").
	Type() string
	// Name returns the configured connection name.
	Name() string
	// Close releases resources held by the connection.
	Close() error
}

// Config holds configuration for a single archive storage connection.
type Config struct {
	Type            string `yaml:"type" mapstructure:"type"`                         // Type of storage (e.g., "gcs", "local").
	BucketName      string `yaml:"bucket_name" mapstructure:"bucket_name"`           // Default bucket name for operations.
	CredentialsFile string `yaml:"credentials_file" mapstructure:"credentials_file"` // Path to a service account key for GCS.
	BaseDir         string `yaml:"base_dir" mapstructure:"base_dir"`                 // Base directory for local file system operations.
}
