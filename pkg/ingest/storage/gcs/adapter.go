// Package gcs provides a Google Cloud Storage implementation of the storage adapter interfaces.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"

	gcstorage "cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	storage "github.com/tigerroll/tidewrite/pkg/ingest/storage"
	logger "github.com/tigerroll/tidewrite/pkg/ingest/support/util/logger"
)

// AdapterType defines the type identifier for this GCS storage adapter.
const AdapterType = "gcs"

// gcsAdapter implements the storage.Connection interface backed by Google Cloud Storage.
type gcsAdapter struct {
	cfg    storage.Config
	name   string
	client *gcstorage.Client
}

var _ storage.Connection = (*gcsAdapter)(nil)

// NewAdapter creates a new GCS storage adapter. When CredentialsFile is set it
// is used explicitly, otherwise application default credentials apply.
func NewAdapter(ctx context.Context, cfg storage.Config, name string) (storage.Connection, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := gcstorage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs storage adapter '%s': failed to create client: %w", name, err)
	}

	return &gcsAdapter{cfg: cfg, name: name, client: client}, nil
}

// Close closes the underlying GCS client.
func (a *gcsAdapter) Close() error {
	logger.Debugf("GCS storage adapter '%s' closed.", a.name)
	return a.client.Close()
}

// Type returns the type of the adapter, which is "gcs".
func (a *gcsAdapter) Type() string {
	return AdapterType
}

// Name returns the name of this connection.
func (a *gcsAdapter) Name() string {
	return a.name
}

func (a *gcsAdapter) resolveBucket(bucket string) string {
	if bucket == "" {
		return a.cfg.BucketName
	}
	return bucket
}

// Upload writes data to the specified bucket and object name.
func (a *gcsAdapter) Upload(ctx context.Context, bucket, objectName string, data io.Reader, contentType string) error {
	bucket = a.resolveBucket(bucket)
	w := a.client.Bucket(bucket).Object(objectName).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}

	if _, err := io.Copy(w, data); err != nil {
		w.Close()
		return fmt.Errorf("failed to write object 'gs://%s/%s': %w", bucket, objectName, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize object 'gs://%s/%s': %w", bucket, objectName, err)
	}
	logger.Debugf("Uploaded object 'gs://%s/%s' (gcs adapter '%s').", bucket, objectName, a.name)
	return nil
}

// Download opens a reader for the specified bucket and object name.
// The returned io.ReadCloser must be closed by the caller.
func (a *gcsAdapter) Download(ctx context.Context, bucket, objectName string) (io.ReadCloser, error) {
	bucket = a.resolveBucket(bucket)
	r, err := a.client.Bucket(bucket).Object(objectName).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open object 'gs://%s/%s': %w", bucket, objectName, err)
	}
	return r, nil
}

// ListObjects iterates over objects under the prefix and calls fn for each name.
func (a *gcsAdapter) ListObjects(ctx context.Context, bucket, prefix string, fn func(objectName string) error) error {
	bucket = a.resolveBucket(bucket)
	it := a.client.Bucket(bucket).Objects(ctx, &gcstorage.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to list objects in 'gs://%s' with prefix '%s': %w", bucket, prefix, err)
		}
		if err := fn(attrs.Name); err != nil {
			return err
		}
	}
}

// DeleteObject deletes the specified object from the bucket.
// If the object does not exist, it logs a warning and returns nil.
func (a *gcsAdapter) DeleteObject(ctx context.Context, bucket, objectName string) error {
	bucket = a.resolveBucket(bucket)
	if err := a.client.Bucket(bucket).Object(objectName).Delete(ctx); err != nil {
		if errors.Is(err, gcstorage.ErrObjectNotExist) {
			logger.Warnf("Attempted to delete non-existent object 'gs://%s/%s' (gcs adapter '%s').", bucket, objectName, a.name)
			return nil
		}
		return fmt.Errorf("failed to delete object 'gs://%s/%s': %w", bucket, objectName, err)
	}
	logger.Debugf("Deleted object 'gs://%s/%s' (gcs adapter '%s').", bucket, objectName, a.name)
	return nil
}
