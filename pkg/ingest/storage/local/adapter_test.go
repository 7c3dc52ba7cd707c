package local_test

import (
	"bytes"
	"context"
	"io"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	storage "github.com/tigerroll/tidewrite/pkg/ingest/storage"
	"github.com/tigerroll/tidewrite/pkg/ingest/storage/local"
)

func newTestAdapter(t *testing.T) storage.Connection {
	t.Helper()
	conn, err := local.NewAdapter(storage.Config{
		Type:    local.AdapterType,
		BaseDir: t.TempDir(),
	}, "archive")
	require.NoError(t, err)
	return conn
}

func TestUploadDownloadRoundTrip(t *testing.T) {
	conn := newTestAdapter(t)
	ctx := context.Background()

	payload := []byte("parquet bytes")
	require.NoError(t, conn.Upload(ctx, "audit", "batch_id=b1/results.parquet", bytes.NewReader(payload), "application/octet-stream"))

	r, err := conn.Download(ctx, "audit", "batch_id=b1/results.parquet")
	require.NoError(t, err)
	defer r.Close()

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestListObjects_FiltersByPrefix(t *testing.T) {
	conn := newTestAdapter(t)
	ctx := context.Background()

	for _, name := range []string{"audit/a.parquet", "audit/b.parquet", "other/c.parquet"} {
		require.NoError(t, conn.Upload(ctx, "bucket", name, bytes.NewReader([]byte("x")), ""))
	}

	var found []string
	require.NoError(t, conn.ListObjects(ctx, "bucket", "audit/", func(objectName string) error {
		found = append(found, objectName)
		return nil
	}))
	sort.Strings(found)
	assert.Equal(t, []string{"audit/a.parquet", "audit/b.parquet"}, found)
}

func TestDeleteObject(t *testing.T) {
	conn := newTestAdapter(t)
	ctx := context.Background()

	require.NoError(t, conn.Upload(ctx, "bucket", "x.parquet", bytes.NewReader([]byte("x")), ""))
	require.NoError(t, conn.DeleteObject(ctx, "bucket", "x.parquet"))

	_, err := conn.Download(ctx, "bucket", "x.parquet")
	assert.Error(t, err)

	// Deleting a missing object is not an error.
	assert.NoError(t, conn.DeleteObject(ctx, "bucket", "x.parquet"))
}

func TestUpload_RejectsPathEscape(t *testing.T) {
	conn := newTestAdapter(t)
	err := conn.Upload(context.Background(), "bucket", "../../etc/passwd", bytes.NewReader([]byte("x")), "")
	assert.Error(t, err)
}

func TestNewAdapter_RequiresBaseDir(t *testing.T) {
	_, err := local.NewAdapter(storage.Config{Type: local.AdapterType}, "archive")
	assert.Error(t, err)
}
