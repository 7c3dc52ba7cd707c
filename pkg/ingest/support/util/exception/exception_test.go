package exception_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tigerroll/tidewrite/pkg/ingest/support/util/exception"
)

func TestNewIngestError_WrapsOriginal(t *testing.T) {
	original := errors.New("connection reset by peer")
	e := exception.NewIngestError("osstore", "secondary write failed", original, true)

	assert.Contains(t, e.Error(), "osstore")
	assert.Contains(t, e.Error(), "secondary write failed")
	assert.True(t, errors.Is(e, original))
	assert.True(t, e.IsRetryable())
}

func TestNewIngestErrorf(t *testing.T) {
	e := exception.NewIngestErrorf("validate", "record %q refused", "rec-1")
	assert.Contains(t, e.Error(), `record "rec-1" refused`)
	assert.False(t, e.IsRetryable())
}

func TestIsIngestError(t *testing.T) {
	e := exception.NewIngestError("coordinator", "boom", nil, false)
	wrapped := fmt.Errorf("outer: %w", e)

	assert.True(t, exception.IsIngestError(e))
	assert.True(t, exception.IsIngestError(wrapped))
	assert.False(t, exception.IsIngestError(errors.New("plain")))
	assert.False(t, exception.IsIngestError(nil))
}

func TestIsTemporary(t *testing.T) {
	assert.True(t, exception.IsTemporary(context.DeadlineExceeded))
	assert.True(t, exception.IsTemporary(errors.New("dial tcp: connection refused")))
	assert.True(t, exception.IsTemporary(exception.NewIngestError("redisqueue", "publish failed", nil, true)))
	assert.False(t, exception.IsTemporary(exception.NewIngestError("config", "bad yaml", nil, false)))
	assert.False(t, exception.IsTemporary(nil))
}

func TestExtractErrorMessage(t *testing.T) {
	original := errors.New("index unavailable")
	e := exception.NewIngestError("osstore", "secondary write failed", original, true)
	assert.Equal(t, "secondary write failed", exception.ExtractErrorMessage(e))
	assert.Equal(t, "index unavailable", exception.ExtractErrorMessage(original))
	assert.Equal(t, "", exception.ExtractErrorMessage(nil))
}
