package osstore_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/tidewrite/pkg/ingest/store/osstore"
)

// stubTransport records requests and serves canned responses.
type stubTransport struct {
	lastReq    *http.Request
	lastBody   []byte
	statusCode int
	response   string
}

func (t *stubTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.lastReq = req
	if req.Body != nil {
		t.lastBody, _ = io.ReadAll(req.Body)
	}
	return &http.Response{
		StatusCode: t.statusCode,
		Body:       io.NopCloser(strings.NewReader(t.response)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}, nil
}

func newStubStore(t *testing.T, transport *stubTransport) *osstore.Store {
	t.Helper()
	client, err := opensearch.NewClient(opensearch.Config{
		Addresses: []string{"http://localhost:9200"},
		Transport: transport,
	})
	require.NoError(t, err)
	return osstore.NewStoreWithClient(client, "ingest-records", "secondary")
}

func TestUpsert_IndexesDocumentByID(t *testing.T) {
	transport := &stubTransport{statusCode: http.StatusCreated, response: `{"result":"created"}`}
	s := newStubStore(t, transport)

	doc := map[string]interface{}{
		"id":     "rec-1",
		"status": "Active",
		"name":   "alpha",
	}
	err := s.Upsert(context.Background(), "rec-1", doc)
	require.NoError(t, err)

	require.NotNil(t, transport.lastReq)
	assert.Equal(t, "PUT", transport.lastReq.Method)
	assert.Contains(t, transport.lastReq.URL.Path, "/ingest-records/_doc/rec-1")

	var sent map[string]interface{}
	require.NoError(t, json.Unmarshal(transport.lastBody, &sent))
	assert.Equal(t, "rec-1", sent["id"])
	assert.Equal(t, "Active", sent["status"])
}

func TestUpsert_ReplaceReportsSuccess(t *testing.T) {
	transport := &stubTransport{statusCode: http.StatusOK, response: `{"result":"updated"}`}
	s := newStubStore(t, transport)

	err := s.Upsert(context.Background(), "rec-1", map[string]interface{}{"id": "rec-1"})
	assert.NoError(t, err)
}

func TestUpsert_ServerErrorSurfaces(t *testing.T) {
	transport := &stubTransport{statusCode: http.StatusServiceUnavailable, response: `{"error":"unavailable"}`}
	s := newStubStore(t, transport)

	err := s.Upsert(context.Background(), "rec-1", map[string]interface{}{"id": "rec-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rec-1")
}

func TestStore_Accessors(t *testing.T) {
	s := newStubStore(t, &stubTransport{statusCode: http.StatusOK})
	assert.Equal(t, "opensearch", s.Type())
	assert.Equal(t, "secondary", s.Name())
	assert.NoError(t, s.Close())
}
