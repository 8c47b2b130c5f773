package opensearch

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	opensearchgo "github.com/opensearch-project/opensearch-go/v2"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/trademark-screening/internal/infrastructure/monitoring/logging"
)

// capturedRequest is one request seen by the fake cluster.
type capturedRequest struct {
	Method string
	Path   string
	Body   map[string]interface{}
}

type fakeCluster struct {
	*httptest.Server
	mu       sync.Mutex
	requests []capturedRequest
}

// newFakeCluster serves handler and records every request body.
func newFakeCluster(t *testing.T, handler func(w http.ResponseWriter, path string, body map[string]interface{})) *fakeCluster {
	t.Helper()
	fc := &fakeCluster{}
	fc.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]interface{}
		if len(raw) > 0 {
			_ = json.Unmarshal(raw, &body)
		}
		fc.mu.Lock()
		fc.requests = append(fc.requests, capturedRequest{Method: r.Method, Path: r.URL.Path, Body: body})
		fc.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		handler(w, r.URL.Path, body)
	}))
	t.Cleanup(fc.Close)
	return fc
}

func (fc *fakeCluster) last() capturedRequest {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.requests[len(fc.requests)-1]
}

// newTestClient wraps a raw client without the connectivity ping.
func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	osClient, err := opensearchgo.NewClient(opensearchgo.Config{Addresses: []string{url}})
	require.NoError(t, err)
	c := &Client{
		client: osClient,
		config: ClientConfig{Addresses: []string{url}},
		logger: logging.NewNopLogger(),
		cancel: func() {},
	}
	c.healthy.Store(true)
	return c
}
