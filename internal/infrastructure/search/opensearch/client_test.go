package opensearch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/trademark-screening/internal/config"
	"github.com/turtacn/trademark-screening/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/trademark-screening/pkg/errors"
)

func newTestServer(statusCode int) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(statusCode)
	}))
}

func newTestConfig(addr string) ClientConfig {
	return ClientConfig{
		Addresses:      []string{addr},
		MaxRetries:     0,
		RequestTimeout: time.Second,
	}
}

func TestValidateConfig(t *testing.T) {
	assert.NoError(t, ValidateConfig(ClientConfig{Addresses: []string{"http://localhost:9200"}, RequestTimeout: time.Second}))

	err := ValidateConfig(ClientConfig{RequestTimeout: time.Second})
	assert.Equal(t, ErrInvalidConfig, err)

	err = ValidateConfig(ClientConfig{Addresses: []string{"http://x"}, MaxRetries: -1, RequestTimeout: time.Second})
	assert.ErrorContains(t, err, "MaxRetries must be >= 0")

	err = ValidateConfig(ClientConfig{Addresses: []string{"http://x"}})
	assert.ErrorContains(t, err, "RequestTimeout must be > 0")
}

func TestClientConfigFrom(t *testing.T) {
	cfg := ClientConfigFrom(config.OpenSearchConfig{
		Addresses:      []string{"https://search:9200"},
		Username:       "admin",
		MaxRetries:     2,
		RequestTimeout: 5 * time.Second,
	})
	assert.Equal(t, []string{"https://search:9200"}, cfg.Addresses)
	assert.Equal(t, "admin", cfg.Username)
	assert.Equal(t, 2, cfg.MaxRetries)
}

func TestNewClient_Success(t *testing.T) {
	server := newTestServer(http.StatusOK)
	defer server.Close()

	client, err := NewClient(newTestConfig(server.URL), logging.NewNopLogger())
	require.NoError(t, err)
	assert.True(t, client.IsHealthy())
	assert.NotNil(t, client.GetClient())
	assert.NoError(t, client.Close())
	assert.NoError(t, client.Close())
}

func TestNewClient_ConnectionFailed(t *testing.T) {
	server := newTestServer(http.StatusServiceUnavailable)
	defer server.Close()

	client, err := NewClient(newTestConfig(server.URL), logging.NewNopLogger())
	require.Error(t, err)
	assert.Nil(t, client)
	assert.True(t, errors.IsCode(err, errors.ErrCodeServiceUnavailable))
}

func TestClient_Ping_Failure(t *testing.T) {
	var failing atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if failing.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, err := NewClient(newTestConfig(server.URL), logging.NewNopLogger())
	require.NoError(t, err)
	defer client.Close()

	failing.Store(true)
	assert.Error(t, client.Ping(context.Background()))
	assert.False(t, client.IsHealthy())
}
