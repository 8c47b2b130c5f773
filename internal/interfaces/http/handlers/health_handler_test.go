package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLiveness(t *testing.T) {
	h := NewHealthHandler("1.2.3", nil, CheckFunc{"opensearch", func(context.Context) error {
		t.Fatal("liveness must not probe dependencies")
		return nil
	}})
	w := httptest.NewRecorder()
	h.Liveness(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp LivenessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "alive", resp.Status)
	assert.Equal(t, "1.2.3", resp.Version)
}

func TestReadiness_NoCheckers(t *testing.T) {
	w := httptest.NewRecorder()
	NewHealthHandler("dev", nil).Readiness(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ready"}`, w.Body.String())
}

func TestReadiness_AllHealthy(t *testing.T) {
	m := newFakeMetrics()
	ok := func(context.Context) error { return nil }
	h := NewHealthHandler("dev", m, CheckFunc{"opensearch", ok}, CheckFunc{"redis", ok})

	w := httptest.NewRecorder()
	h.Readiness(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp ReadinessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ready", resp.Status)
	assert.Len(t, resp.Components, 2)
	assert.Equal(t, map[string]bool{"opensearch": true, "redis": true}, m.health)
}

func TestReadiness_OneUnhealthy(t *testing.T) {
	m := newFakeMetrics()
	h := NewHealthHandler("dev", m,
		CheckFunc{"opensearch", func(context.Context) error { return nil }},
		CheckFunc{"kafka", func(context.Context) error { return errors.New("no brokers") }},
	)

	w := httptest.NewRecorder()
	h.Readiness(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	var resp ReadinessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "not_ready", resp.Status)
	assert.Equal(t, "unhealthy", resp.Components["kafka"].Status)
	assert.Equal(t, "no brokers", resp.Components["kafka"].Error)
	assert.Equal(t, "healthy", resp.Components["opensearch"].Status)
	assert.False(t, m.health["kafka"])
}
