package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/trademark-screening/internal/application/submission"
	"github.com/turtacn/trademark-screening/internal/domain/trademark"
	"github.com/turtacn/trademark-screening/internal/infrastructure/auth/idtoken"
	"github.com/turtacn/trademark-screening/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/trademark-screening/internal/interfaces/http/handlers"
	"github.com/turtacn/trademark-screening/internal/interfaces/http/middleware"
)

type stubEngine struct{}

func (stubEngine) Screen(_ context.Context, c trademark.Candidate) (*trademark.Report, error) {
	return &trademark.Report{ID: "r", Name: c.Name, CreatedAt: time.Now()}, nil
}

type stubSubmission struct{}

func (stubSubmission) Submit(_ context.Context, in *submission.SubmitInput) (*submission.Accepted, error) {
	return &submission.Accepted{Message: "ok", Status: submission.StatusProcessing}, nil
}
func (stubSubmission) HandleResult(context.Context, *trademark.StoredReport) error { return nil }
func (stubSubmission) History(context.Context, string) ([]*trademark.StoredReport, error) {
	return nil, nil
}
func (stubSubmission) Subscribe(context.Context, string) (<-chan []byte, error) {
	ch := make(chan []byte)
	close(ch)
	return ch, nil
}

type routeRecorder struct{ routes []string }

func (r *routeRecorder) RecordHTTPRequest(_, route string, _ int, _ time.Duration) {
	r.routes = append(r.routes, route)
}

func newTestRouter(rec *routeRecorder, limiter *middleware.RequesterLimiter) http.Handler {
	log := logging.NewNopLogger()
	cfg := RouterConfig{
		ScreeningHandler:  handlers.NewScreeningHandler(stubEngine{}, nil, 1<<20, log),
		SubmissionHandler: handlers.NewSubmissionHandler(stubSubmission{}, nil, 1<<20, log),
		HealthHandler:     handlers.NewHealthHandler("test", nil),
		CORS:              middleware.DefaultCORSConfig(),
		Limiter:           limiter,
		Logger:            log,
		MetricsHandler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("# metrics"))
		}),
	}
	if rec != nil {
		cfg.HTTPMetrics = rec
	}
	return NewRouter(cfg)
}

func serve(h http.Handler, r *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestNewRouter_Probes(t *testing.T) {
	h := newTestRouter(nil, nil)
	assert.Equal(t, http.StatusOK, serve(h, httptest.NewRequest(http.MethodGet, "/healthz", nil)).Code)
	assert.Equal(t, http.StatusOK, serve(h, httptest.NewRequest(http.MethodGet, "/readyz", nil)).Code)
	w := serve(h, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, "# metrics", w.Body.String())
}

func TestNewRouter_ProcessTrademark_NoRequesterNeeded(t *testing.T) {
	h := newTestRouter(nil, nil)
	r := httptest.NewRequest(http.MethodPost, "/process_trademark", strings.NewReader(`{"name":"ABC"}`))
	w := serve(h, r)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), handlers.ScreenCompletedMessage)
}

func TestNewRouter_TrademarkRoutes_RequireRequester(t *testing.T) {
	h := newTestRouter(nil, nil)
	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/api/v1/trademarks"},
		{http.MethodGet, "/api/v1/trademarks/results"},
		{http.MethodGet, "/api/v1/trademarks/mine"},
	} {
		w := serve(h, httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, tc.path)
	}
}

func TestNewRouter_TrademarkRoutes_Registered(t *testing.T) {
	h := newTestRouter(nil, nil)

	r := httptest.NewRequest(http.MethodGet, "/api/v1/trademarks/mine", nil)
	r.Header.Set(middleware.HeaderUserID, "u1")
	w := serve(h, r)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), submission.NoHistoryMessage)

	r = httptest.NewRequest(http.MethodPost, "/api/v1/trademarks", strings.NewReader("name=ABC"))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.Header.Set(middleware.HeaderUserID, "u1")
	assert.Equal(t, http.StatusAccepted, serve(h, r).Code)

	r = httptest.NewRequest(http.MethodGet, "/api/v1/trademarks/results", nil)
	r.Header.Set(middleware.HeaderUserID, "u1")
	w = serve(h, r)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
}

func TestNewRouter_NilHandlers_NoPanic(t *testing.T) {
	h := NewRouter(RouterConfig{})
	assert.Equal(t, http.StatusNotFound, serve(h, httptest.NewRequest(http.MethodGet, "/healthz", nil)).Code)
	assert.Equal(t, http.StatusNotFound, serve(h, httptest.NewRequest(http.MethodPost, "/process_trademark", nil)).Code)
}

func TestNewRouter_MetricsUseRoutePattern(t *testing.T) {
	rec := &routeRecorder{}
	h := newTestRouter(rec, nil)
	r := httptest.NewRequest(http.MethodGet, "/api/v1/trademarks/mine", nil)
	r.Header.Set(middleware.HeaderUserID, "u1")
	serve(h, r)
	require.Len(t, rec.routes, 1)
	assert.Equal(t, "/api/v1/trademarks/mine", rec.routes[0])
}

func TestNewRouter_RateLimitsScreening(t *testing.T) {
	h := newTestRouter(nil, middleware.NewRequesterLimiter(0.001, 1, time.Minute))
	post := func() int {
		r := httptest.NewRequest(http.MethodPost, "/process_trademark", strings.NewReader(`{"name":"ABC"}`))
		r.Header.Set(middleware.HeaderUserID, "u1")
		return serve(h, r).Code
	}
	assert.Equal(t, http.StatusOK, post())
	assert.Equal(t, http.StatusTooManyRequests, post())
	assert.Equal(t, http.StatusOK, serve(h, httptest.NewRequest(http.MethodGet, "/healthz", nil)).Code)
}

type tokenVerifier struct{}

func (tokenVerifier) Verify(_ context.Context, raw string) (*idtoken.Claims, error) {
	if raw != "good" {
		return nil, idtoken.ErrTokenInvalidSignature
	}
	return &idtoken.Claims{Subject: "token-uid"}, nil
}

func TestNewRouter_BearerAuthOverridesHeader(t *testing.T) {
	var uid string
	sub := handlers.NewSubmissionHandler(historySpy{uid: &uid}, nil, 1<<20, logging.NewNopLogger())
	h := NewRouter(RouterConfig{SubmissionHandler: sub, Verifier: tokenVerifier{}})

	r := httptest.NewRequest(http.MethodGet, "/api/v1/trademarks/mine", nil)
	r.Header.Set(middleware.HeaderUserID, "u1")
	assert.Equal(t, http.StatusUnauthorized, serve(h, r).Code)

	r = httptest.NewRequest(http.MethodGet, "/api/v1/trademarks/mine", nil)
	r.Header.Set(middleware.HeaderUserID, "u1")
	r.Header.Set("Authorization", "Bearer good")
	assert.Equal(t, http.StatusOK, serve(h, r).Code)
	assert.Equal(t, "token-uid", uid)
}

type historySpy struct {
	stubSubmission
	uid *string
}

func (s historySpy) History(_ context.Context, uid string) ([]*trademark.StoredReport, error) {
	*s.uid = uid
	return nil, nil
}
