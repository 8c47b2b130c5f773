package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/turtacn/trademark-screening/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/trademark-screening/internal/interfaces/http/handlers"
	"github.com/turtacn/trademark-screening/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handler and middleware dependencies of the
// route tree. Nil handlers leave their routes unregistered.
type RouterConfig struct {
	// Handlers
	ScreeningHandler  *handlers.ScreeningHandler
	SubmissionHandler *handlers.SubmissionHandler
	HealthHandler     *handlers.HealthHandler

	// Middleware
	CORS        middleware.CORSConfig
	Limiter     *middleware.RequesterLimiter
	HTTPMetrics middleware.HTTPRecorder
	// Verifier, when set, requires a bearer ID token on the submission
	// routes and takes the requester id from its subject.
	Verifier middleware.TokenVerifier

	// Infrastructure
	Logger         logging.Logger
	MetricsHandler http.Handler
	MetricsPath    string
}

// NewRouter constructs the complete HTTP route tree.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	r := chi.NewRouter()

	// --- Global middleware (applied to every request) ---
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Requester(logger))
	r.Use(middleware.RequestLogging(logger, middleware.DefaultLoggingConfig()))
	if cfg.HTTPMetrics != nil {
		r.Use(middleware.Metrics(cfg.HTTPMetrics))
	}

	// --- Probes ---
	if cfg.HealthHandler != nil {
		r.Get("/healthz", cfg.HealthHandler.Liveness)
		r.Get("/readyz", cfg.HealthHandler.Readiness)
	}
	if cfg.MetricsHandler != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Handle(path, cfg.MetricsHandler)
	}

	// --- Screening ---
	r.Group(func(g chi.Router) {
		if cfg.Limiter != nil {
			g.Use(middleware.RateLimit(cfg.Limiter, logger))
		}
		if cfg.ScreeningHandler != nil {
			g.Post("/process_trademark", cfg.ScreeningHandler.Screen)
		}
		registerSubmissionRoutes(g, cfg.SubmissionHandler, cfg.Verifier, logger)
	})

	return r
}

// registerSubmissionRoutes mounts the per-requester endpoints under
// /api/v1/trademarks.
func registerSubmissionRoutes(r chi.Router, h *handlers.SubmissionHandler, verifier middleware.TokenVerifier, logger logging.Logger) {
	if h == nil {
		return
	}
	r.Route("/api/v1/trademarks", func(tr chi.Router) {
		if verifier != nil {
			tr.Use(middleware.BearerAuth(verifier, logger))
		}
		tr.Use(middleware.RequireRequester)
		tr.Post("/", h.Submit)
		tr.Get("/results", h.Results)
		tr.Get("/mine", h.Mine)
	})
}
