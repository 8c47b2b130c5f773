package bootstrap

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/turtacn/trademark-screening/internal/config"
	"github.com/turtacn/trademark-screening/internal/infrastructure/monitoring/logging"
	httpserver "github.com/turtacn/trademark-screening/internal/interfaces/http"
	"github.com/turtacn/trademark-screening/internal/interfaces/http/handlers"
	"github.com/turtacn/trademark-screening/internal/interfaces/http/middleware"
	"github.com/turtacn/trademark-screening/internal/interfaces/stream"
)

const (
	limiterIdle    = 10 * time.Minute
	limiterCleanup = time.Minute
)

// Router builds the API route tree. The synchronous screening endpoint is
// always served; the submission endpoints are mounted only when their
// backends are enabled. ctx bounds the rate limiter's background cleanup.
func (c *Container) Router(ctx context.Context, version string) (http.Handler, error) {
	cfg := c.Config
	engine, err := c.Engine()
	if err != nil {
		return nil, err
	}

	rc := httpserver.RouterConfig{
		ScreeningHandler: handlers.NewScreeningHandler(engine, c.Metrics, cfg.Server.MaxBodySize, c.Logger.Named("http")),
		CORS:             corsConfig(cfg.Server.AllowedOrigins),
		HTTPMetrics:      c.Metrics,
		Logger:           c.Logger.Named("http"),
	}
	if cfg.Metrics.Enabled {
		rc.MetricsHandler = c.collector.Handler()
		rc.MetricsPath = cfg.Metrics.Path
	}
	if cfg.Server.RateLimit > 0 {
		limiter := middleware.NewRequesterLimiter(cfg.Server.RateLimit, cfg.Server.RateBurst, limiterIdle)
		limiter.StartCleanup(ctx, limiterCleanup)
		rc.Limiter = limiter
	}

	svc, err := c.Submission()
	switch {
	case err == nil:
		rc.SubmissionHandler = handlers.NewSubmissionHandler(svc, c.Metrics, cfg.Server.MaxBodySize, c.Logger.Named("http"))
		verifier, err := c.Verifier()
		if err != nil {
			return nil, err
		}
		rc.Verifier = verifier
	case stderrors.Is(err, ErrDisabled):
		c.Logger.Warn("submission endpoints disabled", logging.Err(err))
	default:
		return nil, err
	}

	rc.HealthHandler = handlers.NewHealthHandler(version, c.Metrics, c.HealthCheckers()...)
	return httpserver.NewRouter(rc), nil
}

// ProbeRouter serves only the health probes and, when enabled, metrics. It
// is used by processes without a public API.
func (c *Container) ProbeRouter(version string) http.Handler {
	rc := httpserver.RouterConfig{
		HealthHandler: handlers.NewHealthHandler(version, c.Metrics, c.HealthCheckers()...),
		Logger:        c.Logger.Named("probe"),
	}
	if c.Config.Metrics.Enabled {
		rc.MetricsHandler = c.collector.Handler()
		rc.MetricsPath = c.Config.Metrics.Path
	}
	return httpserver.NewRouter(rc)
}

// WatchLogLevel applies log.level edits of the file at path to the running
// logger. Other settings require a restart.
func (c *Container) WatchLogLevel(path string) error {
	setter, ok := c.Logger.(logging.LevelSetter)
	if !ok || path == "" {
		return nil
	}
	return config.Watch(path, func(next *config.Config) {
		setter.SetLevel(next.Log.Level)
		c.Logger.Info("log level changed", logging.String("level", next.Log.Level))
	}, func(err error) {
		c.Logger.Warn("ignoring invalid configuration revision", logging.Err(err))
	})
}

func corsConfig(origins []string) middleware.CORSConfig {
	cc := middleware.DefaultCORSConfig()
	cc.AllowedOrigins = origins
	cc.AllowedHeaders = append(cc.AllowedHeaders, "Authorization")
	return cc
}

// StartResultsConsumer stores and fans out every report read from the
// result topic. It requires the submission backends.
func (c *Container) StartResultsConsumer(ctx context.Context) error {
	svc, err := c.Submission()
	if err != nil {
		return err
	}
	kc := c.Config.Kafka
	consumer, err := c.Consumer(kc.ResultGroupID, kc.ResultTopic)
	if err != nil {
		return err
	}
	consumer.Subscribe(kc.ResultTopic, stream.NewResultsWorker(svc, c.Metrics, c.Logger).Handle)
	return consumer.Start(ctx)
}

// StartScreeningConsumers runs n consumers of the job topic in one group,
// each publishing its reports to the result topic.
func (c *Container) StartScreeningConsumers(ctx context.Context, n int) error {
	engine, err := c.Engine()
	if err != nil {
		return err
	}
	producer, err := c.Producer()
	if err != nil {
		return err
	}
	if n < 1 {
		n = 1
	}
	kc := c.Config.Kafka
	worker := stream.NewScreeningWorker(engine, producer, kc.ResultTopic, c.Metrics, c.Logger)
	for i := 0; i < n; i++ {
		consumer, err := c.Consumer(kc.WorkerGroupID, kc.WorkerTopic)
		if err != nil {
			return err
		}
		consumer.Subscribe(kc.WorkerTopic, worker.Handle)
		if err := consumer.Start(ctx); err != nil {
			return err
		}
	}
	c.Logger.Info("screening consumers started",
		logging.String("topic", kc.WorkerTopic),
		logging.Int("consumers", n))
	return nil
}
