// Package bootstrap assembles the service graph from configuration. Each
// component is built on first use and closed in reverse order by Close, so a
// process only dials the backends its role needs.
package bootstrap

import (
	"context"
	"fmt"
	"sync"

	"github.com/turtacn/trademark-screening/internal/application/screening"
	"github.com/turtacn/trademark-screening/internal/application/submission"
	"github.com/turtacn/trademark-screening/internal/config"
	"github.com/turtacn/trademark-screening/internal/domain/trademark"
	"github.com/turtacn/trademark-screening/internal/infrastructure/auth/idtoken"
	"github.com/turtacn/trademark-screening/internal/infrastructure/database/postgres"
	"github.com/turtacn/trademark-screening/internal/infrastructure/database/postgres/repositories"
	redisinfra "github.com/turtacn/trademark-screening/internal/infrastructure/database/redis"
	"github.com/turtacn/trademark-screening/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/trademark-screening/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/trademark-screening/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/trademark-screening/internal/infrastructure/search/opensearch"
	"github.com/turtacn/trademark-screening/internal/infrastructure/storage/minio"
	"github.com/turtacn/trademark-screening/internal/intelligence/models"
	"github.com/turtacn/trademark-screening/internal/interfaces/http/handlers"
	"github.com/turtacn/trademark-screening/internal/interfaces/http/middleware"
	"github.com/turtacn/trademark-screening/pkg/errors"
)

// NewLogger builds the process logger. A non-empty level overrides cfg.Level.
func NewLogger(cfg config.LogConfig, level string) (logging.Logger, error) {
	lc := logging.LogConfig{
		Level:       cfg.Level,
		Format:      cfg.Format,
		OutputPaths: cfg.OutputPaths,
	}
	if level != "" {
		lc.Level = level
	}
	return logging.NewLogger(lc)
}

type closer struct {
	name string
	fn   func() error
}

// Container owns every long-lived component of a process.
type Container struct {
	Config  *config.Config
	Logger  logging.Logger
	Metrics *prometheus.ScreeningMetrics

	collector prometheus.MetricsCollector

	mu       sync.Mutex
	closers  []closer
	checkers []handlers.HealthChecker

	search     *opensearch.Client
	searcher   *opensearch.Searcher
	models     *models.Registry
	redis      *redisinfra.Client
	cache      redisinfra.Cache
	pg         *postgres.Connection
	images     *minio.ImageStore
	producer   *kafka.Producer
	engine     screening.Service
	submission submission.Service
	verifier   *idtoken.JWKSVerifier
}

// New creates the container and its metrics registry. Nothing is dialed yet.
func New(cfg *config.Config, logger logging.Logger) (*Container, error) {
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfigFrom(cfg.Metrics), logger)
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}
	return &Container{
		Config:    cfg,
		Logger:    logger,
		Metrics:   prometheus.NewScreeningMetrics(collector),
		collector: collector,
	}, nil
}

// HealthCheckers lists a probe for every backend built so far.
func (c *Container) HealthCheckers() []handlers.HealthChecker {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]handlers.HealthChecker(nil), c.checkers...)
}

func (c *Container) track(name string, probe func(ctx context.Context) error, fn func() error) {
	if probe != nil {
		c.checkers = append(c.checkers, handlers.CheckFunc{Component: name, Probe: probe})
	}
	if fn != nil {
		c.closers = append(c.closers, closer{name: name, fn: fn})
	}
}

// Close releases components in reverse construction order.
func (c *Container) Close() {
	c.mu.Lock()
	closers := c.closers
	c.closers = nil
	c.mu.Unlock()

	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].fn(); err != nil {
			c.Logger.Warn("failed to close component",
				logging.String("component", closers[i].name),
				logging.Err(err))
		}
	}
}

// Engine returns the screening engine, building its collaborators on first
// use: the search cluster adapters, the model clients and, when Redis is
// enabled, the memoizing wrappers.
func (c *Container) Engine() (screening.Service, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.engine != nil {
		return c.engine, nil
	}

	searcher, err := c.searcherLocked()
	if err != nil {
		return nil, err
	}
	reg, err := c.modelsLocked()
	if err != nil {
		return nil, err
	}

	osCfg := c.Config.OpenSearch
	var (
		entities       trademark.EntityRegistry = opensearch.NewEntityRegistry(searcher, osCfg)
		transliterator                          = reg.Transliterator
	)
	if c.Config.Redis.Enabled {
		cache, err := c.cacheLocked()
		if err != nil {
			return nil, err
		}
		ttl := c.Config.Redis.CacheTTL
		transliterator = redisinfra.NewMemoTransliterator(transliterator, cache, ttl)
		entities = redisinfra.NewMemoEntityRegistry(entities, cache, ttl, c.Logger)
	}

	engine, err := screening.NewEngine(screening.Deps{
		Index:          opensearch.NewMarkIndex(searcher, osCfg, c.Logger),
		Entities:       entities,
		Transliterator: transliterator,
		G2P:            reg.G2P,
		Tokenizer:      reg.Tokenizer,
		Classifier:     opensearch.NewSentimentClassifier(c.search, osCfg),
		Embedder:       reg.Embedder,
		Policy:         screening.PolicyFromConfig(c.Config),
		CheckTimeout:   c.Config.Engine.CheckTimeout,
		Observer:       c.Metrics,
		Logger:         c.Logger.Named("engine"),
	})
	if err != nil {
		return nil, err
	}
	c.engine = engine
	return engine, nil
}

// Producer returns the Kafka producer.
func (c *Container) Producer() (*kafka.Producer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.producerLocked()
}

// Submission returns the asynchronous submission service. It needs Kafka,
// Postgres and Redis; object storage is optional.
func (c *Container) Submission() (submission.Service, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.submission != nil {
		return c.submission, nil
	}

	cfg := c.Config
	switch {
	case !cfg.Kafka.Enabled:
		return nil, ErrDisabled.WithDetail("kafka")
	case !cfg.Postgres.Enabled:
		return nil, ErrDisabled.WithDetail("postgres")
	case !cfg.Redis.Enabled:
		return nil, ErrDisabled.WithDetail("redis")
	}

	producer, err := c.producerLocked()
	if err != nil {
		return nil, err
	}
	repo, err := c.reportsLocked()
	if err != nil {
		return nil, err
	}
	client, err := c.redisLocked()
	if err != nil {
		return nil, err
	}

	var images submission.ImageStore
	if cfg.MinIO.Enabled {
		store, err := c.imagesLocked()
		if err != nil {
			return nil, err
		}
		images = store
	}

	c.submission = submission.NewService(
		submission.Config{WorkerTopic: cfg.Kafka.WorkerTopic},
		images,
		producer,
		repo,
		redisinfra.NewResultBus(client, c.Logger),
		c.Logger.Named("submission"),
	)
	return c.submission, nil
}

// Verifier returns the bearer token verifier, or nil when auth is disabled.
func (c *Container) Verifier() (middleware.TokenVerifier, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.Config.Auth.Enabled {
		return nil, nil
	}
	if c.verifier != nil {
		return c.verifier, nil
	}
	v, err := idtoken.NewJWKSVerifier(c.Config.Auth, c.Logger.Named("auth"))
	if err != nil {
		return nil, err
	}
	c.track("auth", v.Health, nil)
	c.verifier = v
	return v, nil
}

// Consumer creates a Kafka consumer for one group and topic. The container
// closes it.
func (c *Container) Consumer(groupID, topic string) (*kafka.Consumer, error) {
	if !c.Config.Kafka.Enabled {
		return nil, ErrDisabled.WithDetail("kafka")
	}
	consumer, err := kafka.NewConsumer(kafka.ConsumerConfigFrom(c.Config.Kafka, groupID, topic), c.Logger.Named("kafka"))
	if err != nil {
		return nil, fmt.Errorf("kafka consumer %s: %w", groupID, err)
	}
	consumer.SetObserver(c.Metrics)

	c.mu.Lock()
	c.track("kafka-consumer:"+groupID, nil, consumer.Close)
	c.mu.Unlock()
	return consumer, nil
}

// Migrator returns a schema migrator for the report store.
func (c *Container) Migrator() *postgres.Migrator {
	return postgres.NewMigrator(c.Config.Postgres, c.Logger.Named("migrate"))
}

// ErrDisabled reports a component whose backend is switched off.
var ErrDisabled = errors.New(errors.ErrCodeServiceUnavailable, "backend disabled in configuration")

func (c *Container) searcherLocked() (*opensearch.Searcher, error) {
	if c.searcher != nil {
		return c.searcher, nil
	}
	client, err := opensearch.NewClient(opensearch.ClientConfigFrom(c.Config.OpenSearch), c.Logger.Named("opensearch"))
	if err != nil {
		return nil, fmt.Errorf("opensearch: %w", err)
	}
	c.track("opensearch", client.Ping, client.Close)
	c.search = client
	c.searcher = opensearch.NewSearcher(client, c.Logger)
	return c.searcher, nil
}

func (c *Container) modelsLocked() (*models.Registry, error) {
	if c.models != nil {
		return c.models, nil
	}
	reg, err := models.NewRegistry(c.Config.Models, c.Logger.Named("models"))
	if err != nil {
		return nil, fmt.Errorf("models: %w", err)
	}
	c.track("models", reg.HealthCheck, reg.Close)
	c.models = reg
	return reg, nil
}

func (c *Container) redisLocked() (*redisinfra.Client, error) {
	if c.redis != nil {
		return c.redis, nil
	}
	client, err := redisinfra.NewClient(c.Config.Redis, c.Logger.Named("redis"))
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	c.track("redis", client.Ping, client.Close)
	c.redis = client
	return client, nil
}

func (c *Container) cacheLocked() (redisinfra.Cache, error) {
	if c.cache != nil {
		return c.cache, nil
	}
	client, err := c.redisLocked()
	if err != nil {
		return nil, err
	}
	c.cache = redisinfra.NewRedisCache(client, c.Logger, redisinfra.WithLoadTimeout(c.Config.Engine.CheckTimeout))
	return c.cache, nil
}

func (c *Container) reportsLocked() (trademark.ReportRepository, error) {
	if c.pg == nil {
		conn, err := postgres.NewConnection(c.Config.Postgres, c.Logger.Named("postgres"))
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		c.track("postgres", conn.HealthCheck, conn.Close)
		c.pg = conn

		if c.Config.Postgres.AutoMigrate {
			if err := postgres.NewMigrator(c.Config.Postgres, c.Logger.Named("migrate")).Up(); err != nil {
				return nil, err
			}
		}
	}
	return repositories.NewPostgresReportRepo(c.pg, c.Logger), nil
}

func (c *Container) imagesLocked() (*minio.ImageStore, error) {
	if c.images != nil {
		return c.images, nil
	}
	client, err := minio.NewClient(c.Config.MinIO, c.Logger.Named("minio"))
	if err != nil {
		return nil, fmt.Errorf("minio: %w", err)
	}
	c.track("minio", client.HealthCheck, client.Close)
	c.images = minio.NewImageStore(client, c.Logger)
	return c.images, nil
}

func (c *Container) producerLocked() (*kafka.Producer, error) {
	if c.producer != nil {
		return c.producer, nil
	}
	if !c.Config.Kafka.Enabled {
		return nil, ErrDisabled.WithDetail("kafka")
	}
	producer, err := kafka.NewProducer(kafka.ProducerConfigFrom(c.Config.Kafka), c.Logger.Named("kafka"))
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	c.track("kafka", producer.HealthCheck, producer.Close)
	c.producer = producer
	return producer, nil
}
