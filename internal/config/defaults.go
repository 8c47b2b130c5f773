package config

import "time"

const (
	DefaultServerPort            = 5001
	DefaultServerReadTimeout     = 30 * time.Second
	DefaultServerWriteTimeout    = 60 * time.Second
	DefaultServerShutdownTimeout = 15 * time.Second
	DefaultServerMaxBodySize     = 10 << 20
	DefaultServerRateLimit       = 2.0
	DefaultServerRateBurst       = 10

	DefaultKafkaBroker        = "localhost:9092"
	DefaultKafkaWorkerTopic   = "trademark-workers"
	DefaultKafkaResultTopic   = "trademark-results"
	DefaultKafkaWorkerGroupID = "trademark-workers"
	DefaultKafkaResultGroupID = "trademark-results-store"
	DefaultKafkaOffsetReset   = "earliest"
	DefaultKafkaConcurrency   = 4
	DefaultKafkaWriteTimeout  = 10 * time.Second

	DefaultOpenSearchAddress        = "http://localhost:9200"
	DefaultOpenSearchMaxRetries     = 3
	DefaultOpenSearchRequestTimeout = 30 * time.Second
	DefaultExactIndex               = "tm_data_ngram"
	DefaultMarkIndex                = "tm_data"
	DefaultEntityIndex              = "big_company"
	DefaultEntityField              = "column3"
	DefaultExactWindow              = 500
	DefaultSentimentModelID         = "matthewburke__korean_sentiment"
	DefaultSentimentPath            = "/_ml/trained_models/%s/deployment/_infer"

	DefaultRedisAddr     = "localhost:6379"
	DefaultRedisPoolSize = 20
	DefaultRedisPrefix   = "tmscreen:"
	DefaultRedisCacheTTL = 6 * time.Hour

	DefaultPostgresHost    = "localhost"
	DefaultPostgresPort    = 5432
	DefaultPostgresDBName  = "tmscreen"
	DefaultPostgresSSLMode = "disable"
	DefaultPostgresMaxOpen = 10
	DefaultPostgresMaxIdle = 5

	DefaultMinIOEndpoint      = "localhost:9000"
	DefaultMinIORegion        = "us-east-1"
	DefaultMinIOImageBucket   = "trademark-images"
	DefaultMinIOPresignExpiry = 24 * time.Hour

	DefaultModelTimeout      = 10 * time.Second
	DefaultModelMaxIdleConns = 32

	DefaultCheckTimeout         = 10 * time.Second
	DefaultFuzziness            = 2
	DefaultLargeEntityThreshold = 0.55
	DefaultStandardThreshold    = 0.7
	DefaultNegativeThreshold    = 0.8
	DefaultNegativeLabel        = "LABEL_0"
	DefaultLookupConcurrency    = 8
	DefaultDistinctivenessValue = 1.0

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultMetricsNamespace = "tmscreen"
	DefaultMetricsPath      = "/metrics"

	DefaultWorkerHealthPort = 8081

	DefaultAuthRefreshInterval = 5 * time.Minute
	DefaultAuthTimeout         = 5 * time.Second
	DefaultAuthLeeway          = 30 * time.Second
)

// DefaultAllowList holds generic food-category tokens exempt from sentiment
// screening.
var DefaultAllowList = []string{"의", "닭볶음탕", "밥", "떱옦기", "도", "밥집", "닭", "찜닭", "chicken", "꼬꼬댁"}

// ApplyDefaults fills zero-value fields in cfg. It is called after
// unmarshalling and before Validate. Fuzziness is left alone because zero is a
// legal edit distance; the viper default covers the unset case.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultServerReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultServerWriteTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultServerShutdownTimeout
	}
	if cfg.Server.MaxBodySize == 0 {
		cfg.Server.MaxBodySize = DefaultServerMaxBodySize
	}
	if cfg.Server.RateBurst == 0 {
		cfg.Server.RateBurst = DefaultServerRateBurst
	}

	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.WorkerTopic == "" {
		cfg.Kafka.WorkerTopic = DefaultKafkaWorkerTopic
	}
	if cfg.Kafka.ResultTopic == "" {
		cfg.Kafka.ResultTopic = DefaultKafkaResultTopic
	}
	if cfg.Kafka.WorkerGroupID == "" {
		cfg.Kafka.WorkerGroupID = DefaultKafkaWorkerGroupID
	}
	if cfg.Kafka.ResultGroupID == "" {
		cfg.Kafka.ResultGroupID = DefaultKafkaResultGroupID
	}
	if cfg.Kafka.AutoOffsetReset == "" {
		cfg.Kafka.AutoOffsetReset = DefaultKafkaOffsetReset
	}
	if cfg.Kafka.Concurrency == 0 {
		cfg.Kafka.Concurrency = DefaultKafkaConcurrency
	}
	if cfg.Kafka.WriteTimeout == 0 {
		cfg.Kafka.WriteTimeout = DefaultKafkaWriteTimeout
	}

	if len(cfg.OpenSearch.Addresses) == 0 {
		cfg.OpenSearch.Addresses = []string{DefaultOpenSearchAddress}
	}
	if cfg.OpenSearch.MaxRetries == 0 {
		cfg.OpenSearch.MaxRetries = DefaultOpenSearchMaxRetries
	}
	if cfg.OpenSearch.RequestTimeout == 0 {
		cfg.OpenSearch.RequestTimeout = DefaultOpenSearchRequestTimeout
	}
	if cfg.OpenSearch.ExactIndex == "" {
		cfg.OpenSearch.ExactIndex = DefaultExactIndex
	}
	if cfg.OpenSearch.MarkIndex == "" {
		cfg.OpenSearch.MarkIndex = DefaultMarkIndex
	}
	if cfg.OpenSearch.EntityIndex == "" {
		cfg.OpenSearch.EntityIndex = DefaultEntityIndex
	}
	if cfg.OpenSearch.EntityField == "" {
		cfg.OpenSearch.EntityField = DefaultEntityField
	}
	if cfg.OpenSearch.ExactWindow == 0 {
		cfg.OpenSearch.ExactWindow = DefaultExactWindow
	}
	if cfg.OpenSearch.SentimentModelID == "" {
		cfg.OpenSearch.SentimentModelID = DefaultSentimentModelID
	}
	if cfg.OpenSearch.SentimentPath == "" {
		cfg.OpenSearch.SentimentPath = DefaultSentimentPath
	}

	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.PoolSize == 0 {
		cfg.Redis.PoolSize = DefaultRedisPoolSize
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisPrefix
	}
	if cfg.Redis.CacheTTL == 0 {
		cfg.Redis.CacheTTL = DefaultRedisCacheTTL
	}

	if cfg.Postgres.Host == "" {
		cfg.Postgres.Host = DefaultPostgresHost
	}
	if cfg.Postgres.Port == 0 {
		cfg.Postgres.Port = DefaultPostgresPort
	}
	if cfg.Postgres.DBName == "" {
		cfg.Postgres.DBName = DefaultPostgresDBName
	}
	if cfg.Postgres.SSLMode == "" {
		cfg.Postgres.SSLMode = DefaultPostgresSSLMode
	}
	if cfg.Postgres.MaxOpenConns == 0 {
		cfg.Postgres.MaxOpenConns = DefaultPostgresMaxOpen
	}
	if cfg.Postgres.MaxIdleConns == 0 {
		cfg.Postgres.MaxIdleConns = DefaultPostgresMaxIdle
	}

	if cfg.MinIO.Endpoint == "" {
		cfg.MinIO.Endpoint = DefaultMinIOEndpoint
	}
	if cfg.MinIO.Region == "" {
		cfg.MinIO.Region = DefaultMinIORegion
	}
	if cfg.MinIO.ImageBucket == "" {
		cfg.MinIO.ImageBucket = DefaultMinIOImageBucket
	}
	if cfg.MinIO.PresignExpiry == 0 {
		cfg.MinIO.PresignExpiry = DefaultMinIOPresignExpiry
	}

	if cfg.Models.Timeout == 0 {
		cfg.Models.Timeout = DefaultModelTimeout
	}
	if cfg.Models.MaxIdleConns == 0 {
		cfg.Models.MaxIdleConns = DefaultModelMaxIdleConns
	}

	if cfg.Engine.CheckTimeout == 0 {
		cfg.Engine.CheckTimeout = DefaultCheckTimeout
	}
	if cfg.Engine.LargeEntityThreshold == 0 {
		cfg.Engine.LargeEntityThreshold = DefaultLargeEntityThreshold
	}
	if cfg.Engine.StandardThreshold == 0 {
		cfg.Engine.StandardThreshold = DefaultStandardThreshold
	}
	if cfg.Engine.NegativeThreshold == 0 {
		cfg.Engine.NegativeThreshold = DefaultNegativeThreshold
	}
	if cfg.Engine.NegativeLabel == "" {
		cfg.Engine.NegativeLabel = DefaultNegativeLabel
	}
	if cfg.Engine.AllowList == nil {
		cfg.Engine.AllowList = append([]string(nil), DefaultAllowList...)
	}
	if cfg.Engine.LookupConcurrency == 0 {
		cfg.Engine.LookupConcurrency = DefaultLookupConcurrency
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}

	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}

	if cfg.Worker.HealthPort == 0 {
		cfg.Worker.HealthPort = DefaultWorkerHealthPort
	}

	if cfg.Auth.RefreshInterval == 0 {
		cfg.Auth.RefreshInterval = DefaultAuthRefreshInterval
	}
	if cfg.Auth.Timeout == 0 {
		cfg.Auth.Timeout = DefaultAuthTimeout
	}
}
