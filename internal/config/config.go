// Package config defines the configuration structures of the trademark
// screening service. Only plain data types and validation live here; file and
// environment handling is in loader.go.
package config

import (
	"fmt"
	"net/url"
	"time"
)

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`

	// RateLimit is the sustained screening requests per second per requester;
	// zero disables limiting.
	RateLimit float64 `mapstructure:"rate_limit"`
	RateBurst int     `mapstructure:"rate_burst"`
}

// KafkaConfig holds broker addresses and the topics the workers use.
type KafkaConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Brokers         []string      `mapstructure:"brokers"`
	WorkerTopic     string        `mapstructure:"worker_topic"`
	ResultTopic     string        `mapstructure:"result_topic"`
	WorkerGroupID   string        `mapstructure:"worker_group_id"`
	ResultGroupID   string        `mapstructure:"result_group_id"`
	AutoOffsetReset string        `mapstructure:"auto_offset_reset"` // "earliest" | "latest"
	Concurrency     int           `mapstructure:"concurrency"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
}

// OpenSearchConfig holds search cluster connection parameters and the names
// of the three indices the engine reads.
type OpenSearchConfig struct {
	Addresses          []string      `mapstructure:"addresses"`
	Username           string        `mapstructure:"username"`
	Password           string        `mapstructure:"password"`
	InsecureSkipVerify bool          `mapstructure:"insecure_skip_verify"`
	MaxRetries         int           `mapstructure:"max_retries"`
	RequestTimeout     time.Duration `mapstructure:"request_timeout"`
	ExactIndex         string        `mapstructure:"exact_index"`
	MarkIndex          string        `mapstructure:"mark_index"`
	EntityIndex        string        `mapstructure:"entity_index"`
	EntityField        string        `mapstructure:"entity_field"`
	ExactWindow        int           `mapstructure:"exact_window"`
	SentimentModelID   string        `mapstructure:"sentiment_model_id"`
	SentimentPath      string        `mapstructure:"sentiment_path"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
}

// PostgresConfig holds report-store connection parameters.
type PostgresConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"db_name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// MinIOConfig holds object storage parameters for submitted images.
type MinIOConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Endpoint        string        `mapstructure:"endpoint"`
	AccessKeyID     string        `mapstructure:"access_key_id"`
	SecretAccessKey string        `mapstructure:"secret_access_key"`
	UseSSL          bool          `mapstructure:"use_ssl"`
	Region          string        `mapstructure:"region"`
	ImageBucket     string        `mapstructure:"image_bucket"`
	PublicBaseURL   string        `mapstructure:"public_base_url"`
	PresignExpiry   time.Duration `mapstructure:"presign_expiry"`
}

// ModelsConfig points at the model-serving endpoints. An empty
// TransliteratorURL selects the local romanizer for the romanized mode.
type ModelsConfig struct {
	TokenizerURL      string        `mapstructure:"tokenizer_url"`
	TransliteratorURL string        `mapstructure:"transliterator_url"`
	G2PURL            string        `mapstructure:"g2p_url"`
	EmbedderURL       string        `mapstructure:"embedder_url"`
	Timeout           time.Duration `mapstructure:"timeout"`
	MaxIdleConns      int           `mapstructure:"max_idle_conns"`
}

// EngineConfig holds the screening policy knobs.
type EngineConfig struct {
	CheckTimeout         time.Duration `mapstructure:"check_timeout"`
	Fuzziness            int           `mapstructure:"fuzziness"`
	LargeEntityThreshold float64       `mapstructure:"large_entity_threshold"`
	StandardThreshold    float64       `mapstructure:"standard_threshold"`
	NegativeThreshold    float64       `mapstructure:"negative_threshold"`
	NegativeLabel        string        `mapstructure:"negative_label"`
	AllowList            []string      `mapstructure:"allow_list"`
	LookupConcurrency    int           `mapstructure:"lookup_concurrency"`

	// PinDistinctiveness reports DistinctivenessValue instead of the computed
	// score when set.
	PinDistinctiveness   bool    `mapstructure:"pin_distinctiveness"`
	DistinctivenessValue float64 `mapstructure:"distinctiveness_value"`
}

// WorkerConfig holds settings of the screening worker process.
type WorkerConfig struct {
	// HealthPort serves /healthz, /readyz and /metrics.
	HealthPort int `mapstructure:"health_port"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level       string   `mapstructure:"level"`
	Format      string   `mapstructure:"format"` // "json" | "console"
	OutputPaths []string `mapstructure:"output_paths"`
}

// MetricsConfig holds Prometheus settings.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
	Path      string `mapstructure:"path"`
}

// AuthConfig enables bearer ID-token verification. When disabled the
// requester id is taken from the X-User-ID header set by an upstream proxy.
type AuthConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	JWKSURL         string        `mapstructure:"jwks_url"`
	Issuer          string        `mapstructure:"issuer"`
	Audience        string        `mapstructure:"audience"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	Timeout         time.Duration `mapstructure:"timeout"`
	Leeway          time.Duration `mapstructure:"leeway"`
}

// Config is the root configuration object.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	OpenSearch OpenSearchConfig `mapstructure:"opensearch"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Postgres   PostgresConfig   `mapstructure:"postgres"`
	MinIO      MinIOConfig      `mapstructure:"minio"`
	Models     ModelsConfig     `mapstructure:"models"`
	Engine     EngineConfig     `mapstructure:"engine"`
	Log        LogConfig        `mapstructure:"log"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Worker     WorkerConfig     `mapstructure:"worker"`
}

// Validate checks cross-field invariants. It must run after ApplyDefaults.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}

	if len(c.OpenSearch.Addresses) == 0 {
		return fmt.Errorf("config: opensearch.addresses must contain at least one address")
	}
	if c.OpenSearch.ExactWindow < 1 {
		return fmt.Errorf("config: opensearch.exact_window must be >= 1, got %d", c.OpenSearch.ExactWindow)
	}

	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("config: kafka.brokers must contain at least one broker address")
		}
		switch c.Kafka.AutoOffsetReset {
		case "earliest", "latest":
		default:
			return fmt.Errorf("config: kafka.auto_offset_reset %q is invalid; expected earliest|latest", c.Kafka.AutoOffsetReset)
		}
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("config: redis.addr is required when redis is enabled")
	}
	if c.Postgres.Enabled && (c.Postgres.Host == "" || c.Postgres.DBName == "") {
		return fmt.Errorf("config: postgres.host and postgres.db_name are required when postgres is enabled")
	}
	if c.MinIO.Enabled && c.MinIO.Endpoint == "" {
		return fmt.Errorf("config: minio.endpoint is required when minio is enabled")
	}

	if c.Models.TokenizerURL == "" || c.Models.G2PURL == "" || c.Models.EmbedderURL == "" {
		return fmt.Errorf("config: models.tokenizer_url, models.g2p_url and models.embedder_url are required")
	}

	if c.Engine.CheckTimeout <= 0 {
		return fmt.Errorf("config: engine.check_timeout must be > 0")
	}
	for name, v := range map[string]float64{
		"large_entity_threshold": c.Engine.LargeEntityThreshold,
		"standard_threshold":     c.Engine.StandardThreshold,
		"negative_threshold":     c.Engine.NegativeThreshold,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("config: engine.%s %v is out of range [0, 1]", name, v)
		}
	}
	if c.Engine.Fuzziness < 0 || c.Engine.Fuzziness > 2 {
		return fmt.Errorf("config: engine.fuzziness must be within [0, 2], got %d", c.Engine.Fuzziness)
	}

	if c.Worker.HealthPort < 1 || c.Worker.HealthPort > 65535 {
		return fmt.Errorf("config: worker.health_port %d is out of range [1, 65535]", c.Worker.HealthPort)
	}

	if c.Auth.Enabled && (c.Auth.JWKSURL == "" || c.Auth.Issuer == "" || c.Auth.Audience == "") {
		return fmt.Errorf("config: auth.jwks_url, auth.issuer and auth.audience are required when auth is enabled")
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	return nil
}

// PostgresDSN renders the report-store connection string.
func (c PostgresConfig) PostgresDSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}
	return u.String()
}
