package config

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix used by all settings.
const envPrefix = "TMSCREEN"

// newViper builds a Viper instance with YAML file type, TMSCREEN_ env prefix
// and a "." -> "_" key replacer, so "opensearch.mark_index" resolves to
// TMSCREEN_OPENSEARCH_MARK_INDEX.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	registerKeys(v)
	return v
}

// registerKeys declares every key viper must know about for environment-only
// loading. AutomaticEnv only resolves keys that viper has seen, so the
// defaults double as the key registry.
func registerKeys(v *viper.Viper) {
	v.SetDefault("server.port", DefaultServerPort)
	v.SetDefault("server.read_timeout", DefaultServerReadTimeout)
	v.SetDefault("server.write_timeout", DefaultServerWriteTimeout)
	v.SetDefault("server.shutdown_timeout", DefaultServerShutdownTimeout)
	v.SetDefault("server.max_body_size", DefaultServerMaxBodySize)
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("server.rate_limit", DefaultServerRateLimit)
	v.SetDefault("server.rate_burst", DefaultServerRateBurst)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{DefaultKafkaBroker})
	v.SetDefault("kafka.worker_topic", DefaultKafkaWorkerTopic)
	v.SetDefault("kafka.result_topic", DefaultKafkaResultTopic)
	v.SetDefault("kafka.worker_group_id", DefaultKafkaWorkerGroupID)
	v.SetDefault("kafka.result_group_id", DefaultKafkaResultGroupID)
	v.SetDefault("kafka.auto_offset_reset", DefaultKafkaOffsetReset)
	v.SetDefault("kafka.concurrency", DefaultKafkaConcurrency)
	v.SetDefault("kafka.write_timeout", DefaultKafkaWriteTimeout)

	v.SetDefault("opensearch.addresses", []string{DefaultOpenSearchAddress})
	v.SetDefault("opensearch.username", "")
	v.SetDefault("opensearch.password", "")
	v.SetDefault("opensearch.insecure_skip_verify", false)
	v.SetDefault("opensearch.max_retries", DefaultOpenSearchMaxRetries)
	v.SetDefault("opensearch.request_timeout", DefaultOpenSearchRequestTimeout)
	v.SetDefault("opensearch.exact_index", DefaultExactIndex)
	v.SetDefault("opensearch.mark_index", DefaultMarkIndex)
	v.SetDefault("opensearch.entity_index", DefaultEntityIndex)
	v.SetDefault("opensearch.entity_field", DefaultEntityField)
	v.SetDefault("opensearch.exact_window", DefaultExactWindow)
	v.SetDefault("opensearch.sentiment_model_id", DefaultSentimentModelID)
	v.SetDefault("opensearch.sentiment_path", DefaultSentimentPath)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", DefaultRedisAddr)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", DefaultRedisPoolSize)
	v.SetDefault("redis.key_prefix", DefaultRedisPrefix)
	v.SetDefault("redis.cache_ttl", DefaultRedisCacheTTL)

	v.SetDefault("postgres.enabled", false)
	v.SetDefault("postgres.host", DefaultPostgresHost)
	v.SetDefault("postgres.port", DefaultPostgresPort)
	v.SetDefault("postgres.user", "")
	v.SetDefault("postgres.password", "")
	v.SetDefault("postgres.db_name", DefaultPostgresDBName)
	v.SetDefault("postgres.ssl_mode", DefaultPostgresSSLMode)
	v.SetDefault("postgres.auto_migrate", true)

	v.SetDefault("minio.enabled", false)
	v.SetDefault("minio.endpoint", DefaultMinIOEndpoint)
	v.SetDefault("minio.access_key_id", "")
	v.SetDefault("minio.secret_access_key", "")
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("minio.image_bucket", DefaultMinIOImageBucket)
	v.SetDefault("minio.public_base_url", "")

	v.SetDefault("models.tokenizer_url", "")
	v.SetDefault("models.transliterator_url", "")
	v.SetDefault("models.g2p_url", "")
	v.SetDefault("models.embedder_url", "")
	v.SetDefault("models.timeout", DefaultModelTimeout)

	v.SetDefault("engine.check_timeout", DefaultCheckTimeout)
	v.SetDefault("engine.fuzziness", DefaultFuzziness)
	v.SetDefault("engine.large_entity_threshold", DefaultLargeEntityThreshold)
	v.SetDefault("engine.standard_threshold", DefaultStandardThreshold)
	v.SetDefault("engine.negative_threshold", DefaultNegativeThreshold)
	v.SetDefault("engine.negative_label", DefaultNegativeLabel)
	v.SetDefault("engine.allow_list", DefaultAllowList)
	v.SetDefault("engine.lookup_concurrency", DefaultLookupConcurrency)
	v.SetDefault("engine.pin_distinctiveness", false)
	v.SetDefault("engine.distinctiveness_value", DefaultDistinctivenessValue)

	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.format", DefaultLogFormat)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.namespace", DefaultMetricsNamespace)
	v.SetDefault("metrics.path", DefaultMetricsPath)

	v.SetDefault("worker.health_port", DefaultWorkerHealthPort)

	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.jwks_url", "")
	v.SetDefault("auth.issuer", "")
	v.SetDefault("auth.audience", "")
	v.SetDefault("auth.refresh_interval", DefaultAuthRefreshInterval)
	v.SetDefault("auth.timeout", DefaultAuthTimeout)
	v.SetDefault("auth.leeway", DefaultAuthLeeway)
}

// Load reads the YAML file at configPath, merges TMSCREEN_* environment
// overrides, applies defaults and validates the result.
func Load(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}

	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config from TMSCREEN_* environment variables only.
//
//	TMSCREEN_<SECTION>_<FIELD>   e.g. TMSCREEN_MODELS_TOKENIZER_URL
func LoadFromEnv() (*Config, error) {
	return unmarshalAndFinalize(newViper())
}

func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	return cfg, nil
}

// Watch re-parses configPath on every write and passes the result to
// onChange. Invalid revisions are reported to onError and otherwise ignored,
// so a bad edit never replaces a working configuration. Only settings that
// are safe to change at runtime (log level, engine thresholds) should be
// applied by the callback.
func Watch(configPath string, onChange func(*Config), onError func(error)) error {
	v := newViper()
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := unmarshalAndFinalize(v)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
	return nil
}

// MustLoad wraps Load and panics on error. For use in main().
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("config: MustLoad failed: %v", err))
	}
	return cfg
}
