// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config is the root configuration. Every TTL, window and limit used by the
// validation core is a field here.
type Config struct {
	Server    Server
	Redis     RedisConfig
	Database  DatabaseConfig
	Upstream  UpstreamConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Bulk      BulkConfig
	Auth      AuthConfig
	Kafka     KafkaConfig
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `envconfig:"ADDR" default:":8080"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	TrustProxy      bool          `envconfig:"TRUST_PROXY" default:"false"`
	RequestTimeout  time.Duration `envconfig:"REQUEST_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// RedisConfig configures the shared store. An empty URL selects the
// in-process store.
type RedisConfig struct {
	URL          string        `envconfig:"REDIS_URL"`
	PoolSize     int           `envconfig:"REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"REDIS_WRITE_TIMEOUT" default:"3s"`
	StartupWait  time.Duration `envconfig:"REDIS_STARTUP_WAIT" default:"15s"`

	// Failover breaker tuning for the shared store.
	FailureThreshold int           `envconfig:"REDIS_FAILURE_THRESHOLD" default:"3"`
	SuccessThreshold int           `envconfig:"REDIS_SUCCESS_THRESHOLD" default:"2"`
	Cooldown         time.Duration `envconfig:"REDIS_COOLDOWN" default:"5s"`
}

// DatabaseConfig configures the relational store. An empty URL selects
// in-memory stores for the denylist, API keys and history.
type DatabaseConfig struct {
	URL             string        `envconfig:"DATABASE_URL"`
	MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"30m"`
}

// UpstreamConfig configures the registry client.
type UpstreamConfig struct {
	Mode      string        `envconfig:"UPSTREAM_MODE" default:"live"`
	URL       string        `envconfig:"UPSTREAM_URL" default:"https://agsc.siat.sat.gob.mx/PTSC/ValidaRFC/index.jsf"`
	Timeout   time.Duration `envconfig:"UPSTREAM_TIMEOUT" default:"10s"`
	RPS       float64       `envconfig:"UPSTREAM_RPS" default:"5"`
	Burst     int           `envconfig:"UPSTREAM_BURST" default:"5"`
	UserAgent string        `envconfig:"UPSTREAM_USER_AGENT" default:"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"`

	// MockNotFound lists RFCs the mock client reports as unregistered.
	MockNotFound []string `envconfig:"UPSTREAM_MOCK_NOT_FOUND"`
}

// CacheConfig configures the verdict cache.
type CacheConfig struct {
	TTL time.Duration `envconfig:"CACHE_TTL" default:"24h"`
}

// RateLimitConfig holds per-tier quotas for the validate and bulk operations.
type RateLimitConfig struct {
	Disabled  bool     `envconfig:"RATELIMIT_DISABLED" default:"false"`
	Allowlist []string `envconfig:"RATELIMIT_ALLOWLIST"`

	AnonymousValidate int           `envconfig:"RATELIMIT_ANON_VALIDATE" default:"10"`
	UserValidate      int           `envconfig:"RATELIMIT_USER_VALIDATE" default:"100"`
	APIKeyValidate    int           `envconfig:"RATELIMIT_APIKEY_VALIDATE" default:"1000"`
	ValidateWindow    time.Duration `envconfig:"RATELIMIT_VALIDATE_WINDOW" default:"1h"`

	UserBulk   int           `envconfig:"RATELIMIT_USER_BULK" default:"5"`
	APIKeyBulk int           `envconfig:"RATELIMIT_APIKEY_BULK" default:"20"`
	BulkWindow time.Duration `envconfig:"RATELIMIT_BULK_WINDOW" default:"24h"`
}

// BulkConfig configures the batch runner. A zero Timeout derives the bulk
// deadline from the batch ceiling and the upstream throttle.
type BulkConfig struct {
	MaxItems     int           `envconfig:"BULK_MAX_ITEMS" default:"5000"`
	MinLength    int           `envconfig:"BULK_MIN_LENGTH" default:"10"`
	Concurrency  int           `envconfig:"BULK_CONCURRENCY" default:"1"`
	MaxFileBytes int64         `envconfig:"BULK_MAX_FILE_BYTES" default:"10485760"`
	Timeout      time.Duration `envconfig:"BULK_TIMEOUT"`
}

// AuthConfig configures bearer token verification.
type AuthConfig struct {
	JWTSigningKey string `envconfig:"JWT_SIGNING_KEY"`
	JWTIssuer     string `envconfig:"JWT_ISSUER"`
	JWTAudience   string `envconfig:"JWT_AUDIENCE"`
}

// KafkaConfig configures audit event publishing. No brokers disables Kafka.
type KafkaConfig struct {
	Brokers    []string `envconfig:"KAFKA_BROKERS"`
	AuditTopic string   `envconfig:"KAFKA_AUDIT_TOPIC" default:"rfcheck.audit"`
	Partitions int32    `envconfig:"KAFKA_AUDIT_PARTITIONS" default:"3"`
	Replicas   int16    `envconfig:"KAFKA_AUDIT_REPLICAS" default:"1"`
}

// FromEnv loads an optional .env file and then reads the environment.
func FromEnv() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return Process()
}

// Process reads configuration from the environment only. Sections are
// processed individually so variable names stay unprefixed.
func Process() (*Config, error) {
	var cfg Config
	sections := []any{
		&cfg.Server, &cfg.Redis, &cfg.Database, &cfg.Upstream, &cfg.Cache,
		&cfg.RateLimit, &cfg.Bulk, &cfg.Auth, &cfg.Kafka,
	}
	for _, section := range sections {
		if err := envconfig.Process("", section); err != nil {
			return nil, fmt.Errorf("process env: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// BulkTimeout is the deadline for one bulk request. Unless BULK_TIMEOUT is
// set, it allows a full batch of uncached RFCs at the upstream rate plus one
// regular request timeout.
func (c *Config) BulkTimeout() time.Duration {
	if c.Bulk.Timeout > 0 {
		return c.Bulk.Timeout
	}
	if c.Upstream.RPS <= 0 {
		return c.Server.RequestTimeout
	}
	perItem := time.Duration(float64(time.Second) / c.Upstream.RPS)
	return time.Duration(c.Bulk.MaxItems)*perItem + c.Server.RequestTimeout
}

// WriteTimeout covers the slowest route.
func (c *Config) WriteTimeout() time.Duration {
	return max(c.Server.RequestTimeout, c.BulkTimeout())
}

// Validate rejects configurations the services cannot run with.
func (c *Config) Validate() error {
	switch c.Upstream.Mode {
	case "live", "mock":
	default:
		return fmt.Errorf("UPSTREAM_MODE must be live or mock, got %q", c.Upstream.Mode)
	}
	if c.Upstream.Timeout <= 0 {
		return errors.New("UPSTREAM_TIMEOUT must be positive")
	}
	if c.Cache.TTL <= 0 {
		return errors.New("CACHE_TTL must be positive")
	}
	if c.Bulk.MaxItems <= 0 || c.Bulk.Concurrency <= 0 {
		return errors.New("BULK_MAX_ITEMS and BULK_CONCURRENCY must be positive")
	}
	if c.Bulk.Timeout < 0 {
		return errors.New("BULK_TIMEOUT must not be negative")
	}
	if c.RateLimit.ValidateWindow <= 0 || c.RateLimit.BulkWindow <= 0 {
		return errors.New("rate limit windows must be positive")
	}
	return nil
}
