package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"tabrela/pkg/platform/strings"
)

// Config is the full process configuration, read from TABRELA_* variables.
type Config struct {
	Server   Server
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Auth     AuthConfig
	Engine   EngineConfig

	Environment  string `env:"TABRELA_ENV" envDefault:"development"`
	LogLevel     string `env:"TABRELA_LOG_LEVEL" envDefault:"info"`
	OTelEndpoint string `env:"TABRELA_OTEL_ENDPOINT"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `env:"TABRELA_ADDR" envDefault:":8080"`
	ReadTimeout     time.Duration `env:"TABRELA_READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"TABRELA_WRITE_TIMEOUT" envDefault:"15s"`
	RequestTimeout  time.Duration `env:"TABRELA_REQUEST_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"TABRELA_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// DatabaseConfig selects the relational store. An empty URL selects the
// in-memory store.
type DatabaseConfig struct {
	URL             string        `env:"TABRELA_DATABASE_URL"`
	MaxOpenConns    int           `env:"TABRELA_DB_MAX_OPEN_CONNS" envDefault:"20"`
	MaxIdleConns    int           `env:"TABRELA_DB_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"TABRELA_DB_CONN_MAX_LIFETIME" envDefault:"30m"`
	TxTimeout       time.Duration `env:"TABRELA_TX_TIMEOUT" envDefault:"5s"`
}

func (c DatabaseConfig) Enabled() bool { return c.URL != "" }

// RedisConfig points at the availability cache. An empty URL selects the
// in-memory availability provider.
type RedisConfig struct {
	URL          string        `env:"TABRELA_REDIS_URL"`
	PoolSize     int           `env:"TABRELA_REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"TABRELA_REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"TABRELA_REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"TABRELA_REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"TABRELA_REDIS_WRITE_TIMEOUT" envDefault:"3s"`
	KeyPrefix    string        `env:"TABRELA_REDIS_KEY_PREFIX" envDefault:"tabrela:availability:"`
}

// KafkaConfig drives the outbox relay. Without brokers, events are logged.
type KafkaConfig struct {
	Brokers           []string      `env:"TABRELA_KAFKA_BROKERS" envSeparator:","`
	Topic             string        `env:"TABRELA_EVENTS_TOPIC" envDefault:"tabrela.events"`
	Partitions        int32         `env:"TABRELA_EVENTS_PARTITIONS" envDefault:"3"`
	ReplicationFactor int16         `env:"TABRELA_EVENTS_REPLICATION" envDefault:"1"`
	RelayInterval     time.Duration `env:"TABRELA_RELAY_INTERVAL" envDefault:"2s"`
	RelayBatchSize    int           `env:"TABRELA_RELAY_BATCH_SIZE" envDefault:"100"`
}

func (c KafkaConfig) Enabled() bool { return len(c.Brokers) > 0 }

// AuthConfig verifies identity tokens and identity-provider webhooks.
type AuthConfig struct {
	JWTSigningKey string `env:"TABRELA_JWT_SIGNING_KEY"`
	JWTIssuer     string `env:"TABRELA_JWT_ISSUER"`
	WebhookSecret string `env:"TABRELA_WEBHOOK_SECRET"`
}

// EngineConfig selects allocation rulesets.
type EngineConfig struct {
	Ruleset      string `env:"TABRELA_RULESET" envDefault:"per_role"`
	RulesetsFile string `env:"TABRELA_RULESETS_FILE"`
}

const devSigningKey = "dev-secret-key-change-in-production"

// Load reads an optional .env file, then the environment.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) IsProduction() bool { return c.Environment == "production" }

func (c *Config) validate() error {
	if c.Auth.JWTSigningKey == "" {
		if c.IsProduction() {
			return errors.New("TABRELA_JWT_SIGNING_KEY is required in production")
		}
		c.Auth.JWTSigningKey = devSigningKey
	}
	c.Kafka.Brokers = strings.DedupeAndTrim(c.Kafka.Brokers)
	if c.Kafka.RelayBatchSize <= 0 {
		return errors.New("TABRELA_RELAY_BATCH_SIZE must be positive")
	}
	if c.Kafka.RelayInterval <= 0 {
		return errors.New("TABRELA_RELAY_INTERVAL must be positive")
	}
	if c.Database.TxTimeout <= 0 {
		return errors.New("TABRELA_TX_TIMEOUT must be positive")
	}
	return nil
}
