// Package config loads the vault server configuration from the environment.
package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/BeyzaNurKeskinn/Trinity-Password-Manager/pkg/config"
	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/pkg/database"
)

const (
	defaultJWTSecret = "change-this-to-a-secure-secret"
	defaultCipherKey = "change-this-vault-key"
)

// Config holds all configuration for the vault server.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"LOG_FORMAT" envDefault:"json"`

	// HTTP server
	HTTPPort        int           `env:"HTTP_PORT" envDefault:"8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	PublicURL       string        `env:"PUBLIC_URL" envDefault:"http://localhost:8080"`
	PprofCIDRs      []string      `env:"PPROF_ALLOWED_CIDRS" envSeparator:","`

	// PostgreSQL
	PostgresHost     string        `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort     int           `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser     string        `env:"POSTGRES_USER" envDefault:"trinity"`
	PostgresPass     string        `env:"POSTGRES_PASSWORD" envDefault:"trinity_secret"`
	PostgresDB       string        `env:"POSTGRES_DB" envDefault:"trinity"`
	PostgresSSL      string        `env:"POSTGRES_SSL_MODE" envDefault:"disable"`
	PostgresMaxConns int32         `env:"POSTGRES_MAX_CONNS" envDefault:"10"`
	PostgresMinConns int32         `env:"POSTGRES_MIN_CONNS" envDefault:"1"`
	PostgresConnLife time.Duration `env:"POSTGRES_MAX_CONN_LIFETIME" envDefault:"1h"`
	PostgresConnIdle time.Duration `env:"POSTGRES_MAX_CONN_IDLE_TIME" envDefault:"15m"`
	SlowQuery        time.Duration `env:"SLOW_QUERY_THRESHOLD" envDefault:"200ms"`

	// Redis
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Kafka. No brokers disables event publishing.
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`

	// Tokens
	JWTSecret       string        `env:"JWT_SECRET" envDefault:"change-this-to-a-secure-secret"`
	JWTAccessExpiry time.Duration `env:"JWT_ACCESS_TOKEN_EXPIRY" envDefault:"15m"`
	RefreshExpiry   time.Duration `env:"REFRESH_TOKEN_EXPIRY" envDefault:"168h"`

	// Secret encryption. A base64 key of 16, 24 or 32 bytes is used as is;
	// anything else is stretched with CipherSalt.
	CipherKey  string `env:"CIPHER_KEY" envDefault:"change-this-vault-key"`
	CipherSalt string `env:"CIPHER_SALT" envDefault:"trinity-dev-salt"`

	// Phone numbers without a country code are parsed in this region.
	PhoneRegion string `env:"PHONE_DEFAULT_REGION" envDefault:"TR"`

	// Email
	EmailProvider string `env:"EMAIL_PROVIDER" envDefault:"log"`
	EmailEndpoint string `env:"EMAIL_ENDPOINT"`
	EmailAPIKey   string `env:"EMAIL_API_KEY"`
	EmailFrom     string `env:"EMAIL_FROM" envDefault:"no-reply@trinity.local"`
	EmailSupport  string `env:"EMAIL_SUPPORT" envDefault:"support@trinity.local"`

	// Profile picture storage
	StorageProvider string        `env:"STORAGE_PROVIDER" envDefault:"memory"`
	S3Endpoint      string        `env:"S3_ENDPOINT"`
	S3Region        string        `env:"S3_REGION" envDefault:"us-east-1"`
	S3Bucket        string        `env:"S3_BUCKET" envDefault:"trinity-profile-pictures"`
	S3AccessKey     string        `env:"S3_ACCESS_KEY"`
	S3SecretKey     string        `env:"S3_SECRET_KEY"`
	S3URLExpiry     time.Duration `env:"S3_URL_EXPIRY" envDefault:"15m"`

	// Tracing
	OTELEnabled     bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint    string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELInsecure    bool    `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"true"`
	OTELSampleRatio float64 `env:"OTEL_SAMPLE_RATIO" envDefault:"1"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:3000" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load vault config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.JWTAccessExpiry <= 0 || c.RefreshExpiry <= 0 {
		return fmt.Errorf("token expiries must be positive")
	}

	switch c.EmailProvider {
	case "log":
	case "http":
		if c.EmailEndpoint == "" {
			return fmt.Errorf("EMAIL_ENDPOINT is required when EMAIL_PROVIDER=http")
		}
	default:
		return fmt.Errorf("unknown EMAIL_PROVIDER %q", c.EmailProvider)
	}

	switch c.StorageProvider {
	case "memory":
	case "s3":
		if c.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required when STORAGE_PROVIDER=s3")
		}
	default:
		return fmt.Errorf("unknown STORAGE_PROVIDER %q", c.StorageProvider)
	}

	// Outside development, require explicitly set strong secrets.
	if c.Environment != "development" {
		if c.JWTSecret == defaultJWTSecret {
			return fmt.Errorf("JWT_SECRET must be explicitly set via environment variable in %q mode", c.Environment)
		}
		if len(c.JWTSecret) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 characters long, got %d", len(c.JWTSecret))
		}
		if c.CipherKey == defaultCipherKey {
			return fmt.Errorf("CIPHER_KEY must be explicitly set via environment variable in %q mode", c.Environment)
		}
	}
	return nil
}

// Postgres returns the connection settings for database.NewPostgresPool.
func (c *Config) Postgres() *database.PostgresConfig {
	return &database.PostgresConfig{
		Host:            c.PostgresHost,
		Port:            c.PostgresPort,
		User:            c.PostgresUser,
		Password:        c.PostgresPass,
		DBName:          c.PostgresDB,
		SSLMode:         c.PostgresSSL,
		MaxConns:        c.PostgresMaxConns,
		MinConns:        c.PostgresMinConns,
		MaxConnLifetime: c.PostgresConnLife,
		MaxConnIdleTime: c.PostgresConnIdle,
	}
}

// Redis returns the connection settings for database.NewRedisClient.
func (c *Config) Redis() database.RedisConfig {
	return database.RedisConfig{
		Addr:         c.RedisAddr,
		Password:     c.RedisPassword,
		DB:           c.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}
