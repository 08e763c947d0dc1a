package config

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration to support string based YAML decoding.
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses duration values expressed as Go-style strings or numbers interpreted as seconds.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		raw := strings.TrimSpace(value.Value)
		if raw == "" {
			d.Duration = 0
			return nil
		}
		parsed, err := time.ParseDuration(raw)
		if err == nil {
			d.Duration = parsed
			return nil
		}
		secs, convErr := time.ParseDuration(fmt.Sprintf("%ss", raw))
		if convErr == nil {
			d.Duration = secs
			return nil
		}
		return fmt.Errorf("invalid duration value %q: %w", raw, err)
	default:
		return fmt.Errorf("unsupported duration node kind: %v", value.Kind)
	}
}

// MarshalYAML renders the duration as a string to keep config edits human-friendly.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// Config holds application level configuration aggregated from file and environment variables.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	Gateways  GatewaysConfig  `yaml:"gateways"`
	Storage   StorageConfig   `yaml:"storage"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Address            string   `yaml:"address"`
	ReadTimeout        Duration `yaml:"read_timeout"`
	WriteTimeout       Duration `yaml:"write_timeout"`
	IdleTimeout        Duration `yaml:"idle_timeout"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	RoutePrefix        string   `yaml:"route_prefix"`    // Optional prefix for all routes (e.g., "/api")
	MetricsAPIKey      string   `yaml:"metrics_api_key"` // Optional bearer token protecting /metrics
}

// LoggingConfig holds structured logging configuration.
type LoggingConfig struct {
	Level       string `yaml:"level"`       // debug, info, warn, error (default: info)
	Format      string `yaml:"format"`      // json, console (default: json)
	Environment string `yaml:"environment"` // production, staging, development
}

// GatewaysConfig selects the default gateway and carries per-gateway credentials.
type GatewaysConfig struct {
	Default     string            `yaml:"default"` // paystack, flutterwave, stripe
	Paystack    PaystackConfig    `yaml:"paystack"`
	Flutterwave FlutterwaveConfig `yaml:"flutterwave"`
	Stripe      StripeConfig      `yaml:"stripe"`
}

// PaystackConfig holds Paystack credentials. The secret key doubles as the
// webhook signing key.
type PaystackConfig struct {
	SecretKey string `yaml:"secret_key"`
}

// FlutterwaveConfig holds Flutterwave credentials.
type FlutterwaveConfig struct {
	SecretKey   string `yaml:"secret_key"`
	WebhookHash string `yaml:"webhook_hash"` // verif-hash shared secret
}

// StripeConfig holds Stripe credentials.
type StripeConfig struct {
	SecretKey     string `yaml:"secret_key"`
	WebhookSecret string `yaml:"webhook_secret"` // whsec_... endpoint signing secret
}

// StorageConfig holds payment record storage configuration.
type StorageConfig struct {
	Driver            string             `yaml:"driver"`             // "memory", "file", "postgres", or "mongodb"
	FilePath          string             `yaml:"file_path"`          // Path to JSON file for file driver
	PostgresURL       string             `yaml:"postgres_url"`       // PostgreSQL connection string
	PostgresTableName string             `yaml:"postgres_table_name"`
	MongoDBURL        string             `yaml:"mongodb_url"`
	MongoDBDatabase   string             `yaml:"mongodb_database"`
	MongoDBCollection string             `yaml:"mongodb_collection"`
	PostgresPool      PostgresPoolConfig `yaml:"postgres_pool"`
}

// PostgresPoolConfig holds PostgreSQL connection pool settings.
type PostgresPoolConfig struct {
	MaxOpenConns    int      `yaml:"max_open_conns"`    // Maximum number of open connections (default: 25)
	MaxIdleConns    int      `yaml:"max_idle_conns"`    // Maximum number of idle connections (default: 5)
	ConnMaxLifetime Duration `yaml:"conn_max_lifetime"` // Maximum lifetime of connections (default: 5m)
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	Enabled bool     `yaml:"enabled"` // Enable per-IP rate limiting
	Limit   int      `yaml:"limit"`   // Requests allowed per window
	Window  Duration `yaml:"window"`  // Time window for the limit
}
