package config

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// finalize applies defaults and validates the configuration.
func (c *Config) finalize() error {
	// Apply defaults
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Logging.Environment == "" {
		c.Logging.Environment = "production"
	}
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
	if c.Gateways.Default == "" {
		c.Gateways.Default = "paystack"
	}
	c.Gateways.Default = strings.ToLower(c.Gateways.Default)
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Storage.Driver == "file" && c.Storage.FilePath == "" {
		c.Storage.FilePath = "./data/payments.json"
	}
	if c.Storage.PostgresTableName == "" {
		c.Storage.PostgresTableName = "payments"
	}
	if c.Storage.MongoDBDatabase == "" {
		c.Storage.MongoDBDatabase = "paywith"
	}
	if c.Storage.MongoDBCollection == "" {
		c.Storage.MongoDBCollection = "payments"
	}
	if c.RateLimit.Limit <= 0 {
		c.RateLimit.Limit = 120
	}
	if c.RateLimit.Window.Duration <= 0 {
		c.RateLimit.Window = Duration{Duration: 1 * time.Minute}
	}

	return c.validate()
}

// validate checks that required configuration fields are set correctly.
func (c *Config) validate() error {
	var errs []string

	switch c.Gateways.Default {
	case "paystack", "flutterwave", "stripe", "monnify", "paylink":
	default:
		errs = append(errs, fmt.Sprintf("gateways.default %q is not a supported gateway", c.Gateways.Default))
	}

	// The default gateway must be usable at startup. Other gateways may be
	// left unconfigured; their webhook routes reject until keys are set.
	switch c.Gateways.Default {
	case "paystack":
		if c.Gateways.Paystack.SecretKey == "" {
			errs = append(errs, "gateways.paystack.secret_key (PAYWITH_PAYSTACK_SECRET_KEY) is required")
		}
	case "flutterwave":
		if c.Gateways.Flutterwave.SecretKey == "" {
			errs = append(errs, "gateways.flutterwave.secret_key (PAYWITH_FLUTTERWAVE_SECRET_KEY) is required")
		}
	case "stripe":
		if c.Gateways.Stripe.SecretKey == "" {
			errs = append(errs, "gateways.stripe.secret_key (PAYWITH_STRIPE_SECRET_KEY) is required")
		}
	}

	switch c.Storage.Driver {
	case "memory", "file":
	case "postgres":
		if c.Storage.PostgresURL == "" {
			errs = append(errs, "storage.postgres_url is required when storage.driver is 'postgres'")
		}
	case "mongodb":
		if c.Storage.MongoDBURL == "" {
			errs = append(errs, "storage.mongodb_url is required when storage.driver is 'mongodb'")
		}
	default:
		errs = append(errs, fmt.Sprintf("storage.driver %q is not supported (memory, file, postgres, mongodb)", c.Storage.Driver))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// GatewaySecretKey returns the configured secret key for a gateway name.
func (c *Config) GatewaySecretKey(gateway string) string {
	switch strings.ToLower(gateway) {
	case "paystack":
		return c.Gateways.Paystack.SecretKey
	case "flutterwave":
		return c.Gateways.Flutterwave.SecretKey
	case "stripe":
		return c.Gateways.Stripe.SecretKey
	default:
		return ""
	}
}

// ApplyPostgresPoolSettings applies connection pool settings to a database connection.
// If pool config is not specified, applies sensible defaults.
func ApplyPostgresPoolSettings(db *sql.DB, pool PostgresPoolConfig) {
	maxOpen := pool.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 25 // default
	}

	maxIdle := pool.MaxIdleConns
	if maxIdle <= 0 {
		maxIdle = 5 // default
	}

	// Validate: maxIdle cannot exceed maxOpen
	if maxIdle > maxOpen {
		maxIdle = maxOpen
	}

	maxLifetime := pool.ConnMaxLifetime.Duration
	if maxLifetime <= 0 {
		maxLifetime = 5 * time.Minute // default
	}

	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(maxLifetime)
}
