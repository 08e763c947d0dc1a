package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// applyEnvOverrides applies environment variable overrides to the config.
// Environment variables take precedence over YAML configuration.
// All env vars use PAYWITH_ prefix for namespace isolation.
func (c *Config) applyEnvOverrides() {
	// Server config
	setIfEnv(&c.Server.Address, "PAYWITH_SERVER_ADDRESS")
	setIfEnv(&c.Server.RoutePrefix, "PAYWITH_ROUTE_PREFIX")
	setIfEnv(&c.Server.MetricsAPIKey, "PAYWITH_METRICS_API_KEY")

	// Normalize route prefix: ensure it starts with / and doesn't end with /
	if c.Server.RoutePrefix != "" {
		c.Server.RoutePrefix = normalizeRoutePrefix(c.Server.RoutePrefix)
	}

	// Logging config
	setIfEnv(&c.Logging.Level, "PAYWITH_LOG_LEVEL")
	setIfEnv(&c.Logging.Format, "PAYWITH_LOG_FORMAT")
	setIfEnv(&c.Logging.Environment, "PAYWITH_ENVIRONMENT")

	// Gateway credentials. Secret keys normally arrive through the
	// environment rather than the config file.
	setIfEnv(&c.Gateways.Default, "PAYWITH_GATEWAY")
	setIfEnv(&c.Gateways.Paystack.SecretKey, "PAYWITH_PAYSTACK_SECRET_KEY")
	setIfEnv(&c.Gateways.Flutterwave.SecretKey, "PAYWITH_FLUTTERWAVE_SECRET_KEY")
	setIfEnv(&c.Gateways.Flutterwave.WebhookHash, "PAYWITH_FLUTTERWAVE_WEBHOOK_HASH")
	setIfEnv(&c.Gateways.Stripe.SecretKey, "PAYWITH_STRIPE_SECRET_KEY")
	setIfEnv(&c.Gateways.Stripe.WebhookSecret, "PAYWITH_STRIPE_WEBHOOK_SECRET")

	// Storage config
	setIfEnv(&c.Storage.Driver, "PAYWITH_STORAGE_DRIVER")
	setIfEnv(&c.Storage.FilePath, "PAYWITH_STORAGE_FILE_PATH")
	setIfEnv(&c.Storage.PostgresURL, "PAYWITH_POSTGRES_URL")
	setIfEnv(&c.Storage.MongoDBURL, "PAYWITH_MONGODB_URL")
	setIfEnv(&c.Storage.MongoDBDatabase, "PAYWITH_MONGODB_DATABASE")
	setIfEnv(&c.Storage.MongoDBCollection, "PAYWITH_MONGODB_COLLECTION")

	// Rate limit config
	setBoolIfEnv(&c.RateLimit.Enabled, "PAYWITH_RATE_LIMIT_ENABLED")
	setIntIfEnv(&c.RateLimit.Limit, "PAYWITH_RATE_LIMIT_LIMIT")
	setDurationIfEnv(&c.RateLimit.Window, "PAYWITH_RATE_LIMIT_WINDOW")
}

// setIfEnv sets a string pointer to the environment variable value if it exists.
func setIfEnv(target *string, key string) {
	if val := os.Getenv(key); val != "" {
		*target = val
	}
}

// setBoolIfEnv sets a boolean pointer from an environment variable.
// Accepts "1", "true", "TRUE", "True" as true values.
func setBoolIfEnv(target *bool, key string) {
	if v := os.Getenv(key); v != "" {
		*target = v == "1" || strings.EqualFold(v, "true")
	}
}

// setIntIfEnv sets an int pointer from an environment variable. Values that
// do not parse as integers are ignored.
func setIntIfEnv(target *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*target = n
		}
	}
}

// setDurationIfEnv sets a Duration pointer from an environment variable.
// Uses time.ParseDuration to parse values like "5m", "120s", "1h30m".
func setDurationIfEnv(target *Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if dur, err := time.ParseDuration(v); err == nil {
			*target = Duration{Duration: dur}
		}
	}
}

// normalizeRoutePrefix ensures the prefix starts with / and doesn't end with /.
// Examples: "api" -> "/api", "/api/" -> "/api"
func normalizeRoutePrefix(prefix string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return ""
	}
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	prefix = strings.TrimSuffix(prefix, "/")
	return prefix
}
