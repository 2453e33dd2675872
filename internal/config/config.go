package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/paycore/processor-gateway/internal/payments/processor"
	"github.com/paycore/processor-gateway/internal/payments/registry"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	PaymentDefaultProcessor string
	PaymentEnvironment      string
	PaymentHTTPTimeout      time.Duration

	StripeSecretKey        string
	StripeWebhookSecret    string
	StripeWebhookTolerance string

	MembershipAPIKey        string
	MembershipWebhookSecret string
	MembershipBaseURL       string

	SquareAccessToken     string
	SquareWebhookKey      string
	SquareLocationID      string
	SquareNotificationURL string
	SquareBaseURL         string

	PayPalClientID     string
	PayPalClientSecret string
	PayPalWebhookID    string
	PayPalBaseURL      string

	RedisAddr        string
	RedisPassword    string
	RedisTLS         bool
	DatabaseURL      string
	WebhookDedupeTTL time.Duration
	WebhookRateLimit float64
	WebhookRateBurst int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		PaymentDefaultProcessor: strings.ToLower(strings.TrimSpace(getEnv("PAYMENT_DEFAULT_PROCESSOR", ""))),
		PaymentEnvironment:      getEnv("PAYMENT_ENVIRONMENT", "test"),
		PaymentHTTPTimeout:      getEnvAsDuration("PAYMENT_HTTP_TIMEOUT", 15*time.Second),

		StripeSecretKey:        getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret:    getEnv("STRIPE_WEBHOOK_SECRET", ""),
		StripeWebhookTolerance: getEnv("STRIPE_WEBHOOK_TOLERANCE", ""),

		MembershipAPIKey:        getEnv("MEMBERSHIP_API_KEY", ""),
		MembershipWebhookSecret: getEnv("MEMBERSHIP_WEBHOOK_SECRET", ""),
		MembershipBaseURL:       getEnv("MEMBERSHIP_BASE_URL", ""),

		SquareAccessToken:     getEnv("SQUARE_ACCESS_TOKEN", ""),
		SquareWebhookKey:      getEnv("SQUARE_WEBHOOK_SIGNATURE_KEY", ""),
		SquareLocationID:      getEnv("SQUARE_LOCATION_ID", ""),
		SquareNotificationURL: getEnv("SQUARE_NOTIFICATION_URL", ""),
		SquareBaseURL:         getEnv("SQUARE_BASE_URL", ""),

		PayPalClientID:     getEnv("PAYPAL_CLIENT_ID", ""),
		PayPalClientSecret: getEnv("PAYPAL_CLIENT_SECRET", ""),
		PayPalWebhookID:    getEnv("PAYPAL_WEBHOOK_ID", ""),
		PayPalBaseURL:      getEnv("PAYPAL_BASE_URL", ""),

		RedisAddr:        getEnv("REDIS_ADDR", ""),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisTLS:         getEnvAsBool("REDIS_TLS", false),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		WebhookDedupeTTL: getEnvAsDuration("WEBHOOK_DEDUPE_TTL", 72*time.Hour),
		WebhookRateLimit: getEnvAsFloat("WEBHOOK_RATE_LIMIT", 20),
		WebhookRateBurst: getEnvAsInt("WEBHOOK_RATE_BURST", 40),
	}
}

// ProcessorSettings builds the registry settings. A provider is included only
// when its primary credential is present; manual is always added by the registry.
func (c *Config) ProcessorSettings() registry.Settings {
	env := processor.ParseEnvironment(c.PaymentEnvironment)
	procs := make(map[processor.Type]processor.Config)

	if c.StripeSecretKey != "" {
		procs[processor.TypeStripe] = processor.Config{
			APIKey:        c.StripeSecretKey,
			WebhookSecret: c.StripeWebhookSecret,
			Environment:   env,
			Metadata:      metadata("webhook_tolerance", c.StripeWebhookTolerance),
		}
	}
	if c.MembershipAPIKey != "" {
		procs[processor.TypeMembership] = processor.Config{
			APIKey:        c.MembershipAPIKey,
			WebhookSecret: c.MembershipWebhookSecret,
			Environment:   env,
			Metadata:      metadata("base_url", c.MembershipBaseURL),
		}
	}
	if c.SquareAccessToken != "" {
		procs[processor.TypeSquare] = processor.Config{
			APIKey:        c.SquareAccessToken,
			WebhookSecret: c.SquareWebhookKey,
			Environment:   env,
			Metadata: metadata(
				"location_id", c.SquareLocationID,
				"notification_url", c.SquareNotificationURL,
				"base_url", c.SquareBaseURL,
			),
		}
	}
	if c.PayPalClientID != "" {
		procs[processor.TypePayPal] = processor.Config{
			APIKey:        c.PayPalClientID,
			WebhookSecret: c.PayPalWebhookID,
			Environment:   env,
			Metadata: metadata(
				"client_secret", c.PayPalClientSecret,
				"base_url", c.PayPalBaseURL,
			),
		}
	}

	return registry.Settings{
		Default:    processor.ParseType(c.PaymentDefaultProcessor),
		Processors: procs,
	}
}

// metadata builds a map from key/value pairs, skipping empty values.
func metadata(kv ...string) map[string]string {
	out := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		if kv[i+1] != "" {
			out[kv[i]] = kv[i+1]
		}
	}
	return out
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
