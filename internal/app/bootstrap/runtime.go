// Package bootstrap wires the runtime dependencies shared by the entry points.
package bootstrap

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/paycore/processor-gateway/internal/config"
	"github.com/paycore/processor-gateway/internal/payments/processor"
	"github.com/paycore/processor-gateway/internal/payments/registry"
	"github.com/paycore/processor-gateway/internal/webhooks"
	"github.com/paycore/processor-gateway/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildPostgresPool connects to DATABASE_URL, or returns nil when it is unset
// or unreachable.
func BuildPostgresPool(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) *pgxpool.Pool {
	if cfg == nil || strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Warn("postgres config invalid", "error", err)
		return nil
	}
	if err := pool.Ping(ctx); err != nil {
		logger.Warn("postgres not available", "error", err)
		pool.Close()
		return nil
	}
	return pool
}

// BuildProcessedStore picks the webhook dedupe backend: redis, then postgres,
// then an in-memory map.
func BuildProcessedStore(cfg *appconfig.Config, redisClient *redis.Client, pool *pgxpool.Pool, logger *logging.Logger) webhooks.ProcessedStore {
	if logger == nil {
		logger = logging.Default()
	}
	switch {
	case redisClient != nil:
		logger.Info("webhook dedupe using redis")
		return webhooks.NewRedisStore(redisClient, cfg.WebhookDedupeTTL)
	case pool != nil:
		logger.Info("webhook dedupe using postgres")
		return webhooks.NewPostgresStore(pool)
	default:
		logger.Warn("webhook dedupe using in-memory store; duplicates are only caught per process")
		return webhooks.NewMemoryStore(cfg.WebhookDedupeTTL)
	}
}

// BuildPaymentsRegistry creates and initializes the processor registry from config.
func BuildPaymentsRegistry(ctx context.Context, cfg *appconfig.Config, observer processor.Observer, logger *logging.Logger) (*registry.Registry, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	reg := registry.New(processor.Deps{
		Logger:     logger,
		Observer:   observer,
		HTTPClient: &http.Client{Timeout: cfg.PaymentHTTPTimeout},
	})
	if err := reg.Initialize(ctx, cfg.ProcessorSettings()); err != nil {
		return nil, fmt.Errorf("bootstrap: initialize payments: %w", err)
	}
	return reg, nil
}
