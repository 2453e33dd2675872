package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/paycore/processor-gateway/internal/api/router"
	"github.com/paycore/processor-gateway/internal/app/bootstrap"
	appconfig "github.com/paycore/processor-gateway/internal/config"
	httpmiddleware "github.com/paycore/processor-gateway/internal/http/middleware"
	"github.com/paycore/processor-gateway/internal/observability/metrics"
	"github.com/paycore/processor-gateway/internal/webhooks"
	"github.com/paycore/processor-gateway/pkg/logging"
)

func main() {
	// .env is optional; real deployments inject the environment directly.
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting processor-gateway API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"payment_environment", cfg.PaymentEnvironment,
	)

	ctx := context.Background()

	metricsHandler, paymentsMetrics := setupPaymentsMetrics()

	reg, err := bootstrap.BuildPaymentsRegistry(ctx, cfg, paymentsMetrics, logger)
	if err != nil {
		logger.Error("failed to initialize payment processors", "error", err)
		os.Exit(1)
	}
	for t, ferr := range reg.Failures() {
		logger.Warn("payment processor unavailable", "processor", string(t), "error", ferr)
	}

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer redisClient.Close()
	}
	pool := bootstrap.BuildPostgresPool(ctx, cfg, logger)
	if pool != nil {
		defer pool.Close()
	}
	store := bootstrap.BuildProcessedStore(cfg, redisClient, pool, logger)

	r := router.New(&router.Config{
		Logger:         logger,
		Processors:     reg,
		Webhooks:       webhooks.NewHandler(reg, store, paymentsMetrics, logger),
		WebhookLimiter: httpmiddleware.NewRateLimiter(cfg.WebhookRateLimit, cfg.WebhookRateBurst),
		MetricsHandler: metricsHandler,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

func setupPaymentsMetrics() (http.Handler, *metrics.PaymentsMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), metrics.NewPaymentsMetrics(reg)
}
