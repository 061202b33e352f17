package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/boddenberg/shop-billing-bfa-go/internal/config"
	"github.com/boddenberg/shop-billing-bfa-go/internal/handler"
	"github.com/boddenberg/shop-billing-bfa-go/internal/infra/cache"
	"github.com/boddenberg/shop-billing-bfa-go/internal/infra/observability"
	"github.com/boddenberg/shop-billing-bfa-go/internal/infra/resilience"
	"github.com/boddenberg/shop-billing-bfa-go/internal/infra/supabase"
	"github.com/boddenberg/shop-billing-bfa-go/internal/money"
	"github.com/boddenberg/shop-billing-bfa-go/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("op_timeout", cfg.OpTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
	)

	if cfg.SupabaseURL == "" {
		logger.Fatal("SUPABASE_URL is required: the billing backend has no other store")
	}

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "billd")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Cache ---
	balanceCache := cache.New[money.Cents](cfg.CacheTTL)

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("supabase")

	// --- Store ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	store := supabase.NewClient(
		httpClient,
		cfg.SupabaseURL,
		cfg.SupabaseAnonKey,
		cfg.SupabaseServiceKey,
		cb,
		resilienceCfg,
		logger,
	)
	logger.Info("using Supabase as data backend",
		zap.String("supabase_url", cfg.SupabaseURL),
	)

	// --- Services ---
	billingSvc := service.NewBillingService(store, store, store, balanceCache, cfg.OpTimeout, metrics, logger)
	customerSvc := service.NewCustomerService(store, balanceCache, cfg.OpTimeout, metrics, logger)
	catalogSvc := service.NewCatalogService(store, store, cfg.OpTimeout, logger)
	purchaseSvc := service.NewPurchaseService(store, cfg.OpTimeout, logger)
	loadSvc := service.NewLoadService(store, cfg.OpTimeout, logger)
	payrollSvc := service.NewPayrollService(store, cfg.OpTimeout, logger)

	// --- Router ---
	router := handler.NewRouter(handler.Services{
		Billing:   billingSvc,
		Customers: customerSvc,
		Catalog:   catalogSvc,
		Purchases: purchaseSvc,
		Loads:     loadSvc,
		Payroll:   payrollSvc,
	}, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
