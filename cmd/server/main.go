// Storefront BFF - server-side companion to the Nuxt storefront.
// Proxies cart and checkout to WooCommerce GraphQL, handles admin order
// creation for client-captured payments, and serves warmed catalog data.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"storefront-bff/internal/adminorder"
	"storefront-bff/internal/checkout"
	"storefront-bff/internal/config"
	"storefront-bff/internal/exchange"
	"storefront-bff/internal/handler"
	"storefront-bff/internal/idempotency"
	"storefront-bff/internal/kvstore"
	"storefront-bff/internal/middleware"
	"storefront-bff/internal/payment/helcim"
	"storefront-bff/internal/payment/stripe"
	"storefront-bff/internal/verification"
	"storefront-bff/internal/wpgraphql"
	"storefront-bff/internal/wprest"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Initialize structured logger
	logger := initLogger()

	// Load configuration
	ctx := context.Background()
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger.Info("configuration loaded",
		slog.String("environment", cfg.Environment),
		slog.String("store_url", cfg.StoreURL),
		slog.String("frontend_url", cfg.FrontendURL),
	)

	// Redis backs idempotency records, verification sessions and the
	// catalog cache
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer rdb.Close()

	// WooCommerce clients
	gql, err := wpgraphql.New(cfg.GraphQLEndpoint)
	if err != nil {
		return fmt.Errorf("creating graphql client: %w", err)
	}
	admin, err := wpgraphql.NewAdmin(cfg.GraphQLEndpoint, cfg.Secrets.AdminUsername, cfg.Secrets.AdminAppPassword)
	if err != nil {
		return fmt.Errorf("creating admin client: %w", err)
	}
	rest, err := wprest.New(cfg.StoreURL, cfg.Secrets.AdminUsername, cfg.Secrets.AdminAppPassword)
	if err != nil {
		return fmt.Errorf("creating rest client: %w", err)
	}

	// Services
	kv := kvstore.New(rdb)
	idem := idempotency.NewRedisStore(rdb)
	adminOrders := adminorder.New(admin, rest, idem, logger, cfg.OrderPatchDelay)
	orchestrator := checkout.New(gql, adminOrders, logger)
	verificationSvc := verification.NewService(
		verification.NewTurnstileClient(cfg.Secrets.TurnstileSecretKey),
		verification.NewRedisSessionStore(rdb),
	)
	exchangeSvc := exchange.New(kv, cfg.ExchangeRateURL, cfg.BaseCurrency, logger)

	// Payment gateways are optional; unconfigured ones stay unrouted
	var helcimClient *helcim.Client
	if cfg.Secrets.HelcimAPIToken != "" {
		helcimClient = helcim.New(cfg.Secrets.HelcimAPIToken)
	}
	var stripeSvc *stripe.Service
	if cfg.Secrets.StripeSecretKey != "" {
		stripeSvc = stripe.New(cfg.Secrets.StripeSecretKey)
	}

	h := handler.New(gql, orchestrator, adminOrders, verificationSvc, exchangeSvc, kv,
		helcimClient, stripeSvc, logger, handler.Options{
			SiteURL:          cfg.FrontendURL,
			RevalidateSecret: cfg.Secrets.RevalidateSecret,
			SecureCookies:    cfg.IsProduction(),
		})

	// Setup routes
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	// Apply middleware chain: recovery → logging → request ID → handler
	// Recovery must be outermost to catch panics from logging middleware
	httpHandler := middleware.Chain(
		middleware.Recovery(logger),
		middleware.Logging(logger),
		middleware.RequestID(),
	)(mux)

	// Create HTTP server with timeouts
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      httpHandler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Channel for shutdown signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Channel for server errors
	serverErr := make(chan error, 1)

	// Start server in goroutine
	go func() {
		logger.Info("server starting",
			slog.String("port", cfg.Port),
			slog.String("addr", server.Addr),
		)
		serverErr <- server.ListenAndServe()
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-serverErr:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-shutdown:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		// Give outstanding requests time to complete
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			// Force close if graceful shutdown fails
			server.Close()
			return fmt.Errorf("shutdown error: %w", err)
		}
	}

	logger.Info("server stopped")
	return nil
}

// initLogger creates a structured logger configured for the environment.
// Production uses JSON format for GCP Cloud Logging compatibility.
// Development uses text format for readability.
func initLogger() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
		// Add source location in debug mode
		AddSource: level == slog.LevelDebug,
	}

	// JSON for production (Cloud Logging compatible), text for development
	if os.Getenv("ENVIRONMENT") == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
