// warmcache - scheduled job that refreshes the catalog cache: product and
// category lists, sitemap data, per-product SEO meta, and the prerendered
// storefront pages.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"storefront-bff/internal/config"
	"storefront-bff/internal/kvstore"
	"storefront-bff/internal/warm"
	"storefront-bff/internal/wpgraphql"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := initLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer rdb.Close()

	gql, err := wpgraphql.New(cfg.GraphQLEndpoint)
	if err != nil {
		return fmt.Errorf("creating graphql client: %w", err)
	}

	warmer := warm.New(gql, kvstore.New(rdb), warm.Options{
		SiteURL:        cfg.FrontendURL,
		SiteName:       cfg.SiteName,
		PagesURL:       cfg.FrontendURL,
		BatchSize:      cfg.WarmBatchSize,
		BatchDelay:     cfg.WarmBatchDelay,
		CheckpointPath: cfg.WarmCheckpoint,
	}, logger)

	// An interrupted run leaves its checkpoint behind and the next run
	// picks up from there.
	return warmer.Run(ctx)
}

func initLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if os.Getenv("ENVIRONMENT") == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
