// Package config handles loading and validation of service configuration.
// Supports both development (env vars / .env file) and production
// (Secret Manager) modes.
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all service configuration. Non-secret settings come from the
// environment; Secrets load from env vars in development and from a Secret
// Manager JSON blob in production.
type Config struct {
	// Server settings
	Port        string `env:"PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// GCP settings (required in production)
	GCPProject string `env:"GCP_PROJECT"`
	SecretName string `env:"SECRET_NAME" envDefault:"storefront-bff"`

	// WordPress backend
	StoreURL        string `env:"WORDPRESS_URL"`
	GraphQLEndpoint string `env:"GRAPHQL_ENDPOINT"` // derived from StoreURL if unset

	// Storefront host, used for sitemap URLs and page warming
	FrontendURL string `env:"FRONTEND_URL"`

	// SiteName suffixes generated page titles
	SiteName string `env:"SITE_NAME" envDefault:"Skate Shop"`

	// Redis (idempotency records, verification sessions, script-data cache)
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Exchange rate source and base currency
	ExchangeRateURL string `env:"EXCHANGE_RATE_URL" envDefault:"https://open.er-api.com/v6/latest"`
	BaseCurrency    string `env:"BASE_CURRENCY" envDefault:"CAD"`

	// Settle delay before the PENDING -> PROCESSING order patch. The
	// immediate patch raced WooCommerce's coupon recalculation on the
	// fresh order, so the patch is deliberately delayed.
	OrderPatchDelay time.Duration `env:"ORDER_PATCH_DELAY" envDefault:"3s"`

	// Cache warmer tuning
	WarmBatchSize  int           `env:"WARM_BATCH_SIZE" envDefault:"5"`
	WarmBatchDelay time.Duration `env:"WARM_BATCH_DELAY" envDefault:"2s"`
	WarmCheckpoint string        `env:"WARM_CHECKPOINT" envDefault:".warm-checkpoint.json"`

	// Secrets (loaded from Secret Manager in production)
	Secrets Secrets
}

// Secrets contains the credentials the BFF holds on behalf of the
// storefront. In production this is a single Secret Manager JSON payload.
type Secrets struct {
	// WordPress admin application password, used for admin order
	// creation and the wc/v3 status patch.
	AdminUsername    string `json:"admin_username" env:"ADMIN_USERNAME"`
	AdminAppPassword string `json:"admin_app_password" env:"ADMIN_APP_PASSWORD"`

	// Payment providers
	HelcimAPIToken  string `json:"helcim_api_token" env:"HELCIM_API_TOKEN"`
	StripeSecretKey string `json:"stripe_secret_key" env:"STRIPE_SECRET_KEY"`

	// Cloudflare Turnstile
	TurnstileSecretKey string `json:"turnstile_secret_key" env:"TURNSTILE_SECRET_KEY"`

	// Shared secret for /api/revalidate
	RevalidateSecret string `json:"revalidate_secret" env:"REVALIDATE_SECRET"`
}

// Load reads configuration from the environment (with optional .env file)
// and, in production, fetches secrets from Secret Manager. Validates all
// required fields and returns an error if any are missing.
func Load(ctx context.Context) (*Config, error) {
	// Best effort: a missing .env file is fine outside development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	if cfg.Environment == "production" {
		if cfg.GCPProject == "" {
			return nil, fmt.Errorf("GCP_PROJECT required in production environment")
		}
		if err := cfg.loadSecretsFromSecretManager(ctx); err != nil {
			return nil, fmt.Errorf("loading secrets: %w", err)
		}
	}

	cfg.StoreURL = strings.TrimSuffix(cfg.StoreURL, "/")
	cfg.FrontendURL = strings.TrimSuffix(cfg.FrontendURL, "/")
	if cfg.GraphQLEndpoint == "" && cfg.StoreURL != "" {
		cfg.GraphQLEndpoint = cfg.StoreURL + "/graphql"
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadSecretsFromSecretManager fetches the secrets JSON blob.
// Secret name format: projects/{project}/secrets/{name}/versions/latest
func (c *Config) loadSecretsFromSecretManager(ctx context.Context) error {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("creating secret manager client: %w", err)
	}
	defer client.Close()

	secretName := fmt.Sprintf("projects/%s/secrets/%s/versions/latest",
		c.GCPProject, c.SecretName)

	result, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: secretName,
	})
	if err != nil {
		return fmt.Errorf("accessing secret %s: %w", secretName, err)
	}

	if err := json.Unmarshal(result.Payload.Data, &c.Secrets); err != nil {
		return fmt.Errorf("parsing secret JSON: %w", err)
	}

	return nil
}

// validate checks that all required configuration fields are present.
func (c *Config) validate() error {
	if c.StoreURL == "" {
		return fmt.Errorf("WORDPRESS_URL is required")
	}
	if _, err := url.Parse(c.StoreURL); err != nil {
		return fmt.Errorf("invalid WORDPRESS_URL: %w", err)
	}
	if c.FrontendURL == "" {
		return fmt.Errorf("FRONTEND_URL is required")
	}
	if c.Secrets.AdminUsername == "" || c.Secrets.AdminAppPassword == "" {
		return fmt.Errorf("admin credentials are required (ADMIN_USERNAME, ADMIN_APP_PASSWORD)")
	}
	if c.Secrets.TurnstileSecretKey == "" {
		return fmt.Errorf("TURNSTILE_SECRET_KEY is required")
	}
	return nil
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
