// Package kvstore is the typed JSON cache over Redis used for pre-warmed
// catalog data: product and category lists, sitemap data and per-product
// SEO meta. The warm job writes these keys; request handlers only read.
package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"storefront-bff/internal/model"
)

// Well-known cache keys.
const (
	KeyProductsList   = "products-list"
	KeyCategoriesList = "categories-list"
	KeySitemapData    = "sitemap-data"

	// productSEOPrefix keys per-product SEO meta by slug.
	productSEOPrefix = "product-seo-meta:"
)

// ErrNotFound is returned when a key has no value (never warmed, or
// expired).
var ErrNotFound = errors.New("kvstore: key not found")

// Store is the JSON cache.
type Store struct {
	rdb redis.UniversalClient
}

// New wraps a Redis client.
func New(rdb redis.UniversalClient) *Store {
	return &Store{rdb: rdb}
}

// SetJSON marshals v and stores it under key. A zero ttl means no expiry;
// warmed keys live until the next warm run overwrites them.
func (s *Store) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := s.rdb.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// GetJSON loads key into out. Returns ErrNotFound for missing keys.
func (s *Store) GetJSON(ctx context.Context, key string, out any) error {
	data, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		return fmt.Errorf("get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return nil
}

// Delete removes a key. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// ProductSEOKey returns the cache key for one product's SEO meta.
func ProductSEOKey(slug string) string {
	return productSEOPrefix + slug
}

// Products loads the warmed product list.
func (s *Store) Products(ctx context.Context) ([]model.ProductSummary, error) {
	var products []model.ProductSummary
	if err := s.GetJSON(ctx, KeyProductsList, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// Categories loads the warmed category list.
func (s *Store) Categories(ctx context.Context) ([]model.CategorySummary, error) {
	var categories []model.CategorySummary
	if err := s.GetJSON(ctx, KeyCategoriesList, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}
