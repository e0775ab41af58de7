// Package warm populates the catalog cache: product and category lists,
// sitemap data, per-product SEO meta, and the prerendered storefront
// pages themselves. It runs as a scheduled job, not in the request path.
//
// The per-product phase works in fixed-size batches with a delay between
// them so the WordPress host never sees a burst it would rate-limit, and
// records a checkpoint after every batch so an interrupted run resumes
// where it stopped instead of starting over.
package warm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"storefront-bff/internal/kvstore"
	"storefront-bff/internal/model"
	"storefront-bff/internal/seo"
	"storefront-bff/internal/sitemap"
)

// CatalogSource provides the full catalog in one call. Satisfied by
// *wpgraphql.Client.
type CatalogSource interface {
	ScriptData(ctx context.Context) ([]model.ProductSummary, []model.CategorySummary, error)
}

// Options configure a warm run.
type Options struct {
	SiteURL  string
	SiteName string

	// PagesURL is the deployed storefront to warm with GET requests.
	// Empty skips the page-fetch phase.
	PagesURL string

	// BatchSize products are warmed concurrently per batch.
	BatchSize int

	// BatchDelay is the pause between batches.
	BatchDelay time.Duration

	// CheckpointPath is the resume file. Empty disables checkpointing.
	CheckpointPath string
}

// Warmer runs the cache warm job.
type Warmer struct {
	source CatalogSource
	kv     *kvstore.Store
	client *http.Client
	opts   Options
	logger *slog.Logger
}

// New creates a warmer. Zero or negative batch settings fall back to a
// batch size of 5 with a 2 second delay.
func New(source CatalogSource, kv *kvstore.Store, opts Options, logger *slog.Logger) *Warmer {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 5
	}
	if opts.BatchDelay <= 0 {
		opts.BatchDelay = 2 * time.Second
	}
	return &Warmer{
		source: source,
		kv:     kv,
		client: &http.Client{Timeout: 15 * time.Second},
		opts:   opts,
		logger: logger,
	}
}

// checkpoint records progress through the per-product phase. Total guards
// against resuming into a catalog that changed size between runs.
type checkpoint struct {
	Total     int       `json:"total"`
	NextIndex int       `json:"nextIndex"`
	StartedAt time.Time `json:"startedAt"`
}

// Run executes one full warm pass.
func (w *Warmer) Run(ctx context.Context) error {
	start := time.Now()

	products, categories, err := w.source.ScriptData(ctx)
	if err != nil {
		return fmt.Errorf("fetch catalog: %w", err)
	}
	w.logger.Info("catalog fetched",
		slog.Int("products", len(products)),
		slog.Int("categories", len(categories)),
	)

	if err := w.kv.SetJSON(ctx, kvstore.KeyProductsList, products, 0); err != nil {
		return err
	}
	if err := w.kv.SetJSON(ctx, kvstore.KeyCategoriesList, categories, 0); err != nil {
		return err
	}

	entries := sitemap.Build(w.opts.SiteURL, products, categories)
	if err := w.kv.SetJSON(ctx, kvstore.KeySitemapData, entries, 0); err != nil {
		return err
	}
	w.logger.Info("sitemap data cached", slog.Int("entries", len(entries)))

	if err := w.warmCategoryPages(ctx, categories); err != nil {
		return err
	}

	if err := w.warmProductMeta(ctx, products); err != nil {
		return err
	}

	w.logger.Info("warm run complete", slog.Duration("elapsed", time.Since(start)))
	return nil
}

// warmCategoryPages fetches every category page once. Categories are few
// enough for a single bounded batch.
func (w *Warmer) warmCategoryPages(ctx context.Context, categories []model.CategorySummary) error {
	if w.opts.PagesURL == "" {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.opts.BatchSize)
	for _, c := range categories {
		c := c
		g.Go(func() error {
			w.fetchPage(gctx, "/product-category/"+c.Slug)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	w.logger.Info("category pages warmed", slog.Int("count", len(categories)))
	return ctx.Err()
}

// fetchPage requests a storefront page so the prerender cache is hot
// before a shopper hits it. Failures only log: a cold page still renders
// on demand.
func (w *Warmer) fetchPage(ctx context.Context, path string) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.opts.PagesURL+path, nil)
	if err != nil {
		w.logger.Warn("building page warm request failed",
			slog.String("path", path), slog.String("error", err.Error()))
		return
	}
	resp, err := w.client.Do(req)
	if err != nil {
		w.logger.Warn("page warm failed",
			slog.String("path", path), slog.String("error", err.Error()))
		return
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		w.logger.Warn("page warm returned error status",
			slog.String("path", path), slog.Int("status", resp.StatusCode))
	}
}

// warmProductMeta writes per-product SEO meta and fetches the product
// page in batches, checkpointing between them.
func (w *Warmer) warmProductMeta(ctx context.Context, products []model.ProductSummary) error {
	startIdx := w.loadCheckpoint(len(products))
	if startIdx > 0 {
		w.logger.Info("resuming from checkpoint", slog.Int("next_index", startIdx))
	}

	for i := startIdx; i < len(products); i += w.opts.BatchSize {
		end := i + w.opts.BatchSize
		if end > len(products) {
			end = len(products)
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(w.opts.BatchSize)
		for _, p := range products[i:end] {
			p := p
			g.Go(func() error {
				meta := seo.BuildProductMeta(p, w.opts.SiteURL, w.opts.SiteName)
				if err := w.kv.SetJSON(gctx, kvstore.ProductSEOKey(p.Slug), meta, 0); err != nil {
					return err
				}
				if w.opts.PagesURL != "" {
					w.fetchPage(gctx, "/product/"+p.Slug)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return fmt.Errorf("warm product meta batch at %d: %w", i, err)
		}

		w.saveCheckpoint(checkpoint{
			Total:     len(products),
			NextIndex: end,
			StartedAt: time.Now(),
		})
		w.logger.Info("product meta batch written",
			slog.Int("done", end),
			slog.Int("total", len(products)),
		)

		if end < len(products) {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(w.opts.BatchDelay):
			}
		}
	}

	w.clearCheckpoint()
	return nil
}

// loadCheckpoint returns the resume index, or 0 when there is no usable
// checkpoint.
func (w *Warmer) loadCheckpoint(total int) int {
	if w.opts.CheckpointPath == "" {
		return 0
	}
	data, err := os.ReadFile(w.opts.CheckpointPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			w.logger.Warn("reading checkpoint failed", slog.String("error", err.Error()))
		}
		return 0
	}
	var cp checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		w.logger.Warn("corrupt checkpoint, starting over", slog.String("error", err.Error()))
		return 0
	}
	if cp.Total != total || cp.NextIndex < 0 || cp.NextIndex > total {
		// Catalog changed since the interrupted run; the indexes no
		// longer line up.
		return 0
	}
	return cp.NextIndex
}

func (w *Warmer) saveCheckpoint(cp checkpoint) {
	if w.opts.CheckpointPath == "" {
		return
	}
	data, err := json.Marshal(cp)
	if err != nil {
		return
	}
	if err := os.WriteFile(w.opts.CheckpointPath, data, 0o644); err != nil {
		w.logger.Warn("writing checkpoint failed", slog.String("error", err.Error()))
	}
}

func (w *Warmer) clearCheckpoint() {
	if w.opts.CheckpointPath == "" {
		return
	}
	if err := os.Remove(w.opts.CheckpointPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		w.logger.Warn("removing checkpoint failed", slog.String("error", err.Error()))
	}
}
