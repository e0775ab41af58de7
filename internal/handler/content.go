package handler

import (
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"storefront-bff/internal/kvstore"
	"storefront-bff/internal/model"
	"storefront-bff/internal/sitemap"
)

// handleExchangeRate serves the cached currency conversion rates.
// GET /api/exchange-rate
func (h *Handler) handleExchangeRate(w http.ResponseWriter, r *http.Request) {
	rates, err := h.exchange.Current(r.Context())
	if err != nil {
		h.writeError(w, model.NewUpstreamError("exchange rates", err))
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=3600")
	h.writeJSON(w, http.StatusOK, rates)
}

// handleSitemap renders the sitemap from warmed catalog data.
// GET /api/sitemap.xml
func (h *Handler) handleSitemap(w http.ResponseWriter, r *http.Request) {
	var entries []sitemap.Entry
	if err := h.kv.GetJSON(r.Context(), kvstore.KeySitemapData, &entries); err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			// Never warmed; serve the static pages so crawlers get
			// something instead of a 404.
			entries = sitemap.Build(h.siteURL, nil, nil)
		} else {
			h.writeError(w, err)
			return
		}
	}

	body, err := sitemap.Render(entries)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if _, err := w.Write(body); err != nil {
		h.logger.Error("writing sitemap failed", slog.String("error", err.Error()))
	}
}

// revalidatePaths maps frontend paths onto the cache keys backing them.
func revalidatePaths(paths []string) []string {
	keys := make([]string, 0, len(paths))
	for _, p := range paths {
		switch {
		case p == "/products" || p == "/":
			keys = append(keys, kvstore.KeyProductsList)
		case p == "/categories":
			keys = append(keys, kvstore.KeyCategoriesList)
		case p == "/sitemap.xml":
			keys = append(keys, kvstore.KeySitemapData)
		case strings.HasPrefix(p, "/product/"):
			slug := strings.Trim(strings.TrimPrefix(p, "/product/"), "/")
			if slug != "" {
				keys = append(keys, kvstore.ProductSEOKey(slug))
			}
		}
	}
	return keys
}

// handleRevalidate purges cache keys for the given frontend paths. Guarded
// by a shared secret so only the CMS webhook can trigger purges.
// POST /api/revalidate
func (h *Handler) handleRevalidate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Secret string   `json:"secret"`
		Paths  []string `json:"paths"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	if h.revalidateSecret == "" ||
		subtle.ConstantTimeCompare([]byte(req.Secret), []byte(h.revalidateSecret)) != 1 {
		h.writeError(w, model.NewUnauthorizedError("invalid revalidation secret"))
		return
	}
	if len(req.Paths) == 0 {
		h.writeError(w, model.NewValidationError("paths", "at least one path required"))
		return
	}

	purged := 0
	for _, key := range revalidatePaths(req.Paths) {
		if err := h.kv.Delete(r.Context(), key); err != nil {
			h.logger.Warn("purging cache key failed",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
			continue
		}
		purged++
	}

	h.logger.Info("cache revalidated",
		slog.Int("paths", len(req.Paths)),
		slog.Int("purged", purged),
	)
	h.writeJSON(w, http.StatusOK, map[string]int{"purged": purged})
}
