// Package exchange serves currency conversion rates for price display.
// Rates come from an external API, are cached in Redis for an hour, and a
// stale copy is kept indefinitely so a rates-API outage degrades to
// slightly old rates instead of broken prices.
package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"storefront-bff/internal/kvstore"
)

const (
	cacheKey = "exchange-rates"
	freshTTL = 1 * time.Hour
)

// Rates is one snapshot of conversion rates from the base currency.
type Rates struct {
	Base      string             `json:"base"`
	Rates     map[string]float64 `json:"rates"`
	FetchedAt time.Time          `json:"fetchedAt"`

	// Stale is set on responses served past the fresh window.
	Stale bool `json:"stale,omitempty"`
}

// Service fetches and caches exchange rates.
type Service struct {
	client  *http.Client
	kv      *kvstore.Store
	url     string
	base    string
	logger  *slog.Logger
	nowFunc func() time.Time
}

// New creates the service. url is the rates API endpoint returning
// {"base_code": "...", "rates": {...}}.
func New(kv *kvstore.Store, url, baseCurrency string, logger *slog.Logger) *Service {
	return &Service{
		client:  &http.Client{Timeout: 10 * time.Second},
		kv:      kv,
		url:     url,
		base:    baseCurrency,
		logger:  logger,
		nowFunc: time.Now,
	}
}

// Current returns the rate snapshot: cached if fresh, refetched if not,
// and the stale cache as a last resort when the API is down.
func (s *Service) Current(ctx context.Context) (*Rates, error) {
	var cached Rates
	err := s.kv.GetJSON(ctx, cacheKey, &cached)
	if err == nil && s.nowFunc().Sub(cached.FetchedAt) < freshTTL {
		return &cached, nil
	}

	fresh, fetchErr := s.fetch(ctx)
	if fetchErr != nil {
		if err == nil {
			// Stale beats broken.
			s.logger.Warn("rates fetch failed, serving stale",
				slog.Time("fetched_at", cached.FetchedAt),
				slog.String("error", fetchErr.Error()),
			)
			cached.Stale = true
			return &cached, nil
		}
		return nil, fmt.Errorf("fetch exchange rates: %w", fetchErr)
	}

	// No expiry: the FetchedAt timestamp decides freshness, and the old
	// snapshot doubles as the outage fallback.
	if setErr := s.kv.SetJSON(ctx, cacheKey, fresh, 0); setErr != nil {
		s.logger.Warn("caching rates failed", slog.String("error", setErr.Error()))
	}
	return fresh, nil
}

type ratesResponse struct {
	BaseCode string             `json:"base_code"`
	Rates    map[string]float64 `json:"rates"`
}

func (s *Service) fetch(ctx context.Context) (*Rates, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rates API returned %d", resp.StatusCode)
	}

	var body ratesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode rates response: %w", err)
	}
	if len(body.Rates) == 0 {
		return nil, fmt.Errorf("rates API returned no rates")
	}

	base := body.BaseCode
	if base == "" {
		base = s.base
	}
	return &Rates{
		Base:      base,
		Rates:     body.Rates,
		FetchedAt: s.nowFunc(),
	}, nil
}
