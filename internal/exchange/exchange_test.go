package exchange

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"storefront-bff/internal/kvstore"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(t *testing.T, handler http.HandlerFunc) (*Service, *int) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	return New(kvstore.New(client), srv.URL, "CAD", testLogger()), &hits
}

func ratesHandler(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(map[string]any{
		"base_code": "CAD",
		"rates":     map[string]float64{"USD": 0.73, "EUR": 0.68},
	})
}

func TestCurrentFetchesAndCaches(t *testing.T) {
	svc, hits := newTestService(t, ratesHandler)
	ctx := context.Background()

	rates, err := svc.Current(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rates.Base != "CAD" {
		t.Errorf("base = %q", rates.Base)
	}
	if rates.Rates["USD"] != 0.73 {
		t.Errorf("USD rate = %v", rates.Rates["USD"])
	}
	if rates.Stale {
		t.Error("fresh fetch must not be stale")
	}

	// Second call inside the fresh window hits the cache, not the API.
	if _, err := svc.Current(ctx); err != nil {
		t.Fatalf("second call: %v", err)
	}
	if *hits != 1 {
		t.Errorf("API hits = %d, want 1", *hits)
	}
}

func TestCurrentRefetchesWhenStale(t *testing.T) {
	svc, hits := newTestService(t, ratesHandler)
	ctx := context.Background()

	if _, err := svc.Current(ctx); err != nil {
		t.Fatalf("first call: %v", err)
	}

	// Age the cached snapshot past the fresh window.
	svc.nowFunc = func() time.Time { return time.Now().Add(2 * time.Hour) }

	if _, err := svc.Current(ctx); err != nil {
		t.Fatalf("second call: %v", err)
	}
	if *hits != 2 {
		t.Errorf("API hits = %d, want refetch after expiry", *hits)
	}
}

func TestCurrentServesStaleOnAPIFailure(t *testing.T) {
	failing := false
	svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		if failing {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		ratesHandler(w, r)
	})
	ctx := context.Background()

	if _, err := svc.Current(ctx); err != nil {
		t.Fatalf("first call: %v", err)
	}

	failing = true
	svc.nowFunc = func() time.Time { return time.Now().Add(2 * time.Hour) }

	rates, err := svc.Current(ctx)
	if err != nil {
		t.Fatalf("stale fallback must not error: %v", err)
	}
	if !rates.Stale {
		t.Error("fallback response must be flagged stale")
	}
	if rates.Rates["USD"] != 0.73 {
		t.Errorf("stale rates lost: %v", rates.Rates)
	}
}

func TestCurrentErrorsWithoutAnyRates(t *testing.T) {
	svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	if _, err := svc.Current(context.Background()); err == nil {
		t.Fatal("no cache and no API must error")
	}
}
