package wprest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront-bff/internal/model"
)

func TestPatchOrderStatus(t *testing.T) {
	var (
		gotMethod, gotPath string
		gotUser, gotPass   string
		gotBody            map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotUser, gotPass, _ = r.BasicAuth()
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"id": 100, "status": "processing"}`))
	}))
	defer srv.Close()

	client, err := New(srv.URL, "admin", "app-password")
	if err != nil {
		t.Fatalf("creating client: %v", err)
	}

	err = client.PatchOrderStatus(context.Background(), 100, "processing", "txn-123",
		map[string]string{"_utm_source": "newsletter"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotMethod != http.MethodPut {
		t.Errorf("method = %q, want PUT", gotMethod)
	}
	if gotPath != "/wp-json/wc/v3/orders/100" {
		t.Errorf("path = %q", gotPath)
	}
	if gotUser != "admin" || gotPass != "app-password" {
		t.Errorf("basic auth = (%q, %q)", gotUser, gotPass)
	}
	if gotBody["status"] != "processing" {
		t.Errorf("status = %v", gotBody["status"])
	}
	if gotBody["set_paid"] != true {
		t.Errorf("set_paid = %v", gotBody["set_paid"])
	}
	if gotBody["transaction_id"] != "txn-123" {
		t.Errorf("transaction_id = %v", gotBody["transaction_id"])
	}
}

func TestPatchOrderStatusRetriesTransientFailure(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client, err := New(srv.URL, "admin", "pw")
	if err != nil {
		t.Fatalf("creating client: %v", err)
	}

	if err := client.PatchOrderStatus(context.Background(), 1, "processing", "", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
}

func TestNewRequiresCredentials(t *testing.T) {
	if _, err := New("", "user", "pw"); err == nil {
		t.Error("empty base URL must be rejected")
	}
	if _, err := New("https://example.com", "", "pw"); err == nil {
		t.Error("empty username must be rejected")
	}
	if _, err := New("https://example.com", "user", ""); err == nil {
		t.Error("empty password must be rejected")
	}
}

func TestParseErrorResponse(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"not found", 404, `{"code":"woocommerce_rest_shop_order_invalid_id"}`, model.ErrNotFound},
		{"unauthorized", 401, `{}`, model.ErrUnauthorized},
		{"forbidden", 403, `{}`, model.ErrUnauthorized},
		{"rate limited", 429, `{}`, model.ErrRateLimited},
		{"server error", 500, `{"code":"internal","message":"boom"}`, model.ErrUpstreamError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := parseErrorResponse(tt.status, []byte(tt.body))
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}
