package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"storefront-bff/internal/adminorder"
	"storefront-bff/internal/backend"
	"storefront-bff/internal/checkout"
	"storefront-bff/internal/exchange"
	"storefront-bff/internal/idempotency"
	"storefront-bff/internal/kvstore"
	"storefront-bff/internal/model"
	"storefront-bff/internal/sitemap"
	"storefront-bff/internal/verification"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type creatorStub struct {
	fn func(input *model.AdminOrderInput) (*model.Order, error)
}

func (c *creatorStub) CreateOrder(ctx context.Context, input *model.AdminOrderInput) (*model.Order, error) {
	if c.fn != nil {
		return c.fn(input)
	}
	return &model.Order{ID: 100, OrderKey: "wc_key", Status: "pending"}, nil
}

type patcherStub struct{ err error }

func (p *patcherStub) PatchOrderStatus(ctx context.Context, orderID int, status, transactionID string, meta map[string]string) error {
	return p.err
}

type testEnv struct {
	mux     *http.ServeMux
	mock    *backend.Mock
	kv      *kvstore.Store
	idem    idempotency.Store
	handler *Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	mock := &backend.Mock{}
	kv := kvstore.New(client)
	idem := idempotency.NewMemoryStore()

	adminSvc := adminorder.New(&creatorStub{}, &patcherStub{}, idem, testLogger(), 0)
	orchestrator := checkout.New(mock, adminSvc, testLogger())

	// Turnstile fake that accepts everything.
	turnstileSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": true})
	}))
	t.Cleanup(turnstileSrv.Close)
	turnstile := verification.NewTurnstileClient("secret")
	turnstile.SetEndpoint(turnstileSrv.URL)
	verificationSvc := verification.NewService(turnstile, verification.NewMemorySessionStore())

	ratesSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"base_code": "CAD",
			"rates":     map[string]float64{"USD": 0.73},
		})
	}))
	t.Cleanup(ratesSrv.Close)
	exchangeSvc := exchange.New(kv, ratesSrv.URL, "CAD", testLogger())

	h := New(mock, orchestrator, adminSvc, verificationSvc, exchangeSvc, kv,
		nil, nil, testLogger(), Options{
			SiteURL:          "https://shop.example.com",
			RevalidateSecret: "hook-secret",
		})

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	return &testEnv{mux: mux, mock: mock, kv: kv, idem: idem, handler: h}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshaling body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return out
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, "GET", "/api/health", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestAddToCart(t *testing.T) {
	env := newTestEnv(t)
	env.mock.AddToCartFunc = func(ctx context.Context, session string, productID, quantity, variationID int, extra map[string]string) (*model.Cart, string, error) {
		return &model.Cart{
			Contents: []model.CartItem{{Key: "k1", ProductID: productID, Quantity: quantity}},
		}, "rotated-token", nil
	}

	rec := env.do(t, "POST", "/api/add-to-cart", map[string]any{
		"productId": 42,
		"quantity":  2,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	resp := decodeBody[struct {
		Cart    *model.Cart `json:"cart"`
		Message string      `json:"message"`
	}](t, rec)
	if resp.Cart == nil || len(resp.Cart.Contents) != 1 {
		t.Fatalf("cart = %+v", resp.Cart)
	}
	if resp.Message != "" {
		t.Errorf("message = %q, want empty on success", resp.Message)
	}

	// Rotated session token written back as cookie.
	var found bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == "woocommerce-session" && c.Value == "rotated-token" {
			found = true
			if !c.HttpOnly {
				t.Error("session cookie must be HttpOnly")
			}
		}
	}
	if !found {
		t.Error("rotated session token must be written back")
	}
}

func TestAddToCartValidation(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "POST", "/api/add-to-cart", map[string]any{"productId": 0})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestAddToCartFailureKeepsHTTP200(t *testing.T) {
	env := newTestEnv(t)
	env.mock.AddToCartFunc = func(ctx context.Context, session string, productID, quantity, variationID int, extra map[string]string) (*model.Cart, string, error) {
		return nil, session, model.NewUpstreamMessageError("This product is out of stock")
	}

	rec := env.do(t, "POST", "/api/add-to-cart", map[string]any{"productId": 42, "quantity": 1})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; cart failures are toast-level, not HTTP errors", rec.Code)
	}

	resp := decodeBody[struct {
		Message string `json:"message"`
	}](t, rec)
	if resp.Message != "This product is out of stock" {
		t.Errorf("message = %q, want upstream stock text", resp.Message)
	}
}

func TestUpdateCartQuantityZeroRemovesLine(t *testing.T) {
	env := newTestEnv(t)
	removed := false
	env.mock.RemoveItemFunc = func(ctx context.Context, session, key string) (*model.Cart, string, error) {
		removed = true
		return &model.Cart{IsEmpty: true}, session, nil
	}

	rec := env.do(t, "POST", "/api/update-cart-quantity", map[string]any{
		"key":      "k1",
		"quantity": 0,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !removed {
		t.Error("quantity zero must remove the line")
	}
}

func TestCheckoutRoute(t *testing.T) {
	env := newTestEnv(t)
	env.mock.GetCartFunc = func(ctx context.Context, session string) (*model.Cart, string, error) {
		return &model.Cart{
			Contents: []model.CartItem{{Key: "k1", ProductID: 1, Quantity: 1}},
			Total:    "50.00",
		}, session, nil
	}
	env.mock.CheckoutFunc = func(ctx context.Context, session string, draft *model.OrderDraft) (*model.CheckoutPayload, string, error) {
		return &model.CheckoutPayload{Result: "success", OrderID: 9, OrderKey: "wc_key"}, session, nil
	}

	rec := env.do(t, "POST", "/api/checkout", map[string]any{
		"billing":       map[string]any{"email": "buyer@example.com"},
		"paymentMethod": "cod",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	result := decodeBody[model.CheckoutResult](t, rec)
	if !result.Success {
		t.Fatalf("result = %+v", result)
	}
	if result.RedirectURL != "/checkout/order-received/9/?key=wc_key" {
		t.Errorf("redirect = %q", result.RedirectURL)
	}
}

// TestCheckoutScenario drives a full session over the HTTP surface:
// add a product, apply a coupon, check out. The backend mock keeps cart
// state across calls; the client carries the session cookie forward the
// way a browser would.
func TestCheckoutScenario(t *testing.T) {
	env := newTestEnv(t)

	state := &model.Cart{IsEmpty: true}
	env.mock.AddToCartFunc = func(ctx context.Context, session string, productID, quantity, variationID int, extra map[string]string) (*model.Cart, string, error) {
		state = &model.Cart{
			Contents: []model.CartItem{{Key: "k1", ProductID: productID, Quantity: quantity, Subtotal: "120.00", Total: "120.00"}},
			Subtotal: "120.00",
			Total:    "120.00",
		}
		return state, "sess-1", nil
	}
	env.mock.ApplyCouponFunc = func(ctx context.Context, session, code string) (*model.Cart, string, error) {
		if session != "sess-1" {
			t.Errorf("ApplyCoupon session = %q, want cookie-carried sess-1", session)
		}
		next := *state
		next.AppliedCoupons = []model.AppliedCoupon{{Code: code, DiscountAmount: "12.00"}}
		next.DiscountTotal = "12.00"
		next.Total = "108.00"
		state = &next
		return state, "sess-1", nil
	}
	env.mock.GetCartFunc = func(ctx context.Context, session string) (*model.Cart, string, error) {
		return state, session, nil
	}
	env.mock.CheckoutFunc = func(ctx context.Context, session string, draft *model.OrderDraft) (*model.CheckoutPayload, string, error) {
		return &model.CheckoutPayload{Result: "success", OrderID: 77, OrderKey: "wc_order_77"}, session, nil
	}
	env.mock.EmptyCartFunc = func(ctx context.Context, session string) (*model.Cart, string, error) {
		state = &model.Cart{IsEmpty: true}
		return state, session, nil
	}

	var cookie *http.Cookie
	send := func(path string, body any) *httptest.ResponseRecorder {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshaling body: %v", err)
		}
		req := httptest.NewRequest("POST", path, bytes.NewReader(data))
		if cookie != nil {
			req.AddCookie(cookie)
		}
		rec := httptest.NewRecorder()
		env.mux.ServeHTTP(rec, req)
		for _, c := range rec.Result().Cookies() {
			if c.Name == "woocommerce-session" {
				cookie = c
			}
		}
		return rec
	}

	if rec := send("/api/add-to-cart", map[string]any{"productId": 7, "quantity": 1}); rec.Code != http.StatusOK {
		t.Fatalf("add-to-cart status = %d", rec.Code)
	}
	if cookie == nil {
		t.Fatal("add-to-cart must set the session cookie")
	}
	if rec := send("/api/apply-coupon", map[string]any{"code": "SK8-10"}); rec.Code != http.StatusOK {
		t.Fatalf("apply-coupon status = %d", rec.Code)
	}

	rec := send("/api/checkout", map[string]any{
		"billing":       map[string]any{"email": "buyer@example.com"},
		"paymentMethod": "cod",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("checkout status = %d: %s", rec.Code, rec.Body.String())
	}
	result := decodeBody[model.CheckoutResult](t, rec)
	if !result.Success {
		t.Fatalf("checkout result = %+v", result)
	}
	if result.RedirectURL != "/checkout/order-received/77/?key=wc_order_77" {
		t.Errorf("redirect = %q", result.RedirectURL)
	}

	checkouts, empties := 0, 0
	for _, call := range env.mock.Calls {
		switch call {
		case "Checkout":
			checkouts++
		case "EmptyCart":
			empties++
		}
	}
	if checkouts != 1 {
		t.Errorf("checkout mutations = %d, want exactly 1", checkouts)
	}
	if empties != 1 {
		t.Errorf("cart empties = %d, want exactly 1", empties)
	}
}

func TestCreateAdminOrder(t *testing.T) {
	env := newTestEnv(t)

	body := map[string]any{
		"transactionId": "txn-9",
		"email":         "buyer@example.com",
		"cartTotal":     "50.00",
		"order": map[string]any{
			"lineItems": []map[string]any{
				{"productId": 42, "quantity": 1, "subtotal": "50.00", "total": "50.00"},
			},
		},
	}

	rec := env.do(t, "POST", "/api/create-admin-order", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	result := decodeBody[adminorder.CreateResult](t, rec)
	if !result.Success || result.Order.ID != 100 {
		t.Fatalf("result = %+v", result)
	}

	// Replay returns 200, not 201, and the same order.
	rec = env.do(t, "POST", "/api/create-admin-order", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("replay status = %d", rec.Code)
	}
	replay := decodeBody[adminorder.CreateResult](t, rec)
	if !replay.Idempotent || replay.Order.ID != 100 {
		t.Fatalf("replay = %+v", replay)
	}
}

func TestCreateAdminOrderValidation(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "POST", "/api/create-admin-order", map[string]any{
		"order": map[string]any{"lineItems": []map[string]any{{"productId": 1, "quantity": 1}}},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing transaction ID: status = %d, want 400", rec.Code)
	}

	rec = env.do(t, "POST", "/api/create-admin-order", map[string]any{
		"transactionId": "txn-1",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing line items: status = %d, want 400", rec.Code)
	}
}

func TestVerificationFlow(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "POST", "/api/pre-verify-checkout", map[string]any{"token": "cf-token"})
	if rec.Code != http.StatusOK {
		t.Fatalf("pre-verify status = %d: %s", rec.Code, rec.Body.String())
	}
	pre := decodeBody[struct {
		Verified bool   `json:"verified"`
		Token    string `json:"sessionToken"`
	}](t, rec)
	if !pre.Verified || pre.Token == "" {
		t.Fatalf("pre-verify = %+v", pre)
	}

	rec = env.do(t, "POST", "/api/validate-checkout-session", map[string]any{"sessionToken": pre.Token})
	if rec.Code != http.StatusOK {
		t.Fatalf("validate status = %d", rec.Code)
	}
	valid := decodeBody[verification.ValidationResult](t, rec)
	if !valid.Valid {
		t.Errorf("fresh session = %+v, want valid", valid)
	}

	rec = env.do(t, "POST", "/api/validate-checkout-session", map[string]any{"sessionToken": "bogus"})
	unknown := decodeBody[verification.ValidationResult](t, rec)
	if unknown.Valid || !unknown.RequiresReauth {
		t.Errorf("unknown session = %+v, want reauth", unknown)
	}
}

func TestRevalidateRequiresSecret(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "POST", "/api/revalidate", map[string]any{
		"secret": "wrong",
		"paths":  []string{"/products"},
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRevalidatePurgesKeys(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if err := env.kv.SetJSON(ctx, kvstore.KeyProductsList, []model.ProductSummary{{ID: 1}}, 0); err != nil {
		t.Fatalf("seeding cache: %v", err)
	}
	if err := env.kv.SetJSON(ctx, kvstore.ProductSEOKey("street-deck-8"), "meta", 0); err != nil {
		t.Fatalf("seeding cache: %v", err)
	}

	rec := env.do(t, "POST", "/api/revalidate", map[string]any{
		"secret": "hook-secret",
		"paths":  []string{"/products", "/product/street-deck-8"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	if _, err := env.kv.Products(ctx); !errors.Is(err, kvstore.ErrNotFound) {
		t.Error("products list must be purged")
	}
	var meta string
	if err := env.kv.GetJSON(ctx, kvstore.ProductSEOKey("street-deck-8"), &meta); !errors.Is(err, kvstore.ErrNotFound) {
		t.Error("product SEO meta must be purged")
	}
}

func TestSitemapServesWarmedEntries(t *testing.T) {
	env := newTestEnv(t)

	entries := sitemap.Build("https://shop.example.com",
		[]model.ProductSummary{{Slug: "street-deck-8", ModifiedAt: time.Now().UTC().Format(time.RFC3339)}}, nil)
	if err := env.kv.SetJSON(context.Background(), kvstore.KeySitemapData, entries, 0); err != nil {
		t.Fatalf("seeding sitemap: %v", err)
	}

	rec := env.do(t, "GET", "/api/sitemap.xml", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/xml; charset=utf-8" {
		t.Errorf("content type = %q", ct)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte("street-deck-8")) {
		t.Error("sitemap must contain warmed product entries")
	}
}

func TestSitemapFallsBackToStaticPages(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "GET", "/api/sitemap.xml", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte("https://shop.example.com/")) {
		t.Error("unwarmed sitemap must still carry static pages")
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"cloudflare header wins", map[string]string{
			"CF-Connecting-IP": "203.0.113.7",
			"X-Forwarded-For":  "198.51.100.1, 10.0.0.1",
		}, "203.0.113.7"},
		{"forwarded chain takes first hop", map[string]string{
			"X-Forwarded-For": "198.51.100.1, 10.0.0.1, 10.0.0.2",
		}, "198.51.100.1"},
		{"single forwarded address", map[string]string{
			"X-Forwarded-For": "198.51.100.1",
		}, "198.51.100.1"},
		{"no headers falls back to remote addr", nil, "192.0.2.1:1234"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := clientIP(req); got != tt.want {
				t.Errorf("clientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExchangeRate(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "GET", "/api/exchange-rate", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	rates := decodeBody[exchange.Rates](t, rec)
	if rates.Rates["USD"] != 0.73 {
		t.Errorf("rates = %+v", rates.Rates)
	}
}
