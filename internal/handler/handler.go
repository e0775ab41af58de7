// Package handler provides the HTTP handlers for the storefront API.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"storefront-bff/internal/adminorder"
	"storefront-bff/internal/backend"
	"storefront-bff/internal/cart"
	"storefront-bff/internal/checkout"
	"storefront-bff/internal/exchange"
	"storefront-bff/internal/kvstore"
	"storefront-bff/internal/model"
	"storefront-bff/internal/payment/helcim"
	"storefront-bff/internal/payment/stripe"
	"storefront-bff/internal/verification"
)

// sessionCookie carries the WooCommerce session token between requests.
// The backend rotates tokens, so every response writes it back.
const sessionCookie = "woocommerce-session"

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	backend      backend.Backend
	orchestrator *checkout.Orchestrator
	adminOrders  *adminorder.Service
	verification *verification.Service
	exchange     *exchange.Service
	kv           *kvstore.Store
	helcim       *helcim.Client
	stripe       *stripe.Service
	logger       *slog.Logger

	siteURL          string
	revalidateSecret string
	secureCookies    bool
}

// Options bundle the handler's non-service settings.
type Options struct {
	SiteURL          string
	RevalidateSecret string
	SecureCookies    bool
}

// New creates a Handler. Payment services may be nil when the gateway is
// not configured; their routes then return 404.
func New(
	b backend.Backend,
	orchestrator *checkout.Orchestrator,
	adminOrders *adminorder.Service,
	verificationSvc *verification.Service,
	exchangeSvc *exchange.Service,
	kv *kvstore.Store,
	helcimClient *helcim.Client,
	stripeSvc *stripe.Service,
	logger *slog.Logger,
	opts Options,
) *Handler {
	return &Handler{
		backend:          b,
		orchestrator:     orchestrator,
		adminOrders:      adminOrders,
		verification:     verificationSvc,
		exchange:         exchangeSvc,
		kv:               kv,
		helcim:           helcimClient,
		stripe:           stripeSvc,
		logger:           logger,
		siteURL:          opts.SiteURL,
		revalidateSecret: opts.RevalidateSecret,
		secureCookies:    opts.SecureCookies,
	}
}

// RegisterRoutes registers all HTTP routes with the given ServeMux.
// Uses Go 1.22+ method routing patterns.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Cart
	mux.HandleFunc("GET /api/cart", h.handleGetCart)
	mux.HandleFunc("POST /api/add-to-cart", h.handleAddToCart)
	mux.HandleFunc("POST /api/update-cart-quantity", h.handleUpdateCartQuantity)
	mux.HandleFunc("POST /api/apply-coupon", h.handleApplyCoupon)
	mux.HandleFunc("POST /api/remove-coupon", h.handleRemoveCoupon)
	mux.HandleFunc("POST /api/update-shipping-method", h.handleUpdateShippingMethod)

	// Checkout
	mux.HandleFunc("POST /api/checkout", h.handleCheckout)
	mux.HandleFunc("POST /api/create-admin-order", h.handleCreateAdminOrder)

	// Anti-bot verification
	mux.HandleFunc("POST /api/verify-turnstile", h.handleVerifyTurnstile)
	mux.HandleFunc("POST /api/pre-verify-checkout", h.handlePreVerifyCheckout)
	mux.HandleFunc("POST /api/validate-checkout-session", h.handleValidateCheckoutSession)

	// Payments
	if h.helcim != nil {
		mux.HandleFunc("POST /api/helcim-initialize", h.handleHelcimInitialize)
		mux.HandleFunc("POST /api/helcim-validate", h.handleHelcimValidate)
	}
	if h.stripe != nil {
		mux.HandleFunc("POST /api/stripe-payment-intent", h.handleStripePaymentIntent)
		mux.HandleFunc("POST /api/stripe-setup-intent", h.handleStripeSetupIntent)
	}

	// Content
	mux.HandleFunc("GET /api/exchange-rate", h.handleExchangeRate)
	mux.HandleFunc("GET /api/sitemap.xml", h.handleSitemap)
	mux.HandleFunc("POST /api/revalidate", h.handleRevalidate)

	// Health check
	mux.HandleFunc("GET /api/health", h.handleHealth)
	mux.HandleFunc("GET /healthz", h.handleHealth)
}

// handleHealth returns service liveness.
// GET /api/health
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// === Session helpers ===

// cartSession builds the request-scoped cart session from the session
// cookie (falling back to the woocommerce-session header for API clients).
func (h *Handler) cartSession(r *http.Request) *cart.Session {
	token := ""
	if c, err := r.Cookie(sessionCookie); err == nil {
		token = c.Value
	}
	if hdr := r.Header.Get("woocommerce-session"); hdr != "" {
		token = hdr
	}
	return cart.NewSession(h.backend, h.logger, token)
}

// writeSessionCookie persists the (possibly rotated) session token.
func (h *Handler) writeSessionCookie(w http.ResponseWriter, sess *cart.Session) {
	token := sess.Token()
	if token == "" {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   14 * 24 * 60 * 60,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// === Response helpers ===

// writeJSON sends a JSON response with the given status code.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// writeError sends an error response, extracting status/code from APIError if present.
// Uses errors.As() to unwrap error chains (e.g., fmt.Errorf wrapping).
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError

	if errors.As(err, &apiErr) {
		// Found APIError in error chain - use it
	} else {
		// Wrap unexpected errors
		apiErr = &model.APIError{
			Code:       "INTERNAL_ERROR",
			Message:    "an internal error occurred",
			StatusCode: http.StatusInternalServerError,
		}
		h.logger.Error("internal error", slog.String("error", err.Error()))
	}

	h.writeJSON(w, apiErr.StatusCode, errorResponse{
		Error: errorBody{
			Code:    apiErr.Code,
			Message: apiErr.Message,
		},
	})
}

// errorResponse is the JSON structure for error responses.
type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MaxRequestBodySize limits JSON request bodies to 1MB to prevent DoS.
const MaxRequestBodySize = 1 << 20 // 1MB

// decodeJSON decodes the request body into v with a size cap.
func decodeJSON(r *http.Request, v any) error {
	// Limit request body size to prevent DoS
	r.Body = http.MaxBytesReader(nil, r.Body, MaxRequestBodySize)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		// Don't expose internal error details to client
		return model.NewValidationError("body", "invalid JSON")
	}
	return nil
}

// clientIP extracts the end-user IP, preferring the CDN-set header.
func clientIP(r *http.Request) string {
	if ip := r.Header.Get("CF-Connecting-IP"); ip != "" {
		return ip
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// The header is a proxy chain; the first hop is the client.
		ip, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(ip)
	}
	return r.RemoteAddr
}
