package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"storefront-bff/internal/kvstore"
	"storefront-bff/internal/model"
	"storefront-bff/internal/payment/helcim"
)

// handleHelcimInitialize starts a HelcimPay.js session. The API token
// stays server-side; the browser only ever sees the checkout token.
// POST /api/helcim-initialize
func (h *Handler) handleHelcimInitialize(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PaymentType string `json:"paymentType"`
		Amount      string `json:"amount"`
		Currency    string `json:"currency"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if req.Amount == "" {
		h.writeError(w, model.NewValidationError("amount", "amount required"))
		return
	}
	if req.Currency == "" {
		h.writeError(w, model.NewValidationError("currency", "currency required"))
		return
	}

	resp, err := h.helcim.Initialize(r.Context(), helcim.InitializeRequest{
		PaymentType: req.PaymentType,
		Amount:      req.Amount,
		Currency:    req.Currency,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	// The secret token stays server-side for later hash validation; the
	// page only needs the checkout token.
	if err := h.kv.SetJSON(r.Context(), helcimSecretKey(resp.CheckoutToken), resp.SecretToken, helcimSecretTTL); err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"checkoutToken": resp.CheckoutToken,
	})
}

// helcimSecretTTL bounds how long an unfinished HelcimPay session's
// secret is retained.
const helcimSecretTTL = 30 * time.Minute

func helcimSecretKey(checkoutToken string) string {
	return "helcim-secret:" + checkoutToken
}

// handleHelcimValidate verifies the transaction hash HelcimPay.js posts
// back after a client-side capture.
// POST /api/helcim-validate
func (h *Handler) handleHelcimValidate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CheckoutToken string          `json:"checkoutToken"`
		Transaction   json.RawMessage `json:"transaction"`
		Hash          string          `json:"hash"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if req.CheckoutToken == "" || req.Hash == "" || len(req.Transaction) == 0 {
		h.writeError(w, model.NewValidationError("body", "checkoutToken, transaction and hash required"))
		return
	}

	var secret string
	if err := h.kv.GetJSON(r.Context(), helcimSecretKey(req.CheckoutToken), &secret); err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			h.writeError(w, model.NewUnauthorizedError("unknown or expired checkout token"))
			return
		}
		h.writeError(w, err)
		return
	}

	if !helcim.ValidateHash(req.Transaction, secret, req.Hash) {
		h.logger.Warn("helcim hash mismatch",
			slog.String("checkout_token", req.CheckoutToken),
		)
		h.writeError(w, model.NewPaymentError("transaction hash validation failed"))
		return
	}

	// One-shot: a validated token cannot be replayed.
	_ = h.kv.Delete(r.Context(), helcimSecretKey(req.CheckoutToken))

	h.writeJSON(w, http.StatusOK, map[string]bool{"valid": true})
}

// handleStripePaymentIntent creates a payment intent for the given amount.
// POST /api/stripe-payment-intent
func (h *Handler) handleStripePaymentIntent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount   string `json:"amount"`
		Currency string `json:"currency"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if req.Currency == "" {
		h.writeError(w, model.NewValidationError("currency", "currency required"))
		return
	}

	intent, err := h.stripe.CreatePaymentIntent(req.Amount, req.Currency)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, intent)
}

// handleStripeSetupIntent creates a setup intent for card tokenization.
// POST /api/stripe-setup-intent
func (h *Handler) handleStripeSetupIntent(w http.ResponseWriter, r *http.Request) {
	intent, err := h.stripe.CreateSetupIntent()
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, intent)
}
