package handler

import (
	"log/slog"
	"net/http"
	"time"

	"storefront-bff/internal/model"
)

// handleVerifyTurnstile validates a raw Turnstile token without creating
// a checkout session.
// POST /api/verify-turnstile
func (h *Handler) handleVerifyTurnstile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	result, err := h.verification.Verify(r.Context(), req.Token, clientIP(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// preVerifyResponse carries the checkout verification session back to the
// frontend.
type preVerifyResponse struct {
	Verified  bool   `json:"verified"`
	Token     string `json:"sessionToken"`
	ExpiresAt string `json:"expiresAt"`
}

// handlePreVerifyCheckout validates a Turnstile token and mints a
// short-lived checkout verification session.
// POST /api/pre-verify-checkout
func (h *Handler) handlePreVerifyCheckout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	session, err := h.verification.PreVerify(r.Context(), req.Token, clientIP(r))
	if err != nil {
		h.logger.Warn("pre-verify failed", slog.String("error", err.Error()))
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, preVerifyResponse{
		Verified:  true,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt.Format(time.RFC3339),
	})
}

// handleValidateCheckoutSession re-checks a verification session before
// order submission.
// POST /api/validate-checkout-session
func (h *Handler) handleValidateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"sessionToken"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if req.Token == "" {
		h.writeError(w, model.NewValidationError("sessionToken", "session token required"))
		return
	}

	result, err := h.verification.ValidateSession(r.Context(), req.Token)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}
