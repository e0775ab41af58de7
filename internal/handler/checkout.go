package handler

import (
	"log/slog"
	"net/http"

	"storefront-bff/internal/adminorder"
	"storefront-bff/internal/model"
)

// handleCheckout submits the checkout for the session's cart.
// POST /api/checkout
func (h *Handler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var draft model.OrderDraft
	if err := decodeJSON(r, &draft); err != nil {
		h.writeError(w, err)
		return
	}
	if draft.Billing.Email == "" {
		h.writeError(w, model.NewValidationError("billing.email", "email required"))
		return
	}
	if draft.PaymentMethod == "" {
		h.writeError(w, model.NewValidationError("paymentMethod", "payment method required"))
		return
	}

	h.logger.InfoContext(ctx, "processing checkout",
		slog.String("payment_method", draft.PaymentMethod),
		slog.Bool("is_paid", draft.IsPaid),
		slog.Bool("creates_account", draft.Account != nil),
	)

	sess := h.cartSession(r)
	result := h.orchestrator.Process(ctx, sess, &draft)

	h.writeSessionCookie(w, sess)
	h.writeJSON(w, http.StatusOK, result)
}

// createAdminOrderRequest mirrors adminorder.CreateRequest on the wire.
type createAdminOrderRequest struct {
	TransactionID string                 `json:"transactionId"`
	Order         *model.AdminOrderInput `json:"order"`
	Email         string                 `json:"email"`
	CartTotal     string                 `json:"cartTotal"`
}

// handleCreateAdminOrder records an already-captured payment as an order.
// POST /api/create-admin-order
func (h *Handler) handleCreateAdminOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createAdminOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if req.TransactionID == "" {
		h.writeError(w, model.NewValidationError("transactionId", "transaction ID required"))
		return
	}
	if req.Order == nil || len(req.Order.LineItems) == 0 {
		h.writeError(w, model.NewValidationError("order", "at least one line item required"))
		return
	}

	result := h.adminOrders.Create(ctx, adminorder.CreateRequest{
		TransactionID: req.TransactionID,
		Input:         req.Order,
		Email:         req.Email,
		CartTotal:     req.CartTotal,
	})

	status := http.StatusOK
	switch {
	case result.Success:
		if !result.Idempotent {
			status = http.StatusCreated
		}
	case result.Idempotent:
		// A creation attempt for this payment is still running.
		status = http.StatusConflict
	default:
		status = http.StatusBadGateway
	}
	h.writeJSON(w, status, result)
}
