package handler

import (
	"log/slog"
	"net/http"

	"storefront-bff/internal/cart"
	"storefront-bff/internal/model"
)

// cartResponse wraps every cart operation's reply: the authoritative
// snapshot plus a user-facing message when the operation failed.
type cartResponse struct {
	Cart    *model.Cart `json:"cart"`
	Message string      `json:"message,omitempty"`
}

// respondCart writes the post-operation snapshot. Cart failures are
// toast-level events, not HTTP errors: the snapshot (unchanged on
// failure) still comes back with 200 so the frontend stays consistent.
func (h *Handler) respondCart(w http.ResponseWriter, sess *cart.Session, snapshot *model.Cart, err error) {
	h.writeSessionCookie(w, sess)
	h.writeJSON(w, http.StatusOK, cartResponse{
		Cart:    snapshot,
		Message: cart.UserMessage(err),
	})
}

// handleGetCart fetches the current cart.
// GET /api/cart
func (h *Handler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	sess := h.cartSession(r)
	snapshot, err := sess.Refresh(r.Context())
	h.respondCart(w, sess, snapshot, err)
}

// handleAddToCart adds a product to the cart.
// POST /api/add-to-cart
func (h *Handler) handleAddToCart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID   int               `json:"productId"`
		Quantity    int               `json:"quantity"`
		VariationID int               `json:"variationId"`
		Extra       map[string]string `json:"extraData"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if req.ProductID <= 0 {
		h.writeError(w, model.NewValidationError("productId", "must be positive"))
		return
	}
	if req.Quantity <= 0 {
		req.Quantity = 1
	}

	h.logger.InfoContext(r.Context(), "adding to cart",
		slog.Int("product_id", req.ProductID),
		slog.Int("quantity", req.Quantity),
	)

	sess := h.cartSession(r)
	snapshot, err := sess.AddToCart(r.Context(), req.ProductID, req.Quantity, req.VariationID, req.Extra)
	h.respondCart(w, sess, snapshot, err)
}

// handleUpdateCartQuantity sets a line's quantity. Quantity zero removes
// the line.
// POST /api/update-cart-quantity
func (h *Handler) handleUpdateCartQuantity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key      string `json:"key"`
		Quantity int    `json:"quantity"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if req.Key == "" {
		h.writeError(w, model.NewValidationError("key", "cart item key required"))
		return
	}
	if req.Quantity < 0 {
		h.writeError(w, model.NewValidationError("quantity", "must not be negative"))
		return
	}

	sess := h.cartSession(r)
	var (
		snapshot *model.Cart
		err      error
	)
	if req.Quantity == 0 {
		snapshot, err = sess.RemoveItem(r.Context(), req.Key)
	} else {
		snapshot, err = sess.UpdateItemQuantity(r.Context(), req.Key, req.Quantity)
	}
	h.respondCart(w, sess, snapshot, err)
}

// handleApplyCoupon applies a coupon code.
// POST /api/apply-coupon
func (h *Handler) handleApplyCoupon(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if req.Code == "" {
		h.writeError(w, model.NewValidationError("code", "coupon code required"))
		return
	}

	sess := h.cartSession(r)
	snapshot, err := sess.ApplyCoupon(r.Context(), req.Code)
	h.respondCart(w, sess, snapshot, err)
}

// handleRemoveCoupon removes an applied coupon.
// POST /api/remove-coupon
func (h *Handler) handleRemoveCoupon(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if req.Code == "" {
		h.writeError(w, model.NewValidationError("code", "coupon code required"))
		return
	}

	sess := h.cartSession(r)
	snapshot, err := sess.RemoveCoupon(r.Context(), req.Code)
	h.respondCart(w, sess, snapshot, err)
}

// handleUpdateShippingMethod selects a shipping rate.
// POST /api/update-shipping-method
func (h *Handler) handleUpdateShippingMethod(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MethodID string `json:"methodId"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if req.MethodID == "" {
		h.writeError(w, model.NewValidationError("methodId", "shipping method required"))
		return
	}

	sess := h.cartSession(r)
	snapshot, err := sess.UpdateShippingMethod(r.Context(), req.MethodID)
	h.respondCart(w, sess, snapshot, err)
}
