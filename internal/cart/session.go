// Package cart holds the request-scoped cart session: the buyer's session
// token plus the last authoritative snapshot mirrored from the backend.
//
// A Session is constructed per request from the woocommerce-session cookie
// and discarded afterwards; no cart state lives in process memory between
// requests (the WooCommerce session is the source of truth).
package cart

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"storefront-bff/internal/backend"
	"storefront-bff/internal/model"
	"storefront-bff/internal/wpgraphql"
)

// Session is one buyer's cart for the duration of a request.
//
// Mutations follow a fixed discipline: set the updating flag, one network
// round trip, replace the snapshot with the server's response, clear the
// flag in a defer. On error the previous snapshot stays in place; there
// are no optimistic updates, because tax and shipping are server-computed
// and local math would diverge.
type Session struct {
	backend  backend.Backend
	logger   *slog.Logger
	token    string
	snapshot *model.Cart
	updating atomic.Bool
}

// NewSession creates a cart session from a cookie-sourced token. An empty
// token means a fresh anonymous session; the backend will issue one on the
// first call.
func NewSession(b backend.Backend, logger *slog.Logger, token string) *Session {
	return &Session{
		backend: b,
		logger:  logger,
		token:   token,
	}
}

// Token returns the current session token for cookie write-back. The
// backend rotates tokens, so handlers must always write this back.
func (s *Session) Token() string {
	return s.token
}

// Snapshot returns the last cart snapshot, or nil before any call.
func (s *Session) Snapshot() *model.Cart {
	return s.snapshot
}

// IsUpdating reports whether a mutation is in flight.
func (s *Session) IsUpdating() bool {
	return s.updating.Load()
}

// mutate runs one cart operation under the updating flag and replaces the
// snapshot only on success.
func (s *Session) mutate(ctx context.Context, name string, op func(ctx context.Context, session string) (*model.Cart, string, error)) (*model.Cart, error) {
	if !s.updating.CompareAndSwap(false, true) {
		return s.snapshot, model.NewConflictError("cart update already in progress")
	}
	defer s.updating.Store(false)

	cart, newToken, err := op(ctx, s.token)
	if err != nil {
		s.logger.Warn("cart operation failed",
			slog.String("op", name),
			slog.String("error", err.Error()),
		)
		// Previous snapshot stays; the caller shows a toast and moves on.
		return s.snapshot, err
	}

	s.snapshot = cart
	if newToken != "" {
		s.token = newToken
	}
	return s.snapshot, nil
}

// Refresh fetches the current cart without mutating it.
func (s *Session) Refresh(ctx context.Context) (*model.Cart, error) {
	return s.mutate(ctx, "refreshCart", s.backend.GetCart)
}

// AddToCart adds a product (or variation) to the cart.
func (s *Session) AddToCart(ctx context.Context, productID, quantity, variationID int, extra map[string]string) (*model.Cart, error) {
	return s.mutate(ctx, "addToCart", func(ctx context.Context, session string) (*model.Cart, string, error) {
		return s.backend.AddToCart(ctx, session, productID, quantity, variationID, extra)
	})
}

// RemoveItem removes a line by its cart item key.
func (s *Session) RemoveItem(ctx context.Context, key string) (*model.Cart, error) {
	return s.mutate(ctx, "removeItem", func(ctx context.Context, session string) (*model.Cart, string, error) {
		return s.backend.RemoveItem(ctx, session, key)
	})
}

// UpdateItemQuantity sets the quantity for a line.
func (s *Session) UpdateItemQuantity(ctx context.Context, key string, quantity int) (*model.Cart, error) {
	return s.mutate(ctx, "updateItemQuantity", func(ctx context.Context, session string) (*model.Cart, string, error) {
		return s.backend.UpdateItemQuantity(ctx, session, key, quantity)
	})
}

// ApplyCoupon applies a coupon code.
func (s *Session) ApplyCoupon(ctx context.Context, code string) (*model.Cart, error) {
	return s.mutate(ctx, "applyCoupon", func(ctx context.Context, session string) (*model.Cart, string, error) {
		return s.backend.ApplyCoupon(ctx, session, code)
	})
}

// RemoveCoupon removes an applied coupon.
func (s *Session) RemoveCoupon(ctx context.Context, code string) (*model.Cart, error) {
	return s.mutate(ctx, "removeCoupon", func(ctx context.Context, session string) (*model.Cart, string, error) {
		return s.backend.RemoveCoupon(ctx, session, code)
	})
}

// UpdateShippingMethod selects a shipping rate.
func (s *Session) UpdateShippingMethod(ctx context.Context, methodID string) (*model.Cart, error) {
	return s.mutate(ctx, "updateShippingMethod", func(ctx context.Context, session string) (*model.Cart, string, error) {
		return s.backend.UpdateShippingMethod(ctx, session, methodID)
	})
}

// EmptyCart removes every line and coupon.
func (s *Session) EmptyCart(ctx context.Context) (*model.Cart, error) {
	return s.mutate(ctx, "emptyCart", s.backend.EmptyCart)
}

// UserMessage converts a cart operation error into a toast-worthy string.
// Stock and quantity messages from the backend are descriptive enough to
// pass through verbatim; everything else collapses to a generic message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	switch wpgraphql.Classify(err) {
	case wpgraphql.ClassStock, wpgraphql.ClassCoupon:
		var apiErr *model.APIError
		if errors.As(err, &apiErr) {
			return apiErr.Message
		}
		return err.Error()
	default:
		return "Something went wrong updating your cart. Please try again."
	}
}
