// Package backend defines the interface the cart and checkout layers use
// to talk to the commerce backend. The WPGraphQL client provides the real
// implementation; Mock serves tests.
package backend

import (
	"context"

	"storefront-bff/internal/model"
)

// Backend abstracts the WooCommerce session-scoped operations.
//
// Every call takes the current woocommerce-session token and returns the
// (possibly rotated) token alongside the authoritative cart snapshot. The
// server computes tax and shipping, so callers never update the cart
// optimistically: the returned snapshot wholesale-replaces local state.
type Backend interface {
	// GetCart fetches the current cart. An empty session token starts a
	// fresh session.
	GetCart(ctx context.Context, session string) (*model.Cart, string, error)

	// AddToCart adds a product (or variation) to the cart.
	AddToCart(ctx context.Context, session string, productID, quantity, variationID int, extra map[string]string) (*model.Cart, string, error)

	// RemoveItem removes a line by its cart item key.
	RemoveItem(ctx context.Context, session, key string) (*model.Cart, string, error)

	// UpdateItemQuantity sets the quantity for a line. Quantity zero
	// removes the line.
	UpdateItemQuantity(ctx context.Context, session, key string, quantity int) (*model.Cart, string, error)

	// ApplyCoupon applies a coupon code.
	ApplyCoupon(ctx context.Context, session, code string) (*model.Cart, string, error)

	// RemoveCoupon removes an applied coupon code.
	RemoveCoupon(ctx context.Context, session, code string) (*model.Cart, string, error)

	// UpdateShippingMethod selects a shipping rate.
	UpdateShippingMethod(ctx context.Context, session, methodID string) (*model.Cart, string, error)

	// EmptyCart removes every line and coupon.
	EmptyCart(ctx context.Context, session string) (*model.Cart, string, error)

	// Checkout submits the checkout mutation for the session's cart.
	Checkout(ctx context.Context, session string, draft *model.OrderDraft) (*model.CheckoutPayload, string, error)

	// Login authenticates a customer and returns their session token.
	Login(ctx context.Context, username, password string) (string, error)
}
