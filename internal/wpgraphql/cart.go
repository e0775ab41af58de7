package wpgraphql

import (
	"context"

	"storefront-bff/internal/model"
)

// The cart methods implement backend.Backend. Every mutation returns the
// full cart from the server; local state is never computed client-side.

type cartEnvelope struct {
	Cart *gqlCart `json:"cart"`
}

// mutation payloads all nest the cart one level down.
type mutationEnvelope struct {
	AddToCart            *cartEnvelope `json:"addToCart,omitempty"`
	RemoveItemsFromCart  *cartEnvelope `json:"removeItemsFromCart,omitempty"`
	UpdateItemQuantities *cartEnvelope `json:"updateItemQuantities,omitempty"`
	ApplyCoupon          *cartEnvelope `json:"applyCoupon,omitempty"`
	RemoveCoupons        *cartEnvelope `json:"removeCoupons,omitempty"`
	UpdateShippingMethod *cartEnvelope `json:"updateShippingMethod,omitempty"`
	EmptyCart            *cartEnvelope `json:"emptyCart,omitempty"`
}

// cart extracts whichever mutation payload is present.
func (e *mutationEnvelope) cart() *gqlCart {
	for _, env := range []*cartEnvelope{
		e.AddToCart, e.RemoveItemsFromCart, e.UpdateItemQuantities,
		e.ApplyCoupon, e.RemoveCoupons, e.UpdateShippingMethod, e.EmptyCart,
	} {
		if env != nil && env.Cart != nil {
			return env.Cart
		}
	}
	return nil
}

// runCartMutation executes a cart mutation and returns the new snapshot.
func (c *Client) runCartMutation(ctx context.Context, session, query string, variables map[string]any) (*model.Cart, string, error) {
	var envelope mutationEnvelope
	newSession, err := c.do(ctx, session, query, variables, &envelope)
	if err != nil {
		return nil, newSession, err
	}

	gql := envelope.cart()
	if gql == nil {
		return nil, newSession, model.NewUpstreamError("WPGraphQL", errNoCart)
	}
	return gql.toCart(), newSession, nil
}

// GetCart fetches the current cart snapshot.
func (c *Client) GetCart(ctx context.Context, session string) (*model.Cart, string, error) {
	var envelope cartEnvelope
	newSession, err := c.do(ctx, session, queryGetCart, nil, &envelope)
	if err != nil {
		return nil, newSession, err
	}
	if envelope.Cart == nil {
		return nil, newSession, model.NewUpstreamError("WPGraphQL", errNoCart)
	}
	return envelope.Cart.toCart(), newSession, nil
}

// AddToCart adds a product or variation to the cart.
func (c *Client) AddToCart(ctx context.Context, session string, productID, quantity, variationID int, extra map[string]string) (*model.Cart, string, error) {
	input := map[string]any{
		"productId": productID,
		"quantity":  quantity,
	}
	if variationID > 0 {
		input["variationId"] = variationID
	}
	if len(extra) > 0 {
		input["extraData"] = extra
	}

	return c.runCartMutation(ctx, session, mutationAddToCart, map[string]any{"input": input})
}

// RemoveItem removes a line by cart item key.
func (c *Client) RemoveItem(ctx context.Context, session, key string) (*model.Cart, string, error) {
	return c.runCartMutation(ctx, session, mutationRemoveItems, map[string]any{
		"input": map[string]any{"keys": []string{key}},
	})
}

// UpdateItemQuantity sets the quantity for a line.
func (c *Client) UpdateItemQuantity(ctx context.Context, session, key string, quantity int) (*model.Cart, string, error) {
	return c.runCartMutation(ctx, session, mutationUpdateQuantities, map[string]any{
		"input": map[string]any{
			"items": []map[string]any{{"key": key, "quantity": quantity}},
		},
	})
}

// ApplyCoupon applies a coupon code.
func (c *Client) ApplyCoupon(ctx context.Context, session, code string) (*model.Cart, string, error) {
	return c.runCartMutation(ctx, session, mutationApplyCoupon, map[string]any{
		"input": map[string]any{"code": code},
	})
}

// RemoveCoupon removes an applied coupon.
func (c *Client) RemoveCoupon(ctx context.Context, session, code string) (*model.Cart, string, error) {
	return c.runCartMutation(ctx, session, mutationRemoveCoupons, map[string]any{
		"input": map[string]any{"codes": []string{code}},
	})
}

// UpdateShippingMethod selects a shipping rate.
func (c *Client) UpdateShippingMethod(ctx context.Context, session, methodID string) (*model.Cart, string, error) {
	return c.runCartMutation(ctx, session, mutationUpdateShippingMethod, map[string]any{
		"input": map[string]any{"shippingMethods": []string{methodID}},
	})
}

// EmptyCart removes every line and coupon.
func (c *Client) EmptyCart(ctx context.Context, session string) (*model.Cart, string, error) {
	return c.runCartMutation(ctx, session, mutationEmptyCart, nil)
}
