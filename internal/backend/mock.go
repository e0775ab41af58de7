package backend

import (
	"context"

	"storefront-bff/internal/model"
)

// Mock implements Backend for testing.
// Each method can be configured via function fields; unset cart mutations
// fall back to returning an empty cart with the same session.
type Mock struct {
	GetCartFunc              func(ctx context.Context, session string) (*model.Cart, string, error)
	AddToCartFunc            func(ctx context.Context, session string, productID, quantity, variationID int, extra map[string]string) (*model.Cart, string, error)
	RemoveItemFunc           func(ctx context.Context, session, key string) (*model.Cart, string, error)
	UpdateItemQuantityFunc   func(ctx context.Context, session, key string, quantity int) (*model.Cart, string, error)
	ApplyCouponFunc          func(ctx context.Context, session, code string) (*model.Cart, string, error)
	RemoveCouponFunc         func(ctx context.Context, session, code string) (*model.Cart, string, error)
	UpdateShippingMethodFunc func(ctx context.Context, session, methodID string) (*model.Cart, string, error)
	EmptyCartFunc            func(ctx context.Context, session string) (*model.Cart, string, error)
	CheckoutFunc             func(ctx context.Context, session string, draft *model.OrderDraft) (*model.CheckoutPayload, string, error)
	LoginFunc                func(ctx context.Context, username, password string) (string, error)

	// Calls records invoked method names in order, for asserting
	// sequencing (e.g. admin path before checkout mutation).
	Calls []string
}

func (m *Mock) record(name string) {
	m.Calls = append(m.Calls, name)
}

func (m *Mock) GetCart(ctx context.Context, session string) (*model.Cart, string, error) {
	m.record("GetCart")
	if m.GetCartFunc != nil {
		return m.GetCartFunc(ctx, session)
	}
	return &model.Cart{IsEmpty: true}, session, nil
}

func (m *Mock) AddToCart(ctx context.Context, session string, productID, quantity, variationID int, extra map[string]string) (*model.Cart, string, error) {
	m.record("AddToCart")
	if m.AddToCartFunc != nil {
		return m.AddToCartFunc(ctx, session, productID, quantity, variationID, extra)
	}
	return &model.Cart{IsEmpty: true}, session, nil
}

func (m *Mock) RemoveItem(ctx context.Context, session, key string) (*model.Cart, string, error) {
	m.record("RemoveItem")
	if m.RemoveItemFunc != nil {
		return m.RemoveItemFunc(ctx, session, key)
	}
	return &model.Cart{IsEmpty: true}, session, nil
}

func (m *Mock) UpdateItemQuantity(ctx context.Context, session, key string, quantity int) (*model.Cart, string, error) {
	m.record("UpdateItemQuantity")
	if m.UpdateItemQuantityFunc != nil {
		return m.UpdateItemQuantityFunc(ctx, session, key, quantity)
	}
	return &model.Cart{IsEmpty: true}, session, nil
}

func (m *Mock) ApplyCoupon(ctx context.Context, session, code string) (*model.Cart, string, error) {
	m.record("ApplyCoupon")
	if m.ApplyCouponFunc != nil {
		return m.ApplyCouponFunc(ctx, session, code)
	}
	return &model.Cart{IsEmpty: true}, session, nil
}

func (m *Mock) RemoveCoupon(ctx context.Context, session, code string) (*model.Cart, string, error) {
	m.record("RemoveCoupon")
	if m.RemoveCouponFunc != nil {
		return m.RemoveCouponFunc(ctx, session, code)
	}
	return &model.Cart{IsEmpty: true}, session, nil
}

func (m *Mock) UpdateShippingMethod(ctx context.Context, session, methodID string) (*model.Cart, string, error) {
	m.record("UpdateShippingMethod")
	if m.UpdateShippingMethodFunc != nil {
		return m.UpdateShippingMethodFunc(ctx, session, methodID)
	}
	return &model.Cart{IsEmpty: true}, session, nil
}

func (m *Mock) EmptyCart(ctx context.Context, session string) (*model.Cart, string, error) {
	m.record("EmptyCart")
	if m.EmptyCartFunc != nil {
		return m.EmptyCartFunc(ctx, session)
	}
	return &model.Cart{IsEmpty: true}, session, nil
}

func (m *Mock) Checkout(ctx context.Context, session string, draft *model.OrderDraft) (*model.CheckoutPayload, string, error) {
	m.record("Checkout")
	if m.CheckoutFunc != nil {
		return m.CheckoutFunc(ctx, session, draft)
	}
	return nil, session, model.NewInternalError(nil)
}

func (m *Mock) Login(ctx context.Context, username, password string) (string, error) {
	m.record("Login")
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, username, password)
	}
	return "", model.NewUnauthorizedError("login not configured")
}
