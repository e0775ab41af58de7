// Package checkout orchestrates order submission. It owns the decision
// between the two order paths: the standard WooGraphQL checkout mutation,
// and admin-side creation for payments already captured client-side.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"storefront-bff/internal/adminorder"
	"storefront-bff/internal/backend"
	"storefront-bff/internal/cart"
	"storefront-bff/internal/model"
	"storefront-bff/internal/wpgraphql"
)

// AdminOrders is the slice of the admin order service the orchestrator
// uses. Satisfied by *adminorder.Service.
type AdminOrders interface {
	Create(ctx context.Context, req adminorder.CreateRequest) adminorder.CreateResult
}

// Orchestrator runs the checkout flow for one storefront.
type Orchestrator struct {
	backend     backend.Backend
	adminOrders AdminOrders
	logger      *slog.Logger
}

// New creates an orchestrator.
func New(b backend.Backend, adminOrders AdminOrders, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		backend:     b,
		adminOrders: adminOrders,
		logger:      logger,
	}
}

// Process submits the checkout for the session's cart. It never returns a
// Go error: every failure mode maps to a CheckoutResult the handler can
// serialize as-is.
func (o *Orchestrator) Process(ctx context.Context, sess *cart.Session, draft *model.OrderDraft) model.CheckoutResult {
	snapshot, err := sess.Refresh(ctx)
	if err != nil {
		o.logger.Error("cart refresh before checkout failed", slog.String("error", err.Error()))
		return model.CheckoutResult{ErrorMessage: "could not load your cart, please try again"}
	}
	if snapshot == nil || snapshot.IsEmpty || len(snapshot.Contents) == 0 {
		return model.CheckoutResult{ErrorMessage: "your cart is empty"}
	}

	// Payments captured client-side (Helcim confirms the charge in the
	// browser) are recorded through the admin path first, keyed by
	// transaction ID. When that path fails the standard mutation still
	// runs, so a captured payment always ends up on an order.
	if usesAdminPath(draft) {
		if result, done := o.processPaid(ctx, sess, snapshot, draft); done {
			return result
		}
	}

	return o.processStandard(ctx, sess, draft)
}

// usesAdminPath reports whether the draft represents a payment already
// captured by Helcim client-side.
func usesAdminPath(draft *model.OrderDraft) bool {
	return draft.IsPaid &&
		draft.TransactionID != "" &&
		strings.Contains(draft.PaymentMethodTitle, "Helcim")
}

// processPaid records an already-captured payment as an admin-created
// order built from the current cart snapshot. done=false means the
// caller should fall back to the standard mutation.
func (o *Orchestrator) processPaid(ctx context.Context, sess *cart.Session, snapshot *model.Cart, draft *model.OrderDraft) (result model.CheckoutResult, done bool) {
	created := o.adminOrders.Create(ctx, adminorder.CreateRequest{
		TransactionID: draft.TransactionID,
		Input:         buildAdminInput(snapshot, draft),
		Email:         draft.Billing.Email,
		CartTotal:     snapshot.Total,
	})
	if !created.Success {
		if created.Idempotent {
			// Another request is recording this transaction right now.
			// Falling back here would duplicate the order.
			return model.CheckoutResult{ErrorMessage: created.Error}, true
		}
		o.logger.Warn("admin order creation failed, falling back to checkout mutation",
			slog.String("transaction_id", draft.TransactionID),
			slog.String("error", created.Error),
		)
		return model.CheckoutResult{}, false
	}

	o.clearCart(ctx, sess)

	return model.CheckoutResult{
		Success:     true,
		OrderID:     created.Order.ID,
		OrderKey:    created.Order.OrderKey,
		RedirectURL: orderReceivedURL(created.Order.ID, created.Order.OrderKey),
	}, true
}

// processStandard runs the WooGraphQL checkout mutation, retrying once on
// a rejected session.
func (o *Orchestrator) processStandard(ctx context.Context, sess *cart.Session, draft *model.OrderDraft) model.CheckoutResult {
	// A logged-in customer's token takes precedence over the anonymous
	// cart cookie so the order lands on their account.
	token := sess.Token()
	if draft.CustomerSessionToken != "" {
		token = draft.CustomerSessionToken
	}

	payload, _, err := o.backend.Checkout(ctx, token, draft)
	if err != nil && wpgraphql.Classify(err) == wpgraphql.ClassSession {
		// WooCommerce invalidates sessions behind our back (login
		// elsewhere, cron cleanup). One refresh-and-retry recovers the
		// common case without masking a genuinely broken session.
		o.logger.Warn("checkout session rejected, retrying once", slog.String("error", err.Error()))
		if _, refreshErr := sess.Refresh(ctx); refreshErr == nil {
			payload, _, err = o.backend.Checkout(ctx, sess.Token(), draft)
		}
	}
	if err != nil {
		return o.failureResult(err)
	}

	if payload.Result != "success" {
		o.logger.Warn("checkout mutation returned failure", slog.String("result", payload.Result))
		return model.CheckoutResult{ErrorMessage: "checkout could not be completed, please try again"}
	}

	// Best-effort login so an account created at checkout starts with a
	// live session. The order is already placed; a failure here only
	// means the customer logs in manually.
	if draft.Account != nil {
		if _, loginErr := o.backend.Login(ctx, draft.Billing.Email, draft.Account.Password); loginErr != nil {
			o.logger.Warn("post-checkout login failed", slog.String("error", loginErr.Error()))
		}
	}

	o.clearCart(ctx, sess)

	redirect := payload.Redirect
	if redirect == "" {
		redirect = orderReceivedURL(payload.OrderID, payload.OrderKey)
	}
	return model.CheckoutResult{
		Success:     true,
		OrderID:     payload.OrderID,
		OrderKey:    payload.OrderKey,
		RedirectURL: redirect,
	}
}

// failureResult maps a checkout error onto the result the frontend acts on.
func (o *Orchestrator) failureResult(err error) model.CheckoutResult {
	o.logger.Error("checkout failed", slog.String("error", err.Error()))

	switch wpgraphql.Classify(err) {
	case wpgraphql.ClassAccountExists:
		return model.CheckoutResult{
			AccountExists: true,
			ErrorMessage:  "an account is already registered with your email address. Please log in to continue.",
		}
	case wpgraphql.ClassStock, wpgraphql.ClassCoupon:
		var apiErr *model.APIError
		if errors.As(err, &apiErr) {
			return model.CheckoutResult{ErrorMessage: apiErr.Message}
		}
		return model.CheckoutResult{ErrorMessage: err.Error()}
	default:
		return model.CheckoutResult{ErrorMessage: "checkout could not be completed, please try again"}
	}
}

// clearCart empties the cart after a placed order. Best effort: the
// session cookie rotates on the next page load anyway.
func (o *Orchestrator) clearCart(ctx context.Context, sess *cart.Session) {
	if _, err := sess.EmptyCart(ctx); err != nil {
		o.logger.Warn("post-checkout cart clear failed", slog.String("error", err.Error()))
	}
}

// buildAdminInput projects the cart snapshot and draft into admin order
// creation input. Line totals come from the snapshot and are already
// tax-exclusive; WooCommerce re-applies tax on top.
func buildAdminInput(snapshot *model.Cart, draft *model.OrderDraft) *model.AdminOrderInput {
	lines := make([]model.OrderLineItem, 0, len(snapshot.Contents))
	for _, item := range snapshot.Contents {
		lines = append(lines, model.OrderLineItem{
			ProductID:   item.ProductID,
			VariationID: item.VariationID,
			Quantity:    item.Quantity,
			Subtotal:    item.Subtotal,
			Total:       item.Total,
		})
	}

	shipping := model.ShippingLine{
		MethodID:    snapshot.ChosenShipping,
		MethodTitle: shippingTitle(snapshot),
		Total:       snapshot.ShippingTotal,
	}

	meta := draft.Attribution.Fields()
	meta["_payment_method_title"] = draft.PaymentMethodTitle
	meta["_transaction_id"] = draft.TransactionID

	shipTo := draft.Billing
	if draft.ShipToDifferentAddress {
		shipTo = draft.Shipping
	}

	return &model.AdminOrderInput{
		Billing:      draft.Billing,
		Shipping:     shipTo,
		LineItems:    lines,
		ShippingLine: shipping,
		CustomerNote: draft.CustomerNote,
		Meta:         meta,
	}
}

// shippingTitle resolves the chosen method's display label, falling back
// to the raw method ID.
func shippingTitle(snapshot *model.Cart) string {
	for _, m := range snapshot.ShippingMethods {
		if m.ID == snapshot.ChosenShipping {
			return m.Label
		}
	}
	return snapshot.ChosenShipping
}

// orderReceivedURL is the storefront's order confirmation path.
func orderReceivedURL(orderID int, orderKey string) string {
	return fmt.Sprintf("/checkout/order-received/%d/?key=%s", orderID, orderKey)
}
