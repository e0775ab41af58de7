package model

// OrderDraft is the ephemeral client-built input to checkout. It is
// assembled incrementally during the checkout flow and discarded after
// submission; it never owns order storage (WooCommerce does).
type OrderDraft struct {
	Billing  Address `json:"billing"`
	Shipping Address `json:"shipping"`

	// ShipToDifferentAddress selects Shipping over Billing for fulfillment.
	ShipToDifferentAddress bool `json:"shipToDifferentAddress"`

	PaymentMethod      string `json:"paymentMethod"`      // gateway ID, e.g. "cod", "stripe"
	PaymentMethodTitle string `json:"paymentMethodTitle"` // display title, e.g. "Helcim Card Payment"
	IsPaid             bool   `json:"isPaid"`             // payment already captured client-side
	TransactionID      string `json:"transactionId,omitempty"`
	CardToken          string `json:"cardToken,omitempty"`

	CustomerNote string `json:"customerNote,omitempty"`

	// CustomerSessionToken, when present, is preferred over the
	// cookie-sourced cart session for the checkout mutation.
	CustomerSessionToken string `json:"customerSessionToken,omitempty"`

	// Account, when non-nil, requests account creation during checkout.
	Account *AccountRequest `json:"account,omitempty"`

	Attribution Attribution `json:"attribution"`
}

// AccountRequest carries the credentials for an account created at checkout.
type AccountRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Attribution carries marketing attribution tags recorded as order meta.
type Attribution struct {
	Source    string `json:"utmSource,omitempty"`
	Medium    string `json:"utmMedium,omitempty"`
	Campaign  string `json:"utmCampaign,omitempty"`
	EntryPage string `json:"entryPage,omitempty"`
}

// Fields returns the attribution tags as order meta key/value pairs,
// skipping empty values.
func (a Attribution) Fields() map[string]string {
	m := make(map[string]string, 4)
	if a.Source != "" {
		m["_utm_source"] = a.Source
	}
	if a.Medium != "" {
		m["_utm_medium"] = a.Medium
	}
	if a.Campaign != "" {
		m["_utm_campaign"] = a.Campaign
	}
	if a.EntryPage != "" {
		m["_entry_page"] = a.EntryPage
	}
	return m
}

// Order is the projection of a WooCommerce order this service works with.
// WooCommerce remains the system of record; we only request creation and
// status patches.
type Order struct {
	ID       int    `json:"id"`
	OrderKey string `json:"orderKey"`
	Status   string `json:"status"`
	Total    string `json:"total"`
	Currency string `json:"currency,omitempty"`
	Email    string `json:"email,omitempty"`
}

// OrderLineItem is a line in an admin-created order. Totals are
// tax-exclusive and pre-computed by the caller: WooCommerce applies tax on
// top of the provided total, so callers must pre-subtract tax to avoid
// double taxation.
type OrderLineItem struct {
	ProductID   int    `json:"productId"`
	VariationID int    `json:"variationId,omitempty"`
	Quantity    int    `json:"quantity"`
	Subtotal    string `json:"subtotal"`
	Total       string `json:"total"`
}

// AdminOrderInput is the input to admin-authenticated order creation.
type AdminOrderInput struct {
	Billing      Address           `json:"billing"`
	Shipping     Address           `json:"shipping"`
	LineItems    []OrderLineItem   `json:"lineItems"`
	ShippingLine ShippingLine      `json:"shippingLine"`
	CustomerNote string            `json:"customerNote,omitempty"`
	Meta         map[string]string `json:"meta,omitempty"`
}

// ShippingLine is the shipping charge attached to an admin-created order.
type ShippingLine struct {
	MethodID    string `json:"methodId"`
	MethodTitle string `json:"methodTitle"`
	Total       string `json:"total"` // tax-exclusive
}

// CheckoutResult is the structured outcome of ProcessCheckout. The
// orchestrator never lets an error escape its boundary; failures are
// always converted into a result with Success=false.
type CheckoutResult struct {
	Success       bool   `json:"success"`
	OrderID       int    `json:"orderId,omitempty"`
	OrderKey      string `json:"orderKey,omitempty"`
	RedirectURL   string `json:"redirectUrl,omitempty"`
	ErrorMessage  string `json:"errorMessage,omitempty"`
	AccountExists bool   `json:"accountExists,omitempty"`
}

// CheckoutPayload is the backend's response to the checkout mutation.
type CheckoutPayload struct {
	Result   string `json:"result"` // "success" or "fail"
	OrderID  int    `json:"orderId"`
	OrderKey string `json:"orderKey"`
	Redirect string `json:"redirect,omitempty"`
}
