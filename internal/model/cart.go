// Package model defines the shared types for the storefront BFF:
// the cart snapshot mirrored from WooCommerce, order drafts built during
// checkout, and the structured error taxonomy.
package model

// Cart is the client-visible snapshot of the server-owned WooCommerce cart.
// The backend is authoritative: every mutation replaces the whole snapshot
// with the server's response. All money fields are decimal strings as
// returned by WooGraphQL (e.g. "129.99").
type Cart struct {
	Contents        []CartItem       `json:"contents"`
	AppliedCoupons  []AppliedCoupon  `json:"appliedCoupons"`
	ChosenShipping  string           `json:"chosenShippingMethod,omitempty"`
	ShippingMethods []ShippingMethod `json:"availableShippingMethods,omitempty"`
	Subtotal        string           `json:"subtotal"`
	SubtotalTax     string           `json:"subtotalTax"`
	ShippingTotal   string           `json:"shippingTotal"`
	DiscountTotal   string           `json:"discountTotal"`
	TotalTax        string           `json:"totalTax"`
	Total           string           `json:"total"`
	IsEmpty         bool             `json:"isEmpty"`
}

// CartItem is one line in the cart.
type CartItem struct {
	Key         string `json:"key"` // server-issued cart item key
	ProductID   int    `json:"productId"`
	VariationID int    `json:"variationId,omitempty"`
	Name        string `json:"name"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unitPrice"`
	Subtotal    string `json:"subtotal"` // unit price * quantity, pre-discount
	Total       string `json:"total"`    // after discounts, tax-exclusive
	Tax         string `json:"tax"`
	SKU         string `json:"sku,omitempty"`
	Image       string `json:"image,omitempty"`
}

// AppliedCoupon is a coupon currently applied to the cart.
type AppliedCoupon struct {
	Code           string `json:"code"`
	DiscountAmount string `json:"discountAmount"`
}

// ShippingMethod is a rate the buyer can choose.
type ShippingMethod struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Cost  string `json:"cost"`
}

// ItemCount returns the total quantity across all lines.
func (c *Cart) ItemCount() int {
	n := 0
	for _, item := range c.Contents {
		n += item.Quantity
	}
	return n
}

// FindItem returns the line with the given cart item key, or nil.
func (c *Cart) FindItem(key string) *CartItem {
	for i := range c.Contents {
		if c.Contents[i].Key == key {
			return &c.Contents[i]
		}
	}
	return nil
}

// HasCoupon reports whether a coupon code is applied (codes are
// case-insensitive in WooCommerce, stored lowercase).
func (c *Cart) HasCoupon(code string) bool {
	for _, coupon := range c.AppliedCoupons {
		if coupon.Code == code {
			return true
		}
	}
	return false
}

// ProductSummary is the product projection stored under the
// products-list cache key and used for sitemap/SEO generation.
type ProductSummary struct {
	ID          int    `json:"id"`
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Price       string `json:"price"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
	ModifiedAt  string `json:"modifiedAt,omitempty"` // RFC 3339
}

// CategorySummary is the category projection stored under the
// categories-list cache key.
type CategorySummary struct {
	Slug  string `json:"slug"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}
