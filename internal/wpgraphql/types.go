package wpgraphql

import (
	"storefront-bff/internal/model"
)

// === WooGraphQL response shapes ===
//
// WooGraphQL wraps lists in { nodes: [...] } connections and nests product
// references behind { node: {...} } edges. These types mirror that shape;
// toCart flattens them into the model.Cart snapshot.

type gqlCart struct {
	Contents struct {
		Nodes []gqlCartItem `json:"nodes"`
	} `json:"contents"`
	AppliedCoupons []struct {
		Code           string `json:"code"`
		DiscountAmount string `json:"discountAmount"`
	} `json:"appliedCoupons"`
	ChosenShippingMethods    []string `json:"chosenShippingMethods"`
	AvailableShippingMethods []struct {
		Rates []struct {
			ID    string `json:"id"`
			Label string `json:"label"`
			Cost  string `json:"cost"`
		} `json:"rates"`
	} `json:"availableShippingMethods"`
	Subtotal      string `json:"subtotal"`
	SubtotalTax   string `json:"subtotalTax"`
	ShippingTotal string `json:"shippingTotal"`
	DiscountTotal string `json:"discountTotal"`
	TotalTax      string `json:"totalTax"`
	Total         string `json:"total"`
	IsEmpty       bool   `json:"isEmpty"`
}

type gqlCartItem struct {
	Key     string `json:"key"`
	Product struct {
		Node struct {
			DatabaseID int    `json:"databaseId"`
			Name       string `json:"name"`
			SKU        string `json:"sku"`
			Image      struct {
				SourceURL string `json:"sourceUrl"`
			} `json:"image"`
			Price string `json:"price"`
		} `json:"node"`
	} `json:"product"`
	Variation struct {
		Node struct {
			DatabaseID int `json:"databaseId"`
		} `json:"node"`
	} `json:"variation"`
	Quantity    int    `json:"quantity"`
	Subtotal    string `json:"subtotal"`
	SubtotalTax string `json:"subtotalTax"`
	Total       string `json:"total"`
	Tax         string `json:"tax"`
}

// toCart flattens the GraphQL cart shape into the model snapshot.
func (g *gqlCart) toCart() *model.Cart {
	cart := &model.Cart{
		Subtotal:      g.Subtotal,
		SubtotalTax:   g.SubtotalTax,
		ShippingTotal: g.ShippingTotal,
		DiscountTotal: g.DiscountTotal,
		TotalTax:      g.TotalTax,
		Total:         g.Total,
		IsEmpty:       g.IsEmpty,
		Contents:      make([]model.CartItem, 0, len(g.Contents.Nodes)),
	}

	for _, node := range g.Contents.Nodes {
		cart.Contents = append(cart.Contents, model.CartItem{
			Key:         node.Key,
			ProductID:   node.Product.Node.DatabaseID,
			VariationID: node.Variation.Node.DatabaseID,
			Name:        node.Product.Node.Name,
			Quantity:    node.Quantity,
			UnitPrice:   node.Product.Node.Price,
			Subtotal:    node.Subtotal,
			Total:       node.Total,
			Tax:         node.Tax,
			SKU:         node.Product.Node.SKU,
			Image:       node.Product.Node.Image.SourceURL,
		})
	}

	for _, coupon := range g.AppliedCoupons {
		cart.AppliedCoupons = append(cart.AppliedCoupons, model.AppliedCoupon{
			Code:           coupon.Code,
			DiscountAmount: coupon.DiscountAmount,
		})
	}

	if len(g.ChosenShippingMethods) > 0 {
		cart.ChosenShipping = g.ChosenShippingMethods[0]
	}
	for _, pkg := range g.AvailableShippingMethods {
		for _, rate := range pkg.Rates {
			cart.ShippingMethods = append(cart.ShippingMethods, model.ShippingMethod{
				ID:    rate.ID,
				Label: rate.Label,
				Cost:  rate.Cost,
			})
		}
	}

	return cart
}

// gqlAddress is the address input shape for checkout/createOrder mutations.
type gqlAddress struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Company   string `json:"company,omitempty"`
	Address1  string `json:"address1"`
	Address2  string `json:"address2,omitempty"`
	City      string `json:"city"`
	State     string `json:"state"`
	Postcode  string `json:"postcode"`
	Country   string `json:"country"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// addressInput converts a model address, sanitizing the city field along
// the way (the backend rejects cities carrying a province suffix).
func addressInput(a model.Address) gqlAddress {
	a = a.Sanitized()
	return gqlAddress{
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Company:   a.Company,
		Address1:  a.Address1,
		Address2:  a.Address2,
		City:      a.City,
		State:     a.State,
		Postcode:  a.Postcode,
		Country:   a.Country,
		Email:     a.Email,
		Phone:     a.Phone,
	}
}

// metaDataInput converts a key/value bag to WooGraphQL metaData entries.
func metaDataInput(meta map[string]string) []map[string]string {
	if len(meta) == 0 {
		return nil
	}
	entries := make([]map[string]string, 0, len(meta))
	for k, v := range meta {
		entries = append(entries, map[string]string{"key": k, "value": v})
	}
	return entries
}
