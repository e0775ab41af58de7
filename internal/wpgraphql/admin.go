package wpgraphql

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"storefront-bff/internal/model"
	"storefront-bff/internal/transport"
)

// AdminClient runs GraphQL mutations under WordPress admin credentials
// (application password, HTTP Basic auth) instead of a buyer session.
// Buyer-session GraphQL cannot create orders on behalf of a completed
// external payment; this client can.
type AdminClient struct {
	client      *Client
	username    string
	appPassword string
}

// NewAdmin creates an admin-authenticated GraphQL client.
func NewAdmin(endpoint, username, appPassword string) (*AdminClient, error) {
	if username == "" || appPassword == "" {
		return nil, fmt.Errorf("admin credentials are required")
	}

	inner, err := New(endpoint)
	if err != nil {
		return nil, err
	}
	// Admin mutations are heavier than cart ops; give them more room.
	inner.httpClient = &http.Client{
		Timeout:   60 * time.Second,
		Transport: transport.NewChromeTransport(60 * time.Second),
	}

	return &AdminClient{
		client:      inner,
		username:    username,
		appPassword: appPassword,
	}, nil
}

type createOrderEnvelope struct {
	CreateOrder *struct {
		Order *struct {
			DatabaseID int    `json:"databaseId"`
			OrderKey   string `json:"orderKey"`
			Status     string `json:"status"`
			Total      string `json:"total"`
		} `json:"order"`
	} `json:"createOrder"`
}

// CreateOrder creates an order with status PENDING and isPaid=false.
// Keeping the order unpaid at creation avoids premature customer emails;
// the caller patches it to processing/paid once the write has settled.
//
// Line item totals in the input are tax-exclusive: WooCommerce recomputes
// tax on top of them, so the caller pre-subtracts tax.
func (a *AdminClient) CreateOrder(ctx context.Context, input *model.AdminOrderInput) (*model.Order, error) {
	gqlInput := map[string]any{
		"status":   "PENDING",
		"isPaid":   false,
		"billing":  addressInput(input.Billing),
		"shipping": addressInput(input.Shipping),
	}

	lineItems := make([]map[string]any, 0, len(input.LineItems))
	for _, item := range input.LineItems {
		line := map[string]any{
			"productId": item.ProductID,
			"quantity":  item.Quantity,
			"subtotal":  item.Subtotal,
			"total":     item.Total,
		}
		if item.VariationID > 0 {
			line["variationId"] = item.VariationID
		}
		lineItems = append(lineItems, line)
	}
	gqlInput["lineItems"] = lineItems

	if input.ShippingLine.MethodID != "" {
		gqlInput["shippingLines"] = []map[string]any{{
			"methodId":    input.ShippingLine.MethodID,
			"methodTitle": input.ShippingLine.MethodTitle,
			"total":       input.ShippingLine.Total,
		}}
	}
	if input.CustomerNote != "" {
		gqlInput["customerNote"] = input.CustomerNote
	}
	if entries := metaDataInput(input.Meta); entries != nil {
		gqlInput["metaData"] = entries
	}

	var envelope createOrderEnvelope
	if err := a.do(ctx, mutationCreateOrder, map[string]any{"input": gqlInput}, &envelope); err != nil {
		return nil, err
	}
	if envelope.CreateOrder == nil || envelope.CreateOrder.Order == nil {
		return nil, model.NewUpstreamMessageError("createOrder returned no order")
	}

	order := envelope.CreateOrder.Order
	return &model.Order{
		ID:       order.DatabaseID,
		OrderKey: order.OrderKey,
		Status:   order.Status,
		Total:    order.Total,
		Email:    input.Billing.Email,
	}, nil
}

// do executes an admin GraphQL request with Basic auth.
func (a *AdminClient) do(ctx context.Context, query string, variables map[string]any, out any) error {
	req, err := a.client.newRequest(ctx, query, variables)
	if err != nil {
		return err
	}
	req.SetBasicAuth(a.username, a.appPassword)

	return a.client.execute(req, out)
}
