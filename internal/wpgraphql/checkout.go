package wpgraphql

import (
	"context"

	"storefront-bff/internal/model"
)

type checkoutEnvelope struct {
	Checkout *struct {
		Result   string `json:"result"`
		Redirect string `json:"redirect"`
		Order    *struct {
			DatabaseID int    `json:"databaseId"`
			OrderKey   string `json:"orderKey"`
			Status     string `json:"status"`
			Total      string `json:"total"`
		} `json:"order"`
	} `json:"checkout"`
}

type loginEnvelope struct {
	Login *struct {
		AuthToken string `json:"authToken"`
		Customer  *struct {
			SessionToken string `json:"sessionToken"`
		} `json:"customer"`
	} `json:"login"`
}

// Checkout submits the checkout mutation for the session's cart. The cart
// contents, totals and shipping selection come from the server session;
// the draft supplies addresses, payment method and metadata.
func (c *Client) Checkout(ctx context.Context, session string, draft *model.OrderDraft) (*model.CheckoutPayload, string, error) {
	input := map[string]any{
		"billing":                addressInput(draft.Billing),
		"paymentMethod":          draft.PaymentMethod,
		"shipToDifferentAddress": draft.ShipToDifferentAddress,
		"isPaid":                 draft.IsPaid,
	}
	if draft.ShipToDifferentAddress {
		input["shipping"] = addressInput(draft.Shipping)
	}
	if draft.CustomerNote != "" {
		input["customerNote"] = draft.CustomerNote
	}
	if draft.TransactionID != "" {
		input["transactionId"] = draft.TransactionID
	}
	if draft.Account != nil {
		input["account"] = map[string]string{
			"username": draft.Account.Username,
			"password": draft.Account.Password,
		}
	}

	meta := draft.Attribution.Fields()
	if draft.CardToken != "" {
		meta["_card_token"] = draft.CardToken
	}
	if entries := metaDataInput(meta); entries != nil {
		input["metaData"] = entries
	}

	var envelope checkoutEnvelope
	newSession, err := c.do(ctx, session, mutationCheckout, map[string]any{"input": input}, &envelope)
	if err != nil {
		return nil, newSession, err
	}
	if envelope.Checkout == nil {
		return nil, newSession, model.NewUpstreamMessageError("checkout returned no payload")
	}

	payload := &model.CheckoutPayload{
		Result:   envelope.Checkout.Result,
		Redirect: envelope.Checkout.Redirect,
	}
	if envelope.Checkout.Order != nil {
		payload.OrderID = envelope.Checkout.Order.DatabaseID
		payload.OrderKey = envelope.Checkout.Order.OrderKey
	}
	return payload, newSession, nil
}

// Login authenticates a customer and returns their session token, used
// after checkout-time account creation so the buyer lands logged in.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var envelope loginEnvelope
	_, err := c.do(ctx, "", mutationLogin, map[string]any{
		"input": map[string]string{
			"username": username,
			"password": password,
		},
	}, &envelope)
	if err != nil {
		return "", err
	}
	if envelope.Login == nil || envelope.Login.Customer == nil {
		return "", model.NewUnauthorizedError("login failed")
	}
	return envelope.Login.Customer.SessionToken, nil
}
