// Package wprest is the client for the WooCommerce REST API (wc/v3),
// authenticated with an admin application password over HTTP Basic auth.
// GraphQL handles order creation; this client exists for the one thing
// WooGraphQL cannot do reliably, the post-creation status patch.
package wprest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"storefront-bff/internal/model"
	"storefront-bff/internal/retry"
	"storefront-bff/internal/transport"
)

// restAPIPath is the base path for WooCommerce REST API v3 endpoints.
const restAPIPath = "/wp-json/wc/v3"

const userAgent = "Storefront-BFF/1.0"

// Client is the wc/v3 REST HTTP client.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	username    string
	appPassword string
}

// New creates a wc/v3 client for the given WordPress base URL.
func New(baseURL, username, appPassword string) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if username == "" || appPassword == "" {
		return nil, fmt.Errorf("admin credentials are required")
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport.NewChromeTransport(30 * time.Second),
		},
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		username:    username,
		appPassword: appPassword,
	}, nil
}

// orderPatch is the wc/v3 PUT body for an order status update.
type orderPatch struct {
	Status        string      `json:"status"`
	SetPaid       bool        `json:"set_paid"`
	TransactionID string      `json:"transaction_id,omitempty"`
	MetaData      []orderMeta `json:"meta_data,omitempty"`
}

type orderMeta struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// patchPolicy: the patch is a small follow-up write; two quick retries.
var patchPolicy = retry.Policy{
	Attempts:       3,
	Delays:         []time.Duration{1 * time.Second, 2 * time.Second},
	AttemptTimeout: 30 * time.Second,
}

// PatchOrderStatus updates an order to the given status and marks it paid,
// carrying the transaction ID and any extra metadata. Used as phase two of
// admin order creation (PENDING create, then patch to processing).
func (c *Client) PatchOrderStatus(ctx context.Context, orderID int, status, transactionID string, meta map[string]string) error {
	patch := orderPatch{
		Status:        status,
		SetPaid:       true,
		TransactionID: transactionID,
	}
	for k, v := range meta {
		patch.MetaData = append(patch.MetaData, orderMeta{Key: k, Value: v})
	}

	body, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("marshaling patch: %w", err)
	}

	url := fmt.Sprintf("%s%s/orders/%d", c.baseURL, restAPIPath, orderID)

	return retry.Do(ctx, patchPolicy, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", userAgent)
		req.SetBasicAuth(c.username, c.appPassword)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return model.NewUpstreamError("WooCommerce REST", err)
		}
		defer resp.Body.Close()

		// Drain body to allow connection reuse
		respBody, _ := io.ReadAll(resp.Body)

		if resp.StatusCode >= 400 {
			return parseErrorResponse(resp.StatusCode, respBody)
		}
		return nil
	})
}

// restError is the wc/v3 error body shape.
type restError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// parseErrorResponse converts a wc/v3 error to an APIError.
func parseErrorResponse(statusCode int, body []byte) error {
	var restErr restError
	json.Unmarshal(body, &restErr) // Best effort parse

	switch statusCode {
	case 404:
		return model.NewNotFoundError("order")
	case 401, 403:
		return model.NewUnauthorizedError("WooCommerce REST authentication failed")
	case 429:
		return model.NewRateLimitError("WooCommerce REST")
	default:
		return model.NewUpstreamError("WooCommerce REST",
			fmt.Errorf("status %d: %s - %s", statusCode, restErr.Code, restErr.Message))
	}
}
