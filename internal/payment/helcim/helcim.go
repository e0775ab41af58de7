// Package helcim integrates HelcimPay.js. The server's part is small:
// initialize a checkout session so the API token never reaches the
// browser, and verify the transaction hash Helcim returns after the
// client-side capture.
package helcim

import (
	"bytes"
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"storefront-bff/internal/model"
)

const initializeURL = "https://api.helcim.com/v2/helcim-pay/initialize"

// Client talks to the Helcim API.
type Client struct {
	httpClient *http.Client
	apiToken   string
	url        string
}

// New creates a client with the account API token.
func New(apiToken string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		apiToken:   apiToken,
		url:        initializeURL,
	}
}

// SetEndpoint overrides the initialize URL. Test hook.
func (c *Client) SetEndpoint(url string) { c.url = url }

// InitializeRequest starts one HelcimPay.js session.
type InitializeRequest struct {
	// PaymentType is "purchase" for immediate capture or "verify" for
	// card tokenization only.
	PaymentType string `json:"paymentType"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
}

// InitializeResponse carries the tokens HelcimPay.js needs. SecretToken
// must stay server-side; it keys the response hash validation.
type InitializeResponse struct {
	CheckoutToken string `json:"checkoutToken"`
	SecretToken   string `json:"secretToken"`
}

// Initialize creates a HelcimPay.js checkout session.
func (c *Client) Initialize(ctx context.Context, req InitializeRequest) (*InitializeResponse, error) {
	if req.PaymentType == "" {
		req.PaymentType = "purchase"
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal initialize request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("api-token", c.apiToken)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, model.NewUpstreamError("helcim", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, model.NewUpstreamError("helcim", fmt.Errorf("initialize returned %d", resp.StatusCode))
	}

	var out InitializeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, model.NewUpstreamError("helcim", fmt.Errorf("decode initialize response: %w", err))
	}
	if out.CheckoutToken == "" || out.SecretToken == "" {
		return nil, model.NewUpstreamError("helcim", fmt.Errorf("initialize response missing tokens"))
	}
	return &out, nil
}

// ValidateHash verifies the transaction response hash HelcimPay.js posts
// back: sha256 over the raw transaction JSON concatenated with the
// session's secret token. A mismatch means the response was tampered with
// in the browser.
func ValidateHash(rawTransaction []byte, secretToken, reportedHash string) bool {
	sum := sha256.Sum256(append(append([]byte{}, rawTransaction...), []byte(secretToken)...))
	expected := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(expected), []byte(reportedHash)) == 1
}
