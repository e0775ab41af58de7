// Package wpgraphql implements the client for the WordPress GraphQL
// backend (WPGraphQL + WooGraphQL). All WooCommerce-specific GraphQL
// documents, response types and session handling live here.
package wpgraphql

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"storefront-bff/internal/model"
	"storefront-bff/internal/transport"
)

// =============================================================================
// SESSION TOKEN STRATEGY
// =============================================================================
//
// WooGraphQL binds the cart to a session carried in the woocommerce-session
// header ("Session <jwt>"). The token ROTATES: many responses include a
// fresh token in the woocommerce-session response header, and the old one
// may be rejected afterwards.
//
// The client therefore returns the effective token from every call and the
// caller (cart session / checkout orchestrator) threads it through,
// ultimately writing it back to the browser cookie. When no rotated token
// is returned, the request token remains valid and is passed through.
//
// This rotation is also why the checkout flow refreshes the cart right
// before the checkout mutation, and why a "no session found" error gets
// exactly one refresh-and-retry.
// =============================================================================

// sessionHeader is the header WooGraphQL uses for cart sessions.
const sessionHeader = "woocommerce-session"

// errNoCart signals a well-formed response that is missing the cart payload.
var errNoCart = errors.New("no cart in response")

// userAgent identifies this client to upstream servers.
// Required: the WordPress CDN/WAF rate-limits requests without User-Agent.
const userAgent = "Storefront-BFF/1.0"

// Client is the WPGraphQL HTTP client for buyer-session operations.
type Client struct {
	httpClient *http.Client
	endpoint   string
}

// New creates a WPGraphQL client for the given endpoint.
func New(endpoint string) (*Client, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("graphql endpoint is required")
	}

	// Chrome TLS fingerprint transport: the WordPress host's WAF
	// rate-limits default Go TLS clients. See internal/transport.
	return &Client{
		httpClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport.NewChromeTransport(30 * time.Second),
		},
		endpoint: endpoint,
	}, nil
}

// graphqlRequest is the JSON body of a GraphQL POST.
type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// graphqlError is one entry in a GraphQL errors array.
type graphqlError struct {
	Message string `json:"message"`
}

// graphqlEnvelope is the standard GraphQL response envelope.
type graphqlEnvelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphqlError  `json:"errors,omitempty"`
}

// do executes a GraphQL request under the given session token and decodes
// the data payload into out. Returns the effective session token: the
// rotated token from the response header when present, the request token
// otherwise.
//
// GraphQL-level errors are returned as *model.APIError preserving the
// upstream message; see Classify for recovery decisions.
func (c *Client) do(ctx context.Context, session, query string, variables map[string]any, out any) (string, error) {
	req, err := c.newRequest(ctx, query, variables)
	if err != nil {
		return session, err
	}
	if session != "" {
		req.Header.Set(sessionHeader, "Session "+session)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return session, model.NewUpstreamError("WPGraphQL", err)
	}
	defer resp.Body.Close()

	// Capture rotated session token before anything can fail.
	effective := session
	if rotated := parseSessionHeader(resp.Header.Get(sessionHeader)); rotated != "" {
		effective = rotated
	}

	return effective, c.decode(resp, out)
}

// newRequest builds a GraphQL POST with standard headers but no session.
func (c *Client) newRequest(ctx context.Context, query string, variables map[string]any) (*http.Request, error) {
	body, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req)
	return req, nil
}

// execute runs a prebuilt request (e.g. with Basic auth attached) and
// decodes the data payload into out.
func (c *Client) execute(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.NewUpstreamError("WPGraphQL", err)
	}
	defer resp.Body.Close()

	return c.decode(resp, out)
}

// decode reads the response, surfaces HTTP and GraphQL-level errors, and
// unmarshals the data payload into out.
func (c *Client) decode(resp *http.Response, out any) error {
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return parseHTTPError(resp.StatusCode, respBody)
	}

	var envelope graphqlEnvelope
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}

	if len(envelope.Errors) > 0 {
		return model.NewUpstreamMessageError(envelope.Errors[0].Message)
	}

	if out != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("parsing data: %w", err)
		}
	}

	return nil
}

// setHeaders sets standard headers for a WPGraphQL request.
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
}

// parseSessionHeader extracts the raw token from a woocommerce-session
// response header, stripping the "Session " prefix if present.
func parseSessionHeader(value string) string {
	value = strings.TrimSpace(value)
	return strings.TrimPrefix(value, "Session ")
}

// parseHTTPError converts a transport-level failure to an APIError.
func parseHTTPError(statusCode int, body []byte) error {
	switch statusCode {
	case 401, 403:
		return model.NewUnauthorizedError("WordPress authentication failed")
	case 429:
		return model.NewRateLimitError("WPGraphQL")
	default:
		return model.NewUpstreamError("WPGraphQL",
			fmt.Errorf("status %d: %s", statusCode, truncate(string(body), 200)))
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
