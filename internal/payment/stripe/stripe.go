// Package stripe creates the payment and setup intents the frontend's
// Stripe Elements flow confirms client-side.
package stripe

import (
	"fmt"
	"strconv"
	"strings"

	stripeapi "github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/client"

	"storefront-bff/internal/model"
)

// Service wraps the Stripe API client.
type Service struct {
	api *client.API
}

// New creates a service from the secret key.
func New(secretKey string) *Service {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &Service{api: api}
}

// Intent is the client-facing projection of a created intent.
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"clientSecret"`
}

// CreatePaymentIntent creates a payment intent for the cart total. amount
// is a decimal string (e.g. "129.99"); currency is a lowercase ISO code.
func (s *Service) CreatePaymentIntent(amount, currency string) (*Intent, error) {
	cents, err := toMinorUnits(amount)
	if err != nil {
		return nil, model.NewValidationError("amount", err.Error())
	}

	params := &stripeapi.PaymentIntentParams{
		Amount:   stripeapi.Int64(cents),
		Currency: stripeapi.String(strings.ToLower(currency)),
		AutomaticPaymentMethods: &stripeapi.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripeapi.Bool(true),
		},
	}
	pi, err := s.api.PaymentIntents.New(params)
	if err != nil {
		return nil, model.NewUpstreamError("stripe", err)
	}
	return &Intent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

// CreateSetupIntent creates a setup intent for saving a card without an
// immediate charge.
func (s *Service) CreateSetupIntent() (*Intent, error) {
	params := &stripeapi.SetupIntentParams{
		PaymentMethodTypes: stripeapi.StringSlice([]string{"card"}),
	}
	si, err := s.api.SetupIntents.New(params)
	if err != nil {
		return nil, model.NewUpstreamError("stripe", err)
	}
	return &Intent{ID: si.ID, ClientSecret: si.ClientSecret}, nil
}

// toMinorUnits converts a decimal amount string to integer cents without
// floating point drift.
func toMinorUnits(amount string) (int64, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return 0, fmt.Errorf("amount is empty")
	}
	// ParseInt("-0") is 0, which would drop the sign on "-0.99".
	if strings.HasPrefix(amount, "-") {
		return 0, fmt.Errorf("amount must be positive")
	}

	whole, frac, _ := strings.Cut(amount, ".")
	switch len(frac) {
	case 0:
		frac = "00"
	case 1:
		frac += "0"
	case 2:
	default:
		frac = frac[:2]
	}

	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", amount)
	}
	cents, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", amount)
	}
	if units < 0 {
		return 0, fmt.Errorf("amount must be positive")
	}
	return units*100 + cents, nil
}
