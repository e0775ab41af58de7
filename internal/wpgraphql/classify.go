package wpgraphql

import "strings"

// ErrorClass buckets upstream GraphQL business errors by recovery action.
// The backend returns no typed codes, only message text, so classification
// is substring-based, centralized here so call sites switch on a class
// instead of scattering string matching.
type ErrorClass int

const (
	// ClassUnknown means no recovery rule applies; surface a generic message.
	ClassUnknown ErrorClass = iota

	// ClassSession means the session token was rejected. The checkout
	// flow refreshes the session and retries exactly once.
	ClassSession

	// ClassStock means stock or quantity limits blocked the mutation.
	// These messages are descriptive enough to show verbatim.
	ClassStock

	// ClassCoupon means a coupon code was invalid or expired.
	ClassCoupon

	// ClassAccountExists means checkout-time account creation failed
	// because the email is already registered.
	ClassAccountExists
)

// stock-related phrases the backend is known to emit.
var stockPhrases = []string{
	"out of stock",
	"not enough stock",
	"stock",
	"quantity",
	"maximum allowed",
	"you cannot add that amount",
}

var sessionPhrases = []string{
	"no session found",
	"session expired",
	"expired token",
	"invalid session",
}

var accountPhrases = []string{
	"already registered",
	"an account is already registered",
}

// Classify buckets an error by its message text. Nil errors classify as
// ClassUnknown.
func Classify(err error) ErrorClass {
	if err == nil {
		return ClassUnknown
	}
	msg := strings.ToLower(err.Error())

	for _, phrase := range sessionPhrases {
		if strings.Contains(msg, phrase) {
			return ClassSession
		}
	}
	for _, phrase := range accountPhrases {
		if strings.Contains(msg, phrase) {
			return ClassAccountExists
		}
	}
	for _, phrase := range stockPhrases {
		if strings.Contains(msg, phrase) {
			return ClassStock
		}
	}
	if strings.Contains(msg, "coupon") {
		return ClassCoupon
	}

	return ClassUnknown
}
