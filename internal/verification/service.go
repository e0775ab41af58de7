package verification

import (
	"context"
	"time"

	"github.com/google/uuid"

	"storefront-bff/internal/model"
)

// SessionTTL is how long a verified checkout session stays valid.
const SessionTTL = 5 * time.Minute

// Service ties Turnstile verification to checkout session lifecycle.
type Service struct {
	turnstile *TurnstileClient
	store     SessionStore

	// now is swappable for expiry tests.
	now func() time.Time
}

// NewService creates a verification service.
func NewService(turnstile *TurnstileClient, store SessionStore) *Service {
	return &Service{
		turnstile: turnstile,
		store:     store,
		now:       time.Now,
	}
}

// Verify validates a raw Turnstile token without creating a session.
func (s *Service) Verify(ctx context.Context, token, remoteIP string) (*VerifyResult, error) {
	return s.turnstile.Verify(ctx, token, remoteIP)
}

// PreVerify validates a Turnstile challenge token and, on success, mints a
// verification session the checkout flow can present later.
func (s *Service) PreVerify(ctx context.Context, token, remoteIP string) (*Session, error) {
	result, err := s.turnstile.Verify(ctx, token, remoteIP)
	if err != nil {
		return nil, err
	}
	if !result.Success {
		return nil, model.NewUnauthorizedError("challenge verification failed")
	}

	now := s.now().UTC()
	session := &Session{
		Token:              uuid.NewString(),
		Verified:           true,
		IP:                 remoteIP,
		ChallengeTimestamp: result.ChallengeTS,
		ExpiresAt:          now.Add(SessionTTL),
	}
	if session.ChallengeTimestamp.IsZero() {
		session.ChallengeTimestamp = now
	}

	if err := s.store.Put(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// ValidationResult reports whether a verification session is still good.
type ValidationResult struct {
	Valid            bool `json:"valid"`
	RemainingSeconds int  `json:"remainingSeconds,omitempty"`
	RequiresReauth   bool `json:"requiresReauth,omitempty"`
}

// ValidateSession re-checks a session's expiry. An expired or unknown
// token yields {valid:false, requiresReauth:true}, and an expired stored
// session is removed so it cannot be replayed.
func (s *Service) ValidateSession(ctx context.Context, token string) (*ValidationResult, error) {
	if token == "" {
		return &ValidationResult{Valid: false, RequiresReauth: true}, nil
	}

	session, err := s.store.Get(ctx, token)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return &ValidationResult{Valid: false, RequiresReauth: true}, nil
	}

	now := s.now().UTC()
	if now.After(session.ExpiresAt) || !session.Verified {
		// Best effort cleanup; Redis TTL covers the store anyway.
		_ = s.store.Delete(ctx, token)
		return &ValidationResult{Valid: false, RequiresReauth: true}, nil
	}

	return &ValidationResult{
		Valid:            true,
		RemainingSeconds: int(session.ExpiresAt.Sub(now).Seconds()),
	}, nil
}

// ClearSession explicitly invalidates a session (e.g. after order placement).
func (s *Service) ClearSession(ctx context.Context, token string) error {
	return s.store.Delete(ctx, token)
}
