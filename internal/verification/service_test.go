package verification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// newTurnstileServer fakes the Cloudflare siteverify endpoint.
func newTurnstileServer(t *testing.T, success bool) *TurnstileClient {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parsing form: %v", err)
		}
		if r.PostForm.Get("secret") != "test-secret" {
			t.Errorf("secret = %q", r.PostForm.Get("secret"))
		}
		json.NewEncoder(w).Encode(map[string]any{
			"success":      success,
			"challenge_ts": time.Now().UTC().Format(time.RFC3339),
			"hostname":     "shop.example.com",
		})
	}))
	t.Cleanup(srv.Close)

	client := NewTurnstileClient("test-secret")
	client.SetEndpoint(srv.URL)
	return client
}

func TestPreVerifyMintsSession(t *testing.T) {
	store := NewMemorySessionStore()
	svc := NewService(newTurnstileServer(t, true), store)

	session, err := svc.PreVerify(context.Background(), "cf-token", "203.0.113.9")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.Token == "" {
		t.Error("session token must be set")
	}
	if !session.Verified {
		t.Error("session must be verified")
	}
	if remaining := time.Until(session.ExpiresAt); remaining <= 4*time.Minute || remaining > SessionTTL {
		t.Errorf("expiry %v out of expected window", remaining)
	}

	stored, err := store.Get(context.Background(), session.Token)
	if err != nil {
		t.Fatalf("store get: %v", err)
	}
	if stored == nil {
		t.Fatal("session must be persisted")
	}
	if stored.IP != "203.0.113.9" {
		t.Errorf("stored IP = %q", stored.IP)
	}
}

func TestPreVerifyRejectsFailedChallenge(t *testing.T) {
	svc := NewService(newTurnstileServer(t, false), NewMemorySessionStore())

	if _, err := svc.PreVerify(context.Background(), "cf-token", ""); err == nil {
		t.Fatal("failed challenge must not mint a session")
	}
}

func TestPreVerifyRequiresToken(t *testing.T) {
	svc := NewService(newTurnstileServer(t, true), NewMemorySessionStore())

	if _, err := svc.PreVerify(context.Background(), "", ""); err == nil {
		t.Fatal("empty token must be rejected")
	}
}

func TestValidateSessionStillValid(t *testing.T) {
	store := NewMemorySessionStore()
	svc := NewService(newTurnstileServer(t, true), store)

	session, err := svc.PreVerify(context.Background(), "cf-token", "")
	if err != nil {
		t.Fatalf("pre-verify: %v", err)
	}

	result, err := svc.ValidateSession(context.Background(), session.Token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !result.Valid {
		t.Fatal("fresh session must validate")
	}
	if result.RemainingSeconds <= 0 || result.RemainingSeconds > int(SessionTTL.Seconds()) {
		t.Errorf("remaining seconds = %d", result.RemainingSeconds)
	}
	if result.RequiresReauth {
		t.Error("valid session must not require reauth")
	}
}

func TestValidateSessionExpired(t *testing.T) {
	store := NewMemorySessionStore()
	svc := NewService(newTurnstileServer(t, true), store)

	session, err := svc.PreVerify(context.Background(), "cf-token", "")
	if err != nil {
		t.Fatalf("pre-verify: %v", err)
	}

	// Advance the service clock past expiry.
	svc.now = func() time.Time { return session.ExpiresAt.Add(time.Second) }

	result, err := svc.ValidateSession(context.Background(), session.Token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if result.Valid {
		t.Fatal("expired session must be invalid")
	}
	if !result.RequiresReauth {
		t.Error("expired session must require reauth")
	}

	// The expired session is removed so it cannot be replayed.
	stored, err := store.Get(context.Background(), session.Token)
	if err != nil {
		t.Fatalf("store get: %v", err)
	}
	if stored != nil {
		t.Error("expired session must be deleted from the store")
	}
}

func TestValidateSessionUnknownToken(t *testing.T) {
	svc := NewService(newTurnstileServer(t, true), NewMemorySessionStore())

	result, err := svc.ValidateSession(context.Background(), "never-issued")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if result.Valid || !result.RequiresReauth {
		t.Errorf("result = %+v, want invalid with reauth", result)
	}
}

func TestValidateSessionEmptyToken(t *testing.T) {
	svc := NewService(newTurnstileServer(t, true), NewMemorySessionStore())

	result, err := svc.ValidateSession(context.Background(), "")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if result.Valid || !result.RequiresReauth {
		t.Errorf("result = %+v, want invalid with reauth", result)
	}
}

func TestClearSession(t *testing.T) {
	store := NewMemorySessionStore()
	svc := NewService(newTurnstileServer(t, true), store)

	session, err := svc.PreVerify(context.Background(), "cf-token", "")
	if err != nil {
		t.Fatalf("pre-verify: %v", err)
	}
	if err := svc.ClearSession(context.Background(), session.Token); err != nil {
		t.Fatalf("clear: %v", err)
	}

	result, err := svc.ValidateSession(context.Background(), session.Token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if result.Valid {
		t.Error("cleared session must not validate")
	}
}
