package mailgate

import (
	"context"
	"errors"
	"testing"
)

func authenticateTestUser(t *testing.T, engine *Engine, sender *recordingSender) *VerifyResult {
	t.Helper()

	registerTestUser(t, engine, "alice", "alice@example.com", "correct-Horse-9")
	ctx := WithClientKey(context.Background(), "10.0.0.1")

	if _, err := engine.Login(ctx, "sc-1", "alice", "correct-Horse-9"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	result, err := engine.VerifyLogin(ctx, "sc-1", sender.LastCode(t))
	if err != nil {
		t.Fatalf("VerifyLogin failed: %v", err)
	}
	return result
}

func TestLogoutInvalidatesTokenBeforeExpiry(t *testing.T) {
	sender := &recordingSender{}
	engine, cleanup := buildTestEngine(t, testConfig(), sender)
	defer cleanup()

	result := authenticateTestUser(t, engine, sender)
	ctx := context.Background()

	if _, err := engine.Authenticate(ctx, result.AccessToken); err != nil {
		t.Fatalf("Authenticate before logout failed: %v", err)
	}
	if err := engine.Logout(ctx, result.AccessToken); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	// The JWT is still within its signed lifetime, but the session is gone.
	if _, err := engine.Authenticate(ctx, result.AccessToken); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("got %v, want ErrUnauthorized", err)
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	sender := &recordingSender{}
	engine, cleanup := buildTestEngine(t, testConfig(), sender)
	defer cleanup()

	result := authenticateTestUser(t, engine, sender)
	ctx := context.Background()

	if err := engine.Logout(ctx, result.AccessToken); err != nil {
		t.Fatalf("first Logout failed: %v", err)
	}
	if err := engine.Logout(ctx, result.AccessToken); err != nil {
		t.Fatalf("second Logout failed: %v", err)
	}
}

func TestAuthenticateRejectsGarbageTokens(t *testing.T) {
	sender := &recordingSender{}
	engine, cleanup := buildTestEngine(t, testConfig(), sender)
	defer cleanup()

	for _, token := range []string{"", "not.a.jwt", "a.b.c"} {
		if _, err := engine.Authenticate(context.Background(), token); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("token %q: got %v, want ErrUnauthorized", token, err)
		}
	}
}

func TestSessionsAreIndependent(t *testing.T) {
	sender := &recordingSender{}
	engine, cleanup := buildTestEngine(t, testConfig(), sender)
	defer cleanup()

	registerTestUser(t, engine, "alice", "alice@example.com", "correct-Horse-9")
	ctx := WithClientKey(context.Background(), "10.0.0.1")

	results := make([]*VerifyResult, 2)
	for i, sc := range []string{"sc-1", "sc-2"} {
		if _, err := engine.Login(ctx, sc, "alice", "correct-Horse-9"); err != nil {
			t.Fatalf("login %s failed: %v", sc, err)
		}
		result, err := engine.VerifyLogin(ctx, sc, sender.LastCode(t))
		if err != nil {
			t.Fatalf("verify %s failed: %v", sc, err)
		}
		results[i] = result
	}

	if results[0].SessionID == results[1].SessionID {
		t.Fatal("expected distinct session ids")
	}

	if err := engine.Logout(ctx, results[0].AccessToken); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if _, err := engine.Authenticate(ctx, results[1].AccessToken); err != nil {
		t.Fatalf("other session must survive: %v", err)
	}
}
