package mailgate

import (
	"context"
	"errors"
	"testing"
)

func TestRegisterStoresCredential(t *testing.T) {
	sender := &recordingSender{}
	engine, cleanup := buildTestEngine(t, testConfig(), sender)
	defer cleanup()

	if err := engine.Register(context.Background(), "alice", "alice@example.com", "correct-Horse-9"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if _, err := engine.Login(WithClientKey(context.Background(), "10.0.0.1"), "sc-1", "alice", "correct-Horse-9"); err != nil {
		t.Fatalf("Login after register failed: %v", err)
	}
}

func TestRegisterRejectsInvalidInput(t *testing.T) {
	sender := &recordingSender{}
	engine, cleanup := buildTestEngine(t, testConfig(), sender)
	defer cleanup()

	cases := []struct {
		name     string
		identity string
		email    string
		password string
		want     error
	}{
		{"empty identity", "   ", "a@example.com", "correct-Horse-9", ErrInvalidIdentity},
		{"malformed email", "bob", "not-an-email", "correct-Horse-9", ErrInvalidEmail},
		{"email with display name", "bob", "Bob <bob@example.com>", "correct-Horse-9", ErrInvalidEmail},
		{"short password", "bob", "bob@example.com", "Ab1!", ErrWeakPassword},
		{"single class password", "bob", "bob@example.com", "aaaaaaaaaaaa", ErrWeakPassword},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := engine.Register(context.Background(), tc.identity, tc.email, tc.password)
			if !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestRegisterDuplicatePolicy(t *testing.T) {
	t.Run("overwrite replaces credential", func(t *testing.T) {
		sender := &recordingSender{}
		cfg := testConfig()
		cfg.Registration.DuplicatePolicy = DuplicateOverwrite
		engine, cleanup := buildTestEngine(t, cfg, sender)
		defer cleanup()

		registerTestUser(t, engine, "alice", "alice@example.com", "first-Password-1")
		if err := engine.Register(context.Background(), "alice", "alice@example.com", "second-Password-2"); err != nil {
			t.Fatalf("overwrite register failed: %v", err)
		}

		ctx := WithClientKey(context.Background(), "10.0.0.1")
		if _, err := engine.Login(ctx, "sc-1", "alice", "first-Password-1"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("old password should be rejected, got %v", err)
		}
		if _, err := engine.Login(ctx, "sc-2", "alice", "second-Password-2"); err != nil {
			t.Fatalf("new password should work: %v", err)
		}
	})

	t.Run("reject keeps original credential", func(t *testing.T) {
		sender := &recordingSender{}
		cfg := testConfig()
		cfg.Registration.DuplicatePolicy = DuplicateReject
		engine, cleanup := buildTestEngine(t, cfg, sender)
		defer cleanup()

		registerTestUser(t, engine, "alice", "alice@example.com", "first-Password-1")
		err := engine.Register(context.Background(), "alice", "alice@example.com", "second-Password-2")
		if !errors.Is(err, ErrIdentityExists) {
			t.Fatalf("got %v, want ErrIdentityExists", err)
		}

		ctx := WithClientKey(context.Background(), "10.0.0.1")
		if _, err := engine.Login(ctx, "sc-1", "alice", "first-Password-1"); err != nil {
			t.Fatalf("original password should still work: %v", err)
		}
	})
}

func TestMaskEmail(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"alice@example.com", "a***@example.com"},
		{"b@example.com", "b***@example.com"},
	}
	for _, tc := range cases {
		if got := maskEmail(tc.in); got != tc.want {
			t.Fatalf("maskEmail(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
