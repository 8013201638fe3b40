package mailgate

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

var testSigningKey = []byte("0123456789abcdef0123456789abcdef")

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, client
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Session.SigningKey = testSigningKey
	// Cheap argon2 parameters keep the test suite fast.
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Breach.Enabled = false
	return cfg
}

// recordingSender captures outgoing mail so tests can read the delivered
// one-time code. Fail forces a delivery error.
type recordingSender struct {
	mu   sync.Mutex
	mail []recordedMail
	Fail bool
}

type recordedMail struct {
	To      string
	Subject string
	Body    string
}

func (s *recordingSender) Send(_ context.Context, to, subject, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail {
		return errors.New("smtp connection refused")
	}
	s.mail = append(s.mail, recordedMail{To: to, Subject: subject, Body: body})
	return nil
}

func (s *recordingSender) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.mail)
}

var codePattern = regexp.MustCompile(`\d{6,10}`)

func (s *recordingSender) LastCode(t *testing.T) string {
	t.Helper()

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.mail) == 0 {
		t.Fatal("no mail delivered")
	}
	code := codePattern.FindString(s.mail[len(s.mail)-1].Body)
	if code == "" {
		t.Fatal("delivered mail contains no code")
	}
	return code
}

func buildTestEngine(t *testing.T, cfg Config, sender EmailSender) (*Engine, func()) {
	t.Helper()

	mr, rdb := newTestRedis(t)
	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithEmailSender(sender).
		Build()
	if err != nil {
		mr.Close()
		t.Fatalf("Build failed: %v", err)
	}

	return engine, func() {
		engine.Close()
		mr.Close()
	}
}

func registerTestUser(t *testing.T, engine *Engine, identity, email, password string) {
	t.Helper()

	if err := engine.Register(context.Background(), identity, email, password); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
}
