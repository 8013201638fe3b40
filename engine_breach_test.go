package mailgate

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func breachStub(t *testing.T, breached map[string]int, fail bool) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		prefix := strings.ToUpper(strings.TrimPrefix(r.URL.Path, "/range/"))
		for digest, count := range breached {
			if strings.HasPrefix(digest, prefix) {
				fmt.Fprintf(w, "%s:%d\r\n", digest[5:], count)
			}
		}
		// Filler rows, as a padded upstream would return.
		fmt.Fprint(w, "0000000000000000000000000000000000A:0\r\n")
	}))
}

func sha1Upper(s string) string {
	sum := sha1.Sum([]byte(s))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

func buildBreachEngine(t *testing.T, endpoint string) (*Engine, func()) {
	t.Helper()

	cfg := testConfig()
	cfg.Breach.Enabled = true
	cfg.Breach.Endpoint = endpoint
	return buildTestEngine(t, cfg, &recordingSender{})
}

func TestCheckBreachReportsBreached(t *testing.T) {
	const email = "pwned@example.com"
	srv := breachStub(t, map[string]int{sha1Upper(email): 42}, false)
	defer srv.Close()

	engine, cleanup := buildBreachEngine(t, srv.URL+"/range")
	defer cleanup()

	status, err := engine.CheckBreach(context.Background(), email)
	if err != nil {
		t.Fatalf("CheckBreach failed: %v", err)
	}
	if status != StatusBreached {
		t.Fatalf("got %v, want StatusBreached", status)
	}
}

func TestCheckBreachReportsClean(t *testing.T) {
	srv := breachStub(t, map[string]int{sha1Upper("someone-else@example.com"): 7}, false)
	defer srv.Close()

	engine, cleanup := buildBreachEngine(t, srv.URL+"/range")
	defer cleanup()

	status, err := engine.CheckBreach(context.Background(), "fresh@example.com")
	if err != nil {
		t.Fatalf("CheckBreach failed: %v", err)
	}
	if status != StatusClean {
		t.Fatalf("got %v, want StatusClean", status)
	}
}

func TestCheckBreachUpstreamFailureIsNeverClean(t *testing.T) {
	srv := breachStub(t, nil, true)
	defer srv.Close()

	engine, cleanup := buildBreachEngine(t, srv.URL+"/range")
	defer cleanup()

	_, err := engine.CheckBreach(context.Background(), "anyone@example.com")
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Fatalf("got %v, want ErrUpstreamUnavailable", err)
	}
}

func TestCheckBreachDisabled(t *testing.T) {
	engine, cleanup := buildTestEngine(t, testConfig(), &recordingSender{})
	defer cleanup()

	_, err := engine.CheckBreach(context.Background(), "anyone@example.com")
	if !errors.Is(err, ErrBreachCheckDisabled) {
		t.Fatalf("got %v, want ErrBreachCheckDisabled", err)
	}
}

func TestCheckBreachRejectsInvalidEmail(t *testing.T) {
	srv := breachStub(t, nil, false)
	defer srv.Close()

	engine, cleanup := buildBreachEngine(t, srv.URL+"/range")
	defer cleanup()

	_, err := engine.CheckBreach(context.Background(), "not-an-email")
	if !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("got %v, want ErrInvalidEmail", err)
	}
}
