package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) (*miniredis.Miniredis, *Store) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, NewStore(client, "")
}

func testSession(ttl time.Duration) *Session {
	now := time.Now()
	return &Session{
		SessionID: NewID(),
		Identity:  "alice",
		CreatedAt: now.Unix(),
		ExpiresAt: now.Add(ttl).Unix(),
	}
}

func TestSessionRoundTrip(t *testing.T) {
	_, store := newTestStore(t)
	sess := testSession(time.Hour)

	if err := store.Save(context.Background(), sess, time.Hour); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.Get(context.Background(), sess.SessionID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.SessionID != sess.SessionID ||
		got.Identity != sess.Identity ||
		got.CreatedAt != sess.CreatedAt ||
		got.ExpiresAt != sess.ExpiresAt {
		t.Fatalf("round trip mismatch: %+v vs %+v", got, sess)
	}
}

func TestSessionGetUnknown(t *testing.T) {
	_, store := newTestStore(t)

	if _, err := store.Get(context.Background(), NewID()); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("got %v, want ErrSessionNotFound", err)
	}
}

func TestSessionExpiredRecordIsRemoved(t *testing.T) {
	_, store := newTestStore(t)
	sess := testSession(-time.Minute)

	// Generous Redis TTL so only the record's own expiry applies.
	if err := store.Save(context.Background(), sess, time.Hour); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if _, err := store.Get(context.Background(), sess.SessionID); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("got %v, want ErrSessionExpired", err)
	}
	// The expired record was deleted on read.
	if _, err := store.Get(context.Background(), sess.SessionID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("got %v, want ErrSessionNotFound", err)
	}
}

func TestSessionDeleteIdempotent(t *testing.T) {
	_, store := newTestStore(t)
	sess := testSession(time.Hour)

	if err := store.Save(context.Background(), sess, time.Hour); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	removed, err := store.Delete(context.Background(), sess.SessionID)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if !removed {
		t.Fatal("expected removal")
	}

	removed, err = store.Delete(context.Background(), sess.SessionID)
	if err != nil {
		t.Fatalf("second Delete failed: %v", err)
	}
	if removed {
		t.Fatal("second delete must report no removal")
	}
}

func TestSessionRedisTTL(t *testing.T) {
	mr, store := newTestStore(t)
	sess := testSession(time.Minute)

	if err := store.Save(context.Background(), sess, time.Minute); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	if _, err := store.Get(context.Background(), sess.SessionID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("got %v, want ErrSessionNotFound", err)
	}
}

func TestNewIDUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewID()
		if seen[id] {
			t.Fatal("duplicate session id")
		}
		seen[id] = true
	}
}
