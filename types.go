package mailgate

import (
	"context"
	"io"
	"time"

	internalaudit "github.com/dvail-labs/mailgate/internal/audit"
)

// BreachStatus is the outcome of a k-anonymity breach-exposure check.
// A failed upstream lookup is never reported as StatusClean; it surfaces
// as [ErrUpstreamUnavailable] instead.
type BreachStatus uint8

const (
	// StatusClean is an exported constant or variable used by the authentication engine.
	StatusClean BreachStatus = iota
	// StatusBreached is an exported constant or variable used by the authentication engine.
	StatusBreached
)

// String returns "clean" or "breached".
func (s BreachStatus) String() string {
	if s == StatusBreached {
		return "breached"
	}
	return "clean"
}

// DuplicatePolicy selects how [Engine.Register] treats an identity that is
// already present in the credential store.
type DuplicatePolicy uint8

const (
	// DuplicateOverwrite is an exported constant or variable used by the authentication engine.
	DuplicateOverwrite DuplicatePolicy = iota
	// DuplicateReject is an exported constant or variable used by the authentication engine.
	DuplicateReject
)

// EmailSender delivers one-time verification codes. Implementations must
// honor ctx cancellation; the engine wraps every call with the configured
// delivery timeout. Delivery failures are surfaced to the caller, never
// swallowed.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LoginChallenge is returned by [Engine.Login] when the password step
// succeeds. The one-time code itself is only ever sent to the registered
// email address; EmailHint is a masked form safe to show to the caller.
type LoginChallenge struct {
	EmailHint string
	ExpiresAt time.Time
}

// VerifyResult is returned by [Engine.VerifyLogin] on successful code
// verification. AccessToken is a signed bearer token bound to the session.
type VerifyResult struct {
	Identity    string
	SessionID   string
	AccessToken string
	ExpiresAt   time.Time
}

// AuthResult is returned by [Engine.Authenticate] for a live session.
type AuthResult struct {
	Identity  string
	SessionID string
	ExpiresAt time.Time
}

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the engine's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer].
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}
