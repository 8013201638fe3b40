package mailgate

import (
	"context"
	"errors"
	"time"

	"github.com/dvail-labs/mailgate/session"
)

// Authenticate describes the authenticate operation and its observable behavior.
//
// Authenticate may return an error when input validation, dependency calls, or security checks fail.
// Authenticate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// Authenticate validates an access token against both the signature and the
// opaque Redis session it names. A logged-out session fails here even while
// the token itself is still within its signed lifetime. All failures surface
// as [ErrUnauthorized].
func (e *Engine) Authenticate(ctx context.Context, accessToken string) (*AuthResult, error) {
	if e == nil || e.tokens == nil || e.sessionStore == nil {
		return nil, ErrEngineNotReady
	}

	claims, err := e.tokens.Parse(accessToken)
	if err != nil {
		return nil, ErrUnauthorized
	}

	sess, err := e.sessionStore.Get(ctx, claims.SID)
	if err != nil {
		if errors.Is(err, session.ErrSessionExpired) {
			e.metricInc(MetricSessionInvalidated)
		}
		return nil, ErrUnauthorized
	}
	if sess.Identity != claims.Subject {
		return nil, ErrUnauthorized
	}

	return &AuthResult{
		Identity:  sess.Identity,
		SessionID: sess.SessionID,
		ExpiresAt: time.Unix(sess.ExpiresAt, 0),
	}, nil
}

// Logout describes the logout operation and its observable behavior.
//
// Logout may return an error when input validation, dependency calls, or security checks fail.
// Logout does not mutate shared global state beyond the session store and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// Logout destroys the Redis session named by the access token, which makes
// the token unusable with [Engine.Authenticate] before its signed expiry.
// Logging out an already-destroyed session is not an error.
func (e *Engine) Logout(ctx context.Context, accessToken string) error {
	if e == nil || e.tokens == nil || e.sessionStore == nil {
		return ErrEngineNotReady
	}

	claims, err := e.tokens.Parse(accessToken)
	if err != nil {
		return ErrUnauthorized
	}

	removed, err := e.sessionStore.Delete(ctx, claims.SID)
	if err != nil {
		return ErrBackendUnavailable
	}
	if removed {
		e.metricInc(MetricLogout)
		e.metricInc(MetricSessionInvalidated)
	}
	e.emitAudit(ctx, auditEventLogout, true, claims.Subject, "", nil, nil)
	return nil
}
