package mailgate

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/dvail-labs/mailgate/internal"
	"github.com/dvail-labs/mailgate/internal/rate"
	"github.com/dvail-labs/mailgate/internal/stores"
	"github.com/dvail-labs/mailgate/session"
)

// Login describes the login operation and its observable behavior.
//
// Login may return an error when input validation, dependency calls, or security checks fail.
// Login does not mutate shared global state beyond the pending-attempt store and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// Login is the Anonymous→PasswordVerified transition: rate check, password
// verification, one-time-code issuance, and delivery to the registered
// email. Unknown identity and wrong password are indistinguishable to the
// caller; both surface [ErrInvalidCredentials]. A repeated Login for the
// same session context overwrites the prior pending attempt. The per-client
// key for rate limiting is taken from ctx via [WithClientKey].
func (e *Engine) Login(ctx context.Context, sessionContext, identity, rawPassword string) (*LoginChallenge, error) {
	if e == nil || e.credentials == nil || e.pending == nil || e.hasher == nil || e.sender == nil {
		return nil, ErrEngineNotReady
	}
	if strings.TrimSpace(sessionContext) == "" {
		return nil, ErrSessionContextRequired
	}

	clientKey := clientKeyFromContext(ctx)

	if e.rateLimiter != nil {
		if err := e.rateLimiter.CheckLogin(ctx, identity, clientKey); err != nil {
			if errors.Is(err, rate.ErrRateLimited) {
				e.metricInc(MetricLoginRateLimited)
				e.emitAudit(ctx, auditEventLoginRateLimited, false, identity, sessionContext, ErrLoginRateLimited, nil)
				return nil, ErrLoginRateLimited
			}
			return nil, ErrBackendUnavailable
		}
	}

	if rawPassword == "" {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, identity, sessionContext, ErrInvalidCredentials, func() map[string]string {
			return map[string]string{"reason": "empty_password"}
		})
		return nil, ErrInvalidCredentials
	}

	record, err := e.credentials.Get(ctx, identity)
	if err != nil {
		if errors.Is(err, stores.ErrIdentityNotFound) {
			e.metricInc(MetricLoginFailure)
			e.emitAudit(ctx, auditEventLoginFailure, false, identity, sessionContext, ErrInvalidCredentials, func() map[string]string {
				return map[string]string{"reason": "identity_not_found"}
			})
			return nil, ErrInvalidCredentials
		}
		return nil, ErrBackendUnavailable
	}

	ok, err := e.hasher.Verify(rawPassword, record.PasswordHash)
	if err != nil || !ok {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, identity, sessionContext, ErrInvalidCredentials, func() map[string]string {
			return map[string]string{"reason": "password_mismatch"}
		})
		return nil, ErrInvalidCredentials
	}
	rawPassword = ""

	code, err := internal.NewOTP(e.config.OTP.Digits)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	ttl := e.config.OTP.ChallengeTTL
	pending := &stores.PendingRecord{
		Identity:  record.Identity,
		ClientKey: clientKey,
		CodeHash:  internal.HashOTP(code),
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(ttl).Unix(),
	}
	if err := e.pending.Save(ctx, sessionContext, pending, ttl); err != nil {
		return nil, ErrBackendUnavailable
	}

	mailCtx, cancel := context.WithTimeout(ctx, e.config.Mail.Timeout)
	err = e.sender.Send(mailCtx, record.Email,
		fmt.Sprintf("%s - Your Login Verification Code", e.config.Mail.AppName),
		loginCodeBody(e.config.Mail.AppName, code, ttl),
	)
	cancel()
	if err != nil {
		// A code the user can never receive must not stay verifiable.
		_, _ = e.pending.Delete(ctx, sessionContext)
		e.metricInc(MetricCodeDeliveryFailure)
		e.emitAudit(ctx, auditEventDeliveryFailure, false, record.Identity, sessionContext, ErrDeliveryFailed, nil)
		return nil, ErrDeliveryFailed
	}

	e.metricInc(MetricCodeSent)
	e.emitAudit(ctx, auditEventLoginCodeSent, true, record.Identity, sessionContext, nil, func() map[string]string {
		return map[string]string{"email_hint": maskEmail(record.Email)}
	})

	return &LoginChallenge{
		EmailHint: maskEmail(record.Email),
		ExpiresAt: now.Add(ttl),
	}, nil
}

// VerifyLogin describes the verifylogin operation and its observable behavior.
//
// VerifyLogin may return an error when input validation, dependency calls, or security checks fail.
// VerifyLogin does not mutate shared global state beyond the pending and session stores and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// VerifyLogin is the PasswordVerified→Authenticated transition. The pending
// attempt is consumed on every outcome: a mismatched code destroys it, and
// a subsequent attempt with the originally correct code fails with
// [ErrInvalidCode] too. Missing, expired, and mismatched codes are
// indistinguishable to the caller.
func (e *Engine) VerifyLogin(ctx context.Context, sessionContext, code string) (*VerifyResult, error) {
	if e == nil || e.pending == nil || e.sessionStore == nil || e.tokens == nil {
		return nil, ErrEngineNotReady
	}
	if strings.TrimSpace(sessionContext) == "" {
		return nil, ErrSessionContextRequired
	}

	record, err := e.pending.Consume(ctx, sessionContext, internal.HashOTP(code))
	if err != nil {
		switch {
		case errors.Is(err, stores.ErrPendingNotFound),
			errors.Is(err, stores.ErrPendingExpired),
			errors.Is(err, stores.ErrCodeMismatch):
			e.metricInc(MetricVerifyFailure)
			e.emitAudit(ctx, auditEventVerifyFailure, false, "", sessionContext, ErrInvalidCode, nil)
			return nil, ErrInvalidCode
		default:
			return nil, ErrBackendUnavailable
		}
	}

	now := time.Now()
	sess := &session.Session{
		SessionID: session.NewID(),
		Identity:  record.Identity,
		CreatedAt: now.Unix(),
		ExpiresAt: now.Add(e.config.Session.TTL).Unix(),
	}
	if err := e.sessionStore.Save(ctx, sess, e.config.Session.TTL); err != nil {
		e.metricInc(MetricVerifyFailure)
		e.emitAudit(ctx, auditEventVerifyFailure, false, record.Identity, sessionContext, err, func() map[string]string {
			return map[string]string{"reason": "session_save_failed"}
		})
		return nil, ErrBackendUnavailable
	}

	accessToken, err := e.tokens.Create(record.Identity, sess.SessionID, now)
	if err != nil {
		_, _ = e.sessionStore.Delete(ctx, sess.SessionID)
		e.metricInc(MetricVerifyFailure)
		return nil, err
	}

	if e.rateLimiter != nil {
		if err := e.rateLimiter.ResetLogin(ctx, record.Identity, record.ClientKey); err != nil {
			log.Print("mailgate: login limiter reset failed after verification")
		}
	}

	e.metricInc(MetricSessionCreated)
	e.metricInc(MetricVerifySuccess)
	e.emitAudit(ctx, auditEventVerifySuccess, true, record.Identity, sessionContext, nil, nil)

	return &VerifyResult{
		Identity:    record.Identity,
		SessionID:   sess.SessionID,
		AccessToken: accessToken,
		ExpiresAt:   time.Unix(sess.ExpiresAt, 0),
	}, nil
}

func loginCodeBody(appName, code string, ttl time.Duration) string {
	return fmt.Sprintf(
		"Hello,\n\n"+
			"Your %s verification code is:\n\n"+
			"    %s\n\n"+
			"This code expires in %d minutes and can be used once. If you did "+
			"not request it, you can ignore this message.\n",
		appName, code, int(ttl.Minutes()))
}
