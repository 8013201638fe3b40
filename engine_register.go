package mailgate

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/dvail-labs/mailgate/internal/stores"
)

// Register describes the register operation and its observable behavior.
//
// Register may return an error when input validation, dependency calls, or security checks fail.
// Register does not mutate shared global state beyond the credential store and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// Validation errors ([ErrInvalidIdentity], [ErrInvalidEmail],
// [ErrWeakPassword]) carry their specific cause: they describe the caller's
// own input and leak no secrets. Whether the identity already existed is
// only disclosed under [DuplicateReject].
func (e *Engine) Register(ctx context.Context, identity, email, rawPassword string) error {
	if e == nil || e.credentials == nil || e.hasher == nil {
		return ErrEngineNotReady
	}

	identity = strings.TrimSpace(identity)
	if identity == "" {
		e.metricInc(MetricRegisterRejected)
		return ErrInvalidIdentity
	}

	if err := validateEmail(email); err != nil {
		e.metricInc(MetricRegisterRejected)
		e.emitAudit(ctx, auditEventRegisterRejected, false, identity, "", ErrInvalidEmail, nil)
		return err
	}

	if err := e.policy(rawPassword); err != nil {
		e.metricInc(MetricRegisterRejected)
		e.emitAudit(ctx, auditEventRegisterRejected, false, identity, "", ErrWeakPassword, nil)
		return fmt.Errorf("%w: %v", ErrWeakPassword, err)
	}

	hash, err := e.hasher.Hash(rawPassword)
	if err != nil {
		e.metricInc(MetricRegisterRejected)
		return err
	}

	record := &stores.CredentialRecord{
		Identity:     identity,
		PasswordHash: hash,
		Email:        email,
		CreatedAt:    time.Now().Unix(),
	}
	overwrite := e.config.Registration.DuplicatePolicy == DuplicateOverwrite
	if err := e.credentials.Save(ctx, record, overwrite); err != nil {
		e.metricInc(MetricRegisterRejected)
		if errors.Is(err, stores.ErrIdentityAlreadyExists) {
			e.emitAudit(ctx, auditEventRegisterRejected, false, identity, "", ErrIdentityExists, nil)
			return ErrIdentityExists
		}
		return ErrBackendUnavailable
	}

	e.metricInc(MetricRegisterSuccess)
	e.emitAudit(ctx, auditEventRegisterSuccess, true, identity, "", nil, nil)
	return nil
}

func validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrInvalidEmail
	}
	return nil
}

func maskEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" {
		return "***"
	}
	return local[:1] + "***@" + domain
}
