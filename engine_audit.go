package mailgate

import (
	"context"
	"time"

	internalaudit "github.com/dvail-labs/mailgate/internal/audit"
)

const (
	auditEventRegisterSuccess  = "register.success"
	auditEventRegisterRejected = "register.rejected"
	auditEventLoginCodeSent    = "login.code_sent"
	auditEventLoginFailure     = "login.failure"
	auditEventLoginRateLimited = "login.rate_limited"
	auditEventDeliveryFailure  = "login.delivery_failure"
	auditEventVerifySuccess    = "verify.success"
	auditEventVerifyFailure    = "verify.failure"
	auditEventLogout           = "session.logout"
	auditEventBreachCheck      = "breach.check"
)

// emitAudit forwards one event to the dispatcher. metadata is a lazy
// constructor so callers pay nothing when auditing is disabled. Metadata
// must never include passwords, hashes, or one-time codes.
func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	identity string,
	sessionContext string,
	err error,
	metadata func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	event := internalaudit.Event{
		Timestamp:      time.Now(),
		EventType:      eventType,
		Identity:       identity,
		SessionContext: sessionContext,
		ClientKey:      clientKeyFromContext(ctx),
		Success:        success,
	}
	if err != nil {
		event.Error = err.Error()
	}
	if metadata != nil {
		event.Metadata = metadata()
	}

	e.audit.Emit(ctx, event)
}
