package mailgate

import (
	"github.com/dvail-labs/mailgate/breach"
	internalaudit "github.com/dvail-labs/mailgate/internal/audit"
	"github.com/dvail-labs/mailgate/internal/rate"
	"github.com/dvail-labs/mailgate/internal/stores"
	"github.com/dvail-labs/mailgate/password"
	"github.com/dvail-labs/mailgate/session"
	"github.com/dvail-labs/mailgate/token"
)

// Engine defines a public type used by mailgate APIs.
//
// Engine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Engine struct {
	config Config

	credentials  *stores.CredentialStore
	pending      *stores.PendingStore
	sessionStore *session.Store
	rateLimiter  *rate.Limiter
	tokens       *token.Manager
	breachCheck  *breach.Checker

	hasher *password.Hasher
	policy password.Policy
	sender EmailSender

	audit   *internalaudit.Dispatcher
	metrics *Metrics
}

// Close describes the close operation and its observable behavior.
//
// Close does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports how many audit events were dropped because the
// dispatcher buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}
