package mailgate

import (
	"context"
	"errors"

	"github.com/dvail-labs/mailgate/breach"
)

// CheckBreach describes the checkbreach operation and its observable behavior.
//
// CheckBreach may return an error when input validation, dependency calls, or security checks fail.
// CheckBreach does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// CheckBreach reports whether the email address appears in the configured
// breach corpus using the k-anonymity range protocol: only a 5-character
// digest prefix ever leaves the process. An unreachable or failing upstream
// surfaces [ErrUpstreamUnavailable] and is never reported as clean.
func (e *Engine) CheckBreach(ctx context.Context, email string) (BreachStatus, error) {
	if e == nil {
		return StatusClean, ErrEngineNotReady
	}
	if e.breachCheck == nil {
		return StatusClean, ErrBreachCheckDisabled
	}
	if err := validateEmail(email); err != nil {
		return StatusClean, err
	}

	status, err := e.breachCheck.Check(ctx, email)
	if err != nil {
		e.metricInc(MetricBreachUnavailable)
		e.emitAudit(ctx, auditEventBreachCheck, false, "", "", ErrUpstreamUnavailable, nil)
		if errors.Is(err, breach.ErrUpstreamUnavailable) {
			return StatusClean, ErrUpstreamUnavailable
		}
		return StatusClean, err
	}

	result := StatusClean
	if status == breach.StatusBreached {
		result = StatusBreached
		e.metricInc(MetricBreachHit)
	} else {
		e.metricInc(MetricBreachClean)
	}
	e.emitAudit(ctx, auditEventBreachCheck, true, "", "", nil, func() map[string]string {
		return map[string]string{"status": result.String()}
	})
	return result, nil
}
