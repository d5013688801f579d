package application

import (
	"context"
	"fmt"
	"log/slog"

	"paygate/contexts/payments/webhook-engine/domain/entities"
)

// Handler consumes a read-only payment record snapshot after a committed
// transition. The returned error is collected and reported but never affects
// the committed state. Handlers should be idempotent at the effect layer:
// dispatch may be re-driven for a committed transition after a caller
// disconnect, and the engine does not enforce effect-level dedup for them.
type Handler func(ctx context.Context, record entities.PaymentRecord) error

// Registry holds status-routed handlers. It is an explicitly constructed
// value, not an ambient singleton, so independently configured engines can
// coexist in one process (multi-tenant gateway configs). Registration is not
// synchronized with dispatch: register everything before serving traffic.
type Registry struct {
	success []Handler
	failure []Handler
	pending []Handler
	all     []Handler
}

func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) OnSuccess(handler Handler) { r.success = append(r.success, handler) }
func (r *Registry) OnFailure(handler Handler) { r.failure = append(r.failure, handler) }
func (r *Registry) OnPending(handler Handler) { r.pending = append(r.pending, handler) }

// OnAll registers a handler invoked for every applied transition, after the
// status-specific handlers.
func (r *Registry) OnAll(handler Handler) { r.all = append(r.all, handler) }

func (r *Registry) handlersFor(status entities.PaymentStatus) []Handler {
	var routed []Handler
	switch status {
	case entities.StatusSuccess:
		routed = r.success
	case entities.StatusFailed:
		routed = r.failure
	case entities.StatusPending:
		routed = r.pending
	}
	out := make([]Handler, 0, len(routed)+len(r.all))
	out = append(out, routed...)
	out = append(out, r.all...)
	return out
}

// Dispatch invokes every handler registered for the record's status, in
// registration order. A handler failure or panic never prevents the remaining
// handlers from running; failures are returned for reporting alongside the
// already-committed transition.
func (r *Registry) Dispatch(ctx context.Context, record entities.PaymentRecord, transitionID string, logger *slog.Logger) []error {
	if r == nil {
		return nil
	}
	var failures []error
	for _, handler := range r.handlersFor(record.CurrentStatus) {
		if err := invoke(ctx, handler, record.Snapshot()); err != nil {
			failures = append(failures, err)
			ResolveLogger(logger).Error("webhook handler failed",
				"event", "webhook_handler_failed",
				"module", "payments/webhook-engine",
				"layer", "application",
				"bill_code", record.BillCode,
				"transition_id", transitionID,
				"status", string(record.CurrentStatus),
				"error", err.Error(),
			)
		}
	}
	return failures
}

func invoke(ctx context.Context, handler Handler, record entities.PaymentRecord) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("handler panicked: %v", recovered)
		}
	}()
	return handler(ctx, record)
}
