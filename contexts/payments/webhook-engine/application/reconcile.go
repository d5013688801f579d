package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	domainerrors "paygate/contexts/payments/webhook-engine/domain/errors"
	"paygate/contexts/payments/webhook-engine/ports"
)

const (
	defaultReconcileAttempts  = 3
	defaultReconcileBaseDelay = 200 * time.Millisecond
)

// Reconciler fetches the authoritative bill status from the external lookup
// collaborator with a small bounded retry. It is used only on the conflict
// path of the state machine and by the stale-pending sweep; the rest of the
// pipeline never retries anything internally.
type Reconciler struct {
	Lookup    ports.BillLookup
	Attempts  int
	BaseDelay time.Duration
	Logger    *slog.Logger
}

// Resolve returns the authoritative snapshot or ErrReconciliationUnavailable
// once the bounded retries are exhausted (fail-closed). ErrBillNotFound is an
// authoritative answer and is not retried.
func (r Reconciler) Resolve(ctx context.Context, billCode string) (ports.BillSnapshot, error) {
	if r.Lookup == nil {
		return ports.BillSnapshot{}, fmt.Errorf("%w: no lookup collaborator configured", domainerrors.ErrReconciliationUnavailable)
	}

	attempts := r.Attempts
	if attempts <= 0 {
		attempts = defaultReconcileAttempts
	}
	delay := r.BaseDelay
	if delay <= 0 {
		delay = defaultReconcileBaseDelay
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		snapshot, err := r.Lookup.LookupBill(ctx, billCode)
		if err == nil {
			return snapshot, nil
		}
		if errors.Is(err, domainerrors.ErrBillNotFound) {
			return ports.BillSnapshot{}, err
		}
		lastErr = err
		ResolveLogger(r.Logger).Warn("bill lookup attempt failed",
			"event", "reconciliation_lookup_failed",
			"module", "payments/webhook-engine",
			"layer", "application",
			"bill_code", billCode,
			"attempt", attempt,
			"error", err.Error(),
		)
		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ports.BillSnapshot{}, fmt.Errorf("%w: %v", domainerrors.ErrReconciliationUnavailable, ctx.Err())
		case <-time.After(delay):
		}
		delay *= 2
	}
	return ports.BillSnapshot{}, fmt.Errorf("%w: %v", domainerrors.ErrReconciliationUnavailable, lastErr)
}
