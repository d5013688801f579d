package workers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"paygate/contexts/payments/webhook-engine/application"
	domainerrors "paygate/contexts/payments/webhook-engine/domain/errors"
	"paygate/contexts/payments/webhook-engine/ports"
)

// PendingSweeper re-checks bills stuck in PENDING against the gateway.
// Callbacks are fire-and-forget on the gateway side, so a lost delivery
// leaves a bill pending forever unless something polls.
type PendingSweeper struct {
	Service   application.Service
	Clock     ports.Clock
	Interval  time.Duration
	MinAge    time.Duration
	BatchSize int
	Logger    *slog.Logger
}

func (w PendingSweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
				application.ResolveLogger(w.Logger).Error("pending sweep failed",
					"event", "pending_sweep_failed",
					"module", "payments/webhook-engine",
					"layer", "worker",
					"error", err.Error(),
				)
			}
		}
	}
}

func (w PendingSweeper) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(w.Logger)

	now := time.Now().UTC()
	if w.Clock != nil {
		now = w.Clock.Now().UTC()
	}

	stale, err := w.Service.ListStalePending(ctx, now.Add(-w.minAge()), w.batchSize())
	if err != nil {
		return err
	}

	for _, record := range stale {
		result, err := w.Service.ReconcilePayment(ctx, record.BillCode)
		switch {
		case err == nil:
			if result.Applied {
				logger.Info("stale pending resolved",
					"event", "stale_pending_resolved",
					"module", "payments/webhook-engine",
					"layer", "worker",
					"bill_code", record.BillCode,
					"to_status", string(result.Transition.ToStatus),
				)
			}
		case errors.Is(err, domainerrors.ErrReconciliationUnavailable):
			// Lookup is down; the rest of the batch would fail the same way.
			return err
		case errors.Is(err, domainerrors.ErrBillNotFound):
			logger.Warn("stale pending bill unknown to gateway",
				"event", "stale_pending_bill_unknown",
				"module", "payments/webhook-engine",
				"layer", "worker",
				"bill_code", record.BillCode,
			)
		default:
			logger.Error("stale pending reconcile failed",
				"event", "stale_pending_reconcile_failed",
				"module", "payments/webhook-engine",
				"layer", "worker",
				"bill_code", record.BillCode,
				"error", err.Error(),
			)
		}
	}
	return nil
}

func (w PendingSweeper) interval() time.Duration {
	if w.Interval <= 0 {
		return 5 * time.Minute
	}
	return w.Interval
}

func (w PendingSweeper) minAge() time.Duration {
	if w.MinAge <= 0 {
		return 15 * time.Minute
	}
	return w.MinAge
}

func (w PendingSweeper) batchSize() int {
	if w.BatchSize <= 0 {
		return 100
	}
	return w.BatchSize
}
