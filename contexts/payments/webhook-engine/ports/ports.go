package ports

import (
	"context"
	"time"

	"paygate/contexts/payments/webhook-engine/domain/entities"
)

// ApplyOutcome reports what a PaymentStore.Apply call did. Applied is false
// for duplicate and stale deliveries; Reason then carries "duplicate" or
// "stale". Record is a snapshot of the row after the call.
type ApplyOutcome struct {
	Applied    bool
	Reason     string
	Record     entities.PaymentRecord
	Transition entities.StatusTransition
}

const (
	ReasonDuplicate = "duplicate"
	ReasonStale     = "stale"
	ReasonConflict  = "conflict"
)

// Decision is produced by a TransitionDecider under the per-bill lock.
// Exactly one of Apply/Audit/Reason is meaningful: Apply appends Transition
// and mutates the record, Audit appends a no-op history entry without touching
// the record, Reason alone marks an ignored delivery.
type Decision struct {
	Apply      bool
	Transition entities.StatusTransition
	Audit      *entities.StatusTransition
	Reason     string
}

// TransitionDecider encodes the state-machine rules. The store invokes it with
// the current record snapshot while holding the bill's write lock, so the
// decision and the mutation are atomic with respect to concurrent deliveries.
// For a bill with no stored record the store synthesizes a PENDING record.
// A returned error aborts the apply; an accompanying Decision.Audit entry is
// still persisted (conflict audit trail).
type TransitionDecider func(ctx context.Context, current entities.PaymentRecord) (Decision, error)

// PaymentStore is the persistence contract of the engine. Implementations
// must serialize Apply calls per bill code, keep duplicate detection atomic
// with the mutation, and never block applies for distinct bill codes on one
// another.
type PaymentStore interface {
	Apply(ctx context.Context, event entities.CallbackData, decide TransitionDecider) (ApplyOutcome, error)
	Get(ctx context.Context, billCode string) (entities.PaymentRecord, error)
	SoftDelete(ctx context.Context, billCode string) error
	ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]entities.PaymentRecord, error)
}

// BillSnapshot is the authoritative gateway view of a bill, used to resolve
// conflicting notifications.
type BillSnapshot struct {
	BillCode      string
	Status        entities.PaymentStatus
	Amount        *float64
	TransactionID string
}

// BillLookup is the external read-only collaborator. Lookups must be
// idempotent; transient failures are retried by the reconciler, ErrBillNotFound
// is not.
type BillLookup interface {
	LookupBill(ctx context.Context, billCode string) (BillSnapshot, error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
