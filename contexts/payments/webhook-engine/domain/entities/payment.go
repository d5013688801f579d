package entities

import "time"

// PaymentStatus is the canonical status domain shared by records, transitions
// and mapped callbacks. Gateway wire codes are translated once, in the mapper.
type PaymentStatus string

const (
	StatusPending PaymentStatus = "PENDING"
	StatusSuccess PaymentStatus = "SUCCESS"
	StatusFailed  PaymentStatus = "FAILED"
	StatusUnknown PaymentStatus = "UNKNOWN"
)

// StatusFromGatewayCode translates a gateway status code ("1", "2", "3", "4")
// into the canonical domain. Unrecognized codes map to StatusUnknown so that a
// gateway introducing a new code degrades to an auditable event instead of a
// rejection.
func StatusFromGatewayCode(code string) PaymentStatus {
	switch code {
	case "1":
		return StatusSuccess
	case "2", "4":
		return StatusPending
	case "3":
		return StatusFailed
	default:
		return StatusUnknown
	}
}

func (s PaymentStatus) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

type TransitionSource string

const (
	SourceWebhook        TransitionSource = "webhook"
	SourceReconciliation TransitionSource = "reconciliation"
)

// RawEvent is the decoded notification body before any business meaning is
// attached. Raw keeps the original bytes for signature verification and audit.
type RawEvent struct {
	Fields map[string]string
	Raw    []byte
}

func (e RawEvent) Field(name string) string {
	return e.Fields[name]
}

// ValidatedEvent is a RawEvent that passed structural validation. Flags record
// degraded-trust observations that do not reject the event.
type ValidatedEvent struct {
	RawEvent

	// UnknownStatus marks a status code outside the configured vocabulary.
	UnknownStatus bool
	// SignatureSkipped marks an event accepted without signature verification
	// because no shared secret is configured.
	SignatureSkipped bool
}

// CallbackData is the strongly-typed form of one inbound notification.
// BillCode is always present and non-empty; events failing that never reach
// the payment store.
type CallbackData struct {
	BillCode      string
	Status        PaymentStatus
	GatewayStatus string
	TransactionID string
	RefNo         string
	OrderID       string
	Amount        *float64
	Reason        string
	GatewayTime   *time.Time
	Raw           map[string]string
}

// StatusTransition is one append-only history entry. NoOp entries are audit
// confirmations written on the reconciliation conflict path; they never mutate
// the record and never participate in duplicate detection.
type StatusTransition struct {
	TransitionID  string
	BillCode      string
	FromStatus    PaymentStatus
	ToStatus      PaymentStatus
	TransactionID string
	Source        TransitionSource
	NoOp          bool
	AppliedAt     time.Time
}

// PaymentRecord is the durable entity, one per bill code. History is
// append-only and owned exclusively by the payment store; everything handed to
// dispatch handlers is a copy.
type PaymentRecord struct {
	BillCode          string
	CurrentStatus     PaymentStatus
	Amount            *float64
	OrderID           string
	LastTransactionID string
	Deleted           bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
	History           []StatusTransition
}

// Snapshot returns a deep copy safe to hand outside the store.
func (r PaymentRecord) Snapshot() PaymentRecord {
	out := r
	if r.Amount != nil {
		amount := *r.Amount
		out.Amount = &amount
	}
	out.History = append([]StatusTransition(nil), r.History...)
	return out
}
