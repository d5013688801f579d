package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"paygate/contexts/payments/webhook-engine/domain/entities"
	domainerrors "paygate/contexts/payments/webhook-engine/domain/errors"
	"paygate/contexts/payments/webhook-engine/ports"
	"paygate/internal/platform/metrics"
)

// Service is the webhook ingestion pipeline: normalize, validate, map, apply
// through the payment store, then dispatch. One Service handles one gateway
// profile; run several Services for multi-tenant configurations.
type Service struct {
	Store              ports.PaymentStore
	Registry           *Registry
	Lookup             ports.BillLookup
	Clock              ports.Clock
	IDGen              ports.IDGenerator
	Profile            Profile
	ReconcileAttempts  int
	ReconcileBaseDelay time.Duration
	Logger             *slog.Logger
}

// ProcessResult is the caller-facing outcome of one inbound notification.
// HandlerErrors report dispatch failures alongside an already-committed
// transition; they never indicate a rollback.
type ProcessResult struct {
	Applied          bool
	Reason           string
	Record           entities.PaymentRecord
	Transition       entities.StatusTransition
	UnknownStatus    bool
	SignatureSkipped bool
	HandlerErrors    []error
}

// ProcessCallback is the single entry point for raw inbound notification
// bytes. Validation and parsing failures come back as errors from the
// engine's taxonomy so any transport glue can map them to a response for the
// sending gateway; they never reach the store.
func (s Service) ProcessCallback(ctx context.Context, body []byte, contentType string) (ProcessResult, error) {
	raw, err := NormalizePayload(body, contentType)
	if err != nil {
		metrics.WebhooksRejected.WithLabelValues("malformed_payload").Inc()
		return ProcessResult{}, err
	}
	return s.process(ctx, raw)
}

// ProcessValues accepts an already-parsed field mapping from framework
// adapters that consume the request body themselves. Raw bytes, when
// available, keep signature verification meaningful.
func (s Service) ProcessValues(ctx context.Context, values map[string]string, raw []byte) (ProcessResult, error) {
	event, err := EventFromValues(values, raw)
	if err != nil {
		metrics.WebhooksRejected.WithLabelValues("malformed_payload").Inc()
		return ProcessResult{}, err
	}
	return s.process(ctx, event)
}

func (s Service) process(ctx context.Context, raw entities.RawEvent) (ProcessResult, error) {
	started := s.now()
	metrics.WebhooksReceived.Inc()

	validated, err := ValidateEvent(raw, s.Profile)
	if err != nil {
		metrics.WebhooksRejected.WithLabelValues(rejectionReason(err)).Inc()
		return ProcessResult{}, err
	}
	data := MapEvent(validated, s.Profile)

	logger := ResolveLogger(s.Logger)
	if validated.SignatureSkipped {
		metrics.SignatureChecksSkipped.Inc()
		logger.Warn("notification accepted without signature verification",
			"event", "webhook_signature_skipped",
			"module", "payments/webhook-engine",
			"layer", "application",
			"bill_code", data.BillCode,
		)
	}
	if validated.UnknownStatus {
		logger.Warn("notification carries unknown gateway status code",
			"event", "webhook_unknown_status",
			"module", "payments/webhook-engine",
			"layer", "application",
			"bill_code", data.BillCode,
			"gateway_status", data.GatewayStatus,
		)
	}

	result, err := s.applyAndDispatch(ctx, data, entities.SourceWebhook)
	result.UnknownStatus = validated.UnknownStatus
	result.SignatureSkipped = validated.SignatureSkipped
	metrics.ProcessingDuration.Observe(float64(s.now().Sub(started)) / float64(time.Millisecond))
	return result, err
}

func (s Service) applyAndDispatch(ctx context.Context, data entities.CallbackData, source entities.TransitionSource) (ProcessResult, error) {
	logger := ResolveLogger(s.Logger)

	outcome, err := s.Store.Apply(ctx, data, s.decide(data, source))
	if err != nil {
		switch {
		case errors.Is(err, domainerrors.ErrConflict):
			metrics.ConflictsRejected.Inc()
			logger.Warn("conflicting transition rejected",
				"event", "webhook_transition_conflict",
				"module", "payments/webhook-engine",
				"layer", "application",
				"bill_code", data.BillCode,
				"transaction_id", data.TransactionID,
				"to_status", string(data.Status),
			)
		case errors.Is(err, domainerrors.ErrReconciliationUnavailable):
			metrics.ReconciliationOutcomes.WithLabelValues("unavailable").Inc()
		}
		return ProcessResult{Applied: false, Reason: outcome.Reason, Record: outcome.Record}, err
	}

	result := ProcessResult{
		Applied:    outcome.Applied,
		Reason:     outcome.Reason,
		Record:     outcome.Record,
		Transition: outcome.Transition,
	}
	if !outcome.Applied {
		metrics.DeliveriesIgnored.WithLabelValues(outcome.Reason).Inc()
		logger.Info("notification ignored",
			"event", "webhook_delivery_ignored",
			"module", "payments/webhook-engine",
			"layer", "application",
			"bill_code", data.BillCode,
			"transaction_id", data.TransactionID,
			"reason", outcome.Reason,
		)
		// No dispatch for non-applied deliveries: the state transition is
		// deduplicated and so are its side effects.
		return result, nil
	}

	metrics.TransitionsApplied.WithLabelValues(string(outcome.Record.CurrentStatus), string(source)).Inc()
	logger.Info("payment transition applied",
		"event", "payment_transition_applied",
		"module", "payments/webhook-engine",
		"layer", "application",
		"bill_code", data.BillCode,
		"transaction_id", data.TransactionID,
		"from_status", string(outcome.Transition.FromStatus),
		"to_status", string(outcome.Record.CurrentStatus),
		"source", string(outcome.Transition.Source),
	)

	result.HandlerErrors = s.Registry.Dispatch(ctx, outcome.Record, outcome.Transition.TransitionID, s.Logger)
	if len(result.HandlerErrors) > 0 {
		metrics.HandlerFailures.Add(float64(len(result.HandlerErrors)))
	}
	return result, nil
}

// decide encodes the forward-transition rules. It runs under the store's
// per-bill lock, so the duplicate check the store performed and the decision
// here are atomic with respect to concurrent deliveries for the same bill.
func (s Service) decide(data entities.CallbackData, source entities.TransitionSource) ports.TransitionDecider {
	return func(ctx context.Context, current entities.PaymentRecord) (ports.Decision, error) {
		from := current.CurrentStatus
		to := data.Status

		// A late PENDING for a bill that already reached a terminal status is
		// resolved by ordering alone: PENDING conceptually precedes every
		// other status, so the delivery is stale, not conflicting.
		if to == entities.StatusPending && from.Terminal() {
			return ports.Decision{Reason: ports.ReasonStale}, nil
		}

		if from == entities.StatusSuccess && to != entities.StatusSuccess {
			return s.decideSuccessConflict(ctx, current, data)
		}

		if current.Amount != nil && data.Amount != nil && *current.Amount != *data.Amount {
			ResolveLogger(s.Logger).Warn("notification amount disagrees with stored amount",
				"event", "webhook_amount_conflict",
				"module", "payments/webhook-engine",
				"layer", "application",
				"bill_code", data.BillCode,
				"stored_amount", *current.Amount,
				"notified_amount", *data.Amount,
			)
		}

		transition, err := s.newTransition(ctx, data, from, to, source, false)
		if err != nil {
			return ports.Decision{}, err
		}
		return ports.Decision{Apply: true, Transition: transition}, nil
	}
}

// decideSuccessConflict handles the only path that consults the external
// collaborator: an event claiming a settled payment changed status. The stored
// SUCCESS wins unless the authoritative snapshot confirms the change;
// an unverifiable conflict is never applied.
func (s Service) decideSuccessConflict(ctx context.Context, current entities.PaymentRecord, data entities.CallbackData) (ports.Decision, error) {
	snapshot, err := s.reconciler().Resolve(ctx, data.BillCode)
	if err != nil {
		metrics.ReconciliationOutcomes.WithLabelValues("unavailable").Inc()
		if errors.Is(err, domainerrors.ErrReconciliationUnavailable) {
			return ports.Decision{}, err
		}
		return ports.Decision{}, fmt.Errorf("%w: %v", domainerrors.ErrReconciliationUnavailable, err)
	}

	if snapshot.Status == entities.StatusSuccess {
		metrics.ReconciliationOutcomes.WithLabelValues("confirmed_stored").Inc()
		audit, err := s.newTransition(ctx, data, entities.StatusSuccess, entities.StatusSuccess, entities.SourceReconciliation, true)
		if err != nil {
			return ports.Decision{}, err
		}
		return ports.Decision{Audit: &audit, Reason: ports.ReasonConflict}, domainerrors.ErrConflict
	}

	metrics.ReconciliationOutcomes.WithLabelValues("confirmed_incoming").Inc()
	transition, err := s.newTransition(ctx, data, current.CurrentStatus, data.Status, entities.SourceReconciliation, false)
	if err != nil {
		return ports.Decision{}, err
	}
	return ports.Decision{Apply: true, Transition: transition}, nil
}

// ReconcilePayment re-checks one bill against the authoritative collaborator
// and pushes the result through the same apply path as a webhook, with the
// reconciliation source. Used by the stale-pending sweep.
func (s Service) ReconcilePayment(ctx context.Context, billCode string) (ProcessResult, error) {
	snapshot, err := s.reconciler().Resolve(ctx, billCode)
	if err != nil {
		return ProcessResult{}, err
	}
	if !snapshot.Status.Terminal() {
		return ProcessResult{Applied: false, Reason: ports.ReasonStale}, nil
	}
	data := entities.CallbackData{
		BillCode:      billCode,
		Status:        snapshot.Status,
		TransactionID: snapshot.TransactionID,
		Amount:        snapshot.Amount,
	}
	return s.applyAndDispatch(ctx, data, entities.SourceReconciliation)
}

func (s Service) GetPayment(ctx context.Context, billCode string) (entities.PaymentRecord, error) {
	return s.Store.Get(ctx, billCode)
}

func (s Service) SoftDeletePayment(ctx context.Context, billCode string) error {
	return s.Store.SoftDelete(ctx, billCode)
}

func (s Service) ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]entities.PaymentRecord, error) {
	return s.Store.ListStalePending(ctx, olderThan, limit)
}

func (s Service) newTransition(
	ctx context.Context,
	data entities.CallbackData,
	from entities.PaymentStatus,
	to entities.PaymentStatus,
	source entities.TransitionSource,
	noOp bool,
) (entities.StatusTransition, error) {
	if s.IDGen == nil {
		return entities.StatusTransition{}, errors.New("webhook engine requires an id generator")
	}
	id, err := s.IDGen.NewID(ctx)
	if err != nil {
		return entities.StatusTransition{}, err
	}
	return entities.StatusTransition{
		TransitionID:  id,
		BillCode:      data.BillCode,
		FromStatus:    from,
		ToStatus:      to,
		TransactionID: data.TransactionID,
		Source:        source,
		NoOp:          noOp,
		AppliedAt:     s.now(),
	}, nil
}

func (s Service) reconciler() Reconciler {
	return Reconciler{
		Lookup:    s.Lookup,
		Attempts:  s.ReconcileAttempts,
		BaseDelay: s.ReconcileBaseDelay,
		Logger:    s.Logger,
	}
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, domainerrors.ErrMissingField):
		return "missing_field"
	case errors.Is(err, domainerrors.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, domainerrors.ErrSignatureVerification):
		return "bad_signature"
	case errors.Is(err, domainerrors.ErrMalformedPayload):
		return "malformed_payload"
	default:
		return "other"
	}
}
