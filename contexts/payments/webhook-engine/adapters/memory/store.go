package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"paygate/contexts/payments/webhook-engine/domain/entities"
	domainerrors "paygate/contexts/payments/webhook-engine/domain/errors"
	"paygate/contexts/payments/webhook-engine/ports"

	"github.com/google/uuid"
)

// Store is the in-memory payment store used by tests and local development.
// Apply calls for one bill code are serialized through a per-bill mutex, and
// every record read or write goes through the store-wide RWMutex; distinct
// bill codes only contend for the brief mutation window.
type Store struct {
	mu      sync.RWMutex
	locks   map[string]*sync.Mutex
	records map[string]*entities.PaymentRecord
}

func NewStore() *Store {
	return &Store{
		locks:   make(map[string]*sync.Mutex),
		records: make(map[string]*entities.PaymentRecord),
	}
}

func (s *Store) Apply(ctx context.Context, event entities.CallbackData, decide ports.TransitionDecider) (ports.ApplyOutcome, error) {
	code := strings.TrimSpace(event.BillCode)
	if code == "" {
		return ports.ApplyOutcome{}, fmt.Errorf("%w: empty bill code", domainerrors.ErrMalformedPayload)
	}

	// The per-bill mutex serializes deliveries for one bill; record reads and
	// writes additionally go through s.mu so concurrent Get/ListStalePending
	// calls never observe a half-applied mutation.
	lock := s.lockFor(code)
	lock.Lock()
	defer lock.Unlock()

	s.mu.RLock()
	stored := s.records[code]
	current := entities.PaymentRecord{
		BillCode:      code,
		CurrentStatus: entities.StatusPending,
	}
	if stored != nil {
		current = stored.Snapshot()
	}
	s.mu.RUnlock()

	// Idempotency key check and mutation happen under the same per-bill lock,
	// so two concurrent duplicate deliveries can never both pass.
	if hasTransition(current.History, event.TransactionID, event.Status) {
		return ports.ApplyOutcome{Applied: false, Reason: ports.ReasonDuplicate, Record: current}, nil
	}

	decision, decideErr := decide(ctx, current)
	if decision.Audit != nil && stored != nil {
		s.mu.Lock()
		stored.History = append(stored.History, *decision.Audit)
		current = stored.Snapshot()
		s.mu.Unlock()
	}
	if decideErr != nil {
		return ports.ApplyOutcome{Applied: false, Reason: decision.Reason, Record: current}, decideErr
	}
	if !decision.Apply {
		return ports.ApplyOutcome{Applied: false, Reason: decision.Reason, Record: current}, nil
	}

	transition := decision.Transition

	s.mu.Lock()
	if stored == nil {
		created := entities.PaymentRecord{
			BillCode:      code,
			CurrentStatus: entities.StatusPending,
			OrderID:       strings.TrimSpace(event.OrderID),
			CreatedAt:     transition.AppliedAt,
		}
		stored = &created
		s.records[code] = stored
	}

	stored.History = append(stored.History, transition)
	stored.CurrentStatus = transition.ToStatus
	stored.UpdatedAt = transition.AppliedAt
	if strings.TrimSpace(event.TransactionID) != "" {
		stored.LastTransactionID = strings.TrimSpace(event.TransactionID)
	}
	if stored.Amount == nil && event.Amount != nil {
		amount := *event.Amount
		stored.Amount = &amount
	}
	if stored.OrderID == "" && strings.TrimSpace(event.OrderID) != "" {
		stored.OrderID = strings.TrimSpace(event.OrderID)
	}
	snapshot := stored.Snapshot()
	s.mu.Unlock()

	return ports.ApplyOutcome{
		Applied:    true,
		Record:     snapshot,
		Transition: transition,
	}, nil
}

func (s *Store) Get(_ context.Context, billCode string) (entities.PaymentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.records[strings.TrimSpace(billCode)]
	if !ok || stored.Deleted {
		return entities.PaymentRecord{}, domainerrors.ErrPaymentNotFound
	}
	return stored.Snapshot(), nil
}

func (s *Store) SoftDelete(_ context.Context, billCode string) error {
	code := strings.TrimSpace(billCode)

	lock := s.lockFor(code)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.records[code]
	if !ok || stored.Deleted {
		return domainerrors.ErrPaymentNotFound
	}
	stored.Deleted = true
	return nil
}

func (s *Store) ListStalePending(_ context.Context, olderThan time.Time, limit int) ([]entities.PaymentRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.PaymentRecord, 0)
	for _, stored := range s.records {
		if stored.Deleted || stored.CurrentStatus != entities.StatusPending {
			continue
		}
		if stored.UpdatedAt.After(olderThan) {
			continue
		}
		items = append(items, stored.Snapshot())
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].UpdatedAt.Before(items[j].UpdatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) lockFor(billCode string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[billCode]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[billCode] = lock
	}
	return lock
}

func hasTransition(history []entities.StatusTransition, transactionID string, toStatus entities.PaymentStatus) bool {
	for _, entry := range history {
		if entry.NoOp {
			continue
		}
		if entry.TransactionID == strings.TrimSpace(transactionID) && entry.ToStatus == toStatus {
			return true
		}
	}
	return false
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

var _ ports.PaymentStore = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
var _ ports.IDGenerator = (*Store)(nil)
