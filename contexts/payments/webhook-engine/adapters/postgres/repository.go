package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"paygate/contexts/payments/webhook-engine/domain/entities"
	domainerrors "paygate/contexts/payments/webhook-engine/domain/errors"
	"paygate/contexts/payments/webhook-engine/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository is the relational payment store. Per-bill serialization uses a
// row lock on the payments row; the unique index on
// (bill_code, transaction_id, to_status, no_op) enforces the idempotency key
// at the storage layer as a second line of defense beyond the in-process
// check.
type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Migrate creates the payments and payment_transitions tables.
func (r *Repository) Migrate() error {
	return r.db.AutoMigrate(&paymentModel{}, &transitionModel{})
}

func (r *Repository) Apply(ctx context.Context, event entities.CallbackData, decide ports.TransitionDecider) (ports.ApplyOutcome, error) {
	code := strings.TrimSpace(event.BillCode)
	if code == "" {
		return ports.ApplyOutcome{}, fmt.Errorf("%w: empty bill code", domainerrors.ErrMalformedPayload)
	}

	var outcome ports.ApplyOutcome
	var decideErr error

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Ensure the row exists so SELECT FOR UPDATE serializes concurrent
		// first deliveries for the same bill as well.
		placeholder := paymentModel{
			BillCode:      code,
			OrderID:       strings.TrimSpace(event.OrderID),
			CurrentStatus: string(entities.StatusPending),
			CreatedAt:     time.Now().UTC(),
			UpdatedAt:     time.Now().UTC(),
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "bill_code"}},
			DoNothing: true,
		}).Create(&placeholder).Error; err != nil {
			return err
		}

		var row paymentModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("bill_code = ?", code).
			First(&row).Error; err != nil {
			return err
		}

		var duplicates int64
		if err := tx.Model(&transitionModel{}).
			Where("bill_code = ?", code).
			Where("transaction_id = ?", strings.TrimSpace(event.TransactionID)).
			Where("to_status = ?", string(event.Status)).
			Where("no_op = ?", false).
			Count(&duplicates).Error; err != nil {
			return err
		}
		if duplicates > 0 {
			record, err := r.loadRecord(tx, code)
			if err != nil {
				return err
			}
			outcome = ports.ApplyOutcome{Applied: false, Reason: ports.ReasonDuplicate, Record: record}
			return nil
		}

		current, err := r.loadRecord(tx, code)
		if err != nil {
			return err
		}

		decision, err := decide(ctx, current)
		if decision.Audit != nil {
			if auditErr := r.insertTransition(tx, *decision.Audit, event.Raw); auditErr != nil {
				return auditErr
			}
		}
		if err != nil {
			// The decision error (conflict, reconciliation unavailable) is
			// surfaced to the caller, but the audit entry above still commits.
			decideErr = err
			record, loadErr := r.loadRecord(tx, code)
			if loadErr != nil {
				return loadErr
			}
			outcome = ports.ApplyOutcome{Applied: false, Reason: decision.Reason, Record: record}
			return nil
		}
		if !decision.Apply {
			outcome = ports.ApplyOutcome{Applied: false, Reason: decision.Reason, Record: current}
			return nil
		}

		if err := r.insertTransition(tx, decision.Transition, event.Raw); err != nil {
			if isUniqueViolation(err) {
				record, loadErr := r.loadRecord(tx, code)
				if loadErr != nil {
					return loadErr
				}
				outcome = ports.ApplyOutcome{Applied: false, Reason: ports.ReasonDuplicate, Record: record}
				return nil
			}
			return err
		}

		updates := map[string]any{
			"current_status": string(decision.Transition.ToStatus),
			"updated_at":     decision.Transition.AppliedAt.UTC(),
		}
		if txID := strings.TrimSpace(event.TransactionID); txID != "" {
			updates["last_transaction_id"] = txID
		}
		if row.Amount == nil && event.Amount != nil {
			updates["amount"] = *event.Amount
		}
		if strings.TrimSpace(row.OrderID) == "" && strings.TrimSpace(event.OrderID) != "" {
			updates["order_id"] = strings.TrimSpace(event.OrderID)
		}
		if err := tx.Model(&paymentModel{}).
			Where("bill_code = ?", code).
			Updates(updates).Error; err != nil {
			return err
		}

		record, err := r.loadRecord(tx, code)
		if err != nil {
			return err
		}
		outcome = ports.ApplyOutcome{Applied: true, Record: record, Transition: decision.Transition}
		return nil
	})
	if err != nil {
		return ports.ApplyOutcome{}, r.storageError("payments_repo_apply_failed", err,
			"bill_code", code,
			"transaction_id", strings.TrimSpace(event.TransactionID),
			"to_status", string(event.Status),
		)
	}
	return outcome, decideErr
}

func (r *Repository) Get(ctx context.Context, billCode string) (entities.PaymentRecord, error) {
	code := strings.TrimSpace(billCode)

	var row paymentModel
	err := r.db.WithContext(ctx).
		Where("bill_code = ?", code).
		Where("deleted = ?", false).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.PaymentRecord{}, domainerrors.ErrPaymentNotFound
		}
		return entities.PaymentRecord{}, r.storageError("payments_repo_get_failed", err, "bill_code", code)
	}
	return r.loadRecord(r.db.WithContext(ctx), code)
}

func (r *Repository) SoftDelete(ctx context.Context, billCode string) error {
	code := strings.TrimSpace(billCode)

	result := r.db.WithContext(ctx).
		Model(&paymentModel{}).
		Where("bill_code = ?", code).
		Where("deleted = ?", false).
		Update("deleted", true)
	if result.Error != nil {
		return r.storageError("payments_repo_soft_delete_failed", result.Error, "bill_code", code)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrPaymentNotFound
	}
	return nil
}

func (r *Repository) ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]entities.PaymentRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	var rows []paymentModel
	err := r.db.WithContext(ctx).
		Where("current_status = ?", string(entities.StatusPending)).
		Where("deleted = ?", false).
		Where("updated_at <= ?", olderThan.UTC()).
		Order("updated_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, r.storageError("payments_repo_list_stale_pending_failed", err)
	}

	items := make([]entities.PaymentRecord, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) loadRecord(tx *gorm.DB, billCode string) (entities.PaymentRecord, error) {
	var row paymentModel
	if err := tx.Where("bill_code = ?", billCode).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// First notification for this bill: the decider sees a synthetic
			// PENDING record.
			return entities.PaymentRecord{
				BillCode:      billCode,
				CurrentStatus: entities.StatusPending,
			}, nil
		}
		return entities.PaymentRecord{}, err
	}

	var transitions []transitionModel
	if err := tx.Where("bill_code = ?", billCode).
		Order("applied_at ASC").
		Find(&transitions).Error; err != nil {
		return entities.PaymentRecord{}, err
	}

	record := row.toEntity()
	record.History = make([]entities.StatusTransition, 0, len(transitions))
	for _, transition := range transitions {
		record.History = append(record.History, transition.toEntity())
	}
	return record, nil
}

func (r *Repository) insertTransition(tx *gorm.DB, transition entities.StatusTransition, rawFields map[string]string) error {
	raw, err := json.Marshal(rawFields)
	if err != nil {
		return err
	}
	row := transitionModel{
		TransitionID:  strings.TrimSpace(transition.TransitionID),
		BillCode:      strings.TrimSpace(transition.BillCode),
		FromStatus:    string(transition.FromStatus),
		ToStatus:      string(transition.ToStatus),
		TransactionID: strings.TrimSpace(transition.TransactionID),
		Source:        string(transition.Source),
		NoOp:          transition.NoOp,
		Raw:           datatypes.JSON(raw),
		AppliedAt:     transition.AppliedAt.UTC(),
	}
	if transition.NoOp {
		// Repeated identical conflict confirmations dedupe on the same index.
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
	}
	return tx.Create(&row).Error
}

func (r *Repository) storageError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+7)
	fields = append(fields,
		"event", event,
		"module", "payments/webhook-engine",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("payments repository operation failed", fields...)
	return fmt.Errorf("%w: %v", domainerrors.ErrStorageUnavailable, err)
}

type paymentModel struct {
	BillCode          string    `gorm:"column:bill_code;primaryKey"`
	OrderID           string    `gorm:"column:order_id"`
	CurrentStatus     string    `gorm:"column:current_status"`
	Amount            *float64  `gorm:"column:amount"`
	LastTransactionID string    `gorm:"column:last_transaction_id"`
	Deleted           bool      `gorm:"column:deleted"`
	CreatedAt         time.Time `gorm:"column:created_at"`
	UpdatedAt         time.Time `gorm:"column:updated_at"`
}

func (paymentModel) TableName() string {
	return "payments"
}

func (m paymentModel) toEntity() entities.PaymentRecord {
	record := entities.PaymentRecord{
		BillCode:          m.BillCode,
		CurrentStatus:     entities.PaymentStatus(m.CurrentStatus),
		OrderID:           m.OrderID,
		LastTransactionID: m.LastTransactionID,
		Deleted:           m.Deleted,
		CreatedAt:         m.CreatedAt.UTC(),
		UpdatedAt:         m.UpdatedAt.UTC(),
	}
	if m.Amount != nil {
		amount := *m.Amount
		record.Amount = &amount
	}
	return record
}

type transitionModel struct {
	TransitionID  string         `gorm:"column:transition_id;primaryKey"`
	BillCode      string         `gorm:"column:bill_code;index;uniqueIndex:ux_payment_transition_idem"`
	TransactionID string         `gorm:"column:transaction_id;uniqueIndex:ux_payment_transition_idem"`
	ToStatus      string         `gorm:"column:to_status;uniqueIndex:ux_payment_transition_idem"`
	NoOp          bool           `gorm:"column:no_op;uniqueIndex:ux_payment_transition_idem"`
	FromStatus    string         `gorm:"column:from_status"`
	Source        string         `gorm:"column:source"`
	Raw           datatypes.JSON `gorm:"column:raw;type:jsonb"`
	AppliedAt     time.Time      `gorm:"column:applied_at"`
}

func (transitionModel) TableName() string {
	return "payment_transitions"
}

func (m transitionModel) toEntity() entities.StatusTransition {
	return entities.StatusTransition{
		TransitionID:  m.TransitionID,
		BillCode:      m.BillCode,
		FromStatus:    entities.PaymentStatus(m.FromStatus),
		ToStatus:      entities.PaymentStatus(m.ToStatus),
		TransactionID: m.TransactionID,
		Source:        entities.TransitionSource(m.Source),
		NoOp:          m.NoOp,
		AppliedAt:     m.AppliedAt.UTC(),
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.PaymentStore = (*Repository)(nil)
