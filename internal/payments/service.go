// Package payments owns the append-only payment ledger. A reservation's paid
// amount is always re-derivable as settled payments minus settled refunds.
package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/innkeeper-backend/pkg/db/models"
	"github.com/angelmondragon/innkeeper-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/innkeeper-backend/pkg/errors"
	"github.com/angelmondragon/innkeeper-backend/pkg/outbox"
	"github.com/angelmondragon/innkeeper-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service records and settles payment transactions.
type Service interface {
	// Record posts a settled transaction inside the caller's transaction.
	Record(ctx context.Context, tx *gorm.DB, input RecordInput) (*models.PaymentTransaction, error)
	CreatePending(ctx context.Context, input PendingInput, actor string) (*models.PaymentTransaction, error)
	MarkSuccess(ctx context.Context, paymentID uuid.UUID, providerRef string, actor string) (*models.PaymentTransaction, error)
	MarkFailed(ctx context.Context, paymentID uuid.UUID, note string, actor string) (*models.PaymentTransaction, error)
	Retry(ctx context.Context, failedID uuid.UUID, actor string) (*models.PaymentTransaction, error)
	ListByReservation(ctx context.Context, reservationID uuid.UUID) ([]models.PaymentTransaction, error)
	PaidTotal(ctx context.Context, tx *gorm.DB, reservationID uuid.UUID) (decimal.Decimal, error)
	Reconcile(ctx context.Context, reservationID uuid.UUID) (decimal.Decimal, error)
}

// RecordInput captures a desk collection or a refund that settled immediately.
type RecordInput struct {
	ReservationID uuid.UUID
	Amount        decimal.Decimal
	Type          enums.PaymentType
	Method        enums.PaymentMethod
	ProviderRef   *string
	Note          *string
	Actor         string
}

// PendingInput opens a provider payment that settles later.
type PendingInput struct {
	ReservationID uuid.UUID
	Amount        decimal.Decimal
	Method        enums.PaymentMethod
	Note          *string
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outbox.Emitter
	now    func() time.Time
}

// NewService wires a payment service with the provided dependencies.
func NewService(repo Repository, tx txRunner, emitter outbox.Emitter) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payment repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &service{repo: repo, tx: tx, outbox: emitter, now: time.Now}, nil
}

func (s *service) Record(ctx context.Context, tx *gorm.DB, input RecordInput) (*models.PaymentTransaction, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	if input.ReservationID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reservation id is required")
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be greater than zero")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment type %q", input.Type))
	}
	method := input.Method
	if method == "" {
		method = enums.PaymentMethodCash
	}
	if !method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment method %q", method))
	}
	if strings.TrimSpace(input.Actor) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor is required")
	}

	settled := s.now().UTC()
	payment := &models.PaymentTransaction{
		ReservationID:         input.ReservationID,
		Amount:                input.Amount.Round(2),
		Type:                  input.Type,
		Status:                enums.PaymentStatusSuccess,
		Method:                method,
		ProviderTransactionID: input.ProviderRef,
		Note:                  input.Note,
		CreatedBy:             input.Actor,
		SettledAt:             &settled,
	}
	if err := s.repo.WithTx(tx).Create(ctx, payment); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record payment")
	}

	eventType := enums.EventPaymentRecorded
	if payment.Type == enums.PaymentTypeRefund {
		eventType = enums.EventRefundIssued
	}
	if err := s.emit(ctx, tx, eventType, payment, input.Actor); err != nil {
		return nil, err
	}
	return payment, nil
}

func (s *service) CreatePending(ctx context.Context, input PendingInput, actor string) (*models.PaymentTransaction, error) {
	if strings.TrimSpace(actor) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor is required")
	}
	if input.ReservationID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reservation id is required")
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be greater than zero")
	}
	if !input.Method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment method %q", input.Method))
	}

	payment := &models.PaymentTransaction{
		ReservationID: input.ReservationID,
		Amount:        input.Amount.Round(2),
		Type:          enums.PaymentTypePayment,
		Status:        enums.PaymentStatusPending,
		Method:        input.Method,
		Note:          input.Note,
		CreatedBy:     actor,
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := s.lockOpenReservation(ctx, repo, input.ReservationID, "create pending payment"); err != nil {
			return err
		}
		if err := repo.Create(ctx, payment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create pending payment")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

func (s *service) MarkSuccess(ctx context.Context, paymentID uuid.UUID, providerRef string, actor string) (*models.PaymentTransaction, error) {
	updates := map[string]any{"status": enums.PaymentStatusSuccess}
	if ref := strings.TrimSpace(providerRef); ref != "" {
		updates["provider_transaction_id"] = ref
	}
	return s.settle(ctx, paymentID, enums.PaymentStatusSuccess, updates, actor)
}

func (s *service) MarkFailed(ctx context.Context, paymentID uuid.UUID, note string, actor string) (*models.PaymentTransaction, error) {
	updates := map[string]any{"status": enums.PaymentStatusFailed}
	if n := strings.TrimSpace(note); n != "" {
		updates["note"] = n
	}
	return s.settle(ctx, paymentID, enums.PaymentStatusFailed, updates, actor)
}

func (s *service) settle(ctx context.Context, paymentID uuid.UUID, target enums.PaymentStatus, updates map[string]any, actor string) (*models.PaymentTransaction, error) {
	if strings.TrimSpace(actor) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor is required")
	}
	if paymentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id is required")
	}
	updates["settled_at"] = s.now().UTC()

	var settled *models.PaymentTransaction
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.FindByID(ctx, paymentID)
		if err != nil {
			return mapLookupErr(err, "payment not found")
		}
		if current.Status != enums.PaymentStatusPending {
			return pkgerrors.StateConflict(paymentID.String(), string(current.Status), "mark "+strings.ToLower(string(target)))
		}
		if target == enums.PaymentStatusSuccess {
			if err := s.lockOpenReservation(ctx, repo, current.ReservationID, "mark success"); err != nil {
				return err
			}
		}
		ok, err := repo.Transition(ctx, paymentID, enums.PaymentStatusPending, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payment status")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeVersionConflict, "payment was settled concurrently")
		}
		if settled, err = repo.FindByID(ctx, paymentID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload payment")
		}
		if target == enums.PaymentStatusSuccess {
			if _, err := s.syncPaid(ctx, tx, settled.ReservationID); err != nil {
				return err
			}
		}
		eventType := enums.EventPaymentFailed
		if target == enums.PaymentStatusSuccess {
			eventType = enums.EventPaymentSucceeded
		}
		return s.emit(ctx, tx, eventType, settled, actor)
	})
	if err != nil {
		return nil, err
	}
	return settled, nil
}

func (s *service) Retry(ctx context.Context, failedID uuid.UUID, actor string) (*models.PaymentTransaction, error) {
	if strings.TrimSpace(actor) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor is required")
	}
	var retry *models.PaymentTransaction
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		failed, err := repo.FindByID(ctx, failedID)
		if err != nil {
			return mapLookupErr(err, "payment not found")
		}
		if failed.Status != enums.PaymentStatusFailed {
			return pkgerrors.StateConflict(failedID.String(), string(failed.Status), "retry")
		}
		if err := s.lockOpenReservation(ctx, repo, failed.ReservationID, "retry payment"); err != nil {
			return err
		}
		origin := failed.ID
		retry = &models.PaymentTransaction{
			ReservationID: failed.ReservationID,
			Amount:        failed.Amount,
			Type:          failed.Type,
			Status:        enums.PaymentStatusPending,
			Method:        failed.Method,
			RetryOf:       &origin,
			CreatedBy:     actor,
		}
		if err := repo.Create(ctx, retry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create retry payment")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return retry, nil
}

func (s *service) ListByReservation(ctx context.Context, reservationID uuid.UUID) ([]models.PaymentTransaction, error) {
	if reservationID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reservation id is required")
	}
	rows, err := s.repo.ListByReservation(ctx, reservationID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payments")
	}
	return rows, nil
}

// PaidTotal sums settled payments minus settled refunds. A nil tx reads
// outside any transaction.
func (s *service) PaidTotal(ctx context.Context, tx *gorm.DB, reservationID uuid.UUID) (decimal.Decimal, error) {
	rows, err := s.repo.WithTx(tx).ListSettled(ctx, reservationID)
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum payments")
	}
	return SettledTotal(rows), nil
}

func (s *service) Reconcile(ctx context.Context, reservationID uuid.UUID) (decimal.Decimal, error) {
	if reservationID == uuid.Nil {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "reservation id is required")
	}
	var paid decimal.Decimal
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		exists, err := s.repo.WithTx(tx).ReservationExists(ctx, reservationID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup reservation")
		}
		if !exists {
			return pkgerrors.New(pkgerrors.CodeNotFound, "reservation not found")
		}
		paid, err = s.syncPaid(ctx, tx, reservationID)
		return err
	})
	return paid, err
}

// lockOpenReservation locks the reservation row and rejects stays whose
// balance is closed.
func (s *service) lockOpenReservation(ctx context.Context, repo Repository, reservationID uuid.UUID, transition string) error {
	res, err := repo.LockReservation(ctx, reservationID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "reservation not found")
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock reservation")
	}
	switch res.Status {
	case enums.ReservationStatusCancelled, enums.ReservationStatusCheckedOut:
		return pkgerrors.StateConflict(res.ID.String(), string(res.Status), transition)
	}
	return nil
}

func (s *service) syncPaid(ctx context.Context, tx *gorm.DB, reservationID uuid.UUID) (decimal.Decimal, error) {
	paid, err := s.PaidTotal(ctx, tx, reservationID)
	if err != nil {
		return decimal.Zero, err
	}
	if err := s.repo.WithTx(tx).SetPaidAmount(ctx, reservationID, paid); err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update paid amount")
	}
	return paid, nil
}

func (s *service) emit(ctx context.Context, tx *gorm.DB, eventType enums.OutboxEventType, payment *models.PaymentTransaction, actor string) error {
	event := outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregatePayment,
		AggregateID:   payment.ID,
		Actor:         outbox.Actor(actor),
		Data: payloads.PaymentEvent{
			TransactionID:         payment.ID,
			ReservationID:         payment.ReservationID,
			Type:                  payment.Type,
			Status:                payment.Status,
			Amount:                payment.Amount.StringFixed(2),
			ProviderTransactionID: payment.ProviderTransactionID,
			Note:                  payment.Note,
		},
	}
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit payment event")
	}
	return nil
}

// SettledTotal folds settled ledger rows into a net paid amount.
func SettledTotal(rows []models.PaymentTransaction) decimal.Decimal {
	total := decimal.Zero
	for _, row := range rows {
		if row.Status != enums.PaymentStatusSuccess {
			continue
		}
		switch row.Type {
		case enums.PaymentTypePayment:
			total = total.Add(row.Amount)
		case enums.PaymentTypeRefund:
			total = total.Sub(row.Amount)
		}
	}
	return total.Round(2)
}

func mapLookupErr(err error, notFound string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFound)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup payment")
}
