package payments

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/innkeeper-backend/pkg/db/models"
	"github.com/angelmondragon/innkeeper-backend/pkg/enums"
)

// Repository manages persistence for the payment ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, payment *models.PaymentTransaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.PaymentTransaction, error)
	ListByReservation(ctx context.Context, reservationID uuid.UUID) ([]models.PaymentTransaction, error)
	ListSettled(ctx context.Context, reservationID uuid.UUID) ([]models.PaymentTransaction, error)
	Transition(ctx context.Context, id uuid.UUID, from enums.PaymentStatus, updates map[string]any) (bool, error)
	ReservationExists(ctx context.Context, reservationID uuid.UUID) (bool, error)
	LockReservation(ctx context.Context, reservationID uuid.UUID) (*models.Reservation, error)
	SetPaidAmount(ctx context.Context, reservationID uuid.UUID, amount decimal.Decimal) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a payment repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, payment *models.PaymentTransaction) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.PaymentTransaction, error) {
	var payment models.PaymentTransaction
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *repository) ListByReservation(ctx context.Context, reservationID uuid.UUID) ([]models.PaymentTransaction, error) {
	var rows []models.PaymentTransaction
	if err := r.db.WithContext(ctx).
		Where("reservation_id = ?", reservationID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListSettled(ctx context.Context, reservationID uuid.UUID) ([]models.PaymentTransaction, error) {
	var rows []models.PaymentTransaction
	if err := r.db.WithContext(ctx).
		Where("reservation_id = ? AND status = ?", reservationID, enums.PaymentStatusSuccess).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Transition applies updates only while the row still holds the from status.
func (r *repository) Transition(ctx context.Context, id uuid.UUID, from enums.PaymentStatus, updates map[string]any) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.PaymentTransaction{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) ReservationExists(ctx context.Context, reservationID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("id = ?", reservationID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// LockReservation takes a row lock on the reservation so settlement serializes
// with cancellation and check-out.
func (r *repository) LockReservation(ctx context.Context, reservationID uuid.UUID) (*models.Reservation, error) {
	var res models.Reservation
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", reservationID).
		First(&res).Error; err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *repository) SetPaidAmount(ctx context.Context, reservationID uuid.UUID, amount decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("id = ?", reservationID).
		Update("paid_amount", amount).Error
}
