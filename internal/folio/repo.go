package folio

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/innkeeper-backend/pkg/db/models"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, charge *models.FolioCharge) error
	ListByReservation(ctx context.Context, reservationID uuid.UUID) ([]models.FolioCharge, error)
	LockReservation(ctx context.Context, reservationID uuid.UUID) (*models.Reservation, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, charge *models.FolioCharge) error {
	return r.db.WithContext(ctx).Create(charge).Error
}

func (r *repository) ListByReservation(ctx context.Context, reservationID uuid.UUID) ([]models.FolioCharge, error) {
	var rows []models.FolioCharge
	if err := r.db.WithContext(ctx).
		Where("reservation_id = ?", reservationID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

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
