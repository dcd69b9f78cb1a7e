package reservations

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/innkeeper-backend/pkg/db/models"
	"github.com/angelmondragon/innkeeper-backend/pkg/enums"
	"github.com/angelmondragon/innkeeper-backend/pkg/pagination"
)

// ListFilter narrows reservation listings. Zero values match everything.
// From and To select stays overlapping [From, To).
type ListFilter struct {
	Status  enums.ReservationStatus
	GuestID uuid.UUID
	RoomID  uuid.UUID
	From    time.Time
	To      time.Time
}

type listParams struct {
	Filter ListFilter
	Limit  int
	Cursor *pagination.Cursor
}

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, res *models.Reservation) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Reservation, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Reservation, error)
	FindByNumber(ctx context.Context, number string) (*models.Reservation, error)
	NumberExists(ctx context.Context, number string) (bool, error)
	ListByGuest(ctx context.Context, guestID uuid.UUID) ([]models.Reservation, error)
	List(ctx context.Context, params listParams) ([]models.Reservation, *pagination.Cursor, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	Delete(ctx context.Context, id uuid.UUID) error
	AppendHistory(ctx context.Context, entry *models.ReservationHistory) error
	ListHistory(ctx context.Context, reservationID uuid.UUID) ([]models.ReservationHistory, error)
	CreateInspection(ctx context.Context, inspection *models.RoomCheckInspection) error
	LatestInspection(ctx context.Context, reservationID uuid.UUID) (*models.RoomCheckInspection, error)
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

func (r *repository) Create(ctx context.Context, res *models.Reservation) error {
	return r.db.WithContext(ctx).Create(res).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	var res models.Reservation
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&res).Error; err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	var res models.Reservation
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&res).Error; err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *repository) FindByNumber(ctx context.Context, number string) (*models.Reservation, error) {
	var res models.Reservation
	if err := r.db.WithContext(ctx).Where("reservation_number = ?", number).First(&res).Error; err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *repository) NumberExists(ctx context.Context, number string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("reservation_number = ?", number).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) ListByGuest(ctx context.Context, guestID uuid.UUID) ([]models.Reservation, error) {
	var rows []models.Reservation
	if err := r.db.WithContext(ctx).
		Where("guest_id = ?", guestID).
		Order("check_in_date DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) List(ctx context.Context, params listParams) ([]models.Reservation, *pagination.Cursor, error) {
	limit := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).Model(&models.Reservation{})
	f := params.Filter
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if f.GuestID != uuid.Nil {
		query = query.Where("guest_id = ?", f.GuestID)
	}
	if f.RoomID != uuid.Nil {
		query = query.Where("room_id = ?", f.RoomID)
	}
	if !f.From.IsZero() {
		query = query.Where("check_out_date > ?", f.From)
	}
	if !f.To.IsZero() {
		query = query.Where("check_in_date < ?", f.To)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var rows []models.Reservation
	if err := query.Order("created_at DESC, id DESC").Limit(limit + 1).Find(&rows).Error; err != nil {
		return nil, nil, err
	}
	page, next := pagination.Trim(rows, limit, func(r models.Reservation) pagination.Cursor {
		return pagination.Cursor{CreatedAt: r.CreatedAt, ID: r.ID}
	})
	return page, next, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// Delete removes the reservation row only. History, inspections, payments and
// folio charges are kept.
func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Reservation{}).Error
}

func (r *repository) AppendHistory(ctx context.Context, entry *models.ReservationHistory) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) ListHistory(ctx context.Context, reservationID uuid.UUID) ([]models.ReservationHistory, error) {
	var rows []models.ReservationHistory
	if err := r.db.WithContext(ctx).
		Where("reservation_id = ?", reservationID).
		Order("created_at DESC, id DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) CreateInspection(ctx context.Context, inspection *models.RoomCheckInspection) error {
	return r.db.WithContext(ctx).Create(inspection).Error
}

func (r *repository) LatestInspection(ctx context.Context, reservationID uuid.UUID) (*models.RoomCheckInspection, error) {
	var rows []models.RoomCheckInspection
	if err := r.db.WithContext(ctx).
		Where("reservation_id = ?", reservationID).
		Order("inspected_at DESC").
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}
