package rooms

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/innkeeper-backend/internal/repo"
	"github.com/angelmondragon/innkeeper-backend/pkg/db/models"
	"github.com/angelmondragon/innkeeper-backend/pkg/enums"
)

// ListFilter narrows room listings. Zero values match everything.
type ListFilter struct {
	RoomType   string
	Status     enums.RoomStatus
	ActiveOnly bool
}

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, room *models.Room) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Room, error)
	// FindByIDForUpdate locks the row until the surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Room, error)
	FindByNumber(ctx context.Context, number string) (*models.Room, error)
	List(ctx context.Context, filter ListFilter) ([]models.Room, error)
	// CompareAndSwap applies updates and bumps version only when the stored
	// version still equals expected.
	CompareAndSwap(ctx context.Context, id uuid.UUID, expected int64, updates map[string]any) (bool, error)
	HasActiveStay(ctx context.Context, roomID uuid.UUID, today time.Time) (bool, error)
}

type repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: r.Bind(tx)}
}

func (r *repository) Create(ctx context.Context, room *models.Room) error {
	return r.DB(ctx).Create(room).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Room, error) {
	var room models.Room
	if err := r.DB(ctx).Where("id = ?", id).First(&room).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Room, error) {
	var room models.Room
	if err := r.Locked(ctx).
		Where("id = ?", id).
		First(&room).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *repository) FindByNumber(ctx context.Context, number string) (*models.Room, error) {
	var room models.Room
	if err := r.DB(ctx).Where("room_number = ?", number).First(&room).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

// List orders rooms by number. Shorter numbers sort first so digit-only room
// numbers compare by value ("99" before "100").
func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.Room, error) {
	query := r.DB(ctx).Model(&models.Room{})
	if filter.RoomType != "" {
		query = query.Where("room_type = ?", filter.RoomType)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	var rooms []models.Room
	if err := query.Order("length(room_number) ASC, room_number ASC").Find(&rooms).Error; err != nil {
		return nil, err
	}
	return rooms, nil
}

func (r *repository) CompareAndSwap(ctx context.Context, id uuid.UUID, expected int64, updates map[string]any) (bool, error) {
	values := make(map[string]any, len(updates)+1)
	for k, v := range updates {
		values[k] = v
	}
	values["version"] = gorm.Expr("version + 1")
	res := r.DB(ctx).
		Model(&models.Room{}).
		Where("id = ? AND version = ?", id, expected).
		Updates(values)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// HasActiveStay reports whether a checked-in reservation holds the room today.
// Overstays past the booked check-out date still count.
func (r *repository) HasActiveStay(ctx context.Context, roomID uuid.UUID, today time.Time) (bool, error) {
	var count int64
	err := r.DB(ctx).
		Model(&models.Reservation{}).
		Where("room_id = ? AND status = ? AND check_in_date <= ?", roomID, enums.ReservationStatusCheckedIn, today).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
