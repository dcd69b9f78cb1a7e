package waitlist

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/innkeeper-backend/internal/repo"
	"github.com/angelmondragon/innkeeper-backend/pkg/db/models"
	"github.com/angelmondragon/innkeeper-backend/pkg/enums"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.WaitlistEntry) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.WaitlistEntry, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.WaitlistEntry, error)
	List(ctx context.Context, status enums.WaitlistStatus) ([]models.WaitlistEntry, error)
	// ListPendingArriving returns PENDING entries whose desired check-in falls
	// within [from, to], oldest request first.
	ListPendingArriving(ctx context.Context, from, to time.Time) ([]models.WaitlistEntry, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
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

func (r *repository) Create(ctx context.Context, entry *models.WaitlistEntry) error {
	return r.DB(ctx).Create(entry).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.WaitlistEntry, error) {
	var entry models.WaitlistEntry
	if err := r.DB(ctx).Where("id = ?", id).First(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.WaitlistEntry, error) {
	var entry models.WaitlistEntry
	if err := r.Locked(ctx).
		Where("id = ?", id).
		First(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *repository) List(ctx context.Context, status enums.WaitlistStatus) ([]models.WaitlistEntry, error) {
	query := r.DB(ctx).Model(&models.WaitlistEntry{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var rows []models.WaitlistEntry
	if err := query.Order("created_at ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListPendingArriving(ctx context.Context, from, to time.Time) ([]models.WaitlistEntry, error) {
	var rows []models.WaitlistEntry
	if err := r.DB(ctx).
		Where("status = ?", enums.WaitlistStatusPending).
		Where("check_in_date >= ? AND check_in_date <= ?", from, to).
		Order("created_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.DB(ctx).
		Model(&models.WaitlistEntry{}).
		Where("id = ?", id).
		Updates(updates).Error
}
