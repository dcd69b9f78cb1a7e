package staff

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/innkeeper-backend/internal/repo"
	"github.com/angelmondragon/innkeeper-backend/pkg/db/models"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, member *models.Staff) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Staff, error)
	FindByUsername(ctx context.Context, username string) (*models.Staff, error)
	List(ctx context.Context) ([]models.Staff, error)
	Count(ctx context.Context) (int64, error)
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

func (r *repository) Create(ctx context.Context, member *models.Staff) error {
	return r.DB(ctx).Create(member).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Staff, error) {
	var member models.Staff
	if err := r.DB(ctx).Where("id = ?", id).First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *repository) FindByUsername(ctx context.Context, username string) (*models.Staff, error) {
	var member models.Staff
	err := r.DB(ctx).
		Where("username = ?", strings.ToLower(strings.TrimSpace(username))).
		First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *repository) List(ctx context.Context) ([]models.Staff, error) {
	var members []models.Staff
	if err := r.DB(ctx).Order("username ASC").Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

func (r *repository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.DB(ctx).Model(&models.Staff{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	res := r.DB(ctx).Model(&models.Staff{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
