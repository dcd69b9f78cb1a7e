package guests

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
	Create(ctx context.Context, guest *models.Guest) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Guest, error)
	FindByEmail(ctx context.Context, email string) (*models.Guest, error)
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

func (r *repository) Create(ctx context.Context, guest *models.Guest) error {
	return r.DB(ctx).Create(guest).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Guest, error) {
	var guest models.Guest
	if err := r.DB(ctx).Where("id = ?", id).First(&guest).Error; err != nil {
		return nil, err
	}
	return &guest, nil
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*models.Guest, error) {
	var guest models.Guest
	err := r.DB(ctx).
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&guest).Error
	if err != nil {
		return nil, err
	}
	return &guest, nil
}
