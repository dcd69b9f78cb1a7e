package settings

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/innkeeper-backend/pkg/db/models"
)

// Repository persists keyed settings.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Find(ctx context.Context, key string) (*models.SystemSetting, error)
	List(ctx context.Context) ([]models.SystemSetting, error)
	Upsert(ctx context.Context, setting *models.SystemSetting) error
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

// Find returns nil without error when the key is absent.
func (r *repository) Find(ctx context.Context, key string) (*models.SystemSetting, error) {
	var row models.SystemSetting
	res := r.db.WithContext(ctx).Where("setting_key = ?", key).Limit(1).Find(&row)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &row, nil
}

func (r *repository) List(ctx context.Context) ([]models.SystemSetting, error) {
	var rows []models.SystemSetting
	err := r.db.WithContext(ctx).Order("setting_key ASC").Find(&rows).Error
	return rows, err
}

func (r *repository) Upsert(ctx context.Context, setting *models.SystemSetting) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "setting_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "description", "updated_by", "updated_at"}),
		}).
		Create(setting).Error
}
