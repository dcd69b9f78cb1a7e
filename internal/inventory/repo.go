package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/innkeeper-backend/pkg/db/models"
)

// ItemFilter narrows item listings.
type ItemFilter struct {
	Category   string
	ActiveOnly bool
}

// Repository persists items, their transaction ledger and per-room standard consumption.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateItem(ctx context.Context, item *models.InventoryItem) error
	FindItem(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error)
	FindItemForUpdate(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error)
	ListItems(ctx context.Context, filter ItemFilter) ([]models.InventoryItem, error)
	ListLowStock(ctx context.Context) ([]models.InventoryItem, error)
	CompareAndSwap(ctx context.Context, id uuid.UUID, expected int64, updates map[string]any) (bool, error)
	CreateTransaction(ctx context.Context, txn *models.InventoryTransaction) error
	ListTransactions(ctx context.Context, itemID uuid.UUID) ([]models.InventoryTransaction, error)
	UpsertConsumption(ctx context.Context, row *models.RoomStandardConsumption) error
	ListConsumption(ctx context.Context, roomID uuid.UUID) ([]models.RoomStandardConsumption, error)
	DeleteConsumption(ctx context.Context, roomID, itemID uuid.UUID) (bool, error)
	RoomExists(ctx context.Context, roomID uuid.UUID) (bool, error)
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

func (r *repository) CreateItem(ctx context.Context, item *models.InventoryItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *repository) FindItem(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error) {
	var item models.InventoryItem
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) FindItemForUpdate(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error) {
	var item models.InventoryItem
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) ListItems(ctx context.Context, filter ItemFilter) ([]models.InventoryItem, error) {
	query := r.db.WithContext(ctx).Model(&models.InventoryItem{})
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	var items []models.InventoryItem
	if err := query.Order("name ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) ListLowStock(ctx context.Context) ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	if err := r.db.WithContext(ctx).
		Where("is_active = ? AND current_quantity <= safety_threshold", true).
		Order("name ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) CompareAndSwap(ctx context.Context, id uuid.UUID, expected int64, updates map[string]any) (bool, error) {
	values := make(map[string]any, len(updates)+1)
	for k, v := range updates {
		values[k] = v
	}
	values["version"] = gorm.Expr("version + 1")
	res := r.db.WithContext(ctx).
		Model(&models.InventoryItem{}).
		Where("id = ? AND version = ?", id, expected).
		Updates(values)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) CreateTransaction(ctx context.Context, txn *models.InventoryTransaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *repository) ListTransactions(ctx context.Context, itemID uuid.UUID) ([]models.InventoryTransaction, error) {
	var rows []models.InventoryTransaction
	if err := r.db.WithContext(ctx).
		Where("inventory_item_id = ?", itemID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) UpsertConsumption(ctx context.Context, row *models.RoomStandardConsumption) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "room_id"}, {Name: "inventory_item_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"standard_quantity", "description", "updated_at"}),
		}).
		Create(row).Error
}

func (r *repository) ListConsumption(ctx context.Context, roomID uuid.UUID) ([]models.RoomStandardConsumption, error) {
	var rows []models.RoomStandardConsumption
	if err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) DeleteConsumption(ctx context.Context, roomID, itemID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("room_id = ? AND inventory_item_id = ?", roomID, itemID).
		Delete(&models.RoomStandardConsumption{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) RoomExists(ctx context.Context, roomID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Room{}).Where("id = ?", roomID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
