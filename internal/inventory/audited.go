package inventory

import (
	"context"

	"github.com/google/uuid"

	"github.com/angelmondragon/innkeeper-backend/internal/audit"
	"github.com/angelmondragon/innkeeper-backend/pkg/db/models"
	"github.com/angelmondragon/innkeeper-backend/pkg/logger"
	"github.com/angelmondragon/innkeeper-backend/pkg/types"
)

type auditedService struct {
	Service
	logg *logger.Logger
}

// NewAuditedService wraps the stock mutations of next with audit records.
func NewAuditedService(next Service, logg *logger.Logger) Service {
	return &auditedService{Service: next, logg: logg}
}

func (a *auditedService) CreateItem(ctx context.Context, input CreateItemInput, actor string) (*models.InventoryItem, error) {
	return audit.Call(ctx, a.logg, "inventory.create_item", actor, input, func() (*models.InventoryItem, error) {
		return a.Service.CreateItem(ctx, input, actor)
	})
}

func (a *auditedService) StockIn(ctx context.Context, input StockInInput, actor string) (*Movement, error) {
	return audit.Call(ctx, a.logg, "inventory.stock_in", actor, input, func() (*Movement, error) {
		return a.Service.StockIn(ctx, input, actor)
	})
}

func (a *auditedService) StockOut(ctx context.Context, input StockOutInput, actor string) (*Movement, error) {
	return audit.Call(ctx, a.logg, "inventory.stock_out", actor, input, func() (*Movement, error) {
		return a.Service.StockOut(ctx, input, actor)
	})
}

func (a *auditedService) SetStandardConsumption(ctx context.Context, input ConsumptionInput) (*models.RoomStandardConsumption, error) {
	return audit.Call(ctx, a.logg, "inventory.set_consumption", "", input, func() (*models.RoomStandardConsumption, error) {
		return a.Service.SetStandardConsumption(ctx, input)
	})
}

func (a *auditedService) RemoveStandardConsumption(ctx context.Context, roomID, itemID uuid.UUID) error {
	input := map[string]uuid.UUID{"room_id": roomID, "item_id": itemID}
	return audit.Do(ctx, a.logg, "inventory.remove_consumption", "", input, func() error {
		return a.Service.RemoveStandardConsumption(ctx, roomID, itemID)
	})
}

func (a *auditedService) ConsumeForRoomCleaning(ctx context.Context, roomID uuid.UUID, roomNumber string, actor string) (types.BatchSummary, error) {
	input := map[string]string{"room_id": roomID.String(), "room_number": roomNumber}
	return audit.Call(ctx, a.logg, "inventory.cleaning_consumption", actor, input, func() (types.BatchSummary, error) {
		return a.Service.ConsumeForRoomCleaning(ctx, roomID, roomNumber, actor)
	})
}
