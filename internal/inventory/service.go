// Package inventory is the stock costing engine. Item quantity and unit cost
// are projections of the transaction ledger and change only by posting to it.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/innkeeper-backend/pkg/db"
	"github.com/angelmondragon/innkeeper-backend/pkg/db/models"
	"github.com/angelmondragon/innkeeper-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/innkeeper-backend/pkg/errors"
	"github.com/angelmondragon/innkeeper-backend/pkg/logger"
	"github.com/angelmondragon/innkeeper-backend/pkg/metrics"
	"github.com/angelmondragon/innkeeper-backend/pkg/outbox"
	"github.com/angelmondragon/innkeeper-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/innkeeper-backend/pkg/types"
)

const (
	CleaningReason          = "room cleaning standard consumption"
	cleaningReferencePrefix = "ROOM_"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type Service interface {
	CreateItem(ctx context.Context, input CreateItemInput, actor string) (*models.InventoryItem, error)
	GetItem(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error)
	ListItems(ctx context.Context, filter ItemFilter) ([]models.InventoryItem, error)
	ListLowStock(ctx context.Context) ([]models.InventoryItem, error)
	ListTransactions(ctx context.Context, itemID uuid.UUID) ([]models.InventoryTransaction, error)
	StockIn(ctx context.Context, input StockInInput, actor string) (*Movement, error)
	StockOut(ctx context.Context, input StockOutInput, actor string) (*Movement, error)
	SetStandardConsumption(ctx context.Context, input ConsumptionInput) (*models.RoomStandardConsumption, error)
	ListStandardConsumption(ctx context.Context, roomID uuid.UUID) ([]models.RoomStandardConsumption, error)
	RemoveStandardConsumption(ctx context.Context, roomID, itemID uuid.UUID) error
	ConsumeForRoomCleaning(ctx context.Context, roomID uuid.UUID, roomNumber string, actor string) (types.BatchSummary, error)
}

type CreateItemInput struct {
	Name            string
	Category        string
	Unit            string
	SafetyThreshold decimal.Decimal
	OpeningQuantity decimal.Decimal
	OpeningCost     decimal.Decimal
	Supplier        *string
}

type StockInInput struct {
	ItemID    uuid.UUID
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	Supplier  *string
	Reason    *string
}

type StockOutInput struct {
	ItemID    uuid.UUID
	Quantity  decimal.Decimal
	Reason    *string
	Reference *string
}

type ConsumptionInput struct {
	RoomID      uuid.UUID
	ItemID      uuid.UUID
	Quantity    decimal.Decimal
	Description *string
}

// Movement is the item projection together with the ledger row that produced it.
type Movement struct {
	Item        models.InventoryItem        `json:"item"`
	Transaction models.InventoryTransaction `json:"transaction"`
}

// InsufficientStockDetails accompanies a rejected stock-out.
type InsufficientStockDetails struct {
	ItemID    string `json:"item_id"`
	Requested string `json:"requested"`
	Available string `json:"available"`
}

type ServiceParams struct {
	Repo    Repository
	Tx      txRunner
	Outbox  outbox.Emitter
	Metrics *metrics.DomainMetrics
	Logger  *logger.Logger
	Retries int
	Now     func() time.Time
}

type service struct {
	repo    Repository
	tx      txRunner
	outbox  outbox.Emitter
	metrics *metrics.DomainMetrics
	logg    *logger.Logger
	retries int
	now     func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	svc := &service{
		repo:    params.Repo,
		tx:      params.Tx,
		outbox:  params.Outbox,
		metrics: params.Metrics,
		logg:    params.Logger,
		retries: params.Retries,
		now:     params.Now,
	}
	if svc.retries < 0 {
		svc.retries = 0
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	return svc, nil
}

func (s *service) CreateItem(ctx context.Context, input CreateItemInput, actor string) (*models.InventoryItem, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	switch {
	case name == "":
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item name is required")
	case strings.TrimSpace(input.Unit) == "":
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit is required")
	case input.SafetyThreshold.IsNegative():
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "safety threshold must not be negative")
	case input.OpeningQuantity.IsNegative() || input.OpeningCost.IsNegative():
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "opening stock must not be negative")
	}

	item := &models.InventoryItem{
		Name:            name,
		Category:        strings.TrimSpace(input.Category),
		Unit:            strings.TrimSpace(input.Unit),
		CurrentQuantity: decimal.Zero,
		SafetyThreshold: input.SafetyThreshold,
		UnitCost:        decimal.Zero,
		IsActive:        true,
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateItem(ctx, item); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "inventory item name already exists").
					WithDetails(map[string]any{"name": name})
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create inventory item")
		}
		if !input.OpeningQuantity.IsPositive() {
			return nil
		}
		reason := "opening balance"
		movement, err := s.postIn(ctx, tx, StockInInput{
			ItemID:    item.ID,
			Quantity:  input.OpeningQuantity,
			UnitPrice: input.OpeningCost,
			Supplier:  input.Supplier,
			Reason:    &reason,
		}, actor)
		if err != nil {
			return err
		}
		*item = movement.Item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *service) GetItem(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	item, err := s.repo.FindItem(ctx, id)
	if err != nil {
		return nil, mapLookupErr(err)
	}
	return item, nil
}

func (s *service) ListItems(ctx context.Context, filter ItemFilter) ([]models.InventoryItem, error) {
	items, err := s.repo.ListItems(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list inventory items")
	}
	return items, nil
}

func (s *service) ListLowStock(ctx context.Context) ([]models.InventoryItem, error) {
	items, err := s.repo.ListLowStock(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list low stock")
	}
	return items, nil
}

func (s *service) ListTransactions(ctx context.Context, itemID uuid.UUID) ([]models.InventoryTransaction, error) {
	if _, err := s.GetItem(ctx, itemID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListTransactions(ctx, itemID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list inventory transactions")
	}
	return rows, nil
}

func (s *service) StockIn(ctx context.Context, input StockInInput, actor string) (*Movement, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	var movement *Movement
	err := pkgerrors.RetryOnVersionConflict(s.retries, func() error {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			var err error
			movement, err = s.postIn(ctx, tx, input, actor)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return movement, nil
}

func (s *service) postIn(ctx context.Context, tx *gorm.DB, input StockInInput, actor string) (*Movement, error) {
	if input.ItemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	if input.Quantity.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must not be negative")
	}
	if input.UnitPrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit price must not be negative")
	}

	repo := s.repo.WithTx(tx)
	item, err := repo.FindItemForUpdate(ctx, input.ItemID)
	if err != nil {
		return nil, mapLookupErr(err)
	}
	cost := WeightedAverage(item.CurrentQuantity, item.UnitCost, input.Quantity, input.UnitPrice)
	qty := item.CurrentQuantity.Add(input.Quantity)
	txn := models.InventoryTransaction{
		InventoryItemID: item.ID,
		Type:            enums.InventoryTransactionIn,
		Quantity:        input.Quantity,
		UnitPrice:       input.UnitPrice.Round(costPrecision),
		TotalAmount:     Extend(input.Quantity, input.UnitPrice),
		QuantityAfter:   qty,
		UnitCostAfter:   cost,
		Supplier:        input.Supplier,
		Reason:          input.Reason,
		CreatedBy:       actor,
	}
	return s.post(ctx, tx, item, txn)
}

func (s *service) StockOut(ctx context.Context, input StockOutInput, actor string) (*Movement, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if input.ItemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	if !input.Quantity.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be greater than zero")
	}

	var movement *Movement
	err := pkgerrors.RetryOnVersionConflict(s.retries, func() error {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			item, err := s.repo.WithTx(tx).FindItemForUpdate(ctx, input.ItemID)
			if err != nil {
				return mapLookupErr(err)
			}
			if input.Quantity.GreaterThan(item.CurrentQuantity) {
				return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("insufficient stock for %s", item.Name)).
					WithDetails(InsufficientStockDetails{
						ItemID:    item.ID.String(),
						Requested: input.Quantity.String(),
						Available: item.CurrentQuantity.String(),
					})
			}
			txn := models.InventoryTransaction{
				InventoryItemID: item.ID,
				Type:            enums.InventoryTransactionOut,
				Quantity:        input.Quantity,
				UnitPrice:       item.UnitCost,
				TotalAmount:     Extend(input.Quantity, item.UnitCost),
				QuantityAfter:   item.CurrentQuantity.Sub(input.Quantity),
				UnitCostAfter:   item.UnitCost,
				Reason:          input.Reason,
				Reference:       input.Reference,
				CreatedBy:       actor,
			}
			movement, err = s.post(ctx, tx, item, txn)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return movement, nil
}

// post appends the ledger row and moves the item projection in the same
// transaction, guarded by the item's version.
func (s *service) post(ctx context.Context, tx *gorm.DB, item *models.InventoryItem, txn models.InventoryTransaction) (*Movement, error) {
	repo := s.repo.WithTx(tx)
	if err := repo.CreateTransaction(ctx, &txn); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record inventory transaction")
	}
	ok, err := repo.CompareAndSwap(ctx, item.ID, item.Version, map[string]any{
		"current_quantity": txn.QuantityAfter,
		"unit_cost":        txn.UnitCostAfter,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update inventory item")
	}
	if !ok {
		s.metrics.IncVersionConflict("inventory_item")
		return nil, pkgerrors.New(pkgerrors.CodeVersionConflict, "inventory item was modified concurrently").
			WithDetails(map[string]any{"item_id": item.ID.String(), "expected_version": item.Version})
	}

	wasLow := item.BelowSafetyLevel()
	updated := *item
	updated.CurrentQuantity = txn.QuantityAfter
	updated.UnitCost = txn.UnitCostAfter
	updated.Version = item.Version + 1
	if txn.Type == enums.InventoryTransactionOut && !wasLow && updated.BelowSafetyLevel() {
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventInventoryBelowSafetyLevel,
			AggregateType: enums.AggregateInventory,
			AggregateID:   item.ID,
			Actor:         outbox.Actor(txn.CreatedBy),
			Data: payloads.InventoryLowStockEvent{
				InventoryItemID: item.ID,
				Name:            item.Name,
				CurrentQuantity: updated.CurrentQuantity.String(),
				SafetyThreshold: updated.SafetyThreshold.String(),
			},
		}); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit low stock event")
		}
	}
	s.metrics.IncStockMovement(string(txn.Type))
	return &Movement{Item: updated, Transaction: txn}, nil
}

func (s *service) SetStandardConsumption(ctx context.Context, input ConsumptionInput) (*models.RoomStandardConsumption, error) {
	if input.RoomID == uuid.Nil || input.ItemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "room id and item id are required")
	}
	if !input.Quantity.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "standard quantity must be greater than zero")
	}
	exists, err := s.repo.RoomExists(ctx, input.RoomID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup room")
	}
	if !exists {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "room not found")
	}
	if _, err := s.GetItem(ctx, input.ItemID); err != nil {
		return nil, err
	}
	row := &models.RoomStandardConsumption{
		RoomID:           input.RoomID,
		InventoryItemID:  input.ItemID,
		StandardQuantity: input.Quantity,
		Description:      input.Description,
	}
	if err := s.repo.UpsertConsumption(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save standard consumption")
	}
	return row, nil
}

func (s *service) ListStandardConsumption(ctx context.Context, roomID uuid.UUID) ([]models.RoomStandardConsumption, error) {
	if roomID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "room id is required")
	}
	rows, err := s.repo.ListConsumption(ctx, roomID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list standard consumption")
	}
	return rows, nil
}

func (s *service) RemoveStandardConsumption(ctx context.Context, roomID, itemID uuid.UUID) error {
	removed, err := s.repo.DeleteConsumption(ctx, roomID, itemID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove standard consumption")
	}
	if !removed {
		return pkgerrors.New(pkgerrors.CodeNotFound, "standard consumption not found")
	}
	return nil
}

func requireActor(actor string) error {
	if strings.TrimSpace(actor) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "actor is required")
	}
	return nil
}

func mapLookupErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "inventory item not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup inventory item")
}
