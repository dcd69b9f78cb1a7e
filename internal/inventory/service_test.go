package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/innkeeper-backend/pkg/db/dbtest"
	"github.com/angelmondragon/innkeeper-backend/pkg/db/models"
	"github.com/angelmondragon/innkeeper-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/innkeeper-backend/pkg/errors"
	"github.com/angelmondragon/innkeeper-backend/pkg/outbox"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	db := dbtest.Open(t)
	svc, err := NewService(ServiceParams{
		Repo:    NewRepository(db),
		Tx:      dbtest.TxRunner{DB: db},
		Outbox:  outbox.NewService(outbox.NewRepository(db), nil),
		Retries: 1,
		Now:     func() time.Time { return time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	return svc, db
}

func newItem(t *testing.T, svc Service, name string, qty, cost string) *models.InventoryItem {
	t.Helper()
	item, err := svc.CreateItem(context.Background(), CreateItemInput{
		Name:            name,
		Category:        "amenities",
		Unit:            "pcs",
		SafetyThreshold: d("2"),
		OpeningQuantity: d(qty),
		OpeningCost:     d(cost),
	}, "storekeeper")
	require.NoError(t, err)
	return item
}

func reload(t *testing.T, db *gorm.DB, id uuid.UUID) models.InventoryItem {
	t.Helper()
	var item models.InventoryItem
	require.NoError(t, db.First(&item, "id = ?", id).Error)
	return item
}

func TestCreateItemPostsOpeningBalance(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	item := newItem(t, svc, "Shampoo", "10", "2.00")
	assert.Equal(t, "10", item.CurrentQuantity.String())
	assert.Equal(t, "2.00", item.UnitCost.StringFixed(2))

	rows, err := svc.ListTransactions(ctx, item.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, enums.InventoryTransactionIn, rows[0].Type)
	assert.Equal(t, "20.00", rows[0].TotalAmount.StringFixed(2))

	_, err = svc.CreateItem(ctx, CreateItemInput{Name: "Shampoo", Unit: "pcs"}, "storekeeper")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	stored := reload(t, db, item.ID)
	assert.EqualValues(t, 1, stored.Version)
}

func TestStockInBlendsWeightedAverage(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	item := newItem(t, svc, "Soap", "30", "1.00")

	movement, err := svc.StockIn(ctx, StockInInput{ItemID: item.ID, Quantity: d("10"), UnitPrice: d("2.00")}, "storekeeper")
	require.NoError(t, err)
	assert.Equal(t, "1.25", movement.Item.UnitCost.StringFixed(2))
	assert.Equal(t, "40", movement.Item.CurrentQuantity.String())
	assert.Equal(t, "20.00", movement.Transaction.TotalAmount.StringFixed(2))

	stored := reload(t, db, item.ID)
	assert.Equal(t, "1.25", stored.UnitCost.StringFixed(2))
	assert.True(t, stored.CurrentQuantity.Equal(d("40")))

	_, err = svc.StockIn(ctx, StockInInput{ItemID: item.ID, Quantity: d("-1"), UnitPrice: d("1")}, "storekeeper")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestStockOutPricesAtCurrentCost(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	item := newItem(t, svc, "Towel", "30", "1.00")
	_, err := svc.StockIn(ctx, StockInInput{ItemID: item.ID, Quantity: d("10"), UnitPrice: d("2.00")}, "storekeeper")
	require.NoError(t, err)

	movement, err := svc.StockOut(ctx, StockOutInput{ItemID: item.ID, Quantity: d("4")}, "housekeeping")
	require.NoError(t, err)
	assert.Equal(t, "1.25", movement.Transaction.UnitPrice.StringFixed(2))
	assert.Equal(t, "5.00", movement.Transaction.TotalAmount.StringFixed(2))
	assert.Equal(t, "1.25", movement.Item.UnitCost.StringFixed(2))

	stored := reload(t, db, item.ID)
	assert.True(t, stored.CurrentQuantity.Equal(d("36")))
}

func TestStockOutRejectsInsufficientStockWithoutSideEffects(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	item := newItem(t, svc, "Slippers", "3", "4.00")
	before := reload(t, db, item.ID)

	_, err := svc.StockOut(ctx, StockOutInput{ItemID: item.ID, Quantity: d("5")}, "housekeeping")
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
	details, ok := typed.Details().(InsufficientStockDetails)
	require.True(t, ok)
	assert.Equal(t, "5", details.Requested)

	after := reload(t, db, item.ID)
	assert.True(t, after.CurrentQuantity.Equal(before.CurrentQuantity))
	assert.True(t, after.UnitCost.Equal(before.UnitCost))
	assert.Equal(t, before.Version, after.Version)

	rows, err := svc.ListTransactions(ctx, item.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestRoundTripAtCurrentCostRestoresProjection(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	item := newItem(t, svc, "Tea", "8", "0.50")

	_, err := svc.StockIn(ctx, StockInInput{ItemID: item.ID, Quantity: d("4"), UnitPrice: d("0.50")}, "storekeeper")
	require.NoError(t, err)
	_, err = svc.StockOut(ctx, StockOutInput{ItemID: item.ID, Quantity: d("4")}, "storekeeper")
	require.NoError(t, err)

	stored := reload(t, db, item.ID)
	assert.True(t, stored.CurrentQuantity.Equal(d("8")))
	assert.Equal(t, "0.50", stored.UnitCost.StringFixed(2))
}

func TestLedgerRunningTotalsMatchProjection(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	item := newItem(t, svc, "Coffee", "5", "3.00")
	_, err := svc.StockIn(ctx, StockInInput{ItemID: item.ID, Quantity: d("5"), UnitPrice: d("4.00")}, "storekeeper")
	require.NoError(t, err)
	_, err = svc.StockOut(ctx, StockOutInput{ItemID: item.ID, Quantity: d("7")}, "storekeeper")
	require.NoError(t, err)

	rows, err := svc.ListTransactions(ctx, item.ID)
	require.NoError(t, err)
	qty := decimal.Zero
	for _, row := range rows {
		if row.Type == enums.InventoryTransactionIn {
			qty = qty.Add(row.Quantity)
		} else {
			qty = qty.Sub(row.Quantity)
		}
	}
	stored := reload(t, db, item.ID)
	assert.True(t, stored.CurrentQuantity.Equal(qty))
	assert.True(t, stored.UnitCost.Equal(rows[len(rows)-1].UnitCostAfter))
}

func TestStockOutCrossingThresholdQueuesLowStockEvent(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	item := newItem(t, svc, "Razor", "5", "1.00")

	_, err := svc.StockOut(ctx, StockOutInput{ItemID: item.ID, Quantity: d("3")}, "housekeeping")
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&models.OutboxEvent{}).
		Where("event_type = ?", enums.EventInventoryBelowSafetyLevel).
		Count(&count).Error)
	assert.EqualValues(t, 1, count)

	low, err := svc.ListLowStock(ctx)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, item.ID, low[0].ID)
}

func TestStandardConsumptionCRUD(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	room := seedRoom(t, db, "101")
	item := newItem(t, svc, "Water", "10", "0.80")

	_, err := svc.SetStandardConsumption(ctx, ConsumptionInput{RoomID: room.ID, ItemID: item.ID, Quantity: d("2")})
	require.NoError(t, err)
	_, err = svc.SetStandardConsumption(ctx, ConsumptionInput{RoomID: room.ID, ItemID: item.ID, Quantity: d("3")})
	require.NoError(t, err)

	rows, err := svc.ListStandardConsumption(ctx, room.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].StandardQuantity.Equal(d("3")))

	_, err = svc.SetStandardConsumption(ctx, ConsumptionInput{RoomID: uuid.New(), ItemID: item.ID, Quantity: d("1")})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	require.NoError(t, svc.RemoveStandardConsumption(ctx, room.ID, item.ID))
	err = svc.RemoveStandardConsumption(ctx, room.ID, item.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func seedRoom(t *testing.T, db *gorm.DB, number string) models.Room {
	t.Helper()
	room := models.Room{
		RoomNumber: number,
		RoomType:   "DOUBLE",
		Price:      d("100"),
		Capacity:   2,
		Status:     enums.RoomStatusCleaning,
		IsActive:   true,
	}
	require.NoError(t, db.Create(&room).Error)
	return room
}
