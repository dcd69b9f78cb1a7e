package folio

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
)

func seedReservation(t *testing.T, db *gorm.DB, status enums.ReservationStatus) models.Reservation {
	t.Helper()
	res := models.Reservation{
		ReservationNumber: "RSV" + uuid.NewString()[:10],
		GuestID:           uuid.New(),
		CheckInDate:       time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC),
		CheckOutDate:      time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC),
		NumberOfGuests:    2,
		TotalAmount:       decimal.NewFromInt(300),
		Status:            status,
		CreatedBy:         "desk",
	}
	require.NoError(t, db.Create(&res).Error)
	return res
}

func TestPostChargeOnlyWhileCheckedIn(t *testing.T) {
	db := dbtest.Open(t)
	svc, err := NewService(NewRepository(db), dbtest.TxRunner{DB: db})
	require.NoError(t, err)
	ctx := context.Background()

	inHouse := seedReservation(t, db, enums.ReservationStatusCheckedIn)
	charge, err := svc.PostCharge(ctx, ChargeInput{
		ReservationID: inHouse.ID,
		ItemName:      "Minibar soda",
		Category:      "minibar",
		Quantity:      3,
		UnitPrice:     decimal.RequireFromString("2.50"),
	}, "bar")
	require.NoError(t, err)
	assert.Equal(t, "7.50", charge.TotalAmount.StringFixed(2))

	_, err = svc.PostCharge(ctx, ChargeInput{
		ReservationID: inHouse.ID,
		ItemName:      "Laundry",
		Quantity:      1,
		UnitPrice:     decimal.RequireFromString("12"),
	}, "housekeeping")
	require.NoError(t, err)

	total, err := svc.OpenTotal(ctx, nil, inHouse.ID)
	require.NoError(t, err)
	assert.Equal(t, "19.50", total.StringFixed(2))

	charges, err := svc.ListCharges(ctx, inHouse.ID)
	require.NoError(t, err)
	require.Len(t, charges, 2)
	categories := []string{charges[0].Category, charges[1].Category}
	assert.ElementsMatch(t, []string{"minibar", "misc"}, categories)

	confirmed := seedReservation(t, db, enums.ReservationStatusConfirmed)
	_, err = svc.PostCharge(ctx, ChargeInput{ReservationID: confirmed.ID, ItemName: "Soda", Quantity: 1, UnitPrice: decimal.NewFromInt(2)}, "bar")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	_, err = svc.PostCharge(ctx, ChargeInput{ReservationID: uuid.New(), ItemName: "Soda", Quantity: 1, UnitPrice: decimal.NewFromInt(2)}, "bar")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = svc.PostCharge(ctx, ChargeInput{ReservationID: inHouse.ID, ItemName: "Soda", Quantity: 0, UnitPrice: decimal.NewFromInt(2)}, "bar")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
