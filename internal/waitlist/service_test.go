package waitlist

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/innkeeper-backend/internal/availability"
	"github.com/angelmondragon/innkeeper-backend/internal/folio"
	"github.com/angelmondragon/innkeeper-backend/internal/guests"
	"github.com/angelmondragon/innkeeper-backend/internal/payments"
	"github.com/angelmondragon/innkeeper-backend/internal/reservations"
	"github.com/angelmondragon/innkeeper-backend/internal/rooms"
	"github.com/angelmondragon/innkeeper-backend/pkg/db/dbtest"
	"github.com/angelmondragon/innkeeper-backend/pkg/db/models"
	"github.com/angelmondragon/innkeeper-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/innkeeper-backend/pkg/errors"
	"github.com/angelmondragon/innkeeper-backend/pkg/outbox"
)

var fixedNow = time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

type fixture struct {
	db       *gorm.DB
	svc      Service
	bookings reservations.Service
	guest    models.Guest
	double   models.Room
	suite    models.Room
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.Open(t)
	tx := dbtest.TxRunner{DB: db}
	emitter := outbox.NewService(outbox.NewRepository(db), nil)
	now := func() time.Time { return fixedNow }
	checker := availability.NewChecker(db)

	guestSvc, err := guests.NewService(guests.NewRepository(db))
	require.NoError(t, err)
	paySvc, err := payments.NewService(payments.NewRepository(db), tx, emitter)
	require.NoError(t, err)
	folioSvc, err := folio.NewService(folio.NewRepository(db), tx)
	require.NoError(t, err)
	roomSvc, err := rooms.NewService(rooms.ServiceParams{
		Repo:         rooms.NewRepository(db),
		Tx:           tx,
		Availability: checker,
		Now:          now,
	})
	require.NoError(t, err)
	bookings, err := reservations.NewService(reservations.ServiceParams{
		Repo:         reservations.NewRepository(db),
		Rooms:        rooms.NewRepository(db),
		Availability: checker,
		Guests:       guestSvc,
		Payments:     paySvc,
		Folio:        folioSvc,
		Outbox:       emitter,
		Tx:           tx,
		Now:          now,
	})
	require.NoError(t, err)
	svc, err := NewService(ServiceParams{
		Repo:   NewRepository(db),
		Guests: guestSvc,
		Rooms:  roomSvc,
		Booker: bookings,
		Outbox: emitter,
		Tx:     tx,
		Now:    now,
	})
	require.NoError(t, err)

	email, phone := "grace@example.com", "+1-555-0100"
	guest := models.Guest{FullName: "Grace Hopper", Email: &email, Phone: &phone}
	require.NoError(t, db.Create(&guest).Error)

	f := &fixture{db: db, svc: svc, bookings: bookings, guest: guest}
	f.double = f.room(t, "101", "DOUBLE", 2)
	f.suite = f.room(t, "201", "SUITE", 4)
	return f
}

func (f *fixture) room(t *testing.T, number, roomType string, capacity int) models.Room {
	t.Helper()
	room := models.Room{
		RoomNumber: number,
		RoomType:   roomType,
		Price:      decimal.NewFromInt(100),
		Capacity:   capacity,
		Status:     enums.RoomStatusAvailable,
		IsActive:   true,
	}
	require.NoError(t, f.db.Create(&room).Error)
	return room
}

func (f *fixture) book(t *testing.T, roomID uuid.UUID, in, out time.Time) *models.Reservation {
	t.Helper()
	res, err := f.bookings.Create(context.Background(), reservations.CreateInput{
		GuestID:        f.guest.ID,
		RoomID:         &roomID,
		CheckInDate:    in,
		CheckOutDate:   out,
		NumberOfGuests: 1,
	}, "desk")
	require.NoError(t, err)
	return res
}

func (f *fixture) add(t *testing.T, roomType string, in, out time.Time) *models.WaitlistEntry {
	t.Helper()
	entry, err := f.svc.Add(context.Background(), AddInput{
		GuestID:      f.guest.ID,
		CheckInDate:  in,
		CheckOutDate: out,
		RoomType:     &roomType,
	}, "desk")
	require.NoError(t, err)
	return entry
}

func day(d int) time.Time {
	return time.Date(2026, 10, d, 0, 0, 0, 0, time.UTC)
}

func TestAddFillsContactFromGuestDirectory(t *testing.T) {
	f := newFixture(t)
	entry := f.add(t, "DOUBLE", day(20), day(22))

	assert.Equal(t, enums.WaitlistStatusPending, entry.Status)
	require.NotNil(t, entry.ContactEmail)
	assert.Equal(t, "grace@example.com", *entry.ContactEmail)
	require.NotNil(t, entry.ContactPhone)
	assert.Equal(t, 1, entry.NumberOfGuests)

	_, err := f.svc.Add(context.Background(), AddInput{GuestID: f.guest.ID, CheckInDate: day(22), CheckOutDate: day(20)}, "desk")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.Add(context.Background(), AddInput{GuestID: uuid.New(), CheckInDate: day(20), CheckOutDate: day(22)}, "desk")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestSweepNotifiesOnlyWhenRoomFrees(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	entry := f.add(t, "DOUBLE", day(20), day(22))
	blocking := f.book(t, f.double.ID, day(19), day(23))

	result, err := f.svc.CheckAndNotifyAvailableRooms(ctx, SweepFilter{}, "system")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Scanned)
	assert.Zero(t, result.Notified)

	_, err = f.bookings.Cancel(ctx, reservations.CancelInput{ReservationID: blocking.ID}, "desk")
	require.NoError(t, err)

	result, err = f.svc.CheckAndNotifyAvailableRooms(ctx, SweepFilter{RoomType: "double"}, "system")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Notified)

	got, err := f.svc.Get(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.WaitlistStatusNotified, got.Status)
	require.NotNil(t, got.NotifiedAt)

	var events int64
	require.NoError(t, f.db.Model(&models.OutboxEvent{}).Where("event_type = ?", enums.EventWaitlistNotified).Count(&events).Error)
	assert.EqualValues(t, 1, events)

	result, err = f.svc.CheckAndNotifyAvailableRooms(ctx, SweepFilter{}, "system")
	require.NoError(t, err)
	assert.Zero(t, result.Scanned)
}

func TestSweepRespectsPartySizeAndWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Add(ctx, AddInput{
		GuestID:        f.guest.ID,
		CheckInDate:    day(20),
		CheckOutDate:   day(21),
		RoomType:       strRef("DOUBLE"),
		NumberOfGuests: 3,
	}, "desk")
	require.NoError(t, err)
	f.add(t, "SUITE", day(28), day(29))

	result, err := f.svc.CheckAndNotifyAvailableRooms(ctx, SweepFilter{From: day(16), To: day(25)}, "system")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Scanned)
	assert.Zero(t, result.Notified)

	_, err = f.svc.CheckAndNotifyAvailableRooms(ctx, SweepFilter{From: day(25), To: day(16)}, "system")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func strRef(v string) *string { return &v }

func TestConvertBooksRoomAndMarksEntry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	entry := f.add(t, "SUITE", day(20), day(22))

	result, err := f.svc.Convert(ctx, entry.ID, f.suite.ID, "desk")
	require.NoError(t, err)
	assert.Equal(t, enums.WaitlistStatusConverted, result.Entry.Status)
	assert.Equal(t, enums.ReservationStatusPending, result.Reservation.Status)
	assert.Equal(t, f.suite.ID, *result.Reservation.RoomID)

	stored, err := f.svc.Get(ctx, entry.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ReservationID)
	assert.Equal(t, result.Reservation.ID, *stored.ReservationID)

	_, err = f.svc.Cancel(ctx, entry.ID, "desk")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestConvertConflictLeavesEntryPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	entry := f.add(t, "DOUBLE", day(20), day(22))
	f.book(t, f.double.ID, day(21), day(23))

	_, err := f.svc.Convert(ctx, entry.ID, f.double.ID, "desk")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	stored, err := f.svc.Get(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.WaitlistStatusPending, stored.Status)
	assert.Nil(t, stored.ReservationID)

	var count int64
	require.NoError(t, f.db.Model(&models.Reservation{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	_, err = f.svc.Convert(ctx, entry.ID, f.suite.ID, "desk")
	require.NoError(t, err)
}

func TestCancelAndListByStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	keep := f.add(t, "DOUBLE", day(20), day(22))
	drop := f.add(t, "SUITE", day(20), day(22))

	cancelled, err := f.svc.Cancel(ctx, drop.ID, "desk")
	require.NoError(t, err)
	assert.Equal(t, enums.WaitlistStatusCancelled, cancelled.Status)

	pending, err := f.svc.List(ctx, enums.WaitlistStatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, keep.ID, pending[0].ID)

	all, err := f.svc.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = f.svc.Notify(ctx, drop.ID, "desk")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	_, err = f.svc.List(ctx, "WAITING")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
