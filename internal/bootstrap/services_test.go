package bootstrap

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/innkeeper-backend/internal/reservations"
	"github.com/angelmondragon/innkeeper-backend/internal/rooms"
	"github.com/angelmondragon/innkeeper-backend/pkg/config"
	"github.com/angelmondragon/innkeeper-backend/pkg/db"
	"github.com/angelmondragon/innkeeper-backend/pkg/db/dbtest"
	"github.com/angelmondragon/innkeeper-backend/pkg/db/models"
	"github.com/angelmondragon/innkeeper-backend/pkg/enums"
	"github.com/angelmondragon/innkeeper-backend/pkg/logger"
	"github.com/angelmondragon/innkeeper-backend/pkg/metrics"
)

func TestNewWiresWorkingGraph(t *testing.T) {
	conn := dbtest.Open(t)
	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	cfg := &config.Config{
		Hotel: config.HotelConfig{Timezone: "UTC", ReservationPrefix: "RSV", AllocationRetries: 1},
		JWT:   config.JWTConfig{Secret: "secret", Issuer: "innkeeper", ExpirationMinutes: 60},
	}

	svcs, err := New(Params{
		Config:  cfg,
		Logger:  logger.New(logger.Options{ServiceName: "bootstrap-test", Output: io.Discard}),
		DB:      db.Wrap(conn),
		Metrics: metrics.NewDomainMetrics(prometheus.NewRegistry()),
		Now:     func() time.Time { return now },
	})
	require.NoError(t, err)
	assert.Nil(t, svcs.Staff, "staff needs a session store")
	require.NotNil(t, svcs.Waitlist)

	ctx := context.Background()
	room, err := svcs.Rooms.CreateRoom(ctx, rooms.CreateRoomInput{
		RoomNumber: "101",
		RoomType:   "double",
		Price:      decimal.RequireFromString("120"),
		Capacity:   2,
	}, "manager")
	require.NoError(t, err)

	guest := models.Guest{FullName: "Ada Lovelace"}
	require.NoError(t, conn.Create(&guest).Error)

	res, err := svcs.Reservations.Create(ctx, reservations.CreateInput{
		GuestID:        guest.ID,
		RoomID:         &room.ID,
		CheckInDate:    time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC),
		CheckOutDate:   time.Date(2026, 10, 22, 0, 0, 0, 0, time.UTC),
		NumberOfGuests: 2,
	}, "desk")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("240").Equal(res.TotalAmount))
	assert.Contains(t, res.ReservationNumber, "RSV")

	var events int64
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Where("event_type = ?", enums.EventReservationCreated).Count(&events).Error)
	assert.EqualValues(t, 1, events)
}

func TestNewRequiresDatabase(t *testing.T) {
	_, err := New(Params{Config: &config.Config{}})
	assert.Error(t, err)
}
