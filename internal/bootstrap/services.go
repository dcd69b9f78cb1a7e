// Package bootstrap assembles the domain services shared by the api and
// cron-worker binaries.
package bootstrap

import (
	"fmt"
	"time"

	"github.com/angelmondragon/innkeeper-backend/internal/availability"
	"github.com/angelmondragon/innkeeper-backend/internal/folio"
	"github.com/angelmondragon/innkeeper-backend/internal/guests"
	"github.com/angelmondragon/innkeeper-backend/internal/inventory"
	"github.com/angelmondragon/innkeeper-backend/internal/payments"
	"github.com/angelmondragon/innkeeper-backend/internal/reservations"
	"github.com/angelmondragon/innkeeper-backend/internal/rooms"
	"github.com/angelmondragon/innkeeper-backend/internal/settings"
	"github.com/angelmondragon/innkeeper-backend/internal/staff"
	"github.com/angelmondragon/innkeeper-backend/internal/waitlist"
	"github.com/angelmondragon/innkeeper-backend/pkg/config"
	"github.com/angelmondragon/innkeeper-backend/pkg/db"
	"github.com/angelmondragon/innkeeper-backend/pkg/logger"
	"github.com/angelmondragon/innkeeper-backend/pkg/metrics"
	"github.com/angelmondragon/innkeeper-backend/pkg/outbox"
)

type Params struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       *db.Client
	Metrics  *metrics.DomainMetrics
	Sessions staff.SessionStore
	Limiter  staff.AttemptLimiter
	Now      func() time.Time
}

// Services is the fully wired service graph. Reservation, inventory and
// waitlist services are wrapped in their audit decorators.
type Services struct {
	Outbox       *outbox.Service
	Settings     settings.Service
	Guests       guests.Service
	Staff        staff.Service
	Rooms        rooms.Service
	Reservations reservations.Service
	Payments     payments.Service
	Folio        folio.Service
	Inventory    inventory.Service
	Waitlist     waitlist.Service
}

func New(params Params) (*Services, error) {
	if params.Config == nil {
		return nil, fmt.Errorf("config required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("database client required")
	}
	cfg, logg, conn := params.Config, params.Logger, params.DB.DB()

	loc, err := cfg.Hotel.Location()
	if err != nil {
		return nil, err
	}

	emitter := outbox.NewService(outbox.NewRepository(conn), logg)
	checker := availability.NewChecker(conn)

	settingsSvc, err := settings.NewService(settings.NewRepository(conn))
	if err != nil {
		return nil, err
	}
	guestSvc, err := guests.NewService(guests.NewRepository(conn))
	if err != nil {
		return nil, err
	}

	var staffSvc staff.Service
	if params.Sessions != nil {
		staffSvc, err = staff.NewService(staff.ServiceParams{
			Repo:          staff.NewRepository(conn),
			Sessions:      params.Sessions,
			Limiter:       params.Limiter,
			JWT:           cfg.JWT,
			Password:      cfg.Password,
			LoginAttempts: cfg.Staff.LoginAttempts,
			LoginWindow:   cfg.Staff.LoginWindow,
			Logger:        logg,
			Now:           params.Now,
		})
		if err != nil {
			return nil, err
		}
	}

	inventorySvc, err := inventory.NewService(inventory.ServiceParams{
		Repo:    inventory.NewRepository(conn),
		Tx:      params.DB,
		Outbox:  emitter,
		Metrics: params.Metrics,
		Logger:  logg,
		Retries: cfg.Hotel.AllocationRetries,
		Now:     params.Now,
	})
	if err != nil {
		return nil, err
	}
	inventorySvc = inventory.NewAuditedService(inventorySvc, logg)

	roomSvc, err := rooms.NewService(rooms.ServiceParams{
		Repo:         rooms.NewRepository(conn),
		Tx:           params.DB,
		Availability: checker,
		Cleaning:     inventorySvc,
		Metrics:      params.Metrics,
		Logger:       logg,
		Location:     loc,
		Now:          params.Now,
	})
	if err != nil {
		return nil, err
	}

	paymentSvc, err := payments.NewService(payments.NewRepository(conn), params.DB, emitter)
	if err != nil {
		return nil, err
	}
	folioSvc, err := folio.NewService(folio.NewRepository(conn), params.DB)
	if err != nil {
		return nil, err
	}

	reservationSvc, err := reservations.NewService(reservations.ServiceParams{
		Repo:             reservations.NewRepository(conn),
		Rooms:            rooms.NewRepository(conn),
		Availability:     checker,
		Guests:           guestSvc,
		Payments:         paymentSvc,
		Folio:            folioSvc,
		Settings:         settingsSvc,
		Outbox:           emitter,
		Tx:               params.DB,
		Metrics:          params.Metrics,
		Logger:           logg,
		Location:         loc,
		DefaultGraceDays: cfg.Hotel.DefaultGraceDays,
		NumberPrefix:     cfg.Hotel.ReservationPrefix,
		Retries:          cfg.Hotel.AllocationRetries,
		Now:              params.Now,
	})
	if err != nil {
		return nil, err
	}
	reservationSvc = reservations.NewAuditedService(reservationSvc, logg)

	waitlistSvc, err := waitlist.NewService(waitlist.ServiceParams{
		Repo:     waitlist.NewRepository(conn),
		Guests:   guestSvc,
		Rooms:    roomSvc,
		Booker:   reservationSvc,
		Outbox:   emitter,
		Tx:       params.DB,
		Logger:   logg,
		Location: loc,
		Now:      params.Now,
	})
	if err != nil {
		return nil, err
	}
	waitlistSvc = waitlist.NewAuditedService(waitlistSvc, logg)

	return &Services{
		Outbox:       emitter,
		Settings:     settingsSvc,
		Guests:       guestSvc,
		Staff:        staffSvc,
		Rooms:        roomSvc,
		Reservations: reservationSvc,
		Payments:     paymentSvc,
		Folio:        folioSvc,
		Inventory:    inventorySvc,
		Waitlist:     waitlistSvc,
	}, nil
}
