package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	authcontrollers "github.com/angelmondragon/innkeeper-backend/api/controllers/auth"
	guestcontrollers "github.com/angelmondragon/innkeeper-backend/api/controllers/guests"
	inventorycontrollers "github.com/angelmondragon/innkeeper-backend/api/controllers/inventory"
	paymentcontrollers "github.com/angelmondragon/innkeeper-backend/api/controllers/payments"
	reservationcontrollers "github.com/angelmondragon/innkeeper-backend/api/controllers/reservations"
	roomcontrollers "github.com/angelmondragon/innkeeper-backend/api/controllers/rooms"
	settingscontrollers "github.com/angelmondragon/innkeeper-backend/api/controllers/settings"
	staffcontrollers "github.com/angelmondragon/innkeeper-backend/api/controllers/staff"
	waitlistcontrollers "github.com/angelmondragon/innkeeper-backend/api/controllers/waitlist"
	"github.com/angelmondragon/innkeeper-backend/api/handlers"
	"github.com/angelmondragon/innkeeper-backend/api/middleware"
	"github.com/angelmondragon/innkeeper-backend/internal/folio"
	"github.com/angelmondragon/innkeeper-backend/internal/guests"
	"github.com/angelmondragon/innkeeper-backend/internal/inventory"
	"github.com/angelmondragon/innkeeper-backend/internal/payments"
	"github.com/angelmondragon/innkeeper-backend/internal/reservations"
	"github.com/angelmondragon/innkeeper-backend/internal/rooms"
	"github.com/angelmondragon/innkeeper-backend/internal/settings"
	"github.com/angelmondragon/innkeeper-backend/internal/staff"
	"github.com/angelmondragon/innkeeper-backend/internal/waitlist"
	"github.com/angelmondragon/innkeeper-backend/pkg/auth/session"
	"github.com/angelmondragon/innkeeper-backend/pkg/config"
	"github.com/angelmondragon/innkeeper-backend/pkg/enums"
	"github.com/angelmondragon/innkeeper-backend/pkg/logger"
	"github.com/angelmondragon/innkeeper-backend/pkg/metrics"
	pkgredis "github.com/angelmondragon/innkeeper-backend/pkg/redis"
)

// rateLimiter is the redis surface the login throttle needs.
type rateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Deps carries everything the router binds. Nil services surface as 500s from
// their handlers; nil redis stores disable throttling and idempotency.
type Deps struct {
	DB          handlers.Pinger
	Redis       handlers.Pinger
	RateLimiter rateLimiter
	Idempotency pkgredis.IdempotencyStore
	Sessions    session.AccessSessionChecker
	Gatherer    prometheus.Gatherer
	HTTPMetrics *metrics.HTTPMetrics

	Staff        staff.Service
	Guests       guests.Service
	Rooms        rooms.Service
	Reservations reservations.Service
	Payments     payments.Service
	Folio        folio.Service
	Inventory    inventory.Service
	Waitlist     waitlist.Service
	Settings     settings.Service
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, deps.HTTPMetrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", handlers.HealthLive(cfg))
		r.Get("/ready", handlers.HealthReady(cfg, logg, map[string]handlers.Pinger{
			"db":    deps.DB,
			"redis": deps.Redis,
		}))
	})
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	loginPolicy := middleware.NewAuthRateLimitPolicy("login", cfg.Staff.LoginWindow, cfg.Staff.LoginIPLimit)
	throttle := middleware.AuthRateLimit(loginPolicy, deps.RateLimiter, logg)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(throttle).Post("/login", authcontrollers.AuthLogin(deps.Staff, logg))
			r.With(throttle).Post("/refresh", authcontrollers.AuthRefresh(deps.Staff, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
			r.Use(middleware.Idempotency(deps.Idempotency, logg))

			r.Post("/auth/logout", authcontrollers.AuthLogout(deps.Staff, logg))

			r.Route("/staff", func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.StaffRoleManager))
				r.Get("/", staffcontrollers.StaffList(deps.Staff, logg))
				r.Post("/", staffcontrollers.StaffCreate(deps.Staff, logg))
				r.Post("/{username}/reset-password", staffcontrollers.StaffResetPassword(deps.Staff, logg))
				r.Put("/{username}/active", staffcontrollers.StaffSetActive(deps.Staff, logg))
			})

			r.Route("/settings", func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.StaffRoleManager))
				r.Get("/", settingscontrollers.SettingsList(deps.Settings, logg))
				r.Put("/{key}", settingscontrollers.SettingsSet(deps.Settings, logg))
			})

			mountRooms(r, logg, deps)
			mountInventory(r, logg, deps)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.StaffRoleFrontDesk))
				mountGuests(r, logg, deps)
				mountReservations(r, logg, deps)
				mountWaitlist(r, logg, deps)
				r.Route("/payments/{paymentID}", func(r chi.Router) {
					r.Post("/success", paymentcontrollers.PaymentMarkSuccess(deps.Payments, logg))
					r.Post("/failed", paymentcontrollers.PaymentMarkFailed(deps.Payments, logg))
					r.Post("/retry", paymentcontrollers.PaymentRetry(deps.Payments, logg))
				})
			})
		})
	})

	return r
}

func mountRooms(r chi.Router, logg *logger.Logger, deps Deps) {
	r.Route("/rooms", func(r chi.Router) {
		r.Get("/", roomcontrollers.RoomList(deps.Rooms, logg))
		r.Get("/availability", roomcontrollers.RoomAvailability(deps.Rooms, logg))
		r.Get("/number/{roomNumber}", roomcontrollers.RoomGetByNumber(deps.Rooms, logg))
		r.With(middleware.RequireRole(logg, enums.StaffRoleFrontDesk, enums.StaffRoleHousekeeping)).
			Post("/batch/status", roomcontrollers.RoomBatchUpdateStatus(deps.Rooms, logg))
		r.With(middleware.RequireRole(logg, enums.StaffRoleManager)).
			Post("/", roomcontrollers.RoomCreate(deps.Rooms, logg))

		r.Route("/{roomID}", func(r chi.Router) {
			r.Get("/", roomcontrollers.RoomGet(deps.Rooms, logg))
			r.With(middleware.RequireRole(logg, enums.StaffRoleFrontDesk, enums.StaffRoleHousekeeping)).
				Put("/status", roomcontrollers.RoomUpdateStatus(deps.Rooms, logg))
			r.With(middleware.RequireRole(logg, enums.StaffRoleHousekeeping, enums.StaffRoleFrontDesk)).
				Post("/cleaning/complete", roomcontrollers.RoomCompleteCleaning(deps.Rooms, logg))
			r.With(middleware.RequireRole(logg, enums.StaffRoleManager)).
				Put("/active", roomcontrollers.RoomSetActive(deps.Rooms, logg))

			r.Get("/consumption", inventorycontrollers.ConsumptionList(deps.Inventory, logg))
			r.With(middleware.RequireRole(logg, enums.StaffRoleManager)).
				Put("/consumption/{itemID}", inventorycontrollers.ConsumptionSet(deps.Inventory, logg))
			r.With(middleware.RequireRole(logg, enums.StaffRoleManager)).
				Delete("/consumption/{itemID}", inventorycontrollers.ConsumptionRemove(deps.Inventory, logg))
		})
	})
}

func mountInventory(r chi.Router, logg *logger.Logger, deps Deps) {
	r.Route("/inventory/items", func(r chi.Router) {
		r.Get("/", inventorycontrollers.InventoryListItems(deps.Inventory, logg))
		r.Get("/low-stock", inventorycontrollers.InventoryLowStock(deps.Inventory, logg))
		r.With(middleware.RequireRole(logg, enums.StaffRoleManager)).
			Post("/", inventorycontrollers.InventoryCreateItem(deps.Inventory, logg))

		r.Route("/{itemID}", func(r chi.Router) {
			r.Get("/", inventorycontrollers.InventoryGetItem(deps.Inventory, logg))
			r.Get("/transactions", inventorycontrollers.InventoryTransactions(deps.Inventory, logg))
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.StaffRoleHousekeeping, enums.StaffRoleFrontDesk))
				r.Post("/stock-in", inventorycontrollers.InventoryStockIn(deps.Inventory, logg))
				r.Post("/stock-out", inventorycontrollers.InventoryStockOut(deps.Inventory, logg))
			})
		})
	})
}

func mountGuests(r chi.Router, logg *logger.Logger, deps Deps) {
	r.Route("/guests", func(r chi.Router) {
		r.Get("/", guestcontrollers.GuestLookup(deps.Guests, logg))
		r.Post("/", guestcontrollers.GuestCreate(deps.Guests, logg))
		r.Get("/{guestID}", guestcontrollers.GuestGet(deps.Guests, logg))
		r.Get("/{guestID}/reservations", reservationcontrollers.ReservationListByGuest(deps.Reservations, logg))
	})
}

func mountReservations(r chi.Router, logg *logger.Logger, deps Deps) {
	r.Route("/reservations", func(r chi.Router) {
		r.Get("/", reservationcontrollers.ReservationList(deps.Reservations, logg))
		r.Post("/", reservationcontrollers.ReservationCreate(deps.Reservations, logg))
		r.Post("/walk-in", reservationcontrollers.ReservationWalkIn(deps.Reservations, logg))
		r.Get("/terms", reservationcontrollers.ReservationTerms(deps.Reservations, logg))
		r.Get("/number/{number}", reservationcontrollers.ReservationGetByNumber(deps.Reservations, logg))
		r.Post("/batch/confirm", reservationcontrollers.ReservationBatchConfirm(deps.Reservations, logg))
		r.Post("/batch/cancel", reservationcontrollers.ReservationBatchCancel(deps.Reservations, logg))

		r.Route("/{reservationID}", func(r chi.Router) {
			r.Get("/", reservationcontrollers.ReservationGet(deps.Reservations, logg))
			r.Patch("/", reservationcontrollers.ReservationModify(deps.Reservations, logg))
			r.With(middleware.RequireRole(logg, enums.StaffRoleManager)).
				Delete("/", reservationcontrollers.ReservationDelete(deps.Reservations, logg))
			r.Get("/history", reservationcontrollers.ReservationHistory(deps.Reservations, logg))
			r.Get("/bill", reservationcontrollers.ReservationBill(deps.Reservations, logg))
			r.Post("/confirm", reservationcontrollers.ReservationConfirm(deps.Reservations, logg))
			r.Post("/check-in", reservationcontrollers.ReservationCheckIn(deps.Reservations, logg))
			r.Post("/inspection", reservationcontrollers.ReservationInspect(deps.Reservations, logg))
			r.Post("/check-out", reservationcontrollers.ReservationCheckOut(deps.Reservations, logg))
			r.Post("/cancel", reservationcontrollers.ReservationCancel(deps.Reservations, logg))

			r.Get("/payments", paymentcontrollers.PaymentList(deps.Payments, logg))
			r.Post("/payments", paymentcontrollers.PaymentCreatePending(deps.Payments, logg))
			r.Post("/payments/reconcile", paymentcontrollers.PaymentReconcile(deps.Payments, logg))

			r.Get("/charges", paymentcontrollers.FolioListCharges(deps.Folio, logg))
			r.Post("/charges", paymentcontrollers.FolioPostCharge(deps.Folio, logg))
		})
	})
}

func mountWaitlist(r chi.Router, logg *logger.Logger, deps Deps) {
	r.Route("/waitlist", func(r chi.Router) {
		r.Get("/", waitlistcontrollers.WaitlistList(deps.Waitlist, logg))
		r.Post("/", waitlistcontrollers.WaitlistAdd(deps.Waitlist, logg))
		r.Post("/sweep", waitlistcontrollers.WaitlistSweep(deps.Waitlist, logg))

		r.Route("/{entryID}", func(r chi.Router) {
			r.Get("/", waitlistcontrollers.WaitlistGet(deps.Waitlist, logg))
			r.Post("/notify", waitlistcontrollers.WaitlistNotify(deps.Waitlist, logg))
			r.Post("/convert", waitlistcontrollers.WaitlistConvert(deps.Waitlist, logg))
			r.Post("/cancel", waitlistcontrollers.WaitlistCancel(deps.Waitlist, logg))
		})
	})
}
