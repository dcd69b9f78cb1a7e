// Package reservations drives a reservation through its lifecycle:
// PENDING -> CONFIRMED -> CHECKED_IN -> CHECKED_OUT, with CANCELLED reachable
// from any state before check-out. Every transition validates the source
// state, appends history and queues an outbox event in the same transaction.
package reservations

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/innkeeper-backend/internal/availability"
	"github.com/angelmondragon/innkeeper-backend/internal/billing"
	"github.com/angelmondragon/innkeeper-backend/internal/guests"
	"github.com/angelmondragon/innkeeper-backend/internal/payments"
	"github.com/angelmondragon/innkeeper-backend/internal/rooms"
	"github.com/angelmondragon/innkeeper-backend/pkg/calendar"
	"github.com/angelmondragon/innkeeper-backend/pkg/db"
	"github.com/angelmondragon/innkeeper-backend/pkg/db/models"
	"github.com/angelmondragon/innkeeper-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/innkeeper-backend/pkg/errors"
	"github.com/angelmondragon/innkeeper-backend/pkg/logger"
	"github.com/angelmondragon/innkeeper-backend/pkg/metrics"
	"github.com/angelmondragon/innkeeper-backend/pkg/outbox"
	"github.com/angelmondragon/innkeeper-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/innkeeper-backend/pkg/pagination"
	"github.com/angelmondragon/innkeeper-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ChargeLedger is the slice of the folio the check-out bill needs.
type ChargeLedger interface {
	OpenTotal(ctx context.Context, tx *gorm.DB, reservationID uuid.UUID) (decimal.Decimal, error)
}

type Service interface {
	Create(ctx context.Context, input CreateInput, actor string) (*models.Reservation, error)
	// CreateInTx allocates and writes a reservation inside the caller's
	// transaction. The caller has already resolved the guest.
	CreateInTx(ctx context.Context, tx *gorm.DB, input CreateInput, actor string) (*models.Reservation, error)
	Confirm(ctx context.Context, id uuid.UUID, actor string) (*models.Reservation, error)
	CheckIn(ctx context.Context, input CheckInInput, actor string) (*models.Reservation, error)
	QuickCheckIn(ctx context.Context, input QuickCheckInInput, actor string) (*models.Reservation, error)
	Modify(ctx context.Context, input ModifyInput, actor string) (*models.Reservation, error)
	Inspect(ctx context.Context, input InspectInput, actor string) (*models.RoomCheckInspection, error)
	CheckOut(ctx context.Context, input CheckOutInput, actor string) (*CheckOutResult, error)
	CheckOutBill(ctx context.Context, id uuid.UUID, extraCharges decimal.Decimal) (*Bill, error)
	Cancel(ctx context.Context, input CancelInput, actor string) (*CancelResult, error)
	BatchConfirm(ctx context.Context, ids []uuid.UUID, actor string) types.BatchSummary
	BatchCancel(ctx context.Context, ids []uuid.UUID, reason string, actor string) types.BatchSummary
	Delete(ctx context.Context, id uuid.UUID, actor string) error

	Get(ctx context.Context, id uuid.UUID) (*models.Reservation, error)
	GetByNumber(ctx context.Context, number string) (*models.Reservation, error)
	ListByGuest(ctx context.Context, guestID uuid.UUID) ([]models.Reservation, error)
	List(ctx context.Context, filter ListFilter, page pagination.Params) (*ListResult, error)
	History(ctx context.Context, id uuid.UUID) ([]models.ReservationHistory, error)
	Terms(ctx context.Context) (*billing.Policy, error)
}

// CreateInput is a booking request. RoomID wins over PreferredRoomType.
type CreateInput struct {
	GuestID           uuid.UUID
	RoomID            *uuid.UUID
	PreferredRoomType *string
	CheckInDate       time.Time
	CheckOutDate      time.Time
	NumberOfGuests    int
	SpecialRequests   *string
}

type CheckInInput struct {
	ReservationID uuid.UUID
	CollectAmount decimal.Decimal
	Method        enums.PaymentMethod
}

type QuickCheckInInput struct {
	Booking       CreateInput
	CollectAmount decimal.Decimal
	Method        enums.PaymentMethod
}

// ModifyInput changes dates, room or room type. Nil fields keep their value.
type ModifyInput struct {
	ReservationID  uuid.UUID
	CheckInDate    *time.Time
	CheckOutDate   *time.Time
	RoomID         *uuid.UUID
	RoomType       *string
	NumberOfGuests *int
}

type InspectInput struct {
	ReservationID     uuid.UUID
	FacilitiesOK      bool
	HasDamage         bool
	DamageDescription *string
	ItemsLeftBehind   bool
	ItemsDescription  *string
	Notes             *string
}

// CheckOutInput settles a stay. A nil CollectAmount collects the balance due.
type CheckOutInput struct {
	ReservationID uuid.UUID
	ExtraCharges  decimal.Decimal
	CollectAmount *decimal.Decimal
	Method        enums.PaymentMethod
}

type CancelInput struct {
	ReservationID uuid.UUID
	Reason        string
}

// Bill is the check-out statement. Advisory is set when the latest
// inspection found damage, left items or failed facilities.
type Bill struct {
	ReservationID uuid.UUID                   `json:"reservation_id"`
	Settlement    billing.Settlement          `json:"settlement"`
	FolioTotal    decimal.Decimal             `json:"folio_total"`
	Inspection    *models.RoomCheckInspection `json:"inspection,omitempty"`
	Advisory      bool                        `json:"advisory"`
}

type CheckOutResult struct {
	Reservation models.Reservation `json:"reservation"`
	Bill        Bill               `json:"bill"`
	Collected   decimal.Decimal    `json:"collected"`
}

type CancelResult struct {
	Reservation models.Reservation  `json:"reservation"`
	Refund      billing.RefundQuote `json:"refund"`
}

type ListResult struct {
	Items  []models.Reservation `json:"items"`
	Cursor string               `json:"cursor,omitempty"`
}

type ServiceParams struct {
	Repo             Repository
	Rooms            rooms.Repository
	Availability     availability.Checker
	Guests           guests.Directory
	Payments         payments.Service
	Folio            ChargeLedger
	Settings         billing.SettingsSource
	Outbox           outbox.Emitter
	Tx               txRunner
	Metrics          *metrics.DomainMetrics
	Logger           *logger.Logger
	Location         *time.Location
	DefaultGraceDays int
	NumberPrefix     string
	Retries          int
	Now              func() time.Time
}

type service struct {
	repo      Repository
	rooms     rooms.Repository
	checker   availability.Checker
	guests    guests.Directory
	payments  payments.Service
	folio     ChargeLedger
	settings  billing.SettingsSource
	outbox    outbox.Emitter
	tx        txRunner
	metrics   *metrics.DomainMetrics
	logg      *logger.Logger
	loc       *time.Location
	graceDays int
	numbers   *numberGenerator
	retries   int
	now       func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
		return nil, fmt.Errorf("reservation repository required")
	case params.Rooms == nil:
		return nil, fmt.Errorf("room repository required")
	case params.Availability == nil:
		return nil, fmt.Errorf("availability checker required")
	case params.Guests == nil:
		return nil, fmt.Errorf("guest directory required")
	case params.Payments == nil:
		return nil, fmt.Errorf("payments service required")
	case params.Folio == nil:
		return nil, fmt.Errorf("folio ledger required")
	case params.Outbox == nil:
		return nil, fmt.Errorf("outbox emitter required")
	case params.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	}
	svc := &service{
		repo:      params.Repo,
		rooms:     params.Rooms,
		checker:   params.Availability,
		guests:    params.Guests,
		payments:  params.Payments,
		folio:     params.Folio,
		settings:  params.Settings,
		outbox:    params.Outbox,
		tx:        params.Tx,
		metrics:   params.Metrics,
		logg:      params.Logger,
		loc:       params.Location,
		graceDays: params.DefaultGraceDays,
		retries:   params.Retries,
		now:       params.Now,
	}
	if svc.loc == nil {
		svc.loc = time.UTC
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	if svc.retries < 0 {
		svc.retries = 0
	}
	svc.numbers = newNumberGenerator(params.NumberPrefix, svc.loc)
	return svc, nil
}

func (s *service) Create(ctx context.Context, input CreateInput, actor string) (*models.Reservation, error) {
	if err := validateCreate(input, actor); err != nil {
		return nil, err
	}
	if _, err := s.guests.FindGuestByID(ctx, input.GuestID); err != nil {
		return nil, err
	}

	var created *models.Reservation
	err := pkgerrors.RetryOnVersionConflict(s.retries, func() error {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			var err error
			created, err = s.createInTx(ctx, tx, input, actor)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncTransition("create")
	return created, nil
}

func (s *service) CreateInTx(ctx context.Context, tx *gorm.DB, input CreateInput, actor string) (*models.Reservation, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	if err := validateCreate(input, actor); err != nil {
		return nil, err
	}
	res, err := s.createInTx(ctx, tx, input, actor)
	if err != nil {
		return nil, err
	}
	s.metrics.IncTransition("create")
	return res, nil
}

func (s *service) createInTx(ctx context.Context, tx *gorm.DB, input CreateInput, actor string) (*models.Reservation, error) {
	checkIn, checkOut := calendar.Date(input.CheckInDate), calendar.Date(input.CheckOutDate)
	room, err := s.allocate(ctx, tx, allocation{
		roomID:   input.RoomID,
		roomType: input.PreferredRoomType,
		checkIn:  checkIn,
		checkOut: checkOut,
		guests:   input.NumberOfGuests,
	})
	if err != nil {
		return nil, err
	}

	number, err := s.numbers.next(ctx, s.repo.WithTx(tx), s.now())
	if err != nil {
		return nil, err
	}
	roomID := room.ID
	res := &models.Reservation{
		ReservationNumber: number,
		GuestID:           input.GuestID,
		RoomID:            &roomID,
		PreferredRoomType: input.PreferredRoomType,
		CheckInDate:       checkIn,
		CheckOutDate:      checkOut,
		NumberOfGuests:    input.NumberOfGuests,
		TotalAmount:       billing.StayTotal(room.Price, checkIn, checkOut),
		PaidAmount:        decimal.Zero,
		Status:            enums.ReservationStatusPending,
		SpecialRequests:   input.SpecialRequests,
		CreatedBy:         actor,
	}
	if err := s.repo.WithTx(tx).Create(ctx, res); err != nil {
		return nil, mapStayWriteErr(err, room, "create reservation")
	}
	if err := s.claimRoom(ctx, tx, room); err != nil {
		return nil, err
	}
	desc := fmt.Sprintf("reservation created for room %s, %s to %s", room.RoomNumber, calendar.Format(checkIn), calendar.Format(checkOut))
	if err := s.record(ctx, tx, res.ID, enums.HistoryCreated, nil, strPtr(string(res.Status)), desc, actor); err != nil {
		return nil, err
	}
	if err := s.emit(ctx, tx, enums.EventReservationCreated, res, actor); err != nil {
		return nil, err
	}
	return res, nil
}

// mapStayWriteErr turns a Postgres overlap rejection into the same conflict
// the availability check reports.
func mapStayWriteErr(err error, room *models.Room, action string) error {
	if db.IsExclusionViolation(err) {
		return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("room %s is already booked for the requested dates", room.RoomNumber)).
			WithDetails(map[string]any{"room_id": room.ID.String(), "room_number": room.RoomNumber})
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
}

func validateCreate(input CreateInput, actor string) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if input.GuestID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "guest id is required")
	}
	if err := calendar.ValidateRange(input.CheckInDate, input.CheckOutDate); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}
	if input.NumberOfGuests < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "number of guests must be at least 1")
	}
	if input.RoomID == nil && (input.PreferredRoomType == nil || strings.TrimSpace(*input.PreferredRoomType) == "") {
		return pkgerrors.New(pkgerrors.CodeValidation, "room id or preferred room type is required")
	}
	return nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reservation id is required")
	}
	res, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLookupErr(err)
	}
	return res, nil
}

func (s *service) GetByNumber(ctx context.Context, number string) (*models.Reservation, error) {
	if strings.TrimSpace(number) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reservation number is required")
	}
	res, err := s.repo.FindByNumber(ctx, strings.TrimSpace(number))
	if err != nil {
		return nil, mapLookupErr(err)
	}
	return res, nil
}

func (s *service) ListByGuest(ctx context.Context, guestID uuid.UUID) ([]models.Reservation, error) {
	if guestID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "guest id is required")
	}
	rows, err := s.repo.ListByGuest(ctx, guestID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list guest reservations")
	}
	return rows, nil
}

func (s *service) List(ctx context.Context, filter ListFilter, page pagination.Params) (*ListResult, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid reservation status %q", filter.Status))
	}
	params := listParams{Filter: filter, Limit: page.Limit}
	if page.Cursor != "" {
		cursor, err := pagination.ParseCursor(page.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		params.Cursor = cursor
	}
	rows, next, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reservations")
	}
	result := &ListResult{Items: rows}
	if next != nil {
		result.Cursor = pagination.EncodeCursor(*next)
	}
	return result, nil
}

func (s *service) History(ctx context.Context, id uuid.UUID) ([]models.ReservationHistory, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListHistory(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reservation history")
	}
	return rows, nil
}

func (s *service) Terms(ctx context.Context) (*billing.Policy, error) {
	policy, err := s.policy(ctx)
	if err != nil {
		return nil, err
	}
	return &policy, nil
}

func (s *service) policy(ctx context.Context) (billing.Policy, error) {
	return billing.ResolvePolicy(ctx, s.settings, s.graceDays)
}

// record appends one history entry.
func (s *service) record(ctx context.Context, tx *gorm.DB, reservationID uuid.UUID, action enums.HistoryAction, oldValue, newValue *string, description, actor string) error {
	entry := &models.ReservationHistory{
		ReservationID: reservationID,
		Action:        action,
		OldValue:      oldValue,
		NewValue:      newValue,
		Description:   description,
		Operator:      actor,
	}
	if err := s.repo.WithTx(tx).AppendHistory(ctx, entry); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append reservation history")
	}
	return nil
}

func (s *service) emit(ctx context.Context, tx *gorm.DB, eventType enums.OutboxEventType, res *models.Reservation, actor string) error {
	event := outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateReservation,
		AggregateID:   res.ID,
		Actor:         outbox.Actor(actor),
		Data: payloads.ReservationEvent{
			ReservationID:     res.ID,
			ReservationNumber: res.ReservationNumber,
			GuestID:           res.GuestID,
			RoomID:            res.RoomID,
			CheckInDate:       calendar.Format(res.CheckInDate),
			CheckOutDate:      calendar.Format(res.CheckOutDate),
			Status:            res.Status,
			TotalAmount:       res.TotalAmount.StringFixed(2),
			PaidAmount:        res.PaidAmount.StringFixed(2),
		},
	}
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit reservation event")
	}
	return nil
}

// lock loads the reservation for update and checks it is in one of allowed.
func (s *service) lock(ctx context.Context, tx *gorm.DB, id uuid.UUID, transition string, allowed ...enums.ReservationStatus) (*models.Reservation, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reservation id is required")
	}
	res, err := s.repo.WithTx(tx).FindByIDForUpdate(ctx, id)
	if err != nil {
		return nil, mapLookupErr(err)
	}
	for _, status := range allowed {
		if res.Status == status {
			return res, nil
		}
	}
	return nil, pkgerrors.StateConflict(id.String(), string(res.Status), transition)
}

// reload re-reads the reservation after an update inside tx.
func (s *service) reload(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Reservation, error) {
	res, err := s.repo.WithTx(tx).FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload reservation")
	}
	return res, nil
}

func requireActor(actor string) error {
	if strings.TrimSpace(actor) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "actor is required")
	}
	return nil
}

func mapLookupErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "reservation not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup reservation")
}

func strPtr(v string) *string {
	return &v
}
