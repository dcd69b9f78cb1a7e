// Package waitlist holds stay requests that could not be allocated and
// promotes them once a room frees up. The sweep only flags eligibility;
// conversion is always an explicit staff action.
package waitlist

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/innkeeper-backend/internal/guests"
	"github.com/angelmondragon/innkeeper-backend/internal/reservations"
	"github.com/angelmondragon/innkeeper-backend/internal/rooms"
	"github.com/angelmondragon/innkeeper-backend/pkg/calendar"
	"github.com/angelmondragon/innkeeper-backend/pkg/db/models"
	"github.com/angelmondragon/innkeeper-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/innkeeper-backend/pkg/errors"
	"github.com/angelmondragon/innkeeper-backend/pkg/logger"
	"github.com/angelmondragon/innkeeper-backend/pkg/outbox"
	"github.com/angelmondragon/innkeeper-backend/pkg/outbox/payloads"
)

// DefaultSweepHorizon bounds the sweep when the caller gives no end date.
const DefaultSweepHorizon = 30 * 24 * time.Hour

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Booker is the reservation create path used by conversion.
type Booker interface {
	CreateInTx(ctx context.Context, tx *gorm.DB, input reservations.CreateInput, actor string) (*models.Reservation, error)
}

// RoomFinder lists active, conflict-free rooms for a stay.
type RoomFinder interface {
	ListAvailableForRange(ctx context.Context, query rooms.RangeQuery) ([]models.Room, error)
}

type Service interface {
	Add(ctx context.Context, input AddInput, actor string) (*models.WaitlistEntry, error)
	Get(ctx context.Context, id uuid.UUID) (*models.WaitlistEntry, error)
	List(ctx context.Context, status enums.WaitlistStatus) ([]models.WaitlistEntry, error)
	Notify(ctx context.Context, id uuid.UUID, actor string) (*models.WaitlistEntry, error)
	Convert(ctx context.Context, id, roomID uuid.UUID, actor string) (*ConvertResult, error)
	Cancel(ctx context.Context, id uuid.UUID, actor string) (*models.WaitlistEntry, error)
	CheckAndNotifyAvailableRooms(ctx context.Context, filter SweepFilter, actor string) (*SweepResult, error)
}

type AddInput struct {
	GuestID        uuid.UUID
	CheckInDate    time.Time
	CheckOutDate   time.Time
	RoomType       *string
	NumberOfGuests int
	ContactPhone   *string
	ContactEmail   *string
	Notes          *string
}

// SweepFilter bounds the desired check-in dates scanned. Zero From means
// today; zero To means From plus DefaultSweepHorizon.
type SweepFilter struct {
	From     time.Time
	To       time.Time
	RoomType string
}

type SweepResult struct {
	Scanned  int `json:"scanned"`
	Notified int `json:"notified"`
	Failed   int `json:"failed"`
}

type ConvertResult struct {
	Entry       models.WaitlistEntry `json:"entry"`
	Reservation models.Reservation   `json:"reservation"`
}

type ServiceParams struct {
	Repo     Repository
	Guests   guests.Directory
	Rooms    RoomFinder
	Booker   Booker
	Outbox   outbox.Emitter
	Tx       txRunner
	Logger   *logger.Logger
	Location *time.Location
	Now      func() time.Time
}

type service struct {
	repo   Repository
	guests guests.Directory
	rooms  RoomFinder
	booker Booker
	outbox outbox.Emitter
	tx     txRunner
	logg   *logger.Logger
	loc    *time.Location
	now    func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
		return nil, fmt.Errorf("waitlist repository required")
	case params.Guests == nil:
		return nil, fmt.Errorf("guest directory required")
	case params.Rooms == nil:
		return nil, fmt.Errorf("room finder required")
	case params.Booker == nil:
		return nil, fmt.Errorf("reservation booker required")
	case params.Outbox == nil:
		return nil, fmt.Errorf("outbox emitter required")
	case params.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	}
	svc := &service{
		repo:   params.Repo,
		guests: params.Guests,
		rooms:  params.Rooms,
		booker: params.Booker,
		outbox: params.Outbox,
		tx:     params.Tx,
		logg:   params.Logger,
		loc:    params.Location,
		now:    params.Now,
	}
	if svc.loc == nil {
		svc.loc = time.UTC
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	return svc, nil
}

func (s *service) Add(ctx context.Context, input AddInput, actor string) (*models.WaitlistEntry, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := calendar.ValidateRange(input.CheckInDate, input.CheckOutDate); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}
	guestsCount := input.NumberOfGuests
	if guestsCount == 0 {
		guestsCount = 1
	}
	if guestsCount < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "number of guests must be at least 1")
	}
	guest, err := s.guests.FindGuestByID(ctx, input.GuestID)
	if err != nil {
		return nil, err
	}

	entry := &models.WaitlistEntry{
		GuestID:           guest.ID,
		CheckInDate:       calendar.Date(input.CheckInDate),
		CheckOutDate:      calendar.Date(input.CheckOutDate),
		PreferredRoomType: trimmed(input.RoomType),
		NumberOfGuests:    guestsCount,
		ContactPhone:      firstNonEmpty(input.ContactPhone, guest.Phone),
		ContactEmail:      firstNonEmpty(input.ContactEmail, guest.Email),
		Notes:             input.Notes,
		Status:            enums.WaitlistStatusPending,
		CreatedBy:         actor,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create waitlist entry")
	}
	return entry, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.WaitlistEntry, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "waitlist id is required")
	}
	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLookupErr(err)
	}
	return entry, nil
}

func (s *service) List(ctx context.Context, status enums.WaitlistStatus) ([]models.WaitlistEntry, error) {
	if status != "" && !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid waitlist status %q", status))
	}
	rows, err := s.repo.List(ctx, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list waitlist")
	}
	return rows, nil
}

func (s *service) Notify(ctx context.Context, id uuid.UUID, actor string) (*models.WaitlistEntry, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	var notified *models.WaitlistEntry
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		entry, err := s.lock(ctx, repo, id, "notify", enums.WaitlistStatusPending)
		if err != nil {
			return err
		}
		at := s.now().UTC()
		if err := repo.Update(ctx, entry.ID, map[string]any{"status": enums.WaitlistStatusNotified, "notified_at": at}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update waitlist entry")
		}
		entry.Status = enums.WaitlistStatusNotified
		entry.NotifiedAt = &at
		if err := s.emit(ctx, tx, enums.EventWaitlistNotified, entry, nil, actor); err != nil {
			return err
		}
		notified = entry
		return nil
	})
	if err != nil {
		return nil, err
	}
	return notified, nil
}

// Convert books the chosen room for the entry's stay in the same transaction
// that marks the entry CONVERTED. A conflicted room leaves the entry as it was.
func (s *service) Convert(ctx context.Context, id, roomID uuid.UUID, actor string) (*ConvertResult, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if roomID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "room id is required")
	}
	var result *ConvertResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		entry, err := s.lock(ctx, repo, id, "convert", enums.WaitlistStatusPending, enums.WaitlistStatusNotified)
		if err != nil {
			return err
		}
		room := roomID
		res, err := s.booker.CreateInTx(ctx, tx, reservations.CreateInput{
			GuestID:           entry.GuestID,
			RoomID:            &room,
			PreferredRoomType: entry.PreferredRoomType,
			CheckInDate:       entry.CheckInDate,
			CheckOutDate:      entry.CheckOutDate,
			NumberOfGuests:    entry.NumberOfGuests,
			SpecialRequests:   entry.Notes,
		}, actor)
		if err != nil {
			return err
		}
		if err := repo.Update(ctx, entry.ID, map[string]any{"status": enums.WaitlistStatusConverted, "reservation_id": res.ID}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update waitlist entry")
		}
		entry.Status = enums.WaitlistStatusConverted
		entry.ReservationID = &res.ID
		if err := s.emit(ctx, tx, enums.EventWaitlistConverted, entry, &room, actor); err != nil {
			return err
		}
		result = &ConvertResult{Entry: *entry, Reservation: *res}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) Cancel(ctx context.Context, id uuid.UUID, actor string) (*models.WaitlistEntry, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	var cancelled *models.WaitlistEntry
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		entry, err := s.lock(ctx, repo, id, "cancel", enums.WaitlistStatusPending, enums.WaitlistStatusNotified)
		if err != nil {
			return err
		}
		if err := repo.Update(ctx, entry.ID, map[string]any{"status": enums.WaitlistStatusCancelled}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update waitlist entry")
		}
		entry.Status = enums.WaitlistStatusCancelled
		cancelled = entry
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cancelled, nil
}

// CheckAndNotifyAvailableRooms flags every PENDING entry in the window that
// now has an active, conflict-free room of its preferred type large enough
// for the party. Each entry is notified in its own transaction.
func (s *service) CheckAndNotifyAvailableRooms(ctx context.Context, filter SweepFilter, actor string) (*SweepResult, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	from := calendar.Date(filter.From)
	if filter.From.IsZero() {
		from = calendar.Today(s.now(), s.loc)
	}
	to := calendar.Date(filter.To)
	if filter.To.IsZero() {
		to = calendar.Date(from.Add(DefaultSweepHorizon))
	}
	if to.Before(from) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sweep end date must not be before start date")
	}
	roomType := strings.TrimSpace(filter.RoomType)

	pending, err := s.repo.ListPendingArriving(ctx, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending waitlist")
	}

	result := &SweepResult{}
	var errs error
	for i := range pending {
		entry := pending[i]
		wanted := ""
		if entry.PreferredRoomType != nil {
			wanted = *entry.PreferredRoomType
		}
		if roomType != "" && wanted != "" && !strings.EqualFold(wanted, roomType) {
			continue
		}
		if wanted == "" {
			wanted = roomType
		}
		result.Scanned++

		eligible, err := s.hasRoomFor(ctx, entry, wanted)
		if err != nil {
			result.Failed++
			errs = multierr.Append(errs, fmt.Errorf("waitlist %s: %w", entry.ID, err))
			continue
		}
		if !eligible {
			continue
		}
		if _, err := s.Notify(ctx, entry.ID, actor); err != nil {
			result.Failed++
			errs = multierr.Append(errs, fmt.Errorf("waitlist %s: %w", entry.ID, err))
			continue
		}
		result.Notified++
	}
	if errs != nil && s.logg != nil {
		s.logg.Error(ctx, "waitlist sweep had failures", errs)
	}
	return result, errs
}

func (s *service) hasRoomFor(ctx context.Context, entry models.WaitlistEntry, roomType string) (bool, error) {
	free, err := s.rooms.ListAvailableForRange(ctx, rooms.RangeQuery{
		CheckIn:  entry.CheckInDate,
		CheckOut: entry.CheckOutDate,
		RoomType: roomType,
	})
	if err != nil {
		return false, err
	}
	for _, room := range free {
		if room.Capacity >= entry.NumberOfGuests {
			return true, nil
		}
	}
	return false, nil
}

func (s *service) lock(ctx context.Context, repo Repository, id uuid.UUID, transition string, allowed ...enums.WaitlistStatus) (*models.WaitlistEntry, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "waitlist id is required")
	}
	entry, err := repo.FindByIDForUpdate(ctx, id)
	if err != nil {
		return nil, mapLookupErr(err)
	}
	for _, status := range allowed {
		if entry.Status == status {
			return entry, nil
		}
	}
	return nil, pkgerrors.StateConflict(id.String(), string(entry.Status), transition)
}

func (s *service) emit(ctx context.Context, tx *gorm.DB, eventType enums.OutboxEventType, entry *models.WaitlistEntry, roomID *uuid.UUID, actor string) error {
	event := outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateWaitlist,
		AggregateID:   entry.ID,
		Actor:         outbox.Actor(actor),
		Data: payloads.WaitlistEvent{
			WaitlistID:    entry.ID,
			GuestID:       entry.GuestID,
			Status:        entry.Status,
			CheckInDate:   calendar.Format(entry.CheckInDate),
			CheckOutDate:  calendar.Format(entry.CheckOutDate),
			RoomType:      entry.PreferredRoomType,
			ContactEmail:  entry.ContactEmail,
			ContactPhone:  entry.ContactPhone,
			RoomID:        roomID,
			ReservationID: entry.ReservationID,
		},
	}
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit waitlist event")
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
		return pkgerrors.New(pkgerrors.CodeNotFound, "waitlist entry not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup waitlist entry")
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}

func firstNonEmpty(values ...*string) *string {
	for _, v := range values {
		if t := trimmed(v); t != nil {
			return t
		}
	}
	return nil
}
