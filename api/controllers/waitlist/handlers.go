package waitlist

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/innkeeper-backend/api/controllers/dto"
	"github.com/angelmondragon/innkeeper-backend/api/middleware"
	"github.com/angelmondragon/innkeeper-backend/api/responses"
	"github.com/angelmondragon/innkeeper-backend/api/validators"
	"github.com/angelmondragon/innkeeper-backend/internal/waitlist"
	"github.com/angelmondragon/innkeeper-backend/pkg/db/models"
	"github.com/angelmondragon/innkeeper-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/innkeeper-backend/pkg/errors"
	"github.com/angelmondragon/innkeeper-backend/pkg/logger"
)

type addRequest struct {
	GuestID        string  `json:"guest_id" validate:"required,uuid"`
	CheckInDate    string  `json:"check_in_date" validate:"required,datetime=2006-01-02"`
	CheckOutDate   string  `json:"check_out_date" validate:"required,datetime=2006-01-02"`
	RoomType       *string `json:"room_type,omitempty" validate:"omitempty,max=32"`
	NumberOfGuests int     `json:"number_of_guests" validate:"required,min=1,max=20"`
	ContactPhone   *string `json:"contact_phone,omitempty" validate:"omitempty,max=32"`
	ContactEmail   *string `json:"contact_email,omitempty" validate:"omitempty,email,max=254"`
	Notes          *string `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

func (a addRequest) toInput() waitlist.AddInput {
	checkIn, _ := validators.ParseDate("check_in_date", a.CheckInDate)
	checkOut, _ := validators.ParseDate("check_out_date", a.CheckOutDate)
	input := waitlist.AddInput{
		GuestID:        uuid.MustParse(a.GuestID),
		CheckInDate:    checkIn,
		CheckOutDate:   checkOut,
		NumberOfGuests: a.NumberOfGuests,
		ContactPhone:   a.ContactPhone,
		ContactEmail:   a.ContactEmail,
	}
	if a.RoomType != nil {
		if roomType := strings.TrimSpace(*a.RoomType); roomType != "" {
			input.RoomType = &roomType
		}
	}
	if a.Notes != nil {
		notes := validators.SanitizeString(*a.Notes, 1000)
		input.Notes = &notes
	}
	return input
}

type convertRequest struct {
	RoomID string `json:"room_id" validate:"required,uuid"`
}

type sweepRequest struct {
	From     string `json:"from,omitempty" validate:"omitempty,datetime=2006-01-02"`
	To       string `json:"to,omitempty" validate:"omitempty,datetime=2006-01-02"`
	RoomType string `json:"room_type,omitempty" validate:"omitempty,max=32"`
}

func (b sweepRequest) toFilter() (waitlist.SweepFilter, error) {
	filter := waitlist.SweepFilter{RoomType: strings.TrimSpace(b.RoomType)}
	var err error
	if b.From != "" {
		if filter.From, err = validators.ParseDate("from", b.From); err != nil {
			return filter, err
		}
	}
	if b.To != "" {
		if filter.To, err = validators.ParseDate("to", b.To); err != nil {
			return filter, err
		}
	}
	return filter, nil
}

func unavailable(w http.ResponseWriter, r *http.Request, logg *logger.Logger) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "waitlist service unavailable"))
}

func WaitlistAdd(svc waitlist.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		actor, err := middleware.RequireActor(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body addRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entry, err := svc.Add(r.Context(), body.toInput(), actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto.NewWaitlistEntry(*entry))
	}
}

// WaitlistList returns entries, optionally narrowed to one status.
func WaitlistList(svc waitlist.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}

		var status enums.WaitlistStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			parsed, err := enums.ParseWaitlistStatus(strings.ToUpper(raw))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid waitlist status"))
				return
			}
			status = parsed
		}

		items, err := svc.List(r.Context(), status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto.NewWaitlistEntries(items))
	}
}

func WaitlistGet(svc waitlist.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		id, err := validators.ParseUUIDParam(r, "entryID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entry, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto.NewWaitlistEntry(*entry))
	}
}

// WaitlistNotify marks a PENDING entry as NOTIFIED.
func WaitlistNotify(svc waitlist.Service, logg *logger.Logger) http.HandlerFunc {
	return transition(svc, logg, func(s waitlist.Service) transitionFunc { return s.Notify })
}

func WaitlistCancel(svc waitlist.Service, logg *logger.Logger) http.HandlerFunc {
	return transition(svc, logg, func(s waitlist.Service) transitionFunc { return s.Cancel })
}

type transitionFunc func(ctx context.Context, id uuid.UUID, actor string) (*models.WaitlistEntry, error)

func transition(svc waitlist.Service, logg *logger.Logger, pick func(waitlist.Service) transitionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		actor, err := middleware.RequireActor(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.ParseUUIDParam(r, "entryID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entry, err := pick(svc)(r.Context(), id, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto.NewWaitlistEntry(*entry))
	}
}

// WaitlistConvert books the chosen room for the entry and links the new
// reservation to it.
func WaitlistConvert(svc waitlist.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		actor, err := middleware.RequireActor(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.ParseUUIDParam(r, "entryID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body convertRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Convert(r.Context(), id, uuid.MustParse(body.RoomID), actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto.WaitlistConversion{
			Entry:       dto.NewWaitlistEntry(result.Entry),
			Reservation: dto.NewReservation(result.Reservation),
		})
	}
}

// WaitlistSweep notifies every pending entry that a room could now serve.
// Per-entry failures are counted in the result rather than failing the call.
func WaitlistSweep(svc waitlist.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		actor, err := middleware.RequireActor(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body sweepRequest
		if err := validators.DecodeOptionalJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter, err := body.toFilter()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.CheckAndNotifyAvailableRooms(r.Context(), filter, actor)
		if result == nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
