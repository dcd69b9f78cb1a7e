package rooms

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/innkeeper-backend/api/controllers/dto"
	"github.com/angelmondragon/innkeeper-backend/api/middleware"
	"github.com/angelmondragon/innkeeper-backend/api/responses"
	"github.com/angelmondragon/innkeeper-backend/api/validators"
	"github.com/angelmondragon/innkeeper-backend/internal/rooms"
	"github.com/angelmondragon/innkeeper-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/innkeeper-backend/pkg/errors"
	"github.com/angelmondragon/innkeeper-backend/pkg/logger"
)

type createRoomRequest struct {
	RoomNumber  string          `json:"room_number" validate:"required,max=16"`
	RoomType    string          `json:"room_type" validate:"required,max=32"`
	Price       decimal.Decimal `json:"price" validate:"gt=0"`
	Capacity    int             `json:"capacity" validate:"required,min=1,max=20"`
	Floor       *int            `json:"floor,omitempty"`
	Description *string         `json:"description,omitempty" validate:"omitempty,max=500"`
}

func (r createRoomRequest) toInput() rooms.CreateRoomInput {
	input := rooms.CreateRoomInput{
		RoomNumber: strings.TrimSpace(r.RoomNumber),
		RoomType:   strings.TrimSpace(r.RoomType),
		Price:      r.Price,
		Capacity:   r.Capacity,
		Floor:      r.Floor,
	}
	if r.Description != nil {
		desc := validators.SanitizeString(*r.Description, 500)
		input.Description = &desc
	}
	return input
}

type statusRequest struct {
	Status          string `json:"status" validate:"required,oneof=AVAILABLE OCCUPIED RESERVED CLEANING MAINTENANCE"`
	ExpectedVersion *int64 `json:"expected_version,omitempty"`
}

type batchStatusItem struct {
	RoomID          string `json:"room_id" validate:"required,uuid"`
	Status          string `json:"status" validate:"required,oneof=AVAILABLE OCCUPIED RESERVED CLEANING MAINTENANCE"`
	ExpectedVersion *int64 `json:"expected_version,omitempty"`
}

type batchStatusRequest struct {
	Items []batchStatusItem `json:"items" validate:"required,min=1,max=100,dive"`
}

type activeRequest struct {
	Active          *bool  `json:"is_active" validate:"required"`
	ExpectedVersion *int64 `json:"expected_version,omitempty"`
}

func unavailable(w http.ResponseWriter, r *http.Request, logg *logger.Logger) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "room service unavailable"))
}

// RoomList filters rooms by type, status and active flag.
func RoomList(svc rooms.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}

		filter := rooms.ListFilter{RoomType: strings.TrimSpace(r.URL.Query().Get("type"))}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseRoomStatus(strings.ToUpper(raw))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid room status"))
				return
			}
			filter.Status = status
		}
		activeOnly, err := validators.ParseQueryBool(r, "active", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter.ActiveOnly = activeOnly

		items, err := svc.ListRooms(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto.NewRooms(items))
	}
}

// RoomCreate registers a new room, initially AVAILABLE.
func RoomCreate(svc rooms.Service, logg *logger.Logger) http.HandlerFunc {
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

		var body createRoomRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		room, err := svc.CreateRoom(r.Context(), body.toInput(), actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto.NewRoom(*room))
	}
}

func RoomGet(svc rooms.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		roomID, err := validators.ParseUUIDParam(r, "roomID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		room, err := svc.GetRoom(r.Context(), roomID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto.NewRoom(*room))
	}
}

func RoomGetByNumber(svc rooms.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		room, err := svc.FindByNumber(r.Context(), chi.URLParam(r, "roomNumber"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto.NewRoom(*room))
	}
}

// RoomAvailability lists active rooms free for [check_in, check_out).
func RoomAvailability(svc rooms.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		checkIn, err := validators.ParseDate("check_in", r.URL.Query().Get("check_in"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		checkOut, err := validators.ParseDate("check_out", r.URL.Query().Get("check_out"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		exclude, err := validators.ParseQueryUUID(r, "exclude_reservation_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.ListAvailableForRange(r.Context(), rooms.RangeQuery{
			CheckIn:              checkIn,
			CheckOut:             checkOut,
			RoomType:             strings.TrimSpace(r.URL.Query().Get("room_type")),
			ExcludeReservationID: exclude,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto.NewRooms(items))
	}
}

// RoomUpdateStatus applies a manual status change, optionally guarded by the
// caller's last seen version.
func RoomUpdateStatus(svc rooms.Service, logg *logger.Logger) http.HandlerFunc {
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
		roomID, err := validators.ParseUUIDParam(r, "roomID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body statusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.UpdateStatus(r.Context(), rooms.UpdateStatusInput{
			RoomID:          roomID,
			Status:          enums.RoomStatus(body.Status),
			ExpectedVersion: body.ExpectedVersion,
		}, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newStatusResult(result))
	}
}

// RoomBatchUpdateStatus applies each item independently and reports per-item failures.
func RoomBatchUpdateStatus(svc rooms.Service, logg *logger.Logger) http.HandlerFunc {
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

		var body batchStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]rooms.UpdateStatusInput, 0, len(body.Items))
		for _, item := range body.Items {
			items = append(items, rooms.UpdateStatusInput{
				RoomID:          uuid.MustParse(item.RoomID),
				Status:          enums.RoomStatus(item.Status),
				ExpectedVersion: item.ExpectedVersion,
			})
		}
		responses.WriteSuccess(w, svc.BatchUpdateStatus(r.Context(), items, actor))
	}
}

// RoomCompleteCleaning moves a CLEANING room back to AVAILABLE and deducts
// its standard consumption from stock.
func RoomCompleteCleaning(svc rooms.Service, logg *logger.Logger) http.HandlerFunc {
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
		roomID, err := validators.ParseUUIDParam(r, "roomID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.CompleteCleaning(r.Context(), roomID, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newStatusResult(result))
	}
}

func RoomSetActive(svc rooms.Service, logg *logger.Logger) http.HandlerFunc {
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
		roomID, err := validators.ParseUUIDParam(r, "roomID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body activeRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		room, err := svc.SetActive(r.Context(), roomID, *body.Active, body.ExpectedVersion, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto.NewRoom(*room))
	}
}

func newStatusResult(result *rooms.StatusResult) dto.RoomStatusResult {
	return dto.RoomStatusResult{Room: dto.NewRoom(result.Room), Cleaning: result.Cleaning}
}
