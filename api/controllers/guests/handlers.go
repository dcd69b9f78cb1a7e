package guests

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/innkeeper-backend/api/controllers/dto"
	"github.com/angelmondragon/innkeeper-backend/api/responses"
	"github.com/angelmondragon/innkeeper-backend/api/validators"
	"github.com/angelmondragon/innkeeper-backend/internal/guests"
	pkgerrors "github.com/angelmondragon/innkeeper-backend/pkg/errors"
	"github.com/angelmondragon/innkeeper-backend/pkg/logger"
)

type createRequest struct {
	FullName string  `json:"full_name" validate:"required,max=128"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email,max=254"`
	Phone    *string `json:"phone,omitempty" validate:"omitempty,max=32"`
}

func unavailable(w http.ResponseWriter, r *http.Request, logg *logger.Logger) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "guest service unavailable"))
}

func GuestCreate(svc guests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}

		var body createRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		guest, err := svc.Create(r.Context(), guests.CreateInput{
			FullName: validators.SanitizeString(body.FullName, 128),
			Email:    normalizeEmail(body.Email),
			Phone:    body.Phone,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto.NewGuest(*guest))
	}
}

func GuestGet(svc guests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		guestID, err := validators.ParseUUIDParam(r, "guestID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		guest, err := svc.FindGuestByID(r.Context(), guestID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto.NewGuest(*guest))
	}
}

// GuestLookup finds a guest by the email query parameter.
func GuestLookup(svc guests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		email := strings.TrimSpace(r.URL.Query().Get("email"))
		if email == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "email is required").WithDetails(map[string]any{"field": "email"}))
			return
		}

		guest, err := svc.FindGuestByEmail(r.Context(), strings.ToLower(email))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto.NewGuest(*guest))
	}
}

func normalizeEmail(email *string) *string {
	if email == nil {
		return nil
	}
	clean := strings.ToLower(strings.TrimSpace(*email))
	return &clean
}
