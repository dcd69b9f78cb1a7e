package payments

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/innkeeper-backend/api/controllers/dto"
	"github.com/angelmondragon/innkeeper-backend/api/middleware"
	"github.com/angelmondragon/innkeeper-backend/api/responses"
	"github.com/angelmondragon/innkeeper-backend/api/validators"
	"github.com/angelmondragon/innkeeper-backend/internal/folio"
	"github.com/angelmondragon/innkeeper-backend/pkg/logger"
)

type chargeRequest struct {
	ItemName    string          `json:"item_name" validate:"required,max=128"`
	Category    string          `json:"category" validate:"required,max=64"`
	Quantity    int             `json:"quantity" validate:"required,min=1,max=1000"`
	UnitPrice   decimal.Decimal `json:"unit_price" validate:"gte=0"`
	Description *string         `json:"description,omitempty" validate:"omitempty,max=500"`
}

// FolioPostCharge adds an incidental charge to a checked-in stay.
func FolioPostCharge(svc folio.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "folio")
			return
		}
		actor, err := middleware.RequireActor(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		reservationID, err := validators.ParseUUIDParam(r, "reservationID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body chargeRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := folio.ChargeInput{
			ReservationID: reservationID,
			ItemName:      validators.SanitizeString(body.ItemName, 128),
			Category:      strings.TrimSpace(body.Category),
			Quantity:      body.Quantity,
			UnitPrice:     body.UnitPrice,
		}
		if body.Description != nil {
			desc := validators.SanitizeString(*body.Description, 500)
			input.Description = &desc
		}

		charge, err := svc.PostCharge(r.Context(), input, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto.NewFolioCharge(*charge))
	}
}

func FolioListCharges(svc folio.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "folio")
			return
		}
		reservationID, err := validators.ParseUUIDParam(r, "reservationID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.ListCharges(r.Context(), reservationID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto.NewFolioCharges(items))
	}
}
