package payments

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/innkeeper-backend/api/controllers/dto"
	"github.com/angelmondragon/innkeeper-backend/api/middleware"
	"github.com/angelmondragon/innkeeper-backend/api/responses"
	"github.com/angelmondragon/innkeeper-backend/api/validators"
	"github.com/angelmondragon/innkeeper-backend/internal/payments"
	"github.com/angelmondragon/innkeeper-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/innkeeper-backend/pkg/errors"
	"github.com/angelmondragon/innkeeper-backend/pkg/logger"
)

type pendingRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"gt=0"`
	Method string          `json:"method" validate:"required,oneof=CASH CARD BANK_TRANSFER ONLINE"`
	Note   *string         `json:"note,omitempty" validate:"omitempty,max=500"`
}

type successRequest struct {
	ProviderRef string `json:"provider_ref" validate:"omitempty,max=128"`
}

type failedRequest struct {
	Note string `json:"note" validate:"omitempty,max=500"`
}

type reconciliation struct {
	ReservationID uuid.UUID       `json:"reservation_id"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
}

func unavailable(w http.ResponseWriter, r *http.Request, logg *logger.Logger, name string) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, name+" service unavailable"))
}

// PaymentCreatePending opens a PENDING payment that settles later through
// PaymentMarkSuccess or PaymentMarkFailed.
func PaymentCreatePending(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "payment")
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

		var body pendingRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := payments.PendingInput{
			ReservationID: reservationID,
			Amount:        body.Amount,
			Method:        enums.PaymentMethod(body.Method),
		}
		if body.Note != nil {
			note := validators.SanitizeString(*body.Note, 500)
			input.Note = &note
		}

		payment, err := svc.CreatePending(r.Context(), input, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto.NewPayment(*payment))
	}
}

func PaymentList(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "payment")
			return
		}
		reservationID, err := validators.ParseUUIDParam(r, "reservationID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.ListByReservation(r.Context(), reservationID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto.NewPayments(items))
	}
}

// PaymentMarkSuccess settles a pending payment and credits the reservation.
func PaymentMarkSuccess(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "payment")
			return
		}
		actor, err := middleware.RequireActor(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		paymentID, err := validators.ParseUUIDParam(r, "paymentID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body successRequest
		if err := validators.DecodeOptionalJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payment, err := svc.MarkSuccess(r.Context(), paymentID, body.ProviderRef, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto.NewPayment(*payment))
	}
}

func PaymentMarkFailed(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "payment")
			return
		}
		actor, err := middleware.RequireActor(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		paymentID, err := validators.ParseUUIDParam(r, "paymentID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body failedRequest
		if err := validators.DecodeOptionalJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payment, err := svc.MarkFailed(r.Context(), paymentID, validators.SanitizeString(body.Note, 500), actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto.NewPayment(*payment))
	}
}

// PaymentRetry opens a fresh PENDING payment linked to a FAILED one.
func PaymentRetry(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "payment")
			return
		}
		actor, err := middleware.RequireActor(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		paymentID, err := validators.ParseUUIDParam(r, "paymentID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payment, err := svc.Retry(r.Context(), paymentID, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto.NewPayment(*payment))
	}
}

// PaymentReconcile recomputes the paid amount from the payment ledger.
func PaymentReconcile(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "payment")
			return
		}
		reservationID, err := validators.ParseUUIDParam(r, "reservationID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		paid, err := svc.Reconcile(r.Context(), reservationID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, reconciliation{ReservationID: reservationID, PaidAmount: paid})
	}
}
