package inventory

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/innkeeper-backend/api/controllers/dto"
	"github.com/angelmondragon/innkeeper-backend/api/middleware"
	"github.com/angelmondragon/innkeeper-backend/api/responses"
	"github.com/angelmondragon/innkeeper-backend/api/validators"
	"github.com/angelmondragon/innkeeper-backend/internal/inventory"
	pkgerrors "github.com/angelmondragon/innkeeper-backend/pkg/errors"
	"github.com/angelmondragon/innkeeper-backend/pkg/logger"
)

type createItemRequest struct {
	Name            string          `json:"name" validate:"required,max=128"`
	Category        string          `json:"category" validate:"required,max=64"`
	Unit            string          `json:"unit" validate:"required,max=32"`
	SafetyThreshold decimal.Decimal `json:"safety_threshold" validate:"gte=0"`
	OpeningQuantity decimal.Decimal `json:"opening_quantity" validate:"gte=0"`
	OpeningCost     decimal.Decimal `json:"opening_cost" validate:"gte=0"`
	Supplier        *string         `json:"supplier,omitempty" validate:"omitempty,max=128"`
}

type stockInRequest struct {
	Quantity  decimal.Decimal `json:"quantity" validate:"gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price" validate:"gte=0"`
	Supplier  *string         `json:"supplier,omitempty" validate:"omitempty,max=128"`
	Reason    *string         `json:"reason,omitempty" validate:"omitempty,max=255"`
}

type stockOutRequest struct {
	Quantity  decimal.Decimal `json:"quantity" validate:"gt=0"`
	Reason    *string         `json:"reason,omitempty" validate:"omitempty,max=255"`
	Reference *string         `json:"reference,omitempty" validate:"omitempty,max=128"`
}

type consumptionRequest struct {
	Quantity    decimal.Decimal `json:"quantity" validate:"gt=0"`
	Description *string         `json:"description,omitempty" validate:"omitempty,max=255"`
}

func unavailable(w http.ResponseWriter, r *http.Request, logg *logger.Logger) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
}

func InventoryListItems(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		activeOnly, err := validators.ParseQueryBool(r, "active", true)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.ListItems(r.Context(), inventory.ItemFilter{
			Category:   strings.TrimSpace(r.URL.Query().Get("category")),
			ActiveOnly: activeOnly,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto.NewInventoryItems(items))
	}
}

// InventoryLowStock lists active items at or below their safety threshold.
func InventoryLowStock(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}

		items, err := svc.ListLowStock(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto.NewInventoryItems(items))
	}
}

func InventoryCreateItem(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
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

		var body createItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.CreateItem(r.Context(), inventory.CreateItemInput{
			Name:            validators.SanitizeString(body.Name, 128),
			Category:        strings.TrimSpace(body.Category),
			Unit:            strings.TrimSpace(body.Unit),
			SafetyThreshold: body.SafetyThreshold,
			OpeningQuantity: body.OpeningQuantity,
			OpeningCost:     body.OpeningCost,
			Supplier:        sanitize(body.Supplier, 128),
		}, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto.NewInventoryItem(*item))
	}
}

func InventoryGetItem(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		itemID, err := validators.ParseUUIDParam(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.GetItem(r.Context(), itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto.NewInventoryItem(*item))
	}
}

// InventoryTransactions returns the item's ledger, newest first.
func InventoryTransactions(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		itemID, err := validators.ParseUUIDParam(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.ListTransactions(r.Context(), itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto.NewInventoryTransactions(items))
	}
}

// InventoryStockIn receives stock and reprices the item at weighted average cost.
func InventoryStockIn(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
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
		itemID, err := validators.ParseUUIDParam(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body stockInRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		movement, err := svc.StockIn(r.Context(), inventory.StockInInput{
			ItemID:    itemID,
			Quantity:  body.Quantity,
			UnitPrice: body.UnitPrice,
			Supplier:  sanitize(body.Supplier, 128),
			Reason:    sanitize(body.Reason, 255),
		}, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newMovement(movement))
	}
}

// InventoryStockOut issues stock; it never drives the quantity negative.
func InventoryStockOut(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
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
		itemID, err := validators.ParseUUIDParam(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body stockOutRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		movement, err := svc.StockOut(r.Context(), inventory.StockOutInput{
			ItemID:    itemID,
			Quantity:  body.Quantity,
			Reason:    sanitize(body.Reason, 255),
			Reference: sanitize(body.Reference, 128),
		}, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newMovement(movement))
	}
}

func ConsumptionList(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
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

		items, err := svc.ListStandardConsumption(r.Context(), roomID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto.NewStandardConsumptions(items))
	}
}

// ConsumptionSet upserts how much of an item one cleaning of the room uses.
func ConsumptionSet(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		roomID, itemID, err := consumptionParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body consumptionRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entry, err := svc.SetStandardConsumption(r.Context(), inventory.ConsumptionInput{
			RoomID:      roomID,
			ItemID:      itemID,
			Quantity:    body.Quantity,
			Description: sanitize(body.Description, 255),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto.NewStandardConsumption(*entry))
	}
}

func ConsumptionRemove(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		roomID, itemID, err := consumptionParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.RemoveStandardConsumption(r.Context(), roomID, itemID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

func consumptionParams(r *http.Request) (uuid.UUID, uuid.UUID, error) {
	roomID, err := validators.ParseUUIDParam(r, "roomID")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	itemID, err := validators.ParseUUIDParam(r, "itemID")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return roomID, itemID, nil
}

func newMovement(m *inventory.Movement) dto.StockMovement {
	return dto.StockMovement{
		Item:        dto.NewInventoryItem(m.Item),
		Transaction: dto.NewInventoryTransaction(m.Transaction),
	}
}

func sanitize(value *string, maxLen int) *string {
	if value == nil {
		return nil
	}
	clean := validators.SanitizeString(*value, maxLen)
	if clean == "" {
		return nil
	}
	return &clean
}
