package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/innkeeper-backend/pkg/db/models"
	"github.com/angelmondragon/innkeeper-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/innkeeper-backend/pkg/errors"
	"github.com/angelmondragon/innkeeper-backend/pkg/outbox"
	"github.com/angelmondragon/innkeeper-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/innkeeper-backend/pkg/types"
)

// ConsumeForRoomCleaning deducts a room's standard consumables once it is back
// in service. Every item posts in its own transaction; one failure never
// blocks the rest. Failures are counted, queued for reconciliation and
// returned both in the summary and as a combined error.
func (s *service) ConsumeForRoomCleaning(ctx context.Context, roomID uuid.UUID, roomNumber string, actor string) (types.BatchSummary, error) {
	var summary types.BatchSummary
	if err := requireActor(actor); err != nil {
		return summary, err
	}
	rows, err := s.repo.ListConsumption(ctx, roomID)
	if err != nil {
		return summary, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list standard consumption")
	}

	reason := CleaningReason
	reference := cleaningReferencePrefix + roomNumber
	var errs error
	for _, row := range rows {
		_, err := s.StockOut(ctx, StockOutInput{
			ItemID:    row.InventoryItemID,
			Quantity:  row.StandardQuantity,
			Reason:    &reason,
			Reference: &reference,
		}, actor)
		if err == nil {
			summary.Succeeded()
			continue
		}
		summary.Failed(row.InventoryItemID.String(), string(pkgerrors.As(err).Code()), err)
		errs = multierr.Append(errs, fmt.Errorf("item %s: %w", row.InventoryItemID, err))
		s.reportDeductionFailure(ctx, roomID, roomNumber, row, actor, err)
	}
	return summary, errs
}

func (s *service) reportDeductionFailure(ctx context.Context, roomID uuid.UUID, roomNumber string, row models.RoomStandardConsumption, actor string, cause error) {
	s.metrics.IncDeductionFailure(roomNumber)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventConsumptionDeductionFailed,
			AggregateType: enums.AggregateRoom,
			AggregateID:   roomID,
			Actor:         outbox.Actor(actor),
			Data: payloads.ConsumptionDeductionFailedEvent{
				RoomID:          roomID,
				RoomNumber:      roomNumber,
				InventoryItemID: row.InventoryItemID,
				Quantity:        row.StandardQuantity.String(),
				Error:           cause.Error(),
				FailedAt:        s.now().UTC(),
			},
		})
	})
	if err != nil && s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"room_id":           roomID.String(),
			"inventory_item_id": row.InventoryItemID.String(),
		})
		s.logg.Error(logCtx, "queue consumption deduction failure", err)
	}
}
