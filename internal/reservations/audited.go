package reservations

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/innkeeper-backend/internal/audit"
	"github.com/angelmondragon/innkeeper-backend/pkg/db/models"
	"github.com/angelmondragon/innkeeper-backend/pkg/logger"
	"github.com/angelmondragon/innkeeper-backend/pkg/types"
)

type auditedService struct {
	Service
	logg *logger.Logger
}

// NewAuditedService wraps every mutating call of next with audit records.
// Reads pass straight through.
func NewAuditedService(next Service, logg *logger.Logger) Service {
	return &auditedService{Service: next, logg: logg}
}

func (a *auditedService) Create(ctx context.Context, input CreateInput, actor string) (*models.Reservation, error) {
	return audit.Call(ctx, a.logg, "reservation.create", actor, input, func() (*models.Reservation, error) {
		return a.Service.Create(ctx, input, actor)
	})
}

func (a *auditedService) CreateInTx(ctx context.Context, tx *gorm.DB, input CreateInput, actor string) (*models.Reservation, error) {
	return audit.Call(ctx, a.logg, "reservation.create", actor, input, func() (*models.Reservation, error) {
		return a.Service.CreateInTx(ctx, tx, input, actor)
	})
}

func (a *auditedService) Confirm(ctx context.Context, id uuid.UUID, actor string) (*models.Reservation, error) {
	return audit.Call(ctx, a.logg, "reservation.confirm", actor, id, func() (*models.Reservation, error) {
		return a.Service.Confirm(ctx, id, actor)
	})
}

func (a *auditedService) CheckIn(ctx context.Context, input CheckInInput, actor string) (*models.Reservation, error) {
	return audit.Call(ctx, a.logg, "reservation.check_in", actor, input, func() (*models.Reservation, error) {
		return a.Service.CheckIn(ctx, input, actor)
	})
}

func (a *auditedService) QuickCheckIn(ctx context.Context, input QuickCheckInInput, actor string) (*models.Reservation, error) {
	return audit.Call(ctx, a.logg, "reservation.quick_check_in", actor, input, func() (*models.Reservation, error) {
		return a.Service.QuickCheckIn(ctx, input, actor)
	})
}

func (a *auditedService) Modify(ctx context.Context, input ModifyInput, actor string) (*models.Reservation, error) {
	return audit.Call(ctx, a.logg, "reservation.modify", actor, input, func() (*models.Reservation, error) {
		return a.Service.Modify(ctx, input, actor)
	})
}

func (a *auditedService) Inspect(ctx context.Context, input InspectInput, actor string) (*models.RoomCheckInspection, error) {
	return audit.Call(ctx, a.logg, "reservation.inspect", actor, input, func() (*models.RoomCheckInspection, error) {
		return a.Service.Inspect(ctx, input, actor)
	})
}

func (a *auditedService) CheckOut(ctx context.Context, input CheckOutInput, actor string) (*CheckOutResult, error) {
	return audit.Call(ctx, a.logg, "reservation.check_out", actor, input, func() (*CheckOutResult, error) {
		return a.Service.CheckOut(ctx, input, actor)
	})
}

func (a *auditedService) Cancel(ctx context.Context, input CancelInput, actor string) (*CancelResult, error) {
	return audit.Call(ctx, a.logg, "reservation.cancel", actor, input, func() (*CancelResult, error) {
		return a.Service.Cancel(ctx, input, actor)
	})
}

func (a *auditedService) BatchConfirm(ctx context.Context, ids []uuid.UUID, actor string) types.BatchSummary {
	summary, _ := audit.Call(ctx, a.logg, "reservation.batch_confirm", actor, ids, func() (types.BatchSummary, error) {
		return a.Service.BatchConfirm(ctx, ids, actor), nil
	})
	return summary
}

func (a *auditedService) BatchCancel(ctx context.Context, ids []uuid.UUID, reason string, actor string) types.BatchSummary {
	input := map[string]any{"ids": ids, "reason": reason}
	summary, _ := audit.Call(ctx, a.logg, "reservation.batch_cancel", actor, input, func() (types.BatchSummary, error) {
		return a.Service.BatchCancel(ctx, ids, reason, actor), nil
	})
	return summary
}

func (a *auditedService) Delete(ctx context.Context, id uuid.UUID, actor string) error {
	return audit.Do(ctx, a.logg, "reservation.delete", actor, id, func() error {
		return a.Service.Delete(ctx, id, actor)
	})
}
