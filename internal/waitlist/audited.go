package waitlist

import (
	"context"

	"github.com/google/uuid"

	"github.com/angelmondragon/innkeeper-backend/internal/audit"
	"github.com/angelmondragon/innkeeper-backend/pkg/db/models"
	"github.com/angelmondragon/innkeeper-backend/pkg/logger"
)

type auditedService struct {
	Service
	logg *logger.Logger
}

func NewAuditedService(next Service, logg *logger.Logger) Service {
	return &auditedService{Service: next, logg: logg}
}

func (a *auditedService) Add(ctx context.Context, input AddInput, actor string) (*models.WaitlistEntry, error) {
	return audit.Call(ctx, a.logg, "waitlist.add", actor, input, func() (*models.WaitlistEntry, error) {
		return a.Service.Add(ctx, input, actor)
	})
}

func (a *auditedService) Notify(ctx context.Context, id uuid.UUID, actor string) (*models.WaitlistEntry, error) {
	return audit.Call(ctx, a.logg, "waitlist.notify", actor, id, func() (*models.WaitlistEntry, error) {
		return a.Service.Notify(ctx, id, actor)
	})
}

func (a *auditedService) Convert(ctx context.Context, id, roomID uuid.UUID, actor string) (*ConvertResult, error) {
	input := map[string]uuid.UUID{"waitlist_id": id, "room_id": roomID}
	return audit.Call(ctx, a.logg, "waitlist.convert", actor, input, func() (*ConvertResult, error) {
		return a.Service.Convert(ctx, id, roomID, actor)
	})
}

func (a *auditedService) Cancel(ctx context.Context, id uuid.UUID, actor string) (*models.WaitlistEntry, error) {
	return audit.Call(ctx, a.logg, "waitlist.cancel", actor, id, func() (*models.WaitlistEntry, error) {
		return a.Service.Cancel(ctx, id, actor)
	})
}

func (a *auditedService) CheckAndNotifyAvailableRooms(ctx context.Context, filter SweepFilter, actor string) (*SweepResult, error) {
	return audit.Call(ctx, a.logg, "waitlist.sweep", actor, filter, func() (*SweepResult, error) {
		return a.Service.CheckAndNotifyAvailableRooms(ctx, filter, actor)
	})
}
