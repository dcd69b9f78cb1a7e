package reservations

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/innkeeper-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/innkeeper-backend/pkg/errors"
	"github.com/angelmondragon/innkeeper-backend/pkg/types"
)

// BatchConfirm confirms each reservation in its own transaction. One failure
// never rolls back the others.
func (s *service) BatchConfirm(ctx context.Context, ids []uuid.UUID, actor string) types.BatchSummary {
	var summary types.BatchSummary
	for _, id := range ids {
		if _, err := s.Confirm(ctx, id, actor); err != nil {
			summary.Failed(id.String(), string(pkgerrors.As(err).Code()), err)
			continue
		}
		summary.Succeeded()
	}
	return summary
}

func (s *service) BatchCancel(ctx context.Context, ids []uuid.UUID, reason string, actor string) types.BatchSummary {
	var summary types.BatchSummary
	for _, id := range ids {
		if _, err := s.Cancel(ctx, CancelInput{ReservationID: id, Reason: reason}, actor); err != nil {
			summary.Failed(id.String(), string(pkgerrors.As(err).Code()), err)
			continue
		}
		summary.Succeeded()
	}
	return summary
}

// Delete purges a finished reservation. Live reservations must be cancelled first.
func (s *service) Delete(ctx context.Context, id uuid.UUID, actor string) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		res, err := s.lock(ctx, tx, id, "delete", enums.ReservationStatusCancelled, enums.ReservationStatusCheckedOut)
		if err != nil {
			return err
		}
		old := string(res.Status)
		desc := "reservation " + res.ReservationNumber + " deleted"
		if err := s.record(ctx, tx, res.ID, enums.HistoryDeleted, &old, nil, desc, actor); err != nil {
			return err
		}
		if err := s.repo.WithTx(tx).Delete(ctx, res.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete reservation")
		}
		if s.logg != nil {
			logCtx := s.logg.WithReservationID(ctx, res.ID.String())
			s.logg.Info(s.logg.WithActor(logCtx, actor), "reservation "+res.ReservationNumber+" deleted")
		}
		return nil
	})
}
