package reservations

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/innkeeper-backend/internal/billing"
	"github.com/angelmondragon/innkeeper-backend/internal/payments"
	"github.com/angelmondragon/innkeeper-backend/pkg/calendar"
	"github.com/angelmondragon/innkeeper-backend/pkg/db/models"
	"github.com/angelmondragon/innkeeper-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/innkeeper-backend/pkg/errors"
)

func (s *service) Confirm(ctx context.Context, id uuid.UUID, actor string) (*models.Reservation, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	var confirmed *models.Reservation
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		res, err := s.lock(ctx, tx, id, "confirm", enums.ReservationStatusPending)
		if err != nil {
			return err
		}
		confirmed, err = s.transition(ctx, tx, res, enums.ReservationStatusConfirmed, nil, enums.HistoryConfirmed, "reservation confirmed", enums.EventReservationConfirmed, actor)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncTransition("confirm")
	return confirmed, nil
}

func (s *service) CheckIn(ctx context.Context, input CheckInInput, actor string) (*models.Reservation, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if input.CollectAmount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "collected amount cannot be negative")
	}
	policy, err := s.policy(ctx)
	if err != nil {
		return nil, err
	}

	var checkedIn *models.Reservation
	err = pkgerrors.RetryOnVersionConflict(s.retries, func() error {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			var err error
			checkedIn, err = s.checkInTx(ctx, tx, policy, input, actor)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncTransition("check_in")
	return checkedIn, nil
}

func (s *service) checkInTx(ctx context.Context, tx *gorm.DB, policy billing.Policy, input CheckInInput, actor string) (*models.Reservation, error) {
	res, err := s.lock(ctx, tx, input.ReservationID, "check in", enums.ReservationStatusPending, enums.ReservationStatusConfirmed)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if !policy.CheckInAllowed(res.CheckInDate, now, s.loc) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("check-in date %s is beyond the %d day early arrival window", calendar.Format(res.CheckInDate), policy.CheckInGraceDays))
	}
	if res.RoomID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reservation has no room assigned")
	}

	room, err := s.rooms.WithTx(tx).FindByIDForUpdate(ctx, *res.RoomID)
	if err != nil {
		return nil, mapRoomErr(err)
	}
	if room.Status != enums.RoomStatusAvailable && room.Status != enums.RoomStatusReserved {
		return nil, pkgerrors.StateConflict(room.ID.String(), string(room.Status), "check in to room "+room.RoomNumber)
	}
	conflict, err := s.checker.WithTx(tx).HasConflict(ctx, room.ID, res.CheckInDate, res.CheckOutDate, &res.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check room availability")
	}
	if conflict {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("room %s is no longer free for this stay", room.RoomNumber))
	}
	if err := s.swapRoom(ctx, tx, room, map[string]any{"status": enums.RoomStatusOccupied}); err != nil {
		return nil, err
	}

	if input.CollectAmount.IsPositive() {
		if err := s.collect(ctx, tx, res.ID, input.CollectAmount, input.Method, "collected at check-in", actor); err != nil {
			return nil, err
		}
	}
	at := now.UTC()
	return s.transition(ctx, tx, res, enums.ReservationStatusCheckedIn, map[string]any{"checked_in_at": at},
		enums.HistoryCheckedIn, fmt.Sprintf("checked in to room %s", room.RoomNumber), enums.EventReservationCheckedIn, actor)
}

// QuickCheckIn books and checks in a walk-in guest in one transaction.
func (s *service) QuickCheckIn(ctx context.Context, input QuickCheckInInput, actor string) (*models.Reservation, error) {
	if err := validateCreate(input.Booking, actor); err != nil {
		return nil, err
	}
	if input.CollectAmount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "collected amount cannot be negative")
	}
	if _, err := s.guests.FindGuestByID(ctx, input.Booking.GuestID); err != nil {
		return nil, err
	}
	policy, err := s.policy(ctx)
	if err != nil {
		return nil, err
	}

	var checkedIn *models.Reservation
	err = pkgerrors.RetryOnVersionConflict(s.retries, func() error {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			created, err := s.createInTx(ctx, tx, input.Booking, actor)
			if err != nil {
				return err
			}
			checkedIn, err = s.checkInTx(ctx, tx, policy, CheckInInput{
				ReservationID: created.ID,
				CollectAmount: input.CollectAmount,
				Method:        input.Method,
			}, actor)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncTransition("create")
	s.metrics.IncTransition("check_in")
	return checkedIn, nil
}

func (s *service) Modify(ctx context.Context, input ModifyInput, actor string) (*models.Reservation, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if input.CheckInDate == nil && input.CheckOutDate == nil && input.RoomID == nil && input.RoomType == nil && input.NumberOfGuests == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "nothing to modify")
	}
	if input.NumberOfGuests != nil && *input.NumberOfGuests < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "number of guests must be at least 1")
	}

	var modified *models.Reservation
	err := pkgerrors.RetryOnVersionConflict(s.retries, func() error {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			var err error
			modified, err = s.modifyTx(ctx, tx, input, actor)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncTransition("modify")
	return modified, nil
}

func (s *service) modifyTx(ctx context.Context, tx *gorm.DB, input ModifyInput, actor string) (*models.Reservation, error) {
	res, err := s.lock(ctx, tx, input.ReservationID, "modify", enums.ReservationStatusPending, enums.ReservationStatusConfirmed)
	if err != nil {
		return nil, err
	}
	checkIn, checkOut := res.CheckInDate, res.CheckOutDate
	if input.CheckInDate != nil {
		checkIn = calendar.Date(*input.CheckInDate)
	}
	if input.CheckOutDate != nil {
		checkOut = calendar.Date(*input.CheckOutDate)
	}
	if err := calendar.ValidateRange(checkIn, checkOut); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}
	guests := res.NumberOfGuests
	if input.NumberOfGuests != nil {
		guests = *input.NumberOfGuests
	}

	req := allocation{checkIn: checkIn, checkOut: checkOut, guests: guests, exclude: &res.ID}
	roomType := res.PreferredRoomType
	switch {
	case input.RoomID != nil:
		req.roomID = input.RoomID
	case input.RoomType != nil:
		req.roomType = input.RoomType
		roomType = input.RoomType
	default:
		req.roomID = res.RoomID
		if req.roomID == nil {
			req.roomType = res.PreferredRoomType
		}
	}
	room, err := s.allocate(ctx, tx, req)
	if err != nil {
		return nil, err
	}
	if err := s.claimRoom(ctx, tx, room); err != nil {
		return nil, err
	}

	oldValue := describeStay(res.RoomID, res.CheckInDate, res.CheckOutDate, res.TotalAmount)
	total := billing.StayTotal(room.Price, checkIn, checkOut)
	roomID := room.ID
	updates := map[string]any{
		"room_id":             roomID,
		"preferred_room_type": roomType,
		"check_in_date":       checkIn,
		"check_out_date":      checkOut,
		"number_of_guests":    guests,
		"total_amount":        total,
	}
	if err := s.repo.WithTx(tx).Update(ctx, res.ID, updates); err != nil {
		return nil, mapStayWriteErr(err, room, "update reservation")
	}
	newValue := describeStay(&roomID, checkIn, checkOut, total)
	if err := s.record(ctx, tx, res.ID, enums.HistoryModified, &oldValue, &newValue, "reservation modified to room "+room.RoomNumber, actor); err != nil {
		return nil, err
	}
	fresh, err := s.reload(ctx, tx, res.ID)
	if err != nil {
		return nil, err
	}
	if err := s.emit(ctx, tx, enums.EventReservationModified, fresh, actor); err != nil {
		return nil, err
	}
	return fresh, nil
}

func (s *service) Inspect(ctx context.Context, input InspectInput, actor string) (*models.RoomCheckInspection, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	var inspection *models.RoomCheckInspection
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		res, err := s.lock(ctx, tx, input.ReservationID, "inspect", enums.ReservationStatusCheckedIn)
		if err != nil {
			return err
		}
		if res.RoomID == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "reservation has no room assigned")
		}
		inspection = &models.RoomCheckInspection{
			ReservationID:     res.ID,
			RoomID:            *res.RoomID,
			FacilitiesOK:      input.FacilitiesOK,
			HasDamage:         input.HasDamage,
			DamageDescription: input.DamageDescription,
			ItemsLeftBehind:   input.ItemsLeftBehind,
			ItemsDescription:  input.ItemsDescription,
			Notes:             input.Notes,
			Inspector:         actor,
			InspectedAt:       s.now().UTC(),
		}
		if err := s.repo.WithTx(tx).CreateInspection(ctx, inspection); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record inspection")
		}
		desc := "room inspected"
		if inspection.Advisory() {
			desc = "room inspected with findings"
		}
		return s.record(ctx, tx, res.ID, enums.HistoryInspected, nil, nil, desc, actor)
	})
	if err != nil {
		return nil, err
	}
	return inspection, nil
}

func (s *service) CheckOut(ctx context.Context, input CheckOutInput, actor string) (*CheckOutResult, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if input.ExtraCharges.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "extra charges cannot be negative")
	}
	if input.CollectAmount != nil && input.CollectAmount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "collected amount cannot be negative")
	}

	var result *CheckOutResult
	err := pkgerrors.RetryOnVersionConflict(s.retries, func() error {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			var err error
			result, err = s.checkOutTx(ctx, tx, input, actor)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncTransition("check_out")
	return result, nil
}

func (s *service) checkOutTx(ctx context.Context, tx *gorm.DB, input CheckOutInput, actor string) (*CheckOutResult, error) {
	res, err := s.lock(ctx, tx, input.ReservationID, "check out", enums.ReservationStatusCheckedIn)
	if err != nil {
		return nil, err
	}
	bill, err := s.bill(ctx, tx, res, input.ExtraCharges)
	if err != nil {
		return nil, err
	}

	collect := bill.Settlement.BalanceDue
	if input.CollectAmount != nil {
		collect = billing.Round(*input.CollectAmount)
	}
	if collect.IsPositive() {
		if err := s.collect(ctx, tx, res.ID, collect, input.Method, "collected at check-out", actor); err != nil {
			return nil, err
		}
	}

	if res.RoomID != nil {
		room, err := s.rooms.WithTx(tx).FindByIDForUpdate(ctx, *res.RoomID)
		if err != nil {
			return nil, mapRoomErr(err)
		}
		if err := s.swapRoom(ctx, tx, room, map[string]any{"status": enums.RoomStatusCleaning}); err != nil {
			return nil, err
		}
	}

	at := s.now().UTC()
	desc := fmt.Sprintf("checked out, balance %s, refund due %s", bill.Settlement.BalanceDue.StringFixed(2), bill.Settlement.RefundDue.StringFixed(2))
	out, err := s.transition(ctx, tx, res, enums.ReservationStatusCheckedOut, map[string]any{"checked_out_at": at},
		enums.HistoryCheckedOut, desc, enums.EventReservationCheckedOut, actor)
	if err != nil {
		return nil, err
	}
	return &CheckOutResult{Reservation: *out, Bill: *bill, Collected: collect}, nil
}

// CheckOutBill previews the settlement without changing anything.
func (s *service) CheckOutBill(ctx context.Context, id uuid.UUID, extraCharges decimal.Decimal) (*Bill, error) {
	if extraCharges.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "extra charges cannot be negative")
	}
	res, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.Status != enums.ReservationStatusCheckedIn {
		return nil, pkgerrors.StateConflict(res.ID.String(), string(res.Status), "bill")
	}
	return s.bill(ctx, nil, res, extraCharges)
}

func (s *service) bill(ctx context.Context, tx *gorm.DB, res *models.Reservation, extraCharges decimal.Decimal) (*Bill, error) {
	folioTotal, err := s.folio.OpenTotal(ctx, tx, res.ID)
	if err != nil {
		return nil, err
	}
	paid, err := s.payments.PaidTotal(ctx, tx, res.ID)
	if err != nil {
		return nil, err
	}
	inspection, err := s.repo.WithTx(tx).LatestInspection(ctx, res.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inspection")
	}
	extras := billing.Round(extraCharges.Add(folioTotal))
	bill := &Bill{
		ReservationID: res.ID,
		Settlement:    billing.Settle(res.TotalAmount, extras, paid),
		FolioTotal:    folioTotal,
		Inspection:    inspection,
	}
	if inspection != nil {
		bill.Advisory = inspection.Advisory()
	}
	return bill, nil
}

func (s *service) Cancel(ctx context.Context, input CancelInput, actor string) (*CancelResult, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	policy, err := s.policy(ctx)
	if err != nil {
		return nil, err
	}

	var result *CancelResult
	err = pkgerrors.RetryOnVersionConflict(s.retries, func() error {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			var err error
			result, err = s.cancelTx(ctx, tx, policy, input, actor)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncTransition("cancel")
	return result, nil
}

func (s *service) cancelTx(ctx context.Context, tx *gorm.DB, policy billing.Policy, input CancelInput, actor string) (*CancelResult, error) {
	res, err := s.lock(ctx, tx, input.ReservationID, "cancel",
		enums.ReservationStatusPending, enums.ReservationStatusConfirmed, enums.ReservationStatusCheckedIn)
	if err != nil {
		return nil, err
	}
	paid, err := s.payments.PaidTotal(ctx, tx, res.ID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	quote := policy.Refund(paid, res.CheckInDate, now, s.loc)
	if quote.Amount.IsPositive() {
		note := fmt.Sprintf("cancellation refund %d%%", quote.Percent)
		if _, err := s.payments.Record(ctx, tx, payments.RecordInput{
			ReservationID: res.ID,
			Amount:        quote.Amount,
			Type:          enums.PaymentTypeRefund,
			Note:          &note,
			Actor:         actor,
		}); err != nil {
			return nil, err
		}
		amount := quote.Amount.StringFixed(2)
		if err := s.record(ctx, tx, res.ID, enums.HistoryRefunded, nil, &amount, note, actor); err != nil {
			return nil, err
		}
		if err := s.syncPaid(ctx, tx, res.ID); err != nil {
			return nil, err
		}
	}

	if err := s.releaseRoom(ctx, tx, res); err != nil {
		return nil, err
	}

	updates := map[string]any{"cancelled_at": now.UTC()}
	desc := "reservation cancelled"
	if input.Reason != "" {
		updates["cancellation_reason"] = input.Reason
		desc = "reservation cancelled: " + input.Reason
	}
	cancelled, err := s.transition(ctx, tx, res, enums.ReservationStatusCancelled, updates, enums.HistoryCancelled, desc, enums.EventReservationCancelled, actor)
	if err != nil {
		return nil, err
	}
	return &CancelResult{Reservation: *cancelled, Refund: quote}, nil
}

// releaseRoom frees the room held by a cancelled reservation. An in-house
// guest leaves the room dirty; a held room goes back to AVAILABLE.
func (s *service) releaseRoom(ctx context.Context, tx *gorm.DB, res *models.Reservation) error {
	if res.RoomID == nil {
		return nil
	}
	room, err := s.rooms.WithTx(tx).FindByIDForUpdate(ctx, *res.RoomID)
	if err != nil {
		return mapRoomErr(err)
	}
	switch {
	case res.Status == enums.ReservationStatusCheckedIn:
		return s.swapRoom(ctx, tx, room, map[string]any{"status": enums.RoomStatusCleaning})
	case room.Status == enums.RoomStatusReserved:
		return s.swapRoom(ctx, tx, room, map[string]any{"status": enums.RoomStatusAvailable})
	}
	return nil
}

// collect posts a desk payment, appends PAID history and refreshes paid_amount.
func (s *service) collect(ctx context.Context, tx *gorm.DB, reservationID uuid.UUID, amount decimal.Decimal, method enums.PaymentMethod, note, actor string) error {
	if _, err := s.payments.Record(ctx, tx, payments.RecordInput{
		ReservationID: reservationID,
		Amount:        amount,
		Type:          enums.PaymentTypePayment,
		Method:        method,
		Note:          &note,
		Actor:         actor,
	}); err != nil {
		return err
	}
	value := amount.StringFixed(2)
	if err := s.record(ctx, tx, reservationID, enums.HistoryPaid, nil, &value, note, actor); err != nil {
		return err
	}
	return s.syncPaid(ctx, tx, reservationID)
}

// syncPaid rewrites the cached paid_amount from the ledger.
func (s *service) syncPaid(ctx context.Context, tx *gorm.DB, reservationID uuid.UUID) error {
	paid, err := s.payments.PaidTotal(ctx, tx, reservationID)
	if err != nil {
		return err
	}
	if err := s.repo.WithTx(tx).Update(ctx, reservationID, map[string]any{"paid_amount": paid}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update paid amount")
	}
	return nil
}

// transition moves res to target, appending history and the outbox event.
func (s *service) transition(ctx context.Context, tx *gorm.DB, res *models.Reservation, target enums.ReservationStatus, extra map[string]any, action enums.HistoryAction, description string, event enums.OutboxEventType, actor string) (*models.Reservation, error) {
	updates := map[string]any{"status": target}
	for k, v := range extra {
		updates[k] = v
	}
	if err := s.repo.WithTx(tx).Update(ctx, res.ID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update reservation status")
	}
	from := string(res.Status)
	if err := s.record(ctx, tx, res.ID, action, &from, strPtr(string(target)), description, actor); err != nil {
		return nil, err
	}
	fresh, err := s.reload(ctx, tx, res.ID)
	if err != nil {
		return nil, err
	}
	if err := s.emit(ctx, tx, event, fresh, actor); err != nil {
		return nil, err
	}
	if s.logg != nil {
		logCtx := s.logg.WithReservationID(ctx, res.ID.String())
		logCtx = s.logg.WithActor(logCtx, actor)
		s.logg.Info(logCtx, fmt.Sprintf("reservation %s %s -> %s", fresh.ReservationNumber, from, target))
	}
	return fresh, nil
}

func describeStay(roomID *uuid.UUID, checkIn, checkOut time.Time, total decimal.Decimal) string {
	room := "unassigned"
	if roomID != nil {
		room = roomID.String()
	}
	return fmt.Sprintf("room=%s check_in=%s check_out=%s total=%s", room, calendar.Format(checkIn), calendar.Format(checkOut), total.StringFixed(2))
}
