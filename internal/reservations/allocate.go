package reservations

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/innkeeper-backend/internal/rooms"
	"github.com/angelmondragon/innkeeper-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/innkeeper-backend/pkg/errors"
)

type allocation struct {
	roomID   *uuid.UUID
	roomType *string
	checkIn  time.Time
	checkOut time.Time
	guests   int
	exclude  *uuid.UUID
}

// allocate picks and locks the room for a stay. An explicit room must be free
// for the range; a room type resolves to the lowest-numbered free active room
// that holds the party.
func (s *service) allocate(ctx context.Context, tx *gorm.DB, req allocation) (*models.Room, error) {
	roomRepo := s.rooms.WithTx(tx)
	checker := s.checker.WithTx(tx)

	var room *models.Room
	if req.roomID != nil && *req.roomID != uuid.Nil {
		locked, err := roomRepo.FindByIDForUpdate(ctx, *req.roomID)
		if err != nil {
			return nil, mapRoomErr(err)
		}
		if !locked.IsActive {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("room %s is not active", locked.RoomNumber))
		}
		conflict, err := checker.HasConflict(ctx, locked.ID, req.checkIn, req.checkOut, req.exclude)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check room availability")
		}
		if conflict {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("room %s is already booked for the requested dates", locked.RoomNumber)).
				WithDetails(map[string]any{"room_id": locked.ID.String(), "room_number": locked.RoomNumber})
		}
		room = locked
	} else {
		roomType := ""
		if req.roomType != nil {
			roomType = strings.TrimSpace(*req.roomType)
		}
		candidates, err := roomRepo.List(ctx, rooms.ListFilter{RoomType: roomType, ActiveOnly: true})
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list rooms")
		}
		blocked, err := checker.BlockedRoomIDs(ctx, req.checkIn, req.checkOut, req.exclude)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check room availability")
		}
		for i := range candidates {
			if _, taken := blocked[candidates[i].ID]; taken {
				continue
			}
			if candidates[i].Capacity < req.guests {
				continue
			}
			locked, err := roomRepo.FindByIDForUpdate(ctx, candidates[i].ID)
			if err != nil {
				return nil, mapRoomErr(err)
			}
			// The blocked set was read before the lock; a stay committed in
			// between moves allocation on to the next candidate.
			conflict, err := checker.HasConflict(ctx, locked.ID, req.checkIn, req.checkOut, req.exclude)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check room availability")
			}
			if conflict || !locked.IsActive {
				continue
			}
			room = locked
			break
		}
		if room == nil {
			return nil, pkgerrors.New(pkgerrors.CodeNoAvailability, fmt.Sprintf("no %s room available for the requested dates", roomType)).
				WithDetails(map[string]any{"room_type": roomType})
		}
	}

	if req.guests > room.Capacity {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("room %s holds at most %d guests", room.RoomNumber, room.Capacity))
	}
	return room, nil
}

// claimRoom bumps the room version so a concurrent allocation that read the
// same row fails its own swap.
func (s *service) claimRoom(ctx context.Context, tx *gorm.DB, room *models.Room) error {
	return s.swapRoom(ctx, tx, room, map[string]any{})
}

// swapRoom applies updates to the room with a version compare-and-swap.
func (s *service) swapRoom(ctx context.Context, tx *gorm.DB, room *models.Room, updates map[string]any) error {
	ok, err := s.rooms.WithTx(tx).CompareAndSwap(ctx, room.ID, room.Version, updates)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update room")
	}
	if !ok {
		s.metrics.IncVersionConflict("room")
		return pkgerrors.New(pkgerrors.CodeVersionConflict, "room was modified concurrently").
			WithDetails(map[string]any{"room_id": room.ID.String(), "expected_version": room.Version})
	}
	room.Version++
	return nil
}

func mapRoomErr(err error) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "room not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup room")
}
