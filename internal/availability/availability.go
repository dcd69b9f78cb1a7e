// Package availability decides whether a room is free for a date range.
//
// Ranges are half-open: [checkIn, checkOut). A stay ending on the day another
// begins is a same-day turnover, not a conflict. Only PENDING, CONFIRMED and
// CHECKED_IN reservations occupy a room.
package availability

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/innkeeper-backend/pkg/db/models"
	"github.com/angelmondragon/innkeeper-backend/pkg/enums"
)

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) intersect.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// Checker answers conflict questions against the reservation store.
type Checker interface {
	WithTx(tx *gorm.DB) Checker
	HasConflict(ctx context.Context, roomID uuid.UUID, checkIn, checkOut time.Time, exclude *uuid.UUID) (bool, error)
	Conflicts(ctx context.Context, roomID uuid.UUID, checkIn, checkOut time.Time, exclude *uuid.UUID) ([]models.Reservation, error)
	BlockedRoomIDs(ctx context.Context, checkIn, checkOut time.Time, exclude *uuid.UUID) (map[uuid.UUID]struct{}, error)
}

type checker struct {
	db *gorm.DB
}

// NewChecker returns a Checker reading through db.
func NewChecker(db *gorm.DB) Checker {
	return &checker{db: db}
}

func (c *checker) WithTx(tx *gorm.DB) Checker {
	if tx == nil {
		return c
	}
	return &checker{db: tx}
}

func (c *checker) occupying(ctx context.Context, checkIn, checkOut time.Time, exclude *uuid.UUID) *gorm.DB {
	query := c.db.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("room_id IS NOT NULL").
		Where("status IN ?", enums.OccupyingReservationStatuses).
		Where("check_in_date < ? AND check_out_date > ?", checkOut, checkIn)
	if exclude != nil && *exclude != uuid.Nil {
		query = query.Where("id <> ?", *exclude)
	}
	return query
}

func (c *checker) HasConflict(ctx context.Context, roomID uuid.UUID, checkIn, checkOut time.Time, exclude *uuid.UUID) (bool, error) {
	var count int64
	err := c.occupying(ctx, checkIn, checkOut, exclude).
		Where("room_id = ?", roomID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (c *checker) Conflicts(ctx context.Context, roomID uuid.UUID, checkIn, checkOut time.Time, exclude *uuid.UUID) ([]models.Reservation, error) {
	var rows []models.Reservation
	err := c.occupying(ctx, checkIn, checkOut, exclude).
		Where("room_id = ?", roomID).
		Order("check_in_date ASC").
		Find(&rows).Error
	return rows, err
}

// BlockedRoomIDs returns every room with at least one occupying reservation in the range.
func (c *checker) BlockedRoomIDs(ctx context.Context, checkIn, checkOut time.Time, exclude *uuid.UUID) (map[uuid.UUID]struct{}, error) {
	var ids []uuid.UUID
	if err := c.occupying(ctx, checkIn, checkOut, exclude).Distinct().Pluck("room_id", &ids).Error; err != nil {
		return nil, err
	}
	blocked := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		blocked[id] = struct{}{}
	}
	return blocked, nil
}
