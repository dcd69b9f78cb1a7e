// Package rooms is the room ledger: it owns each room's current status and
// refuses transitions that contradict a stay in progress.
package rooms

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/innkeeper-backend/internal/availability"
	"github.com/angelmondragon/innkeeper-backend/pkg/calendar"
	"github.com/angelmondragon/innkeeper-backend/pkg/db"
	"github.com/angelmondragon/innkeeper-backend/pkg/db/models"
	"github.com/angelmondragon/innkeeper-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/innkeeper-backend/pkg/errors"
	"github.com/angelmondragon/innkeeper-backend/pkg/logger"
	"github.com/angelmondragon/innkeeper-backend/pkg/metrics"
	"github.com/angelmondragon/innkeeper-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// CleaningHook runs the standard consumption deduction once a room is back in
// service. It is invoked after the status change committed.
type CleaningHook interface {
	ConsumeForRoomCleaning(ctx context.Context, roomID uuid.UUID, roomNumber string, actor string) (types.BatchSummary, error)
}

type Service interface {
	CreateRoom(ctx context.Context, input CreateRoomInput, actor string) (*models.Room, error)
	GetRoom(ctx context.Context, id uuid.UUID) (*models.Room, error)
	FindByNumber(ctx context.Context, number string) (*models.Room, error)
	ListRooms(ctx context.Context, filter ListFilter) ([]models.Room, error)
	UpdateStatus(ctx context.Context, input UpdateStatusInput, actor string) (*StatusResult, error)
	BatchUpdateStatus(ctx context.Context, items []UpdateStatusInput, actor string) types.BatchSummary
	CompleteCleaning(ctx context.Context, roomID uuid.UUID, actor string) (*StatusResult, error)
	SetActive(ctx context.Context, roomID uuid.UUID, active bool, expectedVersion *int64, actor string) (*models.Room, error)
	ListAvailableForRange(ctx context.Context, query RangeQuery) ([]models.Room, error)
}

type CreateRoomInput struct {
	RoomNumber  string
	RoomType    string
	Price       decimal.Decimal
	Capacity    int
	Floor       *int
	Description *string
}

// UpdateStatusInput requests a status change. A nil ExpectedVersion swaps
// against the version read inside the transaction.
type UpdateStatusInput struct {
	RoomID          uuid.UUID
	Status          enums.RoomStatus
	ExpectedVersion *int64
}

// StatusResult carries the updated room and, when the room went back to
// AVAILABLE, the per-item outcome of the cleaning deduction.
type StatusResult struct {
	Room     models.Room         `json:"room"`
	Cleaning *types.BatchSummary `json:"cleaning,omitempty"`
}

// RangeQuery looks for rooms free over [CheckIn, CheckOut).
type RangeQuery struct {
	CheckIn              time.Time
	CheckOut             time.Time
	RoomType             string
	ExcludeReservationID *uuid.UUID
}

type ServiceParams struct {
	Repo         Repository
	Tx           txRunner
	Availability availability.Checker
	Cleaning     CleaningHook
	Metrics      *metrics.DomainMetrics
	Logger       *logger.Logger
	Location     *time.Location
	Now          func() time.Time
}

type service struct {
	repo     Repository
	tx       txRunner
	checker  availability.Checker
	cleaning CleaningHook
	metrics  *metrics.DomainMetrics
	logg     *logger.Logger
	loc      *time.Location
	now      func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("room repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Availability == nil {
		return nil, fmt.Errorf("availability checker required")
	}
	svc := &service{
		repo:     params.Repo,
		tx:       params.Tx,
		checker:  params.Availability,
		cleaning: params.Cleaning,
		metrics:  params.Metrics,
		logg:     params.Logger,
		loc:      params.Location,
		now:      params.Now,
	}
	if svc.loc == nil {
		svc.loc = time.UTC
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	return svc, nil
}

func (s *service) CreateRoom(ctx context.Context, input CreateRoomInput, actor string) (*models.Room, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	number := strings.TrimSpace(input.RoomNumber)
	roomType := strings.TrimSpace(input.RoomType)
	switch {
	case number == "":
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "room number is required")
	case roomType == "":
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "room type is required")
	case !input.Price.IsPositive():
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be greater than zero")
	case input.Capacity < 1:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "capacity must be at least 1")
	}

	room := &models.Room{
		RoomNumber:  number,
		RoomType:    roomType,
		Price:       input.Price.Round(2),
		Capacity:    input.Capacity,
		Floor:       input.Floor,
		Description: input.Description,
		Status:      enums.RoomStatusAvailable,
		IsActive:    true,
	}
	if err := s.repo.Create(ctx, room); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "room number already exists").
				WithDetails(map[string]any{"room_number": number})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create room")
	}
	return room, nil
}

func (s *service) GetRoom(ctx context.Context, id uuid.UUID) (*models.Room, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "room id is required")
	}
	room, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLookupErr(err)
	}
	return room, nil
}

func (s *service) FindByNumber(ctx context.Context, number string) (*models.Room, error) {
	if strings.TrimSpace(number) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "room number is required")
	}
	room, err := s.repo.FindByNumber(ctx, strings.TrimSpace(number))
	if err != nil {
		return nil, mapLookupErr(err)
	}
	return room, nil
}

func (s *service) ListRooms(ctx context.Context, filter ListFilter) ([]models.Room, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid room status %q", filter.Status))
	}
	rooms, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list rooms")
	}
	return rooms, nil
}

func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput, actor string) (*StatusResult, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if input.RoomID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "room id is required")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid room status %q", input.Status))
	}

	var updated *models.Room
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		room, err := repo.FindByIDForUpdate(ctx, input.RoomID)
		if err != nil {
			return mapLookupErr(err)
		}
		if err := s.guardTransition(ctx, repo, room, input.Status); err != nil {
			return err
		}
		updated, err = s.swap(ctx, repo, room, input.ExpectedVersion, map[string]any{"status": input.Status})
		return err
	})
	if err != nil {
		return nil, err
	}

	result := &StatusResult{Room: *updated}
	if input.Status == enums.RoomStatusAvailable {
		result.Cleaning = s.runCleaning(ctx, updated, actor)
	}
	return result, nil
}

// guardTransition keeps room status consistent with a stay in progress.
func (s *service) guardTransition(ctx context.Context, repo Repository, room *models.Room, target enums.RoomStatus) error {
	if room.Status == target {
		return pkgerrors.StateConflict(room.ID.String(), string(room.Status), "set status "+string(target))
	}
	if room.Status != enums.RoomStatusOccupied && target != enums.RoomStatusOccupied {
		return nil
	}
	occupied, err := repo.HasActiveStay(ctx, room.ID, calendar.Today(s.now(), s.loc))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check active stay")
	}
	if room.Status == enums.RoomStatusOccupied && occupied {
		return pkgerrors.StateConflict(room.ID.String(), string(room.Status), "set status "+string(target)+" during a checked-in stay")
	}
	if target == enums.RoomStatusOccupied && !occupied {
		return pkgerrors.StateConflict(room.ID.String(), string(room.Status), "set status OCCUPIED without a checked-in stay")
	}
	return nil
}

// swap writes updates with a version compare-and-swap and returns the fresh row.
func (s *service) swap(ctx context.Context, repo Repository, room *models.Room, expected *int64, updates map[string]any) (*models.Room, error) {
	version := room.Version
	if expected != nil {
		version = *expected
	}
	if version != room.Version {
		s.metrics.IncVersionConflict("room")
		return nil, versionConflict(room, version)
	}
	ok, err := repo.CompareAndSwap(ctx, room.ID, version, updates)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update room")
	}
	if !ok {
		s.metrics.IncVersionConflict("room")
		return nil, versionConflict(room, version)
	}
	fresh, err := repo.FindByID(ctx, room.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload room")
	}
	return fresh, nil
}

func (s *service) runCleaning(ctx context.Context, room *models.Room, actor string) *types.BatchSummary {
	if s.cleaning == nil {
		return nil
	}
	summary, err := s.cleaning.ConsumeForRoomCleaning(ctx, room.ID, room.RoomNumber, actor)
	if err != nil && s.logg != nil {
		logCtx := s.logg.WithRoomID(ctx, room.ID.String())
		s.logg.Error(logCtx, "room cleaning consumption incomplete", err)
	}
	return &summary
}

func (s *service) BatchUpdateStatus(ctx context.Context, items []UpdateStatusInput, actor string) types.BatchSummary {
	var summary types.BatchSummary
	for _, item := range items {
		if _, err := s.UpdateStatus(ctx, item, actor); err != nil {
			summary.Failed(item.RoomID.String(), string(pkgerrors.As(err).Code()), err)
			continue
		}
		summary.Succeeded()
	}
	return summary
}

func (s *service) CompleteCleaning(ctx context.Context, roomID uuid.UUID, actor string) (*StatusResult, error) {
	room, err := s.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.Status != enums.RoomStatusCleaning {
		return nil, pkgerrors.StateConflict(roomID.String(), string(room.Status), "complete cleaning")
	}
	version := room.Version
	return s.UpdateStatus(ctx, UpdateStatusInput{
		RoomID:          roomID,
		Status:          enums.RoomStatusAvailable,
		ExpectedVersion: &version,
	}, actor)
}

func (s *service) SetActive(ctx context.Context, roomID uuid.UUID, active bool, expectedVersion *int64, actor string) (*models.Room, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	var updated *models.Room
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		room, err := repo.FindByIDForUpdate(ctx, roomID)
		if err != nil {
			return mapLookupErr(err)
		}
		updated, err = s.swap(ctx, repo, room, expectedVersion, map[string]any{"is_active": active})
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) ListAvailableForRange(ctx context.Context, query RangeQuery) ([]models.Room, error) {
	checkIn, checkOut := calendar.Date(query.CheckIn), calendar.Date(query.CheckOut)
	if err := calendar.ValidateRange(checkIn, checkOut); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid date range")
	}
	candidates, err := s.repo.List(ctx, ListFilter{RoomType: strings.TrimSpace(query.RoomType), ActiveOnly: true})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list rooms")
	}
	blocked, err := s.checker.BlockedRoomIDs(ctx, checkIn, checkOut, query.ExcludeReservationID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check availability")
	}
	free := make([]models.Room, 0, len(candidates))
	for _, room := range candidates {
		if _, taken := blocked[room.ID]; taken {
			continue
		}
		free = append(free, room)
	}
	return free, nil
}

func versionConflict(room *models.Room, expected int64) error {
	return pkgerrors.New(pkgerrors.CodeVersionConflict, "room was modified concurrently").
		WithDetails(map[string]any{
			"room_id":          room.ID.String(),
			"expected_version": expected,
			"current_version":  room.Version,
		})
}

func requireActor(actor string) error {
	if strings.TrimSpace(actor) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "actor is required")
	}
	return nil
}

func mapLookupErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "room not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup room")
}
