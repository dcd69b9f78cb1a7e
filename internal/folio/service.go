// Package folio records point-of-sale charges against an in-house stay.
package folio

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/innkeeper-backend/pkg/db/models"
	"github.com/angelmondragon/innkeeper-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/innkeeper-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type Service interface {
	PostCharge(ctx context.Context, input ChargeInput, actor string) (*models.FolioCharge, error)
	ListCharges(ctx context.Context, reservationID uuid.UUID) ([]models.FolioCharge, error)
	// OpenTotal sums posted charges. A nil tx reads outside any transaction.
	OpenTotal(ctx context.Context, tx *gorm.DB, reservationID uuid.UUID) (decimal.Decimal, error)
}

type ChargeInput struct {
	ReservationID uuid.UUID
	ItemName      string
	Category      string
	Quantity      int
	UnitPrice     decimal.Decimal
	Description   *string
}

type service struct {
	repo Repository
	tx   txRunner
}

func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("folio repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) PostCharge(ctx context.Context, input ChargeInput, actor string) (*models.FolioCharge, error) {
	if strings.TrimSpace(actor) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor is required")
	}
	switch {
	case input.ReservationID == uuid.Nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reservation id is required")
	case strings.TrimSpace(input.ItemName) == "":
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item name is required")
	case input.Quantity < 1:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	case input.UnitPrice.IsNegative():
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit price must not be negative")
	}

	category := strings.TrimSpace(input.Category)
	if category == "" {
		category = "misc"
	}
	charge := &models.FolioCharge{
		ReservationID: input.ReservationID,
		ItemName:      strings.TrimSpace(input.ItemName),
		Category:      category,
		Quantity:      input.Quantity,
		UnitPrice:     input.UnitPrice.Round(2),
		TotalAmount:   input.UnitPrice.Mul(decimal.NewFromInt(int64(input.Quantity))).Round(2),
		Description:   input.Description,
		CreatedBy:     actor,
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		res, err := repo.LockReservation(ctx, input.ReservationID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "reservation not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup reservation")
		}
		if res.Status != enums.ReservationStatusCheckedIn {
			return pkgerrors.StateConflict(res.ID.String(), string(res.Status), "post charge")
		}
		if err := repo.Create(ctx, charge); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create folio charge")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return charge, nil
}

func (s *service) ListCharges(ctx context.Context, reservationID uuid.UUID) ([]models.FolioCharge, error) {
	if reservationID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reservation id is required")
	}
	rows, err := s.repo.ListByReservation(ctx, reservationID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list folio charges")
	}
	return rows, nil
}

func (s *service) OpenTotal(ctx context.Context, tx *gorm.DB, reservationID uuid.UUID) (decimal.Decimal, error) {
	rows, err := s.repo.WithTx(tx).ListByReservation(ctx, reservationID)
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum folio charges")
	}
	total := decimal.Zero
	for _, row := range rows {
		total = total.Add(row.TotalAmount)
	}
	return total.Round(2), nil
}
