// Package guests is the guest directory boundary: reservations and waitlist
// entries only ever hold a guest id and look contact details up explicitly.
package guests

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/innkeeper-backend/pkg/db"
	"github.com/angelmondragon/innkeeper-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/innkeeper-backend/pkg/errors"
)

// Directory is what the rest of the core needs from guests.
type Directory interface {
	FindGuestByID(ctx context.Context, id uuid.UUID) (*models.Guest, error)
	FindGuestByEmail(ctx context.Context, email string) (*models.Guest, error)
}

type Service interface {
	Directory
	Create(ctx context.Context, input CreateInput) (*models.Guest, error)
}

type CreateInput struct {
	FullName string
	Email    *string
	Phone    *string
}

type service struct {
	repo Repository
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("guest repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) FindGuestByID(ctx context.Context, id uuid.UUID) (*models.Guest, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "guest id is required")
	}
	guest, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLookupErr(err, "guest not found")
	}
	return guest, nil
}

func (s *service) FindGuestByEmail(ctx context.Context, email string) (*models.Guest, error) {
	if strings.TrimSpace(email) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	guest, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, mapLookupErr(err, "guest not found")
	}
	return guest, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Guest, error) {
	name := strings.TrimSpace(input.FullName)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "full name is required")
	}
	guest := &models.Guest{FullName: name, Email: input.Email, Phone: input.Phone}
	if err := s.repo.Create(ctx, guest); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "guest email already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create guest")
	}
	return guest, nil
}

func mapLookupErr(err error, notFound string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFound)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup guest")
}
