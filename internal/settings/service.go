// Package settings is the configuration store: keyed string settings that
// staff change at runtime and the billing rules read on every call.
package settings

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/innkeeper-backend/internal/billing"
	"github.com/angelmondragon/innkeeper-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/innkeeper-backend/pkg/errors"
)

type Service interface {
	Lookup(ctx context.Context, key string) (string, bool, error)
	All(ctx context.Context) ([]models.SystemSetting, error)
	Set(ctx context.Context, key, value, actor string, description *string) (*models.SystemSetting, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("settings repository required")
	}
	return &service{repo: repo}, nil
}

// Lookup satisfies billing.SettingsSource.
func (s *service) Lookup(ctx context.Context, key string) (string, bool, error) {
	row, err := s.repo.Find(ctx, key)
	if err != nil {
		return "", false, err
	}
	if row == nil {
		return "", false, nil
	}
	return row.Value, true, nil
}

func (s *service) All(ctx context.Context) ([]models.SystemSetting, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list settings")
	}
	return rows, nil
}

func (s *service) Set(ctx context.Context, key, value, actor string, description *string) (*models.SystemSetting, error) {
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor is required")
	}
	if key == "" || value == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "key and value are required")
	}
	if err := billing.ValidateSetting(key, value); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid setting value").
			WithDetails(map[string]string{"key": key, "reason": err.Error()})
	}

	row := &models.SystemSetting{
		Key:         key,
		Value:       value,
		Description: description,
		UpdatedBy:   &actor,
	}
	if err := s.repo.Upsert(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save setting")
	}
	return row, nil
}
