package settings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/innkeeper-backend/internal/billing"
	"github.com/angelmondragon/innkeeper-backend/pkg/db/dbtest"
	"github.com/angelmondragon/innkeeper-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/innkeeper-backend/pkg/errors"
)

func newService(t *testing.T) Service {
	t.Helper()
	db := dbtest.Open(t, &models.SystemSetting{})
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)
	return svc
}

func TestSetThenLookup(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, ok, err := svc.Lookup(ctx, billing.KeyDepositRate)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = svc.Set(ctx, billing.KeyDepositRate, "0.25", "manager", nil)
	require.NoError(t, err)
	_, err = svc.Set(ctx, billing.KeyDepositRate, "0.40", "manager", nil)
	require.NoError(t, err)

	value, ok, err := svc.Lookup(ctx, billing.KeyDepositRate)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "0.40", value)

	all, err := svc.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSetFeedsPolicyResolution(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.Set(ctx, billing.KeyCancellationPolicy, `[{"min_hours_before":24,"refund_percent":100}]`, "manager", nil)
	require.NoError(t, err)

	policy, err := billing.ResolvePolicy(ctx, svc, 0)
	require.NoError(t, err)
	require.Len(t, policy.RefundTiers, 1)
	assert.Equal(t, 100, policy.RefundTiers[0].Percent)
}

func TestSetValidates(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.Set(ctx, billing.KeyCheckInTime, "25:99", "manager", nil)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.Set(ctx, "favourite_colour", "blue", "manager", nil)
	require.Error(t, err)

	_, err = svc.Set(ctx, billing.KeyCheckInTime, "15:00", "", nil)
	require.Error(t, err)
}
