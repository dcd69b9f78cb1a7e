package guests

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/innkeeper-backend/pkg/db/dbtest"
	"github.com/angelmondragon/innkeeper-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/innkeeper-backend/pkg/errors"
)

func TestDirectoryLookups(t *testing.T) {
	db := dbtest.Open(t, &models.Guest{})
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)
	ctx := context.Background()

	email := "Ada@Example.com"
	created, err := svc.Create(ctx, CreateInput{FullName: "Ada Lovelace", Email: &email})
	require.NoError(t, err)

	byID, err := svc.FindGuestByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", byID.FullName)

	byEmail, err := svc.FindGuestByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	_, err = svc.FindGuestByID(ctx, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = svc.Create(ctx, CreateInput{FullName: "Impostor", Email: &email})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	_, err = svc.Create(ctx, CreateInput{FullName: "  "})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
