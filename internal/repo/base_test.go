package repo

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/innkeeper-backend/pkg/db/dbtest"
	"github.com/angelmondragon/innkeeper-backend/pkg/db/models"
)

func TestBaseDBBindsContext(t *testing.T) {
	conn := dbtest.Open(t)
	base := NewBase(conn)

	ctx := context.WithValue(context.Background(), struct{}{}, "value")
	withCtx := base.DB(ctx)
	require.NotNil(t, withCtx.Statement)
	assert.Equal(t, ctx, withCtx.Statement.Context)

	assert.Same(t, conn, base.DB(nil))
}

func TestBaseBindKeepsConnectionWithoutTx(t *testing.T) {
	conn := dbtest.Open(t)
	base := NewBase(conn)

	assert.Same(t, conn, base.Bind(nil).db)
	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		assert.Same(t, tx, base.Bind(tx).db)
		return nil
	}))
}

func TestBaseLockedReadsRows(t *testing.T) {
	conn := dbtest.Open(t, &models.Guest{})
	guest := models.Guest{ID: uuid.New(), FullName: "Ada Lovelace"}
	require.NoError(t, conn.Create(&guest).Error)

	var found models.Guest
	require.NoError(t, NewBase(conn).Locked(context.Background()).Where("id = ?", guest.ID).First(&found).Error)
	assert.Equal(t, "Ada Lovelace", found.FullName)
}
