package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/innkeeper-backend/pkg/db/dbtest"
	"github.com/angelmondragon/innkeeper-backend/pkg/db/models"
	"github.com/angelmondragon/innkeeper-backend/pkg/enums"
	"github.com/angelmondragon/innkeeper-backend/pkg/logger"
	"github.com/angelmondragon/innkeeper-backend/pkg/outbox"
)

func TestOutboxRetentionJobDeletesOnlyOldPublishedRows(t *testing.T) {
	conn := dbtest.Open(t, &models.OutboxEvent{})
	now := time.Date(2026, 10, 16, 3, 0, 0, 0, time.UTC)
	old := now.AddDate(0, 0, -45)
	recent := now.AddDate(0, 0, -2)

	rows := []models.OutboxEvent{
		{PublishedAt: &old},
		{PublishedAt: &recent},
		{},
	}
	for i := range rows {
		rows[i].EventType = enums.EventReservationCreated
		rows[i].AggregateType = enums.AggregateReservation
		rows[i].AggregateID = uuid.New()
		rows[i].Payload = []byte(`{}`)
		require.NoError(t, conn.Create(&rows[i]).Error)
	}
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Where("id = ?", rows[2].ID).Update("created_at", old).Error)

	jobIface, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		Repository: outbox.NewRepository(conn),
	})
	require.NoError(t, err)
	job := jobIface.(*outboxRetentionJob)
	job.now = func() time.Time { return now }

	require.NoError(t, job.Run(context.Background()))

	var remaining []models.OutboxEvent
	require.NoError(t, conn.Order("created_at ASC").Find(&remaining).Error)
	ids := []uuid.UUID{}
	for _, row := range remaining {
		ids = append(ids, row.ID)
	}
	assert.ElementsMatch(t, []uuid.UUID{rows[1].ID, rows[2].ID}, ids, "unpublished rows survive regardless of age")
}

type failingRetentionRepo struct{}

func (failingRetentionRepo) DeletePublishedBefore(context.Context, time.Time) (int64, error) {
	return 0, errors.New("boom")
}

func TestOutboxRetentionJobPropagatesError(t *testing.T) {
	job, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		Repository: failingRetentionRepo{},
		Retention:  7,
	})
	require.NoError(t, err)
	assert.Error(t, job.Run(context.Background()))

	_, err = NewOutboxRetentionJob(OutboxRetentionJobParams{Repository: failingRetentionRepo{}})
	assert.Error(t, err)
}
