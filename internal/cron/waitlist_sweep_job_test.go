package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/innkeeper-backend/internal/waitlist"
	"github.com/angelmondragon/innkeeper-backend/pkg/logger"
)

type fakeSweeper struct {
	filter waitlist.SweepFilter
	actor  string
	result *waitlist.SweepResult
	err    error
}

func (f *fakeSweeper) CheckAndNotifyAvailableRooms(_ context.Context, filter waitlist.SweepFilter, actor string) (*waitlist.SweepResult, error) {
	f.filter = filter
	f.actor = actor
	return f.result, f.err
}

func TestWaitlistSweepJobScansHorizonAsSystem(t *testing.T) {
	now := time.Date(2026, 10, 16, 6, 0, 0, 0, time.UTC)
	sweeper := &fakeSweeper{result: &waitlist.SweepResult{Scanned: 3, Notified: 1}}
	jobIface, err := NewWaitlistSweepJob(WaitlistSweepJobParams{
		Logger:   logger.New(logger.Options{ServiceName: "test"}),
		Waitlist: sweeper,
		Horizon:  14 * 24 * time.Hour,
	})
	require.NoError(t, err)
	job := jobIface.(*waitlistSweepJob)
	job.now = func() time.Time { return now }

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, "waitlist-sweep", job.Name())
	assert.Equal(t, SystemActor, sweeper.actor)
	assert.Equal(t, now, sweeper.filter.From)
	assert.Equal(t, now.Add(14*24*time.Hour), sweeper.filter.To)
}

func TestWaitlistSweepJobReportsPartialFailure(t *testing.T) {
	sweeper := &fakeSweeper{
		result: &waitlist.SweepResult{Scanned: 2, Notified: 1, Failed: 1},
		err:    errors.New("waitlist x: boom"),
	}
	job, err := NewWaitlistSweepJob(WaitlistSweepJobParams{
		Logger:   logger.New(logger.Options{ServiceName: "test"}),
		Waitlist: sweeper,
	})
	require.NoError(t, err)

	err = job.Run(context.Background())
	assert.ErrorContains(t, err, "waitlist sweep")

	_, err = NewWaitlistSweepJob(WaitlistSweepJobParams{Logger: logger.New(logger.Options{})})
	assert.Error(t, err)
}
