package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/innkeeper-backend/internal/waitlist"
	"github.com/angelmondragon/innkeeper-backend/pkg/logger"
)

// SystemActor is recorded on every mutation the cron worker performs.
const SystemActor = "system"

type waitlistSweeper interface {
	CheckAndNotifyAvailableRooms(ctx context.Context, filter waitlist.SweepFilter, actor string) (*waitlist.SweepResult, error)
}

type WaitlistSweepJobParams struct {
	Logger   *logger.Logger
	Waitlist waitlistSweeper
	// Horizon is how far ahead of today desired check-ins are scanned.
	Horizon time.Duration
}

func NewWaitlistSweepJob(params WaitlistSweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Waitlist == nil {
		return nil, fmt.Errorf("waitlist service required")
	}
	horizon := params.Horizon
	if horizon <= 0 {
		horizon = waitlist.DefaultSweepHorizon
	}
	return &waitlistSweepJob{logg: params.Logger, waitlist: params.Waitlist, horizon: horizon, now: time.Now}, nil
}

type waitlistSweepJob struct {
	logg     *logger.Logger
	waitlist waitlistSweeper
	horizon  time.Duration
	now      func() time.Time
}

func (j *waitlistSweepJob) Name() string { return "waitlist-sweep" }

func (j *waitlistSweepJob) Run(ctx context.Context) error {
	from := j.now()
	result, err := j.waitlist.CheckAndNotifyAvailableRooms(ctx, waitlist.SweepFilter{
		From: from,
		To:   from.Add(j.horizon),
	}, SystemActor)
	if result != nil {
		logCtx := j.logg.WithFields(ctx, map[string]any{
			"scanned":  result.Scanned,
			"notified": result.Notified,
			"failed":   result.Failed,
		})
		j.logg.Info(logCtx, "waitlist sweep complete")
	}
	if err != nil {
		return fmt.Errorf("waitlist sweep: %w", err)
	}
	return nil
}
