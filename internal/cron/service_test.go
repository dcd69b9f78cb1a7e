package cron

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/innkeeper-backend/pkg/logger"
	"github.com/angelmondragon/innkeeper-backend/pkg/metrics"
)

type fakeLock struct {
	held     bool
	releases int
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.held {
		return false, nil
	}
	f.held = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error {
	f.held = false
	f.releases++
	return nil
}

type testJob struct {
	name  string
	err   error
	panic bool
	runs  int
	ctx   context.Context
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(ctx context.Context) error {
	t.runs++
	t.ctx = ctx
	if t.panic {
		panic("sweep exploded")
	}
	return t.err
}

func mustRegistry(t *testing.T, jobs ...Job) *Registry {
	t.Helper()
	registry, err := NewRegistry(jobs...)
	require.NoError(t, err)
	return registry
}

func TestServiceRunCycleRunsAllJobsEvenOnFailure(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "cron-test", Output: &buf})
	reg := prometheus.NewRegistry()
	cronMetrics := metrics.NewCronJobMetrics(reg)
	ok := &testJob{name: "waitlist-sweep"}
	bad := &testJob{name: "outbox-retention", err: errors.New("boom")}
	lock := &fakeLock{}

	service, err := NewService(ServiceParams{
		Logger:   logg,
		Registry: mustRegistry(t, ok, bad),
		Lock:     lock,
		Metrics:  cronMetrics,
	})
	require.NoError(t, err)

	require.NoError(t, service.RunOnce(context.Background()))
	assert.Equal(t, 1, ok.runs)
	assert.Equal(t, 1, bad.runs)
	assert.Equal(t, 1, lock.releases)
	assert.False(t, lock.held)
	assert.Contains(t, buf.String(), `"jobs_failed":1`)

	failures, err := testutil.GatherAndCount(reg, "innkeeper_cron_job_failure_total")
	require.NoError(t, err)
	assert.Equal(t, 1, failures)
	successes, err := testutil.GatherAndCount(reg, "innkeeper_cron_job_success_total")
	require.NoError(t, err)
	assert.Equal(t, 1, successes)
}

func TestServiceSkipsCycleWhenLockHeld(t *testing.T) {
	var buf bytes.Buffer
	job := &testJob{name: "waitlist-sweep"}
	service, err := NewService(ServiceParams{
		Logger:   logger.New(logger.Options{ServiceName: "cron-test", Output: &buf}),
		Registry: mustRegistry(t, job),
		Lock:     &fakeLock{held: true},
	})
	require.NoError(t, err)

	require.NoError(t, service.RunOnce(context.Background()))
	assert.Zero(t, job.runs)
	assert.True(t, strings.Contains(buf.String(), "another cron instance is running"))
}

func TestServiceRecoversPanickingJobAndAppliesTimeout(t *testing.T) {
	var buf bytes.Buffer
	boom := &testJob{name: "waitlist-sweep", panic: true}
	after := &testJob{name: "outbox-retention"}
	service, err := NewService(ServiceParams{
		Logger:     logger.New(logger.Options{ServiceName: "cron-test", Output: &buf}),
		Registry:   mustRegistry(t, boom, after),
		Lock:       &fakeLock{},
		JobTimeout: time.Minute,
	})
	require.NoError(t, err)

	require.NoError(t, service.RunOnce(context.Background()))
	assert.Equal(t, 1, after.runs)
	assert.Contains(t, buf.String(), "sweep exploded")

	deadline, ok := after.ctx.Deadline()
	require.True(t, ok, "job context carries the timeout")
	assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)
}

func TestNewServiceRequiresLoggerAndLock(t *testing.T) {
	_, err := NewService(ServiceParams{Lock: &fakeLock{}})
	assert.Error(t, err)
	_, err = NewService(ServiceParams{Logger: logger.New(logger.Options{})})
	assert.Error(t, err)
}
