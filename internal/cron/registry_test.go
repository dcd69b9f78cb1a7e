package cron

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubJob struct {
	name string
}

func (s *stubJob) Name() string              { return s.name }
func (s *stubJob) Run(context.Context) error { return nil }

func TestRegistryKeepsOrderAndCopies(t *testing.T) {
	registry, err := NewRegistry(&stubJob{name: "waitlist_sweep"})
	require.NoError(t, err)
	require.NoError(t, registry.Register(&stubJob{name: "outbox_retention"}))

	assert.Equal(t, []string{"waitlist_sweep", "outbox_retention"}, registry.Names())

	jobs := registry.Jobs()
	jobs[0] = nil
	assert.NotNil(t, registry.Jobs()[0], "internal slice leaked")
}

func TestRegistryRejectsBadJobs(t *testing.T) {
	registry, err := NewRegistry()
	require.NoError(t, err)

	assert.Error(t, registry.Register(nil))
	assert.Error(t, registry.Register(&stubJob{name: " "}))
	require.NoError(t, registry.Register(&stubJob{name: "waitlist_sweep"}))
	assert.ErrorContains(t, registry.Register(&stubJob{name: "waitlist_sweep"}), "registered twice")

	_, err = NewRegistry(&stubJob{name: "a"}, &stubJob{name: "a"})
	assert.Error(t, err)
}
