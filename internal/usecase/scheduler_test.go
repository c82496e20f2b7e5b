package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDriver struct {
	job     func(time.Time)
	stopped bool
}

func (d *fakeDriver) Start(_ context.Context, job func(time.Time)) error {
	d.job = job
	return nil
}

func (d *fakeDriver) Stop(context.Context) error {
	d.stopped = true
	return nil
}

func TestSchedulerRunsPipelineWithLookback(t *testing.T) {
	source := &fakeSource{}
	pipeline := NewPipeline(PipelineDeps{Source: source, Repository: &fakeIngest{}})
	driver := &fakeDriver{}

	sched := NewScheduler(driver, pipeline, 6*time.Hour, nil)
	require.NoError(t, sched.Start(context.Background()))
	require.NotNil(t, driver.job)

	trigger := time.Date(2025, time.March, 2, 12, 0, 0, 0, time.UTC)
	driver.job(trigger)
	assert.Equal(t, trigger.Add(-6*time.Hour), source.since)

	require.NoError(t, sched.Stop(context.Background()))
	assert.True(t, driver.stopped)
}

func TestSchedulerDefaultsLookback(t *testing.T) {
	source := &fakeSource{}
	driver := &fakeDriver{}
	sched := NewScheduler(driver, NewPipeline(PipelineDeps{Source: source, Repository: &fakeIngest{}}), 0, nil)
	require.NoError(t, sched.Start(context.Background()))

	trigger := time.Date(2025, time.March, 2, 12, 0, 0, 0, time.UTC)
	driver.job(trigger)
	assert.Equal(t, trigger.Add(-24*time.Hour), source.since)
}

func TestSchedulerWithoutDriverIsNoop(t *testing.T) {
	sched := NewScheduler(nil, nil, time.Hour, nil)
	assert.NoError(t, sched.Start(context.Background()))
	assert.NoError(t, sched.Stop(context.Background()))
}
