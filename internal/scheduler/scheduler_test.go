package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/dipscan/pkg/logger"
)

type fakeJob struct {
	name     string
	schedule string
	failures int32
	calls    int32
}

func (j *fakeJob) Name() string     { return j.name }
func (j *fakeJob) Schedule() string { return j.schedule }

func (j *fakeJob) Run(ctx context.Context) error {
	n := atomic.AddInt32(&j.calls, 1)
	if n <= atomic.LoadInt32(&j.failures) {
		return errors.New("boom")
	}
	return nil
}

type recordingObserver struct {
	mu   sync.Mutex
	runs map[string][]error
}

func (o *recordingObserver) JobRun(job string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.runs == nil {
		o.runs = make(map[string][]error)
	}
	o.runs[job] = append(o.runs[job], err)
}

func newTestScheduler(opts ...Option) *Scheduler {
	opts = append([]Option{WithRetry(2, time.Millisecond)}, opts...)
	return New(logger.Nop(), opts...)
}

func TestScheduler_AddJob(t *testing.T) {
	s := newTestScheduler()

	require.NoError(t, s.AddJob(&fakeJob{name: "b", schedule: "@every 1h"}))
	require.NoError(t, s.AddJob(&fakeJob{name: "a", schedule: "0 */5 * * * *"}))

	err := s.AddJob(&fakeJob{name: "a", schedule: "@every 1h"})
	assert.ErrorContains(t, err, "already exists")

	err = s.AddJob(&fakeJob{name: "bad", schedule: "not a schedule"})
	assert.ErrorContains(t, err, "failed to schedule")

	assert.Equal(t, []string{"a", "b"}, s.GetAllJobs())
}

func TestScheduler_RemoveJob(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.AddJob(&fakeJob{name: "sweep", schedule: "@every 1h"}))
	require.Len(t, s.cron.Entries(), 1)

	require.NoError(t, s.RemoveJob("sweep"))
	assert.Empty(t, s.GetAllJobs())
	assert.Empty(t, s.cron.Entries())

	assert.Error(t, s.RemoveJob("sweep"))
	assert.Error(t, s.RunNow(context.Background(), "sweep"))
}

func TestScheduler_RunNowRetries(t *testing.T) {
	obs := &recordingObserver{}
	s := newTestScheduler(WithObserver(obs))

	job := &fakeJob{name: "flaky", schedule: "@every 1h", failures: 2}
	require.NoError(t, s.AddJob(job))

	require.NoError(t, s.RunNow(context.Background(), "flaky"))
	assert.Equal(t, int32(3), atomic.LoadInt32(&job.calls))

	history, err := s.GetJobHistory("flaky")
	require.NoError(t, err)
	require.Len(t, history.Results, 1)
	assert.True(t, history.Results[0].Success)

	assert.Equal(t, []error{nil}, obs.runs["flaky"])
}

func TestScheduler_RunNowGivesUp(t *testing.T) {
	obs := &recordingObserver{}
	s := newTestScheduler(WithObserver(obs))

	job := &fakeJob{name: "broken", schedule: "@every 1h", failures: 100}
	require.NoError(t, s.AddJob(job))

	err := s.RunNow(context.Background(), "broken")
	assert.EqualError(t, err, "boom")
	assert.Equal(t, int32(3), atomic.LoadInt32(&job.calls))

	stats := s.GetJobStats()["broken"]
	assert.Equal(t, 1, stats.TotalRuns)
	assert.Equal(t, 1, stats.FailureCount)
	assert.Equal(t, 0.0, stats.SuccessRate)
	assert.NotNil(t, stats.LastFailure)
	assert.Nil(t, stats.LastSuccess)

	require.Len(t, obs.runs["broken"], 1)
	assert.Error(t, obs.runs["broken"][0])
}

func TestScheduler_RunNowStopsOnCancel(t *testing.T) {
	s := New(logger.Nop(), WithRetry(5, time.Hour))
	job := &fakeJob{name: "slow", schedule: "@every 1h", failures: 100}
	require.NoError(t, s.AddJob(job))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := s.RunNow(ctx, "slow")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int32(1), atomic.LoadInt32(&job.calls))
}

func TestScheduler_RunJobAsync(t *testing.T) {
	s := newTestScheduler()
	job := &fakeJob{name: "async", schedule: "@every 1h"}
	require.NoError(t, s.AddJob(job))

	require.NoError(t, s.RunJob("async"))
	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&job.calls) == 1
	}, time.Second, 5*time.Millisecond)

	assert.Error(t, s.RunJob("missing"))
}

func TestScheduler_StartStop(t *testing.T) {
	s := newTestScheduler()
	job := &fakeJob{name: "tick", schedule: "@every 1s"}
	require.NoError(t, s.AddJob(job))

	s.Start()
	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&job.calls) >= 1
	}, 3*time.Second, 10*time.Millisecond)
	s.Stop()
}

func TestJobHistory(t *testing.T) {
	h := &JobHistory{}
	assert.Equal(t, 0.0, h.GetSuccessRate())
	assert.Empty(t, h.GetLatestResults(5))

	for i := 0; i < maxHistory+10; i++ {
		h.AddResult(JobResult{JobName: "j", Success: i%2 == 0})
	}

	assert.Len(t, h.Results, maxHistory)
	assert.Len(t, h.GetLatestResults(3), 3)
	assert.Len(t, h.GetFailedResults(), maxHistory/2)
	assert.InDelta(t, 0.5, h.GetSuccessRate(), 1e-9)
}

type panicJob struct {
	calls int32
}

func (j *panicJob) Name() string     { return "panicky" }
func (j *panicJob) Schedule() string { return "@every 1s" }

func (j *panicJob) Run(ctx context.Context) error {
	atomic.AddInt32(&j.calls, 1)
	panic("cannot create a decimal from +Inf")
}

func TestScheduler_PanickingJobFails(t *testing.T) {
	obs := &recordingObserver{}
	s := newTestScheduler(WithObserver(obs))
	job := &panicJob{}
	require.NoError(t, s.AddJob(job))

	var err error
	require.NotPanics(t, func() { err = s.RunNow(context.Background(), "panicky") })
	assert.ErrorContains(t, err, "panicked")
	assert.Equal(t, int32(3), atomic.LoadInt32(&job.calls))

	stats := s.GetJobStats()["panicky"]
	assert.Equal(t, 1, stats.FailureCount)
	require.Len(t, obs.runs["panicky"], 1)
}

func TestScheduler_PanickingJobKeepsCronAlive(t *testing.T) {
	s := New(logger.Nop(), WithRetry(0, 0))
	job := &panicJob{}
	require.NoError(t, s.AddJob(job))

	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&job.calls) >= 2
	}, 4*time.Second, 10*time.Millisecond)
}
