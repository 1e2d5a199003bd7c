package scheduler_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jaxxstorm/landlord/internal/config"
	"github.com/jaxxstorm/landlord/internal/scheduler"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	require.FailNow(t, "condition not met before timeout")
}

func TestScheduler_RunsJobOnItsInterval(t *testing.T) {
	var calls int32
	jobs := []scheduler.Job{
		{Name: "fast", Interval: 5 * time.Millisecond, Run: func(ctx context.Context) (int, error) {
			atomic.AddInt32(&calls, 1)
			return 1, nil
		}},
	}
	cfg := config.SchedulerConfig{Enabled: true, TickInterval: time.Millisecond, Workers: 1, JobTimeout: time.Second, ShutdownTimeout: time.Second, MaxRetries: 3}
	s := scheduler.New(jobs, cfg, zap.NewNop())
	require.NoError(t, s.Start())
	defer s.Stop()

	waitFor(t, time.Second, func() bool { return atomic.LoadInt32(&calls) >= 2 })
}

func TestScheduler_DisabledDoesNotStartWorkers(t *testing.T) {
	var calls int32
	jobs := []scheduler.Job{
		{Name: "fast", Interval: time.Millisecond, Run: func(ctx context.Context) (int, error) {
			atomic.AddInt32(&calls, 1)
			return 0, nil
		}},
	}
	cfg := config.SchedulerConfig{Enabled: false}
	s := scheduler.New(jobs, cfg, zap.NewNop())
	require.NoError(t, s.Start())
	defer s.Stop()

	time.Sleep(20 * time.Millisecond)
	require.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestScheduler_FailingJobIsRetried(t *testing.T) {
	var calls int32
	jobs := []scheduler.Job{
		{Name: "always_fails", Interval: 5 * time.Millisecond, Run: func(ctx context.Context) (int, error) {
			atomic.AddInt32(&calls, 1)
			return 0, errors.New("boom")
		}},
	}
	cfg := config.SchedulerConfig{Enabled: true, TickInterval: time.Millisecond, Workers: 1, JobTimeout: time.Second, ShutdownTimeout: time.Second, MaxRetries: 2}
	s := scheduler.New(jobs, cfg, zap.NewNop())
	require.NoError(t, s.Start())
	defer s.Stop()

	// Every run of this job fails; its 5ms interval brings it due again
	// long before the 1s first retry backoff, so reaching two runs shows
	// that a failed job keeps running on its own schedule.
	waitFor(t, time.Second, func() bool { return atomic.LoadInt32(&calls) >= 2 })
}

type fakeDigester struct {
	calls []string
}

func (f *fakeDigester) ProcessScheduled(ctx context.Context) (int, error) { return 0, nil }
func (f *fakeDigester) RetryFailed(ctx context.Context) (int, error)      { return 0, nil }
func (f *fakeDigester) RunDigestsFor(ctx context.Context, digestType string) (int, error) {
	f.calls = append(f.calls, digestType)
	return 1, nil
}

type fakeMatcher struct{ processed int }

func (f *fakeMatcher) ExpireOld(ctx context.Context) (int, error)             { return 0, nil }
func (f *fakeMatcher) SendFollowUpReminders(ctx context.Context) (int, error) { return 0, nil }
func (f *fakeMatcher) ProcessDaily(ctx context.Context) (int, error) {
	f.processed++
	return f.processed, nil
}

type fakeInvitations struct{ cleaned int }

func (f *fakeInvitations) CleanupExpired(ctx context.Context) (int, error) {
	f.cleaned++
	return f.cleaned, nil
}

type fakeObjections struct{ swept int }

func (f *fakeObjections) SweepOverdue(ctx context.Context) (int, error) {
	f.swept++
	return f.swept, nil
}

func TestBuildJobs_DailyMatchProcessingAlsoRunsDigest(t *testing.T) {
	digester := &fakeDigester{}
	matcher := &fakeMatcher{}
	jobs := scheduler.BuildJobs(scheduler.Deps{
		Invitations:   &fakeInvitations{},
		Objections:    &fakeObjections{},
		Matching:      matcher,
		Notifications: digester,
	})

	var dailyJob *scheduler.Job
	for i := range jobs {
		if jobs[i].Name == "match_process_daily" {
			dailyJob = &jobs[i]
		}
	}
	require.NotNil(t, dailyJob)

	count, err := dailyJob.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, count)
	require.Equal(t, 1, matcher.processed)
	require.Equal(t, []string{"daily"}, digester.calls)
}
