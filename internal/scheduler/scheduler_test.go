package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/dfs/backend/internal/contracts"
	"github.com/wonny/dfs/backend/pkg/logger"
)

type memoryLedger struct {
	mu   sync.Mutex
	runs []contracts.JobRun
}

func (l *memoryLedger) Record(ctx context.Context, run *contracts.JobRun) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.runs = append(l.runs, *run)
	return nil
}

func (l *memoryLedger) ListRecent(ctx context.Context, jobName string, limit int) ([]contracts.JobRun, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []contracts.JobRun
	for i := len(l.runs) - 1; i >= 0 && len(out) < limit; i-- {
		if jobName == "" || l.runs[i].JobName == jobName {
			out = append(out, l.runs[i])
		}
	}
	return out, nil
}

func (l *memoryLedger) byOutcome(outcome contracts.Outcome) []contracts.JobRun {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []contracts.JobRun
	for _, run := range l.runs {
		if run.Outcome == outcome {
			out = append(out, run)
		}
	}
	return out
}

type memoryNotifier struct {
	mu     sync.Mutex
	events []contracts.EventKind
}

func (n *memoryNotifier) Notify(ctx context.Context, kind contracts.EventKind, msg string, fields map[string]interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, kind)
}

func (n *memoryNotifier) kinds() []contracts.EventKind {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]contracts.EventKind(nil), n.events...)
}

func testScheduler(cfg Config) *Scheduler {
	return New(logger.NewNop(), cfg)
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestRunJobExecutesAndRecords(t *testing.T) {
	ledger := &memoryLedger{}
	s := testScheduler(Config{MaxRetries: 0, RetryInitialDelay: time.Millisecond, RetryMaxDelay: time.Millisecond}).WithLedger(ledger)
	s.Start(context.Background())
	defer s.Stop()

	require.NoError(t, s.Schedule(&FuncJob{
		JobName: "noop",
		Fn: func(ctx context.Context) (*Report, error) {
			return &Report{Items: 3, Details: map[string]interface{}{"sport": "NFL"}}, nil
		},
	}, nil))

	require.NoError(t, s.RunJob("noop"))
	waitFor(t, 2*time.Second, func() bool {
		return len(ledger.byOutcome(contracts.OutcomeSuccess)) == 1
	})

	run := ledger.byOutcome(contracts.OutcomeSuccess)[0]
	assert.Equal(t, "noop", run.JobName)
	assert.Equal(t, 3, run.ItemsProcessed)
	assert.Equal(t, 1, run.Attempts)
	assert.Equal(t, "NFL", run.Details["sport"])
	assert.NotEmpty(t, run.ID)
	assert.False(t, run.EndedAt.Before(run.StartedAt))
}

func TestMutualExclusion(t *testing.T) {
	ledger := &memoryLedger{}
	s := testScheduler(Config{}).WithLedger(ledger)
	s.Start(context.Background())
	defer s.Stop()

	release := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, s.Schedule(&FuncJob{
		JobName: "slow",
		Fn: func(ctx context.Context) (*Report, error) {
			close(started)
			<-release
			return nil, nil
		},
	}, nil))

	require.NoError(t, s.RunJob("slow"))
	<-started

	// A second manual trigger while running is refused
	err := s.RunJob("slow")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already running")

	close(release)
	waitFor(t, 2*time.Second, func() bool {
		return len(ledger.byOutcome(contracts.OutcomeSuccess)) == 1
	})
}

func TestScheduledOverlapRecordsSkip(t *testing.T) {
	ledger := &memoryLedger{}
	s := testScheduler(Config{}).WithLedger(ledger)
	s.Start(context.Background())
	defer s.Stop()

	release := make(chan struct{})
	var once sync.Once
	require.NoError(t, s.Schedule(&FuncJob{
		JobName: "ticker",
		Fn: func(ctx context.Context) (*Report, error) {
			once.Do(func() { <-release })
			return nil, nil
		},
	}, &IntervalTrigger{Start: time.Now(), Every: 30 * time.Millisecond}))

	// First run blocks across several slots; those slots become skips
	waitFor(t, 2*time.Second, func() bool {
		return len(ledger.byOutcome(contracts.OutcomeSkipped)) >= 2
	})
	close(release)

	waitFor(t, 2*time.Second, func() bool {
		return len(ledger.byOutcome(contracts.OutcomeSuccess)) >= 1
	})

	for _, run := range ledger.byOutcome(contracts.OutcomeSkipped) {
		assert.Equal(t, "ticker", run.JobName)
		assert.Empty(t, run.Error)
	}
}

func TestTransientFailureRetriesThenSucceeds(t *testing.T) {
	ledger := &memoryLedger{}
	s := testScheduler(Config{
		MaxRetries:        3,
		RetryInitialDelay: time.Millisecond,
		RetryMaxDelay:     5 * time.Millisecond,
	}).WithLedger(ledger)
	s.Start(context.Background())
	defer s.Stop()

	var mu sync.Mutex
	calls := 0
	require.NoError(t, s.Schedule(&FuncJob{
		JobName: "flaky",
		Fn: func(ctx context.Context) (*Report, error) {
			mu.Lock()
			defer mu.Unlock()
			calls++
			if calls < 3 {
				return nil, fmt.Errorf("fetch: %w", contracts.ErrSourceUnavailable)
			}
			return &Report{Items: 1}, nil
		},
	}, nil))

	require.NoError(t, s.RunJob("flaky"))
	waitFor(t, 2*time.Second, func() bool {
		return len(ledger.byOutcome(contracts.OutcomeSuccess)) == 1
	})

	run := ledger.byOutcome(contracts.OutcomeSuccess)[0]
	assert.Equal(t, 3, run.Attempts)
}

func TestFatalFailureDoesNotRetry(t *testing.T) {
	ledger := &memoryLedger{}
	notifier := &memoryNotifier{}
	s := testScheduler(Config{
		MaxRetries:        3,
		RetryInitialDelay: time.Millisecond,
		RetryMaxDelay:     5 * time.Millisecond,
	}).WithLedger(ledger).WithNotifier(notifier)
	s.Start(context.Background())
	defer s.Stop()

	var mu sync.Mutex
	calls := 0
	require.NoError(t, s.Schedule(&FuncJob{
		JobName: "badcreds",
		Fn: func(ctx context.Context) (*Report, error) {
			mu.Lock()
			defer mu.Unlock()
			calls++
			return nil, fmt.Errorf("login: %w", contracts.ErrAuthentication)
		},
	}, nil))

	require.NoError(t, s.RunJob("badcreds"))
	waitFor(t, 2*time.Second, func() bool {
		return len(ledger.byOutcome(contracts.OutcomeFailure)) == 1
	})

	mu.Lock()
	assert.Equal(t, 1, calls)
	mu.Unlock()

	run := ledger.byOutcome(contracts.OutcomeFailure)[0]
	assert.Equal(t, 1, run.Attempts)
	assert.Contains(t, run.Error, "authentication failed")
	assert.Contains(t, notifier.kinds(), contracts.EventEscalation)
}

func TestBusinessOutcomeRecordedAsSuccess(t *testing.T) {
	ledger := &memoryLedger{}
	notifier := &memoryNotifier{}
	s := testScheduler(Config{MaxRetries: 3, RetryInitialDelay: time.Millisecond, RetryMaxDelay: time.Millisecond}).
		WithLedger(ledger).WithNotifier(notifier)
	s.Start(context.Background())
	defer s.Stop()

	require.NoError(t, s.Schedule(&FuncJob{
		JobName: "generate",
		Fn: func(ctx context.Context) (*Report, error) {
			return nil, contracts.ErrNoValidLineup
		},
	}, nil))

	require.NoError(t, s.RunJob("generate"))
	waitFor(t, 2*time.Second, func() bool {
		return len(ledger.byOutcome(contracts.OutcomeSuccess)) == 1
	})

	run := ledger.byOutcome(contracts.OutcomeSuccess)[0]
	assert.Equal(t, "no valid lineup", run.Details["business_outcome"])
	assert.Empty(t, notifier.kinds())
}

func TestAutoDisableAfterConsecutiveFailures(t *testing.T) {
	ledger := &memoryLedger{}
	notifier := &memoryNotifier{}
	s := testScheduler(Config{
		MaxRetries:        0,
		RetryInitialDelay: time.Millisecond,
		RetryMaxDelay:     time.Millisecond,
		DisableAfterFails: 2,
	}).WithLedger(ledger).WithNotifier(notifier)
	s.Start(context.Background())
	defer s.Stop()

	require.NoError(t, s.Schedule(&FuncJob{
		JobName: "broken",
		Fn: func(ctx context.Context) (*Report, error) {
			return nil, fmt.Errorf("down: %w", contracts.ErrSourceUnavailable)
		},
	}, nil))

	for i := 0; i < 2; i++ {
		require.NoError(t, s.RunJob("broken"))
		waitFor(t, 2*time.Second, func() bool {
			return len(ledger.byOutcome(contracts.OutcomeFailure)) == i+1
		})
	}

	assert.True(t, s.Stats()["broken"].Disabled)
	assert.Contains(t, notifier.kinds(), contracts.EventJobDisable)

	err := s.RunJob("broken")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "disabled")

	// Manual re-enable clears the failure streak
	require.NoError(t, s.EnableJob("broken"))
	st := s.Stats()["broken"]
	assert.False(t, st.Disabled)
	assert.Equal(t, 0, st.ConsecutiveFails)
}

func TestSuccessResetsFailureStreak(t *testing.T) {
	ledger := &memoryLedger{}
	s := testScheduler(Config{
		MaxRetries:        0,
		RetryInitialDelay: time.Millisecond,
		RetryMaxDelay:     time.Millisecond,
		DisableAfterFails: 3,
	}).WithLedger(ledger)
	s.Start(context.Background())
	defer s.Stop()

	var mu sync.Mutex
	fail := true
	require.NoError(t, s.Schedule(&FuncJob{
		JobName: "wobbly",
		Fn: func(ctx context.Context) (*Report, error) {
			mu.Lock()
			defer mu.Unlock()
			if fail {
				return nil, fmt.Errorf("down: %w", contracts.ErrSourceUnavailable)
			}
			return nil, nil
		},
	}, nil))

	for i := 0; i < 2; i++ {
		require.NoError(t, s.RunJob("wobbly"))
		waitFor(t, 2*time.Second, func() bool {
			return len(ledger.byOutcome(contracts.OutcomeFailure)) == i+1
		})
	}
	assert.Equal(t, 2, s.Stats()["wobbly"].ConsecutiveFails)

	mu.Lock()
	fail = false
	mu.Unlock()

	require.NoError(t, s.RunJob("wobbly"))
	waitFor(t, 2*time.Second, func() bool {
		return len(ledger.byOutcome(contracts.OutcomeSuccess)) == 1
	})
	assert.Equal(t, 0, s.Stats()["wobbly"].ConsecutiveFails)
	assert.False(t, s.Stats()["wobbly"].Disabled)
}

func TestAnchorFiresOnceAndIsCancellable(t *testing.T) {
	ledger := &memoryLedger{}
	s := testScheduler(Config{}).WithLedger(ledger)
	s.Start(context.Background())
	defer s.Stop()

	var mu sync.Mutex
	runs := 0
	require.NoError(t, s.Schedule(&FuncJob{
		JobName: "pregame",
		Fn: func(ctx context.Context) (*Report, error) {
			mu.Lock()
			defer mu.Unlock()
			runs++
			return nil, nil
		},
	}, nil))

	// Cancelled anchor never fires
	require.NoError(t, s.ScheduleAnchor("pregame", "contest-b", time.Now().Add(30*time.Millisecond)))
	s.CancelAnchor("pregame", "contest-b")

	require.NoError(t, s.ScheduleAnchor("pregame", "contest-a", time.Now().Add(30*time.Millisecond)))
	waitFor(t, 2*time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return runs == 1
	})

	// Give the cancelled anchor's slot time to pass
	time.Sleep(100 * time.Millisecond)
	mu.Lock()
	assert.Equal(t, 1, runs)
	mu.Unlock()

	assert.Empty(t, s.Anchors("pregame"))

	run := ledger.byOutcome(contracts.OutcomeSuccess)[0]
	assert.Equal(t, "anchor", run.Details["trigger"])
	assert.Equal(t, "contest-a", run.Details["anchor"])
}

func TestScheduleAnchorRejectsPastTime(t *testing.T) {
	s := testScheduler(Config{})
	require.NoError(t, s.Schedule(&FuncJob{JobName: "j", Fn: func(ctx context.Context) (*Report, error) { return nil, nil }}, nil))

	err := s.ScheduleAnchor("j", "k", time.Now().Add(-time.Minute))
	assert.Error(t, err)

	err = s.ScheduleAnchor("missing", "k", time.Now().Add(time.Minute))
	assert.Error(t, err)
}

func TestDuplicateJobNameRejected(t *testing.T) {
	s := testScheduler(Config{})
	job := &FuncJob{JobName: "dup", Fn: func(ctx context.Context) (*Report, error) { return nil, nil }}
	require.NoError(t, s.Schedule(job, nil))
	assert.Error(t, s.Schedule(job, nil))
}

func TestUnknownErrorTreatedAsTransient(t *testing.T) {
	ledger := &memoryLedger{}
	s := testScheduler(Config{
		MaxRetries:        1,
		RetryInitialDelay: time.Millisecond,
		RetryMaxDelay:     time.Millisecond,
	}).WithLedger(ledger)
	s.Start(context.Background())
	defer s.Stop()

	var mu sync.Mutex
	calls := 0
	require.NoError(t, s.Schedule(&FuncJob{
		JobName: "mystery",
		Fn: func(ctx context.Context) (*Report, error) {
			mu.Lock()
			defer mu.Unlock()
			calls++
			return nil, errors.New("never seen before")
		},
	}, nil))

	require.NoError(t, s.RunJob("mystery"))
	waitFor(t, 2*time.Second, func() bool {
		return len(ledger.byOutcome(contracts.OutcomeFailure)) == 1
	})

	mu.Lock()
	assert.Equal(t, 2, calls)
	mu.Unlock()
}

func TestHistoryBounded(t *testing.T) {
	h := NewHistory(3)
	for i := 0; i < 5; i++ {
		h.Add(contracts.JobRun{JobName: "x", Outcome: contracts.OutcomeSuccess})
	}
	assert.Len(t, h.Runs, 3)
	assert.Equal(t, 1.0, h.SuccessRate())

	h.Add(contracts.JobRun{JobName: "x", Outcome: contracts.OutcomeSkipped})
	assert.Equal(t, 1.0, h.SuccessRate(), "skips do not count against the rate")
}
