package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/dfs/backend/internal/contracts"
	"github.com/wonny/dfs/backend/pkg/logger"
)

// Config holds scheduler policy knobs
type Config struct {
	MaxRetries        int           // retries after the first attempt, transient failures only
	RetryInitialDelay time.Duration // first backoff delay
	RetryMaxDelay     time.Duration // backoff cap
	DisableAfterFails int           // consecutive failed runs before auto-disable (0 = never)
	HistoryLimit      int           // in-memory runs kept per job
}

type entry struct {
	job     Job
	trigger Trigger
	nextAt  time.Time
	hasNext bool
	anchors map[string]time.Time

	running     bool
	disabled    bool
	consecFails int

	history     *History
	lastRun     *time.Time
	lastSuccess *time.Time
	lastFailure *time.Time
}

// Scheduler owns job registration, trigger timing, mutual exclusion,
// retry policy and the run ledger.
// ⭐ SSOT: 스케줄 관리는 이 스케줄러에서만
type Scheduler struct {
	mu      sync.Mutex
	entries map[string]*entry
	logger  *logger.Logger
	cfg     Config

	ledger   contracts.JobRunRepository
	notifier contracts.Notifier
	onRun    func(contracts.JobRun)

	// now is injectable for tests
	now  func() time.Time
	wake chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a scheduler with the given policy
func New(log *logger.Logger, cfg Config) *Scheduler {
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 100
	}
	return &Scheduler{
		entries: make(map[string]*entry),
		logger:  log,
		cfg:     cfg,
		now:     time.Now,
		wake:    make(chan struct{}, 1),
	}
}

// WithLedger persists every run through the repository. Ledger write
// failures are logged and never fail the run itself.
func (s *Scheduler) WithLedger(ledger contracts.JobRunRepository) *Scheduler {
	s.ledger = ledger
	return s
}

// WithNotifier routes escalations and disable events to the notifier
func (s *Scheduler) WithNotifier(n contracts.Notifier) *Scheduler {
	s.notifier = n
	return s
}

// OnRun registers an observer called after every completed run
func (s *Scheduler) OnRun(fn func(contracts.JobRun)) {
	s.onRun = fn
}

// Schedule registers a job under a trigger. Job names are unique.
func (s *Scheduler) Schedule(job Job, trigger Trigger) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := job.Name()
	if _, exists := s.entries[name]; exists {
		return fmt.Errorf("job %s already registered", name)
	}

	e := &entry{
		job:     job,
		trigger: trigger,
		anchors: make(map[string]time.Time),
		history: NewHistory(s.cfg.HistoryLimit),
	}
	if trigger != nil {
		e.nextAt, e.hasNext = trigger.Next(s.now())
	}
	s.entries[name] = e

	desc := "manual only"
	if trigger != nil {
		desc = trigger.Describe()
	}
	s.logger.WithFields(map[string]interface{}{
		"job":      name,
		"schedule": desc,
	}).Info("Job registered")

	s.kick()
	return nil
}

// ScheduleAnchor adds or moves a one-shot fire time for a job, keyed so
// it can be cancelled. Used for per-contest runs derived from lock times.
func (s *Scheduler) ScheduleAnchor(jobName, key string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, exists := s.entries[jobName]
	if !exists {
		return fmt.Errorf("job %s not found", jobName)
	}
	if !at.After(s.now()) {
		return fmt.Errorf("anchor %s for job %s is in the past", key, jobName)
	}

	e.anchors[key] = at
	s.logger.WithFields(map[string]interface{}{
		"job":    jobName,
		"anchor": key,
		"at":     at,
	}).Info("Anchor scheduled")

	s.kick()
	return nil
}

// CancelAnchor drops a pending anchored fire. Cancelling an unknown
// key is a no-op.
func (s *Scheduler) CancelAnchor(jobName, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, exists := s.entries[jobName]
	if !exists {
		return
	}
	if _, pending := e.anchors[key]; pending {
		delete(e.anchors, key)
		s.logger.WithFields(map[string]interface{}{
			"job":    jobName,
			"anchor": key,
		}).Info("Anchor cancelled")
	}
}

// Anchors returns the pending anchor fire times for a job
func (s *Scheduler) Anchors(jobName string) map[string]time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, exists := s.entries[jobName]
	if !exists {
		return nil
	}
	out := make(map[string]time.Time, len(e.anchors))
	for k, v := range e.anchors {
		out[k] = v
	}
	return out
}

// Start launches the timing loop
func (s *Scheduler) Start(ctx context.Context) {
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.logger.Info("Starting scheduler")

	s.wg.Add(1)
	go s.loop()
}

// Stop cancels the loop and waits for in-flight runs to finish
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	s.logger.Info("Scheduler stopped")
}

// RunJob fires a job immediately, outside its schedule. Fails when the
// job is unknown, disabled, or already running.
func (s *Scheduler) RunJob(jobName string) error {
	s.mu.Lock()

	e, exists := s.entries[jobName]
	if !exists {
		s.mu.Unlock()
		return fmt.Errorf("job %s not found", jobName)
	}
	if e.disabled {
		s.mu.Unlock()
		return fmt.Errorf("job %s is disabled", jobName)
	}
	if e.running {
		s.mu.Unlock()
		return fmt.Errorf("job %s is already running", jobName)
	}

	e.running = true
	now := s.now()
	s.mu.Unlock()

	ctx := s.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	s.wg.Add(1)
	go s.execute(ctx, e, now, map[string]interface{}{"trigger": "manual"})
	return nil
}

// EnableJob clears the disabled flag and the consecutive failure count
func (s *Scheduler) EnableJob(jobName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, exists := s.entries[jobName]
	if !exists {
		return fmt.Errorf("job %s not found", jobName)
	}

	e.disabled = false
	e.consecFails = 0
	if e.trigger != nil {
		e.nextAt, e.hasNext = e.trigger.Next(s.now())
	}
	s.logger.WithField("job", jobName).Info("Job enabled")

	s.kick()
	return nil
}

// DisableJob stops a job from firing until EnableJob is called
func (s *Scheduler) DisableJob(jobName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, exists := s.entries[jobName]
	if !exists {
		return fmt.Errorf("job %s not found", jobName)
	}

	e.disabled = true
	s.logger.WithField("job", jobName).Info("Job disabled")
	return nil
}

// JobNames returns the registered job names
func (s *Scheduler) JobNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	return names
}

// JobHistory returns recent runs for a job, newest last
func (s *Scheduler) JobHistory(jobName string, n int) ([]contracts.JobRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, exists := s.entries[jobName]
	if !exists {
		return nil, fmt.Errorf("job %s not found", jobName)
	}
	return e.history.Latest(n), nil
}

// Stats returns a status snapshot for every job
func (s *Scheduler) Stats() map[string]JobStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := make(map[string]JobStats, len(s.entries))
	for name, e := range s.entries {
		success, failure, skipped := 0, 0, 0
		for _, run := range e.history.Runs {
			switch run.Outcome {
			case contracts.OutcomeSuccess:
				success++
			case contracts.OutcomeFailure:
				failure++
			case contracts.OutcomeSkipped:
				skipped++
			}
		}

		st := JobStats{
			JobName:          name,
			Schedule:         "manual only",
			Disabled:         e.disabled,
			Running:          e.running,
			ConsecutiveFails: e.consecFails,
			TotalRuns:        len(e.history.Runs),
			SuccessCount:     success,
			FailureCount:     failure,
			SkippedCount:     skipped,
			SuccessRate:      e.history.SuccessRate(),
			LastRun:          e.lastRun,
			LastSuccess:      e.lastSuccess,
			LastFailure:      e.lastFailure,
		}
		if e.trigger != nil {
			st.Schedule = e.trigger.Describe()
		}
		if e.hasNext && !e.disabled {
			next := e.nextAt
			st.NextRun = &next
		}
		stats[name] = st
	}
	return stats
}

// kick wakes the loop so new timing takes effect immediately
func (s *Scheduler) kick() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Scheduler) loop() {
	defer s.wg.Done()

	for {
		s.fireDue()

		wait := s.untilNext()
		timer := time.NewTimer(wait)

		select {
		case <-s.ctx.Done():
			timer.Stop()
			return
		case <-s.wake:
			timer.Stop()
		case <-timer.C:
		}
	}
}

// untilNext computes how long to sleep before the soonest fire time.
// Capped so clock adjustments and new anchors are picked up promptly.
func (s *Scheduler) untilNext() time.Duration {
	const maxSleep = time.Second

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	wait := maxSleep
	for _, e := range s.entries {
		if e.disabled {
			continue
		}
		if e.hasNext {
			if d := e.nextAt.Sub(now); d < wait {
				wait = d
			}
		}
		for _, at := range e.anchors {
			if d := at.Sub(now); d < wait {
				wait = d
			}
		}
	}
	if wait < 0 {
		wait = 0
	}
	return wait
}

// fireDue starts every job whose trigger or anchor time has arrived.
// A job already running when its slot arrives gets a skipped ledger
// entry instead of a second concurrent run.
func (s *Scheduler) fireDue() {
	type launch struct {
		e           *entry
		scheduledAt time.Time
		details     map[string]interface{}
	}
	var launches []launch
	var skips []contracts.JobRun

	s.mu.Lock()
	now := s.now()
	for name, e := range s.entries {
		if e.disabled {
			continue
		}

		var due []launch

		if e.hasNext && !e.nextAt.After(now) {
			due = append(due, launch{e: e, scheduledAt: e.nextAt, details: map[string]interface{}{"trigger": "schedule"}})
			e.nextAt, e.hasNext = e.trigger.Next(now)
		}

		for key, at := range e.anchors {
			if !at.After(now) {
				delete(e.anchors, key)
				due = append(due, launch{e: e, scheduledAt: at, details: map[string]interface{}{"trigger": "anchor", "anchor": key}})
			}
		}

		// Collapse multiple due slots into one run
		for i, l := range due {
			if i > 0 || e.running {
				skips = append(skips, contracts.JobRun{
					ID:          uuid.NewString(),
					JobName:     name,
					ScheduledAt: l.scheduledAt,
					StartedAt:   now,
					EndedAt:     now,
					Outcome:     contracts.OutcomeSkipped,
					Details:     l.details,
				})
				continue
			}
			e.running = true
			launches = append(launches, l)
		}
	}
	s.mu.Unlock()

	for _, run := range skips {
		s.logger.WithFields(map[string]interface{}{
			"job":          run.JobName,
			"scheduled_at": run.ScheduledAt,
		}).Warn("Job slot skipped, previous run still in progress")
		s.record(run, nil)
	}

	for _, l := range launches {
		s.wg.Add(1)
		go s.execute(s.ctx, l.e, l.scheduledAt, l.details)
	}
}

// execute runs one job with retry, classification and ledger recording
func (s *Scheduler) execute(ctx context.Context, e *entry, scheduledAt time.Time, details map[string]interface{}) {
	defer s.wg.Done()

	name := e.job.Name()
	start := s.now()

	s.logger.WithField("job", name).Info("Job started")

	var report *Report
	var lastErr error
	attempts := 0
	delay := s.cfg.RetryInitialDelay

	for {
		attempts++
		report, lastErr = e.job.Run(ctx)
		if lastErr == nil {
			break
		}

		class := contracts.Classify(lastErr)
		switch class {
		case contracts.ClassBusiness:
			// A legitimate outcome, recorded but not escalated
			s.logger.WithFields(map[string]interface{}{
				"job":     name,
				"outcome": lastErr.Error(),
			}).Info("Job finished with business outcome")
			if details == nil {
				details = make(map[string]interface{})
			}
			details["business_outcome"] = lastErr.Error()
			lastErr = nil

		case contracts.ClassFatal:
			s.logger.WithFields(map[string]interface{}{
				"job":   name,
				"error": lastErr.Error(),
			}).Error("Job failed with non-retryable error")
			s.notify(ctx, contracts.EventEscalation,
				fmt.Sprintf("job %s failed: %s", name, lastErr.Error()),
				map[string]interface{}{"job": name, "class": class.String()})

		case contracts.ClassTransient:
			if attempts <= s.cfg.MaxRetries {
				s.logger.WithFields(map[string]interface{}{
					"job":     name,
					"attempt": attempts,
					"delay":   delay,
					"error":   lastErr.Error(),
				}).Warn("Job failed, retrying")

				if !s.sleep(ctx, delay) {
					break
				}
				delay *= 2
				if delay > s.cfg.RetryMaxDelay {
					delay = s.cfg.RetryMaxDelay
				}
				continue
			}
			s.logger.WithFields(map[string]interface{}{
				"job":      name,
				"attempts": attempts,
				"error":    lastErr.Error(),
			}).Error("Job failed after all retries")
		}
		break
	}

	end := s.now()
	run := contracts.JobRun{
		ID:          uuid.NewString(),
		JobName:     name,
		ScheduledAt: scheduledAt,
		StartedAt:   start,
		EndedAt:     end,
		Attempts:    attempts,
		Details:     details,
	}
	if report != nil {
		run.ItemsProcessed = report.Items
		if len(report.Details) > 0 {
			if run.Details == nil {
				run.Details = make(map[string]interface{})
			}
			for k, v := range report.Details {
				run.Details[k] = v
			}
		}
	}
	if lastErr != nil {
		run.Outcome = contracts.OutcomeFailure
		run.Error = lastErr.Error()
	} else {
		run.Outcome = contracts.OutcomeSuccess
	}

	s.record(run, e)

	if lastErr == nil {
		s.logger.WithFields(map[string]interface{}{
			"job":      name,
			"duration": run.Duration(),
			"items":    run.ItemsProcessed,
		}).Info("Job completed")
	}
}

// sleep waits for d or until ctx is cancelled. Returns false on cancel.
func (s *Scheduler) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// record folds a finished run into history, failure accounting and the
// persistent ledger
func (s *Scheduler) record(run contracts.JobRun, e *entry) {
	var disabledNow bool

	s.mu.Lock()
	if e == nil {
		e = s.entries[run.JobName]
	}
	if e != nil {
		e.history.Add(run)

		if run.Outcome != contracts.OutcomeSkipped {
			e.running = false
			at := run.StartedAt
			e.lastRun = &at

			switch run.Outcome {
			case contracts.OutcomeSuccess:
				e.consecFails = 0
				e.lastSuccess = &at
			case contracts.OutcomeFailure:
				e.consecFails++
				e.lastFailure = &at
				if s.cfg.DisableAfterFails > 0 && e.consecFails >= s.cfg.DisableAfterFails && !e.disabled {
					e.disabled = true
					disabledNow = true
				}
			}
		}
	}
	s.mu.Unlock()

	if disabledNow {
		s.logger.WithFields(map[string]interface{}{
			"job":   run.JobName,
			"fails": s.cfg.DisableAfterFails,
		}).Error("Job auto-disabled after consecutive failures")
		s.notify(context.Background(), contracts.EventJobDisable,
			fmt.Sprintf("job %s disabled after %d consecutive failures", run.JobName, s.cfg.DisableAfterFails),
			map[string]interface{}{"job": run.JobName})
	}

	if s.ledger != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.ledger.Record(ctx, &run); err != nil {
			s.logger.WithError(err).WithField("job", run.JobName).Error("Failed to persist job run")
		}
		cancel()
	}

	if s.onRun != nil {
		s.onRun(run)
	}
}

// notify delivers an operator event when a notifier is configured
func (s *Scheduler) notify(ctx context.Context, kind contracts.EventKind, msg string, fields map[string]interface{}) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, kind, msg, fields)
}
