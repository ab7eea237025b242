package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Trigger computes when a job fires next.
// ⭐ SSOT: 트리거 타이밍 계산은 여기서만
type Trigger interface {
	// Next returns the first fire time strictly after now.
	// ok is false when the trigger will never fire again.
	Next(now time.Time) (next time.Time, ok bool)

	// Describe returns a human-readable schedule for status output
	Describe() string
}

// IntervalTrigger fires at fixed offsets from its start time.
// Fire times stay aligned to start + n*every regardless of how long
// runs take; missed slots collapse into the next aligned slot.
type IntervalTrigger struct {
	Start time.Time
	Every time.Duration
}

// NewIntervalTrigger creates an interval trigger anchored at start
func NewIntervalTrigger(start time.Time, every time.Duration) (*IntervalTrigger, error) {
	if every <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %s", every)
	}
	return &IntervalTrigger{Start: start, Every: every}, nil
}

func (t *IntervalTrigger) Next(now time.Time) (time.Time, bool) {
	if now.Before(t.Start) {
		return t.Start, true
	}
	elapsed := now.Sub(t.Start)
	n := elapsed/t.Every + 1
	return t.Start.Add(n * t.Every), true
}

func (t *IntervalTrigger) Describe() string {
	return fmt.Sprintf("every %s", t.Every)
}

// CronTrigger fires per a standard 5-field cron expression
type CronTrigger struct {
	expr     string
	schedule cron.Schedule
}

// NewCronTrigger parses a cron expression into a trigger
func NewCronTrigger(expr string) (*CronTrigger, error) {
	schedule, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return &CronTrigger{expr: expr, schedule: schedule}, nil
}

func (t *CronTrigger) Next(now time.Time) (time.Time, bool) {
	return t.schedule.Next(now), true
}

func (t *CronTrigger) Describe() string {
	return fmt.Sprintf("cron %s", t.expr)
}

// OnceTrigger fires exactly once at a fixed time. Used for one-shot
// runs derived from contest lock times.
type OnceTrigger struct {
	At time.Time
}

func (t *OnceTrigger) Next(now time.Time) (time.Time, bool) {
	if now.Before(t.At) {
		return t.At, true
	}
	return time.Time{}, false
}

func (t *OnceTrigger) Describe() string {
	return fmt.Sprintf("once at %s", t.At.Format(time.RFC3339))
}
