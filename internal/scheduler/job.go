package scheduler

import (
	"context"
	"time"

	"github.com/wonny/dfs/backend/internal/contracts"
)

// Report summarizes what one job run accomplished
type Report struct {
	Items   int
	Details map[string]interface{}
}

// Job represents a schedulable unit of work
// ⭐ SSOT: 스케줄 작업 인터페이스는 여기서만 정의
type Job interface {
	// Name returns the unique job name
	Name() string

	// Run executes the job. Errors are classified against the failure
	// taxonomy to decide retry or escalation. A nil Report is allowed.
	Run(ctx context.Context) (*Report, error)
}

// FuncJob adapts a function to the Job interface
type FuncJob struct {
	JobName string
	Fn      func(ctx context.Context) (*Report, error)
}

func (j *FuncJob) Name() string { return j.JobName }

func (j *FuncJob) Run(ctx context.Context) (*Report, error) { return j.Fn(ctx) }

// History stores recent runs for one job, newest last
type History struct {
	Runs  []contracts.JobRun
	limit int
}

// NewHistory creates a bounded run history
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = 100
	}
	return &History{limit: limit}
}

// Add appends a run, evicting the oldest past the limit
func (h *History) Add(run contracts.JobRun) {
	h.Runs = append(h.Runs, run)
	if len(h.Runs) > h.limit {
		h.Runs = h.Runs[len(h.Runs)-h.limit:]
	}
}

// Latest returns the newest n runs
func (h *History) Latest(n int) []contracts.JobRun {
	if n > len(h.Runs) {
		n = len(h.Runs)
	}
	if n == 0 {
		return []contracts.JobRun{}
	}
	return h.Runs[len(h.Runs)-n:]
}

// SuccessRate returns the fraction of executed runs that succeeded.
// Skipped runs do not count against the rate.
func (h *History) SuccessRate() float64 {
	executed, succeeded := 0, 0
	for _, run := range h.Runs {
		if run.Outcome == contracts.OutcomeSkipped {
			continue
		}
		executed++
		if run.Outcome == contracts.OutcomeSuccess {
			succeeded++
		}
	}
	if executed == 0 {
		return 0.0
	}
	return float64(succeeded) / float64(executed)
}

// JobStats is a point-in-time view of one job for status output
type JobStats struct {
	JobName          string     `json:"job_name"`
	Schedule         string     `json:"schedule"`
	Disabled         bool       `json:"disabled"`
	Running          bool       `json:"running"`
	ConsecutiveFails int        `json:"consecutive_fails"`
	TotalRuns        int        `json:"total_runs"`
	SuccessCount     int        `json:"success_count"`
	FailureCount     int        `json:"failure_count"`
	SkippedCount     int        `json:"skipped_count"`
	SuccessRate      float64    `json:"success_rate"`
	NextRun          *time.Time `json:"next_run,omitempty"`
	LastRun          *time.Time `json:"last_run,omitempty"`
	LastSuccess      *time.Time `json:"last_success,omitempty"`
	LastFailure      *time.Time `json:"last_failure,omitempty"`
}
