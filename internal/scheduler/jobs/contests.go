package jobs

import (
	"context"
	"time"

	"github.com/wonny/dfs/backend/internal/contracts"
	"github.com/wonny/dfs/backend/internal/pipeline"
	"github.com/wonny/dfs/backend/internal/scheduler"
	"github.com/wonny/dfs/backend/pkg/config"
	"github.com/wonny/dfs/backend/pkg/logger"
)

// AnchorScheduler is the slice of the scheduler the contest sync job
// uses to keep per-contest generation anchors in step with lock times
type AnchorScheduler interface {
	ScheduleAnchor(jobName, key string, at time.Time) error
	CancelAnchor(jobName, key string)
	Anchors(jobName string) map[string]time.Time
}

// ContestSyncJob discovers contests and maintains the per-contest
// lineup generation anchors derived from their lock times
// ⭐ SSOT: 컨테스트 동기화 스케줄은 이 Job에서만
type ContestSyncJob struct {
	service *pipeline.Service
	anchors AnchorScheduler
	config  *config.Config
	logger  *logger.Logger
}

// NewContestSyncJob creates a new contest sync job
func NewContestSyncJob(svc *pipeline.Service, anchors AnchorScheduler, cfg *config.Config, log *logger.Logger) *ContestSyncJob {
	return &ContestSyncJob{
		service: svc,
		anchors: anchors,
		config:  cfg,
		logger:  log,
	}
}

// Name returns the job name
func (j *ContestSyncJob) Name() string {
	return "sync_contests"
}

// Run syncs contests for every configured sport, then re-anchors lineup
// generation per eligible contest at lock_time minus the generate offset
func (j *ContestSyncJob) Run(ctx context.Context) (*scheduler.Report, error) {
	report := &scheduler.Report{Details: map[string]interface{}{}}

	eligible := make(map[string]contracts.Contest)
	for _, name := range j.config.Sports {
		sport, err := contracts.ParseSport(name)
		if err != nil {
			j.logger.WithError(err).Warn("Skipping unknown sport")
			continue
		}

		result, err := j.service.SyncContests(ctx, sport)
		if err != nil {
			return report, err
		}
		report.Items += result.Upserted
		report.Details[string(sport)] = result.Fetched

		for _, c := range result.Eligible {
			eligible[c.ID] = c
		}
	}

	j.maintainAnchors(eligible)
	return report, nil
}

// maintainAnchors schedules a generation anchor per eligible contest and
// drops anchors for contests that are gone or locked. Re-anchoring the
// same key moves it, so lock time changes are picked up.
func (j *ContestSyncJob) maintainAnchors(eligible map[string]contracts.Contest) {
	if j.anchors == nil {
		return
	}
	const jobName = "generate_lineups"

	for key := range j.anchors.Anchors(jobName) {
		if _, still := eligible[key]; !still {
			j.anchors.CancelAnchor(jobName, key)
		}
	}

	now := time.Now()
	for id, c := range eligible {
		at := c.LockTime.Add(-j.config.Scheduler.GenerateOffset)
		if !at.After(now) {
			continue
		}
		if err := j.anchors.ScheduleAnchor(jobName, id, at); err != nil {
			j.logger.WithError(err).WithField("contest_id", id).Warn("Failed to anchor lineup generation")
		}
	}
}
