package jobs

import (
	"context"

	"github.com/wonny/dfs/backend/internal/contracts"
	"github.com/wonny/dfs/backend/internal/pipeline"
	"github.com/wonny/dfs/backend/internal/scheduler"
	"github.com/wonny/dfs/backend/pkg/config"
	"github.com/wonny/dfs/backend/pkg/logger"
)

// SubmissionJob checks submission timing and enters due lineups
// ⭐ SSOT: 제출 스케줄은 이 Job에서만
type SubmissionJob struct {
	service *pipeline.Service
	config  *config.Config
	logger  *logger.Logger
}

// NewSubmissionJob creates a new submission job
func NewSubmissionJob(svc *pipeline.Service, cfg *config.Config, log *logger.Logger) *SubmissionJob {
	return &SubmissionJob{service: svc, config: cfg, logger: log}
}

// Name returns the job name
func (j *SubmissionJob) Name() string {
	return "submit_lineups"
}

// Run submits lineups whose contests hit the fill or time thresholds
func (j *SubmissionJob) Run(ctx context.Context) (*scheduler.Report, error) {
	report := &scheduler.Report{Details: map[string]interface{}{}}
	for _, name := range j.config.Sports {
		sport, err := contracts.ParseSport(name)
		if err != nil {
			continue
		}
		result, err := j.service.SubmitDue(ctx, sport)
		if result != nil {
			report.Items += result.Submitted
			if result.Rejected > 0 {
				report.Details[string(sport)+"_rejected"] = result.Rejected
			}
			if result.Waiting > 0 {
				report.Details[string(sport)+"_waiting"] = result.Waiting
			}
		}
		if err != nil {
			return report, err
		}
	}
	return report, nil
}
