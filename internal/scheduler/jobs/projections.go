package jobs

import (
	"context"

	"github.com/wonny/dfs/backend/internal/contracts"
	"github.com/wonny/dfs/backend/internal/pipeline"
	"github.com/wonny/dfs/backend/internal/scheduler"
	"github.com/wonny/dfs/backend/pkg/config"
	"github.com/wonny/dfs/backend/pkg/logger"
)

// ProjectionSyncJob pulls fresh projections for every configured sport
type ProjectionSyncJob struct {
	service *pipeline.Service
	config  *config.Config
	logger  *logger.Logger
}

// NewProjectionSyncJob creates a new projection sync job
func NewProjectionSyncJob(svc *pipeline.Service, cfg *config.Config, log *logger.Logger) *ProjectionSyncJob {
	return &ProjectionSyncJob{service: svc, config: cfg, logger: log}
}

// Name returns the job name
func (j *ProjectionSyncJob) Name() string {
	return "sync_projections"
}

// Run appends the current slate's projections. A sport with no slate
// contributes zero rows and is not an error.
func (j *ProjectionSyncJob) Run(ctx context.Context) (*scheduler.Report, error) {
	report := &scheduler.Report{}
	for _, name := range j.config.Sports {
		sport, err := contracts.ParseSport(name)
		if err != nil {
			continue
		}
		n, err := j.service.SyncProjections(ctx, sport)
		report.Items += n
		if err != nil {
			return report, err
		}
	}
	return report, nil
}
