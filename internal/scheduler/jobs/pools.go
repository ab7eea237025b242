package jobs

import (
	"context"

	"github.com/wonny/dfs/backend/internal/contracts"
	"github.com/wonny/dfs/backend/internal/pipeline"
	"github.com/wonny/dfs/backend/internal/scheduler"
	"github.com/wonny/dfs/backend/pkg/config"
	"github.com/wonny/dfs/backend/pkg/logger"
)

// PlayerPoolSyncJob refreshes player pools for eligible contests
type PlayerPoolSyncJob struct {
	service *pipeline.Service
	config  *config.Config
	logger  *logger.Logger
}

// NewPlayerPoolSyncJob creates a new player pool sync job
func NewPlayerPoolSyncJob(svc *pipeline.Service, cfg *config.Config, log *logger.Logger) *PlayerPoolSyncJob {
	return &PlayerPoolSyncJob{service: svc, config: cfg, logger: log}
}

// Name returns the job name
func (j *PlayerPoolSyncJob) Name() string {
	return "sync_player_pools"
}

// Run replaces the pool of every eligible contest, per configured sport
func (j *PlayerPoolSyncJob) Run(ctx context.Context) (*scheduler.Report, error) {
	report := &scheduler.Report{}
	for _, name := range j.config.Sports {
		sport, err := contracts.ParseSport(name)
		if err != nil {
			continue
		}
		n, err := j.service.SyncPlayerPools(ctx, sport)
		report.Items += n
		if err != nil {
			return report, err
		}
	}
	return report, nil
}
