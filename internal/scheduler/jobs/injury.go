package jobs

import (
	"context"

	"github.com/wonny/dfs/backend/internal/contracts"
	"github.com/wonny/dfs/backend/internal/pipeline"
	"github.com/wonny/dfs/backend/internal/scheduler"
	"github.com/wonny/dfs/backend/pkg/config"
	"github.com/wonny/dfs/backend/pkg/logger"
)

// InjuryMonitorJob watches submitted lineups for ruled-out starters and
// swaps them while the contest is still editable
type InjuryMonitorJob struct {
	service *pipeline.Service
	config  *config.Config
	logger  *logger.Logger
}

// NewInjuryMonitorJob creates a new injury monitor job
func NewInjuryMonitorJob(svc *pipeline.Service, cfg *config.Config, log *logger.Logger) *InjuryMonitorJob {
	return &InjuryMonitorJob{service: svc, config: cfg, logger: log}
}

// Name returns the job name
func (j *InjuryMonitorJob) Name() string {
	return "monitor_swaps"
}

// Run checks every submitted lineup in editable contests
func (j *InjuryMonitorJob) Run(ctx context.Context) (*scheduler.Report, error) {
	report := &scheduler.Report{Details: map[string]interface{}{}}
	for _, name := range j.config.Sports {
		sport, err := contracts.ParseSport(name)
		if err != nil {
			continue
		}
		result, err := j.service.MonitorAndSwap(ctx, sport)
		if result != nil {
			report.Items += result.Lineups
			if result.Swapped > 0 {
				report.Details[string(sport)+"_swapped"] = result.Swapped
			}
		}
		if err != nil {
			return report, err
		}
	}
	return report, nil
}
