package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/dfs/backend/internal/contracts"
	"github.com/wonny/dfs/backend/internal/pipeline"
	"github.com/wonny/dfs/backend/internal/scheduler"
	"github.com/wonny/dfs/backend/pkg/config"
	"github.com/wonny/dfs/backend/pkg/logger"
)

// LineupGenerationJob builds draft lineups for eligible contests. Fired
// both on anchors near each contest's lock time and manually.
type LineupGenerationJob struct {
	service *pipeline.Service
	config  *config.Config
	logger  *logger.Logger
}

// NewLineupGenerationJob creates a new lineup generation job
func NewLineupGenerationJob(svc *pipeline.Service, cfg *config.Config, log *logger.Logger) *LineupGenerationJob {
	return &LineupGenerationJob{service: svc, config: cfg, logger: log}
}

// Name returns the job name
func (j *LineupGenerationJob) Name() string {
	return "generate_lineups"
}

// Run generates lineups per configured sport. When every attempted
// contest had no feasible roster, the run reports a no-valid-lineup
// outcome so it is recorded without escalation.
func (j *LineupGenerationJob) Run(ctx context.Context) (*scheduler.Report, error) {
	report := &scheduler.Report{Details: map[string]interface{}{}}

	attempted, failed := 0, 0
	for _, name := range j.config.Sports {
		sport, err := contracts.ParseSport(name)
		if err != nil {
			continue
		}
		result, err := j.service.GenerateLineups(ctx, sport)
		if result != nil {
			report.Items += result.Generated
			attempted += result.Contests
			failed += len(result.NoLineup)
			if len(result.NoLineup) > 0 {
				report.Details[string(sport)+"_no_lineup"] = result.NoLineup
			}
		}
		if err != nil {
			return report, err
		}
	}

	if attempted > 0 && report.Items == 0 && failed == attempted {
		return report, fmt.Errorf("%d contests attempted: %w", attempted, contracts.ErrNoValidLineup)
	}
	return report, nil
}
