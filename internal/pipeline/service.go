package pipeline

import (
	"time"

	"github.com/wonny/dfs/backend/internal/contracts"
	"github.com/wonny/dfs/backend/internal/fillmonitor"
	"github.com/wonny/dfs/backend/internal/swap"
	"github.com/wonny/dfs/backend/pkg/config"
	"github.com/wonny/dfs/backend/pkg/logger"
)

// Service runs the contest pipeline stages. The scheduler decides when
// each stage fires; the service owns what a stage does.
// ⭐ SSOT: 파이프라인 단계 실행은 여기서만
type Service struct {
	logger *logger.Logger
	cfg    *config.Config

	contests    contracts.ContestRepository
	pools       contracts.PlayerPoolRepository
	projections contracts.ProjectionRepository
	lineups     contracts.LineupRepository
	submissions contracts.SubmissionRepository

	source     contracts.ContestSource
	projSource contracts.ProjectionSource
	optimizer  contracts.Optimizer
	submitter  contracts.Submitter
	notifier   contracts.Notifier

	monitor *fillmonitor.Monitor
	planner *swap.Planner

	// now is injectable for tests
	now func() time.Time
}

// Deps collects everything a Service needs
type Deps struct {
	Logger *logger.Logger
	Config *config.Config

	Contests    contracts.ContestRepository
	Pools       contracts.PlayerPoolRepository
	Projections contracts.ProjectionRepository
	Lineups     contracts.LineupRepository
	Submissions contracts.SubmissionRepository

	Source     contracts.ContestSource
	ProjSource contracts.ProjectionSource
	Optimizer  contracts.Optimizer
	Submitter  contracts.Submitter
	Notifier   contracts.Notifier
}

// New creates a pipeline service
func New(d Deps) *Service {
	return &Service{
		logger:      d.Logger,
		cfg:         d.Config,
		contests:    d.Contests,
		pools:       d.Pools,
		projections: d.Projections,
		lineups:     d.Lineups,
		submissions: d.Submissions,
		source:      d.Source,
		projSource:  d.ProjSource,
		optimizer:   d.Optimizer,
		submitter:   d.Submitter,
		notifier:    d.Notifier,
		monitor: fillmonitor.New(fillmonitor.Config{
			FillRateThreshold: d.Config.Fill.FillRateThreshold,
			TimeBeforeLock:    d.Config.Fill.TimeBeforeLock,
			StopEditWindow:    d.Config.Fill.StopEditWindow,
		}),
		planner: swap.New(d.Logger),
		now:     time.Now,
	}
}

// constraintsFor derives optimizer constraints from a contest
func (s *Service) constraintsFor(contest *contracts.Contest, count int) contracts.Constraints {
	cap := contest.SalaryCap
	if cap <= 0 {
		cap = s.cfg.Lineups.SalaryCap
	}
	return contracts.Constraints{
		ContestID:  contest.ID,
		SalaryCap:  cap,
		Format:     contest.Format,
		Sport:      contest.Sport,
		MaxOverlap: s.cfg.Lineups.MaxOverlap,
		Count:      count,
	}
}
