package commands

import (
	"fmt"
	"time"

	"github.com/wonny/dfs/backend/internal/api"
	"github.com/wonny/dfs/backend/internal/api/handlers"
	"github.com/wonny/dfs/backend/internal/external/fantasyfuel"
	"github.com/wonny/dfs/backend/internal/external/yahoo"
	"github.com/wonny/dfs/backend/internal/notify"
	"github.com/wonny/dfs/backend/internal/optimizer"
	"github.com/wonny/dfs/backend/internal/pipeline"
	"github.com/wonny/dfs/backend/internal/scheduler"
	"github.com/wonny/dfs/backend/internal/scheduler/jobs"
	"github.com/wonny/dfs/backend/internal/store"
	"github.com/wonny/dfs/backend/pkg/config"
	"github.com/wonny/dfs/backend/pkg/database"
	"github.com/wonny/dfs/backend/pkg/httputil"
	"github.com/wonny/dfs/backend/pkg/logger"
	"github.com/wonny/dfs/backend/pkg/redis"
)

// app bundles every wired component the commands need
// ⭐ SSOT: 의존성 조립은 이 파일에서만
type app struct {
	cfg    *config.Config
	logger *logger.Logger
	db     *database.DB
	rdb    *redis.Client

	ledger    *store.JobRunRepository
	service   *pipeline.Service
	scheduler *scheduler.Scheduler
	hub       *api.Hub
	server    *api.Server
}

// initApp loads config and assembles the whole object graph
func initApp() (*app, error) {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Connect to database
	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	// 4. Connect to Redis (rate limit coordination; optional)
	rdb, err := redis.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	// 5. HTTP clients. Scraping shares one budget across processes via
	// the Redis rate limiter; the Yahoo client rate-limits itself.
	baseClient := httputil.New(log)
	scrapeClient := httputil.New(log).WithRateLimiter(
		redis.NewRateLimiter(rdb, "dfs"),
		redis.RateLimitConfig{Key: "fantasyfuel", Limit: 10, Window: time.Minute},
	)

	// 6. External clients
	yahooClient := yahoo.NewClient(baseClient, log, cfg)
	dffClient := fantasyfuel.NewClient(scrapeClient, log, cfg).
		WithCache(redis.NewCache(rdb, "dfs"), 5*time.Minute)
	notifier := notify.New(baseClient, log, cfg)

	// 7. Repositories
	contests := store.NewContestRepository(db.Pool)
	pools := store.NewPlayerPoolRepository(db.Pool)
	projections := store.NewProjectionRepository(db.Pool)
	lineups := store.NewLineupRepository(db.Pool)
	submissions := store.NewSubmissionRepository(db.Pool)
	ledger := store.NewJobRunRepository(db.Pool)

	// 8. Pipeline service
	svc := pipeline.New(pipeline.Deps{
		Logger:      log,
		Config:      cfg,
		Contests:    contests,
		Pools:       pools,
		Projections: projections,
		Lineups:     lineups,
		Submissions: submissions,
		Source:      yahooClient,
		ProjSource:  dffClient,
		Optimizer:   optimizer.New(log, time.Now().UnixNano()),
		Submitter:   yahooClient,
		Notifier:    notifier,
	})

	// 9. Scheduler with jobs
	sched := scheduler.New(log, scheduler.Config{
		MaxRetries:        cfg.Scheduler.MaxRetries,
		RetryInitialDelay: cfg.Scheduler.RetryInitialDelay,
		RetryMaxDelay:     cfg.Scheduler.RetryMaxDelay,
		DisableAfterFails: cfg.Scheduler.DisableAfterFails,
		HistoryLimit:      cfg.Scheduler.HistoryLimit,
	}).WithLedger(ledger).WithNotifier(notifier)

	if err := registerJobs(sched, svc, cfg, log); err != nil {
		return nil, fmt.Errorf("register jobs: %w", err)
	}

	// 10. API surface. The hub relays finished runs to websocket clients.
	hub := api.NewHub(log)
	sched.OnRun(hub.Publish)

	jobsHandler := handlers.NewJobsHandler(sched, ledger, log)
	contestHandler := handlers.NewContestHandler(contests, pools, lineups, submissions, svc, log)
	router := api.NewRouter(jobsHandler, contestHandler, hub, log)
	server := api.New(cfg, log, router)

	return &app{
		cfg:       cfg,
		logger:    log,
		db:        db,
		rdb:       rdb,
		ledger:    ledger,
		service:   svc,
		scheduler: sched,
		hub:       hub,
		server:    server,
	}, nil
}

// registerJobs schedules the six pipeline jobs. Lineup generation has
// no periodic trigger; it fires on per-contest anchors maintained by
// the contest sync job, and manually.
func registerJobs(sched *scheduler.Scheduler, svc *pipeline.Service, cfg *config.Config, log *logger.Logger) error {
	contestTrigger, err := scheduler.NewCronTrigger(cfg.Scheduler.ContestSyncCron)
	if err != nil {
		return err
	}
	if err := sched.Schedule(jobs.NewContestSyncJob(svc, sched, cfg, log), contestTrigger); err != nil {
		return err
	}

	now := time.Now()
	intervals := []struct {
		job   scheduler.Job
		every time.Duration
	}{
		{jobs.NewPlayerPoolSyncJob(svc, cfg, log), cfg.Scheduler.PoolInterval},
		{jobs.NewProjectionSyncJob(svc, cfg, log), cfg.Scheduler.ProjectionInterval},
		{jobs.NewSubmissionJob(svc, cfg, log), cfg.Scheduler.SubmissionInterval},
		{jobs.NewInjuryMonitorJob(svc, cfg, log), cfg.Scheduler.InjuryInterval},
	}
	for _, it := range intervals {
		trigger, err := scheduler.NewIntervalTrigger(now, it.every)
		if err != nil {
			return err
		}
		if err := sched.Schedule(it.job, trigger); err != nil {
			return err
		}
	}

	return sched.Schedule(jobs.NewLineupGenerationJob(svc, cfg, log), nil)
}

func (a *app) close() {
	if a.rdb != nil {
		a.rdb.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}
