package store

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/dfs/backend/internal/contracts"
)

// JobRunRepository implements contracts.JobRunRepository
// ⭐ SSOT: 잡 실행 기록 저장소는 여기서만
type JobRunRepository struct {
	pool *pgxpool.Pool
}

// NewJobRunRepository creates a new job run repository
func NewJobRunRepository(pool *pgxpool.Pool) *JobRunRepository {
	return &JobRunRepository{pool: pool}
}

// Record appends one run to the ledger. Assigns the id when unset.
func (r *JobRunRepository) Record(ctx context.Context, run *contracts.JobRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}

	var details []byte
	if run.Details != nil {
		var err error
		details, err = json.Marshal(run.Details)
		if err != nil {
			return err
		}
	}

	query := `
		INSERT INTO job_runs (id, job_name, scheduled_at, started_at, ended_at, outcome, error, attempts, items_processed, details)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.pool.Exec(ctx, query,
		run.ID, run.JobName, run.ScheduledAt, run.StartedAt, run.EndedAt,
		run.Outcome, run.Error, run.Attempts, run.ItemsProcessed, details,
	)
	return err
}

// ListRecent retrieves the newest runs for a job, newest first.
// Empty jobName returns runs across all jobs.
func (r *JobRunRepository) ListRecent(ctx context.Context, jobName string, limit int) ([]contracts.JobRun, error) {
	query := `
		SELECT id, job_name, scheduled_at, started_at, ended_at, outcome, error, attempts, items_processed, details
		FROM job_runs
		WHERE ($1 = '' OR job_name = $1)
		ORDER BY started_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, jobName, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []contracts.JobRun
	for rows.Next() {
		var run contracts.JobRun
		var details []byte
		err := rows.Scan(
			&run.ID, &run.JobName, &run.ScheduledAt, &run.StartedAt, &run.EndedAt,
			&run.Outcome, &run.Error, &run.Attempts, &run.ItemsProcessed, &details,
		)
		if err != nil {
			return nil, err
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &run.Details); err != nil {
				return nil, err
			}
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
