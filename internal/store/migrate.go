package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Migrate creates the schema if it does not exist. Statements are
// idempotent so the command is safe to run on every deploy.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS contests (
			id VARCHAR(64) PRIMARY KEY,
			series_id BIGINT NOT NULL DEFAULT 0,
			sport VARCHAR(10) NOT NULL,
			name VARCHAR(255) NOT NULL DEFAULT '',
			entry_fee DOUBLE PRECISION NOT NULL,
			max_entries INT NOT NULL DEFAULT 1,
			total_entries INT NOT NULL DEFAULT 0,
			entry_limit INT NOT NULL DEFAULT 0,
			prize_pool DOUBLE PRECISION NOT NULL DEFAULT 0,
			lock_time TIMESTAMPTZ NOT NULL,
			format VARCHAR(20) NOT NULL DEFAULT 'classic',
			multi_entry BOOLEAN NOT NULL DEFAULT FALSE,
			guaranteed BOOLEAN NOT NULL DEFAULT FALSE,
			salary_cap INT NOT NULL DEFAULT 200,
			status VARCHAR(20) NOT NULL DEFAULT 'upcoming',
			entries_submitted INT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS player_pool (
			id BIGSERIAL PRIMARY KEY,
			contest_id VARCHAR(64) NOT NULL REFERENCES contests(id),
			player_id VARCHAR(50) NOT NULL,
			player_game_code VARCHAR(100) NOT NULL DEFAULT '',
			name VARCHAR(100) NOT NULL,
			team VARCHAR(10) NOT NULL DEFAULT '',
			position VARCHAR(20) NOT NULL DEFAULT '',
			eligible_positions VARCHAR(100) NOT NULL DEFAULT '',
			salary INT NOT NULL,
			game_code VARCHAR(50) NOT NULL DEFAULT '',
			game_time TIMESTAMPTZ,
			opponent VARCHAR(10) NOT NULL DEFAULT '',
			injury_status VARCHAR(20) NOT NULL DEFAULT '',
			injury_note TEXT NOT NULL DEFAULT '',
			fppg DOUBLE PRECISION NOT NULL DEFAULT 0,
			synced_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS projections (
			id BIGSERIAL PRIMARY KEY,
			sport VARCHAR(10) NOT NULL,
			player_id VARCHAR(50) NOT NULL DEFAULT '',
			player_name VARCHAR(100) NOT NULL DEFAULT '',
			team VARCHAR(10) NOT NULL DEFAULT '',
			position VARCHAR(20) NOT NULL DEFAULT '',
			source VARCHAR(50) NOT NULL,
			points DOUBLE PRECISION NOT NULL,
			floor DOUBLE PRECISION NOT NULL DEFAULT 0,
			ceiling DOUBLE PRECISION NOT NULL DEFAULT 0,
			ownership DOUBLE PRECISION NOT NULL DEFAULT 0,
			fetched_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS lineups (
			id BIGSERIAL PRIMARY KEY,
			contest_id VARCHAR(64) NOT NULL REFERENCES contests(id),
			slots JSONB NOT NULL,
			total_salary INT NOT NULL,
			projected_points DOUBLE PRECISION NOT NULL,
			hash VARCHAR(32) NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'draft',
			entry_id VARCHAR(100) NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			submitted_at TIMESTAMPTZ,
			UNIQUE(contest_id, hash)
		)`,
		`CREATE TABLE IF NOT EXISTS submission_records (
			id BIGSERIAL PRIMARY KEY,
			lineup_id BIGINT NOT NULL REFERENCES lineups(id),
			submitted_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			confirmation_id VARCHAR(100) NOT NULL DEFAULT '',
			failure_reason TEXT NOT NULL DEFAULT '',
			retry_count INT NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS job_runs (
			id UUID PRIMARY KEY,
			job_name VARCHAR(100) NOT NULL,
			scheduled_at TIMESTAMPTZ NOT NULL,
			started_at TIMESTAMPTZ NOT NULL,
			ended_at TIMESTAMPTZ NOT NULL,
			outcome VARCHAR(20) NOT NULL,
			error TEXT NOT NULL DEFAULT '',
			attempts INT NOT NULL DEFAULT 0,
			items_processed INT NOT NULL DEFAULT 0,
			details JSONB
		)`,
		`CREATE INDEX IF NOT EXISTS idx_contests_sport_lock ON contests(sport, lock_time)`,
		`CREATE INDEX IF NOT EXISTS idx_player_pool_contest ON player_pool(contest_id)`,
		`CREATE INDEX IF NOT EXISTS idx_projections_lookup ON projections(sport, source, player_id, fetched_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_lineups_contest ON lineups(contest_id)`,
		`CREATE INDEX IF NOT EXISTS idx_lineups_status ON lineups(status)`,
		`CREATE INDEX IF NOT EXISTS idx_submission_records_lineup ON submission_records(lineup_id)`,
		`CREATE INDEX IF NOT EXISTS idx_job_runs_name ON job_runs(job_name, started_at DESC)`,
	}

	for _, migration := range migrations {
		if _, err := pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("executing migration: %w", err)
		}
	}
	return nil
}
