package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/dfs/backend/internal/contracts"
)

// SubmissionRepository implements contracts.SubmissionRepository
// ⭐ SSOT: 제출 기록 저장소는 여기서만
type SubmissionRepository struct {
	pool *pgxpool.Pool
}

// NewSubmissionRepository creates a new submission repository
func NewSubmissionRepository(pool *pgxpool.Pool) *SubmissionRepository {
	return &SubmissionRepository{pool: pool}
}

// Record appends one submission attempt to the audit trail
func (r *SubmissionRepository) Record(ctx context.Context, rec *contracts.SubmissionRecord) error {
	query := `
		INSERT INTO submission_records (lineup_id, submitted_at, confirmation_id, failure_reason, retry_count)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	return r.pool.QueryRow(ctx, query,
		rec.LineupID, rec.SubmittedAt, rec.ConfirmationID, rec.FailureReason, rec.RetryCount,
	).Scan(&rec.ID)
}

// CountAttempts returns how many attempts exist for a lineup
func (r *SubmissionRepository) CountAttempts(ctx context.Context, lineupID int64) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM submission_records WHERE lineup_id = $1`,
		lineupID,
	).Scan(&n)
	return n, err
}

// ListByLineup retrieves the attempt history for a lineup, oldest first
func (r *SubmissionRepository) ListByLineup(ctx context.Context, lineupID int64) ([]contracts.SubmissionRecord, error) {
	query := `
		SELECT id, lineup_id, submitted_at, confirmation_id, failure_reason, retry_count
		FROM submission_records
		WHERE lineup_id = $1
		ORDER BY retry_count ASC
	`

	rows, err := r.pool.Query(ctx, query, lineupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []contracts.SubmissionRecord
	for rows.Next() {
		var rec contracts.SubmissionRecord
		err := rows.Scan(&rec.ID, &rec.LineupID, &rec.SubmittedAt, &rec.ConfirmationID, &rec.FailureReason, &rec.RetryCount)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
