package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/dfs/backend/internal/contracts"
)

// ContestRepository implements contracts.ContestRepository
// ⭐ SSOT: 콘테스트 저장소는 여기서만
type ContestRepository struct {
	pool *pgxpool.Pool
}

// NewContestRepository creates a new contest repository
func NewContestRepository(pool *pgxpool.Pool) *ContestRepository {
	return &ContestRepository{pool: pool}
}

const contestColumns = `
	id, series_id, sport, name, entry_fee, max_entries, total_entries,
	entry_limit, prize_pool, lock_time, format, multi_entry, guaranteed,
	salary_cap, status, entries_submitted, updated_at
`

// Upsert inserts or updates contests, returning the number written.
// Rows are never deleted so past contests stay queryable.
func (r *ContestRepository) Upsert(ctx context.Context, contests []contracts.Contest) (int, error) {
	query := `
		INSERT INTO contests (
			id, series_id, sport, name, entry_fee, max_entries, total_entries,
			entry_limit, prize_pool, lock_time, format, multi_entry, guaranteed,
			salary_cap, status, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, NOW())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			entry_fee = EXCLUDED.entry_fee,
			max_entries = EXCLUDED.max_entries,
			total_entries = EXCLUDED.total_entries,
			entry_limit = EXCLUDED.entry_limit,
			prize_pool = EXCLUDED.prize_pool,
			lock_time = EXCLUDED.lock_time,
			status = EXCLUDED.status,
			updated_at = NOW()
	`

	n := 0
	for i := range contests {
		c := &contests[i]
		_, err := r.pool.Exec(ctx, query,
			c.ID, c.SeriesID, c.Sport, c.Name, c.EntryFee, c.MaxEntries, c.TotalEntries,
			c.EntryLimit, c.PrizePool, c.LockTime, c.Format, c.MultiEntry, c.Guaranteed,
			c.SalaryCap, c.Status,
		)
		if err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// GetByID retrieves a contest by id. Returns (nil, nil) when not found.
func (r *ContestRepository) GetByID(ctx context.Context, id string) (*contracts.Contest, error) {
	query := `SELECT ` + contestColumns + ` FROM contests WHERE id = $1`

	c, err := scanContest(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ListUpcoming retrieves contests that have not locked yet
func (r *ContestRepository) ListUpcoming(ctx context.Context, sport contracts.Sport) ([]contracts.Contest, error) {
	query := `
		SELECT ` + contestColumns + `
		FROM contests
		WHERE sport = $1 AND status = 'upcoming' AND lock_time > NOW()
		ORDER BY lock_time ASC
	`
	return r.list(ctx, query, sport)
}

// ListEligible retrieves upcoming contests that pass the entry policy:
// guaranteed, multi-entry, and entry fee at or below maxFee.
func (r *ContestRepository) ListEligible(ctx context.Context, sport contracts.Sport, maxFee float64) ([]contracts.Contest, error) {
	query := `
		SELECT ` + contestColumns + `
		FROM contests
		WHERE sport = $1
		  AND status = 'upcoming'
		  AND lock_time > NOW()
		  AND guaranteed = TRUE
		  AND multi_entry = TRUE
		  AND entry_fee <= $2
		ORDER BY lock_time ASC
	`
	return r.list(ctx, query, sport, maxFee)
}

// UpdateStatus transitions a contest's lifecycle state
func (r *ContestRepository) UpdateStatus(ctx context.Context, id string, status contracts.ContestStatus) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE contests SET status = $2, updated_at = NOW() WHERE id = $1`,
		id, status,
	)
	return err
}

// IncrementSubmitted bumps the submitted entry counter
func (r *ContestRepository) IncrementSubmitted(ctx context.Context, id string, n int) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE contests SET entries_submitted = entries_submitted + $2, updated_at = NOW() WHERE id = $1`,
		id, n,
	)
	return err
}

func (r *ContestRepository) list(ctx context.Context, query string, args ...interface{}) ([]contracts.Contest, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contests []contracts.Contest
	for rows.Next() {
		c, err := scanContest(rows)
		if err != nil {
			return nil, err
		}
		contests = append(contests, *c)
	}
	return contests, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanContest(row rowScanner) (*contracts.Contest, error) {
	var c contracts.Contest
	var updatedAt time.Time
	err := row.Scan(
		&c.ID, &c.SeriesID, &c.Sport, &c.Name, &c.EntryFee, &c.MaxEntries, &c.TotalEntries,
		&c.EntryLimit, &c.PrizePool, &c.LockTime, &c.Format, &c.MultiEntry, &c.Guaranteed,
		&c.SalaryCap, &c.Status, &c.EntriesSubmitted, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.UpdatedAt = updatedAt
	return &c, nil
}
