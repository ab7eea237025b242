package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/dfs/backend/internal/contracts"
)

// LineupRepository implements contracts.LineupRepository
// ⭐ SSOT: 라인업 저장소는 여기서만
type LineupRepository struct {
	pool *pgxpool.Pool
}

// NewLineupRepository creates a new lineup repository
func NewLineupRepository(pool *pgxpool.Pool) *LineupRepository {
	return &LineupRepository{pool: pool}
}

// Insert stores new lineups and fills in their generated ids.
// The (contest_id, hash) unique constraint backs the dedup guarantee.
func (r *LineupRepository) Insert(ctx context.Context, lineups []*contracts.Lineup) error {
	query := `
		INSERT INTO lineups (contest_id, slots, total_salary, projected_points, hash, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING id, created_at
	`

	for _, l := range lineups {
		slots, err := json.Marshal(l.Slots)
		if err != nil {
			return err
		}
		if l.Hash == "" {
			l.Hash = l.ComputeHash()
		}
		if l.Status == "" {
			l.Status = contracts.LineupDraft
		}
		err = r.pool.QueryRow(ctx, query,
			l.ContestID, slots, l.TotalSalary, l.ProjectedPoints, l.Hash, l.Status,
		).Scan(&l.ID, &l.CreatedAt)
		if err != nil {
			return err
		}
	}
	return nil
}

const lineupColumns = `
	id, contest_id, slots, total_salary, projected_points, hash, status,
	entry_id, created_at, submitted_at
`

// GetByID retrieves a lineup. Returns (nil, nil) when not found.
func (r *LineupRepository) GetByID(ctx context.Context, id int64) (*contracts.Lineup, error) {
	query := `SELECT ` + lineupColumns + ` FROM lineups WHERE id = $1`

	l, err := scanLineup(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}

// ListByContest retrieves all lineups for a contest
func (r *LineupRepository) ListByContest(ctx context.Context, contestID string) ([]contracts.Lineup, error) {
	query := `SELECT ` + lineupColumns + ` FROM lineups WHERE contest_id = $1 ORDER BY id`
	return r.list(ctx, query, contestID)
}

// ListByStatus retrieves lineups in a lifecycle state across contests
func (r *LineupRepository) ListByStatus(ctx context.Context, status contracts.LineupStatus) ([]contracts.Lineup, error) {
	query := `SELECT ` + lineupColumns + ` FROM lineups WHERE status = $1 ORDER BY id`
	return r.list(ctx, query, status)
}

// ExistingHashes returns the dedup hashes already stored for a contest
func (r *LineupRepository) ExistingHashes(ctx context.Context, contestID string) (map[string]bool, error) {
	rows, err := r.pool.Query(ctx, `SELECT hash FROM lineups WHERE contest_id = $1`, contestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	hashes := make(map[string]bool)
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, err
		}
		hashes[h] = true
	}
	return hashes, rows.Err()
}

// UpdateStatus transitions a lineup's lifecycle state
func (r *LineupRepository) UpdateStatus(ctx context.Context, id int64, status contracts.LineupStatus) error {
	_, err := r.pool.Exec(ctx, `UPDATE lineups SET status = $2 WHERE id = $1`, id, status)
	return err
}

// MarkSubmitted records a successful submission
func (r *LineupRepository) MarkSubmitted(ctx context.Context, id int64, entryID string, at time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE lineups SET status = $2, entry_id = $3, submitted_at = $4 WHERE id = $1`,
		id, contracts.LineupSubmitted, entryID, at,
	)
	return err
}

// ReplaceSlots rewrites a lineup's roster after a late swap
func (r *LineupRepository) ReplaceSlots(ctx context.Context, id int64, slots []contracts.LineupSlot, totalSalary int, projected float64) error {
	data, err := json.Marshal(slots)
	if err != nil {
		return err
	}
	l := &contracts.Lineup{Slots: slots}
	_, err = r.pool.Exec(ctx,
		`UPDATE lineups SET slots = $2, total_salary = $3, projected_points = $4, hash = $5 WHERE id = $1`,
		id, data, totalSalary, projected, l.ComputeHash(),
	)
	return err
}

func (r *LineupRepository) list(ctx context.Context, query string, args ...interface{}) ([]contracts.Lineup, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lineups []contracts.Lineup
	for rows.Next() {
		l, err := scanLineup(rows)
		if err != nil {
			return nil, err
		}
		lineups = append(lineups, *l)
	}
	return lineups, rows.Err()
}

func scanLineup(row rowScanner) (*contracts.Lineup, error) {
	var l contracts.Lineup
	var slots []byte
	err := row.Scan(
		&l.ID, &l.ContestID, &slots, &l.TotalSalary, &l.ProjectedPoints, &l.Hash,
		&l.Status, &l.EntryID, &l.CreatedAt, &l.SubmittedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(slots, &l.Slots); err != nil {
		return nil, err
	}
	return &l, nil
}
