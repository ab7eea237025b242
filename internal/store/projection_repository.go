package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/dfs/backend/internal/contracts"
)

// ProjectionRepository implements contracts.ProjectionRepository
// ⭐ SSOT: 프로젝션 저장소는 여기서만
type ProjectionRepository struct {
	pool *pgxpool.Pool
}

// NewProjectionRepository creates a new projection repository
func NewProjectionRepository(pool *pgxpool.Pool) *ProjectionRepository {
	return &ProjectionRepository{pool: pool}
}

// Insert appends projection rows. Existing rows are never updated;
// consumers read the latest fetch per player.
func (r *ProjectionRepository) Insert(ctx context.Context, projections []contracts.Projection) (int, error) {
	query := `
		INSERT INTO projections (sport, player_id, player_name, team, position, source, points, floor, ceiling, ownership, fetched_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	n := 0
	for i := range projections {
		p := &projections[i]
		fetchedAt := p.FetchedAt
		if fetchedAt.IsZero() {
			fetchedAt = time.Now()
		}
		_, err := r.pool.Exec(ctx, query,
			p.Sport, p.PlayerID, p.PlayerName, p.Team, p.Position, p.Source,
			p.Points, p.Floor, p.Ceiling, p.Ownership, fetchedAt,
		)
		if err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// Latest returns the newest projection per player for a sport and source
func (r *ProjectionRepository) Latest(ctx context.Context, sport contracts.Sport, source string) ([]contracts.Projection, error) {
	query := `
		SELECT DISTINCT ON (player_name, team)
		       id, sport, player_id, player_name, team, position, source, points, floor, ceiling, ownership, fetched_at
		FROM projections
		WHERE sport = $1 AND source = $2
		ORDER BY player_name, team, fetched_at DESC
	`

	rows, err := r.pool.Query(ctx, query, sport, source)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projections []contracts.Projection
	for rows.Next() {
		var p contracts.Projection
		err := rows.Scan(&p.ID, &p.Sport, &p.PlayerID, &p.PlayerName, &p.Team, &p.Position, &p.Source,
			&p.Points, &p.Floor, &p.Ceiling, &p.Ownership, &p.FetchedAt)
		if err != nil {
			return nil, err
		}
		projections = append(projections, p)
	}
	return projections, rows.Err()
}

// LastFetchedAt returns when projections for a sport/source were last
// fetched. Zero time means never.
func (r *ProjectionRepository) LastFetchedAt(ctx context.Context, sport contracts.Sport, source string) (time.Time, error) {
	var at *time.Time
	err := r.pool.QueryRow(ctx,
		`SELECT MAX(fetched_at) FROM projections WHERE sport = $1 AND source = $2`,
		sport, source,
	).Scan(&at)
	if err != nil {
		return time.Time{}, err
	}
	if at == nil {
		return time.Time{}, nil
	}
	return *at, nil
}
