package store

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/dfs/backend/internal/contracts"
)

// PlayerPoolRepository implements contracts.PlayerPoolRepository
// ⭐ SSOT: 플레이어 풀 저장소는 여기서만
type PlayerPoolRepository struct {
	pool *pgxpool.Pool
}

// NewPlayerPoolRepository creates a new player pool repository
func NewPlayerPoolRepository(pool *pgxpool.Pool) *PlayerPoolRepository {
	return &PlayerPoolRepository{pool: pool}
}

// Replace swaps a contest's entire player pool inside one transaction.
// Readers see either the old pool or the new pool, never a mix.
func (r *PlayerPoolRepository) Replace(ctx context.Context, contestID string, entries []contracts.PlayerPoolEntry) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM player_pool WHERE contest_id = $1`, contestID); err != nil {
		return err
	}

	now := time.Now()
	rows := make([][]interface{}, 0, len(entries))
	for i := range entries {
		e := &entries[i]
		var gameTime interface{}
		if !e.GameTime.IsZero() {
			gameTime = e.GameTime
		}
		rows = append(rows, []interface{}{
			contestID, e.PlayerID, e.PlayerGameCode, e.Name, e.Team, e.Position,
			strings.Join(e.EligiblePositions, ","), e.Salary, e.GameCode, gameTime,
			e.Opponent, e.InjuryStatus, e.InjuryNote, e.FPPG, now,
		})
	}

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"player_pool"},
		[]string{
			"contest_id", "player_id", "player_game_code", "name", "team", "position",
			"eligible_positions", "salary", "game_code", "game_time", "opponent",
			"injury_status", "injury_note", "fppg", "synced_at",
		},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// GetByContest retrieves the full pool for a contest
func (r *PlayerPoolRepository) GetByContest(ctx context.Context, contestID string) ([]contracts.PlayerPoolEntry, error) {
	query := `
		SELECT contest_id, player_id, player_game_code, name, team, position,
		       eligible_positions, salary, game_code, game_time, opponent,
		       injury_status, injury_note, fppg, synced_at
		FROM player_pool
		WHERE contest_id = $1
		ORDER BY salary DESC
	`

	rows, err := r.pool.Query(ctx, query, contestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []contracts.PlayerPoolEntry
	for rows.Next() {
		var e contracts.PlayerPoolEntry
		var eligible string
		var gameTime *time.Time
		err := rows.Scan(
			&e.ContestID, &e.PlayerID, &e.PlayerGameCode, &e.Name, &e.Team, &e.Position,
			&eligible, &e.Salary, &e.GameCode, &gameTime, &e.Opponent,
			&e.InjuryStatus, &e.InjuryNote, &e.FPPG, &e.SyncedAt,
		)
		if err != nil {
			return nil, err
		}
		if eligible != "" {
			e.EligiblePositions = strings.Split(eligible, ",")
		}
		if gameTime != nil {
			e.GameTime = *gameTime
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// LastSyncedAt returns the newest sync timestamp for a contest's pool.
// Zero time means the pool was never synced.
func (r *PlayerPoolRepository) LastSyncedAt(ctx context.Context, contestID string) (time.Time, error) {
	var at *time.Time
	err := r.pool.QueryRow(ctx,
		`SELECT MAX(synced_at) FROM player_pool WHERE contest_id = $1`,
		contestID,
	).Scan(&at)
	if err != nil {
		return time.Time{}, err
	}
	if at == nil {
		return time.Time{}, nil
	}
	return *at, nil
}
