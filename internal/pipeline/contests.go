package pipeline

import (
	"context"

	"github.com/wonny/dfs/backend/internal/contracts"
)

// ContestSyncResult summarizes one contest sync run
type ContestSyncResult struct {
	Fetched  int
	Upserted int
	Locked   int
	// Eligible carries the contests that pass the entry policy so the
	// caller can maintain per-contest anchors
	Eligible []contracts.Contest
}

// SyncContests pulls the current contest listing and upserts it.
// Contests absent from the listing are left untouched; rows are never
// deleted. Contests past their lock time are transitioned to live.
func (s *Service) SyncContests(ctx context.Context, sport contracts.Sport) (*ContestSyncResult, error) {
	listed, err := s.source.ListContests(ctx, sport)
	if err != nil {
		return nil, err
	}

	result := &ContestSyncResult{Fetched: len(listed)}

	n, err := s.contests.Upsert(ctx, listed)
	if err != nil {
		return nil, err
	}
	result.Upserted = n

	// Transition anything past lock out of upcoming
	now := s.now()
	for i := range listed {
		c := &listed[i]
		if c.Locked(now) {
			if err := s.contests.UpdateStatus(ctx, c.ID, contracts.ContestLive); err != nil {
				return nil, err
			}
			result.Locked++
		}
	}

	eligible, err := s.contests.ListEligible(ctx, sport, s.cfg.Lineups.MaxEntryFee)
	if err != nil {
		return nil, err
	}
	result.Eligible = eligible

	s.logger.WithFields(map[string]interface{}{
		"sport":    sport,
		"fetched":  result.Fetched,
		"eligible": len(eligible),
	}).Info("Contest sync completed")

	return result, nil
}

// SyncPlayerPools refreshes the player pool for every eligible contest.
// Each contest's pool is replaced atomically; a failure on one contest
// aborts the run so the scheduler can retry it whole.
func (s *Service) SyncPlayerPools(ctx context.Context, sport contracts.Sport) (int, error) {
	eligible, err := s.contests.ListEligible(ctx, sport, s.cfg.Lineups.MaxEntryFee)
	if err != nil {
		return 0, err
	}

	synced := 0
	for i := range eligible {
		contest := &eligible[i]
		pool, err := s.source.FetchPlayerPool(ctx, contest)
		if err != nil {
			return synced, err
		}
		if err := s.pools.Replace(ctx, contest.ID, pool); err != nil {
			return synced, err
		}
		synced++
	}

	s.logger.WithFields(map[string]interface{}{
		"sport":  sport,
		"synced": synced,
	}).Info("Player pool sync completed")

	return synced, nil
}
