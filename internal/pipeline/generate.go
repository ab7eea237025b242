package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/dfs/backend/internal/contracts"
)

// GenerateResult summarizes one lineup generation run
type GenerateResult struct {
	Contests  int
	Generated int
	// NoLineup lists contests where no valid roster existed. Recorded,
	// not fatal: the other contests in the batch still get lineups.
	NoLineup []string
}

// GenerateLineups builds draft lineups for every eligible contest that
// has not locked yet. Stale pool or projection data is refreshed inline
// before optimizing.
func (s *Service) GenerateLineups(ctx context.Context, sport contracts.Sport) (*GenerateResult, error) {
	eligible, err := s.contests.ListEligible(ctx, sport, s.cfg.Lineups.MaxEntryFee)
	if err != nil {
		return nil, err
	}

	result := &GenerateResult{}
	now := s.now()
	for i := range eligible {
		contest := &eligible[i]
		if contest.Locked(now) {
			continue
		}
		result.Contests++

		n, err := s.generateForContest(ctx, contest)
		if err != nil {
			if errors.Is(err, contracts.ErrNoValidLineup) {
				result.NoLineup = append(result.NoLineup, contest.ID)
				s.logger.WithFields(map[string]interface{}{
					"contest_id": contest.ID,
				}).Warn("No valid lineup for contest")
				continue
			}
			return result, err
		}
		result.Generated += n
	}

	s.logger.WithFields(map[string]interface{}{
		"sport":     sport,
		"contests":  result.Contests,
		"generated": result.Generated,
	}).Info("Lineup generation completed")

	return result, nil
}

// GenerateForContest builds draft lineups for one contest. Used by
// per-contest anchor runs; ErrNoValidLineup propagates so the caller
// can classify the outcome.
func (s *Service) GenerateForContest(ctx context.Context, contestID string) (int, error) {
	contest, err := s.contests.GetByID(ctx, contestID)
	if err != nil {
		return 0, err
	}
	if contest == nil {
		return 0, fmt.Errorf("contest %s not found", contestID)
	}
	if contest.Locked(s.now()) {
		return 0, nil
	}
	return s.generateForContest(ctx, contest)
}

func (s *Service) generateForContest(ctx context.Context, contest *contracts.Contest) (int, error) {
	pool, projections, err := s.freshInputs(ctx, contest)
	if err != nil {
		return 0, err
	}

	existing, err := s.lineups.ExistingHashes(ctx, contest.ID)
	if err != nil {
		return 0, err
	}

	// A user may enter max_entries lineups total, counting what is
	// already stored for this contest
	want := s.cfg.Lineups.CountPerContest
	if contest.MaxEntries > 0 && want > contest.MaxEntries {
		want = contest.MaxEntries
	}
	want -= len(existing)
	if want <= 0 {
		return 0, nil
	}

	cons := s.constraintsFor(contest, want)
	generated, err := s.optimizer.Generate(pool, projections, cons)
	if err != nil {
		return 0, err
	}

	fresh := make([]*contracts.Lineup, 0, len(generated))
	for i := range generated {
		l := &generated[i]
		if existing[l.ComputeHash()] {
			continue
		}
		fresh = append(fresh, l)
	}
	if len(fresh) == 0 {
		return 0, nil
	}

	if err := s.lineups.Insert(ctx, fresh); err != nil {
		return 0, err
	}

	s.logger.WithFields(map[string]interface{}{
		"contest_id": contest.ID,
		"generated":  len(fresh),
	}).Info("Lineups generated")

	return len(fresh), nil
}

// freshInputs loads the contest's pool and matched projections,
// re-syncing either when older than the freshness threshold. Optimizing
// on stale injury data is worse than a delayed run.
func (s *Service) freshInputs(ctx context.Context, contest *contracts.Contest) ([]contracts.PlayerPoolEntry, []contracts.Projection, error) {
	threshold := s.cfg.Scheduler.FreshnessThreshold
	now := s.now()

	syncedAt, err := s.pools.LastSyncedAt(ctx, contest.ID)
	if err != nil {
		return nil, nil, err
	}
	if syncedAt.IsZero() || now.Sub(syncedAt) > threshold {
		pool, err := s.source.FetchPlayerPool(ctx, contest)
		if err != nil {
			return nil, nil, err
		}
		if err := s.pools.Replace(ctx, contest.ID, pool); err != nil {
			return nil, nil, err
		}
	}

	fetchedAt, err := s.projections.LastFetchedAt(ctx, contest.Sport, s.projSource.Name())
	if err != nil {
		return nil, nil, err
	}
	if fetchedAt.IsZero() || now.Sub(fetchedAt) > threshold {
		if _, err := s.SyncProjections(ctx, contest.Sport); err != nil {
			return nil, nil, err
		}
	}

	pool, err := s.pools.GetByContest(ctx, contest.ID)
	if err != nil {
		return nil, nil, err
	}
	projections, err := s.projections.Latest(ctx, contest.Sport, s.projSource.Name())
	if err != nil {
		return nil, nil, err
	}

	return pool, resolveProjections(pool, projections), nil
}
