package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/dfs/backend/internal/contracts"
)

// SwapResult summarizes one injury monitoring run
type SwapResult struct {
	Lineups int
	Swapped int
}

// MonitorAndSwap scans submitted lineups in still-editable contests for
// ruled-out starters and edits their entries with replacements. Fresh
// pools are fetched per contest so injury statuses are current.
func (s *Service) MonitorAndSwap(ctx context.Context, sport contracts.Sport) (*SwapResult, error) {
	submitted, err := s.lineups.ListByStatus(ctx, contracts.LineupSubmitted)
	if err != nil {
		return nil, err
	}

	result := &SwapResult{}
	now := s.now()
	pools := make(map[string][]contracts.PlayerPoolEntry)
	var projections []contracts.Projection

	for i := range submitted {
		lineup := &submitted[i]

		contest, err := s.contests.GetByID(ctx, lineup.ContestID)
		if err != nil {
			return result, err
		}
		if contest == nil || contest.Sport != sport || !s.monitor.CanEdit(contest, now) {
			continue
		}
		result.Lineups++

		pool, ok := pools[contest.ID]
		if !ok {
			pool, err = s.source.FetchPlayerPool(ctx, contest)
			if err != nil {
				return result, err
			}
			if err := s.pools.Replace(ctx, contest.ID, pool); err != nil {
				return result, err
			}
			pools[contest.ID] = pool
		}
		if projections == nil {
			projections, err = s.projections.Latest(ctx, sport, s.projSource.Name())
			if err != nil {
				return result, err
			}
		}

		swapped, err := s.swapLineup(ctx, contest, lineup, pool, resolveProjections(pool, projections), now)
		if err != nil {
			return result, err
		}
		result.Swapped += swapped
	}

	s.logger.WithFields(map[string]interface{}{
		"sport":   sport,
		"lineups": result.Lineups,
		"swapped": result.Swapped,
	}).Info("Injury monitoring completed")

	return result, nil
}

// swapLineup plans and applies replacements for one lineup, returning
// the number of swaps made. No ruled-out starters means no edit call.
func (s *Service) swapLineup(ctx context.Context, contest *contracts.Contest, lineup *contracts.Lineup, pool []contracts.PlayerPoolEntry, projections []contracts.Projection, now time.Time) (int, error) {
	cons := s.constraintsFor(contest, 1)
	slots, swaps := s.planner.Plan(lineup, pool, projections, cons, now)
	if len(swaps) == 0 {
		return 0, nil
	}

	edited := *lineup
	edited.Slots = slots
	edited.TotalSalary = 0
	edited.ProjectedPoints = 0
	for _, slot := range slots {
		edited.TotalSalary += slot.Salary
		edited.ProjectedPoints += slot.ProjectedPoints
	}

	res, err := s.submitter.Edit(ctx, &edited)
	if err != nil {
		return 0, err
	}
	if !res.Accepted {
		s.logger.WithFields(map[string]interface{}{
			"lineup_id": lineup.ID,
			"reason":    res.FailureReason,
		}).Warn("Late swap edit rejected")
		return 0, nil
	}

	if err := s.lineups.ReplaceSlots(ctx, lineup.ID, slots, edited.TotalSalary, edited.ProjectedPoints); err != nil {
		return 0, err
	}

	for _, sw := range swaps {
		s.notifier.Notify(ctx, contracts.EventSwap,
			fmt.Sprintf("Swapped %s for %s in lineup %d", sw.OutName, sw.InName, lineup.ID),
			map[string]interface{}{
				"lineup_id": lineup.ID,
				"slot":      sw.Slot,
				"delta":     sw.Delta,
			})
	}

	return len(swaps), nil
}
