package pipeline

import (
	"context"
	"fmt"

	"github.com/wonny/dfs/backend/internal/contracts"
	"github.com/wonny/dfs/backend/internal/fillmonitor"
)

// SubmitResult summarizes one submission run
type SubmitResult struct {
	Checked   int
	Submitted int
	Rejected  int
	Waiting   int
}

// SubmitDue checks every eligible contest with draft lineups against
// the submission policy and enters the ones that are due. Fill data is
// refreshed from the source first so decisions use current numbers.
// Accepted entries are final immediately; a rejection later in the
// batch never rolls an earlier acceptance back.
func (s *Service) SubmitDue(ctx context.Context, sport contracts.Sport) (*SubmitResult, error) {
	if _, err := s.SyncContests(ctx, sport); err != nil {
		return nil, err
	}

	eligible, err := s.contests.ListEligible(ctx, sport, s.cfg.Lineups.MaxEntryFee)
	if err != nil {
		return nil, err
	}

	result := &SubmitResult{}
	now := s.now()
	for i := range eligible {
		contest := &eligible[i]

		drafts, err := s.draftLineups(ctx, contest.ID)
		if err != nil {
			return result, err
		}
		if len(drafts) == 0 {
			continue
		}
		result.Checked++

		decision := s.monitor.Check(contest, now)
		if !decision.Submit {
			s.logger.WithFields(map[string]interface{}{
				"contest_id": contest.ID,
				"reason":     decision.Reason,
				"fill_rate":  decision.FillRate,
			}).Debug("Submission deferred")
			result.Waiting += len(drafts)
			continue
		}

		submitted, rejected, err := s.submitBatch(ctx, contest, drafts)
		result.Submitted += submitted
		result.Rejected += rejected
		if err != nil {
			return result, err
		}
	}

	s.logger.WithFields(map[string]interface{}{
		"sport":     sport,
		"checked":   result.Checked,
		"submitted": result.Submitted,
		"rejected":  result.Rejected,
	}).Info("Submission run completed")

	return result, nil
}

func (s *Service) draftLineups(ctx context.Context, contestID string) ([]*contracts.Lineup, error) {
	stored, err := s.lineups.ListByContest(ctx, contestID)
	if err != nil {
		return nil, err
	}
	drafts := make([]*contracts.Lineup, 0, len(stored))
	for i := range stored {
		if stored[i].Status == contracts.LineupDraft {
			drafts = append(drafts, &stored[i])
		}
	}
	return drafts, nil
}

// submitBatch enters one contest's draft lineups and records every
// verdict. Returns accepted and rejected counts along with any
// transport error; counts cover results received before the error.
func (s *Service) submitBatch(ctx context.Context, contest *contracts.Contest, drafts []*contracts.Lineup) (int, int, error) {
	results, submitErr := s.submitter.Submit(ctx, drafts)

	accepted, rejected := 0, 0
	for _, res := range results {
		if res.Accepted {
			if err := s.recordAccepted(ctx, contest, &res); err != nil {
				return accepted, rejected, err
			}
			accepted++
			continue
		}
		if err := s.recordRejected(ctx, &res); err != nil {
			return accepted, rejected, err
		}
		rejected++
	}

	if accepted > 0 {
		s.notifier.Notify(ctx, contracts.EventSubmission,
			fmt.Sprintf("Submitted %d lineups to %s", accepted, contest.Name),
			map[string]interface{}{"contest_id": contest.ID, "accepted": accepted, "rejected": rejected})
	}

	return accepted, rejected, submitErr
}

func (s *Service) recordAccepted(ctx context.Context, contest *contracts.Contest, res *contracts.SubmissionResult) error {
	now := s.now()
	if err := s.lineups.MarkSubmitted(ctx, res.LineupID, res.EntryID, now); err != nil {
		return err
	}

	prior, err := s.submissions.CountAttempts(ctx, res.LineupID)
	if err != nil {
		return err
	}
	if err := s.submissions.Record(ctx, &contracts.SubmissionRecord{
		LineupID:       res.LineupID,
		SubmittedAt:    now,
		ConfirmationID: res.ConfirmationID,
		RetryCount:     prior,
	}); err != nil {
		return err
	}

	return s.contests.IncrementSubmitted(ctx, contest.ID, 1)
}

// recordRejected logs the failed attempt. The lineup stays draft for
// the next run until its attempts are spent, then it is marked rejected
// and escalated.
func (s *Service) recordRejected(ctx context.Context, res *contracts.SubmissionResult) error {
	prior, err := s.submissions.CountAttempts(ctx, res.LineupID)
	if err != nil {
		return err
	}
	if err := s.submissions.Record(ctx, &contracts.SubmissionRecord{
		LineupID:      res.LineupID,
		SubmittedAt:   s.now(),
		FailureReason: res.FailureReason,
		RetryCount:    prior,
	}); err != nil {
		return err
	}

	if prior+1 <= s.cfg.Scheduler.MaxRetries {
		s.logger.WithFields(map[string]interface{}{
			"lineup_id": res.LineupID,
			"reason":    res.FailureReason,
			"attempts":  prior + 1,
		}).Warn("Lineup submission rejected, will retry")
		return nil
	}

	if err := s.lineups.UpdateStatus(ctx, res.LineupID, contracts.LineupRejected); err != nil {
		return err
	}
	s.notifier.Notify(ctx, contracts.EventEscalation,
		fmt.Sprintf("Lineup %d rejected after %d attempts: %s", res.LineupID, prior+1, res.FailureReason),
		map[string]interface{}{"lineup_id": res.LineupID})
	return nil
}

// Decisions returns the current submission decision per eligible
// contest without acting on any of them.
func (s *Service) Decisions(ctx context.Context, sport contracts.Sport) ([]fillmonitor.Decision, error) {
	eligible, err := s.contests.ListEligible(ctx, sport, s.cfg.Lineups.MaxEntryFee)
	if err != nil {
		return nil, err
	}
	now := s.now()
	decisions := make([]fillmonitor.Decision, 0, len(eligible))
	for i := range eligible {
		decisions = append(decisions, s.monitor.Check(&eligible[i], now))
	}
	return decisions, nil
}
