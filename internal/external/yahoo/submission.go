package yahoo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/wonny/dfs/backend/internal/contracts"
)

type entrySlot struct {
	Position       string `json:"position"`
	PlayerGameCode string `json:"playerGameCode"`
}

type entryRequest struct {
	ContestID string      `json:"contestId"`
	Slots     []entrySlot `json:"slots"`
}

type entryResult struct {
	Accepted       bool   `json:"accepted"`
	EntryID        string `json:"entryId"`
	ConfirmationID string `json:"confirmationId"`
	Reason         string `json:"reason"`
}

// Submit enters lineups into their contests. Each lineup gets its own
// verdict; one rejection never rolls back an accepted entry.
// ⭐ SSOT: Yahoo 라인업 제출은 이 함수에서만
func (c *Client) Submit(ctx context.Context, lineups []*contracts.Lineup) ([]contracts.SubmissionResult, error) {
	results := make([]contracts.SubmissionResult, 0, len(lineups))
	for _, lineup := range lineups {
		res, err := c.submitOne(ctx, lineup, false)
		if err != nil {
			return results, err
		}
		results = append(results, *res)
	}
	return results, nil
}

// Edit replaces an already submitted entry's roster before lock
func (c *Client) Edit(ctx context.Context, lineup *contracts.Lineup) (*contracts.SubmissionResult, error) {
	if lineup.EntryID == "" {
		return nil, contracts.ValidationErr("yahoo", fmt.Sprintf("lineup %d has no entry id to edit", lineup.ID))
	}
	return c.submitOne(ctx, lineup, true)
}

// submitOne posts one entry, re-authenticating once on a stale session
func (c *Client) submitOne(ctx context.Context, lineup *contracts.Lineup, edit bool) (*contracts.SubmissionResult, error) {
	res, err := c.postEntry(ctx, lineup, edit)
	if errors.Is(err, contracts.ErrSessionExpired) {
		c.logger.WithField("lineup", lineup.ID).Warn("Session expired mid-submission, re-authenticating")
		c.dropSession()
		res, err = c.postEntry(ctx, lineup, edit)
	}
	return res, err
}

func (c *Client) postEntry(ctx context.Context, lineup *contracts.Lineup, edit bool) (*contracts.SubmissionResult, error) {
	session, err := c.ensureSession(ctx)
	if err != nil {
		return nil, err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	payload := entryRequest{ContestID: lineup.ContestID}
	for _, slot := range lineup.Slots {
		payload.Slots = append(payload.Slots, entrySlot{
			Position:       slot.RosterPosition,
			PlayerGameCode: slot.PlayerGameCode,
		})
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/contestEntries", c.baseURL)
	method := http.MethodPost
	if edit {
		url = fmt.Sprintf("%s/contestEntries/%s", c.baseURL, lineup.EntryID)
		method = http.MethodPut
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Crumb", session.CrumbCSRF)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, contracts.SourceErr("yahoo", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, contracts.SourceErr("yahoo", err)
	}

	var result entryResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, contracts.ValidationErr("yahoo", fmt.Sprintf("malformed entry response: %v", err))
	}

	return &contracts.SubmissionResult{
		LineupID:       lineup.ID,
		Accepted:       result.Accepted,
		ConfirmationID: result.ConfirmationID,
		EntryID:        result.EntryID,
		FailureReason:  result.Reason,
	}, nil
}
