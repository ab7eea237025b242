package yahoo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wonny/dfs/backend/internal/contracts"
)

type money struct {
	Value float64 `json:"value"`
}

type apiContest struct {
	ID                 int64  `json:"id"`
	SeriesID           int64  `json:"seriesId"`
	SportCode          string `json:"sportCode"`
	Title              string `json:"title"`
	PaidEntryFee       money  `json:"paidEntryFee"`
	PaidTotalPrize     money  `json:"paidTotalPrize"`
	MultipleEntryLimit int    `json:"multipleEntryLimit"`
	EntryCount         int    `json:"entryCount"`
	EntryLimit         int    `json:"entryLimit"`
	StartTime          int64  `json:"startTime"` // milliseconds
	Guaranteed         bool   `json:"guaranteed"`
	MultipleEntry      bool   `json:"multipleEntry"`
	SlateType          string `json:"slateType"`
	SalaryCap          int    `json:"salaryCap"`
}

type contestsResponse struct {
	Contests struct {
		Result []apiContest `json:"result"`
	} `json:"contests"`
}

// ListContests returns the currently listed contests for a sport.
// ⭐ SSOT: Yahoo 콘테스트 조회는 이 함수에서만
func (c *Client) ListContests(ctx context.Context, sport contracts.Sport) ([]contracts.Contest, error) {
	url := fmt.Sprintf("%s/contests?sport=%s", c.baseURL, strings.ToLower(string(sport)))

	var resp contestsResponse
	if err := c.getJSON(ctx, url, &resp); err != nil {
		return nil, err
	}

	contests := make([]contracts.Contest, 0, len(resp.Contests.Result))
	for i := range resp.Contests.Result {
		contest, err := parseContest(&resp.Contests.Result[i], sport)
		if err != nil {
			return nil, err
		}
		contests = append(contests, *contest)
	}

	c.logger.WithFields(map[string]interface{}{
		"sport": sport,
		"count": len(contests),
	}).Debug("Fetched contests")

	return contests, nil
}

// parseContest validates and normalizes one wire contest
func parseContest(raw *apiContest, sport contracts.Sport) (*contracts.Contest, error) {
	if raw.ID == 0 {
		return nil, contracts.ValidationErr("yahoo", "contest missing id")
	}
	if raw.StartTime == 0 {
		return nil, contracts.ValidationErr("yahoo", fmt.Sprintf("contest %d missing start time", raw.ID))
	}

	format := contracts.FormatClassic
	if strings.EqualFold(raw.SlateType, "SINGLE_GAME") {
		format = contracts.FormatSingleGame
	}

	salaryCap := raw.SalaryCap
	if salaryCap == 0 {
		salaryCap = 200
	}

	return &contracts.Contest{
		ID:           fmt.Sprintf("%d", raw.ID),
		SeriesID:     raw.SeriesID,
		Sport:        sport,
		Name:         raw.Title,
		EntryFee:     raw.PaidEntryFee.Value,
		MaxEntries:   raw.MultipleEntryLimit,
		TotalEntries: raw.EntryCount,
		EntryLimit:   raw.EntryLimit,
		PrizePool:    raw.PaidTotalPrize.Value,
		LockTime:     time.UnixMilli(raw.StartTime),
		Format:       format,
		MultiEntry:   raw.MultipleEntry,
		Guaranteed:   raw.Guaranteed,
		SalaryCap:    salaryCap,
		Status:       contracts.ContestUpcoming,
	}, nil
}
