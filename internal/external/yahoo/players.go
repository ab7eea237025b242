package yahoo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wonny/dfs/backend/internal/contracts"
)

type apiTeam struct {
	Abbr string `json:"abbr"`
}

type apiGame struct {
	Code      string  `json:"code"`
	StartTime int64   `json:"startTime"`
	HomeTeam  apiTeam `json:"homeTeam"`
	AwayTeam  apiTeam `json:"awayTeam"`
}

type apiPlayer struct {
	Code              string   `json:"code"` // e.g., "nfl.p.32723"
	PlayerGameCode    string   `json:"playerGameCode"`
	FirstName         string   `json:"firstName"`
	LastName          string   `json:"lastName"`
	Team              apiTeam  `json:"team"`
	PrimaryPosition   string   `json:"primaryPosition"`
	EligiblePositions []string `json:"eligiblePositions"`
	Salary            int      `json:"salary"`
	Game              apiGame  `json:"game"`
	Status            string   `json:"status"`
	InjuryNote        string   `json:"injuryNote"`
	FPPG              float64  `json:"fantasyPointsPerGame"`
}

type playersResponse struct {
	Players struct {
		Result []apiPlayer `json:"result"`
	} `json:"players"`
}

// FetchPlayerPool returns the full player pool for a contest.
// ⭐ SSOT: Yahoo 플레이어 풀 조회는 이 함수에서만
func (c *Client) FetchPlayerPool(ctx context.Context, contest *contracts.Contest) ([]contracts.PlayerPoolEntry, error) {
	url := fmt.Sprintf("%s/contestPlayers?contestId=%s", c.baseURL, contest.ID)

	var resp playersResponse
	if err := c.getJSON(ctx, url, &resp); err != nil {
		return nil, err
	}

	entries := make([]contracts.PlayerPoolEntry, 0, len(resp.Players.Result))
	for i := range resp.Players.Result {
		entry, err := parsePlayer(&resp.Players.Result[i], contest.ID)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}

	if len(entries) == 0 {
		return nil, contracts.ValidationErr("yahoo", fmt.Sprintf("contest %s has an empty player pool", contest.ID))
	}

	c.logger.WithFields(map[string]interface{}{
		"contest": contest.ID,
		"count":   len(entries),
	}).Debug("Fetched player pool")

	return entries, nil
}

// parsePlayer validates and normalizes one wire player
func parsePlayer(raw *apiPlayer, contestID string) (*contracts.PlayerPoolEntry, error) {
	if raw.Code == "" {
		return nil, contracts.ValidationErr("yahoo", "player missing code")
	}
	if raw.Salary <= 0 {
		return nil, contracts.ValidationErr("yahoo", fmt.Sprintf("player %s missing salary", raw.Code))
	}

	position := raw.PrimaryPosition
	if position == "" && len(raw.EligiblePositions) > 0 {
		position = raw.EligiblePositions[0]
	}

	opponent := ""
	switch raw.Team.Abbr {
	case raw.Game.HomeTeam.Abbr:
		opponent = raw.Game.AwayTeam.Abbr
	case raw.Game.AwayTeam.Abbr:
		opponent = raw.Game.HomeTeam.Abbr
	}

	var gameTime time.Time
	if raw.Game.StartTime > 0 {
		gameTime = time.UnixMilli(raw.Game.StartTime)
	}

	return &contracts.PlayerPoolEntry{
		ContestID:         contestID,
		PlayerID:          raw.Code,
		PlayerGameCode:    raw.PlayerGameCode,
		Name:              strings.TrimSpace(raw.FirstName + " " + raw.LastName),
		Team:              raw.Team.Abbr,
		Position:          position,
		EligiblePositions: raw.EligiblePositions,
		Salary:            raw.Salary,
		GameCode:          raw.Game.Code,
		GameTime:          gameTime,
		Opponent:          opponent,
		InjuryStatus:      raw.Status,
		InjuryNote:        raw.InjuryNote,
		FPPG:              raw.FPPG,
	}, nil
}
