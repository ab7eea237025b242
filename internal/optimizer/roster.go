package optimizer

import (
	"fmt"

	"github.com/wonny/dfs/backend/internal/contracts"
)

// classicSlots holds the Yahoo classic roster template per sport
var classicSlots = map[contracts.Sport][]string{
	contracts.SportNFL: {"QB", "RB", "RB", "WR", "WR", "WR", "TE", "FLEX", "DEF"},
	contracts.SportNBA: {"PG", "SG", "G", "SF", "PF", "F", "C", "UTIL"},
	contracts.SportMLB: {"P", "P", "C", "1B", "2B", "3B", "SS", "OF", "OF", "OF"},
	contracts.SportNHL: {"C", "C", "W", "W", "W", "D", "D", "G", "UTIL"},
}

// singleGameSlots is the same across sports: one superstar, four flex
var singleGameSlots = []string{"SUPERSTAR", "FLEX", "FLEX", "FLEX", "FLEX"}

// flexPositions maps composite slots to the player positions they accept
var flexPositions = map[contracts.Sport]map[string][]string{
	contracts.SportNFL: {
		"FLEX": {"RB", "WR", "TE"},
	},
	contracts.SportNBA: {
		"G":    {"PG", "SG"},
		"F":    {"SF", "PF"},
		"UTIL": {"PG", "SG", "SF", "PF", "C"},
	},
	contracts.SportNHL: {
		"W":    {"LW", "RW", "W"},
		"UTIL": {"C", "LW", "RW", "W", "D"},
	},
}

// Slots returns the roster template for a sport and format
func Slots(sport contracts.Sport, format contracts.ContestFormat) ([]string, error) {
	if format == contracts.FormatSingleGame {
		return singleGameSlots, nil
	}
	slots, ok := classicSlots[sport]
	if !ok {
		return nil, fmt.Errorf("no roster template for sport %s", sport)
	}
	return slots, nil
}

// SlotAccepts reports whether a player may fill a roster slot
func SlotAccepts(sport contracts.Sport, format contracts.ContestFormat, slot string, p *contracts.PlayerPoolEntry) bool {
	// Single-game slots accept any position in the pool
	if format == contracts.FormatSingleGame {
		return true
	}
	if positions, ok := flexPositions[sport][slot]; ok {
		for _, pos := range positions {
			if p.EligibleFor(pos) {
				return true
			}
		}
		return false
	}
	return p.EligibleFor(slot)
}
