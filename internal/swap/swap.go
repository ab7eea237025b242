package swap

import (
	"sort"
	"time"

	"github.com/wonny/dfs/backend/internal/contracts"
	"github.com/wonny/dfs/backend/internal/optimizer"
	"github.com/wonny/dfs/backend/pkg/logger"
)

// Swap records one player replacement in a submitted lineup
type Swap struct {
	Slot      string  `json:"slot"`
	OutPlayer string  `json:"out_player"`
	OutName   string  `json:"out_name"`
	InPlayer  string  `json:"in_player"`
	InName    string  `json:"in_name"`
	Delta     float64 `json:"delta"` // projected point change
}

// Planner computes replacements for ruled-out starters.
// Pure logic; the caller fetches fresh pools and applies the edit.
// ⭐ SSOT: 레이트 스왑 결정은 여기서만
type Planner struct {
	logger *logger.Logger
}

// New creates a swap planner
func New(log *logger.Logger) *Planner {
	return &Planner{logger: log}
}

// Plan finds replacements for every ruled-out player in a lineup.
// The returned slots keep the lineup under the salary cap; slots whose
// player is healthy are untouched. An empty swap list means no change
// is needed. A ruled-out player with no affordable replacement stays,
// which the caller reports rather than fails. Slots whose game already
// kicked off are locked, and players whose game started cannot come in.
func (p *Planner) Plan(lineup *contracts.Lineup, pool []contracts.PlayerPoolEntry, projections []contracts.Projection, cons contracts.Constraints, now time.Time) ([]contracts.LineupSlot, []Swap) {
	byID := make(map[string]*contracts.PlayerPoolEntry, len(pool))
	for i := range pool {
		byID[pool[i].PlayerID] = &pool[i]
	}
	points := make(map[string]float64, len(projections))
	for i := range projections {
		if projections[i].PlayerID != "" {
			points[projections[i].PlayerID] = projections[i].Points
		}
	}

	slots := make([]contracts.LineupSlot, len(lineup.Slots))
	copy(slots, lineup.Slots)

	rostered := make(map[string]bool, len(slots))
	totalSalary := 0
	for _, s := range slots {
		rostered[s.PlayerID] = true
		totalSalary += s.Salary
	}

	var swaps []Swap
	for i := range slots {
		current, known := byID[slots[i].PlayerID]
		if !known || !current.Out() {
			continue
		}
		if gameStarted(current.GameTime, now) {
			continue
		}

		budget := cons.SalaryCap - (totalSalary - slots[i].Salary)
		replacement := bestReplacement(pool, points, rostered, cons, slots[i].RosterPosition, budget, now)
		if replacement == nil {
			p.logger.WithFields(map[string]interface{}{
				"lineup": lineup.ID,
				"slot":   slots[i].RosterPosition,
				"player": slots[i].PlayerID,
			}).Warn("No affordable replacement for ruled-out player")
			continue
		}

		score := points[replacement.PlayerID]
		if score == 0 {
			score = replacement.FPPG
		}
		swaps = append(swaps, Swap{
			Slot:      slots[i].RosterPosition,
			OutPlayer: slots[i].PlayerID,
			OutName:   slots[i].Name,
			InPlayer:  replacement.PlayerID,
			InName:    replacement.Name,
			Delta:     score - slots[i].ProjectedPoints,
		})

		totalSalary += replacement.Salary - slots[i].Salary
		delete(rostered, slots[i].PlayerID)
		rostered[replacement.PlayerID] = true

		slots[i] = contracts.LineupSlot{
			RosterPosition:  slots[i].RosterPosition,
			PlayerID:        replacement.PlayerID,
			PlayerGameCode:  replacement.PlayerGameCode,
			Name:            replacement.Name,
			Position:        replacement.Position,
			Salary:          replacement.Salary,
			ProjectedPoints: score,
		}
	}

	return slots, swaps
}

// bestReplacement picks the highest-scoring healthy player that fits
// the slot and the remaining budget, and whose game has not started
func bestReplacement(pool []contracts.PlayerPoolEntry, points map[string]float64, rostered map[string]bool, cons contracts.Constraints, slot string, budget int, now time.Time) *contracts.PlayerPoolEntry {
	type scored struct {
		player *contracts.PlayerPoolEntry
		score  float64
	}

	var options []scored
	for i := range pool {
		c := &pool[i]
		if c.Out() || rostered[c.PlayerID] || c.Salary <= 0 || c.Salary > budget {
			continue
		}
		if gameStarted(c.GameTime, now) {
			continue
		}
		if !optimizer.SlotAccepts(cons.Sport, cons.Format, slot, c) {
			continue
		}
		score, ok := points[c.PlayerID]
		if !ok {
			score = c.FPPG
		}
		if score <= 0 {
			continue
		}
		options = append(options, scored{player: c, score: score})
	}
	if len(options) == 0 {
		return nil
	}
	sort.Slice(options, func(i, j int) bool { return options[i].score > options[j].score })
	return options[0].player
}

// gameStarted treats an unknown game time as not started; the pool
// sync leaves GameTime zero when the source omits it.
func gameStarted(gameTime time.Time, now time.Time) bool {
	return !gameTime.IsZero() && gameTime.Before(now)
}
