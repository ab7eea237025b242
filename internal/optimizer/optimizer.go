package optimizer

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/wonny/dfs/backend/internal/contracts"
	"github.com/wonny/dfs/backend/pkg/logger"
)

// superstarMultiplier boosts the first single-game slot's scoring
const superstarMultiplier = 1.5

// maxAttemptsPerLineup bounds the randomized search per requested lineup
const maxAttemptsPerLineup = 200

// Optimizer builds lineups with greedy randomized search.
// ⭐ SSOT: 라인업 생성은 여기서만
type Optimizer struct {
	logger *logger.Logger
	rng    *rand.Rand
}

// New creates an optimizer. Seed fixes the random stream for tests;
// pass a time-based seed in production wiring.
func New(log *logger.Logger, seed int64) *Optimizer {
	return &Optimizer{
		logger: log,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

type candidate struct {
	player contracts.PlayerPoolEntry
	points float64
}

// Generate builds up to cons.Count distinct lineups under the salary cap.
// Ruled-out players never appear. Any two lineups share at most
// cons.MaxOverlap players. Returns ErrNoValidLineup when nothing fits.
func (o *Optimizer) Generate(pool []contracts.PlayerPoolEntry, projections []contracts.Projection, cons contracts.Constraints) ([]contracts.Lineup, error) {
	slots, err := Slots(cons.Sport, cons.Format)
	if err != nil {
		return nil, err
	}
	if cons.Count <= 0 {
		return nil, fmt.Errorf("lineup count must be positive, got %d", cons.Count)
	}

	candidates := o.buildCandidates(pool, projections)
	if len(candidates) < len(slots) {
		return nil, fmt.Errorf("%w: %d usable players for %d slots",
			contracts.ErrNoValidLineup, len(candidates), len(slots))
	}

	var lineups []contracts.Lineup
	seen := make(map[string]bool)

	for len(lineups) < cons.Count {
		built := false
		for attempt := 0; attempt < maxAttemptsPerLineup; attempt++ {
			lineup, ok := o.buildOne(candidates, slots, cons)
			if !ok {
				continue
			}

			hash := lineup.ComputeHash()
			if seen[hash] {
				continue
			}
			if overlapTooHigh(lineup, lineups, cons.MaxOverlap) {
				continue
			}

			lineup.Hash = hash
			lineup.Status = contracts.LineupDraft
			seen[hash] = true
			lineups = append(lineups, *lineup)
			built = true
			break
		}
		if !built {
			break
		}
	}

	if len(lineups) == 0 {
		return nil, fmt.Errorf("%w: no roster satisfies cap %d", contracts.ErrNoValidLineup, cons.SalaryCap)
	}

	o.logger.WithFields(map[string]interface{}{
		"requested": cons.Count,
		"built":     len(lineups),
		"sport":     cons.Sport,
	}).Debug("Lineups generated")

	return lineups, nil
}

// buildCandidates filters the pool and attaches scores. Projection
// points win over the pool's historical average when available.
func (o *Optimizer) buildCandidates(pool []contracts.PlayerPoolEntry, projections []contracts.Projection) []candidate {
	points := make(map[string]float64, len(projections))
	for i := range projections {
		// Unmatched projections carry no player id and cannot score anyone
		if projections[i].PlayerID != "" {
			points[projections[i].PlayerID] = projections[i].Points
		}
	}

	var candidates []candidate
	for i := range pool {
		p := pool[i]
		if p.Out() || p.Salary <= 0 {
			continue
		}
		score, ok := points[p.PlayerID]
		if !ok {
			score = p.FPPG
		}
		if score <= 0 {
			continue
		}
		candidates = append(candidates, candidate{player: p, points: score})
	}
	return candidates
}

// buildOne makes a single greedy pass over the template with jittered
// scores so repeated calls explore different rosters
func (o *Optimizer) buildOne(candidates []candidate, slots []string, cons contracts.Constraints) (*contracts.Lineup, bool) {
	jittered := make([]candidate, len(candidates))
	copy(jittered, candidates)
	jitter := make(map[string]float64, len(jittered))
	for i := range jittered {
		jitter[jittered[i].player.PlayerID] = jittered[i].points * (1 + o.rng.Float64()*0.3)
	}
	sort.Slice(jittered, func(i, j int) bool {
		return jitter[jittered[i].player.PlayerID] > jitter[jittered[j].player.PlayerID]
	})

	lineup := &contracts.Lineup{}
	used := make(map[string]bool)
	budget := cons.SalaryCap

	for slotIdx, slot := range slots {
		remaining := len(slots) - slotIdx - 1
		picked := false
		for i := range jittered {
			c := &jittered[i]
			if used[c.player.PlayerID] {
				continue
			}
			if !SlotAccepts(cons.Sport, cons.Format, slot, &c.player) {
				continue
			}
			// Leave at least minimum salary room for the rest of the roster
			if c.player.Salary > budget-cheapestFill(jittered, used, remaining) {
				continue
			}

			points := c.points
			if slot == "SUPERSTAR" {
				points *= superstarMultiplier
			}
			lineup.Slots = append(lineup.Slots, contracts.LineupSlot{
				RosterPosition:  slot,
				PlayerID:        c.player.PlayerID,
				PlayerGameCode:  c.player.PlayerGameCode,
				Name:            c.player.Name,
				Position:        c.player.Position,
				Salary:          c.player.Salary,
				ProjectedPoints: points,
			})
			lineup.TotalSalary += c.player.Salary
			lineup.ProjectedPoints += points
			used[c.player.PlayerID] = true
			budget -= c.player.Salary
			picked = true
			break
		}
		if !picked {
			return nil, false
		}
	}

	lineup.ContestID = cons.ContestID
	return lineup, true
}

// cheapestFill estimates the minimum salary needed for n more players
func cheapestFill(candidates []candidate, used map[string]bool, n int) int {
	if n <= 0 {
		return 0
	}
	salaries := make([]int, 0, len(candidates))
	for i := range candidates {
		if !used[candidates[i].player.PlayerID] {
			salaries = append(salaries, candidates[i].player.Salary)
		}
	}
	sort.Ints(salaries)
	if len(salaries) < n {
		return 1 << 30
	}
	sum := 0
	for _, s := range salaries[:n] {
		sum += s
	}
	return sum
}

func overlapTooHigh(lineup *contracts.Lineup, accepted []contracts.Lineup, maxOverlap int) bool {
	if maxOverlap <= 0 {
		return false
	}
	for i := range accepted {
		if lineup.Overlap(&accepted[i]) > maxOverlap {
			return true
		}
	}
	return false
}
