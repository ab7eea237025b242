package pipeline

import (
	"context"
	"strings"

	"github.com/wonny/dfs/backend/internal/contracts"
)

// SyncProjections fetches the current slate's projections and appends
// them. An empty slate (offseason, no games today) records zero rows
// and succeeds.
func (s *Service) SyncProjections(ctx context.Context, sport contracts.Sport) (int, error) {
	projections, err := s.projSource.FetchProjections(ctx, sport)
	if err != nil {
		return 0, err
	}
	if len(projections) == 0 {
		s.logger.WithFields(map[string]interface{}{
			"sport":  sport,
			"source": s.projSource.Name(),
		}).Info("No projections on slate")
		return 0, nil
	}

	n, err := s.projections.Insert(ctx, projections)
	if err != nil {
		return 0, err
	}

	s.logger.WithFields(map[string]interface{}{
		"sport":    sport,
		"source":   s.projSource.Name(),
		"inserted": n,
	}).Info("Projection sync completed")

	return n, nil
}

// matchKey normalizes a player's name and team for projection matching.
// Projection sources key players by name, the pool keys them by id, so
// name+team is the join. Suffixes like "Jr." and punctuation differ
// between sources and are stripped.
func matchKey(name, team string) string {
	name = strings.ToLower(name)
	name = strings.NewReplacer(".", "", "'", "", "-", " ").Replace(name)
	for _, suffix := range []string{" jr", " sr", " ii", " iii", " iv", " v"} {
		name = strings.TrimSuffix(name, suffix)
	}
	return strings.TrimSpace(name) + "|" + strings.ToUpper(team)
}

// resolveProjections fills PlayerID on projection rows by matching
// name+team against the pool. Rows with no pool match fall back to a
// name-only match when it is unambiguous; still-unmatched rows are
// returned with an empty PlayerID and skipped by the optimizer.
func resolveProjections(pool []contracts.PlayerPoolEntry, projections []contracts.Projection) []contracts.Projection {
	byKey := make(map[string]string, len(pool))
	byName := make(map[string][]string)
	for i := range pool {
		p := &pool[i]
		byKey[matchKey(p.Name, p.Team)] = p.PlayerID
		nameKey := matchKey(p.Name, "")
		byName[nameKey] = append(byName[nameKey], p.PlayerID)
	}

	out := make([]contracts.Projection, len(projections))
	for i, proj := range projections {
		if id, ok := byKey[matchKey(proj.PlayerName, proj.Team)]; ok {
			proj.PlayerID = id
		} else if ids := byName[matchKey(proj.PlayerName, "")]; len(ids) == 1 {
			proj.PlayerID = ids[0]
		}
		out[i] = proj
	}
	return out
}
