package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/wonny/dfs/backend/internal/contracts"
	"github.com/wonny/dfs/backend/internal/pipeline"
	"github.com/wonny/dfs/backend/pkg/logger"
)

// ContestHandler exposes contests, lineups and submission decisions
type ContestHandler struct {
	contests    contracts.ContestRepository
	pools       contracts.PlayerPoolRepository
	lineups     contracts.LineupRepository
	submissions contracts.SubmissionRepository
	service     *pipeline.Service
	logger      *logger.Logger
}

// NewContestHandler creates a new contest handler
func NewContestHandler(
	contests contracts.ContestRepository,
	pools contracts.PlayerPoolRepository,
	lineups contracts.LineupRepository,
	submissions contracts.SubmissionRepository,
	svc *pipeline.Service,
	log *logger.Logger,
) *ContestHandler {
	return &ContestHandler{
		contests:    contests,
		pools:       pools,
		lineups:     lineups,
		submissions: submissions,
		service:     svc,
		logger:      log,
	}
}

// ListContests returns upcoming contests for a sport
// GET /api/contests?sport=NFL
func (h *ContestHandler) ListContests(w http.ResponseWriter, r *http.Request) {
	sport, err := contracts.ParseSport(r.URL.Query().Get("sport"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	contests, err := h.contests.ListUpcoming(r.Context(), sport)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list contests")
		respondError(w, http.StatusInternalServerError, "Failed to list contests")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"sport":    sport,
			"count":    len(contests),
			"contests": contests,
		},
	})
}

// ContestLineups returns every stored lineup for a contest
// GET /api/contests/{id}/lineups
func (h *ContestHandler) ContestLineups(w http.ResponseWriter, r *http.Request) {
	contestID := mux.Vars(r)["id"]

	lineups, err := h.lineups.ListByContest(r.Context(), contestID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list lineups")
		respondError(w, http.StatusInternalServerError, "Failed to list lineups")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"contest_id": contestID,
			"count":      len(lineups),
			"lineups":    lineups,
		},
	})
}

// ContestPlayers returns the stored player pool for a contest
// GET /api/contests/{id}/players
func (h *ContestHandler) ContestPlayers(w http.ResponseWriter, r *http.Request) {
	contestID := mux.Vars(r)["id"]

	pool, err := h.pools.GetByContest(r.Context(), contestID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get player pool")
		respondError(w, http.StatusInternalServerError, "Failed to get player pool")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"contest_id": contestID,
			"count":      len(pool),
			"players":    pool,
		},
	})
}

// Decisions returns the current submission decision per eligible contest
// GET /api/decisions?sport=NFL
func (h *ContestHandler) Decisions(w http.ResponseWriter, r *http.Request) {
	sport, err := contracts.ParseSport(r.URL.Query().Get("sport"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	decisions, err := h.service.Decisions(r.Context(), sport)
	if err != nil {
		h.logger.WithError(err).Error("Failed to evaluate decisions")
		respondError(w, http.StatusInternalServerError, "Failed to evaluate decisions")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"sport":     sport,
			"count":     len(decisions),
			"decisions": decisions,
		},
	})
}

// LineupSubmissions returns the submission audit trail for a lineup
// GET /api/lineups/{id}/submissions
func (h *ContestHandler) LineupSubmissions(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid lineup id")
		return
	}

	records, err := h.submissions.ListByLineup(r.Context(), id)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list submissions")
		respondError(w, http.StatusInternalServerError, "Failed to list submissions")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"lineup_id":   id,
			"count":       len(records),
			"submissions": records,
		},
	})
}
