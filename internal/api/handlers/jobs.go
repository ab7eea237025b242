package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/wonny/dfs/backend/internal/contracts"
	"github.com/wonny/dfs/backend/internal/scheduler"
	"github.com/wonny/dfs/backend/pkg/logger"
)

// JobsHandler exposes scheduler state and control over HTTP
// ⭐ SSOT: 스케줄러 API 핸들러는 여기서만
type JobsHandler struct {
	scheduler *scheduler.Scheduler
	ledger    contracts.JobRunRepository
	logger    *logger.Logger
}

// NewJobsHandler creates a new jobs handler
func NewJobsHandler(sched *scheduler.Scheduler, ledger contracts.JobRunRepository, log *logger.Logger) *JobsHandler {
	return &JobsHandler{
		scheduler: sched,
		ledger:    ledger,
		logger:    log,
	}
}

// List returns every registered job with its status
// GET /api/jobs
func (h *JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	stats := h.scheduler.Stats()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"count": len(stats),
			"jobs":  stats,
		},
	})
}

// History returns recent in-memory runs for one job
// GET /api/jobs/{name}/history?limit=20
func (h *JobsHandler) History(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	limit := queryInt(r, "limit", 20)

	runs, err := h.scheduler.JobHistory(name, limit)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"job":   name,
			"count": len(runs),
			"runs":  runs,
		},
	})
}

// RunNow fires a job immediately, outside its schedule
// POST /api/jobs/{name}/run
func (h *JobsHandler) RunNow(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	if err := h.scheduler.RunJob(name); err != nil {
		respondError(w, http.StatusConflict, err.Error())
		return
	}

	h.logger.WithField("job", name).Info("Manual job run requested")
	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"success": true,
		"job":     name,
	})
}

// Enable clears a job's disabled flag and failure streak
// POST /api/jobs/{name}/enable
func (h *JobsHandler) Enable(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	if err := h.scheduler.EnableJob(name); err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "job": name})
}

// Disable stops a job from firing
// POST /api/jobs/{name}/disable
func (h *JobsHandler) Disable(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	if err := h.scheduler.DisableJob(name); err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "job": name})
}

// RecentRuns returns persisted runs from the ledger, all jobs or one
// GET /api/runs?job=submit_lineups&limit=50
func (h *JobsHandler) RecentRuns(w http.ResponseWriter, r *http.Request) {
	jobName := r.URL.Query().Get("job")
	limit := queryInt(r, "limit", 50)

	runs, err := h.ledger.ListRecent(r.Context(), jobName, limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list job runs")
		respondError(w, http.StatusInternalServerError, "Failed to list job runs")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"count": len(runs),
			"runs":  runs,
		},
	})
}

// queryInt reads an integer query parameter with a default
func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
