package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/dfs/backend/internal/api/handlers"
	"github.com/wonny/dfs/backend/pkg/logger"
)

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(jobsHandler *handlers.JobsHandler, contestHandler *handlers.ContestHandler, hub *Hub, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	// Live job run feed
	r.HandleFunc("/ws/runs", hub.ServeWS)

	// API v1
	api := r.PathPrefix("/api").Subrouter()

	// Scheduler control
	api.HandleFunc("/jobs", jobsHandler.List).Methods("GET")
	api.HandleFunc("/jobs/{name}/history", jobsHandler.History).Methods("GET")
	api.HandleFunc("/jobs/{name}/run", jobsHandler.RunNow).Methods("POST")
	api.HandleFunc("/jobs/{name}/enable", jobsHandler.Enable).Methods("POST")
	api.HandleFunc("/jobs/{name}/disable", jobsHandler.Disable).Methods("POST")
	api.HandleFunc("/runs", jobsHandler.RecentRuns).Methods("GET")

	// Contest and lineup inspection
	api.HandleFunc("/contests", contestHandler.ListContests).Methods("GET")
	api.HandleFunc("/contests/{id}/lineups", contestHandler.ContestLineups).Methods("GET")
	api.HandleFunc("/contests/{id}/players", contestHandler.ContestPlayers).Methods("GET")
	api.HandleFunc("/decisions", contestHandler.Decisions).Methods("GET")
	api.HandleFunc("/lineups/{id}/submissions", contestHandler.LineupSubmissions).Methods("GET")

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "dfs-api",
	})
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
