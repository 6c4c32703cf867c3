package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/floatband/bandscan/internal/models"
	"github.com/floatband/bandscan/internal/storage"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RunHandler serves stored strategy runs
type RunHandler struct {
	store storage.RunStore
}

// NewRunHandler creates a new run handler
func NewRunHandler(store storage.RunStore) *RunHandler {
	return &RunHandler{store: store}
}

// NewRouter builds the API router with the standard middleware chain
func NewRouter(store storage.RunStore) *mux.Router {
	handler := NewRunHandler(store)
	chain := ChainMiddleware(
		LoggingMiddleware(),
		ErrorHandlingMiddleware(),
		CORSMiddleware(),
	)

	router := mux.NewRouter()
	router.Use(mux.MiddlewareFunc(chain))
	router.HandleFunc("/health", handler.Health).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	router.HandleFunc("/api/v1/runs", handler.ListRuns).Methods("GET")
	router.HandleFunc("/api/v1/runs/{id}", handler.GetRun).Methods("GET")
	return router
}

// Health handles GET /health
func (h *RunHandler) Health(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListRuns handles GET /api/v1/runs
// Optional query parameters: symbol, limit
func (h *RunHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respondWithError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	runs, err := h.store.ListRuns(r.Context(), symbol, limit)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to retrieve runs")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}

// GetRun handles GET /api/v1/runs/:id
func (h *RunHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	run, err := h.store.GetRun(r.Context(), id)
	switch {
	case errors.Is(err, models.ErrInvalidRunID):
		respondWithError(w, http.StatusBadRequest, "Invalid run ID")
	case errors.Is(err, models.ErrRunNotFound):
		respondWithError(w, http.StatusNotFound, "Run not found")
	case err != nil:
		respondWithError(w, http.StatusInternalServerError, "Failed to retrieve run")
	default:
		respondWithJSON(w, http.StatusOK, run)
	}
}
