package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"panellicense/models"
)

// HealthHandler reports liveness and, when a database is configured, its reachability.
type HealthHandler struct {
	db      *sql.DB
	version string
}

func NewHealthHandler(db *sql.DB, version string) *HealthHandler {
	return &HealthHandler{db: db, version: version}
}

// Health health check
// @Summary Health check
// @Tags system
// @Produce json
// @Success 200 {object} models.APIResponse "healthy"
// @Failure 503 {object} models.APIResponse "database unreachable"
// @Router /health [get]
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	data := map[string]string{
		"version": h.version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	}

	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, models.ErrorResponse("database unreachable", err))
			return
		}
		data["database"] = "ok"
	}

	writeJSON(w, http.StatusOK, models.SuccessResponse("healthy", data))
}
