package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	pkghttp "github.com/egner-npc/pengaduan-masyarakat-app/pkg/http"
)

// HealthChecker reports whether the database is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler serves the service banner and the health probe
type HealthHandler struct {
	db      HealthChecker
	env     string
	version string
	logger  *slog.Logger
}

func NewHealthHandler(db HealthChecker, env, version string, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{db: db, env: env, version: version, logger: logger}
}

type HealthResponse struct {
	Success     bool      `json:"success"`
	Status      string    `json:"status"`
	Database    string    `json:"database"`
	Environment string    `json:"environment,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// Health handles GET /api/health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.db.HealthCheck(ctx); err != nil {
		h.logger.Error("health check failed", slog.Any("error", err))
		pkghttp.WriteJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Success:   false,
			Status:    "unhealthy",
			Database:  "disconnected",
			Timestamp: time.Now().UTC(),
		})
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, HealthResponse{
		Success:     true,
		Status:      "healthy",
		Database:    "connected",
		Environment: h.env,
		Timestamp:   time.Now().UTC(),
	})
}

// Root handles GET /
func (h *HealthHandler) Root(w http.ResponseWriter, r *http.Request) {
	pkghttp.WriteJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"message":     "API Pengaduan Masyarakat",
		"version":     h.version,
		"environment": h.env,
		"endpoints": map[string]string{
			"auth":       "/api/login, /api/register, /api/profile",
			"complaints": "/api/complaints, /api/my-complaints",
			"health":     "/api/health",
		},
	})
}

// NotFound is the JSON fallback for unknown routes
func NotFound(w http.ResponseWriter, r *http.Request) {
	pkghttp.WriteNotFound(w, "Endpoint tidak ditemukan")
}
