// ===========================================
// Package handler - Health Check Handler
// ===========================================
// - /live:   the process is up (liveness probe)
// - /ready:  every dependency answers (readiness probe)
// - /health: the same check with per-dependency detail
// ===========================================

package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/user/smartshort/internal/models"
)

// Checker is a dependency that can report its health.
// *database.PostgresDB and *database.RedisDB implement it.
type Checker interface {
	Health(ctx context.Context) error
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	checks  map[string]Checker
	version string
}

// NewHealthHandler creates a new health handler. checks maps a
// dependency name to its checker; optional dependencies that are not
// configured are simply left out.
func NewHealthHandler(checks map[string]Checker, version string) *HealthHandler {
	return &HealthHandler{checks: checks, version: version}
}

// ===========================================
// GET /health
// ===========================================
// Response (200 healthy, 503 unhealthy):
//
//	{
//	  "status": "healthy",
//	  "version": "1.0.0",
//	  "services": {"postgres": "ok", "redis": "ok"}
//	}
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	services, healthy := h.run(ctx)
	response := models.HealthResponse{
		Status:   "healthy",
		Version:  h.version,
		Services: services,
	}
	if !healthy {
		response.Status = "unhealthy"
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}
	c.JSON(http.StatusOK, response)
}

// GET /ready
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	if _, healthy := h.run(ctx); !healthy {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	c.Status(http.StatusOK)
}

// GET /live
// Does not check dependencies.
func (h *HealthHandler) Live(c *gin.Context) {
	c.Status(http.StatusOK)
}

func (h *HealthHandler) run(ctx context.Context) (map[string]string, bool) {
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	services := make(map[string]string, len(names))
	healthy := true
	for _, name := range names {
		if err := h.checks[name].Health(ctx); err != nil {
			services[name] = "error: " + err.Error()
			healthy = false
			continue
		}
		services[name] = "ok"
	}
	return services, healthy
}
