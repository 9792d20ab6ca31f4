package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthHandler provides liveness and readiness endpoints for the service.
//
// Responsibilities:
//   - /healthz: Basic liveness check (always returns 200 OK).
//   - /readyz: Readiness check (depends on storage connectivity).
type HealthHandler struct {
	ping   func(ctx context.Context) error
	driver string
}

// NewHealthHandler constructs a HealthHandler.
//
// Parameters:
//   - ping: checks that the storage is reachable, typically Repository.Ping.
//   - driver: storage driver name reported by /readyz ("postgres" or "memory").
func NewHealthHandler(ping func(ctx context.Context) error, driver string) *HealthHandler {
	return &HealthHandler{ping: ping, driver: driver}
}

// Register mounts the health and readiness endpoints into the provided Gin router.
//
// Routes:
//   - GET /healthz: Always returns 200 OK.
//   - GET /readyz: Returns 200 OK if the storage answers within 2s, 503 otherwise.
func (h *HealthHandler) Register(r *gin.Engine) {
	// Liveness check (just checks if the service is up)
	// @Summary      Liveness check
	// @Description  Always returns OK if the service is running
	// @Tags         health
	// @Produce      json
	// @Success      200  {object}  map[string]string
	// @Router       /healthz [get]
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Readiness check (checks storage)
	// @Summary      Readiness check
	// @Description  Returns ready if the storage backend is reachable
	// @Tags         health
	// @Produce      json
	// @Success      200  {object}  map[string]string
	// @Failure      503  {object}  map[string]string
	// @Router       /readyz [get]
	r.GET("/readyz", func(c *gin.Context) {
		if h.ping != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := h.ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "storage": h.driver})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "storage": h.driver})
	})
}
