package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/janovincze/mnemosyne/internal/api/models"
)

// Pinger checks connectivity to a backing dependency.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	db Pinger
}

// NewHealthHandler creates a new HealthHandler. db may be nil, in which case
// readiness is assumed.
func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

// GetHealth returns the overall health status.
// GET /health
func (h *HealthHandler) GetHealth(c *gin.Context) {
	response := models.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
	}

	if h.db != nil {
		response.Components = map[string]models.ComponentHealth{
			"database": h.checkDatabase(c.Request.Context()),
		}
		if response.Components["database"].Status != "healthy" {
			response.Status = "unhealthy"
			c.JSON(http.StatusServiceUnavailable, response)
			return
		}
	}

	c.JSON(http.StatusOK, response)
}

// GetLiveness returns the liveness status.
// GET /health/live
func (h *HealthHandler) GetLiveness(c *gin.Context) {
	c.JSON(http.StatusOK, models.LivenessResponse{
		Status:    "alive",
		Timestamp: time.Now(),
	})
}

// GetReadiness returns the readiness status.
// GET /health/ready
func (h *HealthHandler) GetReadiness(c *gin.Context) {
	if h.db != nil {
		if err := h.db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, models.ReadinessResponse{
				Status:    "not_ready",
				Timestamp: time.Now(),
			})
			return
		}
	}

	c.JSON(http.StatusOK, models.ReadinessResponse{
		Status:    "ready",
		Timestamp: time.Now(),
	})
}

// checkDatabase pings the checkpoint store.
func (h *HealthHandler) checkDatabase(ctx context.Context) models.ComponentHealth {
	component := models.ComponentHealth{
		Name:   "database",
		Status: "healthy",
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := h.db.PingContext(checkCtx); err != nil {
		component.Status = "unhealthy"
		component.Error = err.Error()
	}

	return component
}
