package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/harvest/models"
)

// PoolStatser reports browser page pool utilisation.
type PoolStatser interface {
	Stats() models.PoolStats
}

// Health returns a handler for GET /api/v1/health.
//
// Reports pool utilisation and degrades status when > 80% of pages are active.
func Health(pool PoolStatser, workers int, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats := pool.Stats()

		status := "healthy"
		if stats.MaxPages > 0 && stats.ActivePages > int(float64(stats.MaxPages)*0.8) {
			status = "degraded"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:        status,
			UptimeSeconds: int64(time.Since(startTime).Seconds()),
			Workers:       workers,
			ActivePages:   stats.ActivePages,
			MaxPages:      stats.MaxPages,
		})
	}
}
