package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/sensei-service/sensei_service/internal/infrastructure/cache"
	"github.com/sensei-service/sensei_service/pkg/logger"
)

// HealthHandlers exposes liveness and readiness probes
type HealthHandlers struct {
	db     *sqlx.DB
	cache  *cache.Cache
	logger *logger.Logger
}

// NewHealthHandlers creates new health handlers
func NewHealthHandlers(db *sqlx.DB, cache *cache.Cache, logger *logger.Logger) *HealthHandlers {
	return &HealthHandlers{
		db:     db,
		cache:  cache,
		logger: logger,
	}
}

// Health reports overall service health
func (h *HealthHandlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
	})
}

// Live is the liveness probe: the process is up and serving
func (h *HealthHandlers) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

// Ready is the readiness probe: dependencies must answer
func (h *HealthHandlers) Ready(c *gin.Context) {
	ctx := c.Request.Context()
	checks := gin.H{}
	healthy := true

	if err := h.db.PingContext(ctx); err != nil {
		checks["database"] = "unavailable"
		healthy = false
	} else {
		checks["database"] = "ok"
	}

	if _, err := h.cache.Get(ctx, "readyz"); err != nil {
		checks["redis"] = "unavailable"
		healthy = false
	} else {
		checks["redis"] = "ok"
	}

	if !healthy {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "checks": checks})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "checks": checks})
}
