package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sensei-service/sensei_service/internal/domain/services/progression"
	"github.com/sensei-service/sensei_service/pkg/logger"
)

// AchievementHandlers handles achievement catalog and progress endpoints
type AchievementHandlers struct {
	progressionService *progression.Service
	logger             *logger.Logger
}

// NewAchievementHandlers creates new achievement handlers
func NewAchievementHandlers(progressionService *progression.Service, logger *logger.Logger) *AchievementHandlers {
	return &AchievementHandlers{
		progressionService: progressionService,
		logger:             logger,
	}
}

// GetCatalog returns every achievement definition
func (h *AchievementHandlers) GetCatalog(c *gin.Context) {
	catalog, err := h.progressionService.Catalog(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"achievements": catalog, "count": len(catalog)})
}

// GetProgress returns every catalog entry with the caller's unlock state
func (h *AchievementHandlers) GetProgress(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondUnauthorized(c, "User not authenticated")
		return
	}

	progress, err := h.progressionService.Progress(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"achievements": progress, "count": len(progress)})
}

// Sweep re-runs the unlock evaluation for the caller. Useful after seeding
// new achievements or backfilling data.
func (h *AchievementHandlers) Sweep(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondUnauthorized(c, "User not authenticated")
		return
	}

	newly, err := h.progressionService.Sweep(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"newly_unlocked": newly, "count": len(newly)})
}
