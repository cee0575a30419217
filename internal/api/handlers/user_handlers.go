package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sensei-service/sensei_service/internal/domain/services/progression"
	"github.com/sensei-service/sensei_service/internal/domain/services/users"
	"github.com/sensei-service/sensei_service/pkg/logger"
)

// UserHandlers handles profile and stats endpoints
type UserHandlers struct {
	userService        *users.Service
	progressionService *progression.Service
	logger             *logger.Logger
}

// NewUserHandlers creates new user handlers
func NewUserHandlers(userService *users.Service, progressionService *progression.Service, logger *logger.Logger) *UserHandlers {
	return &UserHandlers{
		userService:        userService,
		progressionService: progressionService,
		logger:             logger,
	}
}

// Pointer fields distinguish "not sent" from "sent empty": an omitted field
// keeps its current value, an empty avatar clears it.
type updateProfileRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Avatar   *string `json:"avatar"`
}

// GetProfile returns the authenticated user's account
func (h *UserHandlers) GetProfile(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondUnauthorized(c, "User not authenticated")
		return
	}

	user, err := h.userService.Profile(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateProfile edits mutable profile fields
func (h *UserHandlers) UpdateProfile(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondUnauthorized(c, "User not authenticated")
		return
	}

	var req updateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), userID, req.Username, req.Email, req.Avatar)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// GetStats returns the profile summary: rank, XP, balance and unlock count
func (h *UserHandlers) GetStats(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondUnauthorized(c, "User not authenticated")
		return
	}

	stats, err := h.progressionService.Stats(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
