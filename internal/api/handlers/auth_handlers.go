package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sensei-service/sensei_service/internal/domain/services/users"
	"github.com/sensei-service/sensei_service/pkg/logger"
)

// AuthHandlers handles registration and login
type AuthHandlers struct {
	userService *users.Service
	logger      *logger.Logger
}

// NewAuthHandlers creates new auth handlers
func NewAuthHandlers(userService *users.Service, logger *logger.Logger) *AuthHandlers {
	return &AuthHandlers{
		userService: userService,
		logger:      logger,
	}
}

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Register creates a new account
func (h *AuthHandlers) Register(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.userService.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Login authenticates a user and issues a token
func (h *AuthHandlers) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.userService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
