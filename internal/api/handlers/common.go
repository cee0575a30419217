package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sensei-service/sensei_service/internal/domain/entities"
	"github.com/sensei-service/sensei_service/pkg/errors"
)

// getUserID extracts and validates user ID from context
func getUserID(c *gin.Context) (uuid.UUID, error) {
	userIDVal, exists := c.Get("user_id")
	if !exists {
		return uuid.Nil, fmt.Errorf("user ID not found in context")
	}

	switch v := userIDVal.(type) {
	case uuid.UUID:
		return v, nil
	case string:
		return uuid.Parse(v)
	default:
		return uuid.Nil, fmt.Errorf("invalid user ID type in context")
	}
}

// parseIDParam parses a UUID path parameter
func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		respondError(c, errors.ValidationError(name+" must be a valid UUID"))
		return uuid.Nil, false
	}
	return id, true
}

// respondError maps a domain error onto the standard error envelope.
// Unclassified errors surface as a generic 500 without leaking internals.
func respondError(c *gin.Context, err error) {
	if senseiErr, ok := errors.AsSenseiError(err); ok {
		c.JSON(senseiErr.StatusCode, entities.ErrorResponse{
			Code:    string(senseiErr.Code),
			Message: senseiErr.Message,
			Details: senseiErr.Details,
		})
		return
	}
	c.JSON(http.StatusInternalServerError, entities.ErrorResponse{
		Code:    string(errors.ErrCodeInternal),
		Message: "An internal error occurred",
	})
}

// respondUnauthorized sends an unauthorized error
func respondUnauthorized(c *gin.Context, message string) {
	respondError(c, errors.Unauthorized(message))
}

// bindJSON binds the request body and converts failures into the standard
// validation error shape.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, errors.ValidationError("invalid request body: "+err.Error()))
		return false
	}
	return true
}
