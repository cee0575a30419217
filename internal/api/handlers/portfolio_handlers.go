package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/sensei-service/sensei_service/internal/domain/services/portfolio"
	"github.com/sensei-service/sensei_service/pkg/logger"
)

// PortfolioHandlers handles portfolio lifecycle and read endpoints
type PortfolioHandlers struct {
	portfolioService *portfolio.Service
	logger           *logger.Logger
}

// NewPortfolioHandlers creates new portfolio handlers
func NewPortfolioHandlers(portfolioService *portfolio.Service, logger *logger.Logger) *PortfolioHandlers {
	return &PortfolioHandlers{
		portfolioService: portfolioService,
		logger:           logger,
	}
}

type createPortfolioRequest struct {
	Name         string          `json:"name" binding:"required"`
	Description  string          `json:"description"`
	StartingCash decimal.Decimal `json:"starting_cash"`
}

// Pointer fields distinguish "not sent" from "sent empty": an omitted field
// keeps its current value, an empty description clears it.
type updatePortfolioRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// Create opens a new portfolio
func (h *PortfolioHandlers) Create(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondUnauthorized(c, "User not authenticated")
		return
	}

	var req createPortfolioRequest
	if !bindJSON(c, &req) {
		return
	}

	p, err := h.portfolioService.Create(c.Request.Context(), userID, req.Name, req.Description, req.StartingCash)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// List returns the caller's active portfolios
func (h *PortfolioHandlers) List(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondUnauthorized(c, "User not authenticated")
		return
	}

	portfolios, err := h.portfolioService.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"portfolios": portfolios, "count": len(portfolios)})
}

// Get returns one portfolio with holdings
func (h *PortfolioHandlers) Get(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondUnauthorized(c, "User not authenticated")
		return
	}
	portfolioID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	p, err := h.portfolioService.Get(c.Request.Context(), userID, portfolioID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Update edits portfolio metadata
func (h *PortfolioHandlers) Update(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondUnauthorized(c, "User not authenticated")
		return
	}
	portfolioID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req updatePortfolioRequest
	if !bindJSON(c, &req) {
		return
	}

	p, err := h.portfolioService.Update(c.Request.Context(), userID, portfolioID, req.Name, req.Description)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Delete soft-deletes a portfolio
func (h *PortfolioHandlers) Delete(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondUnauthorized(c, "User not authenticated")
		return
	}
	portfolioID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.portfolioService.Delete(c.Request.Context(), userID, portfolioID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "portfolio deleted"})
}

// Performance returns the portfolio's aggregated view with recent trades
func (h *PortfolioHandlers) Performance(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondUnauthorized(c, "User not authenticated")
		return
	}
	portfolioID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	perf, err := h.portfolioService.Performance(c.Request.Context(), userID, portfolioID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, perf)
}

// History returns the caller's ledger across all portfolios, newest first
func (h *PortfolioHandlers) History(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondUnauthorized(c, "User not authenticated")
		return
	}

	transactions, err := h.portfolioService.History(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": transactions, "count": len(transactions)})
}

// Transactions returns the portfolio's ledger history, newest first
func (h *PortfolioHandlers) Transactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondUnauthorized(c, "User not authenticated")
		return
	}
	portfolioID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	transactions, err := h.portfolioService.Transactions(c.Request.Context(), userID, portfolioID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": transactions, "count": len(transactions)})
}
