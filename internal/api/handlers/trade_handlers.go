package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/sensei-service/sensei_service/internal/domain/entities"
	"github.com/sensei-service/sensei_service/internal/domain/services/trading"
	"github.com/sensei-service/sensei_service/pkg/logger"
)

// TradeHandlers handles trade execution
type TradeHandlers struct {
	tradingService *trading.Service
	logger         *logger.Logger
}

// NewTradeHandlers creates new trade handlers
func NewTradeHandlers(tradingService *trading.Service, logger *logger.Logger) *TradeHandlers {
	return &TradeHandlers{
		tradingService: tradingService,
		logger:         logger,
	}
}

type tradeRequest struct {
	Type         string          `json:"type" binding:"required"`
	Symbol       string          `json:"symbol" binding:"required"`
	DisplayName  string          `json:"display_name" binding:"required"`
	ImageURL     string          `json:"image_url"`
	Quantity     decimal.Decimal `json:"quantity" binding:"required"`
	PricePerUnit decimal.Decimal `json:"price_per_unit" binding:"required"`
	Note         string          `json:"note"`
}

// Execute runs a buy or sell against a portfolio
func (h *TradeHandlers) Execute(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondUnauthorized(c, "User not authenticated")
		return
	}
	portfolioID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req tradeRequest
	if !bindJSON(c, &req) {
		return
	}

	order := &entities.TradeOrder{
		Type:         entities.TradeType(req.Type),
		Symbol:       req.Symbol,
		DisplayName:  req.DisplayName,
		ImageURL:     req.ImageURL,
		Quantity:     req.Quantity,
		PricePerUnit: req.PricePerUnit,
		Note:         req.Note,
	}

	result, err := h.tradingService.ExecuteTrade(c.Request.Context(), userID, portfolioID, order)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}
