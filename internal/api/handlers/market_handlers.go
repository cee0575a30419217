package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sensei-service/sensei_service/internal/infrastructure/marketdata"
	"github.com/sensei-service/sensei_service/pkg/logger"
)

// MarketHandlers proxies cached market data
type MarketHandlers struct {
	client *marketdata.Client
	logger *logger.Logger
}

// NewMarketHandlers creates new market data handlers
func NewMarketHandlers(client *marketdata.Client, logger *logger.Logger) *MarketHandlers {
	return &MarketHandlers{
		client: client,
		logger: logger,
	}
}

// Markets returns coin listings ordered by market cap
func (h *MarketHandlers) Markets(c *gin.Context) {
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "50"))
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))

	body, err := h.client.Markets(c.Request.Context(), c.Query("vs_currency"), perPage, page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", body)
}

// Price returns current prices for the requested coin ids
func (h *MarketHandlers) Price(c *gin.Context) {
	body, err := h.client.SimplePrice(c.Request.Context(), c.Query("ids"), c.Query("vs_currencies"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", body)
}

// History returns a coin's market chart
func (h *MarketHandlers) History(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "7"))

	body, err := h.client.History(c.Request.Context(), c.Param("coin_id"), days)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", body)
}

// Search looks up coins by name or symbol
func (h *MarketHandlers) Search(c *gin.Context) {
	body, err := h.client.Search(c.Request.Context(), c.Query("query"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", body)
}
