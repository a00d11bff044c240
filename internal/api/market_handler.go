package api

import (
	"net/http"

	"github.com/davidversegaming/prediction-market-explorer/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// MarketHandler serves the normalized flat-market endpoints.
type MarketHandler struct {
	marketService *service.MarketService
	logger        *logrus.Logger
}

// NewMarketHandler creates a MarketHandler.
func NewMarketHandler(svc *service.MarketService, logger *logrus.Logger) *MarketHandler {
	return &MarketHandler{
		marketService: svc,
		logger:        logger,
	}
}

// ListMarkets market list endpoint
// GET /api/markets?limit=50&order=volume&ascending=false&active=true&closed=false
func (h *MarketHandler) ListMarkets(c *gin.Context) {
	filter := listFilterFromQuery(c)

	markets, err := h.marketService.ListMarkets(c.Request.Context(), filter)
	if err != nil {
		h.logger.WithError(err).Error("ListMarkets failed")
		writeError(c, h.logger, err, "Not found", "Failed to fetch markets")
		return
	}

	c.JSON(http.StatusOK, markets)
}

// GetMarketByID market detail endpoint
// GET /api/markets/:id
func (h *MarketHandler) GetMarketByID(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required"})
		return
	}

	market, err := h.marketService.GetMarketByID(c.Request.Context(), id)
	if err != nil {
		h.logger.WithError(err).WithField("id", id).Error("GetMarketByID failed")
		writeError(c, h.logger, err, "Market not found", "Failed to fetch market")
		return
	}

	c.JSON(http.StatusOK, market)
}
