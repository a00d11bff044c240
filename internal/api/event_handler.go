package api

import (
	"net/http"
	"strconv"

	"github.com/davidversegaming/prediction-market-explorer/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// EventHandler serves the normalized event endpoints for the UI.
type EventHandler struct {
	marketService *service.MarketService
	logger        *logrus.Logger
}

// NewEventHandler creates an EventHandler.
func NewEventHandler(svc *service.MarketService, logger *logrus.Logger) *EventHandler {
	return &EventHandler{
		marketService: svc,
		logger:        logger,
	}
}

// ListEvents event list endpoint
// GET /api/events?limit=50&order=volume&ascending=false&active=true&closed=false&tag=politics
func (h *EventHandler) ListEvents(c *gin.Context) {
	filter := listFilterFromQuery(c)

	events, err := h.marketService.ListEvents(c.Request.Context(), filter)
	if err != nil {
		h.logger.WithError(err).Error("ListEvents failed")
		writeError(c, h.logger, err, "Not found", "Failed to fetch markets")
		return
	}

	c.JSON(http.StatusOK, events)
}

// GetEventBySlug event detail endpoint, slug is the stable lookup key
// GET /api/events/:slug
func (h *EventHandler) GetEventBySlug(c *gin.Context) {
	slug := c.Param("slug")
	if slug == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "slug is required"})
		return
	}

	event, err := h.marketService.GetEventBySlug(c.Request.Context(), slug)
	if err != nil {
		h.logger.WithError(err).WithField("slug", slug).Error("GetEventBySlug failed")
		writeError(c, h.logger, err, "Event not found", "Failed to fetch event")
		return
	}

	c.JSON(http.StatusOK, event)
}

// listFilterFromQuery reads the list filters, falling back to the landing
// page defaults when a parameter is absent or malformed.
func listFilterFromQuery(c *gin.Context) service.ListFilter {
	filter := service.DefaultListFilter()

	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "")); err == nil && limit > 0 {
		filter.Limit = limit
	}
	if order := c.Query("order"); order != "" {
		filter.Order = order
	}
	if asc, err := strconv.ParseBool(c.DefaultQuery("ascending", "")); err == nil {
		filter.Ascending = asc
	}
	if active, err := strconv.ParseBool(c.DefaultQuery("active", "")); err == nil {
		filter.Active = active
	}
	if closed, err := strconv.ParseBool(c.DefaultQuery("closed", "")); err == nil {
		filter.Closed = closed
	}
	filter.Tag = c.Query("tag")

	return filter
}
