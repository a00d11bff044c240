package api

import (
	"net/http"

	"github.com/davidversegaming/prediction-market-explorer/internal/upstream"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ProxyHandler is the generic passthrough surface: the upstream body comes
// back verbatim, with no normalization. The mandatory path parameter selects
// the upstream resource and is the only parameter not forwarded.
type ProxyHandler struct {
	client *upstream.Client
	logger *logrus.Logger
}

// NewProxyHandler creates a ProxyHandler.
func NewProxyHandler(client *upstream.Client, logger *logrus.Logger) *ProxyHandler {
	return &ProxyHandler{
		client: client,
		logger: logger,
	}
}

// Proxy generic upstream passthrough
// GET /api/proxy?path=/events&limit=10&...
func (h *ProxyHandler) Proxy(c *gin.Context) {
	path := c.Query("path")
	if path == "" {
		// Fail fast, no upstream call.
		c.JSON(http.StatusBadRequest, gin.H{"error": "Path is required"})
		return
	}

	params := c.Request.URL.Query()
	params.Del("path")

	body, err := h.client.Get(c.Request.Context(), path, params)
	if err != nil {
		h.logger.WithError(err).WithField("path", path).Error("Proxy request failed")
		writeError(c, h.logger, err, "Not found", "Failed to fetch data")
		return
	}

	c.Data(http.StatusOK, "application/json", body)
}
