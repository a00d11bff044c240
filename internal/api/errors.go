package api

import (
	"errors"
	"net/http"

	"github.com/davidversegaming/prediction-market-explorer/internal/service"
	"github.com/davidversegaming/prediction-market-explorer/internal/upstream"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// writeError maps a gateway failure onto the error taxonomy: upstream 404s
// (and empty records) become 404 with a domain message, other upstream
// statuses pass through, everything else is a 500. The body is always
// {"error": <message>}.
func writeError(c *gin.Context, logger *logrus.Logger, err error, notFoundMessage, failureMessage string) {
	var statusErr *upstream.StatusError
	var invalidPath *upstream.ErrInvalidPath

	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundMessage})
	case errors.As(err, &statusErr):
		if statusErr.NotFound() {
			c.JSON(http.StatusNotFound, gin.H{"error": notFoundMessage})
			return
		}
		c.JSON(statusErr.Code, gin.H{"error": failureMessage})
	case errors.As(err, &invalidPath):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid path"})
	default:
		logger.WithError(err).Error("Upstream request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": failureMessage})
	}
}
