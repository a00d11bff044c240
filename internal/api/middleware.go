package api

import (
	"strconv"

	"github.com/davidversegaming/prediction-market-explorer/internal/metrics"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestID assigns each request a uuid, echoed in X-Request-ID so UI reports
// can be matched to server logs. An inbound id is kept if the client sent one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Writer.Header().Set("X-Request-ID", id)
		c.Next()
	}
}

// RequestMetrics counts inbound requests per route and status code.
func RequestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
