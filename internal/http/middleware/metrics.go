package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/insightpath-backend/internal/observability"
)

// routes excluded from API metrics; health checks would drown out learner traffic.
var unmeasuredRoutes = map[string]bool{
	"/healthcheck": true,
}

// Metrics records request count and latency per registered route. Requests that match no
// route share a single "unmatched" label so path ids never become label values.
func Metrics(m *observability.Metrics) gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		route := c.FullPath()
		if unmeasuredRoutes[route] {
			c.Next()
			return
		}
		m.ApiInflightInc()
		start := time.Now()
		c.Next()
		m.ApiInflightDec()

		if route == "" {
			route = "unmatched"
		}
		m.ObserveAPI(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
