package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rulekit/rulecheck/internal/logger"
)

const requestIDKey = "request_id"

// requestID honors an incoming X-Request-ID and generates one otherwise,
// so log lines can be correlated with client traces.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// requestLogger writes one line per finished request.
func requestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.WithField(requestIDKey, c.GetString(requestIDKey)).
			Info("%s %s -> %d (%v)",
				c.Request.Method,
				c.Request.URL.Path,
				c.Writer.Status(),
				time.Since(start).Round(time.Millisecond),
			)
	}
}
