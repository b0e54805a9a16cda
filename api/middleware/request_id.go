package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/RyanBlaney/sonido-coach/logging"
)

// RequestIDHeader carries the per-request id in both directions
const RequestIDHeader = "X-Request-ID"

// RequestID tags every request with an id. A well-formed incoming id is kept.
// The id is echoed in the response and attached to the request context for
// logging.WithContext.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}

		c.Header(RequestIDHeader, id)
		c.Set("request_id", id)
		ctx := logging.ContextWithFields(c.Request.Context(), logging.Fields{"request_id": id})
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// AccessLog logs one line per request once the handler chain returns
func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := logging.Fields{
			"method":     c.Request.Method,
			"path":       c.FullPath(),
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"client_ip":  c.ClientIP(),
		}
		logger := logging.WithContext(c.Request.Context()).WithFields(logging.Fields{"component": "http"})

		switch {
		case c.Writer.Status() >= 500:
			var err error
			if last := c.Errors.Last(); last != nil {
				err = last
			}
			logger.Error(err, "Request failed", fields)
		case c.Writer.Status() >= 400:
			logger.Warn("Request rejected", fields)
		default:
			logger.Info("Request completed", fields)
		}
	}
}
