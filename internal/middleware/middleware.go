// Package middleware provides the small gin middleware chain this core
// needs, narrowed from the teacher's CORS/Auth/RateLimiter/i18n stack
// (none of which this log-collection core has a use for) down to request
// ids, request logging, panic recovery, and the "Connection: close" header.
package middleware

import (
	"time"

	apperrors "logcore/internal/errors"
	"logcore/internal/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// requestIDHeader is the header the request-id middleware sets on every
// response, so a caller can correlate a submission with the server log
// line that recorded it.
const requestIDHeader = "X-Request-ID"

// RequestID stamps every request with a UUID, attaching it to the gin
// context and the response header, the same correlation-id pattern the
// teacher attaches to proxied upstream requests.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := uuid.NewString()
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// Logger logs one line per request: method, path, status, latency.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		entry := logrus.WithFields(logrus.Fields{
			"method":     method,
			"path":       path,
			"status":     status,
			"latency":    latency,
			"request_id": c.GetString("request_id"),
		})
		switch {
		case status >= 500:
			entry.Error("request")
		case status >= 400:
			entry.Warn("request")
		default:
			entry.Info("request")
		}
	}
}

// Recovery converts a panic in a handler into a 500 Storage Error
// response instead of crashing the process, matching the teacher's
// gin.CustomRecovery pattern.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logrus.Errorf("panic recovered: %v", recovered)
		response.Error(c, apperrors.NewAPIError(apperrors.ErrStorageError, "Storage Error"))
		c.Abort()
	})
}

// Connection sets "Connection: close" on every response, per spec.md
// §4.5's single-request-per-connection wire contract.
func Connection() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Connection", "close")
		c.Next()
	}
}
