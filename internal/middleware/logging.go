// Package middleware holds the Gin middleware for the HTTP surface.
package middleware

import (
	"bytes"
	"io"
	"time"

	"lexguard-go/pkg/log"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestLogger logs every request with its latency, status and body
// sizes. Bodies themselves stay out of the log: queries, answers and
// document text must not leak into log storage.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header("X-Request-ID", requestID)

		var requestBody []byte
		if c.Request.Body != nil {
			requestBody, _ = io.ReadAll(c.Request.Body)
		}
		// Restore the body so downstream handlers can read it again.
		c.Request.Body = io.NopCloser(bytes.NewBuffer(requestBody))

		c.Next()

		log.Infow("HTTP Request Log",
			"requestId", requestID,
			"statusCode", c.Writer.Status(),
			"latency", time.Since(startTime).String(),
			"clientIP", c.ClientIP(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"requestBytes", len(requestBody),
			"responseBytes", c.Writer.Size(),
		)
	}
}
