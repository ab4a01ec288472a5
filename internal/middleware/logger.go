package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ContextRequestID is the key for the generated request ID in gin context.
const ContextRequestID = "request_id"

// Logger returns a zap-based request logging middleware. Each request gets a
// generated ID so upstream relay failures can be matched to their inbound
// request in the logs.
func Logger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		clientIP := c.ClientIP()
		method := c.Request.Method

		requestID := uuid.New().String()
		c.Set(ContextRequestID, requestID)
		c.Header("X-Request-ID", requestID)

		c.Next()

		logger.Info("request",
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("method", method),
			zap.String("path", path),
			zap.String("client_ip", clientIP),
			zap.String("request_id", requestID),
		)
	}
}
