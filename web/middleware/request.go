package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const RequestIDHeader = "X-Request-ID"

const loggerKey = "logger"

// RequestMiddleware tags every request with an id, taken from the
// X-Request-ID header when it parses as a UUID, and stores a logger carrying
// that id in the context. Requests are logged once they complete.
func RequestMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID, err := uuid.Parse(c.GetHeader(RequestIDHeader))
		if err != nil {
			requestID = uuid.New()
		}
		c.Header(RequestIDHeader, requestID.String())

		reqLogger := logger.With(zap.String("request_id", requestID.String()))
		c.Set(loggerKey, reqLogger)

		start := time.Now()
		c.Next()

		reqLogger.Debug("Request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)))
	}
}

// LoggerFrom returns the request-scoped logger, or a no-op logger when
// RequestMiddleware has not run.
func LoggerFrom(c *gin.Context) *zap.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if l, ok := v.(*zap.Logger); ok {
			return l
		}
	}
	return zap.NewNop()
}
