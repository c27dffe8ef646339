package middleware

import (
	"ayudasocial/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestID propagates the caller's X-Request-ID or assigns a new one
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(logger.RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Set(logger.RequestIDKey, requestID)
		c.Header(logger.RequestIDHeader, requestID)

		c.Next()
	}
}
