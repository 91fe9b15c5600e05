package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/wso2/openbanking-berlin-consent/internal/system/constants"
	"github.com/wso2/openbanking-berlin-consent/internal/system/log"
)

// CorrelationIDMiddleware propagates or generates a correlation ID and stores it on the request context.
func CorrelationIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationID := extractCorrelationID(c)
		if correlationID == "" {
			correlationID = uuid.New().String()
		}
		c.Set(log.LoggerKeyCorrelationID, correlationID)
		c.Header(constants.CorrelationIDHeaderName, correlationID)

		ctx := context.WithValue(c.Request.Context(), log.CorrelationIDContextKey, correlationID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func extractCorrelationID(c *gin.Context) string {
	headers := []string{constants.CorrelationIDHeaderName, constants.RequestIDHeaderName, constants.TraceIDHeaderName}
	for _, header := range headers {
		if id := c.GetHeader(header); id != "" {
			return id
		}
	}
	return ""
}
