package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fatflowers/giveledger/pkg/logctx"
)

// TraceMiddleware adds a trace ID to the request context.
// It reads X-Request-ID if provided by the client; otherwise generates a UUID.
// The trace ID is stored in both gin.Context (key: "traceID") and the request's context.Context.
func TraceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader("X-Request-ID")
		if traceID == "" {
			traceID = uuid.New().String()
		}

		c.Set(logctx.KeyTraceID, traceID)
		//nolint:staticcheck // string key shared with gin.Context
		ctx := context.WithValue(c.Request.Context(), logctx.KeyTraceID, traceID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
