package http

import (
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
)

// RequestLogger logs one line per request once the handler chain returns.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		slog.InfoContext(c.Request.Context(), "http_request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"ip", c.ClientIP(),
			"latency", time.Since(start),
		)
	}
}

// Recovery turns a panic into the 500 envelope.
func Recovery(production bool) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		stack := string(debug.Stack())
		err := fmt.Errorf("panic: %v", recovered)

		slog.ErrorContext(c.Request.Context(), "Recovered from panic",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"error", err,
			"stack", stack,
		)
		internalError(c, production, err, stack)
	})
}
