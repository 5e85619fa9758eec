package http

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"motorvault/internal/logger"
)

// AdminTokenHeader carries the static admin token.
const AdminTokenHeader = "X-Admin-Token"

// Logger returns a gin middleware for structured request logging.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		logger.Info("API request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// Recovery turns a handler panic into a 500 response.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error(fmt.Errorf("panic recovered: %v", err),
					zap.String("path", c.Request.URL.Path),
				)
				respondWithError(c, http.StatusInternalServerError, errCodeInternal, "internal error")
				c.Abort()
			}
		}()
		c.Next()
	}
}

// AdminAuth rejects requests without the configured admin token.
func AdminAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader(AdminTokenHeader)
		if token == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			respondWithError(c, http.StatusUnauthorized, errCodeUnauthorized, "admin token required")
			c.Abort()
			return
		}
		c.Next()
	}
}
