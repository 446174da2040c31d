package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Check reports whether one backing service is reachable.
type Check func(ctx context.Context) error

func health(checks map[string]Check, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := gin.H{}
		healthy := true
		for name, check := range checks {
			if err := check(ctx); err != nil {
				logger.Warn("health check failed", zap.String("check", name), zap.Error(err))
				status[name] = "down"
				healthy = false
				continue
			}
			status[name] = "ok"
		}
		code := http.StatusOK
		if !healthy {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"ok": healthy, "checks": status})
	}
}
