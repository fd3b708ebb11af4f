package handler

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
)

// Health handles GET /health by checking every backing service
func Health(deps *Dependencies) gin.HandlerFunc {
	names := make([]string, 0, len(deps.Health))
	for name := range deps.Health {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		status := http.StatusOK
		checks := make(gin.H, len(names))
		for _, name := range names {
			if err := deps.Health[name].HealthCheck(ctx); err != nil {
				deps.Logger.Warn("Health check failed",
					slog.String("dependency", name),
					slog.String("error", err.Error()),
				)
				checks[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			checks[name] = "ok"
		}

		state := "healthy"
		if status != http.StatusOK {
			state = "unhealthy"
		}

		c.JSON(status, gin.H{
			"status":  state,
			"service": deps.ServiceName,
			"checks":  checks,
		})
	}
}
