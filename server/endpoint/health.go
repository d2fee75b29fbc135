// Package endpoint serves the operational routes: /health, /ready and
// /info.
package endpoint

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/verbatim/component"
)

// HealthChecker returns the health of every registered component.
type HealthChecker func(ctx context.Context) []component.Health

// Overall folds component states: any unhealthy component makes the
// service unhealthy, otherwise any degraded one makes it degraded.
func Overall(components []component.Health) component.HealthStatus {
	status := component.StatusHealthy
	for _, h := range components {
		switch h.Status {
		case component.StatusUnhealthy:
			return component.StatusUnhealthy
		case component.StatusDegraded:
			status = component.StatusDegraded
		}
	}
	return status
}

// Health reports aggregated component health. Degraded still answers 200,
// since a saturated worker pool is not a reason to restart the process.
func Health(serviceName string, checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		var components []component.Health
		if checker != nil {
			components = checker(c.Request.Context())
		}
		status := Overall(components)
		code := http.StatusOK
		if status == component.StatusUnhealthy {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":     status,
			"service":    serviceName,
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
			"components": components,
		})
	}
}

// Readiness answers 503 while any component is unhealthy or degraded, so
// load balancers stop routing uploads to a full instance.
func Readiness(checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := component.StatusHealthy
		if checker != nil {
			status = Overall(checker(c.Request.Context()))
		}
		if status != component.StatusHealthy {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "reason": status})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	}
}
