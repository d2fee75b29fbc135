package endpoint

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/verbatim/version"
)

var startTime = time.Now()

// Info reports the build and any extra service facts, such as the
// recognition backend and export formats.
func Info(serviceName string, extra map[string]any) gin.HandlerFunc {
	return func(c *gin.Context) {
		body := gin.H{
			"service": serviceName,
			"build":   version.Get(),
			"uptime":  time.Since(startTime).Round(time.Second).String(),
		}
		for k, v := range extra {
			body[k] = v
		}
		c.JSON(http.StatusOK, body)
	}
}
