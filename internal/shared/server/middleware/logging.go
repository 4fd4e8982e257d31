package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"intake-backend/internal/shared/telemetry"
)

// Logging emits a structured log per request.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.EqualFold(c.Request.Method, "OPTIONS") {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()
		reqID := RequestIDFromContext(c)

		jobID, _ := c.Get("jobId")
		taskID, _ := c.Get("taskId")
		phaseTransition := ""
		if raw, ok := c.Get("phaseTransition"); ok {
			if s, ok := raw.(string); ok {
				phaseTransition = s
			}
		}

		telemetry.Info("request.complete", map[string]any{
			"request_id":       reqID,
			"method":           c.Request.Method,
			"path":             c.Request.URL.Path,
			"status":           status,
			"phase_transition": phaseTransition,
			"duration_ms":      float64(latency.Microseconds()) / 1000.0,
			"job_id":           jobID,
			"task_id":          taskID,
			"client_ip":        c.ClientIP(),
			"user_agent":       c.Request.UserAgent(),
		})
	}
}
