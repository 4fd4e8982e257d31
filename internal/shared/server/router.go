package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"intake-backend/internal/bootstrap"
	"intake-backend/internal/jobs"
	"intake-backend/internal/records"
	"intake-backend/internal/shared/config"
	"intake-backend/internal/shared/metrics"
	"intake-backend/internal/shared/server/middleware"
	"intake-backend/internal/shared/server/respond"
	"intake-backend/internal/webhook"
)

const pollingGroup = "POLLING"

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(cfg config.Config, app *bootstrap.App) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules: map[string]middleware.RateLimitRule{
				"DEFAULT":    {Rate: 5, Burst: 20},
				pollingGroup: {Rate: 2, Burst: 60},
			},
			DefaultGroup: "DEFAULT",
			GroupFor: func(c *gin.Context) string {
				if c.Request.Method == http.MethodGet && c.FullPath() == "/api/v1/intake/status" {
					return pollingGroup
				}
				return "DEFAULT"
			},
		}),
	)

	r.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/metrics", metrics.Handler())

	intakeHandler := jobs.NewHandler(app.Jobs)
	recordsHandler := records.NewHandler(app.Records)
	settingsHandler := webhook.NewHandler(app.Settings)

	api := r.Group("/api/v1")
	intakeHandler.RegisterRoutes(api)
	intakeHandler.RegisterStatusRoute(api)
	recordsHandler.RegisterRoutes(api)
	settingsHandler.RegisterRoutes(api)

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
