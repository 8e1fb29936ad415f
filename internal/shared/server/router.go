package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"resume-formatter/internal/services/health"
	"resume-formatter/internal/shared/metrics"
	"resume-formatter/internal/shared/server/middleware"
	"resume-formatter/internal/shared/server/respond"
)

// NewRouter constructs the ops router: liveness, readiness and metrics.
func NewRouter(healthSvc *health.Service) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging("/healthz", "/readyz", "/metrics"),
		middleware.Recovery(),
	)

	r.GET("/healthz", func(c *gin.Context) {
		respond.OK(c, healthSvc.Status())
	})
	r.GET("/readyz", func(c *gin.Context) {
		if err := healthSvc.Ready(c.Request.Context()); err != nil {
			respond.Error(c, http.StatusServiceUnavailable, "not_ready", "database unavailable", gin.H{"error": err.Error()})
			return
		}
		respond.OK(c, gin.H{"ok": true})
	})
	r.GET("/metrics", metrics.Handler())

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
