package main

import (
	"log/slog"
	"net/http"
	"time"

	"paycall-platform/internal/auth"
	"paycall-platform/internal/config"
	"paycall-platform/internal/httpapi"
	"paycall-platform/pkg/logger"
	"paycall-platform/pkg/metrics"
	"paycall-platform/pkg/utils"

	"github.com/gin-gonic/gin"
)

// newRouter wires middleware, health and API routes.
// Keep this file free of business logic.
func newRouter(cfg config.Config, log *slog.Logger, m *auth.Manager, h httpapi.Handlers, st *storage) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log, "/healthz", "/readyz", "/metrics"))
	r.Use(metrics.Middleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/readyz", func(c *gin.Context) {
		if st.db != nil {
			if err := utils.HealthCheck(c.Request.Context(), st.db, 2*time.Second); err != nil {
				logger.FromGin(c).Warn("readiness check failed", "err", err)
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metrics.Handler())

	h.Register(r, auth.RequireAccessToken(m), httpapi.WebhookOptions{
		Secret:    cfg.Webhook.Secret,
		RateRPS:   cfg.Webhook.RateRPS,
		RateBurst: cfg.Webhook.RateBurst,
	})
	return r
}
