package httpapi

import (
	"paycall-platform/internal/rbac"

	"github.com/gin-gonic/gin"
)

// WebhookOptions configures the public provider callback route.
type WebhookOptions struct {
	Secret    string
	RateRPS   float64
	RateBurst int
}

// Register wires routes to handlers.
// Keep this free of business logic; handlers delegate to internal modules.
func (h Handlers) Register(r gin.IRouter, authMW gin.HandlerFunc, hook WebhookOptions) {
	r.POST("/webhooks/call-status",
		RateLimit(hook.RateRPS, hook.RateBurst),
		RequireWebhookSecret(hook.Secret),
		h.CallStatusWebhook,
	)

	v1 := r.Group("/v1")
	v1.POST("/auth/token", h.IssueToken)

	protected := v1.Group("")
	protected.Use(authMW, rbac.RequireUser())

	readers := rbac.RequireAnyRole(rbac.RoleAdvertiser, rbac.RoleAnalyst)
	writers := rbac.RequireAnyRole(rbac.RoleAdvertiser)
	// no listed roles: only the admin bypass gets through
	admins := rbac.RequireAnyRole()

	camps := protected.Group("/campaigns")
	{
		camps.POST("", writers, h.CreateCampaign)
		camps.GET("", readers, h.ListCampaigns)
		camps.GET("/:id", readers, h.GetCampaign)
		camps.POST("/:id/status", writers, h.ChangeCampaignStatus)
		camps.GET("/:id/active", readers, h.CampaignActive)
	}

	cs := protected.Group("/calls")
	{
		cs.POST("", writers, h.StartCall)
		cs.GET("", readers, h.ListCalls)
		cs.GET("/:id", readers, h.GetCall)
		cs.POST("/:id/status", writers, h.UpdateCallStatus)
		cs.PUT("/:id/revenue", writers, h.SetCallRevenue)
		cs.PUT("/:id/quality", writers, h.SetCallQuality)
		cs.PUT("/:id/lead", writers, h.SetCallLead)
	}

	protected.GET("/stats/calls", readers, h.CallStats)
	protected.POST("/rates", admins, h.CreateRate)
}
