package httpapi

import (
	"net/http"
	"time"

	"paycall-platform/internal/pricing"

	"github.com/gin-gonic/gin"
)

type createRateRequest struct {
	UserID        string     `json:"user_id" validate:"required,max=128"`
	Category      string     `json:"category" validate:"required,max=64"`
	RatePerMinute float64    `json:"rate_per_minute" validate:"gte=0"`
	EffectiveFrom *time.Time `json:"effective_from"`
	EffectiveTo   *time.Time `json:"effective_to"`
}

// CreateRate adds a per-minute rate row for an advertiser's category.
// Admin only; new calls pick it up once it is effective.
func (h Handlers) CreateRate(c *gin.Context) {
	var req createRateRequest
	if !bind(c, &req) {
		return
	}
	in := pricing.NewRate{
		UserID:        req.UserID,
		Category:      req.Category,
		RatePerMinute: req.RatePerMinute,
		EffectiveTo:   req.EffectiveTo,
	}
	if req.EffectiveFrom != nil {
		in.EffectiveFrom = *req.EffectiveFrom
	}
	rate, err := h.Rates.CreateRate(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rate)
}
