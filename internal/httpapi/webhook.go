package httpapi

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"paycall-platform/internal/calls"
	"paycall-platform/pkg/logger"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const headerWebhookSecret = "X-Webhook-Secret"

// maxWebhookBody caps provider callback bodies; real ones are well under 4 KiB.
const maxWebhookBody = 64 << 10

// RequireWebhookSecret rejects callbacks without the shared secret header.
// An empty secret disables the check (local development only; config refuses it in production).
func RequireWebhookSecret(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}
		got := c.GetHeader(headerWebhookSecret)
		if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid webhook secret"})
			return
		}
		c.Next()
	}
}

// RateLimit applies one shared token bucket to the route.
func RateLimit(rps float64, burst int) gin.HandlerFunc {
	lim := rate.NewLimiter(rate.Limit(rps), burst)
	return func(c *gin.Context) {
		if !lim.Allow() {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limited"})
			return
		}
		c.Next()
	}
}

// CallStatusWebhook applies a provider status callback.
//
// Transitions the state machine rejects are acknowledged with 200 so the provider
// stops retrying; they are already audited by the call service.
func (h Handlers) CallStatusWebhook(c *gin.Context) {
	log := logger.FromGin(c)

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody)
	ev, err := calls.ParseStatusEvent(c.Request)
	if err != nil {
		log.Warn("call status webhook parse failed", "err", err)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "payload too large"})
			return
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	call, err := h.Calls.ApplyEvent(c.Request.Context(), ev)
	if err != nil {
		var te *calls.TransitionError
		if errors.As(err, &te) {
			log.Info("call status webhook ignored", "call_id", call.ID, "from", te.From, "to", te.To)
			c.JSON(http.StatusOK, gin.H{"result": "rejected", "call_id": call.ID, "status": call.Status})
			return
		}
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": "applied", "call_id": call.ID, "status": call.Status})
}
