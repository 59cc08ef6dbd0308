package httpapi

import (
	"errors"
	"net/http"
	"time"

	"paycall-platform/internal/auth"
	"paycall-platform/internal/calls"
	"paycall-platform/internal/campaigns"
	"paycall-platform/internal/pricing"
	"paycall-platform/internal/rbac"
	"paycall-platform/internal/reporting"
	"paycall-platform/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sony/gobreaker/v2"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Auth      *auth.Manager
	Campaigns *campaigns.Service
	Calls     *calls.Service
	Reports   *reporting.Service
	Rates     *pricing.Service

	// DevTokens enables POST /v1/auth/token. Never on in production.
	DevTokens bool
	Now       func() time.Time
}

var validate = validator.New()

func (h Handlers) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// bind decodes the JSON body into dst and runs struct validation.
func bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return false
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid " + verrs[0].Field(), "field": verrs[0].Field(), "rule": verrs[0].Tag()})
			return false
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return false
	}
	return true
}

type identity struct {
	UserID string
	Role   string
}

func (id identity) readAll() bool { return rbac.CanReadAll(id.Role) }
func (id identity) admin() bool   { return rbac.IsAdmin(id.Role) }

func identityFrom(c *gin.Context) identity {
	uid, _ := auth.UserID(c.Request.Context())
	role, _ := auth.Role(c.Request.Context())
	return identity{UserID: uid, Role: role}
}

// writeError maps domain errors onto HTTP status codes.
func writeError(c *gin.Context, err error) {
	status, msg := http.StatusInternalServerError, "internal error"
	switch {
	case errors.Is(err, calls.ErrNotFound), errors.Is(err, campaigns.ErrNotFound):
		status, msg = http.StatusNotFound, "not found"
	case errors.Is(err, calls.ErrInvalidTransition), errors.Is(err, campaigns.ErrInvalidTransition):
		status, msg = http.StatusConflict, err.Error()
	case errors.Is(err, calls.ErrDuplicate):
		status, msg = http.StatusConflict, "provider call id already tracked"
	case errors.Is(err, calls.ErrNotAccepting):
		status, msg = http.StatusConflict, "campaign is not accepting calls"
	case errors.Is(err, calls.ErrConcurrencyLimit):
		status, msg = http.StatusTooManyRequests, "campaign concurrency limit reached"
	case errors.Is(err, calls.ErrInvalidArgument), errors.Is(err, campaigns.ErrInvalidArgument),
		errors.Is(err, reporting.ErrInvalidRequest), errors.Is(err, pricing.ErrInvalidRateReq),
		errors.Is(err, pricing.ErrInvalidRate),
		errors.Is(err, calls.ErrInvalidEvent):
		status, msg = http.StatusBadRequest, "invalid request"
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		status, msg = http.StatusServiceUnavailable, "storage unavailable"
	}
	if status >= 500 {
		logger.FromGin(c).Error("request failed", "err", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// --- Auth ---

type tokenRequest struct {
	UserID string `json:"user_id" validate:"required,max=128"`
	Role   string `json:"role" validate:"required,oneof=advertiser analyst admin"`
}

// IssueToken issues a JWT pair for any user id.
//
// NOTE: development only. Real systems must validate credentials.
func (h Handlers) IssueToken(c *gin.Context) {
	if !h.DevTokens {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if h.Auth == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
		return
	}
	var req tokenRequest
	if !bind(c, &req) {
		return
	}
	pair, err := h.Auth.IssuePair(h.now(), req.UserID, req.Role)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, pair)
}
