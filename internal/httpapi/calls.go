package httpapi

import (
	"net/http"
	"time"

	"paycall-platform/internal/calls"

	"github.com/gin-gonic/gin"
)

type startCallRequest struct {
	CampaignID     string     `json:"campaign_id" validate:"required"`
	CallerNumber   string     `json:"caller_number" validate:"required,e164"`
	TrackingNumber string     `json:"tracking_number" validate:"omitempty,e164"`
	ProviderCallID string     `json:"provider_call_id" validate:"max=128"`
	PerMinute      float64    `json:"per_minute" validate:"gte=0"`
	At             *time.Time `json:"at"`
}

func (h Handlers) StartCall(c *gin.Context) {
	var req startCallRequest
	if !bind(c, &req) {
		return
	}
	id := identityFrom(c)
	owner := id.UserID
	if id.admin() {
		camp, err := h.Campaigns.Get(c.Request.Context(), req.CampaignID)
		if err != nil {
			writeError(c, err)
			return
		}
		owner = camp.UserID
	}

	in := calls.NewCall{
		CampaignID:     req.CampaignID,
		CallerNumber:   req.CallerNumber,
		TrackingNumber: req.TrackingNumber,
		ProviderCallID: req.ProviderCallID,
		PerMinute:      req.PerMinute,
	}
	if req.At != nil {
		in.At = *req.At
	}
	call, err := h.Calls.Start(c.Request.Context(), owner, in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, call)
}

// ListCalls returns the caller's calls initiated in [?from, ?to) (RFC3339, both optional).
func (h Handlers) ListCalls(c *gin.Context) {
	id := identityFrom(c)
	owner := id.UserID
	if other := c.Query("user_id"); other != "" && id.readAll() {
		owner = other
	}
	from, to, ok := queryWindow(c)
	if !ok {
		return
	}
	list, err := h.Calls.List(c.Request.Context(), owner, from, to)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"calls": list})
}

// loadCall applies the same scoping rules as loadCampaign.
func (h Handlers) loadCall(c *gin.Context, forWrite bool) (calls.Call, bool) {
	id := identityFrom(c)
	callID := c.Param("id")

	var (
		call calls.Call
		err  error
	)
	if id.admin() || (!forWrite && id.readAll()) {
		call, err = h.Calls.Get(c.Request.Context(), callID)
	} else {
		call, err = h.Calls.GetOwned(c.Request.Context(), id.UserID, callID)
	}
	if err != nil {
		writeError(c, err)
		return calls.Call{}, false
	}
	return call, true
}

func (h Handlers) GetCall(c *gin.Context) {
	call, ok := h.loadCall(c, false)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, call)
}

type callStatusRequest struct {
	Status string     `json:"status" validate:"required,oneof=initiated ringing answered completed failed no_answer busy"`
	At     *time.Time `json:"at"`
}

func (h Handlers) UpdateCallStatus(c *gin.Context) {
	var req callStatusRequest
	if !bind(c, &req) {
		return
	}
	call, ok := h.loadCall(c, true)
	if !ok {
		return
	}
	var at time.Time
	if req.At != nil {
		at = *req.At
	}
	call, err := h.Calls.ApplyStatus(c.Request.Context(), call.ID, calls.Status(req.Status), at)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, call)
}

type revenueRequest struct {
	Amount float64 `json:"amount" validate:"gte=0"`
	Source string  `json:"source" validate:"max=64"`
}

func (h Handlers) SetCallRevenue(c *gin.Context) {
	var req revenueRequest
	if !bind(c, &req) {
		return
	}
	call, ok := h.loadCall(c, true)
	if !ok {
		return
	}
	call, err := h.Calls.SetRevenue(c.Request.Context(), call.ID, req.Amount, req.Source)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, call)
}

type qualityRequest struct {
	Score  int      `json:"score" validate:"required,min=1,max=5"`
	Issues []string `json:"issues" validate:"max=20,dive,required,max=64"`
}

func (h Handlers) SetCallQuality(c *gin.Context) {
	var req qualityRequest
	if !bind(c, &req) {
		return
	}
	call, ok := h.loadCall(c, true)
	if !ok {
		return
	}
	call, err := h.Calls.SetQuality(c.Request.Context(), call.ID, req.Score, req.Issues)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, call)
}

type leadRequest struct {
	BudgetMin float64 `json:"budget_min" validate:"gte=0"`
}

func (h Handlers) SetCallLead(c *gin.Context) {
	var req leadRequest
	if !bind(c, &req) {
		return
	}
	call, ok := h.loadCall(c, true)
	if !ok {
		return
	}
	call, err := h.Calls.SetLead(c.Request.Context(), call.ID, req.BudgetMin)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, call)
}
