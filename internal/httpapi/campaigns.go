package httpapi

import (
	"net/http"
	"time"

	"paycall-platform/internal/campaigns"

	"github.com/gin-gonic/gin"
)

type scheduleRequest struct {
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	Timezone    string     `json:"timezone" validate:"omitempty,timezone"`
	ActiveStart string     `json:"active_start" validate:"omitempty,len=5"`
	ActiveEnd   string     `json:"active_end" validate:"omitempty,len=5"`
	// ActiveDays uses 0 = Sunday ... 6 = Saturday.
	ActiveDays []int `json:"active_days" validate:"max=7,dive,min=0,max=6"`
}

type createCampaignRequest struct {
	Name               string          `json:"name" validate:"required,max=200"`
	Category           string          `json:"category" validate:"max=64"`
	DefaultPerMinute   float64         `json:"default_per_minute" validate:"gte=0"`
	MaxConcurrentCalls int             `json:"max_concurrent_calls" validate:"gte=0,lte=10000"`
	DailyBudget        float64         `json:"daily_budget" validate:"gte=0"`
	TotalBudget        float64         `json:"total_budget" validate:"gte=0"`
	Schedule           scheduleRequest `json:"schedule"`
}

func (r scheduleRequest) toSchedule() campaigns.Schedule {
	s := campaigns.Schedule{
		Timezone:    r.Timezone,
		ActiveHours: campaigns.ActiveHours{Start: r.ActiveStart, End: r.ActiveEnd},
	}
	if r.StartDate != nil {
		s.StartDate = r.StartDate.UTC()
	}
	if r.EndDate != nil {
		s.EndDate = r.EndDate.UTC()
	}
	for _, d := range r.ActiveDays {
		s.ActiveDays = append(s.ActiveDays, time.Weekday(d))
	}
	return s
}

type campaignView struct {
	campaigns.Campaign
	Metrics        campaigns.Metrics `json:"metrics"`
	ActiveNow      bool              `json:"active_now"`
	AcceptingCalls bool              `json:"accepting_calls"`
}

func viewOf(c campaigns.Campaign, now time.Time) campaignView {
	return campaignView{
		Campaign:       c,
		Metrics:        c.Metrics(),
		ActiveNow:      c.IsActiveAt(now),
		AcceptingCalls: c.AcceptingCalls(now),
	}
}

func (h Handlers) CreateCampaign(c *gin.Context) {
	var req createCampaignRequest
	if !bind(c, &req) {
		return
	}
	if req.Schedule.StartDate != nil && req.Schedule.EndDate != nil && req.Schedule.EndDate.Before(*req.Schedule.StartDate) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "end_date before start_date"})
		return
	}
	id := identityFrom(c)
	camp, err := h.Campaigns.Create(c.Request.Context(), id.UserID, campaigns.NewCampaign{
		Name:               req.Name,
		Category:           req.Category,
		DefaultPerMinute:   req.DefaultPerMinute,
		MaxConcurrentCalls: req.MaxConcurrentCalls,
		DailyBudget:        req.DailyBudget,
		TotalBudget:        req.TotalBudget,
		Schedule:           req.Schedule.toSchedule(),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, viewOf(camp, h.now()))
}

func (h Handlers) ListCampaigns(c *gin.Context) {
	id := identityFrom(c)
	owner := id.UserID
	if id.readAll() {
		owner = c.Query("user_id")
	}
	list, err := h.Campaigns.List(c.Request.Context(), owner)
	if err != nil {
		writeError(c, err)
		return
	}
	now := h.now()
	out := make([]campaignView, 0, len(list))
	for _, camp := range list {
		out = append(out, viewOf(camp, now))
	}
	c.JSON(http.StatusOK, gin.H{"campaigns": out})
}

// loadCampaign applies read scoping: cross-account roles see any campaign, others only their own.
func (h Handlers) loadCampaign(c *gin.Context, forWrite bool) (campaigns.Campaign, bool) {
	id := identityFrom(c)
	campaignID := c.Param("id")

	var (
		camp campaigns.Campaign
		err  error
	)
	if id.admin() || (!forWrite && id.readAll()) {
		camp, err = h.Campaigns.Get(c.Request.Context(), campaignID)
	} else {
		camp, err = h.Campaigns.GetOwned(c.Request.Context(), id.UserID, campaignID)
	}
	if err != nil {
		writeError(c, err)
		return campaigns.Campaign{}, false
	}
	return camp, true
}

func (h Handlers) GetCampaign(c *gin.Context) {
	camp, ok := h.loadCampaign(c, false)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, viewOf(camp, h.now()))
}

type campaignStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=draft active paused completed cancelled"`
}

func (h Handlers) ChangeCampaignStatus(c *gin.Context) {
	var req campaignStatusRequest
	if !bind(c, &req) {
		return
	}
	camp, ok := h.loadCampaign(c, true)
	if !ok {
		return
	}
	id := identityFrom(c)
	camp, err := h.Campaigns.ChangeStatus(c.Request.Context(), camp, campaigns.Status(req.Status), id.UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewOf(camp, h.now()))
}

// CampaignActive evaluates the schedule at ?at= (RFC3339, default now).
func (h Handlers) CampaignActive(c *gin.Context) {
	at := h.now()
	if raw := c.Query("at"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "at must be RFC3339"})
			return
		}
		at = t
	}
	camp, ok := h.loadCampaign(c, false)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"campaign_id":     camp.ID,
		"at":              at.UTC(),
		"active":          h.Campaigns.IsActive(camp, at),
		"accepting_calls": camp.AcceptingCalls(at),
	})
}
