package calls

import (
	"time"

	"paycall-platform/internal/campaigns"
)

// Call is a single tracked phone call attributed to a campaign.
//
// Ownership invariant: CampaignID and UserID are set on creation and never reassigned.
//
// Derived fields (Duration, WaitTime, Cost.Total, Lead.Score, Lead.Qualified) are
// owned by Recompute and CalculateQualificationScore. Callers must not write them.
type Call struct {
	ID         string `json:"id" db:"id"`
	CampaignID string `json:"campaign_id" db:"campaign_id"`
	UserID     string `json:"user_id" db:"user_id"`

	CallerNumber   string `json:"caller_number" db:"caller_number"`
	TrackingNumber string `json:"tracking_number,omitempty" db:"tracking_number"`
	// ProviderCallID is the telephony provider's identifier, if the call came in through a webhook.
	ProviderCallID string `json:"provider_call_id,omitempty" db:"provider_call_id"`

	Status Status `json:"status" db:"status"`

	InitiatedAt time.Time  `json:"initiated_at" db:"initiated_at"`
	RingingAt   *time.Time `json:"ringing_at,omitempty" db:"ringing_at"`
	AnsweredAt  *time.Time `json:"answered_at,omitempty" db:"answered_at"`
	EndedAt     *time.Time `json:"ended_at,omitempty" db:"ended_at"`

	// Duration is answered → ended in whole seconds.
	Duration int `json:"duration" db:"duration"`
	// WaitTime is ringing → answered in whole seconds.
	WaitTime int `json:"wait_time" db:"wait_time"`

	Cost    Cost    `json:"cost"`
	Revenue Revenue `json:"revenue"`
	Lead    Lead    `json:"lead"`
	Quality Quality `json:"quality"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type Cost struct {
	PerMinute float64 `json:"per_minute" db:"cost_per_minute"`
	Total     float64 `json:"total" db:"cost_total"`
}

type Revenue struct {
	Amount float64 `json:"amount" db:"revenue_amount"`
	Source string  `json:"source,omitempty" db:"revenue_source"`
}

type Lead struct {
	// BudgetMin is the caller's stated minimum budget, captured by the agent.
	BudgetMin float64 `json:"budget_min" db:"lead_budget_min"`
	Score     int     `json:"score" db:"lead_score"`
	Qualified bool    `json:"qualified" db:"lead_qualified"`
}

type Quality struct {
	// Score is 1..5; 0 means not rated yet.
	Score  int      `json:"score" db:"quality_score"`
	Issues []string `json:"issues,omitempty" db:"quality_issues"`
}

type Status string

const (
	StatusInitiated Status = "initiated"
	StatusRinging   Status = "ringing"
	StatusAnswered  Status = "answered"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusNoAnswer  Status = "no_answer"
	StatusBusy      Status = "busy"
)

// Valid reports whether s is one of the known call statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusInitiated, StatusRinging, StatusAnswered,
		StatusCompleted, StatusFailed, StatusNoAnswer, StatusBusy:
		return true
	default:
		return false
	}
}

// Terminal reports whether no further transition is allowed out of s.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusNoAnswer, StatusBusy:
		return true
	default:
		return false
	}
}

// Outcome snapshots the call's current derived values for campaign aggregation.
func (c *Call) Outcome() campaigns.Outcome {
	at := c.UpdatedAt
	if c.EndedAt != nil {
		at = *c.EndedAt
	}
	return campaigns.Outcome{
		CallID:     c.ID,
		CampaignID: c.CampaignID,
		Duration:   c.Duration,
		Cost:       c.Cost.Total,
		Revenue:    c.Revenue.Amount,
		Qualified:  c.Lead.Qualified,
		At:         at,
	}
}
