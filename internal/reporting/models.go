package reporting

import "time"

// StatsRequest selects one owner's calls initiated in [From, To).
// Zero bounds are open.
type StatsRequest struct {
	UserID string    `json:"user_id"`
	From   time.Time `json:"from"`
	To     time.Time `json:"to"`
}

type CallStats struct {
	UserID string    `json:"user_id"`
	From   time.Time `json:"from,omitzero"`
	To     time.Time `json:"to,omitzero"`

	TotalCalls    int     `json:"total_calls"`
	TotalDuration int     `json:"total_duration"`
	TotalCost     float64 `json:"total_cost"`
	TotalRevenue  float64 `json:"total_revenue"`
	// AverageDuration is 0 when there are no calls.
	AverageDuration float64 `json:"average_duration"`
	QualifiedLeads  int     `json:"qualified_leads"`

	ByStatus  map[string]int  `json:"by_status"`
	Campaigns []CampaignStats `json:"campaigns"`
}

// CampaignStats is the per-campaign slice of the same window.
type CampaignStats struct {
	CampaignID     string  `json:"campaign_id"`
	TotalCalls     int     `json:"total_calls"`
	TotalDuration  int     `json:"total_duration"`
	TotalCost      float64 `json:"total_cost"`
	TotalRevenue   float64 `json:"total_revenue"`
	QualifiedLeads int     `json:"qualified_leads"`
}
