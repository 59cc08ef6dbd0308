package campaigns

import "time"

// Campaign is an advertiser-owned pay-per-call campaign.
//
// Invariants:
//   - Budget.Remaining == Budget.Total - Budget.Spent after every spend mutation.
//   - Performance is only changed by folding call outcomes (Fold/Adjust), never assigned.
type Campaign struct {
	ID     string `json:"id" db:"id"`
	UserID string `json:"user_id" db:"user_id"`
	Name   string `json:"name" db:"name"`

	// Category is the vertical (e.g. "insurance", "legal") used for rate lookup.
	Category string `json:"category,omitempty" db:"category"`
	// DefaultPerMinute is used when no pricing row matches a new call.
	DefaultPerMinute float64 `json:"default_per_minute" db:"default_per_minute"`
	// MaxConcurrentCalls caps simultaneous live calls. 0 means unlimited.
	MaxConcurrentCalls int `json:"max_concurrent_calls" db:"max_concurrent_calls"`

	Status Status `json:"status" db:"status"`

	Budget      Budget      `json:"budget"`
	Performance Performance `json:"performance"`
	Schedule    Schedule    `json:"schedule"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type Budget struct {
	Daily     float64 `json:"daily" db:"budget_daily"`
	Total     float64 `json:"total" db:"budget_total"`
	Spent     float64 `json:"spent" db:"budget_spent"`
	Remaining float64 `json:"remaining" db:"budget_remaining"`

	// SpentToday accumulates spend for SpentDay (YYYY-MM-DD in the campaign timezone).
	SpentToday float64 `json:"spent_today" db:"budget_spent_today"`
	SpentDay   string  `json:"spent_day,omitempty" db:"budget_spent_day"`
}

// Performance holds raw running sums. Averages and ROI are derived on read.
type Performance struct {
	TotalCalls     int     `json:"total_calls" db:"total_calls"`
	TotalDuration  int     `json:"total_duration" db:"total_duration"`
	TotalCost      float64 `json:"total_cost" db:"total_cost"`
	TotalRevenue   float64 `json:"total_revenue" db:"total_revenue"`
	QualifiedLeads int     `json:"qualified_leads" db:"qualified_leads"`
}

type Schedule struct {
	StartDate time.Time `json:"start_date" db:"start_date"`
	// EndDate zero means open-ended.
	EndDate  time.Time `json:"end_date" db:"end_date"`
	Timezone string    `json:"timezone" db:"timezone"`

	ActiveHours ActiveHours `json:"active_hours"`
	// ActiveDays empty means every day.
	ActiveDays []time.Weekday `json:"active_days,omitempty" db:"active_days"`
}

// ActiveHours is a local "HH:MM" window. Empty bounds mean the whole day.
type ActiveHours struct {
	Start string `json:"start" db:"active_hours_start"`
	End   string `json:"end" db:"active_hours_end"`
}

type Status string

const (
	StatusDraft     Status = "draft"
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusPaused, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

func (s Status) Terminal() bool { return s == StatusCompleted || s == StatusCancelled }

// Outcome is what one finished call contributes to its campaign.
type Outcome struct {
	CallID     string
	CampaignID string

	Duration  int
	Cost      float64
	Revenue   float64
	Qualified bool

	At time.Time
}
