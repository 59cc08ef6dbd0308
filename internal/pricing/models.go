package pricing

import "time"

// MinuteRate is the per-minute price an advertiser pays for calls in a category.
// Rows are owner-scoped and carry an effective window; the newest effective row wins.
type MinuteRate struct {
	ID     string `json:"id" db:"id"`
	UserID string `json:"user_id" db:"user_id"`

	// Category matches Campaign.Category (e.g. "insurance", "home_services").
	Category string `json:"category" db:"category"`

	RatePerMinute float64 `json:"rate_per_minute" db:"rate_per_minute"`

	EffectiveFrom time.Time  `json:"effective_from" db:"effective_from"`
	EffectiveTo   *time.Time `json:"effective_to,omitempty" db:"effective_to"`

	Status RateStatus `json:"status" db:"status"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type RateStatus string

const (
	RateStatusActive   RateStatus = "active"
	RateStatusInactive RateStatus = "inactive"
)

// effectiveAt reports whether the row applies at the given instant.
func (r MinuteRate) effectiveAt(at time.Time) bool {
	if r.Status != RateStatusActive {
		return false
	}
	if at.Before(r.EffectiveFrom) {
		return false
	}
	if r.EffectiveTo != nil && !at.Before(*r.EffectiveTo) {
		return false
	}
	return true
}
